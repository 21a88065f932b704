// Package chatformat renders a system/user turn into the sentinel-tagged
// prompt string the chat generation profile expects. Prompt templating is
// explicitly out of scope for the core model (spec.md Non-goals), but
// original_source/src/main.rs hardcodes exactly one such template for its
// chat route, and SPEC_FULL.md §4 keeps that as a small supplementary
// helper living outside the core package boundary.
package chatformat

import "strings"

const (
	imStart = "<|im_start|>"
	imEnd   = "<|im_end|>"
)

// Wrap renders system and user turns into the single-turn chat prompt
// original_source feeds its chat route, stopping right before the
// assistant's reply so the model continues it:
//
//	<|im_start|>system\n{system}<|im_end|>\n<|im_start|>user\n{user}<|im_end|>\n<|im_start|>assistant
func Wrap(system, user string) string {
	var b strings.Builder
	b.WriteString(imStart)
	b.WriteString("system\n")
	b.WriteString(system)
	b.WriteString(imEnd)
	b.WriteString("\n")
	b.WriteString(imStart)
	b.WriteString("user\n")
	b.WriteString(user)
	b.WriteString(imEnd)
	b.WriteString("\n")
	b.WriteString(imStart)
	b.WriteString("assistant")
	return b.String()
}
