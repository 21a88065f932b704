package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ollamacore/llamacore/chatformat"
	"github.com/ollamacore/llamacore/model"
)

func newChatCmd() *cobra.Command {
	var system, user string
	var idsFlag string
	var maxNew int

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Wrap a system/user turn in the chat template and generate a reply",
		Long: "Renders --system/--user through chatformat.Wrap for display, then " +
			"generates from --ids, the caller-supplied tokenization of that prompt " +
			"(this repo does not implement a tokenizer, per its scope).",
		RunE: func(cmd *cobra.Command, _ []string) error {
			wrapped := chatformat.Wrap(system, user)
			fmt.Println("prompt:", wrapped)

			ids, err := parseIds(idsFlag)
			if err != nil {
				return err
			}

			r, err := loadRunner(runtimeConfig())
			if err != nil {
				return err
			}

			out := r.Generate(ids, maxNew, model.ChatProfile.Params)
			fmt.Println(formatIds(out))
			return nil
		},
	}

	cmd.Flags().StringVar(&system, "system", "You are a helpful assistant.", "system turn")
	cmd.Flags().StringVar(&user, "user", "", "user turn")
	cmd.Flags().StringVar(&idsFlag, "ids", "", "comma-separated token ids for the rendered prompt")
	cmd.Flags().IntVar(&maxNew, "max-new-tokens", 256, "maximum number of tokens to generate")
	cmd.MarkFlagRequired("ids")

	return cmd
}
