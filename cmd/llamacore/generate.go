package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

func newGenerateCmd() *cobra.Command {
	var idsFlag string
	var maxNew int
	var profile string

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate tokens continuing a prompt of token ids",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ids, err := parseIds(idsFlag)
			if err != nil {
				return err
			}

			r, err := loadRunner(runtimeConfig())
			if err != nil {
				return err
			}

			out := r.Generate(ids, maxNew, profileParams(profile))
			fmt.Println(formatIds(out))
			return nil
		},
	}

	cmd.Flags().StringVar(&idsFlag, "ids", "", "comma-separated prompt token ids (tokenization is not implemented by this command)")
	cmd.Flags().IntVar(&maxNew, "max-new-tokens", 256, "maximum number of tokens to generate")
	cmd.Flags().StringVar(&profile, "profile", "chat", "sampling profile: story or chat")
	cmd.MarkFlagRequired("ids")

	return cmd
}

func parseIds(s string) ([]uint32, error) {
	if strings.TrimSpace(s) == "" {
		return nil, fmt.Errorf("llamacore: --ids must not be empty")
	}
	parts := strings.Split(s, ",")
	out := make([]uint32, len(parts))
	for i, p := range parts {
		v, err := strconv.ParseUint(strings.TrimSpace(p), 10, 32)
		if err != nil {
			return nil, fmt.Errorf("llamacore: invalid token id %q: %w", p, err)
		}
		out[i] = uint32(v)
	}
	return out, nil
}

func formatIds(ids []uint32) string {
	parts := make([]string, len(ids))
	for i, v := range ids {
		parts[i] = strconv.FormatUint(uint64(v), 10)
	}
	return strings.Join(parts, ",")
}
