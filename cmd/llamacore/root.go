package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ollamacore/llamacore/config"
)

var activeViper *viper.Viper

// NewRootCmd builds the llamacore root command: generate, chat, serve.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "llamacore",
		Short: "Run and serve a decode-only Llama-style model",
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			v, err := config.NewViper(cmd.Flags())
			if err != nil {
				return err
			}
			activeViper = v
			setupLogger()
			return nil
		},
	}

	config.RegisterFlags(cmd.PersistentFlags())

	cmd.AddCommand(newGenerateCmd())
	cmd.AddCommand(newChatCmd())
	cmd.AddCommand(newServeCmd())

	return cmd
}

// setupLogger configures the process-wide slog default logger, matching
// the teacher's cmd entrypoint.
func setupLogger() {
	h := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo})
	slog.SetDefault(slog.New(h))
}

func runtimeConfig() config.Runtime {
	return config.Load(activeViper)
}
