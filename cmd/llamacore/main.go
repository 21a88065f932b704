// Command llamacore is the CLI and HTTP entrypoint around the model
// package: load a config.json + safetensors archive, then generate, chat,
// or serve. Structure follows the teacher's own cmd/ layout (one file per
// subcommand, a shared root.go wiring cobra+viper+slog).
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
