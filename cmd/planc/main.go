// Package main provides the planc binary: a checker and watcher for
// planning model files in the temporal and hierarchical dialects.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

const (
	Version = "0.1.0"
	appName = "planc"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var verbose bool
	cmd := &cobra.Command{
		Use:     appName,
		Short:   "Compile and check planning model files",
		Version: Version,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := slog.LevelWarn
			if verbose {
				level = slog.LevelDebug
			}
			h := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
			slog.SetDefault(slog.New(h))
		},
	}
	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	cmd.AddCommand(checkCmd())
	cmd.AddCommand(watchCmd())
	cmd.AddCommand(replCmd())
	return cmd
}
