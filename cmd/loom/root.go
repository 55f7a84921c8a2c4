package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/phsym/zeroslog"
	"github.com/spf13/cobra"
)

const version = "0.1.0"

var rootCmd = &cobra.Command{
	Use:     "loom",
	Short:   "Loom drives template based conversations",
	Long:    `Loom runs conversation flows declared in YAML flowfiles: scripted prose, model turns, user prompts, branching, loops and subroutines.`,
	Version: version,
	PersistentPreRun: func(cmd *cobra.Command, _ []string) {
		if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
			slog.SetDefault(slog.New(
				zeroslog.NewHandler(log, &zeroslog.HandlerOptions{Level: slog.LevelDebug}),
			))
		}
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Log engine internals")
}
