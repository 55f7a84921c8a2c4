package main

import (
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/casualjim/loom/flowfile"
	"github.com/casualjim/loom/runner"
)

var validateCmd = &cobra.Command{
	Use:   "validate <flowfile>",
	Short: "Check a flowfile without running it",
	Long:  `Parses the flowfile, builds its template tree and runs the same validation the runner performs: duplicate ids, unknown jump targets and per node configuration.`,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if err := runValidate(args[0]); err != nil {
			fmt.Printf("Validation failed: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(path string) error {
	fl, err := flowfile.Load(path)
	if err != nil {
		return err
	}

	r, err := runner.New(fl.Root)
	if err != nil {
		return err
	}

	ids := r.Templates()
	sort.Strings(ids)

	fmt.Printf("Flowfile is valid: %d nodes\n", len(ids))
	for _, id := range ids {
		fmt.Println("- " + id)
	}
	return nil
}
