package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matiasvr/fireline/core/allocator"
)

var compareCmd = &cobra.Command{
	Use:   "compare",
	Short: "Diff a what-if scenario against the baseline plan",
	RunE:  runCompare,
}

func init() {
	compareCmd.Flags().StringVarP(&fixturePath, "fixture", "f", "", "scenario fixture file (default: built-in demo)")
	compareCmd.Flags().StringVarP(&scenarioName, "scenario", "s", "", "named scenario from the fixture")
	rootCmd.AddCommand(compareCmd)
}

func runCompare(cmd *cobra.Command, args []string) error {
	if scenarioName == "" {
		return fmt.Errorf("--scenario is required")
	}
	base, err := solveFixture(fixturePath, "")
	if err != nil {
		return err
	}
	alt, err := solveFixture(fixturePath, scenarioName)
	if err != nil {
		return err
	}
	return printJSON(cmd, allocator.Compare(base, alt))
}
