package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/cobra"

	"github.com/matiasvr/fireline/config"
	"github.com/matiasvr/fireline/core/allocator"
	"github.com/matiasvr/fireline/core/model"
	"github.com/matiasvr/fireline/core/scoring"
	"github.com/matiasvr/fireline/infra/logger"
	"github.com/matiasvr/fireline/infra/solver"
	"github.com/matiasvr/fireline/pkg/export"
	"github.com/matiasvr/fireline/qa/scenarios"
)

var (
	fixturePath  string
	scenarioName string
	outputFormat string
)

var optimizeCmd = &cobra.Command{
	Use:   "optimize",
	Short: "Solve an allocation problem and print the plan",
	RunE:  runOptimize,
}

func init() {
	optimizeCmd.Flags().StringVarP(&fixturePath, "fixture", "f", "", "scenario fixture file (default: built-in demo)")
	optimizeCmd.Flags().StringVarP(&scenarioName, "scenario", "s", "", "named scenario from the fixture")
	optimizeCmd.Flags().StringVarP(&outputFormat, "output", "o", "json", "output format: json or csv")
	rootCmd.AddCommand(optimizeCmd)
}

func runOptimize(cmd *cobra.Command, args []string) error {
	plan, err := solveFixture(fixturePath, scenarioName)
	if err != nil {
		return err
	}
	switch outputFormat {
	case "json":
		return export.WriteJSON(cmd.OutOrStdout(), plan)
	case "csv":
		return export.WriteCSV(cmd.OutOrStdout(), plan)
	default:
		return fmt.Errorf("unknown output format %q", outputFormat)
	}
}

// loadAllocatorConfig reads the allocator section from the config file when
// it exists; the offline commands work without one.
func loadAllocatorConfig() (allocator.Config, error) {
	if _, err := os.Stat(cfgPath); errors.Is(err, fs.ErrNotExist) {
		return allocator.DefaultConfig(), nil
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return allocator.Config{}, fmt.Errorf("load config: %w", err)
	}
	return cfg.Allocator, nil
}

func loadFixture(path string) (*scenarios.Fixture, error) {
	if path == "" {
		return scenarios.Demo(), nil
	}
	return scenarios.Load(path)
}

func solveFixture(path, scenario string) (*model.AllocationPlan, error) {
	cfg, err := loadAllocatorConfig()
	if err != nil {
		return nil, err
	}
	fx, err := loadFixture(path)
	if err != nil {
		return nil, err
	}

	scorer := scoring.NewThreatScorer(fx.Assets)
	demands := fx.Demands
	resources := fx.Resources
	name := "baseline"
	if scenario != "" {
		sc, ok := fx.Scenario(scenario)
		if !ok {
			return nil, fmt.Errorf("scenario %q not in fixture", scenario)
		}
		demands, resources = scoring.ApplyScenario(sc, scorer, demands, resources)
		name = sc.Name
	} else {
		demands = scorer.Apply(demands, scoring.Wind{})
	}

	planner, err := allocator.New(cfg,
		allocator.WithSolver(solver.New()),
		allocator.WithLogger(logger.New("cli")),
	)
	if err != nil {
		return nil, err
	}
	plan := planner.Optimize(demands, resources, name)
	allocator.NewExplainer(cfg).Annotate(plan, demands, resources)
	return plan, nil
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
