package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	generateOutput   string
	generateFeatures []string
)

var generateCmd = &cobra.Command{
	Use:   "generate [target]",
	Short: "Generate the C++ translation unit",
	Long: `Scan a crate and render every collected fragment into a single C++
source file: global snippets, one extern "C" wrapper per closure, the
rust! callback table and the type size table.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runGenerate,
}

func init() {
	generateCmd.Flags().StringVarP(&generateOutput, "output", "o", "", "Output C++ file (default from inlay.yaml)")
	generateCmd.Flags().StringSliceVar(&generateFeatures, "feature", nil, "Enable a cargo feature (repeatable)")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	cfg, err := loadProjectConfig()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	target := cfg.CrateRoot
	if len(args) > 0 {
		target = args[0]
	}
	output := generateOutput
	if output == "" {
		output = cfg.Output
	}
	features := append(cfg.Features, generateFeatures...)

	// Generation does not need the scan persisted.
	ex, result, err := runExtraction(target, ":memory:", features)
	if err != nil {
		return err
	}
	defer ex.Close()

	if err := ex.Generate(result, output); err != nil {
		return fmt.Errorf("generating: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Generated %s: %d closures, %d callback slots\n",
		output, len(result.Closures), result.Callbacks)
	return nil
}
