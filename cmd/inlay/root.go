package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/inlay-build/inlay/pkg/config"
)

var (
	configPath string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "inlay",
	Short: "Inlay - embedded C++ extractor for Rust crates",
	Long: `Inlay scans Rust source for cpp! and cpp_class! macro invocations,
collects the C++ fragments they carry, and generates a single C++
translation unit ready for compilation into the crate's build.`,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to inlay.yaml (default: ./inlay.yaml if present)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")

	// Add subcommands
	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(versionCmd)
}

// loadProjectConfig resolves the project configuration: the --config
// path if given, ./inlay.yaml if present, defaults otherwise.
func loadProjectConfig() (*config.Config, error) {
	if configPath != "" {
		return config.LoadFile(configPath)
	}
	if _, err := os.Stat("inlay.yaml"); err == nil {
		return config.LoadFile("inlay.yaml")
	}
	return config.Default(), nil
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
