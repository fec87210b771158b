package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/inlay-build/inlay"
)

var (
	scanStorePath     string
	scanFeatures      []string
	scanIncludeHidden bool
	scanMaxFileSize   int64
)

var scanCmd = &cobra.Command{
	Use:   "scan [target]",
	Short: "Scan Rust source for embedded C++ fragments",
	Long: `Scan a crate for cpp! and cpp_class! invocations and persist the
collected fragments. The target is a crate root file (module
declarations are followed) or a directory (every .rs file underneath
is scanned). Defaults to the crate root from inlay.yaml.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runScan,
}

func init() {
	scanCmd.Flags().StringVar(&scanStorePath, "store", "inlay.db", "Output database path")
	scanCmd.Flags().StringSliceVar(&scanFeatures, "feature", nil, "Enable a cargo feature (repeatable)")
	scanCmd.Flags().BoolVar(&scanIncludeHidden, "include-hidden", false, "Include hidden files when scanning a directory")
	scanCmd.Flags().Int64Var(&scanMaxFileSize, "max-file-size", 10*1024*1024, "Maximum file size to scan (bytes)")
}

func runScan(cmd *cobra.Command, args []string) error {
	cfg, err := loadProjectConfig()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	target := cfg.CrateRoot
	if len(args) > 0 {
		target = args[0]
	}
	storePath := scanStorePath
	if !cmd.Flags().Changed("store") && cfg.Store != ":memory:" {
		storePath = cfg.Store
	}
	features := append(cfg.Features, scanFeatures...)

	ex, result, err := runExtraction(target, storePath, features)
	if err != nil {
		return err
	}
	defer ex.Close()

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Scan complete: %d files, %d closures, %d classes, %d callbacks\n",
		len(result.Files), len(result.Closures), len(result.Classes), result.Callbacks)
	fmt.Fprintf(out, "Results stored in: %s\n", storePath)

	if verbose {
		for _, c := range result.Closures {
			fmt.Fprintf(out, "  closure %s (%d captures)\n", c.Sig.ExternName(), len(c.Sig.Captures))
		}
		for _, cls := range result.Classes {
			fmt.Fprintf(out, "  class %s as %q\n", cls.Name, cls.Cpp)
		}
	}
	return nil
}

// runExtraction scans target, persisting results to the store at
// storePath. A file target is treated as a crate root, a directory
// target as a loose source tree. The caller closes the extractor.
func runExtraction(target, storePath string, features []string) (*inlay.Extractor, *inlay.Result, error) {
	info, err := os.Stat(target)
	if err != nil {
		return nil, nil, fmt.Errorf("target does not exist: %s", target)
	}

	opts := []inlay.Option{
		inlay.WithStore(storePath),
		inlay.WithFeatures(features...),
		inlay.WithMaxFileSize(scanMaxFileSize),
	}
	if scanIncludeHidden {
		opts = append(opts, inlay.WithHiddenFiles())
	}

	ex, err := inlay.NewExtractor(opts...)
	if err != nil {
		return nil, nil, fmt.Errorf("creating extractor: %w", err)
	}

	var result *inlay.Result
	if info.IsDir() {
		result, err = ex.ScanDir(context.Background(), target)
	} else {
		result, err = ex.ScanCrate(target)
	}
	if err != nil {
		ex.Close()
		return nil, nil, err
	}
	return ex, result, nil
}
