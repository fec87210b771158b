package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/inlay-build/inlay/pkg/store"
)

var (
	reportStorePath string
	reportColor     string
)

// styles holds color formatters for report output.
type styles struct {
	heading  *color.Color
	count    *color.Color
	metadata *color.Color
}

// newStyles creates color formatters.
// enabled=false respects --color=never and the NO_COLOR env var.
func newStyles(enabled bool) *styles {
	s := &styles{
		heading:  color.New(color.Bold, color.FgHiWhite),
		count:    color.New(color.FgHiGreen),
		metadata: color.New(color.FgHiBlue),
	}
	if !enabled {
		s.heading.DisableColor()
		s.count.DisableColor()
		s.metadata.DisableColor()
	}
	return s
}

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Report on a previous scan",
	Long:  "Read a scan database and summarize the collected fragments",
	RunE:  runReport,
}

func init() {
	reportCmd.Flags().StringVar(&reportStorePath, "store", "inlay.db", "Path to scan database")
	reportCmd.Flags().StringVar(&reportColor, "color", "auto", "Color output: auto, always, never")
}

func runReport(cmd *cobra.Command, args []string) error {
	if reportStorePath == ":memory:" {
		return fmt.Errorf("cannot report from in-memory store")
	}
	if _, err := os.Stat(reportStorePath); err != nil {
		return fmt.Errorf("database not found: %s", reportStorePath)
	}

	s, err := store.New(store.Config{Path: reportStorePath})
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer s.Close()

	switch reportColor {
	case "always":
		color.NoColor = false
	case "never":
		color.NoColor = true
	default: // "auto"
		color.NoColor = !term.IsTerminal(int(os.Stdout.Fd())) || os.Getenv("NO_COLOR") != ""
	}
	st := newStyles(!color.NoColor)

	out := cmd.OutOrStdout()

	info, err := s.GetCrateInfo()
	if err != nil {
		return fmt.Errorf("retrieving crate info: %w", err)
	}
	files, err := s.GetFiles()
	if err != nil {
		return fmt.Errorf("retrieving files: %w", err)
	}
	closures, err := s.GetClosures()
	if err != nil {
		return fmt.Errorf("retrieving closures: %w", err)
	}
	classes, err := s.GetClasses()
	if err != nil {
		return fmt.Errorf("retrieving classes: %w", err)
	}
	invocations, err := s.GetInvocations()
	if err != nil {
		return fmt.Errorf("retrieving invocations: %w", err)
	}

	fmt.Fprintf(out, "%s %s\n", st.heading.Sprint("Crate:"), st.metadata.Sprintf("%d", info.FileHash))
	fmt.Fprintf(out, "%s %s files, %s closures, %s classes, %s callbacks\n",
		st.heading.Sprint("Scanned:"),
		st.count.Sprint(len(files)),
		st.count.Sprint(len(closures)),
		st.count.Sprint(len(classes)),
		st.count.Sprint(info.Callbacks))

	if len(closures) > 0 {
		fmt.Fprintf(out, "\n%s\n", st.heading.Sprint("Closures"))
		table := tablewriter.NewWriter(out)
		table.SetHeader([]string{"Extern Name", "File", "Line", "Return", "Captures"})
		for _, c := range closures {
			table.Append([]string{
				c.ExternName,
				c.Path,
				strconv.Itoa(c.Line),
				c.RetCpp,
				strconv.Itoa(c.CaptureCount),
			})
		}
		table.Render()
	}

	if len(classes) > 0 {
		fmt.Fprintf(out, "\n%s\n", st.heading.Sprint("Classes"))
		table := tablewriter.NewWriter(out)
		table.SetHeader([]string{"Name", "C++ Type", "Public", "File", "Line"})
		for _, c := range classes {
			table.Append([]string{
				c.Name,
				c.Cpp,
				strconv.FormatBool(c.Public),
				c.Path,
				strconv.Itoa(c.Line),
			})
		}
		table.Render()
	}

	if len(invocations) > 0 {
		fmt.Fprintf(out, "\n%s\n", st.heading.Sprint("rust! invocations"))
		table := tablewriter.NewWriter(out)
		table.SetHeader([]string{"Closure", "Id", "Args", "Return"})
		for _, inv := range invocations {
			table.Append([]string{
				inv.Closure,
				inv.Id,
				strconv.Itoa(inv.Args),
				inv.RetCpp,
			})
		}
		table.Render()
	}

	return nil
}
