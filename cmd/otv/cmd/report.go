package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/OpenTraceLab/OpenTraceVLSI/pkg/busparam"
	"github.com/OpenTraceLab/OpenTraceVLSI/pkg/report"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Export bus templates as an s-expression report",
	Long: `Write every bus template, its resolved name and any resolution problem
as an s-expression document. Elements whose name no longer matches their
template are marked (stale yes).`,
	RunE: runReport,
}

var (
	reportOutput string
	reportCheck  bool
)

func init() {
	rootCmd.AddCommand(reportCmd)
	reportCmd.Flags().StringVarP(&reportOutput, "output", "o", "", "output file (default: stdout)")
	reportCmd.Flags().BoolVar(&reportCheck, "check", false, "verify the document before writing it")
}

func runReport(cmd *cobra.Command, args []string) error {
	ws, err := openWorkspace()
	if err != nil {
		return err
	}

	rows := report.Collect(ws.db, busparam.WithLogger(nil))
	doc := report.Export(rows)

	if reportCheck {
		leaves, err := report.Check(doc)
		if err != nil {
			return err
		}
		if verbose {
			fmt.Fprintf(os.Stderr, "report: %d rows, %d leaves\n", len(rows), leaves)
		}
	}

	if reportOutput == "" {
		fmt.Print(doc)
		return nil
	}
	if err := os.WriteFile(reportOutput, []byte(doc), 0o644); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	fmt.Printf("Report written to %s (%d elements)\n", reportOutput, len(rows))
	return nil
}
