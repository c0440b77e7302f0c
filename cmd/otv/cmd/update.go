package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/OpenTraceLab/OpenTraceVLSI/pkg/bus"
	"github.com/OpenTraceLab/OpenTraceVLSI/pkg/busparam"
	"github.com/OpenTraceLab/OpenTraceVLSI/pkg/job"
)

var updateCmd = &cobra.Command{
	Use:   "update",
	Short: "Rename every templated element",
	Long: `Re-resolve the bus template of every node, arc and export in the visible
libraries and rename the elements whose resolved name changed. Changed
libraries are written back to their files unless --dry-run is given.`,
	RunE: runUpdate,
}

var updateDryRun bool

func init() {
	rootCmd.AddCommand(updateCmd)
	updateCmd.Flags().BoolVarP(&updateDryRun, "dry-run", "n", false,
		"show the renames without applying them")
}

func runUpdate(cmd *cobra.Command, args []string) error {
	ws, err := openWorkspace()
	if err != nil {
		return err
	}

	if updateDryRun {
		plan := bus.Plan(ws.db, busparam.WithLogger(diagnostics()))
		for _, rn := range plan {
			fmt.Printf("  %s: %s -> %s\n", rn.Ref, rn.From, rn.To)
		}
		fmt.Printf("%d elements would be renamed\n", len(plan))
		return nil
	}

	q := job.NewQueue(ws.db, job.WithLogger(diagnostics()))
	defer q.Close()

	libs, err := updateAll(context.Background(), q)
	if err != nil {
		return err
	}
	return ws.repo.SaveAll(ws.db, libs...)
}
