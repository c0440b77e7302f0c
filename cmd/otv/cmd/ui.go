package cmd

import (
	"io"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/OpenTraceLab/OpenTraceVLSI/internal/ui"
	"github.com/OpenTraceLab/OpenTraceVLSI/internal/ui/busdialog"
	"github.com/OpenTraceLab/OpenTraceVLSI/pkg/job"
)

var uiCmd = &cobra.Command{
	Use:   "ui",
	Short: "Launch the bus parameter dialog",
	Long: `Launch the graphical bus parameter dialog for the loaded libraries.
Edits are applied through the same job queue the command line uses and the
changed libraries are written back to their files.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ws, err := openWorkspace()
		if err != nil {
			return err
		}
		// Failed background requests show up in the log pane as well.
		state := ui.NewState()
		logger := log.New(io.MultiWriter(os.Stderr, state), "otv: ", 0)
		q := job.NewQueue(ws.db, job.WithLogger(logger))
		defer q.Close()
		return busdialog.Run(busdialog.Options{DB: ws.db, Queue: q, Repo: ws.repo, State: state})
	},
}

func init() {
	rootCmd.AddCommand(uiCmd)
}
