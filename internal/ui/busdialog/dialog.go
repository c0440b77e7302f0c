// Package busdialog is the Gio window for editing bus parameters.
package busdialog

import (
	"log"
	"os"

	"gioui.org/app"
	"gioui.org/unit"

	"github.com/OpenTraceLab/OpenTraceVLSI/internal/ui"
	"github.com/OpenTraceLab/OpenTraceVLSI/pkg/circuit"
	"github.com/OpenTraceLab/OpenTraceVLSI/pkg/job"
	"github.com/OpenTraceLab/OpenTraceVLSI/pkg/library"
)

// Options wires the dialog to an already loaded database.
type Options struct {
	DB     *circuit.Database
	Queue  *job.Queue
	Repo   *library.Repository
	Config *ui.Config   // nil loads the saved configuration
	State  *ui.AppState // nil starts with an empty log
}

// Run launches the Gio UI and blocks until the window closes.
func Run(opts Options) error {
	if opts.Config == nil {
		cfg, err := ui.LoadConfig()
		if err != nil {
			log.Printf("busdialog: config: %v", err)
			cfg = ui.DefaultConfig()
		}
		opts.Config = cfg
	}

	go func() {
		w := new(app.Window)
		w.Option(app.Title("Bus Parameters"), app.Size(unit.Dp(900), unit.Dp(680)))
		dlg := New(w, opts.State, opts)
		if err := dlg.Run(); err != nil {
			log.Printf("busdialog: %v", err)
		}
		if opts.Queue != nil {
			opts.Queue.Close()
		}
		os.Exit(0)
	}()

	app.Main()
	return nil
}
