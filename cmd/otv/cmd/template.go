package cmd

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/OpenTraceLab/OpenTraceVLSI/pkg/bus"
	"github.com/OpenTraceLab/OpenTraceVLSI/pkg/busparam"
	"github.com/OpenTraceLab/OpenTraceVLSI/pkg/circuit"
	"github.com/OpenTraceLab/OpenTraceVLSI/pkg/job"
)

var templateCmd = &cobra.Command{
	Use:   "template",
	Short: "Bus template operations",
	Long: `Attach bus templates to nodes, arcs and exports, or remove them.

Elements are addressed by cell and element ID, as printed by
"otv update --dry-run" and "otv report" (library:cell#id).`,
}

var templateSetCmd = &cobra.Command{
	Use:   "set <cell> <id> <template>",
	Short: "Attach a bus template to an element",
	Long: `Attach a bus template to a node, arc or export, replacing any template it
already has, then write the library back to its file. With --rename the
element is renamed to the resolved template right away.`,
	Args: cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		return editTemplate(args[0], args[1], args[2])
	},
}

var templateClearCmd = &cobra.Command{
	Use:   "clear <cell> <id>",
	Short: "Remove the bus template of an element",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return editTemplate(args[0], args[1], "")
	},
}

var (
	templateLibrary string
	templateRename  bool
)

func init() {
	rootCmd.AddCommand(templateCmd)
	templateCmd.AddCommand(templateSetCmd)
	templateCmd.AddCommand(templateClearCmd)

	templateCmd.PersistentFlags().StringVarP(&templateLibrary, "library", "l", "",
		"library holding the cell (default: best default library)")
	templateSetCmd.Flags().BoolVarP(&templateRename, "rename", "r", false,
		"rename the element to the resolved template")
}

func editTemplate(cell, id, template string) error {
	n, err := strconv.Atoi(id)
	if err != nil || n < 1 {
		return fmt.Errorf("invalid element id %q", id)
	}
	ws, err := openWorkspace()
	if err != nil {
		return err
	}

	lib := templateLibrary
	if lib == "" {
		lib = bus.DefaultLibrary(ws.db)
	}
	ref := circuit.ElementRef{Library: lib, Cell: cell, ID: n}

	q := job.NewQueue(ws.db, job.WithLogger(diagnostics()))
	defer q.Close()

	req, err := job.Await(context.Background(), q, &bus.SetTemplate{
		Ref:      ref,
		Template: template,
		Rename:   templateRename,
		Options:  []busparam.Option{busparam.WithLogger(diagnostics())},
	})
	if err != nil {
		return err
	}

	switch {
	case template == "" && req.Previous == "":
		fmt.Printf("%s has no template\n", ref)
		return nil
	case template == "":
		fmt.Printf("Cleared template %s from %s\n", req.Previous, ref)
	default:
		fmt.Printf("Set template %s on %s\n", template, ref)
		if req.Previous != "" && req.Previous != template {
			fmt.Printf("  replaced %s\n", req.Previous)
		}
	}
	if req.Renamed {
		fmt.Printf("  renamed to %s\n", req.Resolved)
	}
	return ws.repo.SaveAll(ws.db, lib)
}
