package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/OpenTraceLab/OpenTraceVLSI/pkg/bus"
	"github.com/OpenTraceLab/OpenTraceVLSI/pkg/circuit"
)

var cellsCmd = &cobra.Command{
	Use:   "cells",
	Short: "List cells",
	Long: `List the cells of the loaded libraries with their element and bus
template counts.

Examples:
  otv cells --dir libs/                      # Every visible cell
  otv cells --dir libs/ --templates          # Only cells with bus templates
  otv cells --dir libs/ --pattern '^reg'     # Cells whose name starts with reg`,
	RunE: runCells,
}

var (
	cellsLibrary   string
	cellsAll       bool
	cellsPattern   string
	cellsTemplates bool
)

func init() {
	rootCmd.AddCommand(cellsCmd)
	cellsCmd.Flags().StringVarP(&cellsLibrary, "library", "l", "", "only this library")
	cellsCmd.Flags().BoolVarP(&cellsAll, "all", "a", false, "include hidden libraries")
	cellsCmd.Flags().StringVarP(&cellsPattern, "pattern", "p", "", "regular expression on cell names")
	cellsCmd.Flags().BoolVarP(&cellsTemplates, "templates", "t", false,
		"only cells with bus templates")
}

func runCells(cmd *cobra.Command, args []string) error {
	ws, err := openWorkspace()
	if err != nil {
		return err
	}

	opts := circuit.DefaultCellListOptions()
	opts.Library = cellsLibrary
	opts.IncludeHidden = cellsAll
	opts.NamePattern = cellsPattern
	opts.TemplateKeys = bus.TemplateKeys()
	opts.OnlyWithTemplates = cellsTemplates

	cells, err := ws.db.ListCells(opts)
	if err != nil {
		return err
	}

	fmt.Printf("%-16s %-24s %8s %9s\n", "LIBRARY", "CELL", "ELEMENTS", "TEMPLATES")
	for _, c := range cells {
		fmt.Printf("%-16s %-24s %8d %9d\n", c.Library, c.Name, c.Elements, c.Templates)
	}
	if verbose {
		fmt.Printf("\n%d cells\n", len(cells))
	}
	return nil
}
