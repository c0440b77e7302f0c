package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/OpenTraceLab/OpenTraceVLSI/pkg/bus"
	"github.com/OpenTraceLab/OpenTraceVLSI/pkg/busparam"
)

var resolveCmd = &cobra.Command{
	Use:   "resolve <template>...",
	Short: "Resolve bus templates",
	Long: `Resolve one or more bus templates against the loaded libraries.

Each "$(name)" is replaced by the parameter's value, looked up first in the
home library (--library, or the best default library) and then in every other
visible library. Integer arithmetic such as "8-1" is then reduced from left
to right. Problems are reported on stderr and the partial result is printed.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runResolve,
}

var (
	resolveLibrary string
	resolveMax     int
)

func init() {
	rootCmd.AddCommand(resolveCmd)
	resolveCmd.Flags().StringVarP(&resolveLibrary, "library", "l", "",
		"home library (default: best default library)")
	resolveCmd.Flags().IntVar(&resolveMax, "max-substitutions", busparam.DefaultMaxSubstitutions,
		"stop after this many substitutions")
}

func runResolve(cmd *cobra.Command, args []string) error {
	ws, err := openWorkspace()
	if err != nil {
		return err
	}

	home := resolveLibrary
	if home == "" {
		home = bus.DefaultLibrary(ws.db)
	}
	if verbose {
		fmt.Printf("Home library: %s\n", home)
	}

	r := busparam.NewResolver(bus.Snapshot(ws.db),
		busparam.WithLogger(diagnostics()),
		busparam.WithMaxSubstitutions(resolveMax))
	for _, template := range args {
		fmt.Println(r.Resolve(template, home))
	}
	return nil
}
