package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/OpenTraceLab/OpenTraceVLSI/pkg/bus"
	"github.com/OpenTraceLab/OpenTraceVLSI/pkg/busparam"
	"github.com/OpenTraceLab/OpenTraceVLSI/pkg/job"
)

var paramsCmd = &cobra.Command{
	Use:   "params",
	Short: "Bus parameter operations",
	Long:  `List and edit the bus parameters stored on each library.`,
}

var paramsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List bus parameters",
	Long: `List the bus parameters of every library, or of one library with
--library. Hidden libraries are shown only with --all.`,
	RunE: runParamsList,
}

var paramsSetCmd = &cobra.Command{
	Use:   "set <name> <value>",
	Short: "Create or change a bus parameter",
	Long: `Create a bus parameter, or change its value when it already exists,
then write the library back to its file. With --update every bus template is
re-resolved afterwards.`,
	Args: cobra.ExactArgs(2),
	RunE: runParamsSet,
}

var paramsDeleteCmd = &cobra.Command{
	Use:   "delete <name>",
	Short: "Delete a bus parameter",
	Args:  cobra.ExactArgs(1),
	RunE:  runParamsDelete,
}

var paramsDefaultCmd = &cobra.Command{
	Use:   "default",
	Short: "Show the library edited by default",
	RunE:  runParamsDefault,
}

var (
	paramsLibrary string
	paramsAll     bool
	paramsUpdate  bool
)

func init() {
	rootCmd.AddCommand(paramsCmd)
	paramsCmd.AddCommand(paramsListCmd)
	paramsCmd.AddCommand(paramsSetCmd)
	paramsCmd.AddCommand(paramsDeleteCmd)
	paramsCmd.AddCommand(paramsDefaultCmd)

	paramsCmd.PersistentFlags().StringVarP(&paramsLibrary, "library", "l", "",
		"library to operate on (default: best default library)")
	paramsListCmd.Flags().BoolVarP(&paramsAll, "all", "a", false, "include hidden libraries")
	paramsSetCmd.Flags().BoolVarP(&paramsUpdate, "update", "u", false,
		"re-resolve every bus template after the change")
	paramsDeleteCmd.Flags().BoolVarP(&paramsUpdate, "update", "u", false,
		"re-resolve every bus template after the change")
}

func runParamsList(cmd *cobra.Command, args []string) error {
	ws, err := openWorkspace()
	if err != nil {
		return err
	}

	table := bus.Snapshot(ws.db)
	def := busparam.BestDefaultLibrary(table, ws.db.Current())
	width := termWidth()

	shown := 0
	for _, lib := range table {
		if paramsLibrary != "" && lib.Name != paramsLibrary {
			continue
		}
		if lib.Hidden && !paramsAll && paramsLibrary == "" {
			continue
		}
		shown++

		marker := ""
		if lib.Name == def {
			marker = " (default)"
		}
		if lib.Hidden {
			marker += " (hidden)"
		}
		fmt.Printf("%s%s: %d parameters\n", lib.Name, marker, len(lib.Entries))
		for _, entry := range lib.Entries {
			fmt.Println(clip("  "+entry, width))
		}
	}
	if paramsLibrary != "" && shown == 0 {
		return fmt.Errorf("%w: %q", busparam.ErrUnknownLibrary, paramsLibrary)
	}
	return nil
}

func runParamsSet(cmd *cobra.Command, args []string) error {
	name, value := args[0], args[1]
	return editParameters(func(s *busparam.Session, lib string) error {
		err := s.SetValue(lib, name, value)
		if errors.Is(err, busparam.ErrUnknownParameter) {
			err = s.Add(lib, name, value)
		}
		if err == nil {
			fmt.Printf("Set %s in %s\n", busparam.FormatEntry(name, value), lib)
		}
		return err
	})
}

func runParamsDelete(cmd *cobra.Command, args []string) error {
	return editParameters(func(s *busparam.Session, lib string) error {
		if err := s.Delete(lib, args[0]); err != nil {
			return err
		}
		fmt.Printf("Deleted %s from %s\n", args[0], lib)
		return nil
	})
}

func runParamsDefault(cmd *cobra.Command, args []string) error {
	ws, err := openWorkspace()
	if err != nil {
		return err
	}
	fmt.Println(bus.DefaultLibrary(ws.db))
	return nil
}

// editParameters runs edit on a session over the loaded libraries, stores
// the dirty libraries through the job queue and saves their files.
func editParameters(edit func(s *busparam.Session, lib string) error) error {
	ws, err := openWorkspace()
	if err != nil {
		return err
	}

	lib := paramsLibrary
	if lib == "" {
		lib = bus.DefaultLibrary(ws.db)
	}
	session := busparam.NewSession(bus.Snapshot(ws.db))
	if err := edit(session, lib); err != nil {
		return err
	}

	q := job.NewQueue(ws.db, job.WithLogger(diagnostics()))
	defer q.Close()
	ctx := context.Background()

	dirty := session.Dirty()
	for _, name := range dirty {
		entries, err := session.Entries(name)
		if err != nil {
			return err
		}
		if err := q.Submit(ctx, &bus.SetParameters{Library: name, Entries: entries}, true); err != nil {
			return err
		}
	}
	session.MarkClean()

	changed := dirty
	if paramsUpdate {
		renamed, err := updateAll(ctx, q)
		if err != nil {
			return err
		}
		changed = append(changed, renamed...)
	}
	return ws.repo.SaveAll(ws.db, changed...)
}

// updateAll re-resolves every template and returns the libraries that had
// elements renamed.
func updateAll(ctx context.Context, q *job.Queue) ([]string, error) {
	req, err := bus.UpdateAllParameters(ctx, q, true, busparam.WithLogger(diagnostics()))
	var libs []string
	seen := make(map[string]bool)
	for _, rn := range req.Planned {
		fmt.Printf("  %s: %s -> %s\n", rn.Ref, rn.From, rn.To)
		if !seen[rn.Ref.Library] {
			seen[rn.Ref.Library] = true
			libs = append(libs, rn.Ref.Library)
		}
	}
	fmt.Printf("Renamed %d of %d elements\n", req.Renamed, len(req.Planned))
	return libs, err
}
