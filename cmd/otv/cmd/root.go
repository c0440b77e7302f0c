package cmd

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/OpenTraceLab/OpenTraceVLSI/pkg/circuit"
	"github.com/OpenTraceLab/OpenTraceVLSI/pkg/library"
)

var (
	// Global flags
	verbose        bool
	libDir         string
	libFiles       []string
	currentLibrary string
)

var rootCmd = &cobra.Command{
	Use:   "otv",
	Short: "OpenTraceVLSI - bus parameter tools for VLSI libraries",
	Long: `OpenTraceVLSI (otv) manages bus parameters of VLSI design libraries:
  - list and edit the "name=value" parameters stored on each library
  - resolve bus templates such as "d[$(width)-1:0]"
  - rename every templated node, arc and export after parameters change

Libraries are read from .vlib files given with --lib or found under --dir.

Examples:
  otv params list --dir libs/                    # Show all parameters
  otv params set width 16 --dir libs/ -l work    # Change a parameter
  otv resolve 'd[$(width)-1:0]' --dir libs/      # Resolve one template
  otv update --dir libs/                         # Rename everything that changed
  otv ui --dir libs/                             # Launch the parameter dialog`,
	Version: "0.3.0",
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVarP(&libDir, "dir", "d", "",
		"directory searched recursively for .vlib files")
	rootCmd.PersistentFlags().StringSliceVar(&libFiles, "lib", nil,
		".vlib files to load (repeatable)")
	rootCmd.PersistentFlags().StringVar(&currentLibrary, "current", "",
		"library treated as the current library")
}

// workspace is the database loaded for one command invocation.
type workspace struct {
	db   *circuit.Database
	repo *library.Repository
}

func openWorkspace() (*workspace, error) {
	if libDir == "" && len(libFiles) == 0 {
		return nil, fmt.Errorf("no libraries: use --dir or --lib")
	}
	repo, err := library.NewRepository()
	if err != nil {
		return nil, err
	}
	db := circuit.NewDatabase()
	if libDir != "" {
		if verbose {
			fmt.Printf("Loading libraries from: %s\n", libDir)
		}
		if err := repo.LoadDir(db, libDir); err != nil {
			return nil, err
		}
	}
	if err := repo.LoadFiles(db, libFiles...); err != nil {
		return nil, err
	}
	if currentLibrary != "" {
		if err := db.SetCurrent(currentLibrary); err != nil {
			return nil, err
		}
	}
	if verbose {
		fmt.Printf("Loaded %d libraries (current: %s)\n\n", len(db.Libraries()), db.Current())
	}
	return &workspace{db: db, repo: repo}, nil
}

// diagnostics is where resolution problems are reported.
func diagnostics() *log.Logger {
	return log.New(os.Stderr, "otv: ", 0)
}

// termWidth returns the width of stdout, or 0 when it is not a terminal.
func termWidth() int {
	fd := int(os.Stdout.Fd())
	if !term.IsTerminal(fd) {
		return 0
	}
	w, _, err := term.GetSize(fd)
	if err != nil {
		return 0
	}
	return w
}

// clip shortens s to width runes, marking the cut with "..."; width <= 0
// disables clipping.
func clip(s string, width int) string {
	r := []rune(s)
	if width <= 0 || len(r) <= width {
		return s
	}
	if width <= 3 {
		return string(r[:width])
	}
	return string(r[:width-3]) + "..."
}
