package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/OpenTraceLab/OpenTraceVLSI/pkg/busparam"
)

const fixture = `-- bus parameter fixture
library "work" is
	parameter "width=8";
	cell "reg{sch}" is
		node "reg@0" template "r[$(width)-1:0]";
		export "out" template "out[$(depth)]";
		arc "net@1";
	end;
	cell "adder{sch}" is
		node "sum@0";
	end;
end;

library "shared" is
	parameter "depth=4";
end;

library "tech" hidden is
	parameter "secret=1";
end;
`

// TestCommandsE2E runs each command against a fresh copy of the fixture.
func TestCommandsE2E(t *testing.T) {
	tests := []struct {
		name        string
		args        []string
		noDir       bool
		wantErr     bool
		wantContain []string
		wantAbsent  []string
		wantFile    []string // expected in the fixture file afterwards
	}{
		{
			name:        "params list",
			args:        []string{"params", "list"},
			wantContain: []string{"work (default): 1 parameters", "  width=8", "shared: 1 parameters"},
			wantAbsent:  []string{"secret"},
		},
		{
			name:        "params list hidden",
			args:        []string{"params", "list", "--all"},
			wantContain: []string{"tech (hidden): 1 parameters", "  secret=1"},
		},
		{
			name:        "params list one library",
			args:        []string{"params", "list", "-l", "shared"},
			wantContain: []string{"shared: 1 parameters", "  depth=4"},
			wantAbsent:  []string{"width"},
		},
		{
			name:    "params list unknown library",
			args:    []string{"params", "list", "-l", "nope"},
			wantErr: true,
		},
		{
			name:        "params default",
			args:        []string{"params", "default"},
			wantContain: []string{"work"},
		},
		{
			name:        "params set new",
			args:        []string{"params", "set", "lanes", "2", "-l", "shared"},
			wantContain: []string{"Set lanes=2 in shared"},
			wantFile:    []string{`parameter "depth=4";`, `parameter "lanes=2";`},
		},
		{
			name:        "params set and update",
			args:        []string{"params", "set", "WIDTH", "16", "--update"},
			wantContain: []string{"Set WIDTH=16 in work", "reg@0 -> r[15:0]", "Renamed 2 of 2 elements"},
			wantFile:    []string{`parameter "width=16";`, `node "r[15:0]" template "r[$(width)-1:0]";`},
		},
		{
			name:    "params set invalid name",
			args:    []string{"params", "set", "a(b", "1"},
			wantErr: true,
		},
		{
			name:        "params delete",
			args:        []string{"params", "delete", "depth", "-l", "shared"},
			wantContain: []string{"Deleted depth from shared"},
			wantFile:    []string{"library \"shared\" is\nend;"},
		},
		{
			name:    "params delete unknown",
			args:    []string{"params", "delete", "nope"},
			wantErr: true,
		},
		{
			name:        "resolve",
			args:        []string{"resolve", "d[$(width)-1:0]", "$(depth)*2", "plain"},
			wantContain: []string{"d[7:0]\n", "8\n", "plain\n"},
		},
		{
			name:        "resolve from other library",
			args:        []string{"resolve", "-l", "shared", "$(width)"},
			wantContain: []string{"8\n"},
		},
		{
			name:        "resolve hidden is not searched",
			args:        []string{"resolve", "x$(secret)"},
			wantContain: []string{"x$(secret)\n"},
		},
		{
			name:        "resolve unterminated",
			args:        []string{"resolve", "a$(width"},
			wantContain: []string{"a$(width\n"},
		},
		{
			name:        "resolve expansion limit",
			args:        []string{"resolve", "--max-substitutions", "1", "$(depth)$(width)"},
			wantContain: []string{"4$(width)\n"},
		},
		{
			name:        "update dry run",
			args:        []string{"update", "--dry-run"},
			wantContain: []string{"work:reg{sch}#1: reg@0 -> r[7:0]", "work:reg{sch}#2: out -> out[4]", "2 elements would be renamed"},
			wantFile:    []string{`node "reg@0"`},
		},
		{
			name:        "update",
			args:        []string{"update"},
			wantContain: []string{"Renamed 2 of 2 elements"},
			wantFile:    []string{`node "r[7:0]"`, `export "out[4]"`, `arc "net@1";`},
		},
		{
			name:        "template set and rename",
			args:        []string{"template", "set", "adder{sch}", "1", "s[$(depth)-1:0]", "--rename"},
			wantContain: []string{"Set template s[$(depth)-1:0] on work:adder{sch}#1", "renamed to s[3:0]"},
			wantFile:    []string{`node "s[3:0]" template "s[$(depth)-1:0]";`},
		},
		{
			name:        "template replace",
			args:        []string{"template", "set", "reg{sch}", "1", "q[$(width)]"},
			wantContain: []string{"Set template q[$(width)] on work:reg{sch}#1", "  replaced r[$(width)-1:0]"},
			wantAbsent:  []string{"renamed"},
			wantFile:    []string{`node "reg@0" template "q[$(width)]";`},
		},
		{
			name:        "template clear",
			args:        []string{"template", "clear", "reg{sch}", "2"},
			wantContain: []string{"Cleared template out[$(depth)] from work:reg{sch}#2"},
			wantFile:    []string{`export "out";`},
		},
		{
			name:        "template clear untemplated",
			args:        []string{"template", "clear", "reg{sch}", "3"},
			wantContain: []string{"work:reg{sch}#3 has no template"},
		},
		{
			name:    "template in other library",
			args:    []string{"template", "set", "-l", "shared", "reg{sch}", "1", "x"},
			wantErr: true,
		},
		{
			name:    "template unknown element",
			args:    []string{"template", "set", "reg{sch}", "9", "x"},
			wantErr: true,
		},
		{
			name:    "template bad id",
			args:    []string{"template", "clear", "reg{sch}", "one"},
			wantErr: true,
		},
		{
			name:        "cells",
			args:        []string{"cells"},
			wantContain: []string{"LIBRARY", "adder{sch}", "reg{sch}"},
		},
		{
			name:        "cells with templates",
			args:        []string{"cells", "--templates"},
			wantContain: []string{"reg{sch}"},
			wantAbsent:  []string{"adder{sch}"},
		},
		{
			name:    "cells bad pattern",
			args:    []string{"cells", "--pattern", "("},
			wantErr: true,
		},
		{
			name:        "report",
			args:        []string{"report", "--check"},
			wantContain: []string{"(bus-report (version 1)", `(template "r[$(width)-1:0]") (resolved "r[7:0]") (stale yes)`},
		},
		{
			name:    "no libraries",
			args:    []string{"params", "list"},
			noDir:   true,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			path := filepath.Join(dir, "work.vlib")
			if err := os.WriteFile(path, []byte(fixture), 0o644); err != nil {
				t.Fatalf("WriteFile failed: %v", err)
			}
			args := tt.args
			if !tt.noDir {
				args = append(append([]string(nil), args...), "--dir", dir)
			}

			// Capture stdout
			old := os.Stdout
			r, w, _ := os.Pipe()
			os.Stdout = w

			// Read in background to prevent pipe buffer from blocking on Windows
			var buf bytes.Buffer
			done := make(chan struct{})
			go func() {
				buf.ReadFrom(r)
				close(done)
			}()

			// Reset flags to prevent accumulation between tests
			verbose = false
			libDir = ""
			libFiles = nil
			currentLibrary = ""
			paramsLibrary = ""
			paramsAll = false
			paramsUpdate = false
			resolveLibrary = ""
			resolveMax = busparam.DefaultMaxSubstitutions
			updateDryRun = false
			cellsLibrary = ""
			cellsAll = false
			cellsPattern = ""
			cellsTemplates = false
			reportOutput = ""
			reportCheck = false
			templateLibrary = ""
			templateRename = false

			rootCmd.SetArgs(args)
			err := rootCmd.Execute()

			// Restore stdout and wait for reader
			w.Close()
			os.Stdout = old
			<-done

			output := buf.String()

			if tt.wantErr {
				if err == nil {
					t.Errorf("Expected error but got none\nOutput: %s", output)
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v\nOutput: %s", err, output)
			}

			for _, want := range tt.wantContain {
				if !strings.Contains(output, want) {
					t.Errorf("Output missing %q\nGot: %s", want, output)
				}
			}
			for _, absent := range tt.wantAbsent {
				if strings.Contains(output, absent) {
					t.Errorf("Output should not contain %q\nGot: %s", absent, output)
				}
			}

			if len(tt.wantFile) == 0 {
				return
			}
			data, err := os.ReadFile(path)
			if err != nil {
				t.Fatalf("ReadFile failed: %v", err)
			}
			for _, want := range tt.wantFile {
				if !strings.Contains(string(data), want) {
					t.Errorf("File missing %q\nGot: %s", want, data)
				}
			}
		})
	}
}

func TestClip(t *testing.T) {
	tests := []struct {
		in    string
		width int
		want  string
	}{
		{"width=8", 0, "width=8"},
		{"width=8", 20, "width=8"},
		{"width=8", 6, "wid..."},
		{"width=8", 2, "wi"},
		{"größe=8", 6, "grö..."},
		{"größe=8", 7, "größe=8"},
		{"µµµµ", 2, "µµ"},
	}
	for _, tt := range tests {
		if got := clip(tt.in, tt.width); got != tt.want {
			t.Errorf("clip(%q, %d) = %q, want %q", tt.in, tt.width, got, tt.want)
		}
	}
}
