package library

import (
	"bytes"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/OpenTraceLab/OpenTraceVLSI/pkg/bus"
	"github.com/OpenTraceLab/OpenTraceVLSI/pkg/circuit"
)

const sample = `
-- register file
library "work" is
	parameter "width=8";
	parameter "depth=$(width)*2";
	cell "reg{sch}" is
		node "reg@0" template "r[$(width)-1:0]";
		ARC "net@1";
		export "out" template "out[$(depth)]";
	end;
end;

library "mocmos" hidden is
end;
`

func TestParseLibrary(t *testing.T) {
	parser, err := NewParser()
	if err != nil {
		t.Fatalf("Failed to create parser: %v", err)
	}

	file, err := parser.ParseString(sample)
	if err != nil {
		t.Fatalf("Failed to parse: %v", err)
	}
	if len(file.Libraries) != 2 {
		t.Fatalf("Expected 2 libraries, got %d", len(file.Libraries))
	}

	libs, err := file.Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	work := libs[0]
	if work.Name != "work" || work.Hidden {
		t.Errorf("unexpected library header: %q hidden=%v", work.Name, work.Hidden)
	}
	if !libs[1].Hidden {
		t.Errorf("mocmos should be hidden")
	}

	params, ok := work.Var(bus.KeyLibraryParameters)
	if !ok || len(params) != 2 || params[1] != "depth=$(width)*2" {
		t.Errorf("unexpected parameters: %v", params)
	}

	cell := work.Cell("reg{sch}")
	if cell == nil || len(cell.Elements) != 3 {
		t.Fatalf("unexpected cell: %+v", cell)
	}
	arc := cell.Elements[1]
	if arc.Kind != circuit.KindArc || arc.ID != 2 {
		t.Errorf("unexpected arc: %+v", arc)
	}
	if _, ok := arc.Var(bus.KeyArcTemplate); ok {
		t.Errorf("arc has no template")
	}
	if tmpl, _ := cell.Elements[2].Var(bus.KeyExportTemplate); tmpl != "out[$(depth)]" {
		t.Errorf("unexpected export template %q", tmpl)
	}
}

func TestParseErrors(t *testing.T) {
	parser, err := NewParser()
	if err != nil {
		t.Fatalf("Failed to create parser: %v", err)
	}
	bad := []string{
		`library "a" is parameter "x=1" end;`,
		`library "a" is cell "c" is wire "w"; end; end;`,
		`library a is end;`,
	}
	for _, src := range bad {
		if _, err := parser.ParseString(src); err == nil {
			t.Errorf("expected parse error for %q", src)
		}
	}

	dup := `library "a" is cell "c" is end; cell "c" is end; end;`
	file, err := parser.ParseString(dup)
	if err != nil {
		t.Fatalf("Failed to parse: %v", err)
	}
	if _, err := file.Build(); err == nil || !strings.Contains(err.Error(), "declared twice") {
		t.Errorf("expected duplicate cell error, got %v", err)
	}
}

func TestWriteThenParse(t *testing.T) {
	lib := circuit.NewLibrary(`odd "name"`, false)
	lib.SetVar(bus.KeyLibraryParameters, []string{`q="x"`})
	cell := lib.NewCell("c")
	cell.AddElement(circuit.KindExport, "e\tx").SetVar(bus.KeyExportTemplate, `$(q)`)

	var buf bytes.Buffer
	if err := Write(&buf, lib); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	parser, _ := NewParser()
	file, err := parser.ParseString(buf.String())
	if err != nil {
		t.Fatalf("written output does not parse: %v\n%s", err, buf.String())
	}
	libs, err := file.Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	got := libs[0]
	if got.Name != lib.Name {
		t.Errorf("name %q != %q", got.Name, lib.Name)
	}
	e := got.Cells[0].Elements[0]
	if e.Name != "e\tx" || e.Kind != circuit.KindExport {
		t.Errorf("unexpected element %+v", e)
	}
	if tmpl, _ := e.Var(bus.KeyExportTemplate); tmpl != "$(q)" {
		t.Errorf("template lost: %q", tmpl)
	}
}

func TestRepositoryLoadAndSave(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "work.vlib")
	if err := os.WriteFile(path, []byte(sample), 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	repo, err := NewRepository()
	if err != nil {
		t.Fatalf("NewRepository failed: %v", err)
	}
	db := circuit.NewDatabase()
	if err := repo.LoadDir(db, dir); err != nil {
		t.Fatalf("LoadDir failed: %v", err)
	}
	if p, ok := repo.Path("mocmos"); !ok || p != path {
		t.Errorf("unexpected path %q %v", p, ok)
	}

	if err := db.SetLibraryVar("work", bus.KeyLibraryParameters, []string{"width=16"}); err != nil {
		t.Fatal(err)
	}
	if err := repo.SaveAll(db, "work", "mocmos"); err != nil {
		t.Fatalf("SaveAll failed: %v", err)
	}

	reloaded := circuit.NewDatabase()
	repo2, _ := NewRepository()
	if err := repo2.LoadFiles(reloaded, path); err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	if got := bus.LoadParameters(reloaded, "work"); len(got) != 1 || got[0] != "width=16" {
		t.Errorf("saved parameters not reloaded: %v", got)
	}
	if len(reloaded.Libraries()) != 2 {
		t.Errorf("both libraries of the file must be saved")
	}

	if err := repo.Save(db, "unknown"); err == nil {
		t.Errorf("expected error saving a library without a file")
	}
	if err := repo.LoadFiles(db, path); err == nil {
		t.Errorf("loading the same libraries twice should fail")
	}
}

func TestRepositorySaveKeepsMode(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("file modes are not preserved on windows")
	}
	dir := t.TempDir()
	path := filepath.Join(dir, "work.vlib")
	if err := os.WriteFile(path, []byte(sample), 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	if err := os.Chmod(path, 0o640); err != nil {
		t.Fatal(err)
	}

	repo, _ := NewRepository()
	db := circuit.NewDatabase()
	if err := repo.LoadFiles(db, path); err != nil {
		t.Fatalf("LoadFiles failed: %v", err)
	}
	if err := repo.Save(db, "work"); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	fi, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if mode := fi.Mode().Perm(); mode != 0o640 {
		t.Errorf("expected mode 0640 after save, got %o", mode)
	}
}
