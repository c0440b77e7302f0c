package library

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/OpenTraceLab/OpenTraceVLSI/pkg/circuit"
)

// Extension is the file extension LoadDir looks for.
const Extension = ".vlib"

// Repository loads .vlib files into a database and remembers which file each
// library came from so it can be written back.
type Repository struct {
	mu     sync.RWMutex
	parser *Parser
	paths  map[string]string // library name -> file
}

// NewRepository creates an empty repository.
func NewRepository() (*Repository, error) {
	parser, err := NewParser()
	if err != nil {
		return nil, err
	}
	return &Repository{parser: parser, paths: make(map[string]string)}, nil
}

// LoadFiles parses each path and adds its libraries to db.
func (r *Repository) LoadFiles(db *circuit.Database, paths ...string) error {
	for _, path := range paths {
		if err := r.loadFile(db, path); err != nil {
			return err
		}
	}
	return nil
}

// LoadDir recursively loads every .vlib file under root, in lexical order.
func (r *Repository) LoadDir(db *circuit.Database, root string) error {
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() || !isLibraryFile(path) {
			return nil
		}
		files = append(files, path)
		return nil
	})
	if err != nil {
		return fmt.Errorf("library: walk %s: %w", root, err)
	}
	sort.Strings(files)
	return r.LoadFiles(db, files...)
}

func (r *Repository) loadFile(db *circuit.Database, path string) error {
	file, err := r.parser.ParseFile(path)
	if err != nil {
		return fmt.Errorf("library: parse %s: %w", path, err)
	}
	libs, err := file.Build()
	if err != nil {
		return fmt.Errorf("library: build %s: %w", path, err)
	}
	for _, lib := range libs {
		if err := db.AddLibrary(lib); err != nil {
			return fmt.Errorf("library: add %s: %w", path, err)
		}
		r.mu.Lock()
		r.paths[lib.Name] = path
		r.mu.Unlock()
	}
	return nil
}

// Path returns the file a library was loaded from.
func (r *Repository) Path(library string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.paths[library]
	return p, ok
}

// Save writes every library that was loaded from the same file as library
// back to that file. The file is replaced atomically.
func (r *Repository) Save(db *circuit.Database, library string) error {
	path, ok := r.Path(library)
	if !ok {
		return fmt.Errorf("library: %q was not loaded from a file", library)
	}

	var libs []*circuit.Library
	for _, info := range db.Libraries() {
		if p, _ := r.Path(info.Name); p != path {
			continue
		}
		lib, err := db.CloneLibrary(info.Name)
		if err != nil {
			return err
		}
		libs = append(libs, lib)
	}

	mode := os.FileMode(0o644)
	if fi, err := os.Stat(path); err == nil {
		mode = fi.Mode().Perm()
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".vlib-*")
	if err != nil {
		return fmt.Errorf("library: save %s: %w", path, err)
	}
	defer os.Remove(tmp.Name())
	// CreateTemp uses 0600; keep the mode of the file being replaced.
	if err := tmp.Chmod(mode); err != nil {
		tmp.Close()
		return fmt.Errorf("library: save %s: %w", path, err)
	}
	if err := Write(tmp, libs...); err != nil {
		tmp.Close()
		return fmt.Errorf("library: save %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("library: save %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("library: save %s: %w", path, err)
	}
	return nil
}

// SaveAll writes every file that holds one of the named libraries, once.
func (r *Repository) SaveAll(db *circuit.Database, libraries ...string) error {
	done := make(map[string]bool)
	for _, name := range libraries {
		path, ok := r.Path(name)
		if !ok || done[path] {
			continue
		}
		done[path] = true
		if err := r.Save(db, name); err != nil {
			return err
		}
	}
	return nil
}

func isLibraryFile(path string) bool {
	return strings.EqualFold(filepath.Ext(path), Extension)
}
