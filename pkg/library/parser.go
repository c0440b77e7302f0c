package library

import (
	"fmt"
	"io"
	"os"

	"github.com/alecthomas/participle/v2"

	"github.com/OpenTraceLab/OpenTraceVLSI/pkg/bus"
	"github.com/OpenTraceLab/OpenTraceVLSI/pkg/circuit"
)

// Parser reads .vlib files.
type Parser struct {
	parser *participle.Parser[File]
}

// NewParser builds the grammar.
func NewParser() (*Parser, error) {
	parser, err := participle.Build[File](
		participle.Lexer(Lexer),
		participle.Elide("Comment", "Whitespace"),
		participle.Unquote("String"),
		participle.UseLookahead(2),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to build parser: %w", err)
	}
	return &Parser{parser: parser}, nil
}

// Parse reads a file from r. name is used in error positions.
func (p *Parser) Parse(name string, r io.Reader) (*File, error) {
	file, err := p.parser.Parse(name, r)
	if err != nil {
		return nil, fmt.Errorf("parse error: %w", err)
	}
	return file, nil
}

// ParseString parses in-memory source.
func (p *Parser) ParseString(input string) (*File, error) {
	file, err := p.parser.ParseString("", input)
	if err != nil {
		return nil, fmt.Errorf("parse error: %w", err)
	}
	return file, nil
}

// ParseFile parses a file from disk.
func (p *Parser) ParseFile(filename string) (*File, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()
	return p.Parse(filename, f)
}

// Build converts the parsed file into database libraries. Element IDs follow
// declaration order within each cell.
func (f *File) Build() ([]*circuit.Library, error) {
	libs := make([]*circuit.Library, 0, len(f.Libraries))
	seen := make(map[string]bool)
	for _, decl := range f.Libraries {
		if seen[decl.Name] {
			return nil, fmt.Errorf("%s: library %q declared twice", decl.Pos, decl.Name)
		}
		seen[decl.Name] = true

		lib := circuit.NewLibrary(decl.Name, decl.Hidden)
		var params []string
		for _, item := range decl.Items {
			switch {
			case item.Parameter != nil:
				params = append(params, *item.Parameter)
			case item.Cell != nil:
				if err := buildCell(lib, item.Cell); err != nil {
					return nil, err
				}
			}
		}
		if len(params) > 0 {
			lib.SetVar(bus.KeyLibraryParameters, params)
		}
		libs = append(libs, lib)
	}
	return libs, nil
}

func buildCell(lib *circuit.Library, decl *CellDecl) error {
	if lib.Cell(decl.Name) != nil {
		return fmt.Errorf("%s: cell %q declared twice in library %q", decl.Pos, decl.Name, lib.Name)
	}
	cell := lib.NewCell(decl.Name)
	for _, ed := range decl.Elements {
		kind, err := circuit.ParseElementKind(ed.Kind)
		if err != nil {
			return fmt.Errorf("%s: %w", ed.Pos, err)
		}
		e := cell.AddElement(kind, ed.Name)
		if ed.Template != nil {
			e.SetVar(bus.TemplateKey(kind), *ed.Template)
		}
	}
	return nil
}
