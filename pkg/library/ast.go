package library

import "github.com/alecthomas/participle/v2/lexer"

// File is a parsed .vlib file. One file may hold several libraries.
type File struct {
	Libraries []*LibraryDecl `parser:"@@*"`
}

// LibraryDecl is one library block.
// Example: library "work" hidden is ... end;
type LibraryDecl struct {
	Pos    lexer.Position
	Name   string     `parser:"KwLibrary @String"`
	Hidden bool       `parser:"@KwHidden?"`
	Items  []*LibItem `parser:"KwIs @@* KwEnd Semicolon"`
}

// LibItem is a parameter entry or a cell.
type LibItem struct {
	Parameter *string   `parser:"  KwParameter @String Semicolon"`
	Cell      *CellDecl `parser:"| @@"`
}

// CellDecl is one cell block.
// Example: cell "mux{sch}" is ... end;
type CellDecl struct {
	Pos      lexer.Position
	Name     string         `parser:"KwCell @String KwIs"`
	Elements []*ElementDecl `parser:"@@* KwEnd Semicolon"`
}

// ElementDecl declares a node, arc or export with an optional template.
// Example: node "inv@0" template "in[$(width)-1:0]";
type ElementDecl struct {
	Pos      lexer.Position
	Kind     string  `parser:"@( KwNode | KwArc | KwExport )"`
	Name     string  `parser:"@String"`
	Template *string `parser:"( KwTemplate @String )? Semicolon"`
}
