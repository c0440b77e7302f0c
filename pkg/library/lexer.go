package library

import (
	"github.com/alecthomas/participle/v2/lexer"
)

// Lexer tokenizes .vlib files. Keywords are case-insensitive and comments use
// the VHDL "--" style.
var Lexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Comment", Pattern: `--[^\n]*`},
	{Name: "Whitespace", Pattern: `[\s]+`},

	{Name: "KwLibrary", Pattern: `(?i)\bLIBRARY\b`},
	{Name: "KwHidden", Pattern: `(?i)\bHIDDEN\b`},
	{Name: "KwIs", Pattern: `(?i)\bIS\b`},
	{Name: "KwEnd", Pattern: `(?i)\bEND\b`},
	{Name: "KwParameter", Pattern: `(?i)\bPARAMETER\b`},
	{Name: "KwCell", Pattern: `(?i)\bCELL\b`},
	{Name: "KwNode", Pattern: `(?i)\bNODE\b`},
	{Name: "KwArc", Pattern: `(?i)\bARC\b`},
	{Name: "KwExport", Pattern: `(?i)\bEXPORT\b`},
	{Name: "KwTemplate", Pattern: `(?i)\bTEMPLATE\b`},

	// Go-style quoted strings; names and templates may hold any character.
	{Name: "String", Pattern: `"(?:[^"\\]|\\.)*"`},
	{Name: "Semicolon", Pattern: `;`},

	// Anything else that looks like a word is reported by the parser.
	{Name: "Ident", Pattern: `[a-zA-Z_][a-zA-Z0-9_]*`},
})
