package board

import (
	"github.com/alecthomas/participle/v2/lexer"
)

// BoardLexer defines the lexical structure of board description files.
//
// Rule order matters: durations must win over plain numbers and numbers over
// identifiers.
var BoardLexer = lexer.MustSimple([]lexer.SimpleRule{
	// Comments - shell or C++ style to end of line
	{Name: "Comment", Pattern: `(?:#|//)[^\n]*`},

	{Name: "Whitespace", Pattern: `[\s\t\n\r]+`},

	{Name: "String", Pattern: `"(?:[^"\\]|\\.)*"`},

	// Durations in time.ParseDuration syntax (10ms, 1.5s, 250us)
	{Name: "Duration", Pattern: `[0-9]+(?:\.[0-9]+)?(?:ns|us|µs|ms|s|m|h)\b`},

	// Hex or decimal integers
	{Name: "Number", Pattern: `0[xX][0-9a-fA-F]+|[0-9]+`},

	{Name: "Ident", Pattern: `[a-zA-Z_][a-zA-Z0-9_\-]*`},

	{Name: "Punct", Pattern: `[{};=]`},
})
