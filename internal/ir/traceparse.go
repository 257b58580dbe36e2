package ir

import (
	"fmt"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// traceLexer tokenizes the trace-spec mini-language understood by the
// rotation/speculation CLI: a function name followed by comma-separated
// "<idx>:<taken>" (or "<idx>,<taken>") entries, e.g. "main:3:false,7:true"
// or "main:3,false". Built with lexer.MustSimple, a single unconditional
// state, since the grammar has no nesting.
var traceLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Ident", Pattern: `[a-zA-Z_][a-zA-Z0-9_]*`},
	{Name: "Integer", Pattern: `[0-9]+`},
	{Name: "Punct", Pattern: `[:,]`},
	{Name: "Whitespace", Pattern: `[ \t\r\n]+`},
})

// traceEntryAST is one "<idx>:<taken>" or "<idx>,<taken>" entry.
type traceEntryAST struct {
	Index int    `@Integer (":" | ",")`
	Taken string `@("true" | "false")`
}

// traceSpecAST is the grammar for a whole trace-spec string, in the
// teacher's grammar.go struct-tag idiom (grammar/grammar.go).
type traceSpecAST struct {
	Func    string           `@Ident ":"`
	Entries []*traceEntryAST `@@ ( "," @@ )*`
}

var traceSpecParser = buildTraceSpecParser()

func buildTraceSpecParser() *participle.Parser[traceSpecAST] {
	p, err := participle.Build[traceSpecAST](
		participle.Lexer(traceLexer),
		participle.Elide("Whitespace"),
	)
	if err != nil {
		panic(fmt.Errorf("ir: failed to build trace-spec parser: %w", err))
	}
	return p
}

// TraceEntry is one (instruction-index, taken-bool) pair in a trace, per
// spec.md §4.8.
type TraceEntry struct {
	Index int
	Taken bool
}

// Trace targets a function by name and carries its ordered entries.
type Trace struct {
	Func    string
	Entries []TraceEntry
}

// ParseTrace parses one trace-spec string ("func:idx:taken,idx:taken,...";
// the index and flag of an entry may also be separated by a comma, as in
// "func:3,false") into a Trace, per spec.md §7's trace-parse-failure error kind.
//
// Grounded on original_source/brilro/src/spec.rs's Trace::parse_from_str,
// restructured from hand-rolled string splitting into the teacher's
// participle-based structured parsing idiom (internal/parser/parser.go),
// extended for the taken-bool spec.md §4.8 adds.
func ParseTrace(s string) (Trace, error) {
	ast, err := traceSpecParser.ParseString("", s)
	if err != nil {
		return Trace{}, fmt.Errorf("ir: malformed trace %q: %w", s, err)
	}
	t := Trace{Func: ast.Func}
	for _, e := range ast.Entries {
		t.Entries = append(t.Entries, TraceEntry{Index: e.Index, Taken: e.Taken == "true"})
	}
	return t, nil
}

// ParseTraces parses a semicolon-separated list of trace-spec strings.
func ParseTraces(s string) ([]Trace, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	var traces []Trace
	for _, part := range strings.Split(s, ";") {
		if part == "" {
			continue
		}
		t, err := ParseTrace(part)
		if err != nil {
			return nil, err
		}
		traces = append(traces, t)
	}
	return traces, nil
}
