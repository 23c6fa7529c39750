// Package parser implements the pipeline-text grammar: the external
// collaborator spec 1 and spec 6 describe by interface only ("plan text →
// plan list") but never supply an implementation for. Grounded on the
// EBNF in spec 6:
//
//	Seq     ::= Node ( "!" Node )*
//	Node    ::= Ident ( WS ArgList )?
//	ArgList ::= Arg ( ("," WS? | WS) Arg )*
//	Arg     ::= Key "=" (Ident | "'" StringLit "'")
//
// Node-kind classification is suffix-based on the ident: "*src" -> Src,
// "*sink" -> Sink, "*store" -> Store, a colon-qualified ident ("model:func")
// -> Func, else a bare model name.
package parser

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/xlake-project/xlake/internal/plan"
	"github.com/xlake-project/xlake/internal/value"
)

// Error is a ParseError (spec 7): the pipeline text did not match the
// grammar at Position, a rune offset into the original text.
type Error struct {
	Position int
	Message  string
}

func (e *Error) Error() string {
	return fmt.Sprintf("parse error at position %d: %s", e.Position, e.Message)
}

func newError(pos int, format string, args ...any) *Error {
	return &Error{Position: pos, Message: fmt.Sprintf(format, args...)}
}

// Parse turns a pipeline expression into an ordered plan list, one Plan per
// "!"-separated Node.
func Parse(text string) ([]plan.Plan, error) {
	segments, err := splitTopLevel(text, '!')
	if err != nil {
		return nil, err
	}

	plans := make([]plan.Plan, 0, len(segments))
	for _, seg := range segments {
		p, err := parseNode(seg)
		if err != nil {
			return nil, err
		}
		plans = append(plans, p)
	}
	return plans, nil
}

// segment is a node's source text plus the rune offset it started at in the
// original input, carried through for error reporting.
type segment struct {
	text string
	pos  int
}

// splitTopLevel splits s on sep, ignoring occurrences of sep inside a
// single-quoted string literal.
func splitTopLevel(s string, sep rune) ([]segment, error) {
	runes := []rune(s)
	var segments []segment
	inQuote := false
	start := 0
	for i, r := range runes {
		switch {
		case r == '\'':
			inQuote = !inQuote
		case r == sep && !inQuote:
			segments = append(segments, segment{text: string(runes[start:i]), pos: start})
			start = i + 1
		}
	}
	if inQuote {
		return nil, newError(start, "unterminated string literal")
	}
	segments = append(segments, segment{text: string(runes[start:]), pos: start})

	trimmed := make([]segment, 0, len(segments))
	for _, seg := range segments {
		text := strings.TrimSpace(seg.text)
		if text == "" {
			return nil, newError(seg.pos, "empty pipeline node")
		}
		lead := len([]rune(seg.text)) - len([]rune(strings.TrimLeftFunc(seg.text, unicode.IsSpace)))
		trimmed = append(trimmed, segment{text: text, pos: seg.pos + lead})
	}
	return trimmed, nil
}

// parseNode parses a single "Ident (WS ArgList)?" segment into a Plan.
func parseNode(seg segment) (plan.Plan, error) {
	text := seg.text
	i := strings.IndexFunc(text, isSpace)
	var ident, rest string
	if i < 0 {
		ident, rest = text, ""
	} else {
		ident, rest = text[:i], strings.TrimLeftFunc(text[i:], isSpace)
	}
	if ident == "" {
		return plan.Plan{}, newError(seg.pos, "expected an identifier")
	}

	kind, err := classify(ident, seg.pos)
	if err != nil {
		return plan.Plan{}, err
	}

	restPos := seg.pos + len([]rune(text)) - len([]rune(rest))
	args, err := parseArgs(rest, restPos)
	if err != nil {
		return plan.Plan{}, err
	}

	return plan.Plan{Kind: kind, Args: args}, nil
}

func isSpace(r rune) bool { return r == ' ' || r == '\t' }

// classify applies the suffix-based node-kind classification rule.
func classify(ident string, pos int) (plan.Kind, error) {
	if strings.Contains(ident, ":") {
		parts := strings.SplitN(ident, ":", 2)
		if parts[0] == "" || parts[1] == "" {
			return plan.Kind{}, newError(pos, "malformed function identifier %q", ident)
		}
		return plan.Func(parts[0], parts[1]), nil
	}
	switch {
	case strings.HasSuffix(ident, "src") && ident != "src":
		return plan.Src(strings.TrimSuffix(ident, "src")), nil
	case strings.HasSuffix(ident, "sink") && ident != "sink":
		return plan.Sink(strings.TrimSuffix(ident, "sink")), nil
	case strings.HasSuffix(ident, "store") && ident != "store":
		return plan.Store(strings.TrimSuffix(ident, "store")), nil
	default:
		return plan.Model(ident), nil
	}
}

// parseArgs tokenizes and parses an ArgList ("" is a valid, empty list).
func parseArgs(s string, basePos int) (*value.Object, error) {
	obj := value.NewObject()
	tokens, err := tokenizeArgs(s, basePos)
	if err != nil {
		return nil, err
	}
	for _, tok := range tokens {
		eq := strings.IndexByte(tok.text, '=')
		if eq < 0 {
			return nil, newError(tok.pos, "expected key=value argument, got %q", tok.text)
		}
		key := tok.text[:eq]
		rawVal := tok.text[eq+1:]
		if key == "" {
			return nil, newError(tok.pos, "empty argument key in %q", tok.text)
		}

		var val string
		if len(rawVal) >= 2 && rawVal[0] == '\'' && rawVal[len(rawVal)-1] == '\'' {
			val = rawVal[1 : len(rawVal)-1]
		} else if strings.ContainsRune(rawVal, '\'') {
			return nil, newError(tok.pos, "malformed string literal in argument %q", tok.text)
		} else {
			val = rawVal
		}
		obj.Insert(key, value.String(val))
	}
	return obj, nil
}

type argToken struct {
	text string
	pos  int
}

// tokenizeArgs splits an argument list on top-level commas/whitespace,
// treating a run of separators as one boundary and respecting single-quoted
// string literals as opaque spans.
func tokenizeArgs(s string, basePos int) ([]argToken, error) {
	runes := []rune(s)
	n := len(runes)
	var tokens []argToken
	i := 0
	for i < n {
		for i < n && (runes[i] == ' ' || runes[i] == '\t' || runes[i] == ',') {
			i++
		}
		if i >= n {
			break
		}
		start := i
		inQuote := false
		for i < n {
			r := runes[i]
			if r == '\'' {
				inQuote = !inQuote
				i++
				continue
			}
			if !inQuote && (r == ' ' || r == '\t' || r == ',') {
				break
			}
			i++
		}
		if inQuote {
			return nil, newError(basePos+start, "unterminated string literal")
		}
		tokens = append(tokens, argToken{text: string(runes[start:i]), pos: basePos + start})
	}
	return tokens, nil
}
