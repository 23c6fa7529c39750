// Package compiler implements the plan compiler: the linear-scan,
// edge-typing validation pass that turns a parsed Plan list into an
// ordered node sequence ready for the executor (spec 4.4).
package compiler

import (
	"fmt"
	"sort"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/xlake-project/xlake/internal/plan"
)

// Error is the common shape for every fatal compilation failure in spec
// 7's table: a kind tag, the plan position it occurred at, and enough
// context to render a useful message.
type Error struct {
	Kind     string
	Position int
	Message  string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s at position %d: %s", e.Kind, e.Position, e.Message)
}

func newError(kind string, pos int, format string, args ...any) *Error {
	return &Error{Kind: kind, Position: pos, Message: fmt.Sprintf(format, args...)}
}

// unknownNodeError builds the UnknownNode error, attaching a fuzzy-matched
// "did you mean" suggestion drawn from the registry's known kind names —
// the same github.com/lithammer/fuzzysearch technique the teacher's
// planner uses for unknown-decorator suggestions.
func unknownNodeError(pos int, kind plan.Kind, known []string) *Error {
	msg := fmt.Sprintf("unknown node kind %q", kind.String())
	matches := fuzzy.RankFindFold(kind.String(), known)
	sort.Sort(matches)
	if len(matches) > 0 {
		msg += fmt.Sprintf(" (did you mean %q?)", matches[0].Target)
	}
	return newError("UnknownNode", pos, "%s", msg)
}
