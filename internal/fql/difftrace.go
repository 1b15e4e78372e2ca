package fql

import (
	"fmt"
	"io"

	"github.com/pmezard/go-difflib/difflib"
)

// Tracer records before/after XML snapshots of mutated elements and writes
// a unified diff for each, standing in for the source's scattered
// `if debug: print(..., file=sys.stderr)` calls with something a
// developer can actually read when a query's EDIT produced an unexpected
// result.
type Tracer struct {
	w   io.Writer
	tag string
}

// NewTracer returns a Tracer writing to w. tag prefixes every diff header
// (e.g. a query's RETURN format or a request id), and may be empty.
func NewTracer(w io.Writer, tag string) *Tracer {
	return &Tracer{w: w, tag: tag}
}

// traceMutation writes a unified diff between before and after if they
// differ, labelled by what produced the change (e.g. "EDIT <element id>").
func (t *Tracer) traceMutation(label, before, after string) {
	if t == nil || t.w == nil || before == after {
		return
	}
	diff := difflib.UnifiedDiff{
		A:        difflib.SplitLines(before),
		B:        difflib.SplitLines(after),
		FromFile: label + " (before)",
		ToFile:   label + " (after)",
		Context:  2,
	}
	text, err := difflib.GetUnifiedDiffString(diff)
	if err != nil {
		return
	}
	if t.tag != "" {
		fmt.Fprintf(t.w, "[fql %s] %s\n", t.tag, label)
	} else {
		fmt.Fprintf(t.w, "[fql] %s\n", label)
	}
	io.WriteString(t.w, text)
}
