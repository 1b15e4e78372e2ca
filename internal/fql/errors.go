package fql

import "fmt"

// ErrCode is a machine-readable discriminator for the three error kinds the
// core can raise (§7). Callers that serialise errors to JSON switch on this
// rather than a Go type assertion.
type ErrCode string

const (
	ErrSyntax         ErrCode = "ERR_SYNTAX"
	ErrQuery          ErrCode = "ERR_QUERY"
	ErrNotImplemented ErrCode = "ERR_NOT_IMPLEMENTED"
)

// SyntaxError is raised by the lexer or parser. It is always fatal for the
// query being parsed and is never swallowed (§7).
type SyntaxError struct {
	Message string
	Offset  int    // character offset into Query, -1 if not applicable
	Query   string // full original query text, for diagnostics
}

func (e *SyntaxError) Error() string {
	if e.Offset >= 0 {
		return fmt.Sprintf("syntax error at char %d: %s (in: %s)", e.Offset, e.Message, e.Query)
	}
	return fmt.Sprintf("syntax error: %s (in: %s)", e.Message, e.Query)
}

func (e *SyntaxError) Code() ErrCode { return ErrSyntax }

// QueryError is raised by the evaluator for semantic misuse: a SELECT form
// delegated without a focus, RESPAN on a non-span focus, an invalid format
// or return type, and similar (§7).
type QueryError struct {
	Message string
}

func (e *QueryError) Error() string { return "query error: " + e.Message }

func (e *QueryError) Code() ErrCode { return ErrQuery }

// NotImplementedError marks a construct that is parsed but intentionally
// unhandled by the evaluator: alternative spans, LEFTCONTEXT/RIGHTCONTEXT/
// CONTEXT/ANCESTOR relational modifiers, outer-target/ancestor-target
// return types (§7, §9).
type NotImplementedError struct {
	Feature string
}

func (e *NotImplementedError) Error() string { return "not implemented: " + e.Feature }

func (e *NotImplementedError) Code() ErrCode { return ErrNotImplemented }

func newSyntaxErrorAt(offset int, raw, format string, args ...any) error {
	return &SyntaxError{Message: fmt.Sprintf(format, args...), Offset: offset, Query: raw}
}

func newSyntaxError(raw, format string, args ...any) error {
	return &SyntaxError{Message: fmt.Sprintf(format, args...), Offset: -1, Query: raw}
}

func newQueryError(format string, args ...any) error {
	return &QueryError{Message: fmt.Sprintf(format, args...)}
}

func newNotImplemented(feature string) error {
	return &NotImplementedError{Feature: feature}
}
