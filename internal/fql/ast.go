// Package fql implements the FoLiA Query Language: a lexer, a recursive
// descent parser building an immutable AST, and an evaluation engine that
// walks an injected docmodel.Document. See SPEC_FULL.md for the full
// specification; this file holds only the pure AST data structures (no
// evaluation logic), mirroring how morfx's internal/core/contracts.go keeps
// data and behaviour apart.
package fql

import (
	"regexp"

	"github.com/foliaquery/fql/internal/docmodel"
)

// Verb is one of the eight actions a Query's Action can perform (§4.5).
type Verb string

const (
	VerbSelect  Verb = "SELECT"
	VerbEdit    Verb = "EDIT"
	VerbAdd     Verb = "ADD"
	VerbAppend  Verb = "APPEND"
	VerbPrepend Verb = "PREPEND"
	VerbDelete  Verb = "DELETE"
	VerbMerge   Verb = "MERGE"
	VerbSplit   Verb = "SPLIT"
)

// RelModifier names a relational clause's context keyword (§4.3).
type RelModifier string

const (
	RelChild        RelModifier = "CHILD"
	RelParent       RelModifier = "PARENT"
	RelNext         RelModifier = "NEXT"
	RelPrevious     RelModifier = "PREVIOUS"
	RelLeftContext  RelModifier = "LEFTCONTEXT"
	RelRightContext RelModifier = "RIGHTCONTEXT"
	RelContext      RelModifier = "CONTEXT"
	RelAncestor     RelModifier = "ANCESTOR"
)

// Selector parses/evaluates `Class [OF set] [ID id] [WHERE filter]`, with
// an optional chain continuing via Next (§3). Exactly one of Class or ID is
// set; a chain's inner links are visited only during evaluation (never
// driven externally).
type Selector struct {
	Class  *docmodel.ElementClass
	Set    string
	ID     string
	Filter *Filter
	Next   *Selector
}

// Chain links selectors so Next points along targets[1:], matching
// Selector.chain in the source: the first element drives the walk, each
// subsequent one narrows the previous candidate.
func chainSelectors(targets []*Selector) *Selector {
	if len(targets) == 0 {
		return nil
	}
	head := targets[0]
	cur := head
	cur.Next = nil
	for _, t := range targets[1:] {
		cur.Next = t
		cur = t
	}
	return head
}

// ClauseKind discriminates a Filter Clause's payload (§3).
type ClauseKind int

const (
	ClauseAttrPredicate ClauseKind = iota
	ClauseRegex
	ClauseNested
	ClauseRelational
)

// Clause is one filter condition, tagged by Kind. This replaces the
// source's per-clause anonymous lambdas with a closed variant the evaluator
// switches on (Design Note, spec.md §9).
type Clause struct {
	Kind ClauseKind

	// ClauseAttrPredicate / ClauseRegex
	Attr  string
	Op    string // =, ==, !=, >, <, >=, <=, CONTAINS, MATCHES
	Value string
	Regex *regexp.Regexp // compiled at parse time for MATCHES

	// ClauseNested
	Nested *Filter

	// ClauseRelational
	Modifier  RelModifier
	Selector  *Selector
	SubFilter *Filter // nil for PARENT/NEXT/PREVIOUS; set for CHILD (HAS)
}

// Filter is a WHERE predicate: an ordered sequence of clauses joined either
// all by AND or all by OR (mixing is a parse-time SyntaxError, §3/§8), with
// an optional overall negation applying to a single clause.
type Filter struct {
	Clauses     []Clause
	Negated     bool
	Disjunction bool
}

// Span is one or more Selectors joined by `&`, evaluated into a SpanSet
// (§3, §4.4).
type Span struct {
	Targets []*Selector
}

// Target is a `FOR`/`IN` scope: Strict is true for IN (no recursive
// descent), false for FOR. Nested mirrors the source precisely: it is a
// single Selector (not a full nested Target), evaluated first to produce
// the context for Selectors/Spans (§3, §4.4; this shape is preserved
// on purpose — see SPEC_FULL.md §5 and spec.md §9 on faithful porting).
type Target struct {
	Selectors []*Selector
	Spans     []*Span
	Strict    bool
	Nested    *Selector
}

// Form is implemented by Alternative and Correction: the `AS ALTERNATIVE`/
// `AS CORRECTION` wrapper an Action can delegate a focus mutation to
// (§4.6, §4.7).
type Form interface {
	autoDeclare(doc docmodel.Document)
}

// Alternative wraps a focus mutation as a non-authoritative variant (§4.6).
type Alternative struct {
	SubAssignments map[string]any
	Assignments    map[string]any
	Filter         *Filter
	Next           *Alternative
}

func (a *Alternative) autoDeclare(doc docmodel.Document) {} // nothing to declare

// Suggestion is one `SUGGESTION [...] [WITH ...]` entry inside a
// Correction form (§4.7).
type Suggestion struct {
	SubAssignments        map[string]any
	SuggestionAssignments map[string]any
}

// Correction wraps a focus mutation as an authoritative, provenance-bearing
// edit, with optional suggestions (§4.7).
type Correction struct {
	Set               string
	ActionAssignments map[string]any
	Assignments       map[string]any
	Filter            *Filter
	Suggestions       []Suggestion
	Bare              bool
}

func (c *Correction) autoDeclare(doc docmodel.Document) {
	if c.Set != "" {
		corrClass := correctionClass
		if !doc.Declared(corrClass, c.Set) {
			_ = doc.Declare(corrClass, c.Set, nil)
		}
	}
}

// correctionClass is the well-known ElementClass for FoLiA's <correction>
// element, referenced by the Correction form's auto-declare step. The
// document model registers the concrete instance; the core only needs its
// identity, so this package-level class is a stable sentinel every
// docmodel.Document implementation is expected to register under "correction".
var correctionClass = &docmodel.ElementClass{
	XMLTag:         "correction",
	AnnotationType: "correction",
	IsCorrection:   true,
}

// Action is one verb application: SELECT/EDIT/ADD/APPEND/PREPEND/DELETE/
// MERGE/SPLIT against Focus, optionally reassigning attributes, respanning,
// delegating to a Form, running Subactions, or chaining into Next (§3, §4.5).
type Action struct {
	Verb        Verb
	Focus       *Selector
	Assignments map[string]any
	Respan      *Span
	Form        Form
	Subactions  []*Action
	Next        *Action
}

// Declaration is one `DECLARE class [OF set] [WITH defaults]` statement.
type Declaration struct {
	Class    *docmodel.ElementClass
	Set      string
	Defaults map[string]any
}

// Query is the top-level parsed program: declarations, one action (possibly
// chained via Action.Next), an optional Target scope, and trailing
// Return/Format/Request clauses (§3, §4.8).
type Query struct {
	Declarations []Declaration
	Action       *Action
	Target       *Target
	ReturnType   string
	Format       string
	Request      []string
	Defaults     map[string]any
	DefaultSets  map[string]string

	raw string // original query text, for diagnostics
}
