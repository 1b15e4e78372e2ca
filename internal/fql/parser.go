package fql

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/foliaquery/fql/internal/docmodel"
)

// ParseQuery lexes and parses a complete FQL program against the given
// element-class registry (§3, §4.8). The returned Query has its Context
// defaults already applied (focus/python/all); RETURN/FORMAT/REQUEST
// clauses in the query text override them.
func ParseQuery(raw string, classes *docmodel.ClassRegistry) (*Query, error) {
	ts, err := tokenize(raw)
	if err != nil {
		return nil, err
	}

	q := &Query{
		ReturnType:  "focus",
		Format:      "python",
		Request:     []string{"all"},
		Defaults:    map[string]any{},
		DefaultSets: map[string]string{},
		raw:         raw,
	}

	i := 0
	l := ts.Len()

	if ts.kw(i, "DECLARE") {
		class, ok := classes.Lookup(ts.word(i + 1))
		if !ok {
			return nil, newSyntaxError(raw, "DECLARE statement expects a FoLiA element, got: %s", ts.word(i+1))
		}
		if !class.Declarable() {
			return nil, newSyntaxError(raw, "DECLARE statement for undeclarable element type: %s", ts.word(i+1))
		}
		i += 2

		var decSet string
		defaults := map[string]any{}
		if ts.kw(i, "OF") && ts.word(i+1) != "" {
			i++
			decSet = ts.word(i)
			i++
			if ts.kw(i, "WITH") {
				i, err = getAssignments(ts, i+1, defaults, nil)
				if err != nil {
					return nil, err
				}
			}
		}
		q.Declarations = append(q.Declarations, Declaration{Class: class, Set: decSet, Defaults: defaults})
	}

	if i < l {
		action, ni, err := parseAction(ts, i, classes)
		if err != nil {
			return nil, err
		}
		q.Action = action
		i = ni

		if ts.kw(i, "FOR", "IN") {
			target, ni2, err := parseTarget(ts, i, classes)
			if err != nil {
				return nil, err
			}
			q.Target = target
			i = ni2
		}

		for i < l {
			switch {
			case ts.kw(i, "RETURN"):
				q.ReturnType = ts.word(i + 1)
				i += 2
			case ts.kw(i, "FORMAT"):
				q.Format = ts.word(i + 1)
				i += 2
			case ts.kw(i, "REQUEST"):
				q.Request = strings.Split(ts.word(i+1), ",")
				i += 2
			default:
				return nil, newSyntaxError(raw, "Unexpected %s at position %d in: %s", ts.word(i), i, ts.String())
			}
		}
	}

	if i != l {
		return nil, newSyntaxError(raw, "Expected end of query, got %s in: %s", ts.word(i), ts.String())
	}

	return q, nil
}

// comparisonOps is the operator set a Filter attribute-predicate clause may
// use (§3). The source's OPERATORS tuple omits CONTAINS/MATCHES, which
// makes those two unreachable there; the distilled grammar lists all nine,
// so this set includes them.
var comparisonOps = map[string]bool{
	"=": true, "==": true, "!=": true,
	">": true, "<": true, ">=": true, "<=": true,
	"CONTAINS": true, "MATCHES": true,
}

func parseFilter(ts *TokenStream, i int, classes *docmodel.ClassRegistry) (*Filter, int, error) {
	var clauses []Clause
	negation := false
	logop := ""

	l := ts.Len()
loop:
	for i < l {
		switch {
		case ts.kw(i, "NOT"):
			negation = true
			i++

		case ts.isGroup(i):
			sub := ts.at(i).Sub
			inner, _, err := parseFilter(sub, 0, classes)
			if err != nil {
				return nil, i, err
			}
			clauses = append(clauses, Clause{Kind: ClauseNested, Nested: inner})
			i++
			if ts.kw(i, "AND") || ts.kw(i, "OR") {
				if logop != "" && ts.word(i) != logop {
					return nil, i, newSyntaxError(ts.raw, "Mixed logical operators, use parentheses: %s", ts.String())
				}
				logop = ts.word(i)
				i++
			} else {
				break loop
			}

		case i == 0 && (strings.HasPrefix(ts.word(i), "PREVIOUS") || strings.HasPrefix(ts.word(i), "NEXT") ||
			ts.kw(i, "LEFTCONTEXT", "RIGHTCONTEXT", "CONTEXT", "PARENT", "ANCESTOR", "CHILD")):
			modifier := RelModifier(ts.word(i))
			i++
			sel, ni, err := parseSelector(ts, i, classes)
			if err != nil {
				return nil, ni, err
			}
			i = ni
			clauses = append(clauses, Clause{Kind: ClauseRelational, Modifier: modifier, Selector: sel})
			break loop

		case comparisonOps[ts.word(i+1)] && ts.word(i) != "" && ts.word(i+2) != "":
			attr := ts.word(i)
			op := ts.word(i + 1)
			value := ts.word(i + 2)
			clause := Clause{Kind: ClauseAttrPredicate, Attr: attr, Op: op, Value: value}
			if op == "MATCHES" {
				re, err := regexp.Compile(value)
				if err != nil {
					return nil, i, newSyntaxError(ts.raw, "Invalid regular expression %q: %v", value, err)
				}
				clause.Kind = ClauseRegex
				clause.Regex = re
			}
			clauses = append(clauses, clause)
			if ts.kw(i+3, "AND", "OR") {
				if logop != "" && ts.word(i+3) != logop {
					return nil, i, newSyntaxError(ts.raw, "Mixed logical operators, use parentheses: %s", ts.String())
				}
				logop = ts.word(i + 3)
				i += 4
			} else {
				i += 3
				break loop
			}

		case ts.hasKeywordFrom(i, "HAS"):
			sel, ni, err := parseSelector(ts, i, classes)
			if err != nil {
				return nil, ni, err
			}
			i = ni
			if !ts.kw(i, "HAS") {
				return nil, i, newSyntaxError(ts.raw, "Expected HAS, got %s at position %d in: %s", ts.word(i), i, ts.String())
			}
			i++
			sub, ni2, err := parseFilter(ts, i, classes)
			if err != nil {
				return nil, ni2, err
			}
			i = ni2
			clauses = append(clauses, Clause{Kind: ClauseRelational, Modifier: RelChild, Selector: sel, SubFilter: sub})

		default:
			return nil, i, newSyntaxError(ts.raw, "Expected comparison operator, got %s in: %s", ts.word(i+1), ts.String())
		}
	}

	if negation && len(clauses) > 1 {
		return nil, i, newSyntaxError(ts.raw, "Expecting parentheses when NOT is used with multiple conditions")
	}

	return &Filter{Clauses: clauses, Negated: negation, Disjunction: logop == "OR"}, i, nil
}

// hasKeywordFrom reports whether a bareword token equal to kw occurs at or
// after index i — the Go counterpart of the source's `'HAS' in q[i:]`.
func (ts *TokenStream) hasKeywordFrom(i int, kw string) bool {
	for j := i; j < len(ts.tokens); j++ {
		t := ts.tokens[j]
		if t.Kind == Bareword && t.Word == kw {
			return true
		}
	}
	return false
}

func parseSelector(ts *TokenStream, i int, classes *docmodel.ClassRegistry) (*Selector, int, error) {
	var class *docmodel.ElementClass
	var set, id string
	var filter *Filter

	if ts.word(i) == "ID" && ts.word(i+1) != "" {
		id = ts.word(i + 1)
		i += 2
	} else {
		c, ok := classes.Lookup(ts.word(i))
		if !ok {
			return nil, i, newSyntaxError(ts.raw, "Expected element type, got %s in: %s", ts.word(i), ts.String())
		}
		class = c
		i++
	}

	l := ts.Len()
	for i < l {
		switch {
		case ts.kw(i, "OF") && ts.word(i+1) != "":
			set = ts.word(i + 1)
			i += 2
		case ts.kw(i, "ID") && ts.word(i+1) != "":
			id = ts.word(i + 1)
			i += 2
		case ts.kw(i, "WHERE"):
			f, ni, err := parseFilter(ts, i+1, classes)
			if err != nil {
				return nil, ni, err
			}
			filter = f
			i = ni
			return &Selector{Class: class, Set: set, ID: id, Filter: filter}, i, nil
		default:
			return &Selector{Class: class, Set: set, ID: id, Filter: filter}, i, nil
		}
	}

	return &Selector{Class: class, Set: set, ID: id, Filter: filter}, i, nil
}

func parseSpan(ts *TokenStream, i int, classes *docmodel.ClassRegistry) (*Span, int, error) {
	var targets []*Selector
	l := ts.Len()
spanLoop:
	for i < l {
		_, classOk := classes.Lookup(ts.word(i))
		switch {
		case ts.kw(i, "ID") || classOk:
			sel, ni, err := parseSelector(ts, i, classes)
			if err != nil {
				return nil, ni, err
			}
			targets = append(targets, sel)
			i = ni
		case ts.kw(i, "&"):
			i++
		default:
			break spanLoop
		}
	}

	if len(targets) == 0 {
		return nil, i, newSyntaxError(ts.raw, "Expected one or more span targets, got %s in: %s", ts.word(i), ts.String())
	}
	return &Span{Targets: targets}, i, nil
}

func parseTarget(ts *TokenStream, i int, classes *docmodel.ClassRegistry) (*Target, int, error) {
	var strict bool
	switch {
	case ts.kw(i, "FOR"):
		strict = false
	case ts.kw(i, "IN"):
		strict = true
	default:
		return nil, i, newSyntaxError(ts.raw, "Expected target expression, got %s in: %s", ts.word(i), ts.String())
	}
	i++

	var selectors []*Selector
	var spans []*Span
	var nested *Selector
	l := ts.Len()
targetLoop:
	for i < l {
		_, classOk := classes.Lookup(ts.word(i))
		switch {
		case ts.kw(i, "SPAN"):
			sp, ni, err := parseSpan(ts, i+1, classes)
			if err != nil {
				return nil, ni, err
			}
			spans = append(spans, sp)
			i = ni
		case ts.kw(i, "ID") || classOk:
			sel, ni, err := parseSelector(ts, i, classes)
			if err != nil {
				return nil, ni, err
			}
			selectors = append(selectors, sel)
			i = ni
		case ts.kw(i, ","):
			i++
		case ts.kw(i, "FOR", "IN"):
			n, ni, err := parseSelector(ts, i+1, classes)
			if err != nil {
				return nil, ni, err
			}
			nested = n
			i = ni
		default:
			break targetLoop
		}
	}

	if len(selectors) == 0 && len(spans) == 0 {
		return nil, i, newSyntaxError(ts.raw, "Expected one or more targets, got %s in: %s", ts.word(i), ts.String())
	}
	return &Target{Selectors: selectors, Spans: spans, Strict: strict, Nested: nested}, i, nil
}

func parseAlternative(ts *TokenStream, i int, classes *docmodel.ClassRegistry) (*Alternative, int, error) {
	if ts.kw(i, "AS") && ts.word(i+1) == "ALTERNATIVE" {
		i++
	}

	subAssignments := map[string]any{}
	assignments := map[string]any{}
	var filter *Filter
	var err error

	if ts.kw(i, "ALTERNATIVE") {
		i++
		if !ts.kw(i, "WITH") {
			i, err = getAssignments(ts, i, subAssignments, nil)
			if err != nil {
				return nil, i, err
			}
		}
		if ts.kw(i, "WITH") {
			i, err = getAssignments(ts, i+1, assignments, nil)
			if err != nil {
				return nil, i, err
			}
		}
		if ts.kw(i, "WHERE") {
			filter, i, err = parseFilter(ts, i+1, classes)
			if err != nil {
				return nil, i, err
			}
		}
	} else {
		return nil, i, newSyntaxError(ts.raw, "Expected ALTERNATIVE, got %s in: %s", ts.word(i), ts.String())
	}

	var next *Alternative
	if ts.kw(i, "ALTERNATIVE") {
		n, ni, err := parseAlternative(ts, i, classes)
		if err != nil {
			return nil, ni, err
		}
		next = n
		i = ni
	}

	return &Alternative{SubAssignments: subAssignments, Assignments: assignments, Filter: filter, Next: next}, i, nil
}

// parseCorrection parses an `AS CORRECTION ...` form. The `AS BARE
// CORRECTION` variant is recognised here for completeness but is never
// actually reached through parseAction's dispatch, which only tests for
// "CORRECTION" at token index 1 (matching the source's Action.parse, which
// has the identical gap).
func parseCorrection(ts *TokenStream, i int, focus *Selector, classes *docmodel.ClassRegistry) (*Correction, int, error) {
	bare := false
	if ts.kw(i, "AS") && ts.kw(i+1, "CORRECTION") {
		i++
	}
	if ts.kw(i, "AS") && ts.kw(i+1, "BARE") && ts.kw(i+2, "CORRECTION") {
		bare = true
		i += 2
	}

	var set string
	actionAssignments := map[string]any{}
	assignments := map[string]any{}
	var filter *Filter
	var suggestions []Suggestion
	var err error

	if ts.kw(i, "CORRECTION") {
		i++
		if ts.kw(i, "OF") && ts.word(i+1) != "" {
			set = ts.word(i + 1)
			i += 2
		}
		if !ts.kw(i, "WITH", "WHERE", "SUGGESTION") {
			i, err = getAssignments(ts, i, actionAssignments, focus)
			if err != nil {
				return nil, i, err
			}
		}
		if ts.kw(i, "WHERE") {
			filter, i, err = parseFilter(ts, i+1, classes)
			if err != nil {
				return nil, i, err
			}
		}
		if ts.kw(i, "WITH") {
			i, err = getAssignments(ts, i+1, assignments, nil)
			if err != nil {
				return nil, i, err
			}
		}
	} else {
		return nil, i, newSyntaxError(ts.raw, "Expected CORRECTION, got %s in: %s", ts.word(i), ts.String())
	}

	l := ts.Len()
	for i < l {
		if !ts.kw(i, "SUGGESTION") {
			return nil, i, newSyntaxError(ts.raw, "Expected SUGGESTION or end of AS clause, got %s in: %s", ts.word(i), ts.String())
		}
		i++
		subAssignments := map[string]any{}
		suggestionAssignments := map[string]any{}
		if !ts.kw(i, "WITH") {
			i, err = getAssignments(ts, i, subAssignments, focus)
			if err != nil {
				return nil, i, err
			}
		}
		if ts.kw(i, "WITH") {
			i, err = getAssignments(ts, i+1, suggestionAssignments, nil)
			if err != nil {
				return nil, i, err
			}
		}
		suggestions = append(suggestions, Suggestion{SubAssignments: subAssignments, SuggestionAssignments: suggestionAssignments})
	}

	return &Correction{Set: set, ActionAssignments: actionAssignments, Assignments: assignments, Filter: filter, Suggestions: suggestions, Bare: bare}, i, nil
}

// getAssignments reads a run of `key value` pairs following WITH (or, for
// Correction's action-assignments, following OF set directly). focus may be
// nil; when non-nil and its class is text content, the `text` keyword
// assigns "value" instead of "text" (§4.3).
//
// annotatortype is deliberately not given special auto/manual conversion:
// the source's own keyword check for it is shadowed by an earlier branch
// that already matches "annotatortype" and stores it as a plain string, so
// the dedicated conversion arm can never run. docmodel.AnnotatorType's
// underlying string values line up with "auto"/"manual" regardless.
func getAssignments(ts *TokenStream, i int, assignments map[string]any, focus *Selector) (int, error) {
	l := ts.Len()
	for i < l {
		switch {
		case ts.kw(i, "annotator", "annotatortype", "class", "n"):
			assignments[ts.word(i)] = ts.word(i + 1)
			i += 2
		case ts.kw(i, "confidence"):
			v, err := strconv.ParseFloat(ts.word(i+1), 64)
			if err != nil {
				return i, newSyntaxError(ts.raw, "Invalid value for confidence: %s", ts.word(i+1))
			}
			assignments[ts.word(i)] = v
			i += 2
		case ts.kw(i, "text"):
			key := "text"
			if focus != nil && focus.Class != nil && focus.Class.IsTextContent {
				key = "value"
			}
			assignments[key] = ts.word(i + 1)
			i += 2
		default:
			if len(assignments) == 0 {
				return i, newSyntaxError(ts.raw, "Expected assignments after WITH statement, but no valid attribute found, got %s at position %d in: %s", ts.word(i), i, ts.String())
			}
			return i, nil
		}
	}
	return i, nil
}

func parseAction(ts *TokenStream, i int, classes *docmodel.ClassRegistry) (*Action, int, error) {
	if !ts.kw(i, "SELECT", "EDIT", "DELETE", "ADD", "APPEND", "PREPEND", "MERGE", "SPLIT") {
		return nil, i, newSyntaxError(ts.raw, "Expected action, got %s in: %s", ts.word(i), ts.String())
	}
	verb := Verb(ts.word(i))
	i++

	focus, i, err := parseSelector(ts, i, classes)
	if err != nil {
		return nil, i, err
	}

	if verb == VerbAdd && focus.Filter != nil {
		return nil, i, newSyntaxError(ts.raw, "Focus has WHERE statement but ADD action does not support this")
	}

	assignments := map[string]any{}
	if ts.kw(i, "WITH") {
		if verb == VerbSelect || verb == VerbDelete {
			return nil, i, newSyntaxError(ts.raw, "Focus has WITH statement but %s does not support this: %s", verb, ts.String())
		}
		i++
		i, err = getAssignments(ts, i, assignments, focus)
		if err != nil {
			return nil, i, err
		}
	}

	action := &Action{Verb: verb, Focus: focus, Assignments: assignments}

	if action.Verb == VerbEdit && ts.kw(i, "RESPAN") {
		sp, ni, err := parseSpan(ts, i+1, classes)
		if err != nil {
			return nil, ni, err
		}
		action.Respan = sp
		i = ni
	}

	for ts.isGroup(i) {
		sub := ts.at(i).Sub
		switch {
		case sub.kw(0, "EDIT", "DELETE", "ADD"):
			if action.Verb == VerbDelete || action.Verb == VerbSplit || action.Verb == VerbMerge {
				return nil, i, newSyntaxError(ts.raw, "Subactions are not allowed for action %s, in: %s", action.Verb, ts.String())
			}
			subaction, _, err := parseAction(sub, 0, classes)
			if err != nil {
				return nil, i, err
			}
			action.Subactions = append(action.Subactions, subaction)
		case sub.kw(0, "AS"):
			switch {
			case sub.kw(1, "ALTERNATIVE"):
				alt, _, err := parseAlternative(sub, 0, classes)
				if err != nil {
					return nil, i, err
				}
				action.Form = alt
			case sub.kw(1, "CORRECTION"):
				corr, _, err := parseCorrection(sub, 0, focus, classes)
				if err != nil {
					return nil, i, err
				}
				action.Form = corr
			default:
				return nil, i, newSyntaxError(ts.raw, "Invalid keyword after AS: %s", sub.word(1))
			}
		}
		i++
	}

	if ts.kw(i, "SELECT", "EDIT", "DELETE", "ADD", "APPEND", "PREPEND", "MERGE", "SPLIT") {
		next, ni, err := parseAction(ts, i, classes)
		if err != nil {
			return nil, ni, err
		}
		action.Next = next
		i = ni
	}

	return action, i, nil
}
