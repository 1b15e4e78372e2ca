package fql

import (
	"iter"
	"strconv"
	"strings"

	"github.com/foliaquery/fql/internal/docmodel"
)

// spanSet is an ordered collection of elements gathered by a SPAN target
// (§4.4): the Go counterpart of the source's SpanSet. Selecting a non-span
// class against one yields nothing, mirroring SpanSet.select's QueryError
// path (which the evaluator turns into a no-match rather than a panic,
// since it is reached through ordinary selection rather than user error).
type spanSet []docmodel.Element

// selItem is one entry in a selection sequence: either a single element or
// a spanSet produced by a SPAN target. The source's generators mix plain
// elements and SpanSet instances freely since Python has no static typing;
// this is the explicit sum type that stands in for that.
type selItem struct {
	el   docmodel.Element
	span spanSet
}

func itemElement(el docmodel.Element) selItem { return selItem{el: el} }
func itemSpan(s spanSet) selItem              { return selItem{span: s} }
func (s selItem) isSpan() bool                { return s.span != nil }

// element returns this item's representative element: itself if plain, or
// its first member if a spanSet (the source's `e[0]` when resolving span
// candidates against a SpanSet context).
func (s selItem) element() docmodel.Element {
	if s.isSpan() {
		if len(s.span) == 0 {
			return nil
		}
		return s.span[0]
	}
	return s.el
}

// selSeq is the lazy, pull-based sequence of selItems a Target or Selector
// produces — the Go counterpart of the source's generator-based
// `selection`, built on Go 1.23's range-over-func iterators.
type selSeq iter.Seq[selItem]

// resultSeq is the lazy sequence of (candidate, context) pairs a Selector
// yields (§4.2); context is the selItem the candidate was found through,
// or a zero selItem when found by ID.
type resultSeq iter.Seq2[docmodel.Element, selItem]

// eval carries the per-run state an evaluation needs: the document being
// walked and the query-level defaultsets every Selector consults (the
// source's module-level Query.doc / Query.defaultsets).
type eval struct {
	doc         docmodel.Document
	defaultSets map[string]string
	tracer      *Tracer
}

// runSelector evaluates a (possibly chained) Selector against a selection
// sequence, yielding (candidate, context) pairs lazily (Selector.__call__).
// recurse controls whether Select() descends through all descendants
// (true, FOR) or only direct children (false, IN).
func runSelector(e *eval, sel *Selector, selection selSeq, recurse bool) resultSeq {
	return func(yield func(docmodel.Element, selItem) bool) {
		for item := range iter.Seq[selItem](selection) {
			cur := sel
			for {
				cont := evalOneSelector(e, cur, item, recurse, yield)
				if !cont {
					return
				}
				if cur.Next == nil {
					break
				}
				cur = cur.Next
			}
		}
	}
}

// evalOneSelector applies a single (non-chained) selector link to one
// selection item, calling yield for every match. It returns false once the
// consumer asks to stop.
func evalOneSelector(e *eval, sel *Selector, item selItem, recurse bool, yield func(docmodel.Element, selItem) bool) bool {
	if sel.ID != "" {
		cand, ok := e.doc.ByID(sel.ID)
		if !ok {
			return true // silently ignore ID mismatches
		}
		if match, err := matchFilter(e, sel.Filter, cand); err == nil && match {
			if !yield(cand, selItem{}) {
				return false
			}
		}
		return true
	}

	if sel.Class == nil {
		return true
	}

	set := sel.Set
	if ds, ok := e.defaultSets[sel.Class.XMLTag]; ok {
		set = ds
		sel.Set = ds
	}

	if item.isSpan() {
		if !sel.Class.IsSpan || len(item.span) == 0 {
			return true
		}
		for _, cand := range item.span[0].FindSpans(sel.Class, set) {
			match, err := matchFilter(e, sel.Filter, cand)
			if err != nil || !match {
				continue
			}
			spanElements := cand.WRefs()
			matched := true
			for _, member := range item.span[1:] {
				if !containsElement(spanElements, member) {
					matched = false
					break
				}
			}
			if matched {
				if !yield(cand, item) {
					return false
				}
			}
		}
		return true
	}

	el := item.el
	if sel.Class.IsSpan && isWordLike(el) {
		for _, cand := range el.FindSpans(sel.Class, set) {
			if match, err := matchFilter(e, sel.Filter, cand); err == nil && match {
				if !yield(cand, item) {
					return false
				}
			}
		}
		return true
	}

	for _, cand := range el.Select(sel.Class, set, recurse) {
		if match, err := matchFilter(e, sel.Filter, cand); err == nil && match {
			if !yield(cand, item) {
				return false
			}
		}
	}
	return true
}

func isWordLike(el docmodel.Element) bool {
	c := el.Class()
	return c != nil && c.IsStructural && !c.IsSpan && len(el.WRefs()) == 0
}

func containsElement(haystack []docmodel.Element, needle docmodel.Element) bool {
	for _, h := range haystack {
		if h == needle {
			return true
		}
	}
	return false
}

// matchSelector reports whether element alone (ignoring any chain) is
// accepted by sel — the source's Selector.match, used by PARENT/NEXT/
// PREVIOUS relational clauses.
func matchSelector(e *eval, sel *Selector, element docmodel.Element) (bool, error) {
	if element == nil {
		return false, nil
	}
	if sel.ID != "" {
		if element.ID() != sel.ID {
			return false, nil
		}
	} else if sel.Class != nil {
		if element.Class() != sel.Class {
			return false, nil
		}
	}
	if sel.Filter != nil {
		return matchFilter(e, sel.Filter, element)
	}
	return true, nil
}

// autoDeclareSelector registers sel's (class, set) if not already declared,
// recursing along the chain (Selector.autodeclare).
func autoDeclareSelector(sel *Selector, doc docmodel.Document) {
	if sel.Class != nil && sel.Set != "" {
		if !doc.Declared(sel.Class, sel.Set) {
			_ = doc.Declare(sel.Class, sel.Set, nil)
		}
	}
	if sel.Next != nil {
		autoDeclareSelector(sel.Next, doc)
	}
}

// evalSpan builds a spanSet from a Span's chained target selectors: the
// first target drives the walk, the rest narrow it (Span.__call__).
func evalSpan(e *eval, sp *Span, selection selSeq, recurse bool) spanSet {
	head := chainSelectors(sp.Targets)
	var out spanSet
	for cand := range onlyElements(runSelector(e, head, selection, recurse)) {
		out = append(out, cand)
	}
	return out
}

func onlyElements(rs resultSeq) iter.Seq[docmodel.Element] {
	return func(yield func(docmodel.Element) bool) {
		for el, _ := range iter.Seq2[docmodel.Element, selItem](rs) {
			if !yield(el) {
				return
			}
		}
	}
}

// evalTarget walks a Target expression, yielding the selItems (elements,
// or spanSets for SPAN targets) a Query scopes its action to
// (Target.__call__).
func evalTarget(e *eval, t *Target, selection selSeq) selSeq {
	if t.Nested != nil {
		nested := runSelector(e, t.Nested, selection, true)
		selection = func(yield func(selItem) bool) {
			for el := range onlyElements(nested) {
				if !yield(itemElement(el)) {
					return
				}
			}
		}
	}

	recurse := !t.Strict

	if len(t.Spans) > 0 {
		return func(yield func(selItem) bool) {
			for _, sp := range t.Spans {
				set := evalSpan(e, sp, selection, recurse)
				if !yield(itemSpan(set)) {
					return
				}
			}
		}
	}

	head := chainSelectors(t.Selectors)
	return func(yield func(selItem) bool) {
		for cand := range onlyElements(runSelector(e, head, selection, recurse)) {
			if !yield(itemElement(cand)) {
				return
			}
		}
	}
}

// rootSelection returns the document's top-level structural sequence, the
// default context for a query with no FOR/IN target.
func rootSelection(doc docmodel.Document) selSeq {
	return func(yield func(selItem) bool) {
		for _, el := range doc.Data() {
			if !yield(itemElement(el)) {
				return
			}
		}
	}
}

// matchFilter evaluates a WHERE predicate against element, short-circuiting
// on the first decisive clause. When no clause short-circuits (an empty
// filter, or every clause agreeing with the running conjunction/disjunction
// default), the last computed verdict is returned rather than a hardcoded
// boolean — matching Filter.__call__'s fall-through `return match`, where
// `match` is whatever the loop variable was left holding (true for an
// empty filter, since it starts True and no clause runs).
func matchFilter(e *eval, f *Filter, element docmodel.Element) (bool, error) {
	if f == nil {
		return true, nil
	}

	match := true
	for _, clause := range f.Clauses {
		var err error
		match, err = evalClause(e, clause, element)
		if err != nil {
			return false, err
		}

		if f.Negated {
			match = !match
		}

		if match {
			if f.Disjunction {
				return true, nil
			}
		} else if !f.Disjunction {
			return false, nil
		}
	}

	return match, nil
}

func evalClause(e *eval, c Clause, element docmodel.Element) (bool, error) {
	switch c.Kind {
	case ClauseNested:
		return matchFilter(e, c.Nested, element)

	case ClauseAttrPredicate, ClauseRegex:
		return evalComparison(c, attrValue(element, c.Attr))

	case ClauseRelational:
		switch c.Modifier {
		case RelChild:
			match := false
			for cand := range onlyElements(runSelector(e, c.Selector, singleton(itemElement(element)), true)) {
				var err error
				if c.SubFilter == nil {
					match = true
				} else {
					match, err = matchFilter(e, c.SubFilter, cand)
					if err != nil {
						return false, err
					}
				}
				if match {
					break
				}
			}
			return match, nil
		case RelParent:
			return matchSelector(e, c.Selector, element.Parent())
		case RelNext:
			return matchSelector(e, c.Selector, element.Next())
		case RelPrevious:
			return matchSelector(e, c.Selector, element.Previous())
		default:
			return false, newNotImplemented("context keyword " + string(c.Modifier))
		}
	}
	return false, newQueryError("unhandled clause kind")
}

func singleton(item selItem) selSeq {
	return func(yield func(selItem) bool) {
		yield(item)
	}
}

// attrValue resolves the value a comparison clause tests: "class" reads the
// class attribute, "text" invokes the text accessor, everything else is a
// generic named attribute (§3).
func attrValue(element docmodel.Element, attr string) string {
	switch attr {
	case "class":
		v, _ := element.Attr("class")
		return v
	case "text":
		return element.Text()
	default:
		v, _ := element.Attr(attr)
		return v
	}
}

func evalComparison(c Clause, value string) (bool, error) {
	switch c.Op {
	case "=", "==":
		return value == c.Value, nil
	case "!=":
		return value != c.Value, nil
	case ">", "<", ">=", "<=":
		lhs, err1 := strconv.ParseFloat(value, 64)
		rhs, err2 := strconv.ParseFloat(c.Value, 64)
		if err1 != nil || err2 != nil {
			return compareStrings(c.Op, value, c.Value), nil
		}
		return compareFloats(c.Op, lhs, rhs), nil
	case "CONTAINS":
		return strings.Contains(value, c.Value), nil
	case "MATCHES":
		return c.Regex.MatchString(value), nil
	default:
		return false, newQueryError("unknown operator %q", c.Op)
	}
}

func compareFloats(op string, a, b float64) bool {
	switch op {
	case ">":
		return a > b
	case "<":
		return a < b
	case ">=":
		return a >= b
	case "<=":
		return a <= b
	}
	return false
}

func compareStrings(op string, a, b string) bool {
	switch op {
	case ">":
		return a > b
	case "<":
		return a < b
	case ">=":
		return a >= b
	case "<=":
		return a <= b
	}
	return false
}
