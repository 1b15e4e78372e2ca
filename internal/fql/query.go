package fql

import "github.com/foliaquery/fql/internal/docmodel"

// Run executes a parsed Query against doc and renders the result according
// to Format (§4.8, Query.__call__).
func Run(q *Query, doc docmodel.Document) (any, error) {
	return RunTraced(q, doc, nil)
}

// RunTraced behaves like Run but, when tracer is non-nil, records a unified
// diff of the XML serialization of every element a plain EDIT (one without
// an AS form) changes. Other mutations are not traced.
func RunTraced(q *Query, doc docmodel.Document, tracer *Tracer) (any, error) {
	for _, decl := range q.Declarations {
		if err := doc.Declare(decl.Class, decl.Set, decl.Defaults); err != nil {
			return nil, err
		}
	}

	e := &eval{doc: doc, defaultSets: q.DefaultSets, tracer: tracer}

	var responseSelection []docmodel.Element

	if q.Action != nil {
		selection := rootSelection(doc)
		if q.Target != nil {
			selection = evalTarget(e, q.Target, selection)
		}

		focusSelection, targetSelection, err := runActionChain(e, q.Action, selection)
		if err != nil {
			return nil, err
		}

		switch q.ReturnType {
		case "focus", "":
			responseSelection = focusSelection
		case "target", "inner-target":
			for _, el := range targetSelection {
				if !containsElement(responseSelection, el) {
					responseSelection = append(responseSelection, el)
				}
			}
		case "outer-target":
			return nil, newNotImplemented("outer-target return type")
		case "ancestor-target":
			return nil, newNotImplemented("ancestor-target return type")
		default:
			return nil, newQueryError("invalid return type: %s", q.ReturnType)
		}
	}

	return renderResult(q.Format, responseSelection)
}
