package fql

import (
	"fmt"

	"github.com/foliaquery/fql/internal/docmodel"
	"github.com/google/uuid"
)

// runActionChain evaluates action and every action chained after it via
// Next against selection, returning the consolidated focus/target
// selections the whole chain produced (Action.__call__).
//
// When the chain has more than one action, the selection is materialized
// once up front and replayed identically for each action — mirroring the
// source's `contextselector = list(contextselector[0](*contextselector[1]))`
// — so later actions in the chain see the pre-mutation selection rather
// than a freshly re-walked (and possibly now-different) one. A single
// action keeps its selection lazy, re-walking the document each time it is
// consumed, same as the source's function-recipe re-invocation.
func runActionChain(e *eval, action *Action, selection selSeq) ([]docmodel.Element, []docmodel.Element, error) {
	var chain []*Action
	for a := action; a != nil; a = a.Next {
		chain = append(chain, a)
	}

	freshSelection := selection
	if len(chain) > 1 {
		var shared []selItem
		for item := range selection {
			shared = append(shared, item)
		}
		freshSelection = func(yield func(selItem) bool) {
			for _, it := range shared {
				if !yield(it) {
					return
				}
			}
		}
	}

	for _, a := range chain {
		if a.Verb != VerbSelect {
			autoDeclareSelector(a.Focus, e.doc)
		}
	}
	// Only the last action's form is auto-declared here: the source's
	// equivalent check sits outside the declaring for-loop and so only
	// ever sees that loop's final iteration value.
	if last := chain[len(chain)-1]; last.Form != nil {
		if c, ok := last.Form.(*Correction); ok {
			c.autoDeclare(e.doc)
		}
	}

	var focusAll, targetAll []docmodel.Element
	for _, a := range chain {
		focusSel, targetSel, err := runSingleAction(e, a, freshSelection)
		if err != nil {
			return nil, nil, err
		}
		if len(chain) > 1 {
			for _, f := range focusSel {
				if !containsElement(focusAll, f) {
					focusAll = append(focusAll, f)
				}
			}
			for _, t := range targetSel {
				if !containsElement(targetAll, t) {
					targetAll = append(targetAll, t)
				}
			}
		} else {
			focusAll = focusSel
			targetAll = targetSel
		}
	}

	return focusAll, targetAll, nil
}

// runSingleAction performs one action's verb against selection, returning
// its focus selection and the target elements that selection constrained.
func runSingleAction(e *eval, action *Action, selection selSeq) ([]docmodel.Element, []docmodel.Element, error) {
	var focusSelection []docmodel.Element
	var constrainedTargets []docmodel.Element
	var processedForm []docmodel.Element

	addConstrained := func(item selItem) {
		if item.isSpan() {
			for _, m := range item.span {
				if !containsElement(constrainedTargets, m) {
					constrainedTargets = append(constrainedTargets, m)
				}
			}
			return
		}
		if item.el != nil && !containsElement(constrainedTargets, item.el) {
			constrainedTargets = append(constrainedTargets, item.el)
		}
	}

	if action.Verb != VerbAdd && action.Verb != VerbAppend && action.Verb != VerbPrepend {
		for focus, target := range runSelector(e, action.Focus, selection, true) {
			if target.el != nil || target.isSpan() {
				addConstrained(target)
			}

			if action.Form != nil {
				if !containsElement(processedForm, focus) {
					processedForm = append(processedForm, focus)
					var targetEl docmodel.Element
					if !target.isSpan() {
						targetEl = target.el
					}
					results, err := applyForm(e, action.Form, action, focus, targetEl)
					if err != nil {
						return nil, nil, err
					}
					focusSelection = append(focusSelection, results...)
				}
				continue
			}

			if action.Verb != VerbDelete && !containsElement(focusSelection, focus) {
				focusSelection = append(focusSelection, focus)
			}

			switch action.Verb {
			case VerbEdit:
				var before string
				if e.tracer != nil {
					before = focus.XMLString(false)
				}
				for attr, value := range action.Assignments {
					if attr == "text" {
						focus.SetText(toString(value))
					} else if err := focus.SetAttr(attr, value); err != nil {
						return nil, nil, err
					}
				}
				if action.Respan != nil {
					if !focus.Class().IsSpan {
						return nil, nil, newQueryError("can only perform RESPAN on span annotation elements")
					}
					// The respan targets are re-evaluated against the
					// current selection, not pinned to the element's prior
					// span — RESPAN always reflects the live context.
					spanset := evalSpan(e, action.Respan, selection, true)
					if err := focus.SetSpan(spanset...); err != nil {
						return nil, nil, err
					}
				}
				if e.tracer != nil {
					e.tracer.traceMutation(fmt.Sprintf("EDIT %s", focus.ID()), before, focus.XMLString(false))
				}
			case VerbDelete:
				if parent := focus.Parent(); parent != nil {
					if err := parent.Remove(focus); err != nil {
						return nil, nil, err
					}
				}
			}
		}
	}

	if action.Verb == VerbAdd || action.Verb == VerbAppend || action.Verb == VerbPrepend ||
		(action.Verb == VerbEdit && len(focusSelection) == 0) {
		if action.Focus.Class == nil {
			return nil, nil, newQueryError("focus of action has no class")
		}
		if _, ok := action.Assignments["set"]; !ok {
			action.Assignments["set"] = action.Focus.Set
		}

		for item := range selection {
			if action.Form != nil {
				results, err := applyForm(e, action.Form, action, nil, item.element())
				if err != nil {
					return nil, nil, err
				}
				focusSelection = append(focusSelection, results...)
			} else if item.isSpan() {
				if (action.Verb == VerbAdd || action.Verb == VerbEdit) && len(item.span) > 0 {
					created, err := item.span[0].Add(action.Focus.Class, action.Assignments, item.span...)
					if err != nil {
						return nil, nil, err
					}
					focusSelection = append(focusSelection, created)
				}
			} else {
				target := item.el
				switch action.Verb {
				case VerbAdd, VerbEdit:
					created, err := target.Add(action.Focus.Class, action.Assignments)
					if err != nil {
						return nil, nil, err
					}
					focusSelection = append(focusSelection, created)
				case VerbAppend:
					index := target.IndexInParent()
					created, err := target.Parent().Insert(index, action.Focus.Class, action.Assignments)
					if err != nil {
						return nil, nil, err
					}
					focusSelection = append(focusSelection, created)
				case VerbPrepend:
					// Mirrors the source exactly:
					// target.parent.data.index(target) - 1, never clamped.
					// Prepending before a parent's first child inserts at
					// index -1, not index 0.
					index := target.IndexInParent() - 1
					created, err := target.Parent().Insert(index, action.Focus.Class, action.Assignments)
					if err != nil {
						return nil, nil, err
					}
					focusSelection = append(focusSelection, created)
				}
			}

			addConstrained(item)
		}
	}

	if len(focusSelection) > 0 && len(action.Subactions) > 0 {
		sub := func(yield func(selItem) bool) {
			for _, f := range focusSelection {
				if !yield(itemElement(f)) {
					return
				}
			}
		}
		for _, subaction := range action.Subactions {
			if subaction.Verb != VerbSelect {
				autoDeclareSelector(subaction.Focus, e.doc)
			}
			// Subaction results are discarded: they can never contribute
			// to the outer focus/target selection.
			if _, _, err := runSingleAction(e, subaction, sub); err != nil {
				return nil, nil, err
			}
		}
	}

	return focusSelection, constrainedTargets, nil
}

func applyForm(e *eval, form Form, action *Action, focus, target docmodel.Element) ([]docmodel.Element, error) {
	switch f := form.(type) {
	case *Alternative:
		return applyAlternative(e, f, action, focus, target)
	case *Correction:
		return applyCorrection(e, f, action, focus, target)
	default:
		return nil, newQueryError("unsupported form")
	}
}

// applyAlternative delegates a focus mutation to `AS ALTERNATIVE` (§4.6,
// Alternative.__call__).
func applyAlternative(e *eval, alt *Alternative, action *Action, focus, target docmodel.Element) ([]docmodel.Element, error) {
	isSpan := action.Focus.Class != nil && action.Focus.Class.IsSpan

	subAssignments := map[string]any{}
	for k, v := range action.Assignments {
		subAssignments[k] = v
	}
	for k, v := range alt.SubAssignments {
		subAssignments[k] = v
	}

	switch action.Verb {
	case VerbSelect:
		if focus == nil {
			return nil, newQueryError("SELECT requires a focus element")
		}
		if isSpan {
			return nil, newNotImplemented("selecting alternative span")
		}
		var out []docmodel.Element
		for _, a := range focus.Alternatives(action.Focus.Class, focus.Set()) {
			if alt.Filter == nil {
				out = append(out, a)
				continue
			}
			ok, err := matchFilter(e, alt.Filter, a)
			if err != nil {
				return nil, err
			}
			if ok {
				out = append(out, a)
			}
		}
		return out, nil

	case VerbEdit, VerbAdd:
		if isSpan {
			return nil, newNotImplemented("editing alternative span")
		}
		if _, ok := subAssignments["set"]; !ok && focus != nil {
			subAssignments["set"] = focus.Set()
		}
		child := e.doc.New(action.Focus.Class, subAssignments)
		wrapped := e.doc.NewAlternative(child, alt.Assignments)

		var parent docmodel.Element
		if focus != nil {
			parent = focus.Ancestor(func(c *docmodel.ElementClass) bool { return c.IsStructural })
		} else {
			parent = target
		}
		if parent == nil {
			return nil, newQueryError("no element to attach alternative to")
		}
		if err := parent.AppendChild(wrapped); err != nil {
			return nil, err
		}
		return []docmodel.Element{wrapped}, nil

	default:
		return nil, newQueryError("alternative does not handle action %s", action.Verb)
	}
}

// applyCorrection delegates a focus mutation to `AS CORRECTION`, including
// its SUGGESTION entries (§4.7, Correction.__call__).
func applyCorrection(e *eval, corr *Correction, action *Action, focus, target docmodel.Element) ([]docmodel.Element, error) {
	actionAssignments := map[string]any{}
	for k, v := range action.Assignments {
		actionAssignments[k] = v
	}
	for k, v := range corr.ActionAssignments {
		actionAssignments[k] = v
	}
	if len(actionAssignments) > 0 {
		if _, ok := actionAssignments["set"]; !ok && action.Focus.Class != nil {
			actionAssignments["set"] = e.resolveDefaultSet(action.Focus.Class)
		}
	}

	switch action.Verb {
	case VerbSelect:
		if focus == nil {
			return nil, newQueryError("SELECT requires a focus element")
		}
		correction := focus.InCorrection()
		if correction == nil {
			return nil, nil
		}
		if corr.Filter != nil {
			ok, err := matchFilter(e, corr.Filter, correction)
			if err != nil {
				return nil, err
			}
			if !ok {
				return nil, nil
			}
		}
		return []docmodel.Element{correction}, nil

	case VerbEdit, VerbAdd:
		args := docmodel.CorrectArgs{Assignments: map[string]any{}}
		for k, v := range corr.Assignments {
			args.Assignments[k] = v
		}
		args.Set = corr.Set

		var existingCorrection docmodel.Element
		if focus != nil {
			existingCorrection = focus.InCorrection()
		}

		if len(actionAssignments) > 0 {
			var childrenCopy []docmodel.Element
			if !corr.Bare && focus != nil {
				idSuffix := ".copy." + uuid.NewString()[:8]
				childrenCopy = focus.CopyChildren(e.doc, idSuffix)
			}
			args.New = e.doc.New(action.Focus.Class, actionAssignments, childrenCopy...)
			args.Original = focus
		} else {
			args.Current = focus
			if existingCorrection != nil {
				args.Reuse = existingCorrection
			}
		}

		var parent docmodel.Element
		switch {
		case focus != nil && args.Reuse != nil:
			parent = focus.Ancestor(func(c *docmodel.ElementClass) bool {
				return c.IsStructural || c.IsSpanAnnotation || c.IsAnnotationLayer
			})
		case focus != nil:
			parent = focus.Ancestor(func(c *docmodel.ElementClass) bool {
				return c.IsStructural || c.IsSpanAnnotation || c.IsAnnotationLayer || c.IsCorrection
			})
		default:
			parent = target
		}
		if parent == nil {
			return nil, newQueryError("no suitable ancestor to attach correction to")
		}

		if args.ID == "" && args.Reuse == nil {
			args.ID = parent.GenerateID(correctionClass)
		}

		for _, sg := range corr.Suggestions {
			subAssignments := map[string]any{}
			for k, v := range sg.SubAssignments {
				subAssignments[k] = v
			}
			for k, v := range action.Assignments {
				if _, ok := subAssignments[k]; !ok {
					subAssignments[k] = v
				}
			}
			if _, ok := subAssignments["set"]; !ok && action.Focus.Class != nil {
				subAssignments["set"] = e.resolveDefaultSet(action.Focus.Class)
			}
			child := e.doc.New(action.Focus.Class, subAssignments)
			args.Suggestions = append(args.Suggestions, e.doc.NewSuggestion(child, sg.SuggestionAssignments))
		}

		result, err := parent.Correct(args)
		if err != nil {
			return nil, err
		}
		return []docmodel.Element{result}, nil

	default:
		return nil, newQueryError("correction does not handle action %s", action.Verb)
	}
}

// resolveDefaultSet looks up a class's default set first in the query-level
// DefaultSets map (which DECLARE statements do not fill), falling back to
// the document's own bookkeeping.
func (e *eval) resolveDefaultSet(class *docmodel.ElementClass) string {
	if ds, ok := e.defaultSets[class.XMLTag]; ok {
		return ds
	}
	return e.doc.DefaultSet(class)
}

func toString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}
