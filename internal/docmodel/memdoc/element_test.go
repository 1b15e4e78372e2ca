package memdoc

import (
	"testing"

	"github.com/foliaquery/fql/internal/docmodel"
)

func TestElementAddRegistersChildAndID(t *testing.T) {
	doc := New("doc", NewRegistry())
	p := doc.AddRoot(ParagraphClass, nil)
	wEl, err := p.Add(WordClass, map[string]any{"set": "tokens"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	w := wEl.(*Element)
	if w.ID() == "" {
		t.Fatal("expected Add to generate an id when none is given")
	}
	if got, ok := doc.ByID(w.ID()); !ok || got != w {
		t.Fatalf("expected the new word to be registered under its own id")
	}
	if w.Set() != "tokens" {
		t.Errorf("expected set \"tokens\", got %q", w.Set())
	}
	if len(p.Children()) != 1 {
		t.Fatalf("expected paragraph to have one child, got %d", len(p.Children()))
	}
}

func TestElementSetTextAndAttr(t *testing.T) {
	doc := New("doc", NewRegistry())
	p := doc.AddRoot(ParagraphClass, nil)
	wEl, _ := p.Add(WordClass, nil)
	w := wEl.(*Element)
	w.SetText("fox")
	if w.Text() != "fox" {
		t.Errorf("expected text \"fox\", got %q", w.Text())
	}
	if err := w.SetAttr("class", "n"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	class, ok := w.Attr("class")
	if !ok || class != "n" {
		t.Errorf("expected attr class=n, got %q, %v", class, ok)
	}
}

func TestElementTextAggregatesDescendants(t *testing.T) {
	doc := New("doc", NewRegistry())
	p := doc.AddRoot(ParagraphClass, nil)
	s, _ := p.Add(SentenceClass, nil)
	sentence := s.(*Element)
	w1, _ := sentence.Add(WordClass, nil)
	w1.(*Element).SetText("The")
	w2, _ := sentence.Add(WordClass, nil)
	w2.(*Element).SetText("fox")

	if got := sentence.Text(); got != "The fox" {
		t.Errorf("expected aggregated text \"The fox\", got %q", got)
	}
}

func TestElementInsertFollowsPythonListSemantics(t *testing.T) {
	doc := New("doc", NewRegistry())
	p := doc.AddRoot(ParagraphClass, nil)
	s, _ := p.Add(SentenceClass, nil)
	sentence := s.(*Element)
	names := []string{"a", "b", "c"}
	for _, n := range names {
		wEl, _ := sentence.Add(WordClass, nil)
		wEl.(*Element).SetText(n)
	}

	// index -1 lands before the last element, not at the front.
	inserted, err := sentence.Insert(-1, WordClass, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	inserted.(*Element).SetText("x")

	kids := sentence.Children()
	if len(kids) != 4 {
		t.Fatalf("expected 4 children, got %d", len(kids))
	}
	if kids[2].Text() != "x" || kids[3].Text() != "c" {
		t.Fatalf("expected [a b x c], got [%s %s %s %s]", kids[0].Text(), kids[1].Text(), kids[2].Text(), kids[3].Text())
	}
}

func TestElementInsertClampsOutOfRangeIndex(t *testing.T) {
	doc := New("doc", NewRegistry())
	p := doc.AddRoot(ParagraphClass, nil)
	s, _ := p.Add(SentenceClass, nil)
	sentence := s.(*Element)
	wEl, _ := sentence.Add(WordClass, nil)
	wEl.(*Element).SetText("only")

	inserted, err := sentence.Insert(100, WordClass, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	inserted.(*Element).SetText("after")

	kids := sentence.Children()
	if len(kids) != 2 || kids[1].Text() != "after" {
		t.Fatalf("expected the out-of-range index to clamp to the end, got %v", kids)
	}

	negInserted, err := sentence.Insert(-100, WordClass, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	negInserted.(*Element).SetText("before")
	kids = sentence.Children()
	if kids[0].Text() != "before" {
		t.Fatalf("expected a far-negative index to clamp to the front, got %v", kids)
	}
}

func TestElementRemove(t *testing.T) {
	doc := New("doc", NewRegistry())
	p := doc.AddRoot(ParagraphClass, nil)
	wEl, _ := p.Add(WordClass, nil)
	w := wEl.(*Element)

	if err := p.Remove(w); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(p.Children()) != 0 {
		t.Fatalf("expected paragraph to have no children after Remove, got %d", len(p.Children()))
	}
	if w.Parent() != nil {
		t.Error("expected the removed word's parent to be cleared")
	}
}

func TestElementRemoveRejectsForeignChild(t *testing.T) {
	doc := New("doc", NewRegistry())
	p1 := doc.AddRoot(ParagraphClass, nil)
	p2 := doc.AddRoot(ParagraphClass, nil)
	wEl, _ := p1.Add(WordClass, nil)

	if err := p2.Remove(wEl); err == nil {
		t.Fatal("expected an error removing a child from the wrong parent")
	}
}

func TestElementAppendChild(t *testing.T) {
	doc := New("doc", NewRegistry())
	p := doc.AddRoot(ParagraphClass, nil)
	altEl := doc.New(AlternativeClass, nil)

	if err := p.AppendChild(altEl); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(p.Children()) != 1 || p.Children()[0] != altEl {
		t.Fatalf("expected the alternative to be appended as a child")
	}
}

func TestElementCopyDuplicatesSubtreeWithSuffix(t *testing.T) {
	doc := New("doc", NewRegistry())
	p := doc.AddRoot(ParagraphClass, nil)
	wEl, _ := p.Add(WordClass, map[string]any{"set": "tokens"})
	w := wEl.(*Element)
	w.SetText("fox")
	posEl, _ := w.Add(POSClass, map[string]any{"class": "n"})
	_ = posEl

	clone := w.Copy(doc, ".copy.1")
	c := clone.(*Element)
	if c.ID() != w.ID()+".copy.1" {
		t.Errorf("expected the clone's id to carry the suffix, got %q", c.ID())
	}
	if c.Text() != "fox" {
		t.Errorf("expected the clone to keep the original text, got %q", c.Text())
	}
	if len(c.Children()) != 1 {
		t.Fatalf("expected the clone to carry its own copy of the pos child, got %d children", len(c.Children()))
	}
	if c.Children()[0] == posEl {
		t.Error("expected the clone's pos child to be a distinct element, not shared with the original")
	}
}

func TestElementAlternativesReturnsInnerWrappedElement(t *testing.T) {
	doc := New("doc", NewRegistry())
	p := doc.AddRoot(ParagraphClass, nil)
	wEl, _ := p.Add(WordClass, nil)
	w := wEl.(*Element)
	_, _ = w.Add(POSClass, map[string]any{"class": "n"})

	altPos := doc.New(POSClass, map[string]any{"class": "adj"})
	wrapped := doc.NewAlternative(altPos, nil)
	if err := w.AppendChild(wrapped); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	alts := w.Alternatives(POSClass, "")
	if len(alts) != 1 {
		t.Fatalf("expected one alternative pos, got %d", len(alts))
	}
	if alts[0].Class() != POSClass {
		t.Fatalf("expected Alternatives to return the wrapped pos itself, got %s", alts[0].Class().XMLTag)
	}
	class, _ := alts[0].Attr("class")
	if class != "adj" {
		t.Errorf("expected the alternative's class to be \"adj\", got %q", class)
	}
}

func TestElementSelectDirectVsRecurse(t *testing.T) {
	doc := New("doc", NewRegistry())
	p := doc.AddRoot(ParagraphClass, nil)
	s, _ := p.Add(SentenceClass, nil)
	sentence := s.(*Element)
	wEl, _ := sentence.Add(WordClass, nil)
	w := wEl.(*Element)
	_, _ = w.Add(POSClass, map[string]any{"class": "n"})

	if direct := p.Select(POSClass, "", false); len(direct) != 0 {
		t.Fatalf("expected no direct pos children of the paragraph, got %d", len(direct))
	}
	if recursive := p.Select(POSClass, "", true); len(recursive) != 1 {
		t.Fatalf("expected one pos descendant under the paragraph, got %d", len(recursive))
	}
	if direct := sentence.Select(WordClass, "", false); len(direct) != 1 {
		t.Fatalf("expected one direct word child of the sentence, got %d", len(direct))
	}
}

func TestElementFindSpansMatchesSpanReferences(t *testing.T) {
	doc := New("doc", NewRegistry())
	p := doc.AddRoot(ParagraphClass, nil)
	s, _ := p.Add(SentenceClass, nil)
	sentence := s.(*Element)
	w1, _ := sentence.Add(WordClass, nil)
	w2, _ := sentence.Add(WordClass, nil)

	entity, err := w1.Add(EntityClass, map[string]any{"class": "animal"}, w1, w2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	spans := w1.(*Element).FindSpans(EntityClass, "")
	if len(spans) != 1 || spans[0] != entity {
		t.Fatalf("expected w1 to find the entity span through its wrefs, got %v", spans)
	}
	spans2 := w2.(*Element).FindSpans(EntityClass, "")
	if len(spans2) != 1 || spans2[0] != entity {
		t.Fatalf("expected w2 to find the same entity span, got %v", spans2)
	}
}

func TestElementAncestorStopsAtFirstAcceptedClass(t *testing.T) {
	doc := New("doc", NewRegistry())
	p := doc.AddRoot(ParagraphClass, nil)
	s, _ := p.Add(SentenceClass, nil)
	sentence := s.(*Element)
	wEl, _ := sentence.Add(WordClass, nil)
	w := wEl.(*Element)
	posEl, _ := w.Add(POSClass, nil)
	pos := posEl.(*Element)

	ancestor := pos.Ancestor(func(c *docmodel.ElementClass) bool { return c.IsStructural })
	if ancestor != w {
		t.Fatalf("expected the nearest structural ancestor to be the word, got %v", ancestor)
	}
}

func TestElementNextAndPrevious(t *testing.T) {
	doc := New("doc", NewRegistry())
	p := doc.AddRoot(ParagraphClass, nil)
	s, _ := p.Add(SentenceClass, nil)
	sentence := s.(*Element)
	w1, _ := sentence.Add(WordClass, nil)
	w2, _ := sentence.Add(WordClass, nil)

	if w1.(*Element).Next() != w2 {
		t.Error("expected w1's Next to be w2")
	}
	if w2.(*Element).Previous() != w1 {
		t.Error("expected w2's Previous to be w1")
	}
	if w1.(*Element).Previous() != nil {
		t.Error("expected w1 (first child) to have no Previous")
	}
	if w2.(*Element).Next() != nil {
		t.Error("expected w2 (last child) to have no Next")
	}
}
