package memdoc

// BuildSample returns a small, hand-built document with one paragraph of
// two sentences, word/pos/lemma token annotation and one entity span, for
// use by tests and the fqlrun demo CLI. It plays the role the pack's
// MockLanguageProvider plays for a language backend: a deterministic stand-in
// for a real FoLiA document.
func BuildSample() *Document {
	doc := New("sample", NewRegistry())

	p := doc.AddRoot(ParagraphClass, nil)

	s1, _ := p.Add(SentenceClass, nil)
	sentence1 := s1.(*Element)
	words1 := addWords(sentence1, []wordSpec{
		{"The", "det", "the"},
		{"quick", "adj", "quick"},
		{"fox", "n", "fox"},
		{"jumps", "v", "jump"},
	})

	s2, _ := p.Add(SentenceClass, nil)
	sentence2 := s2.(*Element)
	words2 := addWords(sentence2, []wordSpec{
		{"Resistance", "n", "resistance"},
		{"is", "v", "be"},
		{"futile", "adj", "futile"},
	})

	_, _ = words1[1].Add(EntityClass, map[string]any{"set": "entities", "class": "animal"}, words1[1], words1[2])

	_ = words2
	return doc
}

type wordSpec struct {
	text, pos, lemma string
}

func addWords(sentence *Element, specs []wordSpec) []*Element {
	out := make([]*Element, 0, len(specs))
	for _, spec := range specs {
		wEl, _ := sentence.Add(WordClass, map[string]any{"set": "tokens"})
		w := wEl.(*Element)
		w.SetText(spec.text)
		_, _ = w.Add(POSClass, map[string]any{"set": "pos-set", "class": spec.pos})
		_, _ = w.Add(LemmaClass, map[string]any{"set": "lemma-set", "class": spec.lemma})
		out = append(out, w)
	}
	return out
}
