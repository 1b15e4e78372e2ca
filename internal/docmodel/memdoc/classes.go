// Package memdoc is a minimal in-memory FoLiA document model implementing
// docmodel.Document and docmodel.Element: a reference collaborator for the
// fql core's tests and the fqlrun demo CLI, standing in for a real FoLiA
// library the way the pack's MockLanguageProvider stands in for a real
// language backend.
package memdoc

import "github.com/foliaquery/fql/internal/docmodel"

// Well-known element classes a document built by this package recognizes.
// A real FoLiA library would carry many more (morpheme, chunk, dependency,
// syntax, semrole, ...); this set covers enough of the annotation model to
// exercise every FQL construct (structure, token annotation, span
// annotation, correction, alternative).
var (
	WordClass = &docmodel.ElementClass{
		XMLTag:         "w",
		AnnotationType: "token",
		IsStructural:   true,
	}
	SentenceClass = &docmodel.ElementClass{
		XMLTag:         "s",
		AnnotationType: "sentence",
		IsStructural:   true,
	}
	ParagraphClass = &docmodel.ElementClass{
		XMLTag:         "p",
		AnnotationType: "paragraph",
		IsStructural:   true,
	}
	DivisionClass = &docmodel.ElementClass{
		XMLTag:         "div",
		AnnotationType: "division",
		IsStructural:   true,
	}
	TextContentClass = &docmodel.ElementClass{
		XMLTag:         "t",
		AnnotationType: "text",
		IsTextContent:  true,
	}
	POSClass = &docmodel.ElementClass{
		XMLTag:         "pos",
		AnnotationType: "pos",
	}
	LemmaClass = &docmodel.ElementClass{
		XMLTag:         "lemma",
		AnnotationType: "lemma",
	}
	EntityClass = &docmodel.ElementClass{
		XMLTag:           "entity",
		AnnotationType:   "entity",
		IsSpan:           true,
		IsSpanAnnotation: true,
	}
	ChunkClass = &docmodel.ElementClass{
		XMLTag:           "chunk",
		AnnotationType:   "chunk",
		IsSpan:           true,
		IsSpanAnnotation: true,
	}
	AlternativeClass = &docmodel.ElementClass{
		XMLTag: "alternative",
	}
	SuggestionClass = &docmodel.ElementClass{
		XMLTag: "suggestion",
	}
	CorrectionClass = &docmodel.ElementClass{
		XMLTag:         "correction",
		AnnotationType: "correction",
		IsCorrection:   true,
	}
)

// internal wrapper classes modeling FoLiA's <new>/<original>/<current>
// correction children. Never registered with a ClassRegistry: a query can
// never select them directly, only the payload they wrap.
var (
	newWrapperClass      = &docmodel.ElementClass{XMLTag: "new"}
	originalWrapperClass = &docmodel.ElementClass{XMLTag: "original"}
	currentWrapperClass  = &docmodel.ElementClass{XMLTag: "current"}
)

// NewRegistry returns a ClassRegistry with every class above registered
// under its XMLTag, ready to hand to fql.ParseQuery.
func NewRegistry() *docmodel.ClassRegistry {
	r := docmodel.NewClassRegistry()
	classes := []*docmodel.ElementClass{
		WordClass, SentenceClass, ParagraphClass, DivisionClass,
		TextContentClass, POSClass, LemmaClass, EntityClass, ChunkClass,
		AlternativeClass, SuggestionClass, CorrectionClass,
	}
	for _, c := range classes {
		if err := r.Register(c); err != nil {
			panic(err) // programmer error: duplicate XMLTag in this fixed list
		}
	}
	return r
}
