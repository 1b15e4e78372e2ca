// Package docmodel defines the external collaborator FQL's core evaluates
// against: the FoLiA document model. The core never inspects an element by
// concrete type; it only asks an ElementClass for capability flags and an
// Element for the small operation set below. A real FoLiA library (XML
// (de)serialization, span target resolution, id generation) would implement
// these interfaces; internal/docmodel/memdoc provides a minimal in-memory
// reference implementation used by tests and the demo CLI.
package docmodel

import "fmt"

// AnnotatorType distinguishes human-made from machine-made annotations.
type AnnotatorType string

const (
	AnnotatorAuto   AnnotatorType = "auto"
	AnnotatorManual AnnotatorType = "manual"
)

// ElementClass is a registry entry describing one kind of FoLiA element.
// The core queries these capability flags instead of type-asserting by name,
// mirroring how morfx's NodeMapping keeps the evaluator language-agnostic.
type ElementClass struct {
	// XMLTag is the canonical element name as it appears in an FQL query
	// (e.g. "w", "pos", "entity", "correction").
	XMLTag string

	// AnnotationType identifies the annotation kind for declare/defaultset
	// bookkeeping; empty for classes that cannot be declared (e.g. text).
	AnnotationType string

	IsSpan            bool // span annotation: extent is a tuple of word/morpheme refs
	IsStructural      bool // structural element (paragraph, sentence, word, ...)
	IsSpanAnnotation  bool // alias kept distinct from IsSpan for clarity at call sites
	IsAnnotationLayer bool
	IsCorrection      bool
	IsTextContent     bool // TextContent: WITH text assigns "value", not "text"
}

// Declarable reports whether this class may appear in a DECLARE statement
// or be auto-declared by a mutating action.
func (c *ElementClass) Declarable() bool {
	return c != nil && c.AnnotationType != ""
}

func (c *ElementClass) String() string {
	if c == nil {
		return "<nil>"
	}
	return fmt.Sprintf("%s(%s)", c.XMLTag, c.AnnotationType)
}

// Element is the opaque tree node the FQL core walks, filters and mutates.
// Implementations own their own identity, parenting and persistence; the
// core only ever holds references and compares them by identity.
type Element interface {
	// Class returns this element's registry entry.
	Class() *ElementClass

	// ID returns the element's document-unique identifier, or "" if none.
	ID() string

	// Set returns the annotation set this element belongs to, if any.
	Set() string

	// Text returns the element's textual content (TEXT accessor, §4.3).
	Text() string

	// Attr reads a named attribute (class, annotator, annotatortype, n,
	// confidence, ...); ok is false if the attribute is unset.
	Attr(name string) (value string, ok bool)

	// SetAttr assigns a named attribute (EDIT's WITH assignments).
	SetAttr(name string, value any) error

	// SetText implements WITH text "..." / WITH value "..." on text content.
	SetText(value string)

	// Select enumerates descendants of the given class/set. When recurse is
	// false only direct children are considered (Target's IN semantics).
	Select(class *ElementClass, set string, recurse bool) []Element

	// FindSpans enumerates span annotations of class/set that reference this
	// word/morpheme element (used when a span-annotation Selector meets a
	// single word/morpheme context, §4.2).
	FindSpans(class *ElementClass, set string) []Element

	// WRefs returns the word/morpheme references a span annotation spans.
	WRefs() []Element

	// Alternatives enumerates non-authoritative variants of class/set
	// attached alongside this element.
	Alternatives(class *ElementClass, set string) []Element

	// InCorrection returns the enclosing Correction if this element is
	// currently wrapped by one, or nil.
	InCorrection() Element

	// Ancestor returns the nearest ancestor whose class satisfies accept,
	// or nil if none does.
	Ancestor(accept func(*ElementClass) bool) Element

	// Parent returns the immediate parent, or nil at the document root.
	Parent() Element

	// Next returns the next sibling in document order, or nil.
	Next() Element

	// Previous returns the previous sibling in document order, or nil.
	Previous() Element

	// Add appends a freshly constructed child of class, applying assignments,
	// and (for span annotations) spanning the given word/morpheme refs.
	Add(class *ElementClass, assignments map[string]any, wrefs ...Element) (Element, error)

	// Insert creates a new child of class at the given index within this
	// element's child sequence and returns it.
	Insert(index int, class *ElementClass, assignments map[string]any) (Element, error)

	// Remove detaches child from this element's children.
	Remove(child Element) error

	// AppendChild attaches an already-constructed child (built via
	// Document.New/NewAlternative/NewSuggestion) as this element's last
	// child, for forms that build a node first and attach it second
	// rather than going through Add's class-based construction.
	AppendChild(child Element) error

	// Copy deep-copies this element into doc, suffixing its id (and every
	// descendant id) with idSuffix to preserve document-wide uniqueness.
	Copy(doc Document, idSuffix string) Element

	// CopyChildren deep-copies this element's children (not the element
	// itself), each suffixed with idSuffix, for callers that need a
	// children_copy to attach to a different new parent.
	CopyChildren(doc Document, idSuffix string) []Element

	// GenerateID mints a fresh, unused id for a new child of class.
	GenerateID(class *ElementClass) string

	// SetSpan replaces a span annotation's word/morpheme references.
	SetSpan(wrefs ...Element) error

	// Correct is called on the parent of the element being corrected: it
	// builds a Correction (or extends args.Reuse) holding args.New/Original
	// or args.Current and the suggestions, per the keyword bag built by the
	// Correction form (§4.7), and returns that Correction.
	Correct(args CorrectArgs) (Element, error)

	// XMLString renders the element (pretty-printed if requested). The core
	// never parses XML; it only asks for a serialisation of a result.
	XMLString(pretty bool) string

	// JSON renders a JSON-compatible value for this element.
	JSON() any

	// Children returns the immediate child sequence, in document order.
	Children() []Element

	// IndexInParent returns this element's position among its parent's
	// children, or -1 if it has no parent.
	IndexInParent() int
}

// CorrectArgs is the keyword bag passed to Element.Correct, assembled by the
// Correction form (§4.7). Exactly one of New/Current should be set.
type CorrectArgs struct {
	New         Element // a freshly built replacement (actionassignments path)
	Original    Element // the element New replaces, when New is set
	Current     Element // the existing element being wrapped, when New is unset
	Reuse       Element // an existing Correction to extend instead of creating
	ID          string
	Set         string
	Assignments map[string]any
	Suggestions []Element
}

// Document is the external collaborator the FQL core treats as opaque: it
// owns declaration bookkeeping, id lookup and the top-level structural
// sequence, and is the factory for Alternative/Correction/Suggestion nodes.
type Document interface {
	// ID returns the document's own identifier, for diagnostics.
	ID() string

	// Declare registers (class, set) with the given defaults, idempotently.
	Declare(class *ElementClass, set string, defaults map[string]any) error

	// Declared reports whether (class, set) is already registered.
	Declared(class *ElementClass, set string) bool

	// DefaultSet returns the default annotation set for class, if declared.
	DefaultSet(class *ElementClass) string

	// ByID looks up an element by id; ok is false if absent (silently
	// ignored by Selector evaluation per §7).
	ByID(id string) (Element, bool)

	// Data returns the top-level structural sequence, the root context for
	// a query with no FOR/IN target.
	Data() []Element

	// Classes returns the element-class registry (the FoLiA analogue of
	// XML2CLASS).
	Classes() *ClassRegistry

	// NewAlternative constructs an Alternative wrapping child, with the
	// given assignments (annotator, annotatortype, ...).
	NewAlternative(child Element, assignments map[string]any) Element

	// NewSuggestion constructs a Suggestion wrapping child.
	NewSuggestion(child Element, assignments map[string]any) Element

	// New constructs a detached element of class with the given assignments
	// and, if given, children already re-parented onto it, used for the
	// Correction form's fresh-child / suggestion construction (mirroring
	// class(doc, *children_copy, **assignments) in the source).
	New(class *ElementClass, assignments map[string]any, children ...Element) Element
}
