package memdoc

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/foliaquery/fql/internal/docmodel"
)

// Element is the in-memory node backing every docmodel.Element this package
// hands to the fql core. Attributes are stored generically (annotator,
// annotatortype, n, confidence, class, ...) except set and text, which get
// their own fields since every class cares about them.
type Element struct {
	doc    *Document
	class  *docmodel.ElementClass
	id     string
	set    string
	text   string
	attrs  map[string]string
	parent *Element
	kids   []*Element
	wrefs  []*Element

	inCorrection *Element
}

func newElement(doc *Document, class *docmodel.ElementClass) *Element {
	return &Element{doc: doc, class: class, attrs: map[string]string{}}
}

func (e *Element) Class() *docmodel.ElementClass { return e.class }
func (e *Element) ID() string                    { return e.id }
func (e *Element) Set() string                   { return e.set }

// Text returns this element's own text for a leaf/text-content node, or the
// space-joined text of its descendants otherwise — a simplified stand-in
// for FoLiA's text aggregation rules.
func (e *Element) Text() string {
	if e.text != "" || len(e.kids) == 0 {
		return e.text
	}
	var parts []string
	for _, k := range e.kids {
		if t := k.Text(); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, " ")
}

func (e *Element) Attr(name string) (string, bool) {
	v, ok := e.attrs[name]
	return v, ok
}

func (e *Element) SetAttr(name string, value any) error {
	s := toAttrString(value)
	switch name {
	case "set":
		e.set = s
	case "value": // WITH value on a TextContent focus
		e.text = s
	default:
		e.attrs[name] = s
	}
	return nil
}

func (e *Element) SetText(value string) { e.text = value }

func (e *Element) Select(class *docmodel.ElementClass, set string, recurse bool) []docmodel.Element {
	var out []docmodel.Element
	if !recurse {
		for _, c := range e.kids {
			if c.class == class && (set == "" || c.set == set) {
				out = append(out, c)
			}
		}
		return out
	}
	var walk func(node *Element)
	walk = func(node *Element) {
		for _, c := range node.kids {
			if c.class == class && (set == "" || c.set == set) {
				out = append(out, c)
			}
			walk(c)
		}
	}
	walk(e)
	return out
}

func (e *Element) FindSpans(class *docmodel.ElementClass, set string) []docmodel.Element {
	var out []docmodel.Element
	for cand := range e.doc.walkAll() {
		if cand.class != class || (set != "" && cand.set != set) {
			continue
		}
		if containsPtr(cand.wrefs, e) {
			out = append(out, cand)
		}
	}
	return out
}

func (e *Element) WRefs() []docmodel.Element {
	out := make([]docmodel.Element, len(e.wrefs))
	for i, w := range e.wrefs {
		out[i] = w
	}
	return out
}

func (e *Element) Alternatives(class *docmodel.ElementClass, set string) []docmodel.Element {
	var out []docmodel.Element
	for _, c := range e.kids {
		if c.class != AlternativeClass {
			continue
		}
		for _, inner := range c.kids {
			if inner.class == class && (set == "" || inner.set == set) {
				out = append(out, inner)
			}
		}
	}
	return out
}

func (e *Element) InCorrection() docmodel.Element {
	if e.inCorrection == nil {
		return nil
	}
	return e.inCorrection
}

func (e *Element) Ancestor(accept func(*docmodel.ElementClass) bool) docmodel.Element {
	for p := e.parent; p != nil; p = p.parent {
		if accept(p.class) {
			return p
		}
	}
	return nil
}

func (e *Element) Parent() docmodel.Element {
	if e.parent == nil {
		return nil
	}
	return e.parent
}

func (e *Element) Next() docmodel.Element {
	idx := e.IndexInParent()
	if idx < 0 || e.parent == nil || idx+1 >= len(e.parent.kids) {
		return nil
	}
	return e.parent.kids[idx+1]
}

func (e *Element) Previous() docmodel.Element {
	idx := e.IndexInParent()
	if idx <= 0 || e.parent == nil {
		return nil
	}
	return e.parent.kids[idx-1]
}

func (e *Element) Add(class *docmodel.ElementClass, assignments map[string]any, wrefs ...docmodel.Element) (docmodel.Element, error) {
	child := newElement(e.doc, class)
	if err := applyAssignments(child, assignments); err != nil {
		return nil, err
	}
	if class.IsSpan && len(wrefs) > 0 {
		refs := make([]*Element, 0, len(wrefs))
		for _, w := range wrefs {
			we, ok := w.(*Element)
			if !ok {
				return nil, fmt.Errorf("memdoc: foreign element passed as span reference")
			}
			refs = append(refs, we)
		}
		child.wrefs = refs
	}
	if child.id == "" {
		child.id = e.GenerateID(class)
	}
	e.doc.register(child)
	e.kids = append(e.kids, child)
	child.parent = e
	return child, nil
}

func (e *Element) Insert(index int, class *docmodel.ElementClass, assignments map[string]any) (docmodel.Element, error) {
	child := newElement(e.doc, class)
	if err := applyAssignments(child, assignments); err != nil {
		return nil, err
	}
	if child.id == "" {
		child.id = e.GenerateID(class)
	}
	e.doc.register(child)
	child.parent = e
	e.kids = pythonListInsert(e.kids, index, child)
	return child, nil
}

func (e *Element) Remove(childEl docmodel.Element) error {
	c, ok := childEl.(*Element)
	if !ok {
		return fmt.Errorf("memdoc: foreign element passed to Remove")
	}
	for i, k := range e.kids {
		if k == c {
			e.kids = append(e.kids[:i], e.kids[i+1:]...)
			c.parent = nil
			return nil
		}
	}
	return fmt.Errorf("memdoc: %s is not a child of %s", c.id, e.id)
}

func (e *Element) AppendChild(childEl docmodel.Element) error {
	c, ok := childEl.(*Element)
	if !ok {
		return fmt.Errorf("memdoc: foreign element passed to AppendChild")
	}
	e.kids = append(e.kids, c)
	c.parent = e
	return nil
}

func (e *Element) Copy(doc docmodel.Document, idSuffix string) docmodel.Element {
	d, _ := doc.(*Document)
	return e.copyInto(d, idSuffix)
}

// CopyChildren clones e's children (and their subtrees), each carrying
// idSuffix, without copying or registering e itself. Used when a correction
// replaces focus with a freshly constructed element that must carry over a
// deep copy of focus's children (spec's *children_copy), since Copy alone
// would also register an orphaned clone of focus that nothing references.
func (e *Element) CopyChildren(doc docmodel.Document, idSuffix string) []docmodel.Element {
	d, _ := doc.(*Document)
	out := make([]docmodel.Element, 0, len(e.kids))
	for _, k := range e.kids {
		out = append(out, k.copyInto(d, idSuffix))
	}
	return out
}

func (e *Element) copyInto(d *Document, idSuffix string) *Element {
	clone := &Element{
		doc:   d,
		class: e.class,
		id:    e.id + idSuffix,
		set:   e.set,
		text:  e.text,
		attrs: make(map[string]string, len(e.attrs)),
	}
	for k, v := range e.attrs {
		clone.attrs[k] = v
	}
	clone.wrefs = e.wrefs // span references point at the same underlying words
	if d != nil {
		d.register(clone)
	}
	for _, k := range e.kids {
		kc := k.copyInto(d, idSuffix)
		kc.parent = clone
		clone.kids = append(clone.kids, kc)
	}
	return clone
}

func (e *Element) GenerateID(class *docmodel.ElementClass) string {
	return e.doc.generateID(e.id, class)
}

func (e *Element) SetSpan(wrefs ...docmodel.Element) error {
	refs := make([]*Element, 0, len(wrefs))
	for _, w := range wrefs {
		we, ok := w.(*Element)
		if !ok {
			return fmt.Errorf("memdoc: foreign element passed as span reference")
		}
		refs = append(refs, we)
	}
	e.wrefs = refs
	return nil
}

func (e *Element) Correct(args docmodel.CorrectArgs) (docmodel.Element, error) {
	corr, err := e.resolveCorrection(args)
	if err != nil {
		return nil, err
	}

	if n, ok := args.New.(*Element); ok && n != nil {
		wrapped := wrapChild(e.doc, newWrapperClass, n)
		corr.kids = append(corr.kids, wrapped)
		wrapped.parent = corr
	}
	if o, ok := args.Original.(*Element); ok && o != nil {
		o.inCorrection = corr
		wrapped := wrapChild(e.doc, originalWrapperClass, o)
		corr.kids = append(corr.kids, wrapped)
		wrapped.parent = corr
	}
	if c, ok := args.Current.(*Element); ok && c != nil {
		c.inCorrection = corr
		wrapped := wrapChild(e.doc, currentWrapperClass, c)
		corr.kids = append(corr.kids, wrapped)
		wrapped.parent = corr
	}
	for _, s := range args.Suggestions {
		se, ok := s.(*Element)
		if !ok || se == nil {
			continue
		}
		corr.kids = append(corr.kids, se)
		se.parent = corr
	}
	return corr, nil
}

// resolveCorrection returns the Correction node a Correct call should
// attach its new/original/current/suggestion children to: an existing one
// being reused, or a freshly built one spliced in where Original/Current
// used to sit (mirroring the source wrapping the edited element in place).
func (e *Element) resolveCorrection(args docmodel.CorrectArgs) (*Element, error) {
	if r, ok := args.Reuse.(*Element); ok && r != nil {
		return r, nil
	}

	corr := newElement(e.doc, CorrectionClass)
	corr.set = args.Set
	if err := applyAssignments(corr, args.Assignments); err != nil {
		return nil, err
	}
	corr.id = args.ID
	if corr.id == "" {
		corr.id = e.GenerateID(CorrectionClass)
	}
	e.doc.register(corr)

	var anchor *Element
	if o, ok := args.Original.(*Element); ok && o != nil {
		anchor = o
	} else if c, ok := args.Current.(*Element); ok && c != nil {
		anchor = c
	}

	if anchor != nil && anchor.parent != nil {
		idx := anchor.IndexInParent()
		anchor.parent.kids[idx] = corr
		corr.parent = anchor.parent
		anchor.parent = nil
	} else if err := e.AppendChild(corr); err != nil {
		return nil, err
	}
	return corr, nil
}

func wrapChild(d *Document, wrapper *docmodel.ElementClass, child *Element) *Element {
	w := newElement(d, wrapper)
	w.id = child.id + "." + wrapper.XMLTag
	w.kids = []*Element{child}
	child.parent = w
	return w
}

func (e *Element) XMLString(pretty bool) string {
	var b strings.Builder
	e.writeXML(&b, 0, pretty)
	return b.String()
}

func (e *Element) writeXML(b *strings.Builder, depth int, pretty bool) {
	indent := ""
	nl := ""
	if pretty {
		indent = strings.Repeat("  ", depth)
		nl = "\n"
	}
	b.WriteString(indent)
	b.WriteString("<")
	b.WriteString(e.class.XMLTag)
	if e.id != "" {
		fmt.Fprintf(b, " xml:id=%q", e.id)
	}
	if e.set != "" {
		fmt.Fprintf(b, " set=%q", e.set)
	}
	for _, k := range sortedKeys(e.attrs) {
		fmt.Fprintf(b, " %s=%q", k, e.attrs[k])
	}
	b.WriteString(">")
	b.WriteString(nl)

	if text := e.text; text != "" {
		fmt.Fprintf(b, "%s  %s%s", indent, text, nl)
	}
	for _, k := range e.kids {
		k.writeXML(b, depth+1, pretty)
	}

	b.WriteString(indent)
	fmt.Fprintf(b, "</%s>%s", e.class.XMLTag, nl)
}

func (e *Element) JSON() any {
	m := map[string]any{
		"tag": e.class.XMLTag,
	}
	if e.id != "" {
		m["id"] = e.id
	}
	if e.set != "" {
		m["set"] = e.set
	}
	for k, v := range e.attrs {
		m[k] = v
	}
	if t := e.text; t != "" {
		m["text"] = t
	}
	if len(e.wrefs) > 0 {
		refs := make([]string, len(e.wrefs))
		for i, w := range e.wrefs {
			refs[i] = w.id
		}
		m["wrefs"] = refs
	}
	if len(e.kids) > 0 {
		kids := make([]any, len(e.kids))
		for i, k := range e.kids {
			kids[i] = k.JSON()
		}
		m["children"] = kids
	}
	return m
}

func (e *Element) Children() []docmodel.Element {
	out := make([]docmodel.Element, len(e.kids))
	for i, k := range e.kids {
		out[i] = k
	}
	return out
}

func (e *Element) IndexInParent() int {
	if e.parent == nil {
		return -1
	}
	for i, k := range e.parent.kids {
		if k == e {
			return i
		}
	}
	return -1
}

// applyAssignments mirrors the EDIT path's own attribute loop (action.go):
// "text" always goes through SetText regardless of class, everything else
// (including "value") through SetAttr, except "set" and "id", which are
// assigned directly afterwards.
func applyAssignments(e *Element, assignments map[string]any) error {
	for _, k := range sortedAnyKeys(assignments) {
		v := assignments[k]
		if k == "text" {
			e.SetText(toAttrString(v))
			continue
		}
		if err := e.SetAttr(k, v); err != nil {
			return err
		}
	}
	if s, ok := assignments["set"]; ok {
		e.set = toAttrString(s)
	}
	if id, ok := assignments["id"]; ok {
		e.id = toAttrString(id)
	}
	return nil
}

func toAttrString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'g', -1, 64)
	default:
		return fmt.Sprintf("%v", t)
	}
}

func containsPtr(haystack []*Element, needle *Element) bool {
	for _, h := range haystack {
		if h == needle {
			return true
		}
	}
	return false
}

// pythonListInsert mirrors Python's list.insert(index, x): a negative index
// counts from the end and clamps at 0 rather than wrapping further, and an
// index beyond the end clamps at len. This is load-bearing for PREPEND's
// preserved `index - 1` quirk (see action.go): inserting before a parent's
// first child computes index -1, which Python's list.insert treats as
// "before the last element", not "at the front".
func pythonListInsert(kids []*Element, index int, child *Element) []*Element {
	pos := index
	if pos < 0 {
		pos = len(kids) + pos
		if pos < 0 {
			pos = 0
		}
	}
	if pos > len(kids) {
		pos = len(kids)
	}
	out := make([]*Element, 0, len(kids)+1)
	out = append(out, kids[:pos]...)
	out = append(out, child)
	out = append(out, kids[pos:]...)
	return out
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func sortedAnyKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		if k == "set" || k == "id" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
