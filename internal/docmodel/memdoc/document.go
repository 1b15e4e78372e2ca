package memdoc

import (
	"fmt"
	"iter"
	"sync"

	"github.com/foliaquery/fql/internal/docmodel"
)

// Document is the in-memory reference docmodel.Document: declaration
// bookkeeping, id lookup and the top-level structural sequence, guarded by
// a single RWMutex the way internal/registry.Registry guards its maps.
type Document struct {
	id       string
	registry *docmodel.ClassRegistry

	mu         sync.RWMutex
	byID       map[string]*Element
	declared   map[string]map[string]map[string]any // tag -> set -> defaults
	defaultSet map[string]string                     // tag -> first declared set
	idSeq      int

	data []*Element
}

// New returns an empty Document with no top-level elements, using registry
// for class lookups (ParseQuery and this Document must share one).
func New(id string, registry *docmodel.ClassRegistry) *Document {
	return &Document{
		id:         id,
		registry:   registry,
		byID:       make(map[string]*Element),
		declared:   make(map[string]map[string]map[string]any),
		defaultSet: make(map[string]string),
	}
}

func (d *Document) ID() string { return d.id }

func (d *Document) Declare(class *docmodel.ElementClass, set string, defaults map[string]any) error {
	if !class.Declarable() {
		return fmt.Errorf("memdoc: %s cannot be declared", class.XMLTag)
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	sets, ok := d.declared[class.XMLTag]
	if !ok {
		sets = make(map[string]map[string]any)
		d.declared[class.XMLTag] = sets
	}
	if _, already := sets[set]; !already {
		if defaults == nil {
			defaults = map[string]any{}
		}
		sets[set] = defaults
		if _, hasDefault := d.defaultSet[class.XMLTag]; !hasDefault {
			d.defaultSet[class.XMLTag] = set
		}
	}
	return nil
}

func (d *Document) Declared(class *docmodel.ElementClass, set string) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	sets, ok := d.declared[class.XMLTag]
	if !ok {
		return false
	}
	_, ok = sets[set]
	return ok
}

func (d *Document) DefaultSet(class *docmodel.ElementClass) string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.defaultSet[class.XMLTag]
}

func (d *Document) ByID(id string) (docmodel.Element, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	el, ok := d.byID[id]
	if !ok {
		return nil, false
	}
	return el, true
}

func (d *Document) Data() []docmodel.Element {
	out := make([]docmodel.Element, len(d.data))
	for i, el := range d.data {
		out[i] = el
	}
	return out
}

func (d *Document) Classes() *docmodel.ClassRegistry { return d.registry }

func (d *Document) NewAlternative(child docmodel.Element, assignments map[string]any) docmodel.Element {
	return d.wrapAs(AlternativeClass, child, assignments)
}

func (d *Document) NewSuggestion(child docmodel.Element, assignments map[string]any) docmodel.Element {
	return d.wrapAs(SuggestionClass, child, assignments)
}

func (d *Document) wrapAs(class *docmodel.ElementClass, child docmodel.Element, assignments map[string]any) docmodel.Element {
	c, _ := child.(*Element)
	w := newElement(d, class)
	_ = applyAssignments(w, assignments)
	if w.id == "" {
		w.id = d.generateID(d.id, class)
	}
	d.register(w)
	if c != nil {
		w.kids = []*Element{c}
		c.parent = w
	}
	return w
}

func (d *Document) New(class *docmodel.ElementClass, assignments map[string]any, children ...docmodel.Element) docmodel.Element {
	el := newElement(d, class)
	_ = applyAssignments(el, assignments)
	if el.id == "" {
		el.id = d.generateID(d.id, class)
	}
	d.register(el)
	for _, childEl := range children {
		c, ok := childEl.(*Element)
		if !ok {
			continue
		}
		el.kids = append(el.kids, c)
		c.parent = el
	}
	return el
}

// AddRoot appends a top-level element (typically a paragraph or division)
// to the Document, for building fixtures. Not part of docmodel.Document:
// callers construct a Document's structure through this method, then query
// it through the interface.
func (d *Document) AddRoot(class *docmodel.ElementClass, assignments map[string]any) *Element {
	el := newElement(d, class)
	_ = applyAssignments(el, assignments)
	if el.id == "" {
		el.id = d.generateID(d.id, class)
	}
	d.register(el)
	d.data = append(d.data, el)
	return el
}

func (d *Document) register(el *Element) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if el.id != "" {
		d.byID[el.id] = el
	}
}

func (d *Document) generateID(base string, class *docmodel.ElementClass) string {
	d.mu.Lock()
	defer d.mu.Unlock()
	for {
		d.idSeq++
		candidate := fmt.Sprintf("%s.%s.%d", base, class.XMLTag, d.idSeq)
		if _, exists := d.byID[candidate]; !exists {
			return candidate
		}
	}
}

// walkAll yields every element in the Document in Document order, for
// FindSpans' whole-Document span search.
func (d *Document) walkAll() iter.Seq[*Element] {
	return func(yield func(*Element) bool) {
		var walk func(node *Element) bool
		walk = func(node *Element) bool {
			for _, c := range node.kids {
				if !yield(c) {
					return false
				}
				if !walk(c) {
					return false
				}
			}
			return true
		}
		for _, root := range d.data {
			if !yield(root) {
				return
			}
			if !walk(root) {
				return
			}
		}
	}
}
