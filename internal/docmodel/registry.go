package docmodel

import (
	"fmt"
	"sync"
)

// ClassRegistry maps FQL element-class names (the FoLiA XML tag, e.g. "w",
// "pos", "entity") to their ElementClass descriptor. It is the FoLiA
// analogue of morfx's language registry: thread-safe, name/alias lookup,
// closed over registration rather than type switches.
type ClassRegistry struct {
	mu      sync.RWMutex
	classes map[string]*ElementClass
	aliases map[string]string
}

// NewClassRegistry returns an empty registry. Callers register every class
// the document model supports before parsing any query against it.
func NewClassRegistry() *ClassRegistry {
	return &ClassRegistry{
		classes: make(map[string]*ElementClass),
		aliases: make(map[string]string),
	}
}

// Register adds a class under its XMLTag, plus any additional aliases
// (FQL allows no real aliasing today, but the hook mirrors the pack's
// registries and leaves room for synonyms like "word" for "w").
func (r *ClassRegistry) Register(class *ElementClass, aliases ...string) error {
	if class == nil || class.XMLTag == "" {
		return fmt.Errorf("docmodel: class must have a non-empty XMLTag")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.classes[class.XMLTag]; exists {
		return fmt.Errorf("docmodel: class %q already registered", class.XMLTag)
	}
	r.classes[class.XMLTag] = class

	for _, alias := range aliases {
		if alias == "" {
			continue
		}
		if existing, exists := r.aliases[alias]; exists {
			return fmt.Errorf("docmodel: alias %q conflicts with existing mapping to %q", alias, existing)
		}
		r.aliases[alias] = class.XMLTag
	}
	return nil
}

// Lookup resolves a bare token from a query (e.g. "pos") to its
// ElementClass. This is the FQL parser's XML2CLASS[...] lookup (§4.2);
// a miss is reported to the caller as a SyntaxError with position info.
func (r *ClassRegistry) Lookup(name string) (*ElementClass, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if c, ok := r.classes[name]; ok {
		return c, true
	}
	if canonical, ok := r.aliases[name]; ok {
		c, ok := r.classes[canonical]
		return c, ok
	}
	return nil, false
}

// Names lists every registered class tag, for diagnostics and CLI help.
func (r *ClassRegistry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.classes))
	for name := range r.classes {
		names = append(names, name)
	}
	return names
}
