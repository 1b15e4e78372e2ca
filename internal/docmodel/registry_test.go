package docmodel

import (
	"sync"
	"testing"
)

func TestClassRegistryRegisterAndLookup(t *testing.T) {
	r := NewClassRegistry()
	wordClass := &ElementClass{XMLTag: "w", AnnotationType: "token", IsStructural: true}

	if err := r.Register(wordClass, "word"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, ok := r.Lookup("w")
	if !ok || got != wordClass {
		t.Fatalf("expected to find w by its own tag, got %v, %v", got, ok)
	}

	got, ok = r.Lookup("word")
	if !ok || got != wordClass {
		t.Fatalf("expected to find w by alias, got %v, %v", got, ok)
	}

	if _, ok := r.Lookup("nonexistent"); ok {
		t.Fatal("expected lookup of unregistered tag to fail")
	}
}

func TestClassRegistryRegisterRejectsEmptyTag(t *testing.T) {
	r := NewClassRegistry()
	if err := r.Register(&ElementClass{}); err == nil {
		t.Fatal("expected error registering a class with no XMLTag")
	}
}

func TestClassRegistryRegisterRejectsDuplicateTag(t *testing.T) {
	r := NewClassRegistry()
	class := &ElementClass{XMLTag: "w"}
	if err := r.Register(class); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := r.Register(&ElementClass{XMLTag: "w"}); err == nil {
		t.Fatal("expected error registering a duplicate tag")
	}
}

func TestClassRegistryRegisterRejectsConflictingAlias(t *testing.T) {
	r := NewClassRegistry()
	if err := r.Register(&ElementClass{XMLTag: "w"}, "word"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := r.Register(&ElementClass{XMLTag: "s"}, "word"); err == nil {
		t.Fatal("expected error registering a conflicting alias")
	}
}

func TestClassRegistryNames(t *testing.T) {
	r := NewClassRegistry()
	_ = r.Register(&ElementClass{XMLTag: "w"})
	_ = r.Register(&ElementClass{XMLTag: "s"})

	names := r.Names()
	if len(names) != 2 {
		t.Fatalf("expected 2 names, got %d: %v", len(names), names)
	}
}

func TestClassRegistryConcurrentAccess(t *testing.T) {
	r := NewClassRegistry()
	var wg sync.WaitGroup
	for i := range 50 {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, _ = r.Lookup("w")
			if i == 0 {
				_ = r.Register(&ElementClass{XMLTag: "w"})
			}
		}(i)
	}
	wg.Wait()

	if _, ok := r.Lookup("w"); !ok {
		t.Fatal("expected w to be registered after concurrent access")
	}
}

func TestElementClassDeclarable(t *testing.T) {
	var nilClass *ElementClass
	if nilClass.Declarable() {
		t.Fatal("nil class should not be declarable")
	}

	undeclarable := &ElementClass{XMLTag: "alternative"}
	if undeclarable.Declarable() {
		t.Fatal("class with no AnnotationType should not be declarable")
	}

	declarable := &ElementClass{XMLTag: "pos", AnnotationType: "pos"}
	if !declarable.Declarable() {
		t.Fatal("class with AnnotationType should be declarable")
	}
}
