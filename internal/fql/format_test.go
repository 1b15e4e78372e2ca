package fql

import (
	"testing"

	"github.com/foliaquery/fql/internal/docmodel"
	"github.com/foliaquery/fql/internal/docmodel/memdoc"
)

func TestRenderResultPythonReturnsElements(t *testing.T) {
	doc := memdoc.BuildSample()
	var selection []docmodel.Element
	for _, el := range doc.Data() {
		selection = append(selection, el)
	}
	result, err := renderResult("python", selection)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	els, ok := result.([]docmodel.Element)
	if !ok || len(els) != len(selection) {
		t.Fatalf("expected the selection back unchanged, got %v", result)
	}
}

func TestRenderResultXMLEmptySelection(t *testing.T) {
	result, err := renderResult("xml", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != "<results></results>" {
		t.Errorf("expected an empty results envelope, got %q", result)
	}
}

func TestRenderResultJSONEmptySelection(t *testing.T) {
	result, err := renderResult("json", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != "[]" {
		t.Errorf("expected an empty JSON array, got %q", result)
	}
}

func TestRenderResultSingleXMLRejectsMultiple(t *testing.T) {
	doc := memdoc.BuildSample()
	root := doc.Data()[0]
	_, err := renderResult("single-xml", []docmodel.Element{root, root})
	if err == nil {
		t.Fatal("expected an error for single-xml with multiple results")
	}
}

func TestRenderResultSingleJSONEmptyIsNull(t *testing.T) {
	result, err := renderResult("single-json", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != "null" {
		t.Errorf("expected the JSON null literal, got %q", result)
	}
}

func TestRenderResultSinglePythonEmptyIsNil(t *testing.T) {
	result, err := renderResult("single-python", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != nil {
		t.Errorf("expected nil, got %v", result)
	}
}

func TestRenderResultInvalidFormat(t *testing.T) {
	if _, err := renderResult("bogus", nil); err == nil {
		t.Fatal("expected an error for an unrecognized format")
	}
}

func TestRenderResultSingleXMLOne(t *testing.T) {
	doc := memdoc.BuildSample()
	selection := doc.Data()[:1]
	result, err := renderResult("single-xml", selection)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	s, ok := result.(string)
	if !ok || s == "" {
		t.Fatalf("expected non-empty XML, got %v", result)
	}
}
