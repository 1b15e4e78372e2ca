package fql

import "testing"

func TestTokenizeBarewords(t *testing.T) {
	ts, err := tokenize("SELECT w WHERE text = \"fox\"")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"SELECT", "w", "WHERE", "text", "=", "fox"}
	if ts.Len() != len(want) {
		t.Fatalf("expected %d tokens, got %d (%s)", len(want), ts.Len(), ts.String())
	}
	for i, w := range want {
		if got := ts.word(i); got != w {
			t.Errorf("token %d: got %q, want %q", i, got, w)
		}
	}
	if ts.at(5).Kind != StringLiteral {
		t.Errorf("expected token 5 to be a string literal, got kind %v", ts.at(5).Kind)
	}
}

func TestTokenizeGroupsNest(t *testing.T) {
	ts, err := tokenize("SELECT w WHERE (pos = \"n\" OR pos = \"v\")")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ts.isGroup(3) {
		t.Fatalf("expected token 3 to be a group, got %s", ts.at(3).String())
	}
	sub := ts.at(3).Sub
	if sub.Len() != 7 {
		t.Fatalf("expected 7 tokens inside the group, got %d (%s)", sub.Len(), sub.String())
	}
}

func TestTokenizeUnmatchedParenIsSyntaxError(t *testing.T) {
	_, err := tokenize("SELECT w WHERE (pos = \"n\"")
	if err == nil {
		t.Fatal("expected a syntax error for an unmatched parenthesis")
	}
	se, ok := err.(*SyntaxError)
	if !ok {
		t.Fatalf("expected *SyntaxError, got %T", err)
	}
	if se.Code() != ErrSyntax {
		t.Errorf("expected ErrSyntax, got %s", se.Code())
	}
}

func TestTokenizeUnterminatedStringIsSyntaxError(t *testing.T) {
	_, err := tokenize("SELECT w WHERE text = \"fox")
	if err == nil {
		t.Fatal("expected a syntax error for an unterminated string literal")
	}
}

func TestTokenStreamAtIsBoundsSafe(t *testing.T) {
	ts, err := tokenize("SELECT w")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := ts.word(100); got != "" {
		t.Errorf("expected out-of-range access to return an empty string, got %q", got)
	}
	if ts.kw(100, "SELECT") {
		t.Error("expected out-of-range kw check to be false")
	}
}

func TestRewriteShorthand(t *testing.T) {
	ts, err := tokenize(`SELECT s WHERE :pos = "n"`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// `:pos = "n"` consumes the op/value pair and rewrites into one HAS group.
	if ts.Len() != 4 {
		t.Fatalf("expected 4 top-level tokens after shorthand rewrite, got %d (%s)", ts.Len(), ts.String())
	}
	if !ts.isGroup(3) {
		t.Fatalf("expected the shorthand to rewrite into a group, got %s", ts.at(3).String())
	}
	sub := ts.at(3).Sub
	if sub.word(0) != "pos" || !sub.kw(1, "HAS") {
		t.Errorf("expected the rewritten group to start with 'pos HAS', got %s", sub.String())
	}
}
