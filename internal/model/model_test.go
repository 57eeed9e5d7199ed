package model

import (
	"strings"
	"testing"
)

func TestTextRangeValid(t *testing.T) {
	cases := []struct {
		name  string
		r     TextRange
		valid bool
	}{
		{"single line, col ordered", TextRange{StartLine: 3, StartCol: 2, EndLine: 3, EndCol: 5}, true},
		{"single line, equal cols", TextRange{StartLine: 3, StartCol: 2, EndLine: 3, EndCol: 2}, true},
		{"single line, reversed cols", TextRange{StartLine: 3, StartCol: 5, EndLine: 3, EndCol: 2}, false},
		{"multi line ordered", TextRange{StartLine: 3, EndLine: 5}, true},
		{"multi line reversed", TextRange{StartLine: 5, EndLine: 3}, false},
	}
	for _, c := range cases {
		if got := c.r.Valid(); got != c.valid {
			t.Errorf("%s: Valid() = %v, want %v", c.name, got, c.valid)
		}
	}
}

func TestParseSymbolKindAliases(t *testing.T) {
	cases := map[string]SymbolKind{
		"func":      KindFunction,
		"function":  KindFunction,
		"struct":    KindClass,
		"class":     KindClass,
		"enum":      KindClass,
		"trait":     KindInterface,
		"interface": KindInterface,
		"var":       KindVariable,
		"variable":  KindVariable,
		"ns":        KindNamespace,
		"module":    KindNamespace,
		"namespace": KindNamespace,
	}
	for alias, want := range cases {
		got, ok := ParseSymbolKind(alias)
		if !ok {
			t.Errorf("ParseSymbolKind(%q): expected ok=true", alias)
			continue
		}
		if got != want {
			t.Errorf("ParseSymbolKind(%q) = %q, want %q", alias, got, want)
		}
	}
}

func TestParseSymbolKindUnknown(t *testing.T) {
	if _, ok := ParseSymbolKind("widget"); ok {
		t.Error("expected ok=false for an unrecognized kind")
	}
}

func TestFileContextNode(t *testing.T) {
	node := FileContextNode("lib.go")
	if node.Name != "lib.go" || node.Kind != nil {
		t.Errorf("FileContextNode = %+v, want Name=lib.go Kind=nil", node)
	}
}

func TestNamedContextNode(t *testing.T) {
	node := NamedContextNode("Widget", KindClass)
	if node.Name != "Widget" {
		t.Errorf("NamedContextNode.Name = %q, want Widget", node.Name)
	}
	if node.Kind == nil || *node.Kind != "class" {
		t.Errorf("NamedContextNode.Kind = %v, want class", node.Kind)
	}
}

func TestSymbolSearchSurface(t *testing.T) {
	symbol := &Symbol{
		Name:      "Parse",
		Signature: "func Parse(s string) error",
		Attributes: &SymbolAttributes{
			Comment:     "parses the input",
			Keywords:    []string{"retry", "io"},
			Description: "top-level entry point",
		},
	}

	surface := symbol.SearchSurface("return errors.New(...)")

	for _, want := range []string{"Parse", "func Parse(s string) error", "parses the input", "retry io", "top-level entry point", "return errors.New(...)"} {
		if !strings.Contains(surface, want) {
			t.Errorf("SearchSurface missing %q, got %q", want, surface)
		}
	}
}

func TestSymbolSearchSurfaceOmitsEmptyParts(t *testing.T) {
	symbol := &Symbol{Name: "Run"}
	surface := symbol.SearchSurface("")
	if surface != "Run" {
		t.Errorf("SearchSurface = %q, want %q", surface, "Run")
	}
}

func TestNewSearchResultHasNonNilSlices(t *testing.T) {
	result := NewSearchResult("name:Parse")
	if result.Version != SearchResultVersion {
		t.Errorf("Version = %q, want %q", result.Version, SearchResultVersion)
	}
	if result.Matches == nil || result.Symbols == nil || result.Contexts == nil {
		t.Error("NewSearchResult must return non-nil slices so they marshal as [] not null")
	}
}

func TestSymbolRecordIdentity(t *testing.T) {
	record := SymbolRecord{
		Name: "Parse", Kind: KindFunction, Signature: "func Parse(s string) error",
		Range: TextRange{StartLine: 10, EndLine: 20},
	}
	want := IdentityKey{Kind: KindFunction, Name: "Parse", StartLine: 10, EndLine: 20, Signature: "func Parse(s string) error"}
	if got := record.Identity(); got != want {
		t.Errorf("Identity() = %+v, want %+v", got, want)
	}
}

func TestSymbolRecordIdentityDistinguishesOverloadsByRange(t *testing.T) {
	a := SymbolRecord{Name: "Parse", Kind: KindFunction, Range: TextRange{StartLine: 10, EndLine: 20}}
	b := SymbolRecord{Name: "Parse", Kind: KindFunction, Range: TextRange{StartLine: 30, EndLine: 40}}
	if a.Identity() == b.Identity() {
		t.Error("two distinct definitions with the same name must not collide on identity")
	}
}

