package cliformat

import (
	"strings"
	"testing"

	"symgrep/internal/model"
)

func TestRenderSearchResultJSON(t *testing.T) {
	result := model.NewSearchResult("name:Foo")
	result.Symbols = append(result.Symbols, model.Symbol{
		Name: "Foo", Kind: model.KindFunction, Language: "go", File: "lib.go",
		Range: model.TextRange{StartLine: 1, EndLine: 3},
	})

	out, err := RenderSearchResult(result, FormatJSON)
	if err != nil {
		t.Fatalf("RenderSearchResult: %v", err)
	}
	if !strings.Contains(out, `"name": "Foo"`) {
		t.Errorf("JSON output missing symbol name: %s", out)
	}
	if !strings.Contains(out, `"version": "`+model.SearchResultVersion+`"`) {
		t.Errorf("JSON output missing version: %s", out)
	}
}

func TestRenderSearchResultHumanListsMatchesAndSymbols(t *testing.T) {
	snippet := "	return 1\n"
	result := &model.SearchResult{
		Query: "needle",
		Matches: []model.SearchMatch{
			{Path: "a.go", Line: 5, Column: 2, Snippet: &snippet},
		},
		Symbols: []model.Symbol{
			{Name: "Foo", Kind: model.KindFunction, Language: "go", File: "lib.go",
				Range: model.TextRange{StartLine: 1, EndLine: 3}, Signature: "func Foo()"},
		},
		Summary: model.SearchSummary{TotalMatches: 1},
	}

	out, err := RenderSearchResult(result, FormatHuman)
	if err != nil {
		t.Fatalf("RenderSearchResult: %v", err)
	}
	if !strings.Contains(out, "a.go:5:2") {
		t.Errorf("human output missing match location: %s", out)
	}
	if !strings.Contains(out, "Foo (function, go)") {
		t.Errorf("human output missing symbol summary: %s", out)
	}
	if !strings.Contains(out, "func Foo()") {
		t.Errorf("human output missing signature: %s", out)
	}
}

func TestRenderSearchResultHumanMarksTruncation(t *testing.T) {
	result := &model.SearchResult{
		Query:   "x",
		Summary: model.SearchSummary{TotalMatches: 5, Truncated: true},
	}

	out, err := RenderSearchResult(result, FormatHuman)
	if err != nil {
		t.Fatalf("RenderSearchResult: %v", err)
	}
	if !strings.Contains(out, "(truncated)") {
		t.Errorf("expected truncation marker in output: %s", out)
	}
}

func TestRenderFollowResultHuman(t *testing.T) {
	kind := "function"
	result := &model.FollowResult{
		Version:   model.FollowResultVersion,
		Direction: model.DirectionCallees,
		Query:     "name:foo",
		Targets: []model.FollowTarget{
			{
				Symbol: model.Symbol{Name: "foo", Kind: model.KindFunction, File: "lib.go", Range: model.TextRange{StartLine: 1}},
				Callees: []model.FollowEdge{
					{Symbol: model.FollowSymbolRef{Name: "bar", Kind: &kind, File: "lib.go"},
						CallSites: []model.CallSite{{File: "lib.go", Line: 4}}},
				},
			},
		},
	}

	out, err := RenderFollowResult(result, -1, FormatHuman)
	if err != nil {
		t.Fatalf("RenderFollowResult: %v", err)
	}
	if !strings.Contains(out, "foo (function)") {
		t.Errorf("missing target header: %s", out)
	}
	if !strings.Contains(out, "bar (function)") {
		t.Errorf("missing callee edge: %s", out)
	}
}

func TestRenderIndexSummaryJSON(t *testing.T) {
	summary := model.IndexSummary{
		Backend: model.IndexBackendFile, IndexPath: ".symgrep",
		FilesIndexed: 3, SymbolsIndexed: 9,
	}

	out, err := RenderIndexSummary(summary, FormatJSON)
	if err != nil {
		t.Fatalf("RenderIndexSummary: %v", err)
	}
	if !strings.Contains(out, `"files_indexed": 3`) {
		t.Errorf("missing files_indexed: %s", out)
	}
}

func TestRenderIndexSummaryHuman(t *testing.T) {
	summary := model.IndexSummary{
		Backend: model.IndexBackendSQLite, IndexPath: "idx.db",
		FilesIndexed: 2, SymbolsIndexed: 4,
	}

	out, err := RenderIndexSummary(summary, FormatHuman)
	if err != nil {
		t.Fatalf("RenderIndexSummary: %v", err)
	}
	if !strings.Contains(out, "Backend: sqlite") {
		t.Errorf("missing backend line: %s", out)
	}
	if !strings.Contains(out, "Files indexed: 2") {
		t.Errorf("missing files indexed line: %s", out)
	}
}
