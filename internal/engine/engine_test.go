package engine

import (
	"os"
	"path/filepath"
	"testing"

	"symgrep/internal/language"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestRunSearchFindsSimpleMatches(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.txt", "hello world\nfoo bar\nhello again\n")

	result, err := RunSearch(language.NewRegistry(), Config{
		Pattern: "hello", Paths: []string{dir}, Mode: ModeText,
	})
	if err != nil {
		t.Fatalf("RunSearch: %v", err)
	}
	if len(result.Matches) != 2 {
		t.Fatalf("Matches = %+v, want 2", result.Matches)
	}
	if result.Summary.TotalMatches != 2 || result.Summary.Truncated {
		t.Errorf("Summary = %+v", result.Summary)
	}
}

func TestRunSearchReportsRootRelativePath(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.txt", "foo\n")

	cwd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Getwd: %v", err)
	}
	defer os.Chdir(cwd)
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Chdir: %v", err)
	}

	result, err := RunSearch(language.NewRegistry(), Config{
		Pattern: "foo", Paths: []string{"."}, Mode: ModeText,
	})
	if err != nil {
		t.Fatalf("RunSearch: %v", err)
	}
	if len(result.Matches) != 1 || result.Matches[0].Path != "a.txt" {
		t.Fatalf("Matches = %+v, want path %q relative to the search root, not absolutized", result.Matches, "a.txt")
	}
}

func TestRunSearchHonorsLimitAndTruncatedFlag(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.txt", "match\nmatch\nmatch\nmatch\n")

	result, err := RunSearch(language.NewRegistry(), Config{
		Pattern: "match", Paths: []string{dir}, Mode: ModeText, Limit: 2,
	})
	if err != nil {
		t.Fatalf("RunSearch: %v", err)
	}
	if len(result.Matches) != 2 {
		t.Fatalf("Matches = %+v, want 2", result.Matches)
	}
	if !result.Summary.Truncated {
		t.Error("expected Truncated = true")
	}
}

func TestRunSearchOmitsSnippetWhenMaxLinesIsZero(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.txt", "needle here\n")
	zero := 0

	result, err := RunSearch(language.NewRegistry(), Config{
		Pattern: "needle", Paths: []string{dir}, Mode: ModeText, MaxLines: &zero,
	})
	if err != nil {
		t.Fatalf("RunSearch: %v", err)
	}
	if len(result.Matches) != 1 {
		t.Fatalf("Matches = %+v", result.Matches)
	}
	if result.Matches[0].Snippet != nil {
		t.Errorf("expected nil snippet, got %v", *result.Matches[0].Snippet)
	}
}

func TestRunSearchRespectsGlobInclusionAndExclusion(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "keep.md", "marker line\n")
	writeFile(t, dir, "skip.log", "marker line\n")

	result, err := RunSearch(language.NewRegistry(), Config{
		Pattern: "marker", Paths: []string{dir}, Mode: ModeText,
		Includes: []string{"*.md", "*.log"}, Excludes: []string{"*.log"},
	})
	if err != nil {
		t.Fatalf("RunSearch: %v", err)
	}
	if len(result.Matches) != 1 || filepath.Base(result.Matches[0].Path) != "keep.md" {
		t.Fatalf("Matches = %+v", result.Matches)
	}
}

func TestRunSearchSupportsMultiplePaths(t *testing.T) {
	dirA := t.TempDir()
	dirB := t.TempDir()
	writeFile(t, dirA, "a.txt", "shared term\n")
	writeFile(t, dirB, "b.txt", "shared term\n")

	result, err := RunSearch(language.NewRegistry(), Config{
		Pattern: "shared", Paths: []string{dirA, dirB}, Mode: ModeText,
	})
	if err != nil {
		t.Fatalf("RunSearch: %v", err)
	}
	if len(result.Matches) != 2 {
		t.Fatalf("Matches = %+v, want 2", result.Matches)
	}
}

func TestFindLiteralIdentifierRespectsWordBoundaries(t *testing.T) {
	if idx := findLiteralIdentifier("foo.bar(x)", "bar"); idx != 4 {
		t.Errorf("findLiteralIdentifier = %d, want 4", idx)
	}
	if idx := findLiteralIdentifier("barbaric", "bar"); idx != -1 {
		t.Errorf("findLiteralIdentifier = %d, want -1 (not a whole identifier)", idx)
	}
	if idx := findLiteralIdentifier("foobar", "bar"); idx != -1 {
		t.Errorf("findLiteralIdentifier = %d, want -1", idx)
	}
}

func TestRunSearchErrorsOnNonexistentPath(t *testing.T) {
	_, err := RunSearch(language.NewRegistry(), Config{
		Pattern: "anything", Paths: []string{"/no/such/path/at/all"}, Mode: ModeText,
	})
	if err == nil {
		t.Fatal("expected an error for a nonexistent search path")
	}
}

func TestSymbolModeSearchesByName(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "lib.go", "package lib\n\nfunc Add(a, b int) int {\n\treturn a + b\n}\n")

	result, err := RunSearch(language.NewRegistry(), Config{
		Pattern: "name:Add", Paths: []string{dir}, Mode: ModeSymbol, Language: "go",
	})
	if err != nil {
		t.Fatalf("RunSearch: %v", err)
	}
	if len(result.Symbols) != 1 || result.Symbols[0].Name != "Add" {
		t.Fatalf("Symbols = %+v", result.Symbols)
	}
}

func TestAutoModeUsesSymbolSearchForSupportedLanguage(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "lib.go", "package lib\n\nfunc Helper() {}\n")

	result, err := RunSearch(language.NewRegistry(), Config{
		Pattern: "name:Helper", Paths: []string{dir}, Mode: ModeAuto, Language: "go",
	})
	if err != nil {
		t.Fatalf("RunSearch: %v", err)
	}
	if len(result.Symbols) != 1 || result.Symbols[0].Name != "Helper" {
		t.Fatalf("Symbols = %+v", result.Symbols)
	}
}

func TestAutoModeDispatchesToSymbolFromQueryFieldsAlone(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "lib.go", "package lib\n\nfunc add(a, b int) int {\n\treturn a + b\n}\n")

	result, err := RunSearch(language.NewRegistry(), Config{
		Pattern: "name:add kind:function", Paths: []string{dir}, Mode: ModeAuto,
	})
	if err != nil {
		t.Fatalf("RunSearch: %v", err)
	}
	if len(result.Symbols) != 1 || result.Symbols[0].Name != "add" {
		t.Fatalf("a symbol-oriented query with no --language must still dispatch to symbol mode, got Symbols = %+v", result.Symbols)
	}
}

func TestCallTermsForceLiveParseEvenWithIndex(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "lib.go", "package lib\n\nfunc add(a, b int) int {\n\treturn helper(a) + b\n}\n\nfunc helper(x int) int {\n\treturn x\n}\n")

	// No index was ever built at dir/.symgrep. A calls: term sends an
	// index-backed search straight to the live-parse path; this asserts
	// the calls: query surfaces the real call edge found by that parse.
	result, err := RunSearch(language.NewRegistry(), Config{
		Pattern: "calls:helper", Paths: []string{dir}, Mode: ModeSymbol, Language: "go",
		Index: &IndexOptions{IndexPath: filepath.Join(dir, ".symgrep")},
	})
	if err != nil {
		t.Fatalf("RunSearch: %v", err)
	}
	if len(result.Symbols) != 1 || result.Symbols[0].Name != "add" {
		t.Fatalf("Symbols = %+v, want a single match on add via the forced live-parse path", result.Symbols)
	}
}

func TestSymbolModeWithContextRequestMaterializesSnippet(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "lib.go", "package lib\n\nfunc Greet() string {\n\treturn \"hi\"\n}\n")

	result, err := RunSearch(language.NewRegistry(), Config{
		Pattern: "name:Greet", Paths: []string{dir}, Mode: ModeSymbol, Language: "go",
		Context: ContextDef,
	})
	if err != nil {
		t.Fatalf("RunSearch: %v", err)
	}
	if len(result.Contexts) != 1 {
		t.Fatalf("Contexts = %+v, want 1", result.Contexts)
	}
	if result.Contexts[0].SymbolIndex == nil || *result.Contexts[0].SymbolIndex != 0 {
		t.Errorf("Contexts[0].SymbolIndex = %v, want pointer to 0", result.Contexts[0].SymbolIndex)
	}
}

func TestContextRequestComposesCommentAndDef(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "lib.go", "package lib\n\n// Greet says hello.\nfunc Greet() string {\n\treturn \"hi\"\n}\n")

	result, err := RunSearch(language.NewRegistry(), Config{
		Pattern: "name:Greet", Paths: []string{dir}, Mode: ModeSymbol, Language: "go",
		Context: ContextRequest{ViewComment, ViewDef},
	})
	if err != nil {
		t.Fatalf("RunSearch: %v", err)
	}
	if len(result.Contexts) != 2 {
		t.Fatalf("Contexts = %+v, want 2 (one per requested view)", result.Contexts)
	}
	kinds := map[string]bool{}
	for _, c := range result.Contexts {
		kinds[string(c.Kind)] = true
	}
	if !kinds["def"] || !kinds["comment"] {
		t.Fatalf("Contexts kinds = %+v, want def and comment", kinds)
	}
	if result.Symbols[0].DefLineCount == nil {
		t.Error("def_line_count should be set when a def context is materialized")
	}
}

func TestContextRequestMatchesPopulatesSymbolMatches(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "lib.go", "package lib\n\nfunc Greet() string {\n\tmsg := \"hi\"\n\treturn msg\n}\n")

	result, err := RunSearch(language.NewRegistry(), Config{
		Pattern: "name:Greet content:msg", Paths: []string{dir}, Mode: ModeSymbol, Language: "go",
		Context: ContextRequest{ViewMatches},
	})
	if err != nil {
		t.Fatalf("RunSearch: %v", err)
	}
	if len(result.Symbols) != 1 {
		t.Fatalf("Symbols = %+v, want 1", result.Symbols)
	}
	if len(result.Symbols[0].Matches) == 0 {
		t.Error("expected symbol.matches to list the lines hitting content:msg")
	}
	// matches alone, with no region view explicitly requested, must not
	// surface a def context in the result.
	if len(result.Contexts) != 0 {
		t.Errorf("Contexts = %+v, want none (def was fetched implicitly, not reported)", result.Contexts)
	}
}
