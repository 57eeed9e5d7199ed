package sqlitebackend

import (
	"path/filepath"
	"testing"

	"symgrep/internal/index"
	"symgrep/internal/model"
)

func TestSQLiteBackendPersistsFilesAndSymbols(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, ".symgrep", "index.sqlite")

	backend, err := Open(dbPath)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer backend.Close()

	file, err := backend.UpsertFile("src/lib.go", "go", "abc123", 1700000000, 42)
	if err != nil {
		t.Fatalf("UpsertFile: %v", err)
	}
	if file.ID == 0 {
		t.Error("expected a non-zero file id")
	}

	fetched, ok, err := backend.GetFileByPath("src/lib.go")
	if err != nil || !ok || fetched.Hash != "abc123" {
		t.Fatalf("GetFileByPath = %+v, %v, %v", fetched, ok, err)
	}

	symbols := []model.SymbolRecord{{
		FileID:    file.ID,
		Name:      "Add",
		Kind:      model.KindFunction,
		Language:  "go",
		Range:     model.TextRange{StartLine: 1, StartCol: 1, EndLine: 1, EndCol: 10},
		Signature: "Add(a, b int) int",
		Extra:     &model.SymbolAttributes{Comment: "adds two numbers"},
	}}
	if err := backend.SetFileSymbols(file.ID, symbols); err != nil {
		t.Fatalf("SetFileSymbols: %v", err)
	}

	results, err := backend.QuerySymbols(index.SymbolQuery{NameSubstring: "Add", Language: "go"})
	if err != nil {
		t.Fatalf("QuerySymbols: %v", err)
	}
	if len(results) != 1 || results[0].Extra == nil || results[0].Extra.Comment != "adds two numbers" {
		t.Fatalf("QuerySymbols = %+v", results)
	}

	if err := backend.RemoveFileByPath("src/lib.go"); err != nil {
		t.Fatalf("RemoveFileByPath: %v", err)
	}
	resultsAfter, _ := backend.QuerySymbols(index.SymbolQuery{})
	if len(resultsAfter) != 0 {
		t.Errorf("expected cascading symbol delete, got %+v", resultsAfter)
	}
}

func TestSQLiteBackendMetaRoundTrips(t *testing.T) {
	dir := t.TempDir()
	backend, err := Open(filepath.Join(dir, "index.sqlite"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer backend.Close()

	meta := model.IndexMeta{SchemaVersion: model.IndexSchemaVersion, ToolVersion: "0.1.0", RootPath: "/repo", CreatedAt: 100, UpdatedAt: 200}
	if err := backend.SaveMeta(meta); err != nil {
		t.Fatalf("SaveMeta: %v", err)
	}

	loaded, err := backend.LoadMeta()
	if err != nil {
		t.Fatalf("LoadMeta: %v", err)
	}
	if loaded != meta {
		t.Errorf("LoadMeta = %+v, want %+v", loaded, meta)
	}
}
