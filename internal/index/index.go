// Package index defines the pluggable on-disk index contract (spec §4.5)
// shared by the file-layout and SQLite-layout backends, plus the
// reindex-orchestration logic (change detection, attribute merge on
// reindex, stale-file removal) that drives both.
package index

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"symgrep/internal/errors"
	"symgrep/internal/language"
	"symgrep/internal/model"
	"symgrep/internal/paths"
	"symgrep/internal/walk"
)

// SymbolQuery filters a Backend's QuerySymbols call. A zero value matches
// every indexed symbol.
type SymbolQuery struct {
	NameSubstring string
	Language      string
	Paths         []string
	Includes      []string
	Excludes      []string
}

// Selector identifies exactly one symbol record for UpdateSymbolAttributes.
type Selector struct {
	File      string
	Language  string
	Kind      model.SymbolKind
	Name      string
	StartLine int
	EndLine   int
}

// AttributesUpdate is the caller-supplied patch applied by
// UpdateSymbolAttributes: keywords and description are replaced
// wholesale, never merged field-by-field.
type AttributesUpdate struct {
	Keywords    []string
	Description string
}

// Backend is the logical contract every on-disk index layout
// implements: open/initialize, metadata load/save, per-file upsert and
// lookup, bulk symbol replace, filtered query, and the single-symbol
// attribute update used by the update-attrs operation.
type Backend interface {
	Kind() model.IndexBackendKind
	IndexPath() string

	LoadMeta() (model.IndexMeta, error)
	SaveMeta(meta model.IndexMeta) error

	ListFiles() ([]model.FileRecord, error)
	GetFileByPath(path string) (*model.FileRecord, bool, error)
	UpsertFile(path, language, hash string, mtime int64, size uint64) (model.FileRecord, error)
	RemoveFileByPath(path string) error

	SetFileSymbols(fileID uint64, symbols []model.SymbolRecord) error
	QuerySymbols(q SymbolQuery) ([]model.SymbolRecord, error)

	Close() error
}

// Config selects and parameterizes a backend for Open/BuildIndex.
type Config struct {
	Backend     model.IndexBackendKind
	IndexPath   string
	Roots       []string
	Includes    []string
	Excludes    []string
	Language    string
	ToolVersion string
}

// nowFunc is overridden in tests; production code always uses wall time.
var nowFunc = func() time.Time { return time.Now() }

// LockDirFor returns the directory BuildIndex/UpdateSymbolAttributes
// should hold an exclusive Lock in while writing cfg's index: the file
// backend's IndexPath is itself that directory, while the SQLite
// backend's IndexPath names a single database file inside it.
func LockDirFor(cfg Config) string {
	if cfg.Backend == model.IndexBackendSQLite {
		return filepath.Dir(cfg.IndexPath)
	}
	return cfg.IndexPath
}

// BuildIndex walks cfg.Roots, parses every resolvable file, and upserts
// files/symbols into backend, preserving externally-owned attributes
// (keywords, description) across reindex runs by identity-key match and
// removing entries for files no longer present on disk.
func BuildIndex(backend Backend, registry *language.Registry, cfg Config) (model.IndexSummary, error) {
	if len(cfg.Roots) == 0 {
		return model.IndexSummary{}, errors.NewInvalidConfig("at least one index root is required")
	}
	for _, root := range cfg.Roots {
		if _, err := os.Stat(root); err != nil {
			return model.IndexSummary{}, errors.NewIoError("index root does not exist: "+root, err)
		}
	}

	canonicalRoot, err := filepath.Abs(cfg.Roots[0])
	if err != nil {
		canonicalRoot = cfg.Roots[0]
	}

	meta, err := backend.LoadMeta()
	if err != nil {
		return model.IndexSummary{}, errors.Wrap(err)
	}
	now := nowFunc().Unix()
	if meta.SchemaVersion == "" || meta.CreatedAt == 0 {
		meta = model.IndexMeta{
			SchemaVersion: model.IndexSchemaVersion,
			ToolVersion:   cfg.ToolVersion,
			BuildID:       uuid.NewString(),
			CreatedAt:     now,
			UpdatedAt:     now,
		}
	}
	if meta.RootPath == "" {
		meta.RootPath = canonicalRoot
	} else if storedRoot, absErr := filepath.Abs(meta.RootPath); absErr == nil && storedRoot != canonicalRoot {
		return model.IndexSummary{}, errors.NewInvalidConfig(
			"index root_path mismatch: index was created with root " + storedRoot + ", but " + canonicalRoot + " was requested")
	}
	if meta.SchemaVersion != model.IndexSchemaVersion {
		return model.IndexSummary{}, errors.NewVersionMismatch(meta.SchemaVersion, model.IndexSchemaVersion)
	}

	existingFiles, err := backend.ListFiles()
	if err != nil {
		return model.IndexSummary{}, errors.Wrap(err)
	}
	existingByPath := make(map[string]model.FileRecord, len(existingFiles))
	for _, f := range existingFiles {
		existingByPath[f.Path] = f
	}
	seen := make(map[string]bool)

	files, err := walk.Walk(registry, walk.Options{
		Roots:    cfg.Roots,
		Includes: cfg.Includes,
		Excludes: cfg.Excludes,
		Language: cfg.Language,
	})
	if err != nil {
		return model.IndexSummary{}, err
	}

	var filesIndexed, symbolsIndexed int
	for _, wf := range files {
		info, statErr := os.Stat(wf.Path)
		if statErr != nil {
			continue
		}
		mtime := info.ModTime().Unix()
		size := uint64(info.Size())

		seen[wf.Path] = true

		existing, hasExisting := existingByPath[wf.Path]
		needsReindex := !hasExisting || existing.Mtime != mtime || existing.Size != size
		if !needsReindex {
			continue
		}

		source, readErr := os.ReadFile(wf.Path)
		if readErr != nil {
			continue
		}

		backendImpl, ok := registry.ByID(wf.LanguageID)
		if !ok {
			continue
		}
		parsed, parseErr := backendImpl.ParseFile(context.Background(), wf.Path, source)
		if parseErr != nil {
			continue
		}
		symbols, symErr := backendImpl.IndexSymbols(parsed)
		if symErr != nil {
			continue
		}
		language.AttachCalledBy(symbols)

		fileRecord, upsertErr := backend.UpsertFile(wf.Path, wf.LanguageID, "", mtime, size)
		if upsertErr != nil {
			return model.IndexSummary{}, errors.Wrap(upsertErr)
		}
		existingByPath[fileRecord.Path] = fileRecord

		existingSymbols, querErr := backend.QuerySymbols(SymbolQuery{Language: fileRecord.Language, Paths: []string{fileRecord.Path}})
		if querErr != nil {
			return model.IndexSummary{}, errors.Wrap(querErr)
		}
		existingByIdentity := make(map[model.IdentityKey]model.SymbolRecord, len(existingSymbols))
		for _, rec := range existingSymbols {
			existingByIdentity[rec.Identity()] = rec
		}

		newRecords := make([]model.SymbolRecord, 0, len(symbols))
		for _, s := range symbols {
			identity := model.IdentityKey{
				Kind:      s.Kind,
				Name:      s.Name,
				StartLine: s.Range.StartLine,
				EndLine:   s.Range.EndLine,
				Signature: s.Signature,
			}
			merged := mergeAttributesForIndex(existingByIdentity, identity, s)
			newRecords = append(newRecords, model.SymbolRecord{
				FileID:    fileRecord.ID,
				Name:      s.Name,
				Kind:      s.Kind,
				Language:  s.Language,
				Range:     s.Range,
				Signature: s.Signature,
				Extra:     merged,
			})
		}

		if setErr := backend.SetFileSymbols(fileRecord.ID, newRecords); setErr != nil {
			return model.IndexSummary{}, errors.Wrap(setErr)
		}

		filesIndexed++
		symbolsIndexed += len(newRecords)
	}

	for _, f := range existingFiles {
		if seen[f.Path] {
			continue
		}
		if !pathWithinAny(f.Path, cfg.Roots) {
			continue
		}
		if err := backend.RemoveFileByPath(f.Path); err != nil {
			return model.IndexSummary{}, errors.Wrap(err)
		}
	}

	meta.UpdatedAt = nowFunc().Unix()
	if err := backend.SaveMeta(meta); err != nil {
		return model.IndexSummary{}, errors.Wrap(err)
	}

	return model.IndexSummary{
		Backend:        backend.Kind(),
		IndexPath:      backend.IndexPath(),
		FilesIndexed:   filesIndexed,
		SymbolsIndexed: symbolsIndexed,
		RootPath:       meta.RootPath,
		SchemaVersion:  meta.SchemaVersion,
		ToolVersion:    meta.ToolVersion,
		BuildID:        meta.BuildID,
		CreatedAt:      time.Unix(meta.CreatedAt, 0).UTC().Format(time.RFC3339),
		UpdatedAt:      time.Unix(meta.UpdatedAt, 0).UTC().Format(time.RFC3339),
	}, nil
}

// mergeAttributesForIndex refreshes the comment from fresh AST
// extraction while carrying forward externally-owned keywords and
// description from the previous index pass, keyed by identity.
func mergeAttributesForIndex(existingByIdentity map[model.IdentityKey]model.SymbolRecord, identity model.IdentityKey, s model.Symbol) *model.SymbolAttributes {
	merged := &model.SymbolAttributes{}
	if s.Attributes != nil {
		merged.Comment = s.Attributes.Comment
		merged.CommentRange = s.Attributes.CommentRange
	}
	if existing, ok := existingByIdentity[identity]; ok && existing.Extra != nil {
		merged.Keywords = existing.Extra.Keywords
		merged.Description = existing.Extra.Description
	}
	if merged.Comment == "" && merged.CommentRange == nil && len(merged.Keywords) == 0 && merged.Description == "" {
		return nil
	}
	return merged
}

func pathWithinAny(path string, roots []string) bool {
	for _, root := range roots {
		if paths.IsWithinRepo(path, root) {
			return true
		}
	}
	return false
}

// GetIndexInfo reads an existing index's metadata and aggregate counts
// without modifying it.
func GetIndexInfo(backend Backend) (model.IndexSummary, error) {
	meta, err := backend.LoadMeta()
	if err != nil {
		return model.IndexSummary{}, errors.Wrap(err)
	}
	files, err := backend.ListFiles()
	if err != nil {
		return model.IndexSummary{}, errors.Wrap(err)
	}
	symbols, err := backend.QuerySymbols(SymbolQuery{})
	if err != nil {
		return model.IndexSummary{}, errors.Wrap(err)
	}
	return model.IndexSummary{
		Backend:        backend.Kind(),
		IndexPath:      backend.IndexPath(),
		FilesIndexed:   len(files),
		SymbolsIndexed: len(symbols),
		RootPath:       meta.RootPath,
		SchemaVersion:  meta.SchemaVersion,
		ToolVersion:    meta.ToolVersion,
		BuildID:        meta.BuildID,
		CreatedAt:      time.Unix(meta.CreatedAt, 0).UTC().Format(time.RFC3339),
		UpdatedAt:      time.Unix(meta.UpdatedAt, 0).UTC().Format(time.RFC3339),
	}, nil
}

// UpdateSymbolAttributes resolves sel to exactly one symbol record in
// backend and replaces its keywords/description with update, leaving
// every other symbol in the file untouched. Ambiguous (>1 match) or
// absent (0 match) selectors fail with errors.NewAmbiguousSelector /
// a plain IndexError respectively.
func UpdateSymbolAttributes(backend Backend, sel Selector, update AttributesUpdate) (model.Symbol, error) {
	fileRecord, ok, err := backend.GetFileByPath(sel.File)
	if err != nil {
		return model.Symbol{}, errors.Wrap(err)
	}
	if !ok {
		return model.Symbol{}, errors.NewIndexError("symbol file not found in index: "+sel.File, nil)
	}

	records, err := backend.QuerySymbols(SymbolQuery{Language: sel.Language, Paths: []string{sel.File}})
	if err != nil {
		return model.Symbol{}, errors.Wrap(err)
	}
	if len(records) == 0 {
		return model.Symbol{}, errors.NewIndexError("no symbols found in index for "+sel.File, nil)
	}

	targetIdx := -1
	matched := 0
	for i, rec := range records {
		if rec.FileID != fileRecord.ID || rec.Kind != sel.Kind || rec.Name != sel.Name {
			continue
		}
		if rec.Range.StartLine != sel.StartLine || rec.Range.EndLine != sel.EndLine {
			continue
		}
		matched++
		targetIdx = i
	}
	if matched > 1 {
		return model.Symbol{}, errors.NewAmbiguousSelector(matched)
	}
	if targetIdx < 0 {
		return model.Symbol{}, errors.NewIndexError("no symbol matched the provided selector", nil)
	}

	target := records[targetIdx]
	targetAttrs := &model.SymbolAttributes{Keywords: update.Keywords, Description: update.Description}
	if target.Extra != nil {
		targetAttrs.Comment = target.Extra.Comment
		targetAttrs.CommentRange = target.Extra.CommentRange
	}
	records[targetIdx].Extra = targetAttrs

	if err := backend.SetFileSymbols(fileRecord.ID, records); err != nil {
		return model.Symbol{}, errors.Wrap(err)
	}

	return model.Symbol{
		Name:       target.Name,
		Kind:       target.Kind,
		Language:   target.Language,
		File:       sel.File,
		Range:      target.Range,
		Signature:  target.Signature,
		Attributes: targetAttrs,
	}, nil
}
