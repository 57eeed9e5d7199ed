// Package filebackend implements the index.Backend contract as three
// files under a `.symgrep/` directory: meta.json, files.jsonl, and
// symbols.jsonl. Writes are full-file rewrites via a temp-file-then-
// rename, favoring clarity over micro-performance, same tradeoff as
// the teacher's own cache persistence in internal/storage/cache.go.
package filebackend

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"

	"symgrep/internal/errors"
	"symgrep/internal/index"
	"symgrep/internal/model"
)

// Backend is the file-layout implementation of index.Backend.
type Backend struct {
	root string

	meta        model.IndexMeta
	hasMeta     bool
	files       []model.FileRecord
	filesByPath map[string]model.FileRecord
	filesByID   map[uint64]model.FileRecord

	nextFileID   uint64
	nextSymbolID uint64
}

// jsonSymbolRecord is the on-disk shape of a symbol record: Extra is
// stored inline rather than re-marshaled, matching the JSONL convention
// of one record per line.
type jsonSymbolRecord struct {
	ID        uint64                  `json:"id"`
	FileID    uint64                  `json:"fileId"`
	Name      string                  `json:"name"`
	Kind      model.SymbolKind        `json:"kind"`
	Language  string                  `json:"language"`
	Range     model.TextRange         `json:"range"`
	Signature string                  `json:"signature,omitempty"`
	Extra     *model.SymbolAttributes `json:"extra,omitempty"`
}

// Open creates indexPath if needed and loads any existing meta.json,
// files.jsonl, and symbols.jsonl (just far enough to size the next id
// counters; symbols themselves are streamed from disk on demand).
func Open(indexPath string) (*Backend, error) {
	if err := os.MkdirAll(indexPath, 0o755); err != nil {
		return nil, errors.NewIoError("could not create index directory", err)
	}

	b := &Backend{
		root:        indexPath,
		filesByPath: map[string]model.FileRecord{},
		filesByID:   map[uint64]model.FileRecord{},
	}

	if err := b.loadMetaFile(); err != nil {
		return nil, err
	}
	if err := b.loadFiles(); err != nil {
		return nil, err
	}
	if err := b.computeNextIDs(); err != nil {
		return nil, err
	}
	return b, nil
}

func (b *Backend) metaPath() string    { return filepath.Join(b.root, "meta.json") }
func (b *Backend) filesPath() string   { return filepath.Join(b.root, "files.jsonl") }
func (b *Backend) symbolsPath() string { return filepath.Join(b.root, "symbols.jsonl") }

func (b *Backend) loadMetaFile() error {
	data, err := os.ReadFile(b.metaPath())
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return errors.NewIoError("could not read meta.json", err)
	}
	var meta model.IndexMeta
	if err := json.Unmarshal(data, &meta); err != nil {
		return errors.NewParseError(b.metaPath(), err)
	}
	if meta.SchemaVersion != model.IndexSchemaVersion {
		return errors.NewVersionMismatch(meta.SchemaVersion, model.IndexSchemaVersion)
	}
	b.meta = meta
	b.hasMeta = true
	return nil
}

func (b *Backend) loadFiles() error {
	f, err := os.Open(b.filesPath())
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return errors.NewIoError("could not read files.jsonl", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		var rec model.FileRecord
		if err := json.Unmarshal([]byte(line), &rec); err != nil {
			return errors.NewParseError(b.filesPath(), err)
		}
		b.files = append(b.files, rec)
		b.filesByPath[rec.Path] = rec
		b.filesByID[rec.ID] = rec
	}
	if err := scanner.Err(); err != nil {
		return errors.NewIoError("could not read files.jsonl", err)
	}
	return nil
}

func (b *Backend) computeNextIDs() error {
	var maxFileID uint64
	for _, f := range b.files {
		if f.ID > maxFileID {
			maxFileID = f.ID
		}
	}

	var maxSymbolID uint64
	f, err := os.Open(b.symbolsPath())
	if err == nil {
		defer f.Close()
		scanner := bufio.NewScanner(f)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			line := scanner.Text()
			if line == "" {
				continue
			}
			var rec jsonSymbolRecord
			if err := json.Unmarshal([]byte(line), &rec); err != nil {
				return errors.NewParseError(b.symbolsPath(), err)
			}
			if rec.ID > maxSymbolID {
				maxSymbolID = rec.ID
			}
			if rec.FileID > maxFileID {
				maxFileID = rec.FileID
			}
		}
		if err := scanner.Err(); err != nil {
			return errors.NewIoError("could not read symbols.jsonl", err)
		}
	} else if !os.IsNotExist(err) {
		return errors.NewIoError("could not read symbols.jsonl", err)
	}

	b.nextFileID = maxFileID + 1
	b.nextSymbolID = maxSymbolID + 1
	return nil
}

// Kind implements index.Backend.
func (b *Backend) Kind() model.IndexBackendKind { return model.IndexBackendFile }

// IndexPath implements index.Backend.
func (b *Backend) IndexPath() string { return b.root }

// Close implements index.Backend; the file backend holds no persistent
// file handles between calls, so there is nothing to release.
func (b *Backend) Close() error { return nil }

// LoadMeta implements index.Backend.
func (b *Backend) LoadMeta() (model.IndexMeta, error) {
	if b.hasMeta {
		return b.meta, nil
	}
	return model.IndexMeta{SchemaVersion: model.IndexSchemaVersion}, nil
}

// SaveMeta implements index.Backend.
func (b *Backend) SaveMeta(meta model.IndexMeta) error {
	data, err := json.Marshal(meta)
	if err != nil {
		return errors.NewIoError("could not marshal meta.json", err)
	}
	tmpPath := b.metaPath() + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return errors.NewIoError("could not write meta.json", err)
	}
	if err := os.Rename(tmpPath, b.metaPath()); err != nil {
		return errors.NewIoError("could not write meta.json", err)
	}
	b.meta = meta
	b.hasMeta = true
	return nil
}

// ListFiles implements index.Backend.
func (b *Backend) ListFiles() ([]model.FileRecord, error) {
	out := make([]model.FileRecord, len(b.files))
	copy(out, b.files)
	return out, nil
}

// GetFileByPath implements index.Backend.
func (b *Backend) GetFileByPath(path string) (*model.FileRecord, bool, error) {
	rec, ok := b.filesByPath[path]
	if !ok {
		return nil, false, nil
	}
	return &rec, true, nil
}

// UpsertFile implements index.Backend.
func (b *Backend) UpsertFile(path, language, hash string, mtime int64, size uint64) (model.FileRecord, error) {
	var rec model.FileRecord
	if existing, ok := b.filesByPath[path]; ok {
		rec = existing
		rec.Language = language
		rec.Hash = hash
		rec.Mtime = mtime
		rec.Size = size
	} else {
		rec = model.FileRecord{
			ID:       b.nextFileID,
			Path:     path,
			Language: language,
			Hash:     hash,
			Mtime:    mtime,
			Size:     size,
		}
		b.nextFileID++
	}

	found := false
	for i := range b.files {
		if b.files[i].ID == rec.ID {
			b.files[i] = rec
			found = true
			break
		}
	}
	if !found {
		b.files = append(b.files, rec)
	}
	b.filesByPath[path] = rec
	b.filesByID[rec.ID] = rec

	if err := b.persistFiles(); err != nil {
		return model.FileRecord{}, err
	}
	return rec, nil
}

// RemoveFileByPath implements index.Backend.
func (b *Backend) RemoveFileByPath(path string) error {
	rec, ok := b.filesByPath[path]
	if !ok {
		return nil
	}
	delete(b.filesByPath, path)
	delete(b.filesByID, rec.ID)

	kept := b.files[:0]
	for _, f := range b.files {
		if f.ID != rec.ID {
			kept = append(kept, f)
		}
	}
	b.files = kept

	if err := b.persistFiles(); err != nil {
		return err
	}
	return b.rewriteSymbolsExcludingFile(rec.ID)
}

func (b *Backend) persistFiles() error {
	tmpPath := b.filesPath() + ".tmp"
	f, err := os.Create(tmpPath)
	if err != nil {
		return errors.NewIoError("could not write files.jsonl", err)
	}
	w := bufio.NewWriter(f)
	for _, rec := range b.files {
		data, marshalErr := json.Marshal(rec)
		if marshalErr != nil {
			f.Close()
			return errors.NewIoError("could not marshal file record", marshalErr)
		}
		w.Write(data)
		w.WriteByte('\n')
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return errors.NewIoError("could not write files.jsonl", err)
	}
	f.Close()
	if err := os.Rename(tmpPath, b.filesPath()); err != nil {
		return errors.NewIoError("could not replace files.jsonl", err)
	}
	return nil
}

func (b *Backend) rewriteSymbolsExcludingFile(fileID uint64) error {
	records, err := b.readAllSymbols()
	if err != nil {
		return err
	}
	kept := records[:0]
	for _, rec := range records {
		if rec.FileID != fileID {
			kept = append(kept, rec)
		}
	}
	return b.writeAllSymbols(kept)
}

func (b *Backend) readAllSymbols() ([]jsonSymbolRecord, error) {
	f, err := os.Open(b.symbolsPath())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.NewIoError("could not read symbols.jsonl", err)
	}
	defer f.Close()

	var records []jsonSymbolRecord
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		var rec jsonSymbolRecord
		if err := json.Unmarshal([]byte(line), &rec); err != nil {
			return nil, errors.NewParseError(b.symbolsPath(), err)
		}
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.NewIoError("could not read symbols.jsonl", err)
	}
	return records, nil
}

func (b *Backend) writeAllSymbols(records []jsonSymbolRecord) error {
	tmpPath := b.symbolsPath() + ".tmp"
	f, err := os.Create(tmpPath)
	if err != nil {
		return errors.NewIoError("could not write symbols.jsonl", err)
	}
	w := bufio.NewWriter(f)
	for _, rec := range records {
		data, marshalErr := json.Marshal(rec)
		if marshalErr != nil {
			f.Close()
			return errors.NewIoError("could not marshal symbol record", marshalErr)
		}
		w.Write(data)
		w.WriteByte('\n')
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return errors.NewIoError("could not write symbols.jsonl", err)
	}
	f.Close()
	return os.Rename(tmpPath, b.symbolsPath())
}

// SetFileSymbols implements index.Backend: replaces every symbol
// belonging to fileID with the given set, allocating fresh ids.
func (b *Backend) SetFileSymbols(fileID uint64, symbols []model.SymbolRecord) error {
	existing, err := b.readAllSymbols()
	if err != nil {
		return err
	}

	kept := existing[:0]
	for _, rec := range existing {
		if rec.FileID != fileID {
			kept = append(kept, rec)
		}
	}

	nextID := b.nextSymbolID
	for _, s := range symbols {
		kept = append(kept, jsonSymbolRecord{
			ID:        nextID,
			FileID:    fileID,
			Name:      s.Name,
			Kind:      s.Kind,
			Language:  s.Language,
			Range:     s.Range,
			Signature: s.Signature,
			Extra:     s.Extra,
		})
		nextID++
	}

	if err := b.writeAllSymbols(kept); err != nil {
		return err
	}
	b.nextSymbolID = nextID
	return nil
}

// QuerySymbols implements index.Backend by streaming symbols.jsonl and
// applying the query's filters in memory.
func (b *Backend) QuerySymbols(q index.SymbolQuery) ([]model.SymbolRecord, error) {
	records, err := b.readAllSymbols()
	if err != nil {
		return nil, err
	}

	includeSet := compileGlobs(q.Includes)
	excludeSet := compileGlobs(q.Excludes)

	var results []model.SymbolRecord
	for _, rec := range records {
		if q.NameSubstring != "" && !containsFold(rec.Name, q.NameSubstring) {
			continue
		}
		if q.Language != "" && !equalFold(rec.Language, q.Language) {
			continue
		}

		fileRec, ok := b.filesByID[rec.FileID]
		if !ok {
			continue
		}

		if len(q.Paths) > 0 && !pathMatchesAny(fileRec.Path, q.Paths) {
			continue
		}
		if len(includeSet) > 0 && !matchesAny(includeSet, fileRec.Path) {
			continue
		}
		if matchesAny(excludeSet, fileRec.Path) {
			continue
		}

		results = append(results, model.SymbolRecord{
			ID:        rec.ID,
			FileID:    rec.FileID,
			Name:      rec.Name,
			Kind:      rec.Kind,
			Language:  rec.Language,
			Range:     rec.Range,
			Signature: rec.Signature,
			Extra:     rec.Extra,
		})
	}

	sort.Slice(results, func(i, j int) bool { return results[i].ID < results[j].ID })
	return results, nil
}
