// Package sqlitebackend implements the index.Backend contract on a
// single SQLite database file via the pure-Go modernc.org/sqlite
// driver, using the same PRAGMA conventions (WAL, NORMAL synchronous,
// a busy timeout) the teacher applies to its own storage layer.
package sqlitebackend

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"

	"symgrep/internal/errors"
	"symgrep/internal/index"
	"symgrep/internal/model"
)

// Backend is the SQLite-layout implementation of index.Backend.
type Backend struct {
	path string
	db   *sql.DB
}

var pragmas = []string{
	"PRAGMA journal_mode=WAL",
	"PRAGMA synchronous=NORMAL",
	"PRAGMA foreign_keys=ON",
	"PRAGMA busy_timeout=5000",
	"PRAGMA cache_size=-64000",
	"PRAGMA temp_store=MEMORY",
	"PRAGMA mmap_size=268435456",
}

const schemaSQL = `
CREATE TABLE IF NOT EXISTS meta (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS files (
	id       INTEGER PRIMARY KEY,
	path     TEXT NOT NULL UNIQUE,
	language TEXT NOT NULL,
	hash     TEXT,
	mtime    INTEGER NOT NULL,
	size     INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS symbols (
	id          INTEGER PRIMARY KEY,
	file_id     INTEGER NOT NULL,
	name        TEXT NOT NULL,
	kind        TEXT NOT NULL,
	language    TEXT NOT NULL,
	start_line  INTEGER NOT NULL,
	start_col   INTEGER NOT NULL,
	end_line    INTEGER NOT NULL,
	end_col     INTEGER NOT NULL,
	signature   TEXT,
	extra       TEXT,
	FOREIGN KEY(file_id) REFERENCES files(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_symbols_name ON symbols(name);
CREATE INDEX IF NOT EXISTS idx_symbols_kind ON symbols(kind);
CREATE INDEX IF NOT EXISTS idx_symbols_language ON symbols(language);
CREATE INDEX IF NOT EXISTS idx_symbols_file_id ON symbols(file_id);
`

// Open creates (if needed) and configures a SQLite index file at path.
func Open(path string) (*Backend, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, errors.NewIoError("could not create index directory", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.NewIoError("could not open sqlite index", err)
	}
	db.SetMaxOpenConns(1)

	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, errors.NewIndexError("could not apply pragma: "+p, err)
		}
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, errors.NewIndexError("could not initialize index schema", err)
	}

	return &Backend{path: path, db: db}, nil
}

// Kind implements index.Backend.
func (b *Backend) Kind() model.IndexBackendKind { return model.IndexBackendSQLite }

// IndexPath implements index.Backend.
func (b *Backend) IndexPath() string { return b.path }

// Close implements index.Backend.
func (b *Backend) Close() error { return b.db.Close() }

// LoadMeta implements index.Backend.
func (b *Backend) LoadMeta() (model.IndexMeta, error) {
	rows, err := b.db.Query("SELECT key, value FROM meta")
	if err != nil {
		return model.IndexMeta{}, errors.NewIndexError("could not read meta", err)
	}
	defer rows.Close()

	values := map[string]string{}
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return model.IndexMeta{}, errors.NewIndexError("could not read meta row", err)
		}
		values[k] = v
	}
	if len(values) == 0 {
		return model.IndexMeta{SchemaVersion: model.IndexSchemaVersion}, nil
	}

	var meta model.IndexMeta
	meta.SchemaVersion = values["schema_version"]
	meta.ToolVersion = values["tool_version"]
	meta.RootPath = values["root_path"]
	meta.BuildID = values["build_id"]
	fmt.Sscanf(values["created_at"], "%d", &meta.CreatedAt)
	fmt.Sscanf(values["updated_at"], "%d", &meta.UpdatedAt)
	return meta, nil
}

// SaveMeta implements index.Backend.
func (b *Backend) SaveMeta(meta model.IndexMeta) error {
	tx, err := b.db.Begin()
	if err != nil {
		return errors.NewIndexError("could not begin transaction", err)
	}
	if _, err := tx.Exec("DELETE FROM meta"); err != nil {
		tx.Rollback()
		return errors.NewIndexError("could not clear meta", err)
	}

	rows := [][2]string{
		{"schema_version", meta.SchemaVersion},
		{"tool_version", meta.ToolVersion},
		{"root_path", meta.RootPath},
		{"build_id", meta.BuildID},
		{"created_at", fmt.Sprintf("%d", meta.CreatedAt)},
		{"updated_at", fmt.Sprintf("%d", meta.UpdatedAt)},
	}
	for _, kv := range rows {
		if _, err := tx.Exec("INSERT INTO meta (key, value) VALUES (?, ?)", kv[0], kv[1]); err != nil {
			tx.Rollback()
			return errors.NewIndexError("could not write meta", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return errors.NewIndexError("could not commit meta", err)
	}
	return nil
}

// ListFiles implements index.Backend.
func (b *Backend) ListFiles() ([]model.FileRecord, error) {
	rows, err := b.db.Query("SELECT id, path, language, hash, mtime, size FROM files ORDER BY id ASC")
	if err != nil {
		return nil, errors.NewIndexError("could not list files", err)
	}
	defer rows.Close()

	var out []model.FileRecord
	for rows.Next() {
		rec, err := scanFileRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

func scanFileRow(rows *sql.Rows) (model.FileRecord, error) {
	var rec model.FileRecord
	var hash sql.NullString
	if err := rows.Scan(&rec.ID, &rec.Path, &rec.Language, &hash, &rec.Mtime, &rec.Size); err != nil {
		return model.FileRecord{}, errors.NewIndexError("could not scan file row", err)
	}
	rec.Hash = hash.String
	return rec, nil
}

// GetFileByPath implements index.Backend.
func (b *Backend) GetFileByPath(path string) (*model.FileRecord, bool, error) {
	row := b.db.QueryRow("SELECT id, path, language, hash, mtime, size FROM files WHERE path = ?", path)
	var rec model.FileRecord
	var hash sql.NullString
	if err := row.Scan(&rec.ID, &rec.Path, &rec.Language, &hash, &rec.Mtime, &rec.Size); err != nil {
		if err == sql.ErrNoRows {
			return nil, false, nil
		}
		return nil, false, errors.NewIndexError("could not query file", err)
	}
	rec.Hash = hash.String
	return &rec, true, nil
}

// UpsertFile implements index.Backend.
func (b *Backend) UpsertFile(path, language, hash string, mtime int64, size uint64) (model.FileRecord, error) {
	tx, err := b.db.Begin()
	if err != nil {
		return model.FileRecord{}, errors.NewIndexError("could not begin transaction", err)
	}

	var existingID uint64
	var hashArg interface{}
	if hash != "" {
		hashArg = hash
	}

	err = tx.QueryRow("SELECT id FROM files WHERE path = ?", path).Scan(&existingID)
	switch {
	case err == nil:
		if _, err := tx.Exec("UPDATE files SET language = ?, hash = ?, mtime = ?, size = ? WHERE id = ?",
			language, hashArg, mtime, size, existingID); err != nil {
			tx.Rollback()
			return model.FileRecord{}, errors.NewIndexError("could not update file", err)
		}
	case err == sql.ErrNoRows:
		res, execErr := tx.Exec("INSERT INTO files (path, language, hash, mtime, size) VALUES (?, ?, ?, ?, ?)",
			path, language, hashArg, mtime, size)
		if execErr != nil {
			tx.Rollback()
			return model.FileRecord{}, errors.NewIndexError("could not insert file", execErr)
		}
		id, idErr := res.LastInsertId()
		if idErr != nil {
			tx.Rollback()
			return model.FileRecord{}, errors.NewIndexError("could not read inserted file id", idErr)
		}
		existingID = uint64(id)
	default:
		tx.Rollback()
		return model.FileRecord{}, errors.NewIndexError("could not look up file", err)
	}

	if err := tx.Commit(); err != nil {
		return model.FileRecord{}, errors.NewIndexError("could not commit file upsert", err)
	}

	return model.FileRecord{ID: existingID, Path: path, Language: language, Hash: hash, Mtime: mtime, Size: size}, nil
}

// RemoveFileByPath implements index.Backend.
func (b *Backend) RemoveFileByPath(path string) error {
	if _, err := b.db.Exec("DELETE FROM files WHERE path = ?", path); err != nil {
		return errors.NewIndexError("could not remove file", err)
	}
	return nil
}

// SetFileSymbols implements index.Backend.
func (b *Backend) SetFileSymbols(fileID uint64, symbols []model.SymbolRecord) error {
	tx, err := b.db.Begin()
	if err != nil {
		return errors.NewIndexError("could not begin transaction", err)
	}
	if _, err := tx.Exec("DELETE FROM symbols WHERE file_id = ?", fileID); err != nil {
		tx.Rollback()
		return errors.NewIndexError("could not clear existing symbols", err)
	}

	stmt, err := tx.Prepare(`INSERT INTO symbols
		(file_id, name, kind, language, start_line, start_col, end_line, end_col, signature, extra)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		tx.Rollback()
		return errors.NewIndexError("could not prepare symbol insert", err)
	}
	defer stmt.Close()

	for _, s := range symbols {
		var extraJSON interface{}
		if s.Extra != nil {
			data, marshalErr := json.Marshal(s.Extra)
			if marshalErr != nil {
				tx.Rollback()
				return errors.NewIndexError("could not marshal symbol attributes", marshalErr)
			}
			extraJSON = string(data)
		}
		var sig interface{}
		if s.Signature != "" {
			sig = s.Signature
		}

		if _, err := stmt.Exec(fileID, s.Name, string(s.Kind), s.Language,
			s.Range.StartLine, s.Range.StartCol, s.Range.EndLine, s.Range.EndCol, sig, extraJSON); err != nil {
			tx.Rollback()
			return errors.NewIndexError("could not insert symbol", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.NewIndexError("could not commit symbol insert", err)
	}
	return nil
}

// QuerySymbols implements index.Backend, pushing the name/language
// filters into SQL and applying path/glob filters in memory against a
// preloaded file-id-to-path map, the same split the original SQLite
// backend uses.
func (b *Backend) QuerySymbols(q index.SymbolQuery) ([]model.SymbolRecord, error) {
	filesByID, err := b.loadFilePaths()
	if err != nil {
		return nil, err
	}

	rows, err := b.db.Query(`SELECT id, file_id, name, kind, language,
		start_line, start_col, end_line, end_col, signature, extra
		FROM symbols
		WHERE (? = '' OR name LIKE '%' || ? || '%')
		  AND (? = '' OR LOWER(language) = LOWER(?))`,
		q.NameSubstring, q.NameSubstring, q.Language, q.Language)
	if err != nil {
		return nil, errors.NewIndexError("could not query symbols", err)
	}
	defer rows.Close()

	var results []model.SymbolRecord
	for rows.Next() {
		var id, fileID uint64
		var name, kind, language string
		var startLine, startCol, endLine, endCol int
		var signature, extra sql.NullString
		if err := rows.Scan(&id, &fileID, &name, &kind, &language,
			&startLine, &startCol, &endLine, &endCol, &signature, &extra); err != nil {
			return nil, errors.NewIndexError("could not scan symbol row", err)
		}

		path, ok := filesByID[fileID]
		if !ok {
			continue
		}
		if len(q.Paths) > 0 && !pathMatchesAny(path, q.Paths) {
			continue
		}
		if len(q.Includes) > 0 && !matchesAny(q.Includes, path) {
			continue
		}
		if matchesAny(q.Excludes, path) {
			continue
		}

		symKind, ok := model.ParseSymbolKind(kind)
		if !ok {
			symKind = model.SymbolKind(kind)
		}
		var extraAttrs *model.SymbolAttributes
		if extra.Valid && extra.String != "" {
			var attrs model.SymbolAttributes
			if err := json.Unmarshal([]byte(extra.String), &attrs); err == nil {
				extraAttrs = &attrs
			}
		}

		results = append(results, model.SymbolRecord{
			ID:       id,
			FileID:   fileID,
			Name:     name,
			Kind:     symKind,
			Language: language,
			Range: model.TextRange{
				StartLine: startLine, StartCol: startCol,
				EndLine: endLine, EndCol: endCol,
			},
			Signature: signature.String,
			Extra:     extraAttrs,
		})
	}
	return results, nil
}

func (b *Backend) loadFilePaths() (map[uint64]string, error) {
	rows, err := b.db.Query("SELECT id, path FROM files ORDER BY id ASC")
	if err != nil {
		return nil, errors.NewIndexError("could not load file paths", err)
	}
	defer rows.Close()

	out := map[uint64]string{}
	for rows.Next() {
		var id uint64
		var path string
		if err := rows.Scan(&id, &path); err != nil {
			return nil, errors.NewIndexError("could not scan file path row", err)
		}
		out[id] = path
	}
	return out, nil
}

func pathMatchesAny(path string, roots []string) bool {
	for _, root := range roots {
		if strings.HasPrefix(path, root) {
			return true
		}
	}
	return false
}

func matchesAny(patterns []string, path string) bool {
	base := filepath.Base(path)
	for _, p := range patterns {
		if ok, _ := filepath.Match(p, path); ok {
			return true
		}
		if ok, _ := filepath.Match(p, base); ok {
			return true
		}
	}
	return false
}
