// Package engine implements the search state machine (spec §4.4): mode
// dispatch (text/symbol/auto), the three search strategies (plain text
// scan, live symbol parse, index-backed symbol lookup), context-view
// materialization, and limit/truncation bookkeeping.
package engine

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"golang.org/x/sync/errgroup"

	"symgrep/internal/errors"
	"symgrep/internal/index"
	"symgrep/internal/index/filebackend"
	"symgrep/internal/index/sqlitebackend"
	"symgrep/internal/language"
	"symgrep/internal/model"
	"symgrep/internal/queryparse"
	"symgrep/internal/walk"
)

// Mode selects how a search is carried out.
type Mode string

const (
	ModeText   Mode = "text"
	ModeSymbol Mode = "symbol"
	ModeAuto   Mode = "auto"
)

// ContextView is one of the six composable views spec §4.4 defines for
// a matched symbol.
type ContextView string

const (
	ViewMeta    ContextView = "meta"
	ViewDecl    ContextView = "decl"
	ViewDef     ContextView = "def"
	ViewParent  ContextView = "parent"
	ViewComment ContextView = "comment"
	ViewMatches ContextView = "matches"
)

// ContextRequest is the composable set of views a caller wants
// materialized for each matched symbol. The nil/empty request (and the
// "none" CLI spelling) materializes nothing.
type ContextRequest []ContextView

// Convenience single-view requests, kept for callers that only ever
// want one view at a time.
var (
	ContextNone    ContextRequest = nil
	ContextDecl    ContextRequest = ContextRequest{ViewDecl}
	ContextDef     ContextRequest = ContextRequest{ViewDef}
	ContextParent  ContextRequest = ContextRequest{ViewParent}
	ContextComment ContextRequest = ContextRequest{ViewComment}
	ContextMatches ContextRequest = ContextRequest{ViewMatches}
	ContextMeta    ContextRequest = ContextRequest{ViewMeta}
)

// ParseContextRequest parses a comma-separated list of view names (or
// the literal "none"/empty string) into a ContextRequest.
func ParseContextRequest(raw string) (ContextRequest, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "none" {
		return nil, nil
	}
	parts := strings.Split(raw, ",")
	req := make(ContextRequest, 0, len(parts))
	for _, p := range parts {
		v := ContextView(strings.TrimSpace(p))
		switch v {
		case ViewMeta, ViewDecl, ViewDef, ViewParent, ViewComment, ViewMatches:
			req = append(req, v)
		default:
			return nil, errors.NewInvalidConfig("unknown context view: " + string(v))
		}
	}
	return req, nil
}

func (r ContextRequest) has(v ContextView) bool {
	for _, x := range r {
		if x == v {
			return true
		}
	}
	return false
}

// regionView resolves the highest-precedence region view requested:
// def > decl > parent (spec §4.4).
func (r ContextRequest) regionView() (model.ContextKind, bool) {
	switch {
	case r.has(ViewDef):
		return model.ContextDef, true
	case r.has(ViewDecl):
		return model.ContextDecl, true
	case r.has(ViewParent):
		return model.ContextParent, true
	default:
		return "", false
	}
}

// IndexOptions, when set, enables index-backed symbol search for
// Config.Mode == ModeSymbol (or ModeAuto resolving to symbol mode).
type IndexOptions struct {
	Backend   model.IndexBackendKind
	IndexPath string
}

// Config is the full set of parameters for a single RunSearch call.
type Config struct {
	Pattern   string
	Paths     []string
	Includes  []string
	Excludes  []string
	Language  string
	Mode      Mode
	Literal   bool
	Context   ContextRequest
	Limit     int // 0 means unlimited
	MaxLines  *int
	QueryExpr *queryparse.Expr
	Index     *IndexOptions
}

// RunSearch executes a search per cfg, dispatching to the text, live
// symbol, or index-backed symbol strategy.
func RunSearch(registry *language.Registry, cfg Config) (*model.SearchResult, error) {
	if cfg.Pattern == "" {
		return nil, errors.NewInvalidQuery("search pattern must not be empty", -1)
	}

	switch effectiveMode(registry, cfg) {
	case ModeText:
		return runTextSearch(cfg)
	case ModeSymbol:
		if cfg.Index != nil {
			return runSymbolSearchWithIndex(registry, cfg)
		}
		return runSymbolSearchWithoutIndex(registry, cfg)
	default:
		return runTextSearch(cfg)
	}
}

func effectiveMode(registry *language.Registry, cfg Config) Mode {
	switch cfg.Mode {
	case ModeText:
		return ModeText
	case ModeSymbol:
		return ModeSymbol
	default: // ModeAuto
		if queryparse.IsSymbolOriented(queryExprFor(cfg)) {
			return ModeSymbol
		}
		if cfg.Language != "" {
			if _, ok := registry.ByID(cfg.Language); ok {
				return ModeSymbol
			}
		}
		return ModeText
	}
}

func validatePaths(paths []string) error {
	if len(paths) == 0 {
		return errors.NewInvalidConfig("at least one search path is required")
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			return errors.NewIoError("search path does not exist: "+p, err)
		}
	}
	return nil
}

func effectiveLimit(limit int) int {
	if limit <= 0 {
		return -1 // sentinel: unlimited
	}
	return limit
}

func queryExprFor(cfg Config) *queryparse.Expr {
	if cfg.QueryExpr != nil {
		return cfg.QueryExpr
	}
	expr, err := queryparse.ParseQueryExpr(cfg.Pattern)
	if err != nil {
		return nil
	}
	return expr
}

// runTextSearch implements the grep-like scan: every file under
// cfg.Paths (no language filtering) is read line by line. When the
// pattern parses into a content:-only DSL expression, OR/AND semantics
// over content: terms apply; otherwise it degrades to plain substring (or
// --literal word-boundary) matching.
func runTextSearch(cfg Config) (*model.SearchResult, error) {
	if err := validatePaths(cfg.Paths); err != nil {
		return nil, err
	}

	expr := queryExprFor(cfg)
	var textOnlyExpr *queryparse.Expr
	if expr != nil && queryparse.IsTextOnly(expr) {
		textOnlyExpr = expr
	}

	paths, err := walk.WalkAll(walk.Options{Roots: cfg.Paths, Includes: cfg.Includes, Excludes: cfg.Excludes})
	if err != nil {
		return nil, err
	}

	limit := effectiveLimit(cfg.Limit)
	result := model.NewSearchResult(cfg.Pattern)

	var totalMatches int
	var truncated bool

walkLoop:
	for _, path := range paths {
		data, readErr := os.ReadFile(path)
		if readErr != nil {
			continue
		}
		lines := strings.Split(string(data), "\n")

		for i, line := range lines {
			lineNumber := i + 1

			var column int
			var found bool
			switch {
			case textOnlyExpr != nil:
				if idx, ok := findInLine(textOnlyExpr, line, cfg.Literal); ok {
					column, found = idx+1, true
				}
			case cfg.Literal:
				if idx := findLiteralIdentifier(line, cfg.Pattern); idx >= 0 {
					column, found = idx+1, true
				}
			default:
				if idx := strings.Index(line, cfg.Pattern); idx >= 0 {
					column, found = idx+1, true
				}
			}
			if !found {
				continue
			}

			totalMatches++

			if limit < 0 || len(result.Matches) < limit {
				var snippet *string
				if cfg.MaxLines == nil || *cfg.MaxLines != 0 {
					s := line
					snippet = &s
				}
				result.Matches = append(result.Matches, model.SearchMatch{
					Path: path, Line: lineNumber, Column: column, Snippet: snippet,
				})
			}
			if limit >= 0 && len(result.Matches) >= limit {
				truncated = true
				break walkLoop
			}
		}
	}

	result.Summary = model.SearchSummary{TotalMatches: totalMatches, Truncated: truncated}
	return result, nil
}

// findInLine finds the first match column (0-based) for a content:-only
// expression within a single line.
func findInLine(expr *queryparse.Expr, line string, literal bool) (int, bool) {
	switch {
	case expr.Term != nil:
		value := expr.Term.Value
		if expr.Term.Op == queryparse.OpExact {
			if line == value {
				return 0, true
			}
			return 0, false
		}
		if literal {
			if idx := findLiteralIdentifier(line, value); idx >= 0 {
				return idx, true
			}
			return 0, false
		}
		if idx := strings.Index(line, value); idx >= 0 {
			return idx, true
		}
		return 0, false
	case expr.And != nil:
		best := -1
		for _, clause := range expr.And {
			idx, ok := findInLine(clause, line, literal)
			if !ok {
				return 0, false
			}
			if best < 0 || idx < best {
				best = idx
			}
		}
		return best, best >= 0
	case expr.Or != nil:
		best := -1
		for _, clause := range expr.Or {
			if idx, ok := findInLine(clause, line, literal); ok {
				if best < 0 || idx < best {
					best = idx
				}
			}
		}
		return best, best >= 0
	}
	return 0, false
}

func isIdentifierChar(ch byte) bool {
	return (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || (ch >= '0' && ch <= '9') || ch == '_'
}

// findLiteralIdentifier finds needle in haystack at a position bounded
// by non-identifier characters (or string edges) on both sides.
func findLiteralIdentifier(haystack, needle string) int {
	if needle == "" {
		return -1
	}
	searchStart := 0
	for {
		rel := strings.Index(haystack[searchStart:], needle)
		if rel < 0 {
			return -1
		}
		start := searchStart + rel
		end := start + len(needle)

		leftOK := start == 0 || !isIdentifierChar(haystack[start-1])
		rightOK := end == len(haystack) || !isIdentifierChar(haystack[end])
		if leftOK && rightOK {
			return start
		}
		searchStart = end
	}
}

// contentValues collects every content: term's value out of expr.
func contentValues(expr *queryparse.Expr) []string {
	if expr == nil {
		return nil
	}
	if expr.Term != nil {
		if expr.Term.Field == queryparse.FieldContent {
			return []string{expr.Term.Value}
		}
		return nil
	}
	var out []string
	for _, c := range expr.And {
		out = append(out, contentValues(c)...)
	}
	for _, c := range expr.Or {
		out = append(out, contentValues(c)...)
	}
	return out
}

// findContentMatchLines returns the 1-based, baseLine-relative line
// numbers within snippet where any content: value hits (spec §4.4's
// `matches` view).
func findContentMatchLines(expr *queryparse.Expr, snippet string, baseLine int, literal bool) []int {
	values := contentValues(expr)
	if len(values) == 0 || snippet == "" {
		return nil
	}
	var lines []int
	for i, line := range strings.Split(snippet, "\n") {
		for _, v := range values {
			var idx int
			if literal {
				idx = findLiteralIdentifier(line, v)
			} else {
				idx = strings.Index(line, v)
			}
			if idx >= 0 {
				lines = append(lines, baseLine+i)
				break
			}
		}
	}
	return lines
}

// materializeViews evaluates expr's full (text-aware) match against
// symbol and materializes the views req asks for, composably:
//   - a region view (def > decl > parent precedence) when requested, or
//     fetched internally (as def, unreported) when content: or matches
//     needs a surface but no region view was explicitly requested;
//   - comment, using the symbol's own attributes.comment region;
//   - matches, populating symbol.Matches with content: hit lines inside
//     whichever surface (region or comment) was materialized.
//
// It returns whether symbol survives the full evaluation and the
// ContextInfo values to report in SearchResult.contexts.
func materializeViews(backend language.Backend, parsed *language.ParsedFile, symbol *model.Symbol, expr *queryparse.Expr, req ContextRequest, literal bool) (bool, []model.ContextInfo, error) {
	hasContentTerms := queryparse.HasContentTerms(expr)
	regionKind, hasRegion := req.regionView()
	wantsComment := req.has(ViewComment)
	wantsMatches := req.has(ViewMatches)

	if !hasRegion && !wantsComment && !wantsMatches && !hasContentTerms {
		if expr == nil {
			return true, nil, nil
		}
		return queryparse.SymbolMatchesWithText(expr, symbol, "", literal), nil, nil
	}

	var primary *model.ContextInfo
	fetchKind := regionKind
	needsImplicitRegion := !hasRegion && (hasContentTerms || wantsMatches)
	if needsImplicitRegion {
		fetchKind = model.ContextDef
	}
	if hasRegion || needsImplicitRegion {
		ctx, err := backend.GetContextSnippet(parsed, symbol, fetchKind)
		if err != nil {
			return false, nil, errors.NewIoError("failed to get context snippet for symbol "+symbol.Name, err)
		}
		primary = &ctx
		if fetchKind == model.ContextDef {
			n := ctx.Range.EndLine - ctx.Range.StartLine + 1
			symbol.DefLineCount = &n
		}
	}

	var contexts []model.ContextInfo
	if hasRegion && primary != nil {
		contexts = append(contexts, *primary)
	}

	var commentCtx *model.ContextInfo
	if wantsComment {
		ctx, err := backend.GetContextSnippet(parsed, symbol, model.ContextComment)
		if err != nil {
			return false, nil, errors.NewIoError("failed to get comment context for symbol "+symbol.Name, err)
		}
		commentCtx = &ctx
		contexts = append(contexts, ctx)
	}

	snippetForContent := ""
	if primary != nil {
		snippetForContent = primary.Snippet
	}
	if hasContentTerms && !queryparse.SymbolMatchesWithText(expr, symbol, snippetForContent, literal) {
		return false, nil, nil
	}

	if wantsMatches && hasContentTerms {
		source, baseLine := snippetForContent, 1
		if primary != nil {
			baseLine = primary.Range.StartLine
		} else if commentCtx != nil {
			source, baseLine = commentCtx.Snippet, commentCtx.Range.StartLine
		}
		symbol.Matches = findContentMatchLines(expr, source, baseLine, literal)
	}

	return true, contexts, nil
}

// parsedFile holds one walked file's parse output, or a zero value if
// the file's language backend, read, parse, or symbol extraction step
// failed or was skipped — callers treat a nil backend as "no symbols".
type parsedFile struct {
	backend language.Backend
	parsed  *language.ParsedFile
	symbols []model.Symbol
}

// parseFilesConcurrently parses and symbol-indexes every walked file
// using a worker pool bounded to GOMAXPROCS, preserving files' original
// order in the returned slice so downstream limit/truncation bookkeeping
// stays deterministic regardless of which goroutine finishes first.
func parseFilesConcurrently(registry *language.Registry, files []walk.File) []parsedFile {
	results := make([]parsedFile, len(files))

	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))

	for i, wf := range files {
		i, wf := i, wf
		g.Go(func() error {
			backend, ok := registry.ByID(wf.LanguageID)
			if !ok {
				return nil
			}
			source, readErr := os.ReadFile(wf.Path)
			if readErr != nil {
				return nil
			}
			parsed, parseErr := backend.ParseFile(context.Background(), wf.Path, source)
			if parseErr != nil {
				return nil
			}
			symbols, symErr := backend.IndexSymbols(parsed)
			if symErr != nil {
				return nil
			}
			language.AttachCalledBy(symbols)
			results[i] = parsedFile{backend: backend, parsed: parsed, symbols: symbols}
			return nil
		})
	}
	_ = g.Wait()

	return results
}

// runSymbolSearchWithoutIndex parses every resolvable file live and
// evaluates the query expression against each extracted symbol.
func runSymbolSearchWithoutIndex(registry *language.Registry, cfg Config) (*model.SearchResult, error) {
	if err := validatePaths(cfg.Paths); err != nil {
		return nil, err
	}

	files, err := walk.Walk(registry, walk.Options{
		Roots: cfg.Paths, Includes: cfg.Includes, Excludes: cfg.Excludes, Language: cfg.Language,
	})
	if err != nil {
		return nil, err
	}

	parsedFiles := parseFilesConcurrently(registry, files)

	expr := queryExprFor(cfg)
	limit := effectiveLimit(cfg.Limit)
	result := model.NewSearchResult(cfg.Pattern)

	var totalMatches int
	var truncated bool

walkLoop:
	for _, pf := range parsedFiles {
		if pf.backend == nil {
			continue
		}

		for i := range pf.symbols {
			symbol := &pf.symbols[i]

			if !metadataMatches(expr, symbol, cfg) {
				continue
			}

			keepGoing, contextInfos, matchErr := materializeViews(pf.backend, pf.parsed, symbol, expr, cfg.Context, cfg.Literal)
			if matchErr != nil {
				return nil, matchErr
			}
			if !keepGoing {
				continue
			}

			totalMatches++
			if limit < 0 || len(result.Symbols) < limit {
				idx := len(result.Symbols)
				for _, ci := range contextInfos {
					ci.SymbolIndex = &idx
					result.Contexts = append(result.Contexts, ci)
				}
				result.Symbols = append(result.Symbols, *symbol)
			}
			if limit >= 0 && len(result.Symbols) >= limit {
				truncated = true
				break walkLoop
			}
		}
	}

	result.Summary = model.SearchSummary{TotalMatches: totalMatches, Truncated: truncated}
	return result, nil
}

func metadataMatches(expr *queryparse.Expr, symbol *model.Symbol, cfg Config) bool {
	if expr != nil {
		return queryparse.SymbolMatchesMetadata(expr, symbol, cfg.Literal)
	}
	if cfg.Literal {
		return symbol.Name == cfg.Pattern
	}
	return strings.Contains(symbol.Name, cfg.Pattern)
}

// runSymbolSearchWithIndex retrieves candidate symbols from an on-disk
// index (falling back to the live-parse strategy when the index is
// absent or empty for the requested scope) and evaluates the full DSL
// against each candidate the same way the unindexed path does.
func runSymbolSearchWithIndex(registry *language.Registry, cfg Config) (*model.SearchResult, error) {
	if err := validatePaths(cfg.Paths); err != nil {
		return nil, err
	}

	if queryparse.HasCallTerms(queryExprFor(cfg)) {
		return runSymbolSearchWithoutIndex(registry, cfg)
	}

	resolved, ok := resolveEffectiveIndexConfig(cfg)
	if !ok {
		return runSymbolSearchWithoutIndex(registry, cfg)
	}

	backend, err := OpenBackend(resolved)
	if err != nil {
		return runSymbolSearchWithoutIndex(registry, cfg)
	}
	defer backend.Close()

	records, err := backend.QuerySymbols(index.SymbolQuery{
		Language: cfg.Language, Paths: cfg.Paths, Includes: cfg.Includes, Excludes: cfg.Excludes,
	})
	if err != nil {
		return nil, errors.Wrap(err)
	}
	if len(records) == 0 {
		return runSymbolSearchWithoutIndex(registry, cfg)
	}

	files, err := backend.ListFiles()
	if err != nil {
		return nil, errors.Wrap(err)
	}
	filesByID := make(map[uint64]model.FileRecord, len(files))
	for _, f := range files {
		filesByID[f.ID] = f
	}

	expr := queryExprFor(cfg)
	limit := effectiveLimit(cfg.Limit)
	result := model.NewSearchResult(cfg.Pattern)

	var totalMatches int
	var truncated bool
	parsedCache := make(map[string]*language.ParsedFile)

	for _, rec := range records {
		fileRec, ok := filesByID[rec.FileID]
		if !ok {
			continue
		}

		symbol := model.Symbol{
			Name: rec.Name, Kind: rec.Kind, Language: rec.Language,
			File: fileRec.Path, Range: rec.Range, Signature: rec.Signature, Attributes: rec.Extra,
		}

		if !metadataMatches(expr, &symbol, cfg) {
			continue
		}

		backendImpl, ok := registry.ByID(symbol.Language)
		if !ok {
			backendImpl, ok = registry.ByPath(symbol.File)
			if !ok {
				continue
			}
		}

		keepGoing, contextInfos, matchErr := resolveIndexedSymbolMatch(backendImpl, parsedCache, &symbol, expr, cfg.Context, cfg)
		if matchErr != nil {
			return nil, matchErr
		}
		if !keepGoing {
			continue
		}

		totalMatches++
		if limit < 0 || len(result.Symbols) < limit {
			idx := len(result.Symbols)
			for _, ci := range contextInfos {
				ci.SymbolIndex = &idx
				result.Contexts = append(result.Contexts, ci)
			}
			result.Symbols = append(result.Symbols, symbol)
		}
		if limit >= 0 && len(result.Symbols) >= limit {
			truncated = true
			break
		}
	}

	result.Summary = model.SearchSummary{TotalMatches: totalMatches, Truncated: truncated}
	return result, nil
}

// resolveIndexedSymbolMatch lazily parses symbol.File (caching across
// records) only when evaluation actually needs a materialized surface
// (content: terms present, or any region/comment/matches view requested);
// a pure-metadata query never touches the filesystem.
func resolveIndexedSymbolMatch(backend language.Backend, parsedCache map[string]*language.ParsedFile, symbol *model.Symbol, expr *queryparse.Expr, req ContextRequest, cfg Config) (bool, []model.ContextInfo, error) {
	_, hasRegion := req.regionView()
	needsSurface := queryparse.HasContentTerms(expr) || hasRegion || req.has(ViewComment) || req.has(ViewMatches)
	if !needsSurface {
		return queryparse.SymbolMatchesWithText(expr, symbol, "", cfg.Literal), nil, nil
	}

	parsed, ok := parsedCache[symbol.File]
	if !ok {
		source, readErr := os.ReadFile(symbol.File)
		if readErr != nil {
			return false, nil, errors.NewIoError("could not read "+symbol.File, readErr)
		}
		p, parseErr := backend.ParseFile(context.Background(), symbol.File, source)
		if parseErr != nil {
			return false, nil, nil
		}
		parsedCache[symbol.File] = p
		parsed = p
	}

	return materializeViews(backend, parsed, symbol, expr, req, cfg.Literal)
}

// resolveEffectiveIndexConfig implements the auto-backend-selection
// policy: an explicit non-default backend/path is used as-is; the
// default file-backend-at-.symgrep configuration is treated as "auto",
// preferring an existing .symgrep/index.sqlite, then an existing
// .symgrep/ file index, else reporting no usable index.
func resolveEffectiveIndexConfig(cfg Config) (index.Config, bool) {
	if cfg.Index == nil {
		return index.Config{}, false
	}

	defaultRoot := ".symgrep"
	base := index.Config{Backend: cfg.Index.Backend, IndexPath: cfg.Index.IndexPath, Roots: cfg.Paths, Includes: cfg.Includes, Excludes: cfg.Excludes, Language: cfg.Language}

	if cfg.Index.Backend == model.IndexBackendFile && cfg.Index.IndexPath == defaultRoot {
		sqlitePath := filepath.Join(defaultRoot, "index.sqlite")
		if _, err := os.Stat(sqlitePath); err == nil {
			base.Backend = model.IndexBackendSQLite
			base.IndexPath = sqlitePath
			return base, true
		}
		if _, err := os.Stat(defaultRoot); err == nil {
			return base, true
		}
		return index.Config{}, false
	}

	return base, true
}

// OpenBackend constructs the concrete index.Backend named by cfg. It
// lives here, not in internal/index, because the concrete backend
// packages already import internal/index for its shared types; a
// dispatcher living there would need to import them back.
func OpenBackend(cfg index.Config) (index.Backend, error) {
	switch cfg.Backend {
	case model.IndexBackendSQLite:
		return sqlitebackend.Open(cfg.IndexPath)
	default:
		return filebackend.Open(cfg.IndexPath)
	}
}

// RunIndex builds or updates the index described by cfg. It holds an
// exclusive Lock over the index directory for the duration of the
// build so a concurrent `symgrep index`/`update-attrs` run against the
// same index path fails fast instead of interleaving writes.
func RunIndex(registry *language.Registry, cfg index.Config) (model.IndexSummary, error) {
	lock, err := index.AcquireLock(index.LockDirFor(cfg))
	if err != nil {
		return model.IndexSummary{}, errors.NewIndexError("could not acquire index lock", err)
	}
	defer lock.Release()

	backend, err := OpenBackend(cfg)
	if err != nil {
		return model.IndexSummary{}, err
	}
	defer backend.Close()
	return index.BuildIndex(backend, registry, cfg)
}

// GetIndexInfo opens cfg's backend read-only and reports its summary.
func GetIndexInfo(cfg index.Config) (model.IndexSummary, error) {
	backend, err := OpenBackend(cfg)
	if err != nil {
		return model.IndexSummary{}, err
	}
	defer backend.Close()
	return index.GetIndexInfo(backend)
}

// UpdateSymbolAttributes opens cfg's backend and applies the update to
// exactly one symbol, holding the same index-directory Lock RunIndex
// uses so an attribute edit cannot race a concurrent reindex.
func UpdateSymbolAttributes(cfg index.Config, sel index.Selector, update index.AttributesUpdate) (model.Symbol, error) {
	lock, err := index.AcquireLock(index.LockDirFor(cfg))
	if err != nil {
		return model.Symbol{}, errors.NewIndexError("could not acquire index lock", err)
	}
	defer lock.Release()

	backend, err := OpenBackend(cfg)
	if err != nil {
		return model.Symbol{}, err
	}
	defer backend.Close()
	return index.UpdateSymbolAttributes(backend, sel, update)
}
