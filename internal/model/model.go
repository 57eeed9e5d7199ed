// Package model holds the domain entities shared by the query, language,
// index, engine, and follow components: symbols, text ranges, context
// snippets, call edges, and the versioned result documents.
package model

// SearchResultVersion is the semver of the SearchResult document shape.
// Adding optional fields is a MINOR bump; removing or renaming required
// fields, or altering field semantics, is MAJOR.
const SearchResultVersion = "1.2.0"

// FollowResultVersion is the semver of the FollowResult document shape.
const FollowResultVersion = "1.0.0"

// IndexSchemaVersion identifies the on-disk index layout understood by
// this build. An index built with a newer schema_version is rejected with
// a VersionMismatch error rather than guessed at.
const IndexSchemaVersion = "1"

// TextRange is a half-open range with 1-based lines and columns; End is
// exclusive.
type TextRange struct {
	StartLine int `json:"start_line"`
	StartCol  int `json:"start_col"`
	EndLine   int `json:"end_line"`
	EndCol    int `json:"end_col"`
}

// Valid reports whether the range respects Start <= End ordering.
func (r TextRange) Valid() bool {
	if r.StartLine != r.EndLine {
		return r.StartLine < r.EndLine
	}
	return r.StartCol <= r.EndCol
}

// SymbolKind is the shared lowercase kind vocabulary. The DSL and every
// language backend normalize aliases (func, struct, ns, trait, enum) down
// to one of these.
type SymbolKind string

const (
	KindFunction  SymbolKind = "function"
	KindMethod    SymbolKind = "method"
	KindClass     SymbolKind = "class"
	KindInterface SymbolKind = "interface"
	KindVariable  SymbolKind = "variable"
	KindNamespace SymbolKind = "namespace"
)

// kindAliases maps DSL/source aliases to the canonical kind vocabulary.
var kindAliases = map[string]SymbolKind{
	"function":  KindFunction,
	"func":      KindFunction,
	"method":    KindMethod,
	"class":     KindClass,
	"struct":    KindClass,
	"interface": KindInterface,
	"trait":     KindInterface,
	"variable":  KindVariable,
	"var":       KindVariable,
	"namespace": KindNamespace,
	"ns":        KindNamespace,
	"module":    KindNamespace,
	"enum":      KindClass,
}

// ParseSymbolKind resolves a lowercase kind string (including aliases) to
// the canonical SymbolKind. The second return value is false for unknown
// kinds.
func ParseSymbolKind(s string) (SymbolKind, bool) {
	k, ok := kindAliases[s]
	return k, ok
}

// SymbolAttributes holds the mutable, externally-annotatable metadata
// carried alongside a Symbol: the extracted doc comment, user-supplied
// keywords and description.
type SymbolAttributes struct {
	Comment      string     `json:"comment,omitempty"`
	CommentRange *TextRange `json:"comment_range,omitempty"`
	Keywords     []string   `json:"keywords,omitempty"`
	Description  string     `json:"description,omitempty"`
}

// CallRef is a per-file, name-based call edge. No type or overload
// resolution is performed: Name is the callee's head identifier.
type CallRef struct {
	Name string `json:"name"`
	File string `json:"file"`
	Line int    `json:"line,omitempty"`
	Kind string `json:"kind,omitempty"`
}

// ContextNode is one entry in a symbol's parent chain. The file entry
// (parent_chain[0]) always has Kind == "" (rendered as JSON null) and Name
// equal to the file's basename.
type ContextNode struct {
	Name string  `json:"name"`
	Kind *string `json:"kind"`
}

// FileContextNode builds the file-level ContextNode required to start
// every parent chain: name is the file's basename, kind is null.
func FileContextNode(baseName string) ContextNode {
	return ContextNode{Name: baseName, Kind: nil}
}

// NamedContextNode builds a parent-chain entry for a named enclosing
// scope (namespace, module, class, etc).
func NamedContextNode(name string, kind SymbolKind) ContextNode {
	k := string(kind)
	return ContextNode{Name: name, Kind: &k}
}

// ContextKind selects which region of a symbol's source a ContextInfo
// describes.
type ContextKind string

const (
	ContextDecl    ContextKind = "decl"
	ContextDef     ContextKind = "def"
	ContextParent  ContextKind = "parent"
	ContextComment ContextKind = "comment"
)

// ContextInfo is a materialized text region tied to a symbol: its
// signature (decl), its full body (def), or its enclosing scope (parent).
// Snippet always contains the full selected region; it is never truncated
// by presentation flags.
type ContextInfo struct {
	Kind        ContextKind   `json:"kind"`
	File        string        `json:"file"`
	Range       TextRange     `json:"range"`
	Snippet     string        `json:"snippet"`
	SymbolIndex *int          `json:"symbol_index,omitempty"`
	ParentChain []ContextNode `json:"parent_chain"`
}

// Symbol is a named, located program entity extracted from a syntax tree.
type Symbol struct {
	Name         string            `json:"name"`
	Kind         SymbolKind        `json:"kind"`
	Language     string            `json:"language"`
	File         string            `json:"file"`
	Range        TextRange         `json:"range"`
	Signature    string            `json:"signature,omitempty"`
	Attributes   *SymbolAttributes `json:"attributes,omitempty"`
	DefLineCount *int              `json:"def_line_count,omitempty"`
	Matches      []int             `json:"matches,omitempty"`
	Calls        []CallRef         `json:"calls,omitempty"`
	CalledBy     []CallRef         `json:"called_by,omitempty"`
}

// SearchSurface returns the composite text a content: term is evaluated
// against: name, signature, comment, keywords joined by spaces,
// description, and (when non-empty) the selected context snippet.
func (s *Symbol) SearchSurface(snippet string) string {
	parts := []string{s.Name, s.Signature}
	if s.Attributes != nil {
		parts = append(parts, s.Attributes.Comment)
		if len(s.Attributes.Keywords) > 0 {
			joined := ""
			for i, kw := range s.Attributes.Keywords {
				if i > 0 {
					joined += " "
				}
				joined += kw
			}
			parts = append(parts, joined)
		}
		parts = append(parts, s.Attributes.Description)
	}
	if snippet != "" {
		parts = append(parts, snippet)
	}
	out := ""
	for _, p := range parts {
		if p == "" {
			continue
		}
		if out != "" {
			out += "\n"
		}
		out += p
	}
	return out
}

// SearchMatch is a single text-mode hit.
type SearchMatch struct {
	Path    string  `json:"path"`
	Line    int     `json:"line"`
	Column  int     `json:"column"`
	Snippet *string `json:"snippet"`
}

// SearchSummary reports result-set cardinality and truncation.
type SearchSummary struct {
	TotalMatches int  `json:"total_matches"`
	Truncated    bool `json:"truncated"`
}

// SearchResult is the top-level, versioned search response document.
type SearchResult struct {
	Version  string        `json:"version"`
	Query    string        `json:"query"`
	Matches  []SearchMatch `json:"matches"`
	Symbols  []Symbol      `json:"symbols"`
	Contexts []ContextInfo `json:"contexts"`
	Summary  SearchSummary `json:"summary"`
}

// NewSearchResult builds a SearchResult with the current document version
// and non-nil slice fields (so JSON marshals `[]` rather than `null`).
func NewSearchResult(query string) *SearchResult {
	return &SearchResult{
		Version:  SearchResultVersion,
		Query:    query,
		Matches:  []SearchMatch{},
		Symbols:  []Symbol{},
		Contexts: []ContextInfo{},
	}
}

// FollowSymbolRef is the compact symbol reference embedded in a follow edge.
type FollowSymbolRef struct {
	Name string  `json:"name"`
	Kind *string `json:"kind,omitempty"`
	File string  `json:"file"`
}

// CallSite is where a caller/callee edge was observed.
type CallSite struct {
	File   string `json:"file"`
	Line   int    `json:"line"`
	Column *int   `json:"column,omitempty"`
}

// FollowEdge groups call sites sharing the same (name, file, kind) target.
type FollowEdge struct {
	Symbol    FollowSymbolRef `json:"symbol"`
	CallSites []CallSite      `json:"call_sites"`
}

// FollowTarget pairs a matched symbol with its caller/callee edges.
type FollowTarget struct {
	Symbol   Symbol       `json:"symbol"`
	Callers  []FollowEdge `json:"callers,omitempty"`
	Callees  []FollowEdge `json:"callees,omitempty"`
}

// FollowDirection selects which edges to project.
type FollowDirection string

const (
	DirectionCallers FollowDirection = "callers"
	DirectionCallees FollowDirection = "callees"
	DirectionBoth    FollowDirection = "both"
)

// FollowResult is the top-level, versioned follow response document.
type FollowResult struct {
	Version   string          `json:"version"`
	Direction FollowDirection `json:"direction"`
	Query     string          `json:"query"`
	Targets   []FollowTarget  `json:"targets"`
}

// IndexBackendKind selects which on-disk index layout to use.
type IndexBackendKind string

const (
	IndexBackendFile   IndexBackendKind = "file"
	IndexBackendSQLite IndexBackendKind = "sqlite"
)

// FileRecord is the logical per-file index entry.
type FileRecord struct {
	ID       uint64 `json:"id"`
	Path     string `json:"path"`
	Language string `json:"language"`
	Hash     string `json:"hash,omitempty"`
	Mtime    int64  `json:"mtime"`
	Size     uint64 `json:"size,omitempty"`
}

// SymbolRecord is the logical per-symbol index entry; Extra carries the
// structured SymbolAttributes, serialized to JSON only at the storage
// boundary.
type SymbolRecord struct {
	ID        uint64            `json:"id"`
	FileID    uint64            `json:"file_id"`
	Name      string            `json:"name"`
	Kind      SymbolKind        `json:"kind"`
	Language  string            `json:"language"`
	Range     TextRange         `json:"range"`
	Signature string            `json:"signature,omitempty"`
	Extra     *SymbolAttributes `json:"extra,omitempty"`
}

// IdentityKey is the 5-tuple used to match symbols across reindex passes.
type IdentityKey struct {
	Kind      SymbolKind
	Name      string
	StartLine int
	EndLine   int
	Signature string
}

// Identity computes the record's identity key for reindex attribute merge.
func (r SymbolRecord) Identity() IdentityKey {
	return IdentityKey{
		Kind:      r.Kind,
		Name:      r.Name,
		StartLine: r.Range.StartLine,
		EndLine:   r.Range.EndLine,
		Signature: r.Signature,
	}
}

// IndexMeta is the index-wide metadata record.
type IndexMeta struct {
	SchemaVersion string `json:"schema_version"`
	ToolVersion   string `json:"tool_version"`
	RootPath      string `json:"root_path,omitempty"`
	// BuildID identifies one BuildIndex invocation's lineage; it is
	// generated once when the index is first created and carried
	// forward unchanged across every later refresh, so two index
	// directories/files can be compared for common ancestry.
	BuildID   string `json:"build_id,omitempty"`
	CreatedAt int64  `json:"created_at"`
	UpdatedAt int64  `json:"updated_at"`
}

// IndexSummary is the response document for an index build.
type IndexSummary struct {
	Backend        IndexBackendKind `json:"backend"`
	IndexPath      string           `json:"index_path"`
	FilesIndexed   int              `json:"files_indexed"`
	SymbolsIndexed int              `json:"symbols_indexed"`
	RootPath       string           `json:"root_path,omitempty"`
	SchemaVersion  string           `json:"schema_version,omitempty"`
	ToolVersion    string           `json:"tool_version,omitempty"`
	BuildID        string           `json:"build_id,omitempty"`
	CreatedAt      string           `json:"created_at,omitempty"`
	UpdatedAt      string           `json:"updated_at,omitempty"`
}
