// Package language implements the per-language backends: parsing source
// into a tree-sitter syntax tree, extracting symbols, computing
// decl/def/parent context snippets, and extracting call edges.
//
// Backends never read the environment, never print, and never leak
// tree-sitter node types outside this package (spec §4.2).
package language

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"symgrep/internal/errors"
	"symgrep/internal/model"
)

// ParsedFile is a parsed source file: its syntax tree, source bytes, and
// the id of the language backend that produced it.
type ParsedFile struct {
	LanguageID string
	Path       string
	Tree       *sitter.Tree
	Source     []byte
}

// Lines splits the source into its constituent lines, matching the
// line-oriented slicing used by context-snippet extraction.
func (pf *ParsedFile) Lines() []string {
	return strings.Split(string(pf.Source), "\n")
}

// Backend is the contract every language implementation satisfies (spec
// §4.2): id, file extensions, parse, symbol extraction, context
// snippets, call extraction.
type Backend interface {
	ID() string
	FileExtensions() []string
	ParseFile(ctx context.Context, path string, source []byte) (*ParsedFile, error)
	IndexSymbols(pf *ParsedFile) ([]model.Symbol, error)
	GetContextSnippet(pf *ParsedFile, symbol *model.Symbol, kind model.ContextKind) (model.ContextInfo, error)
	ExtractCalls(pf *ParsedFile, symbol *model.Symbol) ([]model.CallRef, error)
}

// kindSpec maps a tree-sitter node type to the symbol kind it produces,
// along with the field names used to pull its name and body.
type kindSpec struct {
	kind       model.SymbolKind
	nameField  string
	bodyField  string
	isParent   bool // also usable as a parent-chain entry (namespace/class/etc)
}

// langSpec is the declarative description of one language backend; the
// shared treeSitterBackend drives extraction entirely off this table.
type langSpec struct {
	id          string
	extensions  []string
	language    *sitter.Language
	kinds       map[string]kindSpec
	callTypes   map[string]bool   // node types that are call expressions
	calleeField string            // field name holding the callee expression on a call node
	decoratorPrefixes []string    // line prefixes treated as decorators (skipped, not consumed as comment)
	// methodReceiverField, when non-empty, names the field on a
	// "function-shaped" node whose presence reclassifies it from
	// KindFunction to KindMethod (Go's "receiver" field).
	methodReceiverField string
	// selfParamCheck, when non-nil, is used instead (Rust: scan the
	// parameter list for a leading self/&self/&mut self parameter).
	selfParamCheck func(node *sitter.Node, src []byte) bool
	// nameNode, when non-nil, overrides the default ChildByFieldName(nameField)
	// lookup for node types whose name lives on a descendant rather than a
	// direct field (Go's type_declaration -> type_spec -> name).
	nameNode func(node *sitter.Node) *sitter.Node
	// kindOverride, when non-nil, refines a node's kind beyond the static
	// kindSpec table entry (Go's type_spec: struct vs interface).
	kindOverride func(node *sitter.Node, src []byte) (model.SymbolKind, bool)
}

// treeSitterBackend is the shared Backend implementation driven by a
// langSpec; every per-language file in this package constructs one of
// these with its own table.
type treeSitterBackend struct {
	spec langSpec
}

func (b *treeSitterBackend) ID() string             { return b.spec.id }
func (b *treeSitterBackend) FileExtensions() []string { return b.spec.extensions }

func (b *treeSitterBackend) ParseFile(ctx context.Context, path string, source []byte) (*ParsedFile, error) {
	parser := sitter.NewParser()
	parser.SetLanguage(b.spec.language)
	tree, err := parser.ParseCtx(ctx, nil, source)
	if err != nil {
		return nil, errors.NewParseError(path, err)
	}
	if tree.RootNode().HasError() {
		return nil, errors.NewParseError(path, fmt.Errorf("syntax errors in %s", path))
	}
	return &ParsedFile{LanguageID: b.spec.id, Path: path, Tree: tree, Source: source}, nil
}

// pointToPosition converts a 0-based tree-sitter point into a 1-based
// line/column pair.
func pointToPosition(p sitter.Point) (int, int) {
	return int(p.Row) + 1, int(p.Column) + 1
}

func textRangeToPoints(r model.TextRange) (sitter.Point, sitter.Point) {
	start := sitter.Point{Row: uint32(max0(r.StartLine - 1)), Column: uint32(max0(r.StartCol - 1))}
	end := sitter.Point{Row: uint32(max0(r.EndLine - 1)), Column: uint32(max0(r.EndCol - 1))}
	return start, end
}

func max0(v int) int {
	if v < 0 {
		return 0
	}
	return v
}

func nodeTextRange(n *sitter.Node) model.TextRange {
	startLine, startCol := pointToPosition(n.StartPoint())
	endLine, endCol := pointToPosition(n.EndPoint())
	return model.TextRange{StartLine: startLine, StartCol: startCol, EndLine: endLine, EndCol: endCol}
}

// findSymbolNode re-walks the tree to locate the node matching a
// symbol's recorded range, used when computing context snippets and
// call edges without keeping back-pointers into the tree.
func findSymbolNode(pf *ParsedFile, symbol *model.Symbol) *sitter.Node {
	root := pf.Tree.RootNode()
	start, end := textRangeToPoints(symbol.Range)
	return root.NamedDescendantForPointRange(start, end)
}

// fileContextNode builds the file-level entry that starts every parent
// chain: basename, kind nil.
func fileContextNode(pf *ParsedFile) model.ContextNode {
	return model.FileContextNode(filepath.Base(pf.Path))
}

// contextSnippetForRange slices pf's source by line range into a
// ContextInfo, independent of any particular syntax node.
func contextSnippetForRange(pf *ParsedFile, kind model.ContextKind, r model.TextRange) model.ContextInfo {
	lines := pf.Lines()
	startIdx := max0(r.StartLine - 1)
	if len(lines) == 0 || startIdx >= len(lines) {
		return model.ContextInfo{Kind: kind, File: pf.Path, Range: r, ParentChain: []model.ContextNode{}}
	}
	endIdx := r.EndLine - 1
	if endIdx >= len(lines) {
		endIdx = len(lines) - 1
	}
	if endIdx < startIdx {
		endIdx = startIdx
	}
	snippet := strings.Join(lines[startIdx:endIdx+1], "\n")
	return model.ContextInfo{Kind: kind, File: pf.Path, Range: r, Snippet: snippet, ParentChain: []model.ContextNode{}}
}

// commentLineKind classifies one line during leading-comment collection.
type commentLineKind int

const (
	commentNotComment commentLineKind = iota
	commentDelimiter
	commentContent
)

func classifyCommentLine(line string) (commentLineKind, string) {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return commentNotComment, ""
	}
	switch {
	case strings.HasPrefix(trimmed, "///"):
		body := strings.TrimSpace(strings.TrimPrefix(trimmed, "///"))
		if body == "" {
			return commentDelimiter, ""
		}
		return commentContent, body
	case strings.HasPrefix(trimmed, "//"):
		body := strings.TrimSpace(strings.TrimPrefix(trimmed, "//"))
		if body == "" {
			return commentDelimiter, ""
		}
		return commentContent, body
	case strings.HasPrefix(trimmed, "#"):
		body := strings.TrimSpace(strings.TrimPrefix(trimmed, "#"))
		if body == "" {
			return commentDelimiter, ""
		}
		return commentContent, body
	case strings.HasPrefix(trimmed, "/*"):
		body := strings.TrimSpace(strings.TrimPrefix(trimmed, "/*"))
		body = strings.TrimSuffix(body, "*/")
		body = strings.TrimSpace(strings.TrimPrefix(body, "*"))
		if body == "" {
			return commentDelimiter, ""
		}
		return commentContent, body
	case strings.HasPrefix(trimmed, "*"):
		body := strings.TrimSpace(strings.TrimPrefix(trimmed, "*"))
		if body == "" {
			return commentDelimiter, ""
		}
		return commentContent, body
	default:
		return commentNotComment, ""
	}
}

// collectLeadingComment walks upward from startLine-1, gathering a
// contiguous leading comment block immediately preceding a symbol. It
// skips over decorator/annotation lines (matched by isDecoratorLine) and
// over a single blank line directly above the symbol. It stops at a
// second blank line, at a blank line once a comment or decorator line
// has been seen, or at the first non-comment, non-decorator line.
func collectLeadingComment(source string, startLine int, isDecoratorLine func(string) bool) (string, *model.TextRange) {
	if startLine <= 1 {
		return "", nil
	}
	lines := strings.Split(source, "\n")
	if len(lines) == 0 {
		return "", nil
	}

	idx := startLine - 2 // line directly above the symbol, 0-based
	if idx < 0 {
		return "", nil
	}

	var collected []string
	sawAny := false
	sawBlank := false
	minIdx, maxIdx := -1, -1

	for idx >= 0 {
		line := lines[idx]
		trimmed := strings.TrimRight(line, " \t\r")
		if strings.TrimSpace(trimmed) == "" {
			if sawAny || sawBlank {
				break
			}
			sawBlank = true
			idx--
			continue
		}
		if isDecoratorLine != nil && isDecoratorLine(trimmed) {
			sawAny = true
			idx--
			continue
		}
		kind, body := classifyCommentLine(trimmed)
		switch kind {
		case commentContent:
			sawAny = true
			collected = append(collected, body)
			if minIdx == -1 || idx < minIdx {
				minIdx = idx
			}
			if maxIdx == -1 || idx > maxIdx {
				maxIdx = idx
			}
			idx--
		case commentDelimiter:
			sawAny = true
			if minIdx == -1 || idx < minIdx {
				minIdx = idx
			}
			if maxIdx == -1 || idx > maxIdx {
				maxIdx = idx
			}
			idx--
		default:
			idx = -1 // stop
		}
	}

	if len(collected) == 0 {
		return "", nil
	}
	for i, j := 0, len(collected)-1; i < j; i, j = i+1, j-1 {
		collected[i], collected[j] = collected[j], collected[i]
	}
	text := strings.Join(collected, "\n")
	endLine := lines[maxIdx]
	r := model.TextRange{
		StartLine: minIdx + 1,
		StartCol:  1,
		EndLine:   maxIdx + 1,
		EndCol:    len(endLine) + 1,
	}
	return text, &r
}

// basicContextSnippet computes a decl/def/parent ContextInfo directly
// from a symbol's recorded range, used as the fallback whenever the
// syntax node can't be re-located for a finer-grained snippet.
func basicContextSnippet(pf *ParsedFile, symbol *model.Symbol, kind model.ContextKind) model.ContextInfo {
	var r model.TextRange
	switch kind {
	case model.ContextDecl:
		r = model.TextRange{StartLine: symbol.Range.StartLine, EndLine: symbol.Range.StartLine}
	case model.ContextComment:
		if symbol.Attributes != nil && symbol.Attributes.CommentRange != nil {
			r = *symbol.Attributes.CommentRange
		}
	default:
		r = symbol.Range
	}
	return contextSnippetForRange(pf, kind, r)
}

// calleeHeadIdentifier returns the trailing identifier of a callee
// expression: `foo(...)` -> foo, `obj.foo(...)` -> foo, `a.b.foo(...)`
// -> foo. No type or overload resolution is performed (spec §4.2).
func calleeHeadIdentifier(callee *sitter.Node, src []byte) (string, bool) {
	if callee == nil {
		return "", false
	}
	switch callee.Type() {
	case "identifier", "field_identifier", "property_identifier", "type_identifier":
		return string(src[callee.StartByte():callee.EndByte()]), true
	}
	// Descend through qualified/selector expressions to the trailing
	// identifier: last named child, recursively.
	if callee.NamedChildCount() > 0 {
		last := callee.NamedChild(int(callee.NamedChildCount()) - 1)
		return calleeHeadIdentifier(last, src)
	}
	text := strings.TrimSpace(string(src[callee.StartByte():callee.EndByte()]))
	if text == "" {
		return "", false
	}
	return text, true
}

// walkCalls walks node's subtree collecting call edges whose node type
// is in callTypes, using calleeField to locate the callee expression.
func walkCalls(node *sitter.Node, src []byte, file string, callTypes map[string]bool, calleeField string, out *[]model.CallRef) {
	if node == nil {
		return
	}
	if callTypes[node.Type()] {
		callee := node.ChildByFieldName(calleeField)
		if callee == nil && node.NamedChildCount() > 0 {
			callee = node.NamedChild(0)
		}
		if name, ok := calleeHeadIdentifier(callee, src); ok {
			line, _ := pointToPosition(node.StartPoint())
			*out = append(*out, model.CallRef{Name: name, File: file, Line: line})
		}
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		walkCalls(node.Child(i), src, file, callTypes, calleeField, out)
	}
}

// signatureText extracts a single-line signature: the node's source
// from its start up to the start of its body (or its first line, if no
// body field applies), collapsing internal newlines to spaces and
// trimming a trailing opening brace.
func signatureText(node *sitter.Node, spec kindSpec, src []byte) string {
	end := node.EndByte()
	if spec.bodyField != "" {
		if body := node.ChildByFieldName(spec.bodyField); body != nil {
			end = body.StartByte()
		}
	}
	raw := string(src[node.StartByte():end])
	raw = strings.TrimRight(raw, " \t\r\n{")
	raw = strings.Join(strings.Fields(raw), " ")
	return raw
}

// resolveNameNode finds the identifier-bearing node for a symbol node,
// preferring spec.nameNode's descendant lookup when provided.
func resolveNameNode(spec *langSpec, node *sitter.Node, field string) *sitter.Node {
	if spec.nameNode != nil {
		if n := spec.nameNode(node); n != nil {
			return n
		}
	}
	return node.ChildByFieldName(field)
}

// nodeName extracts the identifier text for node's name field.
func nodeName(spec *langSpec, node *sitter.Node, field string, src []byte) string {
	nameNode := resolveNameNode(spec, node, field)
	if nameNode == nil {
		return ""
	}
	return string(src[nameNode.StartByte():nameNode.EndByte()])
}

// walkSymbols performs a depth-first walk over the tree, emitting a
// Symbol for every node whose type is in spec.kinds, and recursing into
// every child regardless (nested functions/classes are all extracted;
// the parent-chain relationship is reconstructed separately by
// parentChainFor).
func walkSymbols(spec *langSpec, pf *ParsedFile) []model.Symbol {
	var out []model.Symbol
	var visit func(n *sitter.Node)
	visit = func(n *sitter.Node) {
		if n == nil {
			return
		}
		if ks, ok := spec.kinds[n.Type()]; ok {
			name := nodeName(spec, n, ks.nameField, pf.Source)
			if name != "" {
				kind := ks.kind
				if spec.kindOverride != nil {
					if override, ok := spec.kindOverride(n, pf.Source); ok {
						kind = override
					}
				}
				if spec.methodReceiverField != "" && n.ChildByFieldName(spec.methodReceiverField) != nil {
					kind = model.KindMethod
				}
				if spec.selfParamCheck != nil && spec.selfParamCheck(n, pf.Source) {
					kind = model.KindMethod
				}
				sym := model.Symbol{
					Name:      name,
					Kind:      kind,
					Language:  spec.id,
					File:      pf.Path,
					Range:     nodeTextRange(n),
					Signature: signatureText(n, ks, pf.Source),
				}
				comment, commentRange := collectLeadingComment(string(pf.Source), sym.Range.StartLine, decoratorMatcher(spec.decoratorPrefixes))
				if comment != "" {
					sym.Attributes = &model.SymbolAttributes{Comment: comment, CommentRange: commentRange}
				}
				out = append(out, sym)
			}
		}
		for i := 0; i < int(n.ChildCount()); i++ {
			visit(n.Child(i))
		}
	}
	visit(pf.Tree.RootNode())
	return out
}

func decoratorMatcher(prefixes []string) func(string) bool {
	if len(prefixes) == 0 {
		return nil
	}
	return func(line string) bool {
		trimmed := strings.TrimSpace(line)
		for _, p := range prefixes {
			if strings.HasPrefix(trimmed, p) {
				return true
			}
		}
		return false
	}
}

func (b *treeSitterBackend) IndexSymbols(pf *ParsedFile) ([]model.Symbol, error) {
	symbols := walkSymbols(&b.spec, pf)
	for i := range symbols {
		calls, err := b.ExtractCalls(pf, &symbols[i])
		if err != nil {
			return nil, err
		}
		symbols[i].Calls = calls
	}
	return symbols, nil
}

func (b *treeSitterBackend) GetContextSnippet(pf *ParsedFile, symbol *model.Symbol, kind model.ContextKind) (model.ContextInfo, error) {
	node := findSymbolNode(pf, symbol)
	if node == nil {
		info := basicContextSnippet(pf, symbol, kind)
		info.ParentChain = b.parentChainFor(pf, symbol, nil)
		return info, nil
	}
	var info model.ContextInfo
	switch kind {
	case model.ContextDecl:
		ks := b.spec.kinds[node.Type()]
		end := node.EndByte()
		if ks.bodyField != "" {
			if body := node.ChildByFieldName(ks.bodyField); body != nil {
				end = body.StartByte()
			}
		}
		startLine, _ := pointToPosition(node.StartPoint())
		endLine, endCol := pointToPosition(offsetToPoint(pf, end))
		r := model.TextRange{StartLine: startLine, StartCol: 1, EndLine: endLine, EndCol: endCol}
		info = contextSnippetForRange(pf, kind, r)
	case model.ContextParent:
		parentNode := enclosingNamedParent(&b.spec, node)
		if parentNode == nil {
			info = contextSnippetForRange(pf, kind, model.TextRange{StartLine: 1, EndLine: len(pf.Lines())})
		} else {
			info = contextSnippetForRange(pf, kind, nodeTextRange(parentNode))
		}
	case model.ContextComment:
		var r model.TextRange
		if symbol.Attributes != nil && symbol.Attributes.CommentRange != nil {
			r = *symbol.Attributes.CommentRange
		}
		info = contextSnippetForRange(pf, kind, r)
	default: // def
		info = contextSnippetForRange(pf, kind, symbol.Range)
	}
	info.ParentChain = b.parentChainFor(pf, symbol, node)
	return info, nil
}

// offsetToPoint finds the 0-based point (line/col) for a byte offset by
// counting newlines and bytes in the source up to that offset; used
// only to compute the decl snippet's end line/column from a body's
// start byte.
func offsetToPoint(pf *ParsedFile, offset uint32) sitter.Point {
	src := pf.Source
	if offset > uint32(len(src)) {
		offset = uint32(len(src))
	}
	line, col := 0, 0
	for i := uint32(0); i < offset; i++ {
		if src[i] == '\n' {
			line++
			col = 0
		} else {
			col++
		}
	}
	return sitter.Point{Row: uint32(line), Column: uint32(col)}
}

// enclosingNamedParent walks up from node to the nearest ancestor whose
// type is registered as a parent-capable kind (namespace/class/impl/etc).
func enclosingNamedParent(spec *langSpec, node *sitter.Node) *sitter.Node {
	cur := node.Parent()
	for cur != nil {
		if ks, ok := spec.kinds[cur.Type()]; ok && ks.isParent {
			return cur
		}
		cur = cur.Parent()
	}
	return nil
}

// parentChainFor builds the full parent chain for symbol: the file
// entry, followed by every enclosing named scope from outermost to
// innermost.
func (b *treeSitterBackend) parentChainFor(pf *ParsedFile, symbol *model.Symbol, node *sitter.Node) []model.ContextNode {
	chain := []model.ContextNode{fileContextNode(pf)}
	if node == nil {
		return chain
	}
	var ancestors []model.ContextNode
	cur := node.Parent()
	for cur != nil {
		if ks, ok := b.spec.kinds[cur.Type()]; ok && ks.isParent {
			name := nodeName(&b.spec, cur, ks.nameField, pf.Source)
			kind := ks.kind
			if b.spec.kindOverride != nil {
				if override, ok := b.spec.kindOverride(cur, pf.Source); ok {
					kind = override
				}
			}
			if name != "" {
				ancestors = append(ancestors, model.NamedContextNode(name, kind))
			}
		}
		cur = cur.Parent()
	}
	for i := len(ancestors) - 1; i >= 0; i-- {
		chain = append(chain, ancestors[i])
	}
	return chain
}

func (b *treeSitterBackend) ExtractCalls(pf *ParsedFile, symbol *model.Symbol) ([]model.CallRef, error) {
	node := findSymbolNode(pf, symbol)
	if node == nil {
		return nil, nil
	}
	body := node
	if ks, ok := b.spec.kinds[node.Type()]; ok && ks.bodyField != "" {
		if b := node.ChildByFieldName(ks.bodyField); b != nil {
			body = b
		}
	}
	var calls []model.CallRef
	walkCalls(body, pf.Source, pf.Path, b.spec.callTypes, b.spec.calleeField, &calls)
	return calls, nil
}

// AttachCalledBy computes called_by as the reverse projection of calls
// within one file's symbol set (spec §4.2): for each call edge of
// symbol S targeting name N, every symbol T in the same file named N
// gets `CallRef{T.name, file, S.range.start_line, T.kind}` appended to
// T.CalledBy. Purely intra-file; run once per file after IndexSymbols.
func AttachCalledBy(symbols []model.Symbol) {
	byName := make(map[string][]int)
	for i, s := range symbols {
		byName[s.Name] = append(byName[s.Name], i)
	}
	for si := range symbols {
		s := &symbols[si]
		for _, call := range s.Calls {
			for _, ti := range byName[call.Name] {
				t := &symbols[ti]
				t.CalledBy = append(t.CalledBy, model.CallRef{
					Name: t.Name,
					File: t.File,
					Line: s.Range.StartLine,
					Kind: string(t.Kind),
				})
			}
		}
	}
}
