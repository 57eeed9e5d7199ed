package language

import (
	"github.com/smacker/go-tree-sitter/typescript/tsx"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
)

// NewTypeScriptBackend builds the TypeScript backend, sharing the
// JavaScript family's node-type table (tree-sitter-typescript is a
// superset grammar of tree-sitter-javascript for these shapes).
func NewTypeScriptBackend() Backend {
	return &treeSitterBackend{spec: javascriptFamilySpec("typescript", []string{".ts"}, typescript.GetLanguage())}
}

// NewTSXBackend builds the TSX backend.
func NewTSXBackend() Backend {
	return &treeSitterBackend{spec: javascriptFamilySpec("tsx", []string{".tsx"}, tsx.GetLanguage())}
}
