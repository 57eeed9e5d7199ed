package language

import (
	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"

	"symgrep/internal/model"
)

// NewPythonBackend builds the Python backend.
//
// Grounded on internal/complexity/treesitter.go's function/decision node
// tables and internal/symbols/treesitter.go's class_definition handling.
// Python has no receiver field, so a function_definition nested directly
// inside a class_definition's body block is promoted to KindMethod via
// kindOverride walking two levels up (function -> block -> class).
func NewPythonBackend() Backend {
	spec := langSpec{
		id:         "python",
		extensions: []string{".py", ".pyi"},
		language:   python.GetLanguage(),
		kinds: map[string]kindSpec{
			"function_definition": {kind: model.KindFunction, nameField: "name", bodyField: "body"},
			"class_definition":    {kind: model.KindClass, nameField: "name", bodyField: "body", isParent: true},
		},
		callTypes:         map[string]bool{"call": true},
		calleeField:       "function",
		decoratorPrefixes: []string{"@"},
		kindOverride: func(node *sitter.Node, src []byte) (model.SymbolKind, bool) {
			if node.Type() != "function_definition" {
				return "", false
			}
			if block := node.Parent(); block != nil {
				if classNode := block.Parent(); classNode != nil && classNode.Type() == "class_definition" {
					return model.KindMethod, true
				}
			}
			return "", false
		},
	}
	return &treeSitterBackend{spec: spec}
}
