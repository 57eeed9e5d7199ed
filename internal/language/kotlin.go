package language

import (
	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/kotlin"

	"symgrep/internal/model"
)

// NewKotlinBackend builds the Kotlin backend.
//
// Grounded on internal/symbols/treesitter.go's Kotlin handling: function
// and class names live on a "simple_identifier" direct child rather
// than a named "name" field, so both use nameNode instead of nameField.
func NewKotlinBackend() Backend {
	findSimpleIdentifier := func(node *sitter.Node) *sitter.Node {
		return firstDirectChildOfType(node, "simple_identifier")
	}
	spec := langSpec{
		id:         "kotlin",
		extensions: []string{".kt", ".kts"},
		language:   kotlin.GetLanguage(),
		kinds: map[string]kindSpec{
			"function_declaration":  {kind: model.KindFunction, bodyField: "body"},
			"class_declaration":     {kind: model.KindClass, bodyField: "body", isParent: true},
			"interface_declaration": {kind: model.KindInterface, bodyField: "body", isParent: true},
			"object_declaration":    {kind: model.KindClass, bodyField: "body", isParent: true},
		},
		callTypes:         map[string]bool{"call_expression": true},
		calleeField:       "",
		decoratorPrefixes: []string{"@"},
		nameNode: func(node *sitter.Node) *sitter.Node {
			return findSimpleIdentifier(node)
		},
		kindOverride: func(node *sitter.Node, src []byte) (model.SymbolKind, bool) {
			switch node.Type() {
			case "class_declaration":
				if firstDirectChildOfType(node, "interface") != nil {
					return model.KindInterface, true
				}
			case "function_declaration":
				if classBody := node.Parent(); classBody != nil {
					if owner := classBody.Parent(); owner != nil {
						switch owner.Type() {
						case "class_declaration", "object_declaration":
							return model.KindMethod, true
						}
					}
				}
			}
			return "", false
		},
	}
	return &treeSitterBackend{spec: spec}
}
