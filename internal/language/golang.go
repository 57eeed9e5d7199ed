package language

import (
	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/golang"

	"symgrep/internal/model"
)

// NewGoBackend builds the Go language backend.
//
// Grounded on the teacher's internal/complexity/treesitter.go (function
// node types) and internal/symbols/treesitter.go (getClassName's
// type_spec-under-type_declaration walk, getClassKind's struct/interface
// distinction). Go methods are separate top-level method_declaration
// nodes carrying a "receiver" field; the method_declaration entry below
// maps them to KindMethod, and methodReceiverField marks any
// receiver-carrying node as a method.
func NewGoBackend() Backend {
	spec := langSpec{
		id:         "go",
		extensions: []string{".go"},
		language:   golang.GetLanguage(),
		kinds: map[string]kindSpec{
			"function_declaration": {kind: model.KindFunction, nameField: "name", bodyField: "body"},
			"method_declaration":   {kind: model.KindMethod, nameField: "name", bodyField: "body"},
			"type_declaration":     {kind: model.KindClass, nameField: "name", bodyField: "", isParent: true},
		},
		callTypes:           map[string]bool{"call_expression": true},
		calleeField:         "function",
		methodReceiverField: "receiver",
		nameNode: func(node *sitter.Node) *sitter.Node {
			if node.Type() != "type_declaration" {
				return nil
			}
			for i := 0; i < int(node.ChildCount()); i++ {
				child := node.Child(i)
				if child != nil && child.Type() == "type_spec" {
					return child.ChildByFieldName("name")
				}
			}
			return nil
		},
		kindOverride: func(node *sitter.Node, src []byte) (model.SymbolKind, bool) {
			if node.Type() != "type_declaration" {
				return "", false
			}
			for i := 0; i < int(node.ChildCount()); i++ {
				child := node.Child(i)
				if child == nil || child.Type() != "type_spec" {
					continue
				}
				typeNode := child.ChildByFieldName("type")
				if typeNode != nil && typeNode.Type() == "interface_type" {
					return model.KindInterface, true
				}
				return model.KindClass, true
			}
			return "", false
		},
	}
	return &treeSitterBackend{spec: spec}
}
