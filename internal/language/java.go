package language

import (
	"github.com/smacker/go-tree-sitter/java"

	"symgrep/internal/model"
)

// NewJavaBackend builds the Java backend.
//
// Grounded on internal/symbols/treesitter.go's class/interface/enum and
// method/constructor node-type tables.
func NewJavaBackend() Backend {
	spec := langSpec{
		id:         "java",
		extensions: []string{".java"},
		language:   java.GetLanguage(),
		kinds: map[string]kindSpec{
			"method_declaration":      {kind: model.KindMethod, nameField: "name", bodyField: "body"},
			"constructor_declaration": {kind: model.KindMethod, nameField: "name", bodyField: "body"},
			"class_declaration":       {kind: model.KindClass, nameField: "name", bodyField: "body", isParent: true},
			"interface_declaration":   {kind: model.KindInterface, nameField: "name", bodyField: "body", isParent: true},
			"enum_declaration":        {kind: model.KindClass, nameField: "name", bodyField: "body", isParent: true},
		},
		callTypes:         map[string]bool{"method_invocation": true},
		calleeField:       "name",
		decoratorPrefixes: []string{"@"},
	}
	return &treeSitterBackend{spec: spec}
}
