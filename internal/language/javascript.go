package language

import (
	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"

	"symgrep/internal/model"
)

// NewJavaScriptBackend builds the JavaScript/JSX backend.
//
// Grounded on internal/complexity/treesitter.go's function node-type
// table and internal/symbols/treesitter.go's class/method node-type
// tables for this language family.
func NewJavaScriptBackend() Backend {
	return &treeSitterBackend{spec: javascriptFamilySpec("javascript", []string{".js", ".jsx", ".mjs", ".cjs"}, javascript.GetLanguage())}
}

// javascriptFamilySpec is shared by JavaScript, TypeScript, and TSX: the
// three grammars expose near-identical node shapes for functions,
// classes, interfaces, and method definitions.
func javascriptFamilySpec(id string, extensions []string, lang *sitter.Language) langSpec {
	return langSpec{
		id:         id,
		extensions: extensions,
		language:   lang,
		kinds: map[string]kindSpec{
			"function_declaration":           {kind: model.KindFunction, nameField: "name", bodyField: "body"},
			"generator_function_declaration": {kind: model.KindFunction, nameField: "name", bodyField: "body"},
			"method_definition":               {kind: model.KindMethod, nameField: "name", bodyField: "body"},
			"class_declaration":               {kind: model.KindClass, nameField: "name", bodyField: "body", isParent: true},
			"interface_declaration":           {kind: model.KindInterface, nameField: "name", bodyField: "body", isParent: true},
		},
		callTypes:         map[string]bool{"call_expression": true},
		calleeField:       "function",
		decoratorPrefixes: []string{"@"},
	}
}
