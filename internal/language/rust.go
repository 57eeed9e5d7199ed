package language

import (
	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/rust"

	"symgrep/internal/model"
)

// NewRustBackend builds the Rust backend.
//
// Grounded on internal/symbols/treesitter.go's struct/enum/trait/impl
// node-type table and getClassName's impl_item fallback (scanning for a
// type_identifier child when no "name" field is present). Implements
// spec §4.2's Rust-specific rule directly: free functions and
// associated functions in impl blocks without a self receiver are
// KindFunction; any method taking self/&self/&mut self is KindMethod,
// detected by scanning the parameters field for a self_parameter node.
func NewRustBackend() Backend {
	spec := langSpec{
		id:         "rust",
		extensions: []string{".rs"},
		language:   rust.GetLanguage(),
		kinds: map[string]kindSpec{
			"function_item": {kind: model.KindFunction, nameField: "name", bodyField: "body"},
			"struct_item":   {kind: model.KindClass, nameField: "name", isParent: true},
			"enum_item":     {kind: model.KindClass, nameField: "name", isParent: true},
			"trait_item":    {kind: model.KindInterface, nameField: "name", bodyField: "body", isParent: true},
			"impl_item":     {kind: model.KindClass, nameField: "type", bodyField: "body", isParent: true},
		},
		callTypes:   map[string]bool{"call_expression": true},
		calleeField: "function",
		nameNode: func(node *sitter.Node) *sitter.Node {
			if node.Type() != "impl_item" {
				return nil
			}
			if n := node.ChildByFieldName("type"); n != nil {
				return firstNamedDescendantOfType(n, "type_identifier")
			}
			return nil
		},
		selfParamCheck: func(node *sitter.Node, src []byte) bool {
			if node.Type() != "function_item" {
				return false
			}
			params := node.ChildByFieldName("parameters")
			if params == nil || params.NamedChildCount() == 0 {
				return false
			}
			return params.NamedChild(0).Type() == "self_parameter"
		},
	}
	return &treeSitterBackend{spec: spec}
}

// firstNamedDescendantOfType performs a depth-first search for the first
// named descendant of the given tree-sitter node type.
func firstNamedDescendantOfType(node *sitter.Node, nodeType string) *sitter.Node {
	if node == nil {
		return nil
	}
	if node.Type() == nodeType {
		return node
	}
	for i := 0; i < int(node.NamedChildCount()); i++ {
		if found := firstNamedDescendantOfType(node.NamedChild(i), nodeType); found != nil {
			return found
		}
	}
	return nil
}

// firstDirectChildOfType returns node's first immediate child (not a
// deep descendant) matching nodeType.
func firstDirectChildOfType(node *sitter.Node, nodeType string) *sitter.Node {
	if node == nil {
		return nil
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		if child := node.Child(i); child != nil && child.Type() == nodeType {
			return child
		}
	}
	return nil
}
