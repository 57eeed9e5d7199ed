package queryparse

import (
	"strings"

	"symgrep/internal/model"
)

// SymbolMatchesMetadata evaluates expr against a symbol using only its
// metadata (name, kind, file, language, calls, called-by). Content,
// comment, keyword, and description terms are neutral (always true) in
// this pass: they require a materialized surface that only
// SymbolMatchesWithText can see, so this pass is used to pre-filter
// symbols before the (more expensive) surface is built. literal forces
// name: terms to match whole-identifier rather than substring.
func SymbolMatchesMetadata(expr *Expr, symbol *model.Symbol, literal bool) bool {
	if expr == nil {
		return true
	}
	if expr.Term != nil {
		return matchesTermMetadata(expr.Term, symbol, literal)
	}
	if expr.And != nil {
		for _, c := range expr.And {
			if !SymbolMatchesMetadata(c, symbol, literal) {
				return false
			}
		}
		return true
	}
	for _, c := range expr.Or {
		if SymbolMatchesMetadata(c, symbol, literal) {
			return true
		}
	}
	return false
}

func matchesTermMetadata(t *Term, symbol *model.Symbol, literal bool) bool {
	switch t.Field {
	case FieldContent, FieldComment, FieldKeyword, FieldDescription:
		return true
	case FieldName:
		return matchName(t, symbol.Name, literal)
	case FieldKind:
		kind, ok := canonicalKind(t.Value)
		return ok && symbol.Kind == kind
	case FieldFile:
		return matchSubstring(t, symbol.File)
	case FieldLanguage:
		return strings.EqualFold(symbol.Language, t.Value)
	case FieldCalls:
		return matchCallRefs(t, symbol.Calls)
	case FieldCalledBy:
		return matchCallRefs(t, symbol.CalledBy)
	}
	return false
}

// SymbolMatchesWithText evaluates expr against a symbol with its
// materialized content surface available: content: terms match against
// name+signature+comment+keywords+description+snippet, and
// comment:/keyword:/description: resolve against the real attribute
// values instead of passing vacuously.
func SymbolMatchesWithText(expr *Expr, symbol *model.Symbol, snippet string, literal bool) bool {
	if expr == nil {
		return true
	}
	if expr.Term != nil {
		return matchesTermFull(expr.Term, symbol, snippet, literal)
	}
	if expr.And != nil {
		for _, c := range expr.And {
			if !SymbolMatchesWithText(c, symbol, snippet, literal) {
				return false
			}
		}
		return true
	}
	for _, c := range expr.Or {
		if SymbolMatchesWithText(c, symbol, snippet, literal) {
			return true
		}
	}
	return false
}

func matchesTermFull(t *Term, symbol *model.Symbol, snippet string, literal bool) bool {
	switch t.Field {
	case FieldContent:
		surface := symbol.SearchSurface(snippet)
		return matchSubstring(t, surface)
	case FieldName:
		return matchName(t, symbol.Name, literal)
	case FieldComment:
		if symbol.Attributes == nil || symbol.Attributes.Comment == "" {
			return false
		}
		return matchSubstring(t, symbol.Attributes.Comment)
	case FieldKeyword:
		if symbol.Attributes == nil || len(symbol.Attributes.Keywords) == 0 {
			return false
		}
		return matchKeywords(t, symbol.Attributes.Keywords)
	case FieldDescription:
		if symbol.Attributes == nil || symbol.Attributes.Description == "" {
			return false
		}
		return matchSubstring(t, symbol.Attributes.Description)
	default:
		return matchesTermMetadata(t, symbol, literal)
	}
}

// matchName applies name:'s default substring semantics, an explicit '='
// whole-match override, or literal word-boundary mode.
func matchName(t *Term, name string, literal bool) bool {
	if t.Op == OpExact {
		return name == t.Value
	}
	if literal {
		return name == t.Value
	}
	return strings.Contains(name, t.Value)
}

// matchSubstring applies a field's default substring semantics with an
// explicit '=' whole-match override.
func matchSubstring(t *Term, haystack string) bool {
	if t.Op == OpExact {
		return haystack == t.Value
	}
	return strings.Contains(haystack, t.Value)
}

// matchKeywords applies keyword:'s default exact-membership semantics,
// with an explicit '~' override enabling per-element substring matching.
func matchKeywords(t *Term, keywords []string) bool {
	for _, kw := range keywords {
		switch t.Op {
		case OpSubstring:
			if strings.Contains(kw, t.Value) {
				return true
			}
		default:
			if kw == t.Value {
				return true
			}
		}
	}
	return false
}

// matchCallRefs applies calls:/called-by:'s default substring semantics
// (empty value matches any call ref; '=' forces whole-name equality).
func matchCallRefs(t *Term, refs []model.CallRef) bool {
	if t.Value == "" {
		return true
	}
	for _, ref := range refs {
		if t.Op == OpExact {
			if ref.Name == t.Value {
				return true
			}
			continue
		}
		if strings.Contains(ref.Name, t.Value) {
			return true
		}
	}
	return false
}
