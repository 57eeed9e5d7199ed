package queryparse

import (
	"strings"

	"symgrep/internal/errors"
)

// ParseQueryExpr parses a raw query string into an Expr.
//
// Grammar (spec §4.1): the query is a whitespace-separated sequence of
// AND-groups; each group is a `|`-separated sequence of OR-alternatives;
// each alternative is either `field:value`, `field:=value` (exact),
// `field:~value` (substring), or a bare value. Double-quoted values
// preserve embedded spaces and pipes. Within one OR-group, a bare
// alternative inherits the field of the first field-bearing alternative
// in that same group. If the query carries no field at all, every bare
// alternative becomes a content: term (the plain-grep case). Otherwise a
// bare alternative in a group with no field-bearing sibling defaults to
// name:.
func ParseQueryExpr(raw string) (*Expr, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, errors.New(errors.InvalidQuery, "query must not be empty")
	}

	groupStrs := splitUnquoted(trimmed, " \t\n")
	if len(groupStrs) == 0 {
		return nil, errors.New(errors.InvalidQuery, "query must not be empty")
	}

	type parsedTerm struct {
		field    Field
		hasField bool
		op       Op
		value    string
	}

	groups := make([][]parsedTerm, 0, len(groupStrs))
	globalHasField := false

	for _, g := range groupStrs {
		altStrs := splitUnquoted(g, "|")
		terms := make([]parsedTerm, 0, len(altStrs))
		for _, alt := range altStrs {
			alt = strings.TrimSpace(alt)
			if alt == "" {
				continue
			}
			field, hasField, op, value, err := parseAlt(alt)
			if err != nil {
				return nil, err
			}
			if hasField {
				globalHasField = true
			}
			terms = append(terms, parsedTerm{field: field, hasField: hasField, op: op, value: value})
		}
		if len(terms) == 0 {
			continue
		}
		groups = append(groups, terms)
	}
	if len(groups) == 0 {
		return nil, errors.New(errors.InvalidQuery, "query must not be empty")
	}

	andClauses := make([]*Expr, 0, len(groups))
	for _, terms := range groups {
		inherited, haveInherited := Field(""), false
		for _, t := range terms {
			if t.hasField {
				inherited, haveInherited = t.field, true
				break
			}
		}
		orClauses := make([]*Expr, 0, len(terms))
		for _, t := range terms {
			field := t.field
			if !t.hasField {
				switch {
				case haveInherited:
					field = inherited
				case globalHasField:
					field = FieldName
				default:
					field = FieldContent
				}
			}
			orClauses = append(orClauses, TermExpr(Term{Field: field, Op: t.op, Value: t.value}))
		}
		andClauses = append(andClauses, OrExpr(orClauses))
	}
	return AndExpr(andClauses), nil
}

// parseAlt parses one OR-alternative into its field (if any), operator,
// and value.
func parseAlt(alt string) (field Field, hasField bool, op Op, value string, err error) {
	idx := unquotedIndex(alt, ':')
	if idx < 0 {
		return "", false, OpDefault, unquote(alt), nil
	}
	name := strings.ToLower(strings.TrimSpace(alt[:idx]))
	resolved, ok := fieldAliases[name]
	rest := alt[idx+1:]
	if !ok {
		// Not a recognized field: the colon is part of the literal value
		// (e.g. a URL or a Go-style pkg:path token).
		return "", false, OpDefault, unquote(alt), nil
	}
	op = OpDefault
	if len(rest) > 0 {
		switch rest[0] {
		case '=':
			op = OpExact
			rest = rest[1:]
		case '~':
			op = OpSubstring
			rest = rest[1:]
		}
	}
	value = unquote(rest)
	if value == "" {
		return "", false, OpDefault, "", errors.New(errors.InvalidQuery, "field \""+name+"\" is missing a value")
	}
	return resolved, true, op, value, nil
}

// splitUnquoted splits s on any rune in seps, ignoring separators that
// fall inside a double-quoted span. Empty fragments are dropped.
func splitUnquoted(s string, seps string) []string {
	var out []string
	var cur strings.Builder
	inQuote := false
	flush := func() {
		if cur.Len() > 0 {
			out = append(out, cur.String())
			cur.Reset()
		}
	}
	for _, r := range s {
		switch {
		case r == '"':
			inQuote = !inQuote
			cur.WriteRune(r)
		case !inQuote && strings.ContainsRune(seps, r):
			flush()
		default:
			cur.WriteRune(r)
		}
	}
	flush()
	return out
}

// unquotedIndex returns the byte index of the first occurrence of sep in
// s that is not inside a double-quoted span, or -1.
func unquotedIndex(s string, sep rune) int {
	inQuote := false
	for i, r := range s {
		switch {
		case r == '"':
			inQuote = !inQuote
		case !inQuote && r == sep:
			return i
		}
	}
	return -1
}

// unquote strips one layer of surrounding double quotes, if present.
func unquote(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		return s[1 : len(s)-1]
	}
	return s
}
