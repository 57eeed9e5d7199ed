package queryparse

import (
	"testing"

	"symgrep/internal/model"
)

func requireTerm(t *testing.T, e *Expr) *Term {
	t.Helper()
	if e == nil || e.Term == nil {
		t.Fatalf("expected a leaf term, got %+v", e)
	}
	return e.Term
}

func TestParseBarePatternBecomesContentTerm(t *testing.T) {
	expr, err := ParseQueryExpr("foo")
	if err != nil {
		t.Fatalf("ParseQueryExpr: %v", err)
	}
	term := requireTerm(t, expr)
	if term.Field != FieldContent || term.Value != "foo" {
		t.Errorf("got %+v, want content:foo", term)
	}
}

func TestParseBarePatternWithOrAsContentTerms(t *testing.T) {
	expr, err := ParseQueryExpr("foo|bar")
	if err != nil {
		t.Fatalf("ParseQueryExpr: %v", err)
	}
	if len(expr.Or) != 2 {
		t.Fatalf("expected top-level OR with 2 alts, got %+v", expr)
	}
	for i, want := range []string{"foo", "bar"} {
		term := requireTerm(t, expr.Or[i])
		if term.Field != FieldContent || term.Value != want {
			t.Errorf("alt %d = %+v, want content:%s", i, term, want)
		}
	}
}

func TestParseFieldOrGroupNormalizesField(t *testing.T) {
	expr, err := ParseQueryExpr("kind:function|method")
	if err != nil {
		t.Fatalf("ParseQueryExpr: %v", err)
	}
	if len(expr.Or) != 2 {
		t.Fatalf("expected OR with 2 alts, got %+v", expr)
	}
	for _, alt := range expr.Or {
		term := requireTerm(t, alt)
		if term.Field != FieldKind {
			t.Errorf("alt = %+v, want field kind", term)
		}
		if term.Value != "function" && term.Value != "method" {
			t.Errorf("alt value = %q, want function or method", term.Value)
		}
	}
}

func TestParseNameAndKindWithOr(t *testing.T) {
	expr, err := ParseQueryExpr("name:foo|bar kind:function")
	if err != nil {
		t.Fatalf("ParseQueryExpr: %v", err)
	}
	if len(expr.And) != 2 {
		t.Fatalf("expected top-level AND with 2 groups, got %+v", expr)
	}
	group0 := expr.And[0]
	if len(group0.Or) != 2 {
		t.Fatalf("expected OR group for name, got %+v", group0)
	}
	for _, alt := range group0.Or {
		term := requireTerm(t, alt)
		if term.Field != FieldName {
			t.Errorf("alt = %+v, want field name", term)
		}
	}
	kindTerm := requireTerm(t, expr.And[1])
	if kindTerm.Field != FieldKind || kindTerm.Value != "function" {
		t.Errorf("got %+v, want kind:function", kindTerm)
	}
}

func TestParseQuotedValuePreservesSpaces(t *testing.T) {
	expr, err := ParseQueryExpr(`content:"rate limit" name:foo`)
	if err != nil {
		t.Fatalf("ParseQueryExpr: %v", err)
	}
	if len(expr.And) != 2 {
		t.Fatalf("expected 2 AND groups, got %+v", expr)
	}
	first := requireTerm(t, expr.And[0])
	if first.Field != FieldContent || first.Value != "rate limit" {
		t.Errorf("got %+v, want content:\"rate limit\"", first)
	}
}

func TestParseCommentKeywordDescriptionFields(t *testing.T) {
	expr, err := ParseQueryExpr(`comment:auth keyword:jwt desc:"issues tokens"`)
	if err != nil {
		t.Fatalf("ParseQueryExpr: %v", err)
	}
	if len(expr.And) != 3 {
		t.Fatalf("expected 3 AND groups, got %+v", expr)
	}
	want := []struct {
		field Field
		value string
	}{
		{FieldComment, "auth"},
		{FieldKeyword, "jwt"},
		{FieldDescription, "issues tokens"},
	}
	for i, w := range want {
		term := requireTerm(t, expr.And[i])
		if term.Field != w.field || term.Value != w.value {
			t.Errorf("group %d = %+v, want %s:%s", i, term, w.field, w.value)
		}
	}
}

func TestParseBareTokenDefaultsToNameWhenOtherTokensHaveFields(t *testing.T) {
	expr, err := ParseQueryExpr("kind:function loginUser")
	if err != nil {
		t.Fatalf("ParseQueryExpr: %v", err)
	}
	if len(expr.And) != 2 {
		t.Fatalf("expected 2 AND groups, got %+v", expr)
	}
	bare := requireTerm(t, expr.And[1])
	if bare.Field != FieldName || bare.Value != "loginUser" {
		t.Errorf("got %+v, want name:loginUser", bare)
	}
}

func TestParseEmptyQueryIsInvalid(t *testing.T) {
	if _, err := ParseQueryExpr("   "); err == nil {
		t.Error("expected error for empty query")
	}
}

func TestParseUnknownFieldFallsBackToContent(t *testing.T) {
	expr, err := ParseQueryExpr("http://example.com/path")
	if err != nil {
		t.Fatalf("ParseQueryExpr: %v", err)
	}
	term := requireTerm(t, expr)
	if term.Field != FieldContent || term.Value != "http://example.com/path" {
		t.Errorf("got %+v, want content term preserving the literal value", term)
	}
}

func TestExprString_RoundTrips(t *testing.T) {
	expr, err := ParseQueryExpr("name:foo|bar kind:function")
	if err != nil {
		t.Fatalf("ParseQueryExpr: %v", err)
	}
	again, err := ParseQueryExpr(expr.String())
	if err != nil {
		t.Fatalf("re-parsing rendered query: %v", err)
	}
	if again.String() != expr.String() {
		t.Errorf("roundtrip mismatch: %q vs %q", again.String(), expr.String())
	}
}

func sampleSymbol() *model.Symbol {
	return &model.Symbol{
		Name:     "add",
		Kind:     model.KindFunction,
		Language: "TypeScript",
		File:     "src/lib.ts",
		Range:    model.TextRange{StartLine: 1, EndLine: 1, StartCol: 1, EndCol: 1},
	}
}

func TestMetadataMatchingRespectsKindAndLanguage(t *testing.T) {
	symbol := sampleSymbol()
	expr := AndExpr([]*Expr{
		TermExpr(Term{Field: FieldKind, Value: "function"}),
		TermExpr(Term{Field: FieldLanguage, Value: "typescript"}),
		TermExpr(Term{Field: FieldName, Value: "add"}),
	})
	if !SymbolMatchesMetadata(expr, symbol, false) {
		t.Error("expected metadata match")
	}
}

func TestLiteralNameMatchingUsesExactSymbolName(t *testing.T) {
	symbol := sampleSymbol()
	matches := TermExpr(Term{Field: FieldName, Value: "add"})
	noMatch := TermExpr(Term{Field: FieldName, Value: "adder"})

	if !SymbolMatchesMetadata(matches, symbol, true) {
		t.Error("expected literal match for exact name")
	}
	if SymbolMatchesMetadata(noMatch, symbol, true) {
		t.Error("expected literal mismatch for non-exact name")
	}
}

func TestNonLiteralNameMatchingUsesSubstring(t *testing.T) {
	symbol := sampleSymbol()
	expr := TermExpr(Term{Field: FieldName, Value: "ad"})
	if !SymbolMatchesMetadata(expr, symbol, false) {
		t.Error("expected substring match")
	}
}

func TestNameExactOperatorOverridesLiteralFlag(t *testing.T) {
	symbol := sampleSymbol()
	expr := TermExpr(Term{Field: FieldName, Op: OpExact, Value: "add"})
	if !SymbolMatchesMetadata(expr, symbol, false) {
		t.Error("expected exact match with '=' operator")
	}
	noMatch := TermExpr(Term{Field: FieldName, Op: OpExact, Value: "ad"})
	if SymbolMatchesMetadata(noMatch, symbol, false) {
		t.Error("expected '=' operator to reject substring")
	}
}

func TestContentAndCommentAreNeutralInMetadataPass(t *testing.T) {
	symbol := sampleSymbol()
	content := TermExpr(Term{Field: FieldContent, Value: "whatever"})
	comment := TermExpr(Term{Field: FieldComment, Value: "whatever"})
	if !SymbolMatchesMetadata(content, symbol, false) {
		t.Error("content: should be neutral (true) in the metadata-only pass")
	}
	if !SymbolMatchesMetadata(comment, symbol, false) {
		t.Error("comment: should be neutral (true) in the metadata-only pass")
	}
}

func TestCommentFieldMatchesSymbolComment(t *testing.T) {
	symbol := sampleSymbol()
	symbol.Name = "loginUser"
	symbol.Attributes = &model.SymbolAttributes{Comment: "Handles authentication and JWT issuance."}

	matches := TermExpr(Term{Field: FieldComment, Value: "JWT"})
	if !SymbolMatchesWithText(matches, symbol, "", false) {
		t.Error("expected comment substring match")
	}

	noComment := sampleSymbol()
	if SymbolMatchesWithText(matches, noComment, "", false) {
		t.Error("expected false when symbol has no comment")
	}
}

func TestKeywordFieldDefaultIsExactMembership(t *testing.T) {
	symbol := sampleSymbol()
	symbol.Attributes = &model.SymbolAttributes{Keywords: []string{"auth", "jwt-issuer"}}

	exact := TermExpr(Term{Field: FieldKeyword, Value: "auth"})
	if !SymbolMatchesWithText(exact, symbol, "", false) {
		t.Error("expected exact keyword membership match")
	}

	substringAsDefault := TermExpr(Term{Field: FieldKeyword, Value: "jwt"})
	if SymbolMatchesWithText(substringAsDefault, symbol, "", false) {
		t.Error("default keyword match should not be substring")
	}

	withTilde := TermExpr(Term{Field: FieldKeyword, Op: OpSubstring, Value: "jwt"})
	if !SymbolMatchesWithText(withTilde, symbol, "", false) {
		t.Error("expected '~' operator to enable substring keyword matching")
	}
}

func TestContentFieldMatchesCompositeSurface(t *testing.T) {
	symbol := sampleSymbol()
	symbol.Signature = "function add(a: number, b: number): number"
	symbol.Attributes = &model.SymbolAttributes{Description: "adds two numbers"}

	expr := TermExpr(Term{Field: FieldContent, Value: "adds two"})
	if !SymbolMatchesWithText(expr, symbol, "", false) {
		t.Error("expected content match against composite surface")
	}

	snippetExpr := TermExpr(Term{Field: FieldContent, Value: "return a + b"})
	if !SymbolMatchesWithText(snippetExpr, symbol, "return a + b;", false) {
		t.Error("expected content match to see the provided snippet")
	}
}

func TestCallsFieldDefaultMatchesAnyCallWhenEmpty(t *testing.T) {
	symbol := sampleSymbol()
	symbol.Calls = []model.CallRef{{Name: "helper"}}

	expr := TermExpr(Term{Field: FieldCalls, Value: ""})
	if !SymbolMatchesMetadata(expr, symbol, false) {
		t.Error("expected empty calls: value to match any call")
	}

	specific := TermExpr(Term{Field: FieldCalls, Value: "help"})
	if !SymbolMatchesMetadata(specific, symbol, false) {
		t.Error("expected substring call match")
	}

	exact := TermExpr(Term{Field: FieldCalls, Op: OpExact, Value: "help"})
	if SymbolMatchesMetadata(exact, symbol, false) {
		t.Error("expected exact call match to reject a substring")
	}
}

func TestHasContentTermsAndHasCallTerms(t *testing.T) {
	expr, err := ParseQueryExpr("content:foo calls:bar")
	if err != nil {
		t.Fatalf("ParseQueryExpr: %v", err)
	}
	if !HasContentTerms(expr) {
		t.Error("expected HasContentTerms to be true")
	}
	if !HasCallTerms(expr) {
		t.Error("expected HasCallTerms to be true")
	}

	plainName, err := ParseQueryExpr("name:foo")
	if err != nil {
		t.Fatalf("ParseQueryExpr: %v", err)
	}
	if HasContentTerms(plainName) || HasCallTerms(plainName) {
		t.Error("expected name: query to have neither content nor call terms")
	}
}

func TestIsTextOnlyAndIsSymbolOriented(t *testing.T) {
	textOnly, _ := ParseQueryExpr("foo bar")
	if !IsTextOnly(textOnly) {
		t.Error("bare content terms should be text-only")
	}
	if IsSymbolOriented(textOnly) {
		t.Error("bare content terms should not be symbol-oriented")
	}

	symbolOriented, _ := ParseQueryExpr("kind:function")
	if IsTextOnly(symbolOriented) {
		t.Error("kind: query should not be text-only")
	}
	if !IsSymbolOriented(symbolOriented) {
		t.Error("kind: query should be symbol-oriented")
	}
}
