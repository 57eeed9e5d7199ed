package errors

import (
	"errors"
	"strings"
	"testing"
)

func TestSymgrepError_Error(t *testing.T) {
	tests := []struct {
		name      string
		err       *SymgrepError
		wantParts []string
	}{
		{
			name:      "with cause",
			err:       NewIoError("could not read file", errors.New("permission denied")),
			wantParts: []string{"IO_ERROR", "could not read file", "permission denied"},
		},
		{
			name:      "without cause",
			err:       New(InvalidQuery, "query must not be empty"),
			wantParts: []string{"INVALID_QUERY", "query must not be empty"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.err.Error()
			for _, part := range tt.wantParts {
				if !strings.Contains(got, part) {
					t.Errorf("Error() = %q, want to contain %q", got, part)
				}
			}
		})
	}
}

func TestSymgrepError_Unwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := NewIndexError("query failed", cause)

	if err.Unwrap() != cause {
		t.Errorf("Unwrap() = %v, want %v", err.Unwrap(), cause)
	}

	noCause := New(VersionMismatch, "schema too new")
	if noCause.Unwrap() != nil {
		t.Error("Unwrap() on error without cause should return nil")
	}
}

func TestNewInvalidQuery_RecordsPosition(t *testing.T) {
	err := NewInvalidQuery("unexpected token", 12)
	if err.Details["position"] != 12 {
		t.Errorf("Details[position] = %v, want 12", err.Details["position"])
	}

	noPos := NewInvalidQuery("empty query", -1)
	if noPos.Details != nil {
		t.Errorf("Details = %v, want nil when pos < 0", noPos.Details)
	}
}

func TestNewAmbiguousSelector(t *testing.T) {
	err := NewAmbiguousSelector(3)
	if err.Code != IndexError {
		t.Errorf("Code = %v, want %v", err.Code, IndexError)
	}
	if err.Details["matches"] != 3 {
		t.Errorf("Details[matches] = %v, want 3", err.Details["matches"])
	}
}

func TestNewVersionMismatch(t *testing.T) {
	err := NewVersionMismatch("2", "1")
	if err.Code != VersionMismatch {
		t.Errorf("Code = %v, want %v", err.Code, VersionMismatch)
	}
	if err.Details["found"] != "2" || err.Details["want"] != "1" {
		t.Errorf("Details = %v, want found=2 want=1", err.Details)
	}
}

func TestWrap(t *testing.T) {
	if Wrap(nil) != nil {
		t.Error("Wrap(nil) should return nil")
	}

	generic := errors.New("boom")
	wrapped := Wrap(generic)
	se, ok := wrapped.(*SymgrepError)
	if !ok {
		t.Fatalf("Wrap(generic) = %T, want *SymgrepError", wrapped)
	}
	if se.Code != IoError {
		t.Errorf("Code = %v, want %v", se.Code, IoError)
	}

	already := New(InvalidQuery, "bad query")
	if Wrap(already) != already {
		t.Error("Wrap should return a *SymgrepError unchanged")
	}
}

func TestErrorCodesAreUnique(t *testing.T) {
	codes := []ErrorCode{InvalidQuery, InvalidConfig, ParseError, IoError, IndexError, VersionMismatch}
	seen := make(map[ErrorCode]bool)
	for _, code := range codes {
		if seen[code] {
			t.Errorf("duplicate error code: %v", code)
		}
		seen[code] = true
		if string(code) == "" {
			t.Error("error code should not be empty")
		}
	}
}
