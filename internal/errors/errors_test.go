package errors

import (
	"bytes"
	stderrors "errors"
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		code    string
		wantMsg string
		wantCat Category
	}{
		{"invalid options", CodeInvalidOptions, "Invalid resource options", CategoryResource},
		{"config", CodeConfigInvalid, "Invalid configuration", CategoryConfig},
		{"catalog", CodeCatalogBackend, "Catalog backend error", CategoryCatalog},
		{"unknown", "G999", "Unknown error", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := New(tt.code)
			if err.Message != tt.wantMsg {
				t.Errorf("Message = %q, want %q", err.Message, tt.wantMsg)
			}
			if err.Category != tt.wantCat {
				t.Errorf("Category = %q, want %q", err.Category, tt.wantCat)
			}
		})
	}
}

func TestErrorString(t *testing.T) {
	err := New(CodeLoadFailed).Wrap(stderrors.New("timeout"))
	if got := err.Error(); got != "G002: Resource load failed: timeout" {
		t.Errorf("unexpected message %q", got)
	}
	if got := Newf(CategoryCLI, "bad flag %q", "x").Error(); got != `bad flag "x"` {
		t.Errorf("unexpected message %q", got)
	}
}

func TestIsAndUnwrap(t *testing.T) {
	cause := stderrors.New("boom")
	err := New(CodeLoadFailed).Wrap(cause)

	if !stderrors.Is(err, cause) {
		t.Error("errors.Is should reach the wrapped cause")
	}
	if !stderrors.Is(err, New(CodeLoadFailed)) {
		t.Error("errors with the same code should match")
	}
	if stderrors.Is(err, New(CodeInvalidOptions)) {
		t.Error("errors with different codes should not match")
	}
}

func TestHasCode(t *testing.T) {
	inner := New(CodeCatalogBackend).Wrap(stderrors.New("denied"))
	outer := New(CodeLoadFailed).Wrap(inner)

	if !HasCode(outer, CodeLoadFailed) || !HasCode(outer, CodeCatalogBackend) {
		t.Error("expected both codes in chain")
	}
	if HasCode(outer, CodeConfigInvalid) || HasCode(nil, CodeLoadFailed) {
		t.Error("unexpected code match")
	}
}

func TestFromError(t *testing.T) {
	if FromError(nil, CodeLoadFailed) != nil {
		t.Error("nil should stay nil")
	}
	e := New(CodeConfigInvalid)
	if FromError(e, CodeLoadFailed) != e {
		t.Error("structured errors should pass through")
	}
	wrapped := FromError(stderrors.New("x"), CodeLoadFailed)
	if wrapped.Code != CodeLoadFailed {
		t.Errorf("expected code %s, got %s", CodeLoadFailed, wrapped.Code)
	}
}

func TestRegisterAndCodes(t *testing.T) {
	Register("G900", Template{Category: CategoryCLI, Message: "custom"})
	if New("G900").Message != "custom" {
		t.Error("registered template not used")
	}
	found := false
	for _, c := range Codes() {
		if c == "G900" {
			found = true
		}
	}
	if !found {
		t.Error("Codes() should include registered code")
	}
}

func TestPrettyAndPrint(t *testing.T) {
	err := New(CodeConfigInvalid).
		WithDetailf("port %d out of range", 70000).
		WithSuggestion("use a port below 65536")

	plain := err.Pretty(false)
	for _, want := range []string{"ERROR G004: Invalid configuration", "port 70000 out of range", "Hint: use a port"} {
		if !strings.Contains(plain, want) {
			t.Errorf("Pretty missing %q in %q", want, plain)
		}
	}
	if strings.Contains(plain, "\033[") {
		t.Error("uncolored output must not contain escape codes")
	}

	var buf bytes.Buffer
	Print(&buf, stderrors.New("plain"), false)
	if buf.String() != "ERROR: plain\n" {
		t.Errorf("unexpected plain print %q", buf.String())
	}
}
