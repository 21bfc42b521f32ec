package invitecode

import (
	"strings"
	"testing"
)

func TestGenerateLengthAndCharset(t *testing.T) {
	code, err := Generate(10)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if len(code) != 10 {
		t.Fatalf("expected 10 characters, got %d", len(code))
	}
	for _, r := range code {
		if !strings.ContainsRune(string(codeCharset), r) {
			t.Fatalf("unexpected character %q in code %q", r, code)
		}
	}
}

func TestGenerateDefaultsLength(t *testing.T) {
	code, err := Generate(0)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if len(code) != DefaultLength {
		t.Fatalf("expected default length %d, got %d", DefaultLength, len(code))
	}
}

func TestGenerateUniqueEnough(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 200; i++ {
		code, err := Generate(10)
		if err != nil {
			t.Fatalf("Generate failed: %v", err)
		}
		if seen[code] {
			t.Fatalf("duplicate code %q after %d generations", code, i)
		}
		seen[code] = true
	}
}
