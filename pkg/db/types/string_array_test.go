package dbtypes

import "testing"

func TestStringArrayRoundTrip(t *testing.T) {
	in := StringArray{"farrier", "vet visit", "dental"}
	val, err := in.Value()
	if err != nil {
		t.Fatalf("Value failed: %v", err)
	}

	var out StringArray
	if err := out.Scan(val); err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
	if len(out) != len(in) {
		t.Fatalf("expected %d entries, got %d", len(in), len(out))
	}
	for i := range in {
		if out[i] != in[i] {
			t.Fatalf("entry %d mismatch: %q != %q", i, out[i], in[i])
		}
	}
}

func TestStringArrayScanEmpty(t *testing.T) {
	var out StringArray
	if err := out.Scan("{}"); err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
	if len(out) != 0 {
		t.Fatalf("expected empty array, got %v", out)
	}

	if err := out.Scan(nil); err != nil {
		t.Fatalf("Scan nil failed: %v", err)
	}
	if len(out) != 0 {
		t.Fatalf("expected empty array for nil, got %v", out)
	}
}

func TestStringArrayScanUnsupported(t *testing.T) {
	var out StringArray
	if err := out.Scan(42); err == nil {
		t.Fatal("expected error for unsupported scan type")
	}
}
