package agent

import "testing"

func TestSanitizeArgs(t *testing.T) {
	args := map[string]interface{}{
		"inputSchema": map[string]interface{}{"type": "object"},
		"userId":      5.0,
		"region":      nil,
	}

	cleaned := SanitizeArgs(args)

	if len(cleaned) != 1 {
		t.Fatalf("expected 1 surviving key, got %d: %v", len(cleaned), cleaned)
	}
	if cleaned["userId"] != 5.0 {
		t.Errorf("userId lost: %v", cleaned)
	}

	// Input map is untouched.
	if len(args) != 3 {
		t.Error("SanitizeArgs must not mutate its input")
	}
}

func TestSanitizeArgsStripsAllMetadataKeys(t *testing.T) {
	args := map[string]interface{}{
		"inputSchema":  1,
		"name":         1,
		"parameters":   1,
		"title":        1,
		"description":  1,
		"outputSchema": 1,
		"icons":        1,
		"_meta":        1,
		"annotations":  1,
		"required":     1,
	}
	if cleaned := SanitizeArgs(args); len(cleaned) != 0 {
		t.Errorf("metadata keys survived: %v", cleaned)
	}
}

func TestSanitizeArgsKeepsLegitimateFields(t *testing.T) {
	args := map[string]interface{}{
		"startDate": "2026-08-01",
		"limit":     10.0,
		"zero":      0.0,
		"empty":     "",
		"falsy":     false,
	}
	cleaned := SanitizeArgs(args)
	// Only nil is dropped; zero values are legitimate arguments.
	if len(cleaned) != 5 {
		t.Errorf("expected all 5 keys kept, got %v", cleaned)
	}
}
