package redact

import (
	"strings"
	"testing"
)

func TestFingerprintStable(t *testing.T) {
	a := Fingerprint("SUPERSPY")
	b := Fingerprint("SUPERSPY")
	if a != b {
		t.Fatalf("fingerprint not stable: %q vs %q", a, b)
	}
	if !strings.HasPrefix(a, "sha256:") || len(a) != len("sha256:")+12 {
		t.Fatalf("unexpected fingerprint format %q", a)
	}
	if strings.Contains(a, "SUPERSPY") {
		t.Fatal("fingerprint leaks the secret")
	}
	if Fingerprint("") != "" {
		t.Fatal("empty secret should have empty fingerprint")
	}
	if Fingerprint("MONARCHY") == a {
		t.Fatal("different secrets should differ")
	}
}

func TestString(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"keyword=SUPERSPY", "keyword=" + redactedSecret},
		{`run with keyword: "MONARCHY" please`, `run with keyword: "` + redactedSecret + `" please`},
		{"Authorization: Bearer abcdefghijklmnop", "Authorization: Bearer " + redactedSecret},
		{"nothing to hide", "nothing to hide"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := String(tt.in); got != tt.want {
			t.Errorf("String(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestMap(t *testing.T) {
	in := map[string]any{
		"Keyword":   "SUPERSPY",
		"operation": "playfair_decrypt",
		"nested":    map[string]any{"secret": "hunter2", "size": 5},
		"notes":     []string{"token=abc123"},
	}
	out := Map(in)

	if out["Keyword"] != Fingerprint("SUPERSPY") {
		t.Errorf("keyword not fingerprinted: %v", out["Keyword"])
	}
	if out["operation"] != "playfair_decrypt" {
		t.Errorf("plain value changed: %v", out["operation"])
	}
	nested := out["nested"].(map[string]any)
	if nested["secret"] != Fingerprint("hunter2") || nested["size"] != 5 {
		t.Errorf("nested map not redacted: %v", nested)
	}
	if notes := out["notes"].([]string); notes[0] != "token="+redactedSecret {
		t.Errorf("slice not redacted: %v", notes)
	}
	if in["Keyword"] != "SUPERSPY" {
		t.Error("input map must not be modified")
	}
	if Map(nil) != nil {
		t.Error("empty map should return nil")
	}
}
