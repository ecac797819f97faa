package config

import "testing"

func TestIsCJK(t *testing.T) {
	tests := []struct {
		language string
		want     bool
	}{
		{"Japanese", true},
		{"japanese", true},
		{"Traditional Chinese", true},
		{"ko", true},
		{"jpn", true},
		{"English", false},
		{"French", false},
		{"", false},
	}

	for _, tt := range tests {
		if got := IsCJK(tt.language); got != tt.want {
			t.Errorf("IsCJK(%q) = %v, want %v", tt.language, got, tt.want)
		}
	}
}

func TestCPSForLang(t *testing.T) {
	if got := CPSForLang("Japanese"); got != 11 {
		t.Errorf("CPSForLang(Japanese) = %d, want 11", got)
	}
	if got := CPSForLang("English"); got != 15 {
		t.Errorf("CPSForLang(English) = %d, want 15", got)
	}
}

func TestCPLForLang(t *testing.T) {
	if got := CPLForLang("Korean"); got != 25 {
		t.Errorf("CPLForLang(Korean) = %d, want 25", got)
	}
	if got := CPLForLang("German"); got != 42 {
		t.Errorf("CPLForLang(German) = %d, want 42", got)
	}
}

func TestAPIKey(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "test-key")
	t.Setenv("GOOGLE_API_KEY", "")

	key, err := APIKey()
	if err != nil {
		t.Fatalf("APIKey: %v", err)
	}
	if key != "test-key" {
		t.Errorf("key = %q, want 'test-key'", key)
	}
}

func TestAPIKey_Fallback(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("GOOGLE_API_KEY", "fallback-key")

	key, err := APIKey()
	if err != nil {
		t.Fatalf("APIKey: %v", err)
	}
	if key != "fallback-key" {
		t.Errorf("key = %q, want 'fallback-key'", key)
	}
}

func TestAPIKey_Missing(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("GOOGLE_API_KEY", "")

	if _, err := APIKey(); err == nil {
		t.Error("expected error when no key is set")
	}
}
