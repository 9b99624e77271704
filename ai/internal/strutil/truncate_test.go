package strutil

import "testing"

func TestTruncate(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		maxLen   int
		expected string
	}{
		{"empty string", "", 10, ""},
		{"short string", "hello", 10, "hello"},
		{"exact length", "hello", 5, "hello"},
		{"needs truncation", "hello world", 5, "hello..."},
		{"negative maxLen", "hello", -1, ""},
		{"zero maxLen", "hello", 0, ""},
		{"tamil exact", "நெல்", 4, "நெல்"},
		{"tamil truncated", "நெல் பயிர் மகசூல்", 4, "நெல்..."},
		{"mixed unicode", "aநbெc", 3, "aநb..."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Truncate(tt.input, tt.maxLen)
			if result != tt.expected {
				t.Errorf("Truncate(%q, %d) = %q, want %q", tt.input, tt.maxLen, result, tt.expected)
			}
		})
	}
}

func TestCapRunes(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		maxLen   int
		expected string
	}{
		{"no cap needed", "short", 10, "short"},
		{"capped without ellipsis", "hello world", 5, "hello"},
		{"zero maxLen", "hello", 0, ""},
		{"unicode capped", "மகசூல்", 2, "மக"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CapRunes(tt.input, tt.maxLen); got != tt.expected {
				t.Errorf("CapRunes(%q, %d) = %q, want %q", tt.input, tt.maxLen, got, tt.expected)
			}
		})
	}
}
