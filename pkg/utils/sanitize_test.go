package utils

import "testing"

func TestSanitizeIdentifier(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Name", "name"},
		{"Unit Price ($)", "unit_price"},
		{"  spaced  out  ", "spaced_out"},
		{"already_fine", "already_fine"},
		{"__underscored__", "underscored"},
		{"日本語", ""},
		{"a--b..c", "a_b_c"},
	}

	for _, tt := range tests {
		if got := SanitizeIdentifier(tt.in); got != tt.want {
			t.Errorf("SanitizeIdentifier(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
