package main

import "testing"

func TestMaskToken(t *testing.T) {
	tests := []struct {
		name  string
		token string
		want  string
	}{
		{"empty", "", "****"},
		{"short", "abc", "****"},
		{"exactly eight", "12345678", "****"},
		{"nine chars", "123456789", "1234...6789"},
		{"long token", "fzy_aB3cD7eF9gH2jK5m", "fzy_...jK5m"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := maskToken(tt.token); got != tt.want {
				t.Errorf("maskToken(%q) = %q, want %q", tt.token, got, tt.want)
			}
		})
	}
}
