package models

import (
	"strings"
	"testing"
)

func TestValidToken(t *testing.T) {
	tests := []struct {
		name  string
		token string
		want  bool
	}{
		{"empty", "", false},
		{"below minimum", "abc", false},
		{"at minimum", "abcd", true},
		{"at maximum", strings.Repeat("x", TokenMaxLength), true},
		{"above maximum", strings.Repeat("x", TokenMaxLength+1), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ValidToken(tt.token); got != tt.want {
				t.Errorf("ValidToken(%q) = %v, want %v", tt.token, got, tt.want)
			}
		})
	}
}
