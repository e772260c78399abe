package gate

import "testing"

func TestFilters(t *testing.T) {
	min3 := MinLength(3)
	tests := []struct {
		name   string
		filter Filter[string]
		in     string
		want   bool
	}{
		{"min length short", min3, "ab", false},
		{"min length trims", min3, "  ab  ", false},
		{"min length runes", min3, "héé", true},
		{"non zero empty", NonZero[string](), "", false},
		{"non zero value", NonZero[string](), "x", true},
		{"always", Always[string](), "", true},
		{"all", All(min3, NonZero[string]()), "abcd", true},
		{"all rejects", All(min3, Not(NonZero[string]())), "abcd", false},
		{"all skips nil", All[string](nil, min3), "abc", true},
		{"any", Any(min3, NonZero[string]()), "a", true},
		{"any none", Any[string](), "a", false},
		{"not", Not(min3), "a", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.filter(tt.in); got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}
