package tool

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTruncateRunes(t *testing.T) {
	tests := []struct {
		name string
		in   string
		n    int
		want string
	}{
		{name: "shorter than limit", in: "a red fox", n: 100, want: "a red fox"},
		{name: "exact limit", in: "abc", n: 3, want: "abc"},
		{name: "cut", in: "a sunset timelapse over the ocean", n: 30, want: "a sunset timelapse over the oc"},
		{name: "multibyte", in: "日本の夕焼け", n: 2, want: "日本"},
		{name: "zero", in: "abc", n: 0, want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, TruncateRunes(tt.in, tt.n))
		})
	}

	long := strings.Repeat("x", 250)
	assert.Len(t, TruncateRunes(long, 100), 100)
}

func TestRandomSuffix_Unique(t *testing.T) {
	seen := map[string]struct{}{}
	for i := 0; i < 1000; i++ {
		s := RandomSuffix()
		assert.Len(t, s, 12)
		_, dup := seen[s]
		assert.False(t, dup)
		seen[s] = struct{}{}
	}
}
