package project

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestSummarize(t *testing.T) {
	tests := []struct {
		name   string
		source string
		want   string
	}{
		{
			name:   "skips heading",
			source: "# Title\n\nA tool for tracking\nprojects.\n\nSecond paragraph.",
			want:   "A tool for tracking projects.",
		},
		{
			name:   "inline markup flattened",
			source: "Uses **bold** and `code` and [links](https://example.com).",
			want:   "Uses bold and code and links.",
		},
		{
			name:   "badge paragraph skipped",
			source: "![build](https://ci/badge.svg)\n\nReal text.",
			want:   "Real text.",
		},
		{
			name:   "list and code ignored",
			source: "- item\n- item\n\n```\ncode\n```\n",
			want:   "",
		},
		{
			name:   "empty",
			source: "",
			want:   "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Summarize(tt.source))
		})
	}
}

func TestSummarize_Truncates(t *testing.T) {
	long := strings.Repeat("word ", 200)
	got := Summarize(long)
	assert.Equal(t, MaxSummaryRunes, utf8.RuneCountInString(got))
	assert.True(t, strings.HasSuffix(got, "…"))
}
