package chunker

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunk(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		target  int
		overlap int
		want    []string
	}{
		{name: "empty", text: "", target: 10, overlap: 2, want: []string{}},
		{name: "only whitespace", text: " \n\t\n  ", target: 10, overlap: 2, want: []string{}},
		{name: "single line fits", text: "ala ma kota", target: 20, overlap: 3, want: []string{"ala ma kota"}},
		{
			name:    "whitespace collapsed per line",
			text:    "  ala   ma\tkota \n\n  pies  ",
			target:  50,
			overlap: 3,
			want:    []string{"ala ma kota pies"},
		},
		{
			name:    "lines packed with overlap seed",
			text:    "aaaa\nbbbb\ncccc",
			target:  9,
			overlap: 2,
			want:    []string{"aaaa bbbb", "bb cccc"},
		},
		{
			name:    "no overlap",
			text:    "aaaa\nbbbb\ncccc",
			target:  9,
			overlap: 0,
			want:    []string{"aaaa bbbb", "cccc"},
		},
		{
			name:    "long line is never split",
			text:    "short\nthis line is much longer than target\nend",
			target:  8,
			overlap: 3,
			want:    []string{"short", "ort this line is much longer than target", "get end"},
		},
		{
			name:    "overlap skipped when buffer not longer than overlap",
			text:    "ab\ncdefgh",
			target:  4,
			overlap: 5,
			want:    []string{"ab", "cdefgh"},
		},
		{
			name:    "overlap left trimmed",
			text:    "abc def\nxyz",
			target:  8,
			overlap: 4,
			want:    []string{"abc def", "def xyz"},
		},
		{
			name:    "diacritics counted as characters",
			text:    "żółć\nźdźbło",
			target:  11,
			overlap: 2,
			want:    []string{"żółć źdźbło"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Chunk(tt.text, tt.target, tt.overlap))
		})
	}
}

func TestChunkProperties(t *testing.T) {
	var sb strings.Builder
	for i := 0; i < 60; i++ {
		sb.WriteString("Zdanie numer ")
		sb.WriteString(strings.Repeat("x", i%17))
		sb.WriteString(" zawiera trochę tekstu.\n")
		if i%7 == 0 {
			sb.WriteString("\n   \n")
		}
	}
	text := sb.String()

	first := Text.Chunk(text)
	second := Text.Chunk(text)
	require.Equal(t, first, second, "chunking must be deterministic")
	require.NotEmpty(t, first)

	for i, ch := range first {
		assert.NotEmpty(t, ch)
		if i == 0 {
			continue
		}
		prev := []rune(first[i-1])
		if len(prev) > Text.Overlap {
			seed := strings.TrimLeft(string(prev[len(prev)-Text.Overlap:]), " ")
			assert.True(t, strings.HasPrefix(ch, seed), "chunk %d should start with overlap of chunk %d", i, i-1)
		}
	}

	// every normalized line appears in some chunk, in order
	pos := 0
	joined := strings.Join(first, "\n")
	for _, ln := range normalizeLines(text) {
		idx := strings.Index(joined[pos:], ln)
		require.GreaterOrEqual(t, idx, 0, "line %q missing", ln)
		pos += idx
	}
}

func TestChunkRespectsTargetForShortLines(t *testing.T) {
	text := strings.Repeat("krótka linia\n", 100)
	for _, ch := range Rows.Chunk(text) {
		assert.LessOrEqual(t, utf8.RuneCountInString(ch), Rows.TargetSize)
	}
}

func TestForKind(t *testing.T) {
	assert.Equal(t, Rows, ForKind("csv"))
	assert.Equal(t, Text, ForKind("pdf"))
	assert.Equal(t, Text, ForKind("cms"))
	assert.Equal(t, Text, ForKind("unknown"))
}
