package chunker

import (
	"strings"
	"unicode/utf8"
)

// Params is a target size / overlap pair, both measured in characters.
type Params struct {
	TargetSize int
	Overlap    int
}

var (
	// Text is used for narrative documents (pdf, docx, txt, cms).
	Text = Params{TargetSize: 250, Overlap: 30}
	// Rows is used for csv rows, which are already terse.
	Rows = Params{TargetSize: 220, Overlap: 25}
)

// ForKind returns the preset for a document kind.
func ForKind(kind string) Params {
	if kind == "csv" {
		return Rows
	}
	return Text
}

// Chunk splits text into overlapping segments of roughly p.TargetSize characters.
func (p Params) Chunk(text string) []string {
	return Chunk(text, p.TargetSize, p.Overlap)
}

// Chunk normalizes whitespace line by line and greedily packs lines into
// chunks of at most targetSize characters. A line is never split, so a single
// long line produces an oversized chunk. Each new chunk starts with the last
// overlap characters of the previous one.
func Chunk(text string, targetSize, overlap int) []string {
	lines := normalizeLines(text)
	out := make([]string, 0, len(lines))

	var buf string
	bufLen := 0
	for _, ln := range lines {
		lnLen := utf8.RuneCountInString(ln)
		sep := 0
		if bufLen > 0 {
			sep = 1
		}
		if bufLen+sep+lnLen <= targetSize {
			buf, bufLen = appendLine(buf, bufLen, ln, lnLen)
			continue
		}
		if bufLen > 0 {
			out = append(out, buf)
			buf = ""
			if overlap > 0 && bufLen > overlap {
				buf = strings.TrimLeft(lastRunes(out[len(out)-1], overlap), " ")
			}
			bufLen = utf8.RuneCountInString(buf)
		}
		buf, bufLen = appendLine(buf, bufLen, ln, lnLen)
	}
	if bufLen > 0 {
		out = append(out, buf)
	}
	return out
}

func appendLine(buf string, bufLen int, ln string, lnLen int) (string, int) {
	if bufLen == 0 {
		return ln, lnLen
	}
	return buf + " " + ln, bufLen + 1 + lnLen
}

// normalizeLines collapses whitespace runs inside each line and drops blank lines.
func normalizeLines(text string) []string {
	raw := strings.FieldsFunc(text, isLineBreak)
	lines := make([]string, 0, len(raw))
	for _, ln := range raw {
		if norm := strings.Join(strings.Fields(ln), " "); norm != "" {
			lines = append(lines, norm)
		}
	}
	return lines
}

func isLineBreak(r rune) bool {
	switch r {
	case '\n', '\r', '\v', '\f', 0x1c, 0x1d, 0x1e, 0x85, 0x2028, 0x2029:
		return true
	}
	return false
}

func lastRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[len(r)-n:])
}
