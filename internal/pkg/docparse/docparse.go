// Package docparse turns uploaded files into chunked records ready for
// embedding. Format detection is by extension; anything unknown is plain text.
package docparse

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"ragchat/internal/chunker"
)

// Document kinds, stored in the payload "type" field.
const (
	KindPDF  = "pdf"
	KindDOCX = "docx"
	KindCSV  = "csv"
	KindTXT  = "txt"
	KindCMS  = "cms"
)

var ErrUnreadable = errors.New("unreadable document")

// Record is one piece of raw text with the metadata shared by every chunk cut
// from it. Meta always carries "source" and "type"; pdf pages add "page", csv
// rows add "row".
type Record struct {
	Text string
	Meta map[string]any
}

// Kind returns the record's document kind.
func (r Record) Kind() string {
	k, _ := r.Meta["type"].(string)
	return k
}

// Source returns the record's origin identifier.
func (r Record) Source() string {
	s, _ := r.Meta["source"].(string)
	return s
}

// File is an in-memory upload.
type File struct {
	Name string
	Data []byte
}

// DetectKind maps a file name to a document kind.
func DetectKind(name string) string {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".pdf":
		return KindPDF
	case ".docx":
		return KindDOCX
	case ".csv":
		return KindCSV
	default:
		return KindTXT
	}
}

// Parse decodes f into raw records, one per pdf page, one per csv row, or one
// for the whole document otherwise. The source is the base name of the file.
func Parse(f File) ([]Record, error) {
	source := filepath.Base(f.Name)
	kind := DetectKind(f.Name)

	var (
		records []Record
		err     error
	)
	switch kind {
	case KindPDF:
		records, err = parsePDF(source, f.Data)
	case KindDOCX:
		records, err = parseDOCX(source, f.Data)
	case KindCSV:
		records, err = parseCSV(source, f.Data)
	default:
		records = []Record{newRecord(decodeText(f.Data), source, KindTXT)}
	}
	if err != nil {
		return nil, fmt.Errorf("parse %s %q failed: %w", kind, source, err)
	}
	return records, nil
}

// ParseReader reads r fully and parses it as a file named name.
func ParseReader(name string, r io.Reader) ([]Record, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read %q failed: %w", name, err)
	}
	return Parse(File{Name: name, Data: data})
}

// Chunks expands records into chunk records using the preset for each kind.
// The chunk text replaces the record text; metadata is copied per chunk.
func Chunks(records []Record) []Record {
	var out []Record
	for _, rec := range records {
		for _, ch := range chunker.ForKind(rec.Kind()).Chunk(rec.Text) {
			meta := make(map[string]any, len(rec.Meta)+1)
			for k, v := range rec.Meta {
				meta[k] = v
			}
			out = append(out, Record{Text: ch, Meta: meta})
		}
	}
	return out
}

func newRecord(text, source, kind string) Record {
	return Record{Text: text, Meta: map[string]any{"source": source, "type": kind}}
}

func decodeText(data []byte) string {
	return strings.ToValidUTF8(string(data), "")
}
