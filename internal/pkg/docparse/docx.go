package docparse

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strings"
)

const docxBody = "word/document.xml"

// parseDOCX joins the text of every paragraph in the main document part with
// newlines. Headers and footers live in other parts and are not read.
func parseDOCX(source string, data []byte) ([]Record, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadable, err)
	}

	var part *zip.File
	for _, f := range zr.File {
		if f.Name == docxBody {
			part = f
			break
		}
	}
	if part == nil {
		return nil, fmt.Errorf("%w: missing %s", ErrUnreadable, docxBody)
	}

	rc, err := part.Open()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadable, err)
	}
	defer rc.Close()

	paragraphs, err := docxParagraphs(rc)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadable, err)
	}
	return []Record{newRecord(strings.Join(paragraphs, "\n"), source, KindDOCX)}, nil
}

// docxParagraphs collects paragraph text. Paragraphs nested in text boxes
// are emitted on their own when they close, without cutting the enclosing
// paragraph short.
func docxParagraphs(r io.Reader) ([]string, error) {
	dec := xml.NewDecoder(r)
	var (
		paragraphs []string
		open       []*strings.Builder
		inText     bool
	)
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			return paragraphs, nil
		}
		if err != nil {
			return nil, err
		}
		var current *strings.Builder
		if len(open) > 0 {
			current = open[len(open)-1]
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "p":
				open = append(open, &strings.Builder{})
			case "t":
				inText = current != nil
			case "tab":
				if current != nil {
					current.WriteByte('\t')
				}
			case "br", "cr":
				if current != nil {
					current.WriteByte('\n')
				}
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				if current != nil {
					paragraphs = append(paragraphs, current.String())
					open = open[:len(open)-1]
				}
			}
		case xml.CharData:
			if inText && current != nil {
				current.Write(t)
			}
		}
	}
}
