package docparse

import (
	"bytes"
	"fmt"

	"github.com/ledongthuc/pdf"
)

// parsePDF extracts plain text page by page. Pages without a text layer yield
// empty records, which the chunker drops.
func parsePDF(source string, data []byte) ([]Record, error) {
	if len(data) == 0 {
		return nil, nil
	}
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadable, err)
	}

	total := reader.NumPage()
	records := make([]Record, 0, total)
	for i := 1; i <= total; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return nil, fmt.Errorf("%w: page %d: %v", ErrUnreadable, i, err)
		}
		rec := newRecord(text, source, KindPDF)
		rec.Meta["page"] = i
		records = append(records, rec)
	}
	return records, nil
}
