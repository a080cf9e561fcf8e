package docparse

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

const csvColumnSep = " | "

// parseCSV emits one record per data row with the cells joined by " | ". The
// first row is the header and is not indexed. Rows are numbered from 0.
func parseCSV(source string, data []byte) ([]Record, error) {
	r := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadable, err)
	}

	var records []Record
	for row := 0; ; row++ {
		cells, err := r.Read()
		if errors.Is(err, io.EOF) {
			return records, nil
		}
		if err != nil {
			return nil, fmt.Errorf("%w: row %d: %v", ErrUnreadable, row, err)
		}
		for len(cells) < len(header) {
			cells = append(cells, "")
		}
		rec := newRecord(decodeText([]byte(strings.Join(cells, csvColumnSep))), source, KindCSV)
		rec.Meta["row"] = row
		records = append(records, rec)
	}
}
