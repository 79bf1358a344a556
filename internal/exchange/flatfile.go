// internal/exchange/flatfile.go
package exchange

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
)

const byteOrderMark = "\ufeff"

// table is a decoded exchange file: a header row naming the columns followed by records.
// Records may be shorter or longer than the header.
type table struct {
	header  []string
	records [][]string
}

func newFlatWriter(w io.Writer) *csv.Writer {
	cw := csv.NewWriter(w)
	cw.Comma = '\t'
	return cw
}

func newFlatReader(r io.Reader) *csv.Reader {
	cr := csv.NewReader(r)
	cr.Comma = '\t'
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	return cr
}

// encode writes t as UTF-8 tab-delimited text, header first.
func encode(w io.Writer, t table) error {
	cw := newFlatWriter(w)
	if err := cw.Write(t.header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	if err := cw.WriteAll(t.records); err != nil {
		return fmt.Errorf("failed to write records: %w", err)
	}
	return nil
}

// decode reads a whole exchange file. An empty input yields an empty table.
func decode(r io.Reader) (table, error) {
	rows, err := newFlatReader(r).ReadAll()
	if err != nil {
		return table{}, fmt.Errorf("failed to decode exchange file: %w", err)
	}
	if len(rows) == 0 {
		return table{}, nil
	}

	header := rows[0]
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], byteOrderMark)
	}
	return table{header: header, records: rows[1:]}, nil
}
