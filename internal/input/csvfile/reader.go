package csvfile

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"authtower/internal/transform/okta"
)

// Read loads a CSV export into raw rows keyed by the header columns.
// It returns the header so the normalizer can check the schema as a set.
func Read(path string) ([]string, []okta.Row, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()

	return ReadFrom(f)
}

// ReadFrom reads CSV rows from r.
func ReadFrom(r io.Reader) ([]string, []okta.Row, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, nil, fmt.Errorf("csv input is empty")
	}
	if err != nil {
		return nil, nil, fmt.Errorf("read csv header: %w", err)
	}

	var rows []okta.Row
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("read csv row: %w", err)
		}
		row := make(okta.Row, len(header))
		for i, col := range header {
			if i < len(record) {
				row[col] = record[i]
			}
		}
		rows = append(rows, row)
	}

	return header, rows, nil
}
