package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
)

// WriteCSV streams one probe's recording as CSV: a header row, then one
// row per sample with the time in the first column.
func WriteCSV(w io.Writer, p *ProbeData) error {
	cw := csv.NewWriter(w)

	header := make([]string, p.Meta.Columns+1)
	header[0] = "time"
	for i := 0; i < p.Meta.Columns; i++ {
		if p.Meta.Columns == 1 {
			header[1] = p.Meta.Name
		} else {
			header[i+1] = fmt.Sprintf("%s[%d]", p.Meta.Name, i)
		}
	}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	record := make([]string, p.Meta.Columns+1)
	for i, row := range p.Rows {
		if len(row) != p.Meta.Columns {
			return fmt.Errorf("row %d has %d values, want %d", i, len(row), p.Meta.Columns)
		}
		record[0] = strconv.FormatFloat(p.Times[i], 'g', -1, 64)
		for j, v := range row {
			record[j+1] = strconv.FormatFloat(v, 'g', -1, 64)
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to write CSV row %d: %w", i, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteCSVFile writes one probe's recording to a CSV file at path.
func WriteCSVFile(path string, p *ProbeData) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create CSV file: %w", err)
	}
	defer file.Close()
	return WriteCSV(file, p)
}
