package recorder

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
)

// Row is one parsed data row of a recording.
type Row struct {
	Timestamp string
	Frame     uint64
	Degrees   []float64
}

// ReadAll parses a recording and returns its metric column names and rows.
func ReadAll(r io.Reader) ([]string, []Row, error) {
	cr := csv.NewReader(r)
	header, err := cr.Read()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read header: %w", err)
	}
	if len(header) < 3 || header[0] != "Timestamp" || header[1] != "Frame" {
		return nil, nil, fmt.Errorf("unexpected header %q", header)
	}
	metrics := header[2:]

	var rows []Row
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("line %d: %w", line, err)
		}

		frame, err := strconv.ParseUint(rec[1], 10, 64)
		if err != nil {
			return nil, nil, fmt.Errorf("line %d: bad frame: %w", line, err)
		}
		row := Row{Timestamp: rec[0], Frame: frame, Degrees: make([]float64, len(metrics))}
		for i := range metrics {
			if row.Degrees[i], err = strconv.ParseFloat(rec[2+i], 64); err != nil {
				return nil, nil, fmt.Errorf("line %d: bad %s: %w", line, metrics[i], err)
			}
		}
		rows = append(rows, row)
	}
	return metrics, rows, nil
}
