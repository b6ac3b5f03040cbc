// Package datalogger writes the per-run CSV data file. Columns are fixed
// at creation from the runner's declaration; rows are written by column
// name so runner code never depends on column positions.
package datalogger

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
)

// FileBase is the fixed data file name; a non-empty run id is inserted
// before the extension ("data_logger_<id>.csv").
const FileBase = "data_logger.csv"

// FileName returns the data file name for a run id.
func FileName(runID string) string {
	if runID == "" {
		return FileBase
	}
	return fmt.Sprintf("data_logger_%s.csv", runID)
}

// UnknownColumnError reports a write against a column the runner never
// declared.
type UnknownColumnError struct {
	Column string
}

func (e *UnknownColumnError) Error() string {
	return fmt.Sprintf("data column %q was not declared by the runner", e.Column)
}

// Logger appends rows to one run's CSV file.
type Logger struct {
	file    *os.File
	w       *csv.Writer
	columns []string
	index   map[string]int
}

// New creates the data file at path and writes the header row.
func New(path string, columns []string) (*Logger, error) {
	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create data log %s: %w", path, err)
	}

	w := csv.NewWriter(file)
	if err := w.Write(columns); err != nil {
		file.Close()
		return nil, fmt.Errorf("write data log header: %w", err)
	}

	index := make(map[string]int, len(columns))
	for i, c := range columns {
		index[c] = i
	}
	return &Logger{file: file, w: w, columns: columns, index: index}, nil
}

// Columns returns the declared column names in order.
func (l *Logger) Columns() []string {
	out := make([]string, len(l.columns))
	copy(out, l.columns)
	return out
}

// Write appends one row. Missing columns are left empty; an undeclared
// column is an error so typos surface immediately.
func (l *Logger) Write(values map[string]float64) error {
	row := make([]string, len(l.columns))
	for name, v := range values {
		i, ok := l.index[name]
		if !ok {
			return &UnknownColumnError{Column: name}
		}
		row[i] = strconv.FormatFloat(v, 'g', -1, 64)
	}
	if err := l.w.Write(row); err != nil {
		return fmt.Errorf("write data row: %w", err)
	}
	return nil
}

// Close flushes buffered rows and closes the file.
func (l *Logger) Close() error {
	l.w.Flush()
	if err := l.w.Error(); err != nil {
		l.file.Close()
		return fmt.Errorf("flush data log: %w", err)
	}
	return l.file.Close()
}
