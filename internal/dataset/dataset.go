// Package dataset provides tabular data handling for the pipeline:
// CSV reading/writing, target/feature separation, train/test splitting,
// and schema validation.
package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"strconv"

	"gonum.org/v1/gonum/mat"
)

// ErrColumnNotFound is returned when a named column is absent.
var ErrColumnNotFound = errors.New("column not found")

// Frame is an in-memory tabular dataset with named float64 columns.
type Frame struct {
	Columns []string
	Rows    [][]float64
}

// NumRows returns the number of data rows.
func (f *Frame) NumRows() int { return len(f.Rows) }

// NumCols returns the number of columns.
func (f *Frame) NumCols() int { return len(f.Columns) }

// ColumnIndex returns the index of the named column.
func (f *Frame) ColumnIndex(name string) (int, bool) {
	for i, c := range f.Columns {
		if c == name {
			return i, true
		}
	}
	return 0, false
}

// ReadCSV reads a headed CSV file of numeric columns into a Frame.
func ReadCSV(path string) (*Frame, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open dataset %s: %w", path, err)
	}
	defer file.Close()

	r := csv.NewReader(file)
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse csv %s: %w", path, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("dataset %s is empty", path)
	}

	frame := &Frame{Columns: records[0]}
	frame.Rows = make([][]float64, 0, len(records)-1)

	for i, record := range records[1:] {
		row := make([]float64, len(record))
		for j, cell := range record {
			v, err := strconv.ParseFloat(cell, 64)
			if err != nil {
				return nil, fmt.Errorf("%s: row %d, column %q: invalid numeric value %q", path, i+1, frame.Columns[j], cell)
			}
			row[j] = v
		}
		frame.Rows = append(frame.Rows, row)
	}

	return frame, nil
}

// WriteCSV writes the frame to path as a headed CSV file. Values are
// formatted with the shortest representation that round-trips, so the
// output is deterministic for identical frames.
func (f *Frame) WriteCSV(path string) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer file.Close()

	w := csv.NewWriter(file)
	if err := w.Write(f.Columns); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	record := make([]string, len(f.Columns))
	for _, row := range f.Rows {
		for j, v := range row {
			record[j] = strconv.FormatFloat(v, 'g', -1, 64)
		}
		if err := w.Write(record); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("failed to flush %s: %w", path, err)
	}
	return nil
}

// SplitXY separates the target column from the features.
// X has one column per non-target column in the frame's order; y is the
// target vector.
func (f *Frame) SplitXY(target string) (*mat.Dense, *mat.VecDense, error) {
	ti, ok := f.ColumnIndex(target)
	if !ok {
		return nil, nil, fmt.Errorf("target column %q: %w", target, ErrColumnNotFound)
	}
	if f.NumRows() == 0 {
		return nil, nil, errors.New("dataset has no rows")
	}

	n := f.NumRows()
	p := f.NumCols() - 1

	X := mat.NewDense(n, p, nil)
	y := mat.NewVecDense(n, nil)

	for i, row := range f.Rows {
		k := 0
		for j, v := range row {
			if j == ti {
				y.SetVec(i, v)
				continue
			}
			X.Set(i, k, v)
			k++
		}
	}

	return X, y, nil
}

// FeatureNames returns the column names excluding the target column.
func (f *Frame) FeatureNames(target string) []string {
	names := make([]string, 0, len(f.Columns))
	for _, c := range f.Columns {
		if c != target {
			names = append(names, c)
		}
	}
	return names
}
