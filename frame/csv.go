package frame

import (
	"bufio"
	"encoding/csv"
	"io"
	"os"

	"github.com/pkg/errors"
)

// FromCSV reads a frame from CSV data. The first record is the header row and
// becomes the column names. Values are kept as strings; coercion happens at
// encoding time when the column type is known.
func FromCSV(r io.Reader) (*Frame, error) {
	reader := csv.NewReader(bufio.NewReader(r))
	header, err := reader.Read()
	if err != nil {
		return nil, errors.Wrap(err, "reading csv header")
	}
	columns := make([]Column, len(header))
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, "reading csv record")
		}
		for i, v := range record {
			columns[i] = append(columns[i], v)
		}
	}
	f := New()
	for i, name := range header {
		if err := f.AddColumn(name, columns[i]); err != nil {
			return nil, err
		}
	}
	return f, nil
}

// FromCSVFile reads a frame from a CSV file on disk.
func FromCSVFile(path string) (*Frame, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return FromCSV(f)
}
