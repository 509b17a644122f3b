// Package csvfile implements the on-disk convention shared by every ledger
// file: one header line followed by fixed-width records.
package csvfile

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// Read parses each record after the header with parse. Records must have
// exactly fields cells. Errors name the file line, counting the header as 1.
func Read[T any](r io.Reader, fields int, parse func([]string) (T, error)) ([]T, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = fields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) <= 1 {
		return nil, nil
	}

	out := make([]T, 0, len(records)-1)
	for i, rec := range records[1:] {
		v, err := parse(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		out = append(out, v)
	}
	return out, nil
}

// ReadFile is Read over the file at path. A missing file has no records.
func ReadFile[T any](path string, fields int, parse func([]string) (T, error)) ([]T, error) {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Read(f, fields, parse)
}

// Write writes header followed by rows.
func Write(w io.Writer, header []string, rows [][]string) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	return writeRows(cw, rows)
}

// Append adds rows to the file at path, creating it and its directory with
// header first when it does not exist. The returned undo puts the file back
// the way Append found it: truncated to its old length, or removed.
func Append(path string, header []string, rows [][]string) (undo func() error, err error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating %s: %w", filepath.Dir(path), err)
	}

	created := false
	var size int64
	info, err := os.Stat(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		created = true
	case err != nil:
		return nil, err
	default:
		size = info.Size()
	}

	undo = func() error {
		if created {
			return os.Remove(path)
		}
		return os.Truncate(path, size)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		return nil, err
	}

	cw := csv.NewWriter(f)
	if created {
		err = cw.Write(header)
	}
	if err == nil {
		err = writeRows(cw, rows)
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return nil, errors.Join(err, undo())
	}
	return undo, nil
}

func writeRows(cw *csv.Writer, rows [][]string) error {
	for i, row := range rows {
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing row %d: %w", i+1, err)
		}
	}
	cw.Flush()
	return cw.Error()
}
