// Package sheet reads statement exports into raw grids for the importer.
package sheet

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/extrame/xls"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/charmap"

	"github.com/cleared-dev/saldo/internal/model"
)

// ErrUnsupportedFormat is returned for file extensions with no reader.
var ErrUnsupportedFormat = errors.New("unsupported statement format")

// Extensions lists the file extensions ReadFile understands.
var Extensions = []string{".xlsx", ".xls", ".csv"}

// Supported reports whether name has a readable extension.
func Supported(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range Extensions {
		if ext == e {
			return true
		}
	}
	return false
}

// ReadFile reads the first worksheet of an .xlsx or .xls file, or a whole
// .csv file, into a grid.
func ReadFile(path string) (model.Grid, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening statement: %w", err)
	}
	defer f.Close()

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".xlsx":
		return ReadXLSX(f)
	case ".xls":
		return ReadXLS(f)
	case ".csv":
		return ReadCSV(f)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
}

// ReadXLSX reads the first worksheet of a workbook. Numeric cells become
// float64 so date serials reach the importer intact; text cells stay strings
// and empty cells are nil.
func ReadXLSX(r io.Reader) (model.Grid, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("opening workbook: %w", err)
	}
	defer f.Close()

	name := f.GetSheetName(0)
	if name == "" {
		return nil, errors.New("workbook has no worksheets")
	}
	rows, err := f.GetRows(name, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("reading worksheet %q: %w", name, err)
	}

	grid := make(model.Grid, len(rows))
	for i, cells := range rows {
		row := make(model.Row, len(cells))
		for j, raw := range cells {
			if raw == "" {
				continue
			}
			axis, err := excelize.CoordinatesToCellName(j+1, i+1)
			if err != nil {
				return nil, fmt.Errorf("cell %d,%d: %w", i+1, j+1, err)
			}
			typ, err := f.GetCellType(name, axis)
			if err != nil {
				return nil, fmt.Errorf("cell %s: %w", axis, err)
			}
			row[j] = xlsxCell(typ, raw)
		}
		grid[i] = row
	}
	return grid, nil
}

func xlsxCell(typ excelize.CellType, raw string) any {
	switch typ {
	case excelize.CellTypeSharedString, excelize.CellTypeInlineString, excelize.CellTypeFormula, excelize.CellTypeBool, excelize.CellTypeError:
		return raw
	}
	if v, err := strconv.ParseFloat(raw, 64); err == nil {
		return v
	}
	return raw
}

// ReadXLS reads the first worksheet of an Excel 97 workbook. The format only
// yields formatted text, so every non-empty cell is a string.
func ReadXLS(r io.ReadSeeker) (model.Grid, error) {
	wb, err := xls.OpenReader(r, "utf-8")
	if err != nil {
		return nil, fmt.Errorf("opening xls workbook: %w", err)
	}
	if wb == nil || wb.NumSheets() == 0 {
		return nil, errors.New("workbook has no worksheets")
	}
	ws := wb.GetSheet(0)
	if ws == nil {
		return nil, errors.New("reading first worksheet")
	}

	var grid model.Grid
	for i := 0; i <= int(ws.MaxRow); i++ {
		src := ws.Row(i)
		if src == nil {
			grid = append(grid, nil)
			continue
		}
		row := make(model.Row, src.LastCol())
		for j := src.FirstCol(); j < src.LastCol(); j++ {
			row[j] = textCell(src.Col(j))
		}
		grid = append(grid, row)
	}
	return trimTrailing(grid), nil
}

// ReadCSV reads a delimited text export. The delimiter is ',' unless the
// first line has more ';' than ','. A UTF-8 byte order mark is dropped and
// input that is not valid UTF-8 is decoded as Windows-1252.
func ReadCSV(r io.Reader) (model.Grid, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading statement CSV: %w", err)
	}
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	if !utf8.Valid(data) {
		if data, err = charmap.Windows1252.NewDecoder().Bytes(data); err != nil {
			return nil, fmt.Errorf("decoding statement CSV: %w", err)
		}
	}

	cr := csv.NewReader(bytes.NewReader(data))
	cr.Comma = sniffDelimiter(data)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parsing statement CSV: %w", err)
	}

	grid := make(model.Grid, len(records))
	for i, rec := range records {
		row := make(model.Row, len(rec))
		for j, v := range rec {
			row[j] = textCell(v)
		}
		grid[i] = row
	}
	return grid, nil
}

func sniffDelimiter(data []byte) rune {
	line := data
	if i := bytes.IndexByte(line, '\n'); i >= 0 {
		line = line[:i]
	}
	if bytes.Count(line, []byte{';'}) > bytes.Count(line, []byte{','}) {
		return ';'
	}
	return ','
}

func textCell(s string) any {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return s
}

func trimTrailing(grid model.Grid) model.Grid {
	for len(grid) > 0 && grid[len(grid)-1].Blank() {
		grid = grid[:len(grid)-1]
	}
	return grid
}
