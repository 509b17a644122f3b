package sheet

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/cleared-dev/saldo/internal/importer"
)

func writeWorkbook(t *testing.T, cells map[string]any) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	for axis, v := range cells {
		require.NoError(t, f.SetCellValue("Sheet1", axis, v))
	}
	path := filepath.Join(t.TempDir(), "estado.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}

func TestReadFile_XLSX(t *testing.T) {
	path := writeWorkbook(t, map[string]any{
		"A1": "Fecha", "B1": "Concepto", "C1": "Abono", "D1": "Saldo",
		"A2": 44000, "B2": "DEPOSITO", "C2": 100.5, "D2": 100.5,
		"A3": "0012", "D3": 100.5,
	})

	grid, err := ReadFile(path)
	require.NoError(t, err)
	require.Len(t, grid, 3)

	assert.Equal(t, "Fecha", grid[0][0])
	assert.Equal(t, 44000.0, grid[1][0])
	assert.Equal(t, "DEPOSITO", grid[1][1])
	assert.Equal(t, 100.5, grid[1][2])
	assert.Equal(t, "0012", grid[2][0], "text cells stay text")
	assert.Nil(t, grid[2][1])
	assert.Nil(t, grid[2][2])
}

func TestReadXLSX_NotAWorkbook(t *testing.T) {
	_, err := ReadXLSX(strings.NewReader("plain text"))
	assert.Error(t, err)
}

func TestReadCSV(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"comma", "Fecha,Cargo,Saldo\n01/01/2024,,100.00\n"},
		{"semicolon", "Fecha;Cargo;Saldo\n01/01/2024;;100.00\n"},
		{"byte order mark", "\xef\xbb\xbfFecha,Cargo,Saldo\n01/01/2024,,100.00\n"},
		{"crlf", "Fecha,Cargo,Saldo\r\n01/01/2024,,100.00\r\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			grid, err := ReadCSV(strings.NewReader(tt.input))
			require.NoError(t, err)
			require.Len(t, grid, 2)
			assert.Equal(t, "Fecha", grid[0][0])
			assert.Equal(t, "01/01/2024", grid[1][0])
			assert.Nil(t, grid[1][1])
			assert.Equal(t, "100.00", grid[1][2])
		})
	}
}

func TestReadCSV_RaggedRows(t *testing.T) {
	grid, err := ReadCSV(strings.NewReader("Estado de cuenta\nFecha,Concepto,Saldo\n01/01/2024,\"PAGO, FACTURA\",5\n"))
	require.NoError(t, err)
	require.Len(t, grid, 3)
	assert.Len(t, grid[0], 1)
	assert.Equal(t, "PAGO, FACTURA", grid[2][1])
}

func TestReadCSV_Windows1252(t *testing.T) {
	input := "Fecha,Concepto,Retiro,Dep\xf3sito,Saldo\n" +
		"01/02/2024,Dep\xf3sito inicial,,100.00,100.00\n" +
		"02/02/2024,N\xf3mina,,50.00,150.00\n"

	grid, err := ReadCSV(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, grid, 3)
	assert.Equal(t, "Depósito", grid[0][3])
	assert.Equal(t, "Nómina", grid[2][1])

	movs := importer.Generic.Parse(grid, importer.Options{})
	require.Len(t, movs, 2)
	assert.True(t, movs[0].Credit.Equal(decimal.RequireFromString("100")), "credit column resolved")
	assert.True(t, movs[1].Credit.Equal(decimal.RequireFromString("50")))
	assert.Equal(t, "Nómina", movs[1].Concept)
}

func TestReadCSV_UTF8Untouched(t *testing.T) {
	grid, err := ReadCSV(strings.NewReader("Fecha,Depósito\n01/02/2024,5\n"))
	require.NoError(t, err)
	assert.Equal(t, "Depósito", grid[0][1])
}

func TestReadXLS_NotAWorkbook(t *testing.T) {
	_, err := ReadXLS(strings.NewReader("Fecha,Saldo\n01/01/2024,5\n"))
	assert.Error(t, err)
}

func TestReadFile_CorruptXLS(t *testing.T) {
	path := filepath.Join(t.TempDir(), "estado.xls")
	require.NoError(t, os.WriteFile(path, make([]byte, 1024), 0o644))

	_, err := ReadFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "opening xls workbook")
}

func TestSniffDelimiter(t *testing.T) {
	assert.Equal(t, ';', sniffDelimiter([]byte("a;b;c,d\n1,2,3")))
	assert.Equal(t, ',', sniffDelimiter([]byte("a,b\n1;2;3;4")))
	assert.Equal(t, ',', sniffDelimiter(nil))
}

func TestReadFile_Unsupported(t *testing.T) {
	path := filepath.Join(t.TempDir(), "estado.pdf")
	require.NoError(t, os.WriteFile(path, []byte("%PDF"), 0o644))

	_, err := ReadFile(path)
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestReadFile_Missing(t *testing.T) {
	_, err := ReadFile(filepath.Join(t.TempDir(), "nope.csv"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestSupported(t *testing.T) {
	assert.True(t, Supported("enero.XLSX"))
	assert.True(t, Supported("enero.xls"))
	assert.True(t, Supported("enero.csv"))
	assert.False(t, Supported("enero.pdf"))
	assert.False(t, Supported("enero"))
}

func TestScan_FindsStatements(t *testing.T) {
	dir := t.TempDir()
	inbox := filepath.Join(dir, InboxDir)
	require.NoError(t, os.MkdirAll(inbox, 0o755))

	for _, name := range []string{"b.xlsx", "a.csv", "notes.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(inbox, name), []byte("data"), 0o644))
	}

	files, err := Scan(dir)
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, "a.csv", files[0].Name)
	assert.Equal(t, "b.xlsx", files[1].Name)
	assert.Equal(t, int64(4), files[0].Size)
}

func TestScan_IgnoresProcessedDir(t *testing.T) {
	dir := t.TempDir()
	inbox := filepath.Join(dir, InboxDir)
	processed := filepath.Join(inbox, "processed")
	require.NoError(t, os.MkdirAll(processed, 0o755))

	require.NoError(t, os.WriteFile(filepath.Join(inbox, "new.csv"), []byte("data"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(processed, "old.csv"), []byte("data"), 0o644))

	files, err := Scan(dir)
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "new.csv", files[0].Name)
}

func TestScan_NoInbox(t *testing.T) {
	files, err := Scan(t.TempDir())
	require.NoError(t, err)
	assert.Nil(t, files)
}

func TestMarkProcessed(t *testing.T) {
	dir := t.TempDir()
	inbox := filepath.Join(dir, InboxDir)
	require.NoError(t, os.MkdirAll(inbox, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(inbox, "enero.xlsx"), []byte("data"), 0o644))

	require.NoError(t, MarkProcessed(dir, "enero.xlsx"))

	_, err := os.Stat(filepath.Join(inbox, "enero.xlsx"))
	assert.True(t, os.IsNotExist(err))

	_, err = os.Stat(filepath.Join(dir, "inbox", "processed", "enero.xlsx"))
	assert.NoError(t, err)
}

func TestMarkProcessed_MissingFile(t *testing.T) {
	err := MarkProcessed(t.TempDir(), "nope.csv")
	assert.Error(t, err)
}
