package csvfile

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var header = []string{"id", "amount"}

type item struct {
	ID     string
	Amount int
}

func parseItem(row []string) (item, error) {
	n, err := strconv.Atoi(row[1])
	if err != nil {
		return item{}, err
	}
	return item{ID: row[0], Amount: n}, nil
}

func TestWriteRead(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, header, [][]string{{"a", "1"}, {"b, c", "2"}}))
	assert.Equal(t, "id,amount\na,1\n\"b, c\",2\n", buf.String())

	got, err := Read(&buf, 2, parseItem)
	require.NoError(t, err)
	assert.Equal(t, []item{{"a", 1}, {"b, c", 2}}, got)
}

func TestRead(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    []item
		wantErr string
	}{
		{"empty", "", nil, ""},
		{"header only", "id,amount\n", nil, ""},
		{"bad record names file line", "id,amount\na,1\nb,x\n", nil, "row 3"},
		{"wrong field count", "id,amount\na,1,2\n", nil, "wrong number of fields"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Read(strings.NewReader(tt.input), 2, parseItem)
			if tt.wantErr != "" {
				assert.ErrorContains(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestReadFile_Missing(t *testing.T) {
	got, err := ReadFile(filepath.Join(t.TempDir(), "nope.csv"), 2, parseItem)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestAppend_HeaderOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "items.csv")

	_, err := Append(path, header, [][]string{{"a", "1"}})
	require.NoError(t, err)
	_, err = Append(path, header, [][]string{{"b", "2"}})
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "id,amount\na,1\nb,2\n", string(data))
}

func TestAppend_UndoRemovesCreatedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "items.csv")

	undo, err := Append(path, header, [][]string{{"a", "1"}})
	require.NoError(t, err)
	require.NoError(t, undo())

	_, err = os.Stat(path)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestAppend_UndoTruncates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "items.csv")
	_, err := Append(path, header, [][]string{{"a", "1"}})
	require.NoError(t, err)

	undo, err := Append(path, header, [][]string{{"b", "2"}, {"c", "3"}})
	require.NoError(t, err)
	require.NoError(t, undo())

	got, err := ReadFile(path, 2, parseItem)
	require.NoError(t, err)
	assert.Equal(t, []item{{"a", 1}}, got)
}
