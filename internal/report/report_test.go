package report

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/saldo/internal/model"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func movements() []model.Movement {
	d := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	return []model.Movement{
		{Sequence: 7, Concept: "SIN FECHA", ReportedBalance: dec("0"), Warning: model.WarningInvalidDate},
		{Sequence: 1, Date: &d, Concept: "DEPOSITO\nSPEI", Credit: dec("100"), ReportedBalance: dec("100"),
			ComputedBalance: decimal.NullDecimal{Decimal: dec("100"), Valid: true}},
	}
}

func TestRows(t *testing.T) {
	rows := Rows(movements())
	require.Len(t, rows, 2)

	assert.Equal(t, Row{Sequence: 7, Concept: "SIN FECHA", Reported: "0.00", Status: StatusFlagged, Warning: "invalid date"}, rows[0])
	assert.Equal(t, "2024-01-02", rows[1].Date)
	assert.Empty(t, rows[1].Debit)
	assert.Equal(t, "100.00", rows[1].Credit)
	assert.Equal(t, "100.00", rows[1].Computed)
	assert.Equal(t, StatusOK, rows[1].Status)
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, movements()))

	header := strings.SplitN(buf.String(), "\n", 2)[0]
	assert.Equal(t, "sequence,date,reference,concept,debit,credit,reported_balance,computed_balance,status,warning", header)

	var got []Row
	require.NoError(t, gocsv.Unmarshal(bytes.NewReader(buf.Bytes()), &got))
	assert.Equal(t, Rows(movements()), got)
}

func TestWritePreview(t *testing.T) {
	rec := model.Reconciliation{
		OpeningBalance:       dec("100"),
		ClosingComputed:      dec("100"),
		ClosingReported:      dec("100"),
		InternalMessage:      "1 of 2 movements flagged",
		OpeningConsistent:    true,
		OpeningMessage:       "account has no stored balance; opening balance accepted as declared",
		Warnings:             []model.RowWarning{{Sequence: 7, Warning: "invalid date"}},
		Total:                2,
		Valid:                1,
		Flagged:              1,
		InternallyConsistent: false,
	}

	var buf bytes.Buffer
	require.NoError(t, WritePreview(&buf, movements(), rec))
	out := buf.String()

	assert.Contains(t, out, "DEPOSITO …")
	assert.NotContains(t, out, "SPEI")
	assert.Contains(t, out, "Movements: 2 (1 valid, 1 flagged)")
	assert.Contains(t, out, "Statement: FAIL 1 of 2 movements flagged")
	assert.Contains(t, out, "Account:   OK")
	assert.Contains(t, out, "row 7: invalid date")
	assert.Contains(t, out, " !")
}

func TestFirstLine(t *testing.T) {
	assert.Equal(t, "abc", firstLine("abc", 10))
	assert.Equal(t, "a …", firstLine("a\nb", 10))
	assert.Equal(t, "abcd…", firstLine("abcdefgh", 5))
}
