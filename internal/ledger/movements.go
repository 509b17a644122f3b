package ledger

import (
	"fmt"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/saldo/internal/model"
)

// MovementsHeader is the CSV header for movements/<account>.csv.
var MovementsHeader = []string{
	"batch_id", "sequence", "date", "reference", "concept",
	"debit", "credit", "reported_balance", "computed_balance",
}

const (
	movNumFields   = 9
	dateFormat     = "2006-01-02"
	movColBatch    = 0
	movColSeq      = 1
	movColDate     = 2
	movColRef      = 3
	movColConcept  = 4
	movColDebit    = 5
	movColCredit   = 6
	movColReported = 7
	movColComputed = 8
)

// Entry is one committed movement and the batch that brought it in.
type Entry struct {
	BatchID  string
	Movement model.Movement
}

// marshalEntries converts entries to CSV rows.
func marshalEntries(entries []Entry) [][]string {
	rows := make([][]string, len(entries))
	for i, e := range entries {
		rows[i] = MarshalEntry(e)
	}
	return rows
}

// MarshalEntry converts an Entry to a CSV row.
func MarshalEntry(e Entry) []string {
	m := e.Movement
	row := make([]string, movNumFields)
	row[movColBatch] = e.BatchID
	row[movColSeq] = strconv.Itoa(m.Sequence)
	if m.Date != nil {
		row[movColDate] = m.Date.Format(dateFormat)
	}
	row[movColRef] = m.Reference
	row[movColConcept] = m.Concept
	if !m.Debit.IsZero() {
		row[movColDebit] = m.Debit.StringFixed(2)
	}
	if !m.Credit.IsZero() {
		row[movColCredit] = m.Credit.StringFixed(2)
	}
	row[movColReported] = m.ReportedBalance.StringFixed(2)
	if m.ComputedBalance.Valid {
		row[movColComputed] = m.ComputedBalance.Decimal.StringFixed(2)
	}
	return row
}

// UnmarshalEntry converts a CSV row to an Entry.
func UnmarshalEntry(record []string) (Entry, error) {
	if len(record) != movNumFields {
		return Entry{}, fmt.Errorf("expected %d fields, got %d", movNumFields, len(record))
	}

	seq, err := strconv.Atoi(record[movColSeq])
	if err != nil {
		return Entry{}, fmt.Errorf("parsing sequence %q: %w", record[movColSeq], err)
	}

	m := model.Movement{
		Sequence:  seq,
		Reference: record[movColRef],
		Concept:   record[movColConcept],
	}

	if record[movColDate] != "" {
		d, err := time.Parse(dateFormat, record[movColDate])
		if err != nil {
			return Entry{}, fmt.Errorf("parsing date %q: %w", record[movColDate], err)
		}
		m.Date = &d
	}

	if m.Debit, err = optionalDecimal("debit", record[movColDebit]); err != nil {
		return Entry{}, err
	}
	if m.Credit, err = optionalDecimal("credit", record[movColCredit]); err != nil {
		return Entry{}, err
	}
	if m.ReportedBalance, err = optionalDecimal("reported_balance", record[movColReported]); err != nil {
		return Entry{}, err
	}
	if record[movColComputed] != "" {
		c, err := decimal.NewFromString(record[movColComputed])
		if err != nil {
			return Entry{}, fmt.Errorf("parsing computed_balance %q: %w", record[movColComputed], err)
		}
		m.ComputedBalance = decimal.NullDecimal{Decimal: c, Valid: true}
	}

	return Entry{BatchID: record[movColBatch], Movement: m}, nil
}

func optionalDecimal(field, s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parsing %s %q: %w", field, s, err)
	}
	return d, nil
}
