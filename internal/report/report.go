// Package report renders a reviewed batch for people: an aligned text
// preview for the terminal and a CSV export for spreadsheets.
package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/gocarina/gocsv"
	"github.com/shopspring/decimal"

	"github.com/cleared-dev/saldo/internal/model"
)

const dateFormat = "2006-01-02"

// Row is one movement as exported.
type Row struct {
	Sequence int    `csv:"sequence"`
	Date     string `csv:"date"`
	Ref      string `csv:"reference"`
	Concept  string `csv:"concept"`
	Debit    string `csv:"debit"`
	Credit   string `csv:"credit"`
	Reported string `csv:"reported_balance"`
	Computed string `csv:"computed_balance"`
	Status   string `csv:"status"`
	Warning  string `csv:"warning"`
}

// Status values in exported rows.
const (
	StatusOK      = "ok"
	StatusFlagged = "flagged"
)

// Rows converts movements to export rows in the given order.
func Rows(movements []model.Movement) []Row {
	rows := make([]Row, len(movements))
	for i, m := range movements {
		r := Row{
			Sequence: m.Sequence,
			Ref:      m.Reference,
			Concept:  m.Concept,
			Debit:    amount(m.Debit),
			Credit:   amount(m.Credit),
			Reported: m.ReportedBalance.StringFixed(2),
			Status:   StatusOK,
			Warning:  m.Warning,
		}
		if m.Date != nil {
			r.Date = m.Date.Format(dateFormat)
		}
		if m.ComputedBalance.Valid {
			r.Computed = m.ComputedBalance.Decimal.StringFixed(2)
		}
		if m.Flagged() {
			r.Status = StatusFlagged
		}
		rows[i] = r
	}
	return rows
}

// WriteCSV exports movements with a header row.
func WriteCSV(w io.Writer, movements []model.Movement) error {
	rows := Rows(movements)
	if err := gocsv.MarshalCSV(&rows, gocsv.NewSafeCSVWriter(csv.NewWriter(w))); err != nil {
		return fmt.Errorf("writing preview CSV: %w", err)
	}
	return nil
}

// WritePreview prints movements as an aligned table followed by the
// reconciliation summary.
func WritePreview(w io.Writer, movements []model.Movement, rec model.Reconciliation) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tDate\tConcept\tDebit\tCredit\tReported\tComputed\t")
	for _, r := range Rows(movements) {
		date := r.Date
		if date == "" {
			date = "?"
		}
		mark := ""
		if r.Status == StatusFlagged {
			mark = " !"
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t%s%s\t\n",
			r.Sequence, date, firstLine(r.Concept, 32), r.Debit, r.Credit, r.Reported, r.Computed, mark)
	}
	if err := tw.Flush(); err != nil {
		return fmt.Errorf("writing preview: %w", err)
	}

	_, err := io.WriteString(w, "\n"+Summary(rec))
	return err
}

// Summary describes a reconciliation in a few lines.
func Summary(rec model.Reconciliation) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Movements: %d (%d valid, %d flagged)\n", rec.Total, rec.Valid, rec.Flagged)
	fmt.Fprintf(&b, "Opening:   %s\n", rec.OpeningBalance.StringFixed(2))
	fmt.Fprintf(&b, "Closing:   %s computed, %s reported\n",
		rec.ClosingComputed.StringFixed(2), rec.ClosingReported.StringFixed(2))
	fmt.Fprintf(&b, "Statement: %s %s\n", verdict(rec.InternallyConsistent), rec.InternalMessage)
	fmt.Fprintf(&b, "Account:   %s %s\n", verdict(rec.OpeningConsistent), rec.OpeningMessage)
	for _, w := range rec.Warnings {
		fmt.Fprintf(&b, "  row %d: %s\n", w.Sequence, w.Warning)
	}
	return b.String()
}

func verdict(ok bool) string {
	if ok {
		return "OK"
	}
	return "FAIL"
}

func amount(d decimal.Decimal) string {
	if d.IsZero() {
		return ""
	}
	return d.StringFixed(2)
}

// firstLine returns the first line of s cut to max runes.
func firstLine(s string, max int) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i] + " …"
	}
	if r := []rune(s); len(r) > max {
		s = string(r[:max-1]) + "…"
	}
	return s
}
