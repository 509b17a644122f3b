// Package balance replays a statement's movements to recompute its running
// balance independently of the balances the bank printed.
package balance

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/saldo/internal/model"
)

// Tolerance is the largest difference at which two amounts are still equal.
var Tolerance = decimal.New(1, -2)

const places = 2

// Result is the outcome of replaying one batch.
type Result struct {
	Movements       []model.Movement // chronological, with ComputedBalance set on dated rows
	Opening         decimal.Decimal  // reported balance of the earliest dated row
	ClosingReported decimal.Decimal
	ClosingComputed decimal.Decimal
	FirstCredit     decimal.Decimal
	FirstDebit      decimal.Decimal
	Anchored        bool // false when no row carries a date
}

// Replay sorts movements by date and recomputes the running balance.
//
// Rows without a date sort first and keep their warning; they take no part in
// the running total. The earliest dated row's reported balance is taken as
// given. Every later row must equal the previous computed balance plus credit
// minus debit within Tolerance, or it gets a mismatch warning.
func Replay(movements []model.Movement) Result {
	sorted := make([]model.Movement, len(movements))
	copy(sorted, movements)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i].Date, sorted[j].Date
		if a == nil || b == nil {
			return a == nil && b != nil
		}
		return a.Before(*b)
	})

	res := Result{Movements: sorted}
	var running decimal.Decimal
	for i, m := range sorted {
		if !m.HasDate() {
			continue
		}
		if !res.Anchored {
			running = m.ReportedBalance.Round(places)
			res.Anchored = true
			res.Opening = m.ReportedBalance
			res.FirstCredit = m.Credit
			res.FirstDebit = m.Debit
		} else {
			running = running.Add(m.Credit).Sub(m.Debit).Round(places)
		}

		m = m.WithComputedBalance(running)
		if !Equal(running, m.ReportedBalance) {
			m = m.WithWarning(MismatchWarning(running, m.ReportedBalance))
		}
		sorted[i] = m

		res.ClosingReported = m.ReportedBalance
		res.ClosingComputed = running
	}
	return res
}

// Equal reports whether a and b differ by no more than Tolerance.
func Equal(a, b decimal.Decimal) bool {
	return a.Sub(b).Abs().LessThanOrEqual(Tolerance)
}

// MismatchWarning describes a row whose printed balance disagrees with the replay.
func MismatchWarning(computed, reported decimal.Decimal) string {
	return fmt.Sprintf("computed balance %s does not match reported balance %s",
		computed.StringFixed(places), reported.StringFixed(places))
}
