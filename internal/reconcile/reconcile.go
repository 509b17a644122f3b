// Package reconcile decides whether a replayed statement is internally
// consistent and whether it continues from the account's stored balance.
package reconcile

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/saldo/internal/balance"
	"github.com/cleared-dev/saldo/internal/model"
)

const nothingToReconcile = "statement has no movements to reconcile"

// Validate builds the reconciliation verdict for a replayed batch. current is
// the account's stored balance before this statement; an invalid current
// balance makes the opening check pass vacuously.
func Validate(r balance.Result, current decimal.NullDecimal) model.Reconciliation {
	if len(r.Movements) == 0 {
		return model.Reconciliation{
			InternalMessage: nothingToReconcile,
			OpeningMessage:  nothingToReconcile,
		}
	}

	rec := model.Reconciliation{
		OpeningBalance:  r.Opening,
		OpeningReported: r.Opening,
		ClosingReported: r.ClosingReported,
		ClosingComputed: r.ClosingComputed,
		FirstCredit:     r.FirstCredit,
		FirstDebit:      r.FirstDebit,
		Total:           len(r.Movements),
	}

	var firstMismatch *model.Movement
	for i, m := range r.Movements {
		if m.ComputedBalance.Valid && firstMismatch == nil && m.Warning != "" {
			firstMismatch = &r.Movements[i]
		}
		if m.Flagged() {
			rec.Flagged++
			rec.Warnings = append(rec.Warnings, model.RowWarning{Sequence: m.Sequence, Warning: m.Warning})
			continue
		}
		rec.Valid++
	}
	if r.Anchored {
		rec.OpeningComputed = openingComputed(r.Movements)
	}

	checkInternal(&rec, r, firstMismatch)
	checkOpening(&rec, r, current)
	return rec
}

func openingComputed(movs []model.Movement) decimal.Decimal {
	for _, m := range movs {
		if m.ComputedBalance.Valid {
			return m.ComputedBalance.Decimal
		}
	}
	return decimal.Zero
}

func checkInternal(rec *model.Reconciliation, r balance.Result, firstMismatch *model.Movement) {
	rec.InternalDiscrepancy = r.ClosingComputed.Sub(r.ClosingReported)
	switch {
	case !r.Anchored:
		rec.InternalMessage = "no movement has a valid date; the running balance cannot be replayed"
	case rec.Flagged == 0:
		rec.InternallyConsistent = true
		rec.InternalMessage = fmt.Sprintf("all %d movements match their reported balance", rec.Total)
	case firstMismatch != nil:
		rec.InternalMessage = fmt.Sprintf("%d of %d movements flagged; first balance mismatch at row %d: %s",
			rec.Flagged, rec.Total, firstMismatch.Sequence, firstMismatch.Warning)
	default:
		rec.InternalMessage = fmt.Sprintf("%d of %d movements flagged", rec.Flagged, rec.Total)
	}
}

func checkOpening(rec *model.Reconciliation, r balance.Result, current decimal.NullDecimal) {
	if !r.Anchored {
		rec.OpeningMessage = "no dated movement to anchor the opening balance"
		return
	}
	if !current.Valid {
		rec.OpeningConsistent = true
		rec.OpeningMessage = "account has no stored balance; opening balance accepted as declared"
		return
	}

	expected := current.Decimal.Add(r.FirstCredit).Sub(r.FirstDebit)
	rec.OpeningDiscrepancy = expected.Sub(r.Opening)
	if balance.Equal(expected, r.Opening) {
		rec.OpeningConsistent = true
		rec.OpeningMessage = fmt.Sprintf("opening balance %s continues from account balance %s",
			r.Opening.StringFixed(2), current.Decimal.StringFixed(2))
		return
	}
	rec.OpeningMessage = fmt.Sprintf(
		"opening balance %s does not continue from account balance %s (%s + credit %s - debit %s = %s, difference %s)",
		r.Opening.StringFixed(2), current.Decimal.StringFixed(2),
		current.Decimal.StringFixed(2), r.FirstCredit.StringFixed(2), r.FirstDebit.StringFixed(2),
		expected.StringFixed(2), rec.OpeningDiscrepancy.StringFixed(2))
}

// Partition splits movements into the warning-free rows that may be committed
// and the flagged rows that may not. Order is preserved in both.
func Partition(movements []model.Movement) (accepted, rejected []model.Movement) {
	for _, m := range movements {
		if m.Flagged() {
			rejected = append(rejected, m)
			continue
		}
		accepted = append(accepted, m)
	}
	return accepted, rejected
}
