package model

import "github.com/shopspring/decimal"

// RowWarning pairs a flagged row with its warning text.
type RowWarning struct {
	Sequence int
	Warning  string
}

// Reconciliation is the aggregate verdict over one imported batch.
type Reconciliation struct {
	OpeningBalance  decimal.Decimal // declared by the file: earliest row's reported balance
	OpeningReported decimal.Decimal
	OpeningComputed decimal.Decimal
	ClosingReported decimal.Decimal
	ClosingComputed decimal.Decimal
	FirstCredit     decimal.Decimal
	FirstDebit      decimal.Decimal

	// Row-by-row replay matches every printed balance.
	InternallyConsistent bool
	InternalDiscrepancy  decimal.Decimal // closing computed - closing reported
	InternalMessage      string

	// The statement picks up where the stored account balance left off.
	OpeningConsistent  bool
	OpeningDiscrepancy decimal.Decimal // current + first credit - first debit - opening
	OpeningMessage     string

	Warnings []RowWarning

	Total   int
	Valid   int
	Flagged int
}

// Committable reports whether the batch may be submitted. An opening mismatch
// always blocks; internal inconsistency blocks unless allowPartial is set.
func (r Reconciliation) Committable(allowPartial bool) bool {
	if r.Valid == 0 || !r.OpeningConsistent {
		return false
	}
	return r.InternallyConsistent || allowPartial
}
