package ledger

import (
	"fmt"

	"github.com/cleared-dev/saldo/internal/model"
)

// ValidationError describes a movement the ledger refuses to store.
type ValidationError struct {
	Sequence    int
	Description string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("row %d: %s", e.Sequence, e.Description)
}

// ValidateMovements checks a batch before it is appended. Committed rows must
// be dated, warning-free, non-negative and in date order.
func ValidateMovements(movements []model.Movement) []ValidationError {
	var errs []ValidationError
	var prev *model.Movement

	for i, m := range movements {
		if !m.HasDate() {
			errs = append(errs, ValidationError{Sequence: m.Sequence, Description: "missing date"})
		}
		if m.Flagged() {
			errs = append(errs, ValidationError{Sequence: m.Sequence, Description: "flagged: " + m.Warning})
		}
		if m.Debit.IsNegative() || m.Credit.IsNegative() {
			errs = append(errs, ValidationError{Sequence: m.Sequence, Description: "negative amount"})
		}
		if prev != nil && prev.HasDate() && m.HasDate() && m.Date.Before(*prev.Date) {
			errs = append(errs, ValidationError{
				Sequence:    m.Sequence,
				Description: fmt.Sprintf("dated %s before previous row %d", m.Date.Format(dateFormat), prev.Sequence),
			})
		}
		prev = &movements[i]
	}
	return errs
}
