package importer

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/saldo/internal/model"
)

// headerLocator returns the index of the header row in grid.
type headerLocator func(grid model.Grid) (int, bool)

func firstNonBlankRow(grid model.Grid) (int, bool) {
	for i, r := range grid {
		if !r.Blank() {
			return i, true
		}
	}
	return 0, false
}

func fixedRow(n int) headerLocator {
	return func(grid model.Grid) (int, bool) {
		return n, n < len(grid)
	}
}

// sentinelRow finds the first row whose first cell is one of markers.
func sentinelRow(markers ...string) headerLocator {
	want := make(map[string]bool, len(markers))
	for _, m := range markers {
		want[fold(m)] = true
	}
	return func(grid model.Grid) (int, bool) {
		for i, r := range grid {
			if want[fold(cellText(r.Cell(0)))] {
				return i, true
			}
		}
		return 0, false
	}
}

// layout describes how one bank arranges its export.
type layout struct {
	header       headerLocator
	columns      synonyms
	continuation bool // dateless rows without amounts extend the previous concept
}

func (l layout) parse(grid model.Grid, opts Options) []model.Movement {
	h, ok := l.header(grid)
	if !ok {
		return nil
	}
	cols := resolveColumns(grid[h], l.columns)
	if !cols.has(fieldDate) {
		return nil
	}

	recs := extract(grid[h+1:], cols, opts.ReferenceDate)
	groups := groupRows(recs, l.continuation)

	out := make([]model.Movement, 0, len(groups))
	for _, g := range groups {
		out = append(out, g.movement())
	}
	return out
}

// record is one physical data row with its cells decoded.
type record struct {
	sequence   int
	date       *time.Time
	reference  string
	concept    string
	debit      decimal.Decimal
	credit     decimal.Decimal
	balance    decimal.Decimal
	hasAmounts bool
}

func extract(rows []model.Row, cols columns, ref time.Time) []record {
	var recs []record
	ordinal := 0
	for _, r := range rows {
		if r.Blank() {
			continue
		}
		ordinal++

		rec := record{
			sequence:  ordinal,
			reference: cellText(cols.cell(r, fieldReference)),
			concept:   cellText(cols.cell(r, fieldConcept)),
			debit:     parseAmount(cols.cell(r, fieldDebit)).Abs(),
			credit:    parseAmount(cols.cell(r, fieldCredit)).Abs(),
			balance:   parseAmount(cols.cell(r, fieldBalance)),
			hasAmounts: present(cols.cell(r, fieldDebit)) ||
				present(cols.cell(r, fieldCredit)) ||
				present(cols.cell(r, fieldBalance)),
		}
		if seq, ok := rowLabel(cols.cell(r, fieldSequence)); ok {
			rec.sequence = seq
		}
		if t, ok := decodeDate(cols.cell(r, fieldDate), ref); ok {
			rec.date = &t
		}
		recs = append(recs, rec)
	}
	return recs
}

// rowLabel reads an integer row label printed by the source.
func rowLabel(cell any) (int, bool) {
	switch v := cell.(type) {
	case float64:
		if v == math.Trunc(v) {
			return int(v), true
		}
	case int:
		return v, true
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err == nil {
			return n, true
		}
	}
	return 0, false
}

// group is one logical transaction: a head row plus its continuation rows.
type group struct {
	head         record
	continuation []record
}

// groupRows folds physical rows into logical transactions. Without
// continuation every row is its own group. With it, a dateless row carrying no
// amounts belongs to the most recent dated row.
func groupRows(recs []record, continuation bool) []group {
	groups := make([]group, 0, len(recs))
	lastDated := -1
	for _, rec := range recs {
		if continuation && rec.date == nil && !rec.hasAmounts && lastDated >= 0 {
			groups[lastDated].continuation = append(groups[lastDated].continuation, rec)
			continue
		}
		groups = append(groups, group{head: rec})
		if rec.date != nil {
			lastDated = len(groups) - 1
		}
	}
	return groups
}

func (g group) movement() model.Movement {
	concepts := []string{}
	if g.head.concept != "" {
		concepts = append(concepts, g.head.concept)
	}
	for _, c := range g.continuation {
		if c.concept != "" {
			concepts = append(concepts, c.concept)
		}
	}

	m := model.Movement{
		Sequence:        g.head.sequence,
		Date:            g.head.date,
		Reference:       g.head.reference,
		Concept:         strings.Join(concepts, "\n"),
		Debit:           g.head.debit,
		Credit:          g.head.credit,
		ReportedBalance: g.head.balance,
	}
	if m.Date == nil {
		m.Warning = model.WarningInvalidDate
	}
	return m
}
