package importer

import (
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/cleared-dev/saldo/internal/model"
)

// field is a canonical movement attribute a source column can map to.
type field int

const (
	fieldSequence field = iota
	fieldDate
	fieldReference
	fieldConcept
	fieldDebit
	fieldCredit
	fieldBalance
	numFields
)

// synonyms maps each field to the header names that may carry it.
type synonyms map[field][]string

var defaultColumns = synonyms{
	fieldSequence:  {"#", "No.", "No", "Num", "Número"},
	fieldDate:      {"Fecha"},
	fieldReference: {"Referencia", "Folio"},
	fieldConcept:   {"Concepto", "Descripción", "Detalle"},
	fieldDebit:     {"Cargo", "Cargos", "Retiro", "Retiros"},
	fieldCredit:    {"Abono", "Abonos", "Depósito", "Depósitos"},
	fieldBalance:   {"Saldo"},
}

// with returns a copy of s with extra names appended for f.
func (s synonyms) with(f field, names ...string) synonyms {
	out := make(synonyms, len(s))
	for k, v := range s {
		out[k] = append([]string(nil), v...)
	}
	out[f] = append(out[f], names...)
	return out
}

// columns holds the resolved column index per field, -1 when absent.
type columns [numFields]int

func (c columns) has(f field) bool { return c[f] >= 0 }

func (c columns) cell(r model.Row, f field) any {
	if !c.has(f) {
		return nil
	}
	return r.Cell(c[f])
}

// resolveColumns matches header cells against s. The first matching column wins.
func resolveColumns(header model.Row, s synonyms) columns {
	var c columns
	for i := range c {
		c[i] = -1
	}

	lookup := make(map[string]field)
	for f, names := range s {
		for _, n := range names {
			lookup[fold(n)] = f
		}
	}

	for i, cell := range header {
		f, ok := lookup[fold(cellText(cell))]
		if ok && !c.has(f) {
			c[f] = i
		}
	}
	return c
}

// fold normalizes a header or bank name for comparison: accents removed,
// lower case, inner whitespace collapsed.
func fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return strings.Join(strings.Fields(strings.ToLower(out)), " ")
}

// cellText renders a cell as trimmed text.
func cellText(cell any) string {
	switch v := cell.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(v)
	default:
		return strings.TrimSpace(fmt.Sprint(v))
	}
}
