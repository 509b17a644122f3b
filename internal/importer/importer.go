// Package importer turns raw statement grids into canonical movements, with one
// parser per supported bank.
package importer

import (
	"errors"
	"fmt"
	"time"

	"github.com/cleared-dev/saldo/internal/model"
)

// ErrUnsupportedBank is returned by Resolve for names that match no bank.
var ErrUnsupportedBank = errors.New("unsupported bank")

// Options carries the inputs a parser may need beyond the grid itself.
type Options struct {
	// ReferenceDate stands in for "today" when a source prints dates without a
	// year. Dates that would land after it are taken from the previous year.
	ReferenceDate time.Time
}

// Bank is one supported statement source. The set of banks is closed: the only
// valid values are the package-level variables listed by All.
type Bank struct {
	name    string
	aliases []string
	parse   func(model.Grid, Options) []model.Movement
}

// Name returns the canonical bank name.
func (b Bank) Name() string { return b.name }

func (b Bank) String() string { return b.name }

// Aliases returns the alternate names Resolve accepts for b.
func (b Bank) Aliases() []string { return append([]string(nil), b.aliases...) }

// Parse converts grid into movements in source order. It never fails: rows it
// cannot interpret are returned with a warning instead.
func (b Bank) Parse(grid model.Grid, opts Options) []model.Movement {
	if b.parse == nil {
		return nil
	}
	return b.parse(grid, opts)
}

// All returns every supported bank.
func All() []Bank {
	return []Bank{Generic, Banorte, BBVA, Santander}
}

// Registry resolves bank names to banks.
type Registry struct {
	banks map[string]Bank
}

// NewRegistry creates a registry over banks. Panics on a duplicate name or alias.
func NewRegistry(banks ...Bank) *Registry {
	r := &Registry{banks: make(map[string]Bank)}
	for _, b := range banks {
		r.register(b.name, b)
		for _, a := range b.aliases {
			r.register(a, b)
		}
	}
	return r
}

func (r *Registry) register(name string, b Bank) {
	key := fold(name)
	if _, ok := r.banks[key]; ok {
		panic("duplicate bank name: " + key)
	}
	r.banks[key] = b
}

// Resolve returns the bank registered under name, ignoring case and accents.
func (r *Registry) Resolve(name string) (Bank, error) {
	b, ok := r.banks[fold(name)]
	if !ok {
		return Bank{}, fmt.Errorf("%w: %q", ErrUnsupportedBank, name)
	}
	return b, nil
}

var defaultRegistry = NewRegistry(All()...)

// Resolve looks name up among all supported banks.
func Resolve(name string) (Bank, error) {
	return defaultRegistry.Resolve(name)
}
