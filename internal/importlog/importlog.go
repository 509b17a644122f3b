// Package importlog keeps an append-only trail of import sessions in
// <root>/logs/import-log.csv, one row per session action.
package importlog

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/cleared-dev/saldo/internal/csvfile"
)

// Entry is one recorded session action.
type Entry struct {
	Timestamp time.Time
	Action    string // select, load, commit, commit_failed
	AccountID string
	BatchID   string
	Details   string
}

// Header lists the columns of import-log.csv.
var Header = []string{"timestamp", "action", "account_id", "batch_id", "details"}

// File is the log location relative to a ledger root.
var File = filepath.Join("logs", "import-log.csv")

// Row returns e as a CSV row. Timestamps are stored in UTC.
func (e Entry) Row() []string {
	return []string{e.Timestamp.UTC().Format(time.RFC3339), e.Action, e.AccountID, e.BatchID, e.Details}
}

// ParseEntry reads a row written by Entry.Row.
func ParseEntry(row []string) (Entry, error) {
	if len(row) != len(Header) {
		return Entry{}, fmt.Errorf("expected %d fields, got %d", len(Header), len(row))
	}
	ts, err := time.Parse(time.RFC3339, row[0])
	if err != nil {
		return Entry{}, fmt.Errorf("parsing timestamp %q: %w", row[0], err)
	}
	return Entry{Timestamp: ts, Action: row[1], AccountID: row[2], BatchID: row[3], Details: row[4]}, nil
}

// Append adds entries to the log under root.
func Append(root string, entries ...Entry) error {
	rows := make([][]string, len(entries))
	for i, e := range entries {
		rows[i] = e.Row()
	}
	if _, err := csvfile.Append(filepath.Join(root, File), Header, rows); err != nil {
		return fmt.Errorf("appending import log: %w", err)
	}
	return nil
}

// Read returns every entry under root in the order recorded. A ledger that
// has never imported anything has no entries.
func Read(root string) ([]Entry, error) {
	entries, err := csvfile.ReadFile(filepath.Join(root, File), len(Header), ParseEntry)
	if err != nil {
		return nil, fmt.Errorf("reading import log: %w", err)
	}
	return entries, nil
}

// ForAccount keeps the entries of one account.
func ForAccount(entries []Entry, accountID string) []Entry {
	var out []Entry
	for _, e := range entries {
		if e.AccountID == accountID {
			out = append(out, e)
		}
	}
	return out
}

// Sink records session actions under a ledger root.
type Sink struct {
	Root string
	Now  func() time.Time

	mu sync.Mutex
}

// NewSink returns a Sink writing under root.
func NewSink(root string) *Sink {
	return &Sink{Root: root, Now: time.Now}
}

func (s *Sink) Record(action, accountID, batchID, details string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Append(s.Root, Entry{
		Timestamp: s.Now(),
		Action:    action,
		AccountID: accountID,
		BatchID:   batchID,
		Details:   details,
	})
}
