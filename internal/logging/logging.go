// Package logging configures the logrus loggers used across saldo.
package logging

import (
	"io"
	"strings"

	"github.com/sirupsen/logrus"
)

// Standard field names, kept consistent so log lines can be filtered.
const (
	FieldAccount   = "account_id"
	FieldBank      = "bank"
	FieldBatch     = "batch_id"
	FieldCycle     = "cycle"
	FieldFile      = "file_path"
	FieldState     = "state"
	FieldCount     = "count"
	FieldValid     = "valid"
	FieldFlagged   = "flagged"
	FieldOperation = "operation"
)

// New returns a logger at the given level ("debug", "info", ...) and format
// ("json" or "text"). Unknown levels fall back to info.
func New(level, format string) *logrus.Logger {
	logger := logrus.New()

	lvl, err := logrus.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil {
		logger.Warnf("Invalid log level '%s', using 'info'", level)
		lvl = logrus.InfoLevel
	}
	logger.SetLevel(lvl)

	if format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return logger
}

// Discard returns a logger that drops everything. Useful as a default and in tests.
func Discard() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}
