// Package buildinfo carries release metadata stamped in by the linker, for
// example:
//
//	go build -ldflags "-X github.com/cleared-dev/saldo/internal/buildinfo.Version=v0.3.0" ./cmd/saldo
package buildinfo

var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)
