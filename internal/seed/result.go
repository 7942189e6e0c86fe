// Package seed imports league baselines into Postgres.
package seed

import "fmt"

// SeedResult tracks counts and errors from an import.
type SeedResult struct {
	BaselinesUpserted int
	BaselinesSkipped  int
	Errors            []string
}

// Add merges another SeedResult into this one.
func (r *SeedResult) Add(other SeedResult) {
	r.BaselinesUpserted += other.BaselinesUpserted
	r.BaselinesSkipped += other.BaselinesSkipped
	r.Errors = append(r.Errors, other.Errors...)
}

// AddErrorf records a formatted error message.
func (r *SeedResult) AddErrorf(format string, args ...interface{}) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

// Summary returns a human-readable summary of the import.
func (r *SeedResult) Summary() string {
	return fmt.Sprintf(
		"baselines=%d skipped=%d errors=%d",
		r.BaselinesUpserted, r.BaselinesSkipped, len(r.Errors),
	)
}
