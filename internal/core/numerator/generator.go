// Package numerator provides domain contracts for document auto-numbering.
// Implementations live in infrastructure layer.
package numerator

import (
	"context"
	"time"
)

// Generator hands out sequential document numbers.
//
// Counter state lives in the database so that number generation is a single
// atomic operation; counting existing documents and adding one races under
// concurrent creation and can hand out duplicates.
type Generator interface {
	// GetNextNumber returns the next number for cfg's prefix,
	// formatted PREFIX-YEAR-XXXXX (e.g. SO-2026-00001). The period
	// decides which counter bucket the number comes from when the
	// sequence resets yearly or monthly.
	GetNextNumber(ctx context.Context, cfg Config, opts *Options, period time.Time) (string, error)

	// SetNextNumber moves the counter, for migrations and backfills.
	SetNextNumber(ctx context.Context, cfg Config, period time.Time, value int64) error
}
