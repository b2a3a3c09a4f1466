// Package numerator provides domain contracts for document auto-numbering.
package numerator

// Strategy selects how numbers are allocated.
type Strategy int

const (
	// StrategyStrict takes every number from the database with
	// UPDATE ... RETURNING. No gaps, one round trip per number.
	// The transaction ledger uses this.
	StrategyStrict Strategy = iota

	// StrategyCached allocates a range up front and hands numbers
	// out from memory. Faster, but a restart abandons the rest of
	// the range. Orders, transfers and jobs accept the gaps.
	StrategyCached
)

// Options tunes a single generation call.
type Options struct {
	Strategy Strategy

	// RangeSize is how many numbers StrategyCached reserves per
	// database round trip. Zero means 50.
	RangeSize int64
}

// DefaultOptions is strict allocation.
func DefaultOptions() *Options {
	return &Options{
		Strategy: StrategyStrict,
	}
}

// Config describes one number sequence.
type Config struct {
	// Prefix keys the sequence ("SO", "TRF").
	Prefix string

	// IncludeYear puts the period year into the formatted number.
	IncludeYear bool

	// PadWidth is the minimum digit count, zero means 5.
	PadWidth int

	// ResetPeriod is "year", "month" or "never".
	ResetPeriod string
}

// DefaultConfig builds the standard sequence for a prefix: yearly
// reset, year in the number, five digits.
func DefaultConfig(prefix string) Config {
	return Config{
		Prefix:      prefix,
		IncludeYear: true,
		PadWidth:    5,
		ResetPeriod: "year",
	}
}

// Document number prefixes used across the system.
// Sequences are scoped globally per prefix, reset yearly.
const (
	PrefixTransfer     = "TRF"
	PrefixSalesOrder   = "SO"
	PrefixServiceOrder = "JOB"
	PrefixTransaction  = "TXN"
)
