package stock_transfer

import "garasi/internal/core/numerator"

const (
	// NumeratorStrategy defines the numbering strategy for transfers.
	// Transfers are internal documents, so gaps after a restart are
	// acceptable in exchange for cheaper number allocation.
	NumeratorStrategy = numerator.StrategyCached
)
