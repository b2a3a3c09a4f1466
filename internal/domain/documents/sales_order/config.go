package sales_order

import "garasi/internal/core/numerator"

const (
	// NumeratorStrategy defines the numbering strategy for sales orders.
	// Orders are high-volume internal documents; the cached strategy
	// trades possible gaps after a restart for cheap allocation.
	NumeratorStrategy = numerator.StrategyCached
)
