package service_order

import "garasi/internal/core/numerator"

const (
	// NumeratorStrategy defines the numbering strategy for job numbers.
	// Same trade-off as sales orders: cached allocation, gaps tolerated.
	NumeratorStrategy = numerator.StrategyCached
)
