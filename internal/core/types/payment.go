package types

// PaymentMethod is how a customer settles an order.
type PaymentMethod string

const (
	PaymentCash     PaymentMethod = "cash"
	PaymentCard     PaymentMethod = "card"
	PaymentTransfer PaymentMethod = "transfer"
	PaymentOther    PaymentMethod = "other"
)

// Valid reports whether m is a known payment method.
func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentCash, PaymentCard, PaymentTransfer, PaymentOther:
		return true
	}
	return false
}

// PaymentStatus tracks how much of an order's total has been paid.
type PaymentStatus string

const (
	PaymentPending PaymentStatus = "pending"
	PaymentPartial PaymentStatus = "partial"
	PaymentPaid    PaymentStatus = "paid"
)

// Valid reports whether s is a known payment status.
func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentPending, PaymentPartial, PaymentPaid:
		return true
	}
	return false
}

// DerivePaymentStatus computes the status from amount paid vs total.
// It is a pure function: nothing paid is pending, anything short of the
// total is partial, the total or more is paid.
func DerivePaymentStatus(amountPaid, total Money) PaymentStatus {
	switch {
	case amountPaid.LessThanOrEqual(Zero()):
		return PaymentPending
	case amountPaid.LessThan(total):
		return PaymentPartial
	default:
		return PaymentPaid
	}
}

// ChangeDue computes cash change: max(0, amountPaid - total).
func ChangeDue(amountPaid, total Money) Money {
	change := amountPaid.Sub(total)
	if change.LessThan(Zero()) {
		return Zero()
	}
	return change
}
