package enums

import "fmt"

// OrderStatus tracks the delivery lifecycle of a placed order.
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusConfirmed  OrderStatus = "confirmed"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

var validOrderStatuses = []OrderStatus{
	OrderStatusPending,
	OrderStatusConfirmed,
	OrderStatusProcessing,
	OrderStatusDelivered,
	OrderStatusCancelled,
}

// String implements fmt.Stringer.
func (o OrderStatus) String() string {
	return string(o)
}

// IsValid reports whether the value is a known OrderStatus.
func (o OrderStatus) IsValid() bool {
	for _, candidate := range validOrderStatuses {
		if candidate == o {
			return true
		}
	}
	return false
}

// ParseOrderStatus converts raw input into an OrderStatus.
func ParseOrderStatus(value string) (OrderStatus, error) {
	for _, candidate := range validOrderStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid order status %q", value)
}

// OrderPayoutStatus marks how far an order has travelled through settlement.
// An order is claimed (pending -> processing) before aggregation and marked
// processed once its payout is written, so it can never be swept twice.
type OrderPayoutStatus string

const (
	OrderPayoutStatusPending    OrderPayoutStatus = "pending"
	OrderPayoutStatusProcessing OrderPayoutStatus = "processing"
	OrderPayoutStatusProcessed  OrderPayoutStatus = "processed"
)

var validOrderPayoutStatuses = []OrderPayoutStatus{
	OrderPayoutStatusPending,
	OrderPayoutStatusProcessing,
	OrderPayoutStatusProcessed,
}

// String implements fmt.Stringer.
func (o OrderPayoutStatus) String() string {
	return string(o)
}

// IsValid reports whether the value is a known OrderPayoutStatus.
func (o OrderPayoutStatus) IsValid() bool {
	for _, candidate := range validOrderPayoutStatuses {
		if candidate == o {
			return true
		}
	}
	return false
}

// PaymentStatus mirrors the gateway's view of an order payment.
type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "pending"
	PaymentStatusPaid     PaymentStatus = "paid"
	PaymentStatusFailed   PaymentStatus = "failed"
	PaymentStatusRefunded PaymentStatus = "refunded"
)

// String implements fmt.Stringer.
func (p PaymentStatus) String() string {
	return string(p)
}

// IsValid reports whether the value is a known PaymentStatus.
func (p PaymentStatus) IsValid() bool {
	switch p {
	case PaymentStatusPending, PaymentStatusPaid, PaymentStatusFailed, PaymentStatusRefunded:
		return true
	}
	return false
}
