package domain

import "time"

type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Payment is the placeholder created with every committed order. Its later
// transitions belong to the payment provider, not this service.
type Payment struct {
	OrderID     string
	AmountCents int64
	Method      string
	Status      Status
	CreatedAt   time.Time
}
