package modification

import (
	"time"

	"github.com/google/uuid"
)

// Request statuses. A request is open while pending or approved; completing
// an order edit moves any open request to completed.
const (
	StatusPending   = "pending"
	StatusApproved  = "approved"
	StatusCompleted = "completed"
)

// Request is a tracked approval for editing an already submitted order.
type Request struct {
	ID        uuid.UUID `json:"id"`
	OrderID   int64     `json:"order_id"`
	OrderType string    `json:"order_type"`
	Status    string    `json:"status"`
	Reason    string    `json:"reason,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
