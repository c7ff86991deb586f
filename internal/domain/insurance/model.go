package insurance

import (
	"time"

	"github.com/google/uuid"
)

// Policy links an MR number to an insurance policy identifier plus the
// descriptive fields captured at claim registration.
type Policy struct {
	ID         uuid.UUID `db:"id" json:"id"`
	MRNumber   string    `db:"mr_number" json:"mr_number"`
	PolicyID   string    `db:"s_id_cr" json:"s_id_cr"`
	Insurer    string    `db:"insurer" json:"insurer"`
	Rate       *float64  `db:"rate" json:"rate,omitempty"`
	Department *string   `db:"department" json:"department,omitempty"`
	Attending  *string   `db:"attending" json:"attending,omitempty"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// BillingRecord is a reception billing row: the downstream adjudication
// holding the approved amount for a policy identifier.
type BillingRecord struct {
	ID             uuid.UUID `db:"id" json:"id"`
	PolicyID       string    `db:"s_id_cr" json:"s_id_cr"`
	OrderID        *int64    `db:"work_order_id" json:"work_order_id,omitempty"`
	MRNumber       *string   `db:"mr_number" json:"mr_number,omitempty"`
	InsurerName    *string   `db:"insurance_name" json:"insurance_name,omitempty"`
	TotalAmount    float64   `db:"total_amount" json:"total_amount"`
	ApprovedAmount float64   `db:"approved_amount" json:"approved_amount"`
	Employee       *string   `db:"employee" json:"employee,omitempty"`
	Branch         string    `db:"branch" json:"branch"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}
