package patient

import (
	"time"

	"github.com/google/uuid"
)

// Patient is a registered customer, keyed either by a stable MR number
// (assigned at reception) or by the generated row id for walk-in customers.
type Patient struct {
	ID        uuid.UUID `db:"id" json:"id"`
	MRNumber  *string   `db:"mr_number" json:"mr_number,omitempty"`
	Name      string    `db:"name" json:"name"`
	Phone     string    `db:"phone_number" json:"phone_number"`
	Address   string    `db:"address" json:"address"`
	Age       int       `db:"age" json:"age"`
	Gender    string    `db:"gender" json:"gender"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
