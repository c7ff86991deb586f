package staff

import "github.com/google/uuid"

// Employee is a branch-scoped staff member, consumed read-only for order
// attribution pickers.
type Employee struct {
	ID     uuid.UUID `db:"id" json:"id"`
	Name   string    `db:"name" json:"name"`
	Branch string    `db:"branch" json:"branch"`
}
