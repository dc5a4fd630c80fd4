// internal/model/tenant.go
package model

import (
	"time"

	"github.com/google/uuid"
)

// Tenant is keyed by phone: the first submission from an unseen phone
// creates the row, later submissions reuse it. Never updated or deleted
// by the intake workflow.
type Tenant struct {
	ID        uuid.UUID `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Phone     string    `db:"phone" json:"phone"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
