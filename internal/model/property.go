// internal/model/property.go
package model

import (
	"time"

	"github.com/google/uuid"
)

// Property is keyed by the exact trimmed address string. No normalization:
// whitespace or case variants create distinct rows.
type Property struct {
	ID        uuid.UUID `db:"id" json:"id"`
	Address   string    `db:"address" json:"address"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
