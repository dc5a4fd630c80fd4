// internal/model/conversation.go
package model

import (
	"time"

	"github.com/google/uuid"
)

// SenderTenant marks conversation entries appended by the intake workflow.
// Other senders (agent, system) are reserved for tooling outside this service.
const SenderTenant = "tenant"

// Conversation is an append-only message bound to one MaintenanceRequest.
type Conversation struct {
	ID        uuid.UUID `db:"id" json:"id"`
	RequestID uuid.UUID `db:"request_id" json:"request_id"`
	Sender    string    `db:"sender" json:"sender"`
	Message   string    `db:"message" json:"message"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
