// internal/model/request.go
package model

import (
	"time"

	"github.com/google/uuid"
)

// Request statuses. New requests default to StatusInProgress; the rest are
// admin-set outside the intake workflow. A request counts as open while its
// status is in OpenStatuses.
const (
	StatusInProgress = "In Progress"
	StatusScheduled  = "Scheduled"
	StatusEscalated  = "Escalated"
	StatusResolved   = "Resolved"
)

// OpenStatuses is the dedup key set: at most one request per
// (tenant, property) pair may carry one of these statuses.
var OpenStatuses = []string{StatusInProgress, StatusScheduled}

type MaintenanceRequest struct {
	ID         uuid.UUID `db:"id" json:"id"`
	TenantID   uuid.UUID `db:"tenant_id" json:"tenant_id"`
	PropertyID uuid.UUID `db:"property_id" json:"property_id"`
	Issue      string    `db:"issue" json:"issue"`
	Status     string    `db:"status" json:"status"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// RequestRow is a MaintenanceRequest joined with its tenant and property,
// the shape the admin dashboard consumes.
type RequestRow struct {
	ID          uuid.UUID `json:"id"`
	TenantID    uuid.UUID `json:"tenant_id"`
	PropertyID  uuid.UUID `json:"property_id"`
	TenantName  string    `json:"tenant_name"`
	TenantPhone string    `json:"tenant_phone"`
	Address     string    `json:"address"`
	Issue       string    `json:"issue"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
}
