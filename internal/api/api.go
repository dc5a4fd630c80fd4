package api

import (
	"context"

	"github.com/google/uuid"

	"maintenance-intake/internal/config"
	"maintenance-intake/internal/intake"
	"maintenance-intake/internal/messaging"
	"maintenance-intake/internal/model"
	"maintenance-intake/internal/notifier"
)

// Submitter is the reconciliation engine surface the handlers call.
type Submitter interface {
	Submit(ctx context.Context, sub intake.Submission) (intake.Outcome, error)
}

// RequestReader is the read-only store surface behind the admin views.
type RequestReader interface {
	ListRequestRows(ctx context.Context) ([]model.RequestRow, error)
	GetRequest(ctx context.Context, id uuid.UUID) (model.MaintenanceRequest, error)
	ListConversations(ctx context.Context, requestID uuid.UUID) ([]model.Conversation, error)
	UpdateRequestStatus(ctx context.Context, id uuid.UUID, status string) error
}

// EventPublisher pushes committed outcomes onto the intake events queue.
type EventPublisher interface {
	PublishIntake(event messaging.IntakeEvent) error
}

type API struct {
	Engine Submitter
	Store  RequestReader
	Notify *notifier.Notifier
	Events EventPublisher
	Cfg    *config.Config
}

func NewAPI(engine Submitter, store RequestReader, notify *notifier.Notifier, events EventPublisher, cfg *config.Config) *API {
	return &API{
		Engine: engine,
		Store:  store,
		Notify: notify,
		Events: events,
		Cfg:    cfg,
	}
}
