// internal/intake/engine.go
package intake

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/google/uuid"

	"maintenance-intake/internal/model"
	"maintenance-intake/internal/storage"
)

// Staged failure taxonomy: each resolution step aborts the whole submission
// with its own error class. Relay problems never appear here; they live on
// their own channel entirely.
var (
	ErrTenantResolution   = errors.New("intake: tenant resolution failed")
	ErrPropertyResolution = errors.New("intake: property resolution failed")
	ErrRequestResolution  = errors.New("intake: request resolution failed")
)

// followUpPrefix marks conversation entries appended for duplicate
// submissions against an already-open request.
const followUpPrefix = "Additional details: "

// Submission is the raw intake form payload, already trimmed and validated
// by the caller. The engine does not re-validate.
type Submission struct {
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
	Issue   string `json:"issue"`
}

// Action says which branch the reconciliation took.
type Action string

const (
	ActionCreated  Action = "created"
	ActionAppended Action = "appended"
)

// Outcome identifies the records a submission was reconciled onto.
type Outcome struct {
	Action     Action    `json:"action"`
	RequestID  uuid.UUID `json:"request_id"`
	TenantID   uuid.UUID `json:"tenant_id"`
	PropertyID uuid.UUID `json:"property_id"`
}

// RecordStore is the slice of the store the engine needs. *storage.Storage
// satisfies it; tests use an in-memory fake.
type RecordStore interface {
	FindTenantByPhone(ctx context.Context, phone string) (model.Tenant, error)
	InsertTenant(ctx context.Context, name, phone string) (model.Tenant, error)
	FindPropertyByAddress(ctx context.Context, address string) (model.Property, error)
	InsertProperty(ctx context.Context, address string) (model.Property, error)
	FindOpenRequest(ctx context.Context, tenantID, propertyID uuid.UUID) (model.MaintenanceRequest, error)
	InsertRequest(ctx context.Context, tenantID, propertyID uuid.UUID, issue string) (model.MaintenanceRequest, error)
	InsertConversation(ctx context.Context, requestID uuid.UUID, sender, message string) (model.Conversation, error)
}

// Engine reconciles submissions onto tenant, property and request records.
// It is stateless; every call carries its full input.
type Engine struct {
	store RecordStore
}

func NewEngine(store RecordStore) *Engine {
	return &Engine{store: store}
}

// Submit maps a submission onto exactly one tenant, one property and either
// an existing open request (appending a conversation entry) or a new one.
//
// The three resolution steps run in order and each aborts the submission on
// failure. Earlier inserts are not rolled back when a later step fails: a
// tenant row can outlive a failed property resolution. Duplicate-key races
// between lookup and insert are settled by the store's unique constraints
// and retried once as a lookup.
func (e *Engine) Submit(ctx context.Context, sub Submission) (Outcome, error) {
	tenant, err := e.resolveTenant(ctx, sub.Name, sub.Phone)
	if err != nil {
		return Outcome{}, fmt.Errorf("%w: %v", ErrTenantResolution, err)
	}

	property, err := e.resolveProperty(ctx, sub.Address)
	if err != nil {
		return Outcome{}, fmt.Errorf("%w: %v", ErrPropertyResolution, err)
	}

	return e.resolveRequest(ctx, tenant, property, sub.Issue)
}

func (e *Engine) resolveTenant(ctx context.Context, name, phone string) (model.Tenant, error) {
	tenant, err := e.store.FindTenantByPhone(ctx, phone)
	if err == nil {
		return tenant, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return model.Tenant{}, err
	}

	tenant, err = e.store.InsertTenant(ctx, name, phone)
	if errors.Is(err, storage.ErrConflict) {
		// Lost the insert race; the row exists now.
		return e.store.FindTenantByPhone(ctx, phone)
	}
	return tenant, err
}

func (e *Engine) resolveProperty(ctx context.Context, address string) (model.Property, error) {
	property, err := e.store.FindPropertyByAddress(ctx, address)
	if err == nil {
		return property, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return model.Property{}, err
	}

	property, err = e.store.InsertProperty(ctx, address)
	if errors.Is(err, storage.ErrConflict) {
		return e.store.FindPropertyByAddress(ctx, address)
	}
	return property, err
}

func (e *Engine) resolveRequest(ctx context.Context, tenant model.Tenant, property model.Property, issue string) (Outcome, error) {
	existing, err := e.store.FindOpenRequest(ctx, tenant.ID, property.ID)
	switch {
	case err == nil:
		return e.appendConversation(ctx, tenant, property, existing.ID, issue)

	case errors.Is(err, storage.ErrNotFound):
		created, err := e.store.InsertRequest(ctx, tenant.ID, property.ID, issue)
		if errors.Is(err, storage.ErrConflict) {
			// A concurrent submission opened a request for this pair
			// between our lookup and insert. Append to it instead.
			existing, err := e.store.FindOpenRequest(ctx, tenant.ID, property.ID)
			if err != nil {
				return Outcome{}, fmt.Errorf("%w: %v", ErrRequestResolution, err)
			}
			return e.appendConversation(ctx, tenant, property, existing.ID, issue)
		}
		if err != nil {
			return Outcome{}, fmt.Errorf("%w: %v", ErrRequestResolution, err)
		}
		log.Printf("Intake: created request %s for tenant %s", created.ID, tenant.ID)
		return Outcome{
			Action:     ActionCreated,
			RequestID:  created.ID,
			TenantID:   tenant.ID,
			PropertyID: property.ID,
		}, nil

	default:
		return Outcome{}, fmt.Errorf("%w: %v", ErrRequestResolution, err)
	}
}

func (e *Engine) appendConversation(ctx context.Context, tenant model.Tenant, property model.Property, requestID uuid.UUID, issue string) (Outcome, error) {
	_, err := e.store.InsertConversation(ctx, requestID, model.SenderTenant, followUpPrefix+issue)
	if err != nil {
		return Outcome{}, fmt.Errorf("%w: %v", ErrRequestResolution, err)
	}
	log.Printf("Intake: appended conversation to request %s", requestID)
	return Outcome{
		Action:     ActionAppended,
		RequestID:  requestID,
		TenantID:   tenant.ID,
		PropertyID: property.ID,
	}, nil
}
