package intake

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"maintenance-intake/internal/model"
	"maintenance-intake/internal/storage"
)

// fakeStore is an in-memory RecordStore. failOn injects a genuine store
// error for one method name; conflictOnInsertRequest simulates losing the
// open-request insert race to a concurrent submission.
type fakeStore struct {
	tenants       map[string]model.Tenant
	properties    map[string]model.Property
	requests      []model.MaintenanceRequest
	conversations []model.Conversation

	failOn                  map[string]error
	conflictOnInsertRequest bool
	missTenantLookupOnce    bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		tenants:    make(map[string]model.Tenant),
		properties: make(map[string]model.Property),
		failOn:     make(map[string]error),
	}
}

func (f *fakeStore) FindTenantByPhone(_ context.Context, phone string) (model.Tenant, error) {
	if err := f.failOn["FindTenantByPhone"]; err != nil {
		return model.Tenant{}, err
	}
	if f.missTenantLookupOnce {
		f.missTenantLookupOnce = false
		return model.Tenant{}, storage.ErrNotFound
	}
	t, ok := f.tenants[phone]
	if !ok {
		return model.Tenant{}, storage.ErrNotFound
	}
	return t, nil
}

func (f *fakeStore) InsertTenant(_ context.Context, name, phone string) (model.Tenant, error) {
	if err := f.failOn["InsertTenant"]; err != nil {
		return model.Tenant{}, err
	}
	if _, ok := f.tenants[phone]; ok {
		return model.Tenant{}, storage.ErrConflict
	}
	t := model.Tenant{ID: uuid.New(), Name: name, Phone: phone, CreatedAt: time.Now()}
	f.tenants[phone] = t
	return t, nil
}

func (f *fakeStore) FindPropertyByAddress(_ context.Context, address string) (model.Property, error) {
	if err := f.failOn["FindPropertyByAddress"]; err != nil {
		return model.Property{}, err
	}
	p, ok := f.properties[address]
	if !ok {
		return model.Property{}, storage.ErrNotFound
	}
	return p, nil
}

func (f *fakeStore) InsertProperty(_ context.Context, address string) (model.Property, error) {
	if err := f.failOn["InsertProperty"]; err != nil {
		return model.Property{}, err
	}
	if _, ok := f.properties[address]; ok {
		return model.Property{}, storage.ErrConflict
	}
	p := model.Property{ID: uuid.New(), Address: address, CreatedAt: time.Now()}
	f.properties[address] = p
	return p, nil
}

func (f *fakeStore) FindOpenRequest(_ context.Context, tenantID, propertyID uuid.UUID) (model.MaintenanceRequest, error) {
	if err := f.failOn["FindOpenRequest"]; err != nil {
		return model.MaintenanceRequest{}, err
	}
	for _, r := range f.requests {
		if r.TenantID != tenantID || r.PropertyID != propertyID {
			continue
		}
		for _, s := range model.OpenStatuses {
			if r.Status == s {
				return r, nil
			}
		}
	}
	return model.MaintenanceRequest{}, storage.ErrNotFound
}

func (f *fakeStore) InsertRequest(_ context.Context, tenantID, propertyID uuid.UUID, issue string) (model.MaintenanceRequest, error) {
	if err := f.failOn["InsertRequest"]; err != nil {
		return model.MaintenanceRequest{}, err
	}
	r := model.MaintenanceRequest{
		ID: uuid.New(), TenantID: tenantID, PropertyID: propertyID,
		Issue: issue, Status: model.StatusInProgress, CreatedAt: time.Now(),
	}
	if f.conflictOnInsertRequest {
		// A concurrent submission won the race: the open request exists
		// by the time our insert hits the unique index.
		f.conflictOnInsertRequest = false
		f.requests = append(f.requests, r)
		return model.MaintenanceRequest{}, storage.ErrConflict
	}
	f.requests = append(f.requests, r)
	return r, nil
}

func (f *fakeStore) InsertConversation(_ context.Context, requestID uuid.UUID, sender, message string) (model.Conversation, error) {
	if err := f.failOn["InsertConversation"]; err != nil {
		return model.Conversation{}, err
	}
	c := model.Conversation{
		ID: uuid.New(), RequestID: requestID,
		Sender: sender, Message: message, CreatedAt: time.Now(),
	}
	f.conversations = append(f.conversations, c)
	return c, nil
}

func (f *fakeStore) setStatus(t *testing.T, id uuid.UUID, status string) {
	t.Helper()
	for i := range f.requests {
		if f.requests[i].ID == id {
			f.requests[i].Status = status
			return
		}
	}
	t.Fatalf("request %s not found", id)
}

var testSub = Submission{
	Name:    "Jordan Reyes",
	Phone:   "+1 555 867 5309",
	Address: "12 Elm Street",
	Issue:   "Kitchen sink leaking under the cabinet",
}

func TestSubmitCreatesAllRecords(t *testing.T) {
	store := newFakeStore()
	engine := NewEngine(store)

	outcome, err := engine.Submit(context.Background(), testSub)
	require.NoError(t, err)

	require.Equal(t, ActionCreated, outcome.Action)
	require.Len(t, store.tenants, 1)
	require.Len(t, store.properties, 1)
	require.Len(t, store.requests, 1)
	require.Empty(t, store.conversations)

	require.Equal(t, store.tenants[testSub.Phone].ID, outcome.TenantID)
	require.Equal(t, store.properties[testSub.Address].ID, outcome.PropertyID)
	require.Equal(t, store.requests[0].ID, outcome.RequestID)
	require.Equal(t, model.StatusInProgress, store.requests[0].Status)
}

func TestDuplicateSubmitAppendsConversation(t *testing.T) {
	store := newFakeStore()
	engine := NewEngine(store)

	first, err := engine.Submit(context.Background(), testSub)
	require.NoError(t, err)

	followUp := testSub
	followUp.Issue = "Now the leak has reached the hallway"
	second, err := engine.Submit(context.Background(), followUp)
	require.NoError(t, err)

	require.Equal(t, ActionAppended, second.Action)
	require.Equal(t, first.RequestID, second.RequestID)

	// Entity resolution stays idempotent: one tenant per phone, one
	// property per address, one open request per pair.
	require.Len(t, store.tenants, 1)
	require.Len(t, store.properties, 1)
	require.Len(t, store.requests, 1)

	require.Len(t, store.conversations, 1)
	c := store.conversations[0]
	require.Equal(t, first.RequestID, c.RequestID)
	require.Equal(t, model.SenderTenant, c.Sender)
	require.Equal(t, "Additional details: Now the leak has reached the hallway", c.Message)
}

func TestNewRequestAfterClosure(t *testing.T) {
	store := newFakeStore()
	engine := NewEngine(store)

	first, err := engine.Submit(context.Background(), testSub)
	require.NoError(t, err)

	store.setStatus(t, first.RequestID, model.StatusResolved)

	second, err := engine.Submit(context.Background(), testSub)
	require.NoError(t, err)

	require.Equal(t, ActionCreated, second.Action)
	require.NotEqual(t, first.RequestID, second.RequestID)
	require.Len(t, store.requests, 2)
	require.Empty(t, store.conversations)
}

func TestEscalatedRequestDoesNotBlockNewSubmission(t *testing.T) {
	store := newFakeStore()
	engine := NewEngine(store)

	first, err := engine.Submit(context.Background(), testSub)
	require.NoError(t, err)
	store.setStatus(t, first.RequestID, model.StatusEscalated)

	second, err := engine.Submit(context.Background(), testSub)
	require.NoError(t, err)
	require.Equal(t, ActionCreated, second.Action)
}

func TestTenantLookupFailureAborts(t *testing.T) {
	store := newFakeStore()
	store.failOn["FindTenantByPhone"] = errors.New("connection reset")
	engine := NewEngine(store)

	_, err := engine.Submit(context.Background(), testSub)
	require.ErrorIs(t, err, ErrTenantResolution)
	require.Empty(t, store.tenants)
	require.Empty(t, store.requests)
}

func TestPropertyFailureLeavesTenantBehind(t *testing.T) {
	store := newFakeStore()
	store.failOn["InsertProperty"] = errors.New("disk full")
	engine := NewEngine(store)

	_, err := engine.Submit(context.Background(), testSub)
	require.ErrorIs(t, err, ErrPropertyResolution)

	// No compensating rollback: the tenant insert from step one survives.
	require.Len(t, store.tenants, 1)
	require.Empty(t, store.properties)
	require.Empty(t, store.requests)
}

func TestRequestLookupFailureAborts(t *testing.T) {
	store := newFakeStore()
	store.failOn["FindOpenRequest"] = errors.New("timeout")
	engine := NewEngine(store)

	_, err := engine.Submit(context.Background(), testSub)
	require.ErrorIs(t, err, ErrRequestResolution)
	require.Empty(t, store.requests)
}

func TestInsertRaceFallsBackToAppend(t *testing.T) {
	store := newFakeStore()
	store.conflictOnInsertRequest = true
	engine := NewEngine(store)

	outcome, err := engine.Submit(context.Background(), testSub)
	require.NoError(t, err)

	require.Equal(t, ActionAppended, outcome.Action)
	require.Len(t, store.requests, 1)
	require.Len(t, store.conversations, 1)
	require.Equal(t, store.requests[0].ID, outcome.RequestID)
}

func TestTenantInsertRaceReusesExistingRow(t *testing.T) {
	store := newFakeStore()
	engine := NewEngine(store)

	// Seed the tenant but force the first lookup to miss, as if another
	// submission committed it between our lookup and insert. The insert
	// conflict then resolves back to the existing row.
	seeded, err := store.InsertTenant(context.Background(), "Jordan Reyes", testSub.Phone)
	require.NoError(t, err)
	store.missTenantLookupOnce = true

	outcome, err := engine.Submit(context.Background(), testSub)
	require.NoError(t, err)
	require.Equal(t, seeded.ID, outcome.TenantID)
	require.Len(t, store.tenants, 1)
}
