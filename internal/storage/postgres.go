// internal/storage/postgres.go
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"maintenance-intake/internal/model"
)

// ErrNotFound signals "no matching row" from a point lookup. It is a result
// variant, not a failure: callers branch on it with errors.Is.
var ErrNotFound = errors.New("storage: not found")

// ErrConflict signals a unique-constraint violation on insert, in particular
// the open-request index on (tenant_id, property_id).
var ErrConflict = errors.New("storage: conflict")

type Storage struct {
	DB *sql.DB
}

func NewStorage(dsn string) (*Storage, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open db: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to connect to db: %w", err)
	}
	return &Storage{DB: db}, nil
}

// EnsureSchema creates the intake tables if they do not exist. The partial
// unique index keeps concurrent submissions from committing two open
// requests for the same tenant/property pair; the engine retries a conflict
// there as an append.
func (s *Storage) EnsureSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS tenants (
		id UUID PRIMARY KEY,
		name TEXT NOT NULL,
		phone TEXT NOT NULL UNIQUE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);
	CREATE TABLE IF NOT EXISTS properties (
		id UUID PRIMARY KEY,
		address TEXT NOT NULL UNIQUE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);
	CREATE TABLE IF NOT EXISTS maintenance_requests (
		id UUID PRIMARY KEY,
		tenant_id UUID NOT NULL REFERENCES tenants(id),
		property_id UUID NOT NULL REFERENCES properties(id),
		issue TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'In Progress',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);
	CREATE UNIQUE INDEX IF NOT EXISTS maintenance_requests_open_pair
		ON maintenance_requests (tenant_id, property_id)
		WHERE status IN ('In Progress', 'Scheduled');
	CREATE TABLE IF NOT EXISTS conversations (
		id UUID PRIMARY KEY,
		request_id UUID NOT NULL REFERENCES maintenance_requests(id),
		sender TEXT NOT NULL,
		message TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`

	if _, err := s.DB.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

func (s *Storage) FindTenantByPhone(ctx context.Context, phone string) (model.Tenant, error) {
	var t model.Tenant
	err := s.DB.QueryRowContext(ctx, `
		SELECT id, name, phone, created_at
		FROM tenants
		WHERE phone = $1
	`, phone).Scan(&t.ID, &t.Name, &t.Phone, &t.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Tenant{}, ErrNotFound
	}
	if err != nil {
		return model.Tenant{}, fmt.Errorf("find tenant: %w", err)
	}
	return t, nil
}

func (s *Storage) InsertTenant(ctx context.Context, name, phone string) (model.Tenant, error) {
	t := model.Tenant{ID: uuid.New(), Name: name, Phone: phone}
	err := s.DB.QueryRowContext(ctx, `
		INSERT INTO tenants (id, name, phone)
		VALUES ($1, $2, $3)
		RETURNING created_at
	`, t.ID, t.Name, t.Phone).Scan(&t.CreatedAt)
	if err != nil {
		return model.Tenant{}, fmt.Errorf("insert tenant: %w", translateConflict(err))
	}
	return t, nil
}

func (s *Storage) FindPropertyByAddress(ctx context.Context, address string) (model.Property, error) {
	var p model.Property
	err := s.DB.QueryRowContext(ctx, `
		SELECT id, address, created_at
		FROM properties
		WHERE address = $1
	`, address).Scan(&p.ID, &p.Address, &p.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Property{}, ErrNotFound
	}
	if err != nil {
		return model.Property{}, fmt.Errorf("find property: %w", err)
	}
	return p, nil
}

func (s *Storage) InsertProperty(ctx context.Context, address string) (model.Property, error) {
	p := model.Property{ID: uuid.New(), Address: address}
	err := s.DB.QueryRowContext(ctx, `
		INSERT INTO properties (id, address)
		VALUES ($1, $2)
		RETURNING created_at
	`, p.ID, p.Address).Scan(&p.CreatedAt)
	if err != nil {
		return model.Property{}, fmt.Errorf("insert property: %w", translateConflict(err))
	}
	return p, nil
}

// FindOpenRequest returns the oldest request for the pair whose status is
// still in the open set. The partial unique index means there should be at
// most one; the ordering makes the degenerate case deterministic.
func (s *Storage) FindOpenRequest(ctx context.Context, tenantID, propertyID uuid.UUID) (model.MaintenanceRequest, error) {
	var r model.MaintenanceRequest
	err := s.DB.QueryRowContext(ctx, `
		SELECT id, tenant_id, property_id, issue, status, created_at
		FROM maintenance_requests
		WHERE tenant_id = $1
		  AND property_id = $2
		  AND status = ANY($3)
		ORDER BY created_at
		LIMIT 1
	`, tenantID, propertyID, pq.Array(model.OpenStatuses)).
		Scan(&r.ID, &r.TenantID, &r.PropertyID, &r.Issue, &r.Status, &r.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.MaintenanceRequest{}, ErrNotFound
	}
	if err != nil {
		return model.MaintenanceRequest{}, fmt.Errorf("find open request: %w", err)
	}
	return r, nil
}

// InsertRequest creates a request with the store-side default status.
func (s *Storage) InsertRequest(ctx context.Context, tenantID, propertyID uuid.UUID, issue string) (model.MaintenanceRequest, error) {
	r := model.MaintenanceRequest{ID: uuid.New(), TenantID: tenantID, PropertyID: propertyID, Issue: issue}
	err := s.DB.QueryRowContext(ctx, `
		INSERT INTO maintenance_requests (id, tenant_id, property_id, issue)
		VALUES ($1, $2, $3, $4)
		RETURNING status, created_at
	`, r.ID, r.TenantID, r.PropertyID, r.Issue).Scan(&r.Status, &r.CreatedAt)
	if err != nil {
		return model.MaintenanceRequest{}, fmt.Errorf("insert request: %w", translateConflict(err))
	}
	return r, nil
}

func (s *Storage) InsertConversation(ctx context.Context, requestID uuid.UUID, sender, message string) (model.Conversation, error) {
	c := model.Conversation{ID: uuid.New(), RequestID: requestID, Sender: sender, Message: message}
	err := s.DB.QueryRowContext(ctx, `
		INSERT INTO conversations (id, request_id, sender, message)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at
	`, c.ID, c.RequestID, c.Sender, c.Message).Scan(&c.CreatedAt)
	if err != nil {
		return model.Conversation{}, fmt.Errorf("insert conversation: %w", err)
	}
	return c, nil
}

// ListRequestRows returns every maintenance request joined with its tenant
// and property, oldest first. The admin projection reduces this set.
func (s *Storage) ListRequestRows(ctx context.Context) ([]model.RequestRow, error) {
	rows, err := s.DB.QueryContext(ctx, `
		SELECT r.id, r.tenant_id, r.property_id, t.name, t.phone, p.address,
		       r.issue, r.status, r.created_at
		FROM maintenance_requests r
		JOIN tenants t ON t.id = r.tenant_id
		JOIN properties p ON p.id = r.property_id
		ORDER BY r.created_at
	`)
	if err != nil {
		return nil, fmt.Errorf("list requests: %w", err)
	}
	defer rows.Close()

	var out []model.RequestRow
	for rows.Next() {
		var r model.RequestRow
		if err := rows.Scan(&r.ID, &r.TenantID, &r.PropertyID, &r.TenantName, &r.TenantPhone,
			&r.Address, &r.Issue, &r.Status, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan failed: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// GetRequest returns the raw maintenance request row for the detail view.
func (s *Storage) GetRequest(ctx context.Context, id uuid.UUID) (model.MaintenanceRequest, error) {
	var r model.MaintenanceRequest
	err := s.DB.QueryRowContext(ctx, `
		SELECT id, tenant_id, property_id, issue, status, created_at
		FROM maintenance_requests
		WHERE id = $1
	`, id).Scan(&r.ID, &r.TenantID, &r.PropertyID, &r.Issue, &r.Status, &r.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.MaintenanceRequest{}, ErrNotFound
	}
	if err != nil {
		return model.MaintenanceRequest{}, fmt.Errorf("get request: %w", err)
	}
	return r, nil
}

// ListConversations returns a request's conversation entries oldest first.
func (s *Storage) ListConversations(ctx context.Context, requestID uuid.UUID) ([]model.Conversation, error) {
	rows, err := s.DB.QueryContext(ctx, `
		SELECT id, request_id, sender, message, created_at
		FROM conversations
		WHERE request_id = $1
		ORDER BY created_at
	`, requestID)
	if err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}
	defer rows.Close()

	var out []model.Conversation
	for rows.Next() {
		var c model.Conversation
		if err := rows.Scan(&c.ID, &c.RequestID, &c.Sender, &c.Message, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan failed: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// UpdateRequestStatus is used by admin tooling; the intake workflow itself
// never updates rows.
func (s *Storage) UpdateRequestStatus(ctx context.Context, id uuid.UUID, status string) error {
	res, err := s.DB.ExecContext(ctx, `
		UPDATE maintenance_requests
		SET status = $1
		WHERE id = $2
	`, status, id)
	if err != nil {
		return fmt.Errorf("update status: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// translateConflict maps Postgres unique violations onto ErrConflict so
// callers can branch without importing pq.
func translateConflict(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return fmt.Errorf("%w: %s", ErrConflict, pqErr.Constraint)
	}
	return err
}
