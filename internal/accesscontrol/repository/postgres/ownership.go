// Package postgres implements access_control's storage contracts against
// the admin database.
package postgres

import (
	"context"
	"database/sql"

	"github.com/tenantgate/tenantgate/pkg/database"
)

// OwnershipStore is C2, the Tenant Ownership Store. Backed by the admin
// database's tenant_ownerships table.
type OwnershipStore struct {
	db *database.DB
}

// NewOwnershipStore creates a new ownership store.
func NewOwnershipStore(db *database.DB) *OwnershipStore {
	return &OwnershipStore{db: db}
}

// Exists reports whether principalID has an ownership record for tenantID.
func (s *OwnershipStore) Exists(ctx context.Context, tenantID, principalID string) (bool, error) {
	var exists bool
	err := s.db.GetContext(ctx, &exists, `
		SELECT EXISTS(
			SELECT 1 FROM tenant_ownerships WHERE tenant_id = $1 AND user_id = $2
		)
	`, tenantID, principalID)
	if err != nil {
		return false, err
	}
	return exists, nil
}

// Save records principalID as an owner of tenantID. Idempotent.
func (s *OwnershipStore) Save(ctx context.Context, tenantID, principalID string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO tenant_ownerships (tenant_id, user_id)
		VALUES ($1, $2)
		ON CONFLICT (tenant_id, user_id) DO NOTHING
	`, tenantID, principalID)
	return err
}

// ListTenantsByPrincipal returns every tenant_id principalID owns.
func (s *OwnershipStore) ListTenantsByPrincipal(ctx context.Context, principalID string) ([]string, error) {
	var ids []string
	err := s.db.SelectContext(ctx, &ids, `
		SELECT tenant_id FROM tenant_ownerships WHERE user_id = $1
	`, principalID)
	if err == sql.ErrNoRows {
		return []string{}, nil
	}
	if err != nil {
		return nil, err
	}
	return ids, nil
}
