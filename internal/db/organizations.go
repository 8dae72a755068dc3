package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// CreateOrganization registers an organization for an owner.
// Returns ErrAlreadyExists if the owner already has one.
func (db *DB) CreateOrganization(ctx context.Context, org *Organization) error {
	query := `
		INSERT INTO organizations (owner_id, name, region, verified)
		VALUES (?, ?, ?, ?)
		RETURNING id, created_at
	`

	err := db.QueryRowContext(ctx, query,
		org.OwnerID, org.Name, org.Region, org.Verified,
	).Scan(&org.ID, &org.CreatedAt)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return ErrAlreadyExists
		}
		return fmt.Errorf("failed to create organization: %w", err)
	}

	return nil
}

// GetOrganization retrieves an organization by ID
func (db *DB) GetOrganization(ctx context.Context, id int64) (*Organization, error) {
	query := `
		SELECT id, owner_id, name, region, verified, created_at
		FROM organizations
		WHERE id = ?
	`

	org := &Organization{}
	err := db.QueryRowContext(ctx, query, id).Scan(
		&org.ID, &org.OwnerID, &org.Name, &org.Region, &org.Verified, &org.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get organization: %w", err)
	}

	return org, nil
}

// GetOrganizationByOwner retrieves the organization owned by a user
func (db *DB) GetOrganizationByOwner(ctx context.Context, ownerID string) (*Organization, error) {
	query := `
		SELECT id, owner_id, name, region, verified, created_at
		FROM organizations
		WHERE owner_id = ?
	`

	org := &Organization{}
	err := db.QueryRowContext(ctx, query, ownerID).Scan(
		&org.ID, &org.OwnerID, &org.Name, &org.Region, &org.Verified, &org.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get organization: %w", err)
	}

	return org, nil
}

// VerifyOrganization marks an organization as verified and, in the same
// transaction, flips the owner's pending requests to verified so they
// appear in the catalog retroactively.
func (db *DB) VerifyOrganization(ctx context.Context, id int64) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx,
		"UPDATE organizations SET verified = 1 WHERE id = ?", id,
	)
	if err != nil {
		return fmt.Errorf("failed to verify organization: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE requests SET verified = 1
		WHERE verified = 0
		  AND user_id = (SELECT owner_id FROM organizations WHERE id = ?)
	`, id); err != nil {
		return fmt.Errorf("failed to verify pending requests: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit verification: %w", err)
	}
	return nil
}

// IsOwnerVerified reports whether the user owns a verified organization
func (db *DB) IsOwnerVerified(ctx context.Context, ownerID string) (bool, error) {
	var verified bool
	err := db.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM organizations WHERE owner_id = ? AND verified = 1
		)
	`, ownerID).Scan(&verified)
	if err != nil {
		return false, fmt.Errorf("failed to check owner verification: %w", err)
	}
	return verified, nil
}
