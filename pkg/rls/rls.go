package rls

import (
	"context"
	"fmt"

	"gorm.io/gorm"
)

func WithTenant(tx *gorm.DB, tenantID int64) error {
	return tx.Exec(
		"SET LOCAL app.current_org_id = ?",
		fmt.Sprintf("%d", tenantID),
	).Error
}

// Transaction runs fn in a transaction scoped to the tenant's row-level security policies.
// Dialects without RLS run fn in a plain transaction.
func Transaction(ctx context.Context, db *gorm.DB, tenantID int64, fn func(tx *gorm.DB) error) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if tx.Dialector != nil && tx.Dialector.Name() == "postgres" {
			if err := WithTenant(tx, tenantID); err != nil {
				return err
			}
		}
		return fn(tx)
	})
}
