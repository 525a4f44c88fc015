package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"slot-booking-service/internal/model"
	apperrors "slot-booking-service/pkg/app_errors"
	"slot-booking-service/pkg/logger"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// LedgerRepository is the package quota ledger: one row per
// (subscription, service) with remaining usage. Mutated only by the
// booking lifecycle; remaining_quantity never leaves [0, original].
type LedgerRepository interface {
	CreateEntries(ctx context.Context, entries []*model.PackageUsage) error
	Find(ctx context.Context, tenantID string, subscriptionID, serviceID int64) (*model.PackageUsage, error)

	// Transaction methods
	FindForUpdate(ctx context.Context, tx pgx.Tx, tenantID string, subscriptionID, serviceID int64) (*model.PackageUsage, error)
	Reserve(ctx context.Context, tx pgx.Tx, tenantID string, subscriptionID, serviceID int64, quantity int) error
	Restore(ctx context.Context, tx pgx.Tx, tenantID string, subscriptionID, serviceID int64, quantity int) error
}

type LedgerRepositoryImpl struct {
	pool *pgxpool.Pool
}

func NewLedgerRepository(pool *pgxpool.Pool) LedgerRepository {
	return &LedgerRepositoryImpl{
		pool: pool,
	}
}

// CreateEntries seeds ledger rows when a subscription is activated, one
// per covered service.
func (r *LedgerRepositoryImpl) CreateEntries(ctx context.Context, entries []*model.PackageUsage) error {
	query := `
		INSERT INTO package_subscription_usage (
			subscription_id, service_id, tenant_id, original_quantity, remaining_quantity)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (subscription_id, service_id) DO NOTHING
	`

	batch := &pgx.Batch{}
	for _, entry := range entries {
		batch.Queue(query,
			entry.SubscriptionID, entry.ServiceID, entry.TenantID,
			entry.OriginalQuantity, entry.RemainingQuantity,
		)
	}

	results := r.pool.SendBatch(ctx, batch)
	defer results.Close()

	for range entries {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("failed to create ledger entries: %w", err)
		}
	}

	return nil
}

func scanUsage(row pgx.Row) (*model.PackageUsage, error) {
	var usage model.PackageUsage
	err := row.Scan(
		&usage.SubscriptionID,
		&usage.ServiceID,
		&usage.TenantID,
		&usage.OriginalQuantity,
		&usage.RemainingQuantity,
		&usage.CreatedAt,
		&usage.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrQuotaEntryNotFound
		}
		return nil, err
	}
	return &usage, nil
}

const usageColumns = `subscription_id, service_id, tenant_id,
		original_quantity, remaining_quantity, created_at, updated_at`

func (r *LedgerRepositoryImpl) Find(ctx context.Context, tenantID string, subscriptionID, serviceID int64) (*model.PackageUsage, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM package_subscription_usage
		WHERE subscription_id = $1 AND service_id = $2 AND tenant_id = $3
	`, usageColumns)

	return scanUsage(r.pool.QueryRow(ctx, query, subscriptionID, serviceID, tenantID))
}

func (r *LedgerRepositoryImpl) FindForUpdate(ctx context.Context, tx pgx.Tx, tenantID string, subscriptionID, serviceID int64) (*model.PackageUsage, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM package_subscription_usage
		WHERE subscription_id = $1 AND service_id = $2 AND tenant_id = $3
		FOR UPDATE
	`, usageColumns)

	return scanUsage(tx.QueryRow(ctx, query, subscriptionID, serviceID, tenantID))
}

// Reserve conditionally decrements remaining quota; it only succeeds if
// remaining_quantity >= quantity.
func (r *LedgerRepositoryImpl) Reserve(ctx context.Context, tx pgx.Tx, tenantID string, subscriptionID, serviceID int64, quantity int) error {
	query := `
		UPDATE package_subscription_usage
		SET remaining_quantity = remaining_quantity - $1, updated_at = $2
		WHERE subscription_id = $3 AND service_id = $4 AND tenant_id = $5
			AND remaining_quantity >= $1
	`

	result, err := tx.Exec(ctx, query, quantity, time.Now().UTC(), subscriptionID, serviceID, tenantID)
	if err != nil {
		return err
	}

	if result.RowsAffected() == 0 {
		var exists bool
		err := tx.QueryRow(ctx,
			`SELECT EXISTS (
				SELECT 1 FROM package_subscription_usage
				WHERE subscription_id = $1 AND service_id = $2 AND tenant_id = $3
			)`,
			subscriptionID, serviceID, tenantID,
		).Scan(&exists)
		if err != nil {
			return err
		}
		if !exists {
			return apperrors.ErrQuotaEntryNotFound
		}
		return apperrors.ErrInsufficientQuota
	}

	return nil
}

// Restore increments remaining quota, clamped at original_quantity.
// Restoring past the ceiling means a double-restore happened upstream,
// so the clamp is logged loudly instead of silently allowed.
func (r *LedgerRepositoryImpl) Restore(ctx context.Context, tx pgx.Tx, tenantID string, subscriptionID, serviceID int64, quantity int) error {
	usage, err := r.FindForUpdate(ctx, tx, tenantID, subscriptionID, serviceID)
	if err != nil {
		return err
	}

	remaining := usage.RemainingQuantity + quantity
	if remaining > usage.OriginalQuantity {
		logger.WithComponent("ledger").Error("quota restore clamped at original quantity",
			zap.Int64("subscription_id", subscriptionID),
			zap.Int64("service_id", serviceID),
			zap.Int("remaining", usage.RemainingQuantity),
			zap.Int("quantity", quantity),
		)
		remaining = usage.OriginalQuantity
	}

	query := `
		UPDATE package_subscription_usage
		SET remaining_quantity = $1, updated_at = $2
		WHERE subscription_id = $3 AND service_id = $4 AND tenant_id = $5
	`

	if _, err := tx.Exec(ctx, query, remaining, time.Now().UTC(), subscriptionID, serviceID, tenantID); err != nil {
		return err
	}

	return nil
}
