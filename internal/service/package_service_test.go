package service_test

import (
	"context"
	"testing"

	apperrors "slot-booking-service/pkg/app_errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPackageService_ActivateSubscription(t *testing.T) {
	ctx := context.Background()

	t.Run("Seeds one ledger row per service", func(t *testing.T) {
		env := newTestEnv(t)

		err := env.packages.ActivateSubscription(ctx, testTenant, 10, map[int64]int{1: 5, 2: 3})
		require.NoError(t, err)

		usage, err := env.packages.GetUsage(ctx, testTenant, 10, 1)
		require.NoError(t, err)
		assert.Equal(t, 5, usage.OriginalQuantity)
		assert.Equal(t, 5, usage.RemainingQuantity)

		usage, err = env.packages.GetUsage(ctx, testTenant, 10, 2)
		require.NoError(t, err)
		assert.Equal(t, 3, usage.RemainingQuantity)
	})

	t.Run("Re-activation keeps existing balances", func(t *testing.T) {
		env := newTestEnv(t)

		require.NoError(t, env.packages.ActivateSubscription(ctx, testTenant, 10, map[int64]int{1: 5}))

		// Consume one unit, then activate again with a larger grant.
		_, err := env.pool.Exec(ctx,
			`UPDATE package_subscription_usage SET remaining_quantity = 4 WHERE subscription_id = 10 AND service_id = 1`)
		require.NoError(t, err)

		require.NoError(t, env.packages.ActivateSubscription(ctx, testTenant, 10, map[int64]int{1: 8}))

		usage, err := env.packages.GetUsage(ctx, testTenant, 10, 1)
		require.NoError(t, err)
		assert.Equal(t, 5, usage.OriginalQuantity)
		assert.Equal(t, 4, usage.RemainingQuantity)
	})

	t.Run("Empty entitlements", func(t *testing.T) {
		env := newTestEnv(t)

		err := env.packages.ActivateSubscription(ctx, testTenant, 10, map[int64]int{})
		assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	})
}

func TestPackageService_GetUsage(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.packages.GetUsage(context.Background(), testTenant, 10, 1)
	assert.ErrorIs(t, err, apperrors.ErrQuotaEntryNotFound)
}
