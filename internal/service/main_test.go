package service_test

import (
	"context"
	"os"
	"testing"
	"time"

	"slot-booking-service/config"
	"slot-booking-service/internal/cache"
	"slot-booking-service/internal/database"
	"slot-booking-service/internal/events"
	"slot-booking-service/internal/repository"
	"slot-booking-service/internal/service"

	"github.com/alicebob/miniredis/v2"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

const testTenant = "tenant-a"

// noopPublisher drops events; the transactional paths under test do not
// depend on delivery.
type noopPublisher struct{}

func (noopPublisher) Publish(_ context.Context, _ *events.BookingEvent) error { return nil }

type testEnv struct {
	pool        *pgxpool.Pool
	slotRepo    repository.SlotRepository
	lockRepo    repository.LockRepository
	bookingRepo repository.BookingRepository
	ledgerRepo  repository.LedgerRepository
	shiftRepo   repository.ShiftRepository
	locks       service.LockService
	bookings    service.BookingService
	slots       service.SlotService
	packages    service.PackageService
	reconcile   service.ReconcileService
}

// newTestEnv connects to the test database, applies the schema and wipes
// all tables. Skips when the database is unreachable.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	cfg := config.LoadTestConfig()
	pool, err := database.InitDatabase(&cfg.Database)
	if err != nil {
		t.Skipf("test database unavailable: %v", err)
	}
	t.Cleanup(pool.Close)

	applySchema(t, pool)
	truncateAll(t, pool)

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	availCache := cache.NewSlotAvailabilityManager(client, cfg.Booking.AvailabilityTTL)

	slotRepo := repository.NewSlotRepository(pool)
	lockRepo := repository.NewLockRepository(pool)
	bookingRepo := repository.NewBookingRepository(pool)
	ledgerRepo := repository.NewLedgerRepository(pool)
	shiftRepo := repository.NewShiftRepository(pool)

	return &testEnv{
		pool:        pool,
		slotRepo:    slotRepo,
		lockRepo:    lockRepo,
		bookingRepo: bookingRepo,
		ledgerRepo:  ledgerRepo,
		shiftRepo:   shiftRepo,
		locks:       service.NewLockService(pool, slotRepo, lockRepo, cfg.Booking.DefaultLockTTL, cfg.Booking.MaxLockTTL),
		bookings:    service.NewBookingService(pool, bookingRepo, slotRepo, lockRepo, ledgerRepo, availCache, noopPublisher{}),
		slots:       service.NewSlotService(slotRepo, shiftRepo, availCache),
		packages:    service.NewPackageService(ledgerRepo),
		reconcile:   service.NewReconcileService(pool, slotRepo, bookingRepo, availCache),
	}
}

func applySchema(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()

	ddl, err := os.ReadFile("../../migrations/001_init.sql")
	require.NoError(t, err)

	_, err = pool.Exec(context.Background(), string(ddl))
	require.NoError(t, err)
}

func truncateAll(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()

	_, err := pool.Exec(context.Background(),
		`TRUNCATE bookings, booking_locks, slots, shifts, package_subscription_usage RESTART IDENTITY CASCADE`)
	require.NoError(t, err)
}

// seedSlot inserts a shift and one slot for it, returning the slot id.
func seedSlot(t *testing.T, pool *pgxpool.Pool, tenantID string, capacity int) int64 {
	t.Helper()
	ctx := context.Background()

	var shiftID int64
	err := pool.QueryRow(ctx,
		`INSERT INTO shifts (tenant_id, service_id, name, weekdays, start_minute, end_minute, slot_minutes, default_capacity)
		 VALUES ($1, 1, 'morning', '{1,2,3,4,5}', 540, 720, 60, $2)
		 RETURNING id`,
		tenantID, capacity).Scan(&shiftID)
	require.NoError(t, err)

	start := time.Now().UTC().Truncate(24 * time.Hour).Add(9 * time.Hour)
	var slotID int64
	err = pool.QueryRow(ctx,
		`INSERT INTO slots (tenant_id, shift_id, slot_date, start_time, end_time, original_capacity, available_capacity, booked_count)
		 VALUES ($1, $2, $3, $4, $5, $6, $6, 0)
		 RETURNING id`,
		tenantID, shiftID, start, start, start.Add(time.Hour), capacity).Scan(&slotID)
	require.NoError(t, err)

	return slotID
}

// seedExpiredLock inserts a lock whose TTL already elapsed.
func seedExpiredLock(t *testing.T, pool *pgxpool.Pool, tenantID string, slotID int64, reserved int, id string) {
	t.Helper()

	_, err := pool.Exec(context.Background(),
		`INSERT INTO booking_locks (id, tenant_id, slot_id, reserved_capacity, expires_at)
		 VALUES ($1, $2, $3, $4, now() - interval '1 minute')`,
		id, tenantID, slotID, reserved)
	require.NoError(t, err)
}

func slotCounters(t *testing.T, pool *pgxpool.Pool, slotID int64) (available, booked int) {
	t.Helper()

	err := pool.QueryRow(context.Background(),
		`SELECT available_capacity, booked_count FROM slots WHERE id = $1`, slotID).
		Scan(&available, &booked)
	require.NoError(t, err)
	return available, booked
}

func remainingQuota(t *testing.T, pool *pgxpool.Pool, subscriptionID, serviceID int64) int {
	t.Helper()

	var remaining int
	err := pool.QueryRow(context.Background(),
		`SELECT remaining_quantity FROM package_subscription_usage WHERE subscription_id = $1 AND service_id = $2`,
		subscriptionID, serviceID).Scan(&remaining)
	require.NoError(t, err)
	return remaining
}
