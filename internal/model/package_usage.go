package model

import "time"

// PackageUsage is the quota ledger entry for one (subscription, service)
// pair: remaining_quantity moves down by the package-covered portion of
// every active booking and back up symmetrically on cancellation, and
// never leaves [0, original_quantity].
type PackageUsage struct {
	SubscriptionID    int64     `json:"subscription_id" db:"subscription_id"`
	ServiceID         int64     `json:"service_id" db:"service_id"`
	TenantID          string    `json:"tenant_id" db:"tenant_id"`
	OriginalQuantity  int       `json:"original_quantity" db:"original_quantity"`
	RemainingQuantity int       `json:"remaining_quantity" db:"remaining_quantity"`
	CreatedAt         time.Time `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time `json:"updated_at" db:"updated_at"`
}

// SplitCoverage divides a visitor count between package quota and paid
// seats: covered = min(visitors, remaining), paid is the remainder.
func SplitCoverage(visitors, remaining int) (covered, paid int) {
	if remaining < 0 {
		remaining = 0
	}
	covered = visitors
	if remaining < visitors {
		covered = remaining
	}
	return covered, visitors - covered
}
