package organization

import (
	"context"
)

type Repository interface {
	Get(ctx context.Context, id string) (*Organization, error)

	// GetForUpdate loads the organization row with a row lock
	// (SELECT ... FOR UPDATE) to serialize concurrent upgrade attempts.
	// Must be called inside a transaction.
	GetForUpdate(ctx context.Context, id string) (*Organization, error)

	Update(ctx context.Context, org *Organization) error

	// CountActiveUsers returns the live active-user count for the
	// organization, used as the seat fallback when a checkout names no
	// explicit seat count and no subscription exists.
	CountActiveUsers(ctx context.Context, id string) (int, error)
}
