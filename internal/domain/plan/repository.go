package plan

import (
	"context"
)

type Repository interface {
	Get(ctx context.Context, id string) (*Plan, error)
	GetByLookupKey(ctx context.Context, lookupKey string) (*Plan, error)
	List(ctx context.Context) ([]*Plan, error)
}
