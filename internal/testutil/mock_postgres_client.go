package testutil

import (
	"context"

	"github.com/inboz-admin/inboz-app-sub004/internal/logger"
	"github.com/inboz-admin/inboz-app-sub004/internal/postgres"
	"github.com/jmoiron/sqlx"
)

var _ postgres.IClient = (*MockPostgresClient)(nil)

// MockPostgresClient backs service tests that run against the in-memory
// stores. WithTx executes the function directly; there is no database.
type MockPostgresClient struct {
	logger *logger.Logger
}

func NewMockPostgresClient(log *logger.Logger) postgres.IClient {
	return &MockPostgresClient{logger: log}
}

func (c *MockPostgresClient) WithTx(ctx context.Context, fn func(context.Context) error) error {
	return fn(ctx)
}

func (c *MockPostgresClient) Querier(ctx context.Context) sqlx.ExtContext {
	return nil
}
