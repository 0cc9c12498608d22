//go:build integration

package containers

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/lib/pq"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"

	"idledger/internal/ledger/store"
	"idledger/internal/platform/postgres"
)

// PostgresContainer wraps a Postgres instance with the ledger schema.
type PostgresContainer struct {
	Container testcontainers.Container
	URL       string
	DB        *sql.DB
}

// ledgerTables are truncated between tests; ledger_counters is reset instead
// since it is a single seeded row.
var ledgerTables = []string{"identity_attestations", "identities", "verifiers", "ledger_events"}

func startPostgres() (*PostgresContainer, error) {
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("idledger"),
		tcpostgres.WithUsername("idledger"),
		tcpostgres.WithPassword("idledger"),
		tcpostgres.BasicWaitStrategies(),
	)
	if err != nil {
		return nil, fmt.Errorf("start postgres: %w", err)
	}

	url, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		_ = container.Terminate(ctx)
		return nil, fmt.Errorf("postgres connection string: %w", err)
	}
	if err := postgres.Migrate(ctx, url, store.Schema); err != nil {
		_ = container.Terminate(ctx)
		return nil, err
	}
	db, err := sql.Open("postgres", url)
	if err != nil {
		_ = container.Terminate(ctx)
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		_ = container.Terminate(ctx)
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return &PostgresContainer{Container: container, URL: url, DB: db}, nil
}

// TruncateTables empties the ledger between tests.
func (p *PostgresContainer) TruncateTables(ctx context.Context) error {
	stmt := "TRUNCATE " + strings.Join(ledgerTables, ", ") + " RESTART IDENTITY CASCADE"
	if _, err := p.DB.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("truncate ledger tables: %w", err)
	}
	if _, err := p.DB.ExecContext(ctx, "UPDATE ledger_counters SET total_identities = 0, total_verifiers = 0"); err != nil {
		return fmt.Errorf("reset ledger counters: %w", err)
	}
	return nil
}
