//go:build integration

package testutils

import (
	"context"
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	"github.com/testcontainers/testcontainers-go"
	tcnats "github.com/testcontainers/testcontainers-go/modules/nats"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/uptrace/bun"

	"github.com/Black-And-White-Club/pingpong-bot/app/shared/observability"
	"github.com/Black-And-White-Club/pingpong-bot/config"
	"github.com/Black-And-White-Club/pingpong-bot/db/bundb"
	"github.com/Black-And-White-Club/pingpong-bot/integration_tests/containers"
)

// appTables are truncated between tests. Migration bookkeeping survives.
var appTables = []string{
	"tournament_standings",
	"tournament_fixtures",
	"tournaments",
	"player_achievements",
	"rating_season_snapshots",
	"rating_seasons",
	"rating_matches",
	"rating_player_tracks",
	"rating_groups",
}

// TestEnvironment holds all resources needed for integration testing
type TestEnvironment struct {
	PgContainer   *postgres.PostgresContainer
	NatsContainer *tcnats.NATSContainer
	DB            *bun.DB
	Config        *config.Config
	Observability observability.Observability
}

// NewTestEnvironment starts Postgres and NATS and migrates every module.
func NewTestEnvironment(ctx context.Context) (*TestEnvironment, error) {
	pgContainer, pgConnStr, err := containers.SetupPostgresContainer(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to setup postgres container: %w", err)
	}

	natsContainer, natsURL, err := containers.SetupNatsContainer(ctx)
	if err != nil {
		_ = testcontainers.TerminateContainer(pgContainer)
		return nil, fmt.Errorf("failed to setup nats container: %w", err)
	}

	env := &TestEnvironment{
		PgContainer:   pgContainer,
		NatsContainer: natsContainer,
	}

	db, err := bundb.Open(ctx, pgConnStr)
	if err != nil {
		env.Cleanup()
		return nil, err
	}
	env.DB = db

	cfg := config.Defaults()
	cfg.Postgres.DSN = pgConnStr
	cfg.NATS.URL = natsURL
	cfg.Queue.Enabled = false
	cfg.Observability.Environment = "test"
	env.Config = &cfg
	env.Observability = observability.NewWithWriter(config.ToObsConfig(env.Config), io.Discard)

	if err := bundb.MigrateAll(ctx, db, pgConnStr, env.Observability.Logger); err != nil {
		env.Cleanup()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return env, nil
}

// Reset truncates every application table.
func (env *TestEnvironment) Reset(ctx context.Context) error {
	query := fmt.Sprintf("TRUNCATE TABLE %s CASCADE", strings.Join(appTables, ", "))
	if _, err := env.DB.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to truncate tables: %w", err)
	}
	return nil
}

// Cleanup tears down all resources created for testing
func (env *TestEnvironment) Cleanup() {
	if env.DB != nil {
		_ = env.DB.Close()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if env.NatsContainer != nil {
		if err := env.NatsContainer.Terminate(ctx); err != nil {
			log.Printf("Error terminating NATS container: %v", err)
		}
	}
	if env.PgContainer != nil {
		if err := env.PgContainer.Terminate(ctx); err != nil {
			log.Printf("Error terminating Postgres container: %v", err)
		}
	}
}
