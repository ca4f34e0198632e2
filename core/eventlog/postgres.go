package eventlog

import (
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

//go:embed migrations/*.sql
var migrations embed.FS

const insertEvent = `INSERT INTO event_logs (call_session_id, event_name, event_data) VALUES ($1, $2, $3)`

// PostgresStore writes events to the event_logs table.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore connects to databaseURL. Call Migrate before the first
// Record on a fresh database.
func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create postgres pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to reach postgres: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

// Migrate applies the embedded schema migrations.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "migrate event log")
	defer span.End()

	fsys, err := fs.Sub(migrations, "migrations")
	if err != nil {
		return fmt.Errorf("failed to open migrations: %w", err)
	}

	db := stdlib.OpenDBFromPool(s.pool)
	defer db.Close()

	provider, err := goose.NewProvider(goose.DialectPostgres, db, fsys)
	if err != nil {
		err = fmt.Errorf("failed to create migration provider: %w", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	results, err := provider.Up(ctx)
	if err != nil {
		err = fmt.Errorf("failed to apply migrations: %w", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	for _, result := range results {
		logger.InfoContext(ctx, "applied migration", "source", result.Source.Path, "duration", result.Duration)
	}
	return nil
}

func (s *PostgresStore) Record(ctx context.Context, callID, eventName string, payload json.RawMessage) error {
	ctx, span := tracer.Start(ctx, "record event")
	defer span.End()
	span.SetAttributes(attribute.String("call.sid", callID), attribute.String("event.name", eventName))

	if len(payload) == 0 {
		payload = json.RawMessage(`{}`)
	}
	if _, err := s.pool.Exec(ctx, insertEvent, callID, eventName, payload); err != nil {
		err = fmt.Errorf("failed to insert event %s: %w", eventName, err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	return nil
}

func (s *PostgresStore) Close() {
	s.pool.Close()
}
