package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/brrock/gamex/pkg/logger"
)

// PostgresStore implements Store using pgxpool
type PostgresStore struct {
	pool   *pgxpool.Pool
	logger *logger.Logger
}

// PostgresConfig holds database connection settings
type PostgresConfig struct {
	URI      string
	MinConns int32
	MaxConns int32
}

// NewPostgresStore creates a new PostgresStore instance
func NewPostgresStore(ctx context.Context, cfg PostgresConfig, l *logger.Logger) (*PostgresStore, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.URI)
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection string: %w", err)
	}

	poolCfg.MinConns = cfg.MinConns
	poolCfg.MaxConns = cfg.MaxConns
	poolCfg.MaxConnLifetime = 30 * time.Minute
	poolCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	// Verify connection
	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresStore{pool: pool, logger: l}, nil
}

// UpsertBatch applies the records in order inside one transaction.
// Sequential statements mean a later record for the same key within the
// batch overwrites the earlier one.
func (s *PostgresStore) UpsertBatch(ctx context.Context, records []PlayerRecord) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	const query = `
		INSERT INTO player_data (id, user_id, game, data, created_at, updated_at)
		VALUES ($1, $2, $3, $4, now(), now())
		ON CONFLICT (user_id, game) DO UPDATE SET
			data = EXCLUDED.data,
			updated_at = now()
		RETURNING (xmax = 0) AS inserted
	`
	for _, r := range records {
		id := r.ID
		if id == "" {
			id = uuid.NewString()
		}

		var inserted bool
		if err := tx.QueryRow(ctx, query, id, r.UserID, r.Game, r.Data).Scan(&inserted); err != nil {
			return fmt.Errorf("upsert failed for user %s game %s: %w", r.UserID, r.Game, err)
		}

		status := "updated"
		if inserted {
			status = "inserted"
		}
		s.logger.Debug("upsert complete",
			zap.String("user_id", r.UserID),
			zap.String("game", r.Game),
			zap.String("status", status))
	}

	return tx.Commit(ctx)
}

// GetPlayerData returns the stored record for a (user, game) pair
func (s *PostgresStore) GetPlayerData(ctx context.Context, userID, game string) (*PlayerRecord, error) {
	const query = `
		SELECT id, user_id, game, data, created_at, updated_at
		FROM player_data
		WHERE user_id = $1 AND game = $2
	`
	var r PlayerRecord
	err := s.pool.QueryRow(ctx, query, userID, game).
		Scan(&r.ID, &r.UserID, &r.Game, &r.Data, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to query player data: %w", err)
	}
	return &r, nil
}

// ListByGame returns every stored record for a game
func (s *PostgresStore) ListByGame(ctx context.Context, game string) ([]PlayerRecord, error) {
	const query = `
		SELECT id, user_id, game, data, created_at, updated_at
		FROM player_data
		WHERE game = $1
		ORDER BY updated_at DESC
	`
	rows, err := s.pool.Query(ctx, query, game)
	if err != nil {
		return nil, fmt.Errorf("failed to query player data for game: %w", err)
	}
	defer rows.Close()

	records := []PlayerRecord{}
	for rows.Next() {
		var r PlayerRecord
		if err := rows.Scan(&r.ID, &r.UserID, &r.Game, &r.Data, &r.CreatedAt, &r.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan player data row: %w", err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read player data rows: %w", err)
	}
	return records, nil
}

// GetGame returns the registration for a game id
func (s *PostgresStore) GetGame(ctx context.Context, id string) (*Game, error) {
	const query = `SELECT id, name, secret, created_at FROM games WHERE id = $1`

	var g Game
	err := s.pool.QueryRow(ctx, query, id).Scan(&g.ID, &g.Name, &g.Secret, &g.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrGameNotFound
		}
		return nil, fmt.Errorf("failed to query game: %w", err)
	}
	return &g, nil
}

// CreateGame registers a new game
func (s *PostgresStore) CreateGame(ctx context.Context, game Game) error {
	const query = `
		INSERT INTO games (id, name, secret, created_at)
		VALUES ($1, $2, $3, now())
	`
	if _, err := s.pool.Exec(ctx, query, game.ID, game.Name, game.Secret); err != nil {
		return fmt.Errorf("failed to create game: %w", err)
	}
	return nil
}

// Ping verifies the store connection
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close closes the pool
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
