package store

import (
	"context"
	"errors"
	"time"

	"github.com/goccy/go-json"
)

// ErrNotFound is returned when no record exists for a (user, game) pair.
var ErrNotFound = errors.New("player data not found")

// ErrGameNotFound is returned when a game id has no registration.
var ErrGameNotFound = errors.New("game not found")

// PlayerRecord is the durable save state for one player in one game,
// keyed uniquely by (UserID, Game)
type PlayerRecord struct {
	ID        string          `json:"id"`
	UserID    string          `json:"userId"`
	Game      string          `json:"game"`
	Data      json.RawMessage `json:"data"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

// Game is a registered game tenant. The secret signs player data requests.
type Game struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Secret    string    `json:"-"`
	CreatedAt time.Time `json:"createdAt"`
}

// Store defines the interface for durable player data and game registry
// access
type Store interface {
	// UpsertBatch applies the records in order inside a single
	// transaction. A later record for the same (user, game) pair
	// overwrites an earlier one. All records commit or none do.
	UpsertBatch(ctx context.Context, records []PlayerRecord) error

	// GetPlayerData returns the record for a (user, game) pair, or
	// ErrNotFound
	GetPlayerData(ctx context.Context, userID, game string) (*PlayerRecord, error)

	// ListByGame returns every stored record for a game
	ListByGame(ctx context.Context, game string) ([]PlayerRecord, error)

	// GetGame returns the registration for a game id, or ErrGameNotFound
	GetGame(ctx context.Context, id string) (*Game, error)

	// CreateGame registers a new game
	CreateGame(ctx context.Context, game Game) error

	// Ping verifies the store connection
	Ping(ctx context.Context) error

	// Close releases the connection pool
	Close() error
}
