// Package store defines the persistence interface for the trading game.
// Implementations include PostgreSQL (source of truth) and in-memory
// (for testing).
package store

import (
	"context"
	"errors"

	"paper-trader/internal/model"
)

// ErrNotFound is returned when a requested record does not exist. Readers
// of positions treat it as "zero position", not a fault.
var ErrNotFound = errors.New("not found")

// ErrDuplicate is returned when an insert collides with a unique
// username or email.
var ErrDuplicate = errors.New("username or email already exists")

// Store is the persistence interface. All mutations performed inside
// Atomic commit or roll back as one unit.
type Store interface {
	// Atomic runs fn against a transactional view of the store. The
	// Postgres implementation uses a serializable transaction; the memory
	// implementation applies fn to a copy and swaps it in on success.
	Atomic(ctx context.Context, fn func(Store) error) error

	// --- Accounts ---

	// CreateAccount inserts a new account. Returns ErrDuplicate if the
	// username or email is already taken.
	CreateAccount(ctx context.Context, acc *model.Account, passwordHash string) error

	// GetAccount retrieves an account by id.
	GetAccount(ctx context.Context, id string) (*model.Account, error)

	// GetCredentials returns the account id and password hash for a username.
	GetCredentials(ctx context.Context, username string) (string, string, error)

	// UpdateAccount persists the mutable account fields (cash, trade count,
	// realized P&L statistics).
	UpdateAccount(ctx context.Context, acc *model.Account) error

	// TouchLastLogin records a successful login.
	TouchLastLogin(ctx context.Context, id string) error

	// ListAccounts returns all accounts in registration order.
	ListAccounts(ctx context.Context) ([]model.Account, error)

	// --- Positions ---

	// GetPosition retrieves one account's holding in one symbol.
	GetPosition(ctx context.Context, accountID, symbol string) (*model.Position, error)

	// UpsertPosition creates or replaces a position row.
	UpsertPosition(ctx context.Context, pos *model.Position) error

	// DeletePosition removes a position row (quantity has reached zero).
	DeletePosition(ctx context.Context, accountID, symbol string) error

	// ListPositions returns an account's open positions ordered by symbol.
	ListPositions(ctx context.Context, accountID string) ([]model.Position, error)

	// --- Trades (append-only) ---

	// InsertTrade appends an immutable trade record.
	InsertTrade(ctx context.Context, trade *model.Trade) error

	// ListTrades returns an account's trades, most recent first.
	ListTrades(ctx context.Context, accountID string) ([]model.Trade, error)

	// --- Settings ---

	// GetSettings returns the singleton game settings row.
	GetSettings(ctx context.Context) (*model.GameSettings, error)
}
