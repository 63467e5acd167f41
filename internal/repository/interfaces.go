package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/spscricket/player-service/internal/domain"
)

// ErrDuplicateName is returned when a write violates the case-insensitive
// unique index on players.name.
var ErrDuplicateName = errors.New("player name already exists")

// DBTX abstracts pgx.Tx and pgxpool.Pool so repositories work with both.
type DBTX interface {
	Exec(ctx context.Context, sql string, arguments ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

// TxStarter is satisfied by pgxpool.Pool.
type TxStarter interface {
	BeginTx(ctx context.Context, txOptions pgx.TxOptions) (pgx.Tx, error)
}

// PlayerRepository provides access to players.
type PlayerRepository interface {
	// List returns every player ordered by id.
	List(ctx context.Context, db DBTX) ([]domain.Player, error)

	// FindByID returns nil, nil when no row matches.
	FindByID(ctx context.Context, db DBTX, id int64) (*domain.Player, error)

	// FindByNameIgnoreCase returns nil, nil when no row matches.
	FindByNameIgnoreCase(ctx context.Context, db DBTX, name string) (*domain.Player, error)

	// Create inserts the player and fills in ID, CreatedAt and UpdatedAt.
	Create(ctx context.Context, db DBTX, player *domain.Player) error

	// Update overwrites the mutable columns and refreshes UpdatedAt.
	// Returns false when the row no longer exists.
	Update(ctx context.Context, db DBTX, player *domain.Player) (bool, error)

	// Delete hard-deletes a player. Returns false when nothing was deleted.
	Delete(ctx context.Context, db DBTX, id int64) (bool, error)

	// ListByStatus returns players with exactly the given status.
	ListByStatus(ctx context.Context, db DBTX, status domain.Status) ([]domain.Player, error)

	// SearchByName matches a case-insensitive substring; "" matches everything.
	SearchByName(ctx context.Context, db DBTX, term string) ([]domain.Player, error)

	// ListByBirthdayRange matches start <= birthday <= end.
	ListByBirthdayRange(ctx context.Context, db DBTX, start, end domain.Date) ([]domain.Player, error)

	// CountByStatus counts players with exactly the given status.
	CountByStatus(ctx context.Context, db DBTX, status domain.Status) (int64, error)

	// CountStatuses counts both statuses in a single statement.
	CountStatuses(ctx context.Context, db DBTX) (domain.StatusCounts, error)
}

// OutboxRepository provides access to the event_outbox table.
type OutboxRepository interface {
	// Insert writes an outbox event (within the same transaction as the player write).
	Insert(ctx context.Context, db DBTX, draft domain.OutboxDraft) error

	// FetchUnpublished locks and returns the oldest pending events, SeqID populated.
	// Rows locked by another relay are skipped.
	FetchUnpublished(ctx context.Context, db DBTX, limit int) ([]domain.OutboxDraft, error)

	// MarkPublished deletes the given events.
	MarkPublished(ctx context.Context, db DBTX, ids []int64) error
}
