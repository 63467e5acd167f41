package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/spscricket/player-service/internal/domain"
)

const uniqueViolation = "23505"

const playerColumns = `id, name, birthday, image_name, status, created_at, updated_at`

type playerRepo struct{}

// NewPlayerRepository returns a pgx-backed PlayerRepository.
func NewPlayerRepository() PlayerRepository {
	return &playerRepo{}
}

func (r *playerRepo) List(ctx context.Context, db DBTX) ([]domain.Player, error) {
	rows, err := db.Query(ctx, `SELECT `+playerColumns+` FROM players ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list players: %w", err)
	}
	return scanPlayers(rows)
}

func (r *playerRepo) FindByID(ctx context.Context, db DBTX, id int64) (*domain.Player, error) {
	row := db.QueryRow(ctx, `SELECT `+playerColumns+` FROM players WHERE id = $1`, id)
	return scanPlayer(row)
}

func (r *playerRepo) FindByNameIgnoreCase(ctx context.Context, db DBTX, name string) (*domain.Player, error) {
	row := db.QueryRow(ctx, `
		SELECT `+playerColumns+`
		FROM players WHERE lower(name) = lower($1)
		LIMIT 1`, name)
	return scanPlayer(row)
}

func (r *playerRepo) Create(ctx context.Context, db DBTX, player *domain.Player) error {
	err := db.QueryRow(ctx, `
		INSERT INTO players (name, birthday, image_name, status)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at`,
		player.Name,
		player.Birthday.Time,
		player.ImageName,
		string(player.Status),
	).Scan(&player.ID, &player.CreatedAt, &player.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateName
		}
		return fmt.Errorf("insert player: %w", err)
	}
	return nil
}

// Update bumps updated_at by at least a microsecond so it strictly increases
// even when two writes land within the same transaction timestamp.
func (r *playerRepo) Update(ctx context.Context, db DBTX, player *domain.Player) (bool, error) {
	err := db.QueryRow(ctx, `
		UPDATE players
		SET name = $2, birthday = $3, image_name = $4, status = $5,
		    updated_at = GREATEST(now(), updated_at + interval '1 microsecond')
		WHERE id = $1
		RETURNING created_at, updated_at`,
		player.ID,
		player.Name,
		player.Birthday.Time,
		player.ImageName,
		string(player.Status),
	).Scan(&player.CreatedAt, &player.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		if isUniqueViolation(err) {
			return false, ErrDuplicateName
		}
		return false, fmt.Errorf("update player: %w", err)
	}
	return true, nil
}

func (r *playerRepo) Delete(ctx context.Context, db DBTX, id int64) (bool, error) {
	tag, err := db.Exec(ctx, `DELETE FROM players WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("delete player: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *playerRepo) ListByStatus(ctx context.Context, db DBTX, status domain.Status) ([]domain.Player, error) {
	rows, err := db.Query(ctx, `
		SELECT `+playerColumns+`
		FROM players WHERE status = $1
		ORDER BY id`, string(status))
	if err != nil {
		return nil, fmt.Errorf("list players by status: %w", err)
	}
	return scanPlayers(rows)
}

// SearchByName uses strpos rather than LIKE so % and _ in the term match literally.
func (r *playerRepo) SearchByName(ctx context.Context, db DBTX, term string) ([]domain.Player, error) {
	rows, err := db.Query(ctx, `
		SELECT `+playerColumns+`
		FROM players WHERE strpos(lower(name), lower($1)) > 0
		ORDER BY id`, term)
	if err != nil {
		return nil, fmt.Errorf("search players: %w", err)
	}
	return scanPlayers(rows)
}

func (r *playerRepo) ListByBirthdayRange(ctx context.Context, db DBTX, start, end domain.Date) ([]domain.Player, error) {
	rows, err := db.Query(ctx, `
		SELECT `+playerColumns+`
		FROM players WHERE birthday BETWEEN $1 AND $2
		ORDER BY id`, start.Time, end.Time)
	if err != nil {
		return nil, fmt.Errorf("list players by birthday: %w", err)
	}
	return scanPlayers(rows)
}

func (r *playerRepo) CountByStatus(ctx context.Context, db DBTX, status domain.Status) (int64, error) {
	var n int64
	if err := db.QueryRow(ctx, `SELECT count(*) FROM players WHERE status = $1`, string(status)).Scan(&n); err != nil {
		return 0, fmt.Errorf("count players by status: %w", err)
	}
	return n, nil
}

func (r *playerRepo) CountStatuses(ctx context.Context, db DBTX) (domain.StatusCounts, error) {
	var c domain.StatusCounts
	err := db.QueryRow(ctx, `
		SELECT count(*) FILTER (WHERE status = 'ACTIVE'),
		       count(*) FILTER (WHERE status = 'INACTIVE')
		FROM players`).Scan(&c.Active, &c.Inactive)
	if err != nil {
		return domain.StatusCounts{}, fmt.Errorf("count players: %w", err)
	}
	return c, nil
}

func scanPlayers(rows pgx.Rows) ([]domain.Player, error) {
	defer rows.Close()

	var players []domain.Player
	for rows.Next() {
		p, err := scanPlayer(rows)
		if err != nil {
			return nil, err
		}
		players = append(players, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate players: %w", err)
	}
	return players, nil
}

func scanPlayer(row pgx.Row) (*domain.Player, error) {
	var p domain.Player
	var birthday time.Time
	var status string
	err := row.Scan(&p.ID, &p.Name, &birthday, &p.ImageName, &status, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan player: %w", err)
	}
	p.Birthday = domain.DateOf(birthday)
	p.Status = domain.Status(status)
	return &p, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
