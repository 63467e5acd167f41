package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/spscricket/player-service/internal/clock"
	"github.com/spscricket/player-service/internal/domain"
	"github.com/spscricket/player-service/internal/repository"
)

// ImageSigner issues time-limited download URLs for stored player images.
type ImageSigner interface {
	PresignGet(ctx context.Context, key string) (url string, expiresAt time.Time, err error)
}

// PlayerService implements the player use cases. Every exported method runs
// in exactly one database transaction.
type PlayerService struct {
	tx      repository.Transactor
	players repository.PlayerRepository
	outbox  repository.OutboxRepository
	clock   clock.Clock
	images  ImageSigner
	logger  *slog.Logger
}

// NewPlayerService creates a PlayerService. images may be nil, in which case
// ImageURL reports the feature as unavailable.
func NewPlayerService(
	tx repository.Transactor,
	players repository.PlayerRepository,
	outbox repository.OutboxRepository,
	clk clock.Clock,
	images ImageSigner,
	logger *slog.Logger,
) *PlayerService {
	return &PlayerService{
		tx:      tx,
		players: players,
		outbox:  outbox,
		clock:   clk,
		images:  images,
		logger:  logger,
	}
}

// Now is the service clock reading used for ages and validation.
func (s *PlayerService) Now() time.Time {
	return s.clock.Now()
}

// ListAll returns every player ordered by id.
func (s *PlayerService) ListAll(ctx context.Context) ([]domain.Player, error) {
	var players []domain.Player
	err := s.tx.WithinTx(ctx, repository.ReadOnly, func(db repository.DBTX) error {
		var err error
		players, err = s.players.List(ctx, db)
		return err
	})
	if err != nil {
		return nil, s.storeErr("list players", err)
	}
	return players, nil
}

// GetByID returns the player or a NotFound error.
func (s *PlayerService) GetByID(ctx context.Context, id int64) (*domain.Player, error) {
	var player *domain.Player
	err := s.tx.WithinTx(ctx, repository.ReadOnly, func(db repository.DBTX) error {
		var err error
		player, err = s.mustFind(ctx, db, id)
		return err
	})
	if err != nil {
		return nil, s.storeErr("get player", err)
	}
	return player, nil
}

// Create validates the request, enforces case-insensitive name uniqueness and
// inserts the player together with its player.created event.
func (s *PlayerService) Create(ctx context.Context, req *domain.PlayerRequest) (*domain.Player, error) {
	now := s.clock.Now()
	if fields := domain.ValidatePlayerRequest(req, now); len(fields) > 0 {
		return nil, domain.ErrValidationFields(fields)
	}

	player := domain.ToEntity(req)
	err := s.tx.WithinTx(ctx, repository.ReadWrite, func(db repository.DBTX) error {
		existing, err := s.players.FindByNameIgnoreCase(ctx, db, player.Name)
		if err != nil {
			return err
		}
		if existing != nil {
			return duplicateName(player.Name)
		}
		if err := s.players.Create(ctx, db, player); err != nil {
			return err
		}
		return s.outbox.Insert(ctx, db, domain.NewPlayerEvent(domain.EventPlayerCreated, player, now))
	})
	if err != nil {
		return nil, s.storeErr("create player", err, slog.String("name", player.Name))
	}

	s.logger.Info("player created", "id", player.ID, "name", player.Name)
	return player, nil
}

// Update overwrites the writable fields of an existing player. Keeping the
// player's own name is allowed; taking another player's name is a Conflict.
func (s *PlayerService) Update(ctx context.Context, id int64, req *domain.PlayerRequest) (*domain.Player, error) {
	now := s.clock.Now()
	if fields := domain.ValidatePlayerRequest(req, now); len(fields) > 0 {
		return nil, domain.ErrValidationFields(fields)
	}

	var player *domain.Player
	err := s.tx.WithinTx(ctx, repository.ReadWrite, func(db repository.DBTX) error {
		var err error
		player, err = s.mustFind(ctx, db, id)
		if err != nil {
			return err
		}

		name := strings.TrimSpace(req.Name)
		if !strings.EqualFold(name, player.Name) {
			existing, err := s.players.FindByNameIgnoreCase(ctx, db, name)
			if err != nil {
				return err
			}
			if existing != nil && existing.ID != id {
				return duplicateName(name)
			}
		}

		domain.ApplyUpdate(req, player)
		found, err := s.players.Update(ctx, db, player)
		if err != nil {
			return err
		}
		if !found {
			return playerNotFound(id)
		}
		return s.outbox.Insert(ctx, db, domain.NewPlayerEvent(domain.EventPlayerUpdated, player, now))
	})
	if err != nil {
		return nil, s.storeErr("update player", err, slog.Int64("id", id))
	}

	s.logger.Info("player updated", "id", player.ID)
	return player, nil
}

// Delete hard-deletes the player and records a player.deleted event.
func (s *PlayerService) Delete(ctx context.Context, id int64) error {
	err := s.tx.WithinTx(ctx, repository.ReadWrite, func(db repository.DBTX) error {
		player, err := s.mustFind(ctx, db, id)
		if err != nil {
			return err
		}
		deleted, err := s.players.Delete(ctx, db, id)
		if err != nil {
			return err
		}
		if !deleted {
			return playerNotFound(id)
		}
		return s.outbox.Insert(ctx, db, domain.NewPlayerEvent(domain.EventPlayerDeleted, player, s.clock.Now()))
	})
	if err != nil {
		return s.storeErr("delete player", err, slog.Int64("id", id))
	}

	s.logger.Info("player deleted", "id", id)
	return nil
}

// ListByStatus returns players with exactly the given status.
func (s *PlayerService) ListByStatus(ctx context.Context, status domain.Status) ([]domain.Player, error) {
	if status != domain.StatusActive && status != domain.StatusInactive {
		return nil, domain.ErrValidation(fmt.Sprintf("Invalid status: %s. Must be one of ACTIVE, INACTIVE", status))
	}
	return s.list(ctx, "list players by status", func(db repository.DBTX) ([]domain.Player, error) {
		return s.players.ListByStatus(ctx, db, status)
	})
}

// SearchByName matches a case-insensitive substring. An empty term matches all.
func (s *PlayerService) SearchByName(ctx context.Context, term string) ([]domain.Player, error) {
	return s.list(ctx, "search players", func(db repository.DBTX) ([]domain.Player, error) {
		return s.players.SearchByName(ctx, db, term)
	})
}

// ListByAgeRange returns players whose age lies in [minAge, maxAge].
// minAge > maxAge yields an empty list.
func (s *PlayerService) ListByAgeRange(ctx context.Context, minAge, maxAge int) ([]domain.Player, error) {
	if minAge < 0 || maxAge < 0 {
		return nil, domain.ErrValidation("Age bounds must not be negative")
	}
	now := s.clock.Now()
	if minAge > maxAge || minAge > domain.MaxAgeAt(now) {
		return []domain.Player{}, nil
	}
	start, end := domain.BirthdayBoundsForAges(minAge, maxAge, now)
	return s.list(ctx, "list players by age", func(db repository.DBTX) ([]domain.Player, error) {
		return s.players.ListByBirthdayRange(ctx, db, start, end)
	})
}

// ListByBirthdayRange returns players born within [start, end].
// start after end yields an empty list.
func (s *PlayerService) ListByBirthdayRange(ctx context.Context, start, end domain.Date) ([]domain.Player, error) {
	if start.After(end.Time) {
		return []domain.Player{}, nil
	}
	return s.list(ctx, "list players by birthday", func(db repository.DBTX) ([]domain.Player, error) {
		return s.players.ListByBirthdayRange(ctx, db, start, end)
	})
}

// CountByStatus counts players with exactly the given status.
func (s *PlayerService) CountByStatus(ctx context.Context, status domain.Status) (int64, error) {
	var n int64
	err := s.tx.WithinTx(ctx, repository.ReadOnly, func(db repository.DBTX) error {
		var err error
		n, err = s.players.CountByStatus(ctx, db, status)
		return err
	})
	if err != nil {
		return 0, s.storeErr("count players", err, slog.String("status", string(status)))
	}
	return n, nil
}

func (s *PlayerService) ActiveCount(ctx context.Context) (int64, error) {
	return s.CountByStatus(ctx, domain.StatusActive)
}

func (s *PlayerService) InactiveCount(ctx context.Context) (int64, error) {
	return s.CountByStatus(ctx, domain.StatusInactive)
}

// Counts reads both status counts from a single snapshot.
func (s *PlayerService) Counts(ctx context.Context) (domain.StatusCounts, error) {
	var counts domain.StatusCounts
	err := s.tx.WithinTx(ctx, repository.Snapshot, func(db repository.DBTX) error {
		var err error
		counts, err = s.players.CountStatuses(ctx, db)
		return err
	})
	if err != nil {
		return domain.StatusCounts{}, s.storeErr("count players", err)
	}
	return counts, nil
}

// TotalCount is active plus inactive from one snapshot.
func (s *PlayerService) TotalCount(ctx context.Context) (int64, error) {
	counts, err := s.Counts(ctx)
	if err != nil {
		return 0, err
	}
	return counts.Total(), nil
}

// ImageURL returns a presigned download link for the player's image.
func (s *PlayerService) ImageURL(ctx context.Context, id int64) (*domain.ImageLink, error) {
	if s.images == nil {
		return nil, domain.ErrUnavailable("Image storage is not configured")
	}

	player, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if player.ImageName == nil {
		return nil, &domain.AppError{
			Code:    domain.CodeNotFound,
			Message: fmt.Sprintf("Player with id %d has no image", id),
			Status:  404,
		}
	}

	url, expiresAt, err := s.images.PresignGet(ctx, *player.ImageName)
	if err != nil {
		return nil, s.storeErr("presign image", err, slog.Int64("id", id))
	}
	return &domain.ImageLink{ImageName: *player.ImageName, URL: url, ExpiresAt: expiresAt}, nil
}

func (s *PlayerService) list(ctx context.Context, op string, fn func(db repository.DBTX) ([]domain.Player, error)) ([]domain.Player, error) {
	var players []domain.Player
	err := s.tx.WithinTx(ctx, repository.ReadOnly, func(db repository.DBTX) error {
		var err error
		players, err = fn(db)
		return err
	})
	if err != nil {
		return nil, s.storeErr(op, err)
	}
	return players, nil
}

func (s *PlayerService) mustFind(ctx context.Context, db repository.DBTX, id int64) (*domain.Player, error) {
	player, err := s.players.FindByID(ctx, db, id)
	if err != nil {
		return nil, err
	}
	if player == nil {
		return nil, playerNotFound(id)
	}
	return player, nil
}

// storeErr passes domain errors through, maps the unique-index violation to
// Conflict and turns anything else into a logged Internal error.
func (s *PlayerService) storeErr(op string, err error, attrs ...any) error {
	var appErr *domain.AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	if errors.Is(err, repository.ErrDuplicateName) {
		return domain.ErrConflict("Player with this name already exists")
	}
	s.logger.Error(op+" failed", append(attrs, "error", err)...)
	return domain.ErrInternal(op, err)
}

func playerNotFound(id int64) *domain.AppError {
	return domain.ErrNotFound("Player", strconv.FormatInt(id, 10))
}

func duplicateName(name string) *domain.AppError {
	return domain.ErrConflict(fmt.Sprintf("Player with name '%s' already exists", name))
}
