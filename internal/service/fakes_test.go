package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/spscricket/player-service/internal/clock"
	"github.com/spscricket/player-service/internal/domain"
	"github.com/spscricket/player-service/internal/repository"
)

// memStore is an in-memory stand-in for the players and event_outbox tables.
// memTx snapshots it before each unit of work and restores it on error.
type memStore struct {
	clock   clock.Clock
	nextID  int64
	players map[int64]domain.Player
	events  []domain.OutboxDraft
	failOn  string
	txOpts  []pgx.TxOptions
}

var errInjected = errors.New("injected store failure")

func newMemStore(clk clock.Clock) *memStore {
	return &memStore{clock: clk, players: map[int64]domain.Player{}}
}

func (m *memStore) fail(op string) error {
	if m.failOn == op {
		return errInjected
	}
	return nil
}

type memTx struct{ store *memStore }

func (t memTx) WithinTx(_ context.Context, opts pgx.TxOptions, fn func(db repository.DBTX) error) error {
	m := t.store
	m.txOpts = append(m.txOpts, opts)

	savedPlayers := make(map[int64]domain.Player, len(m.players))
	for k, v := range m.players {
		savedPlayers[k] = v
	}
	savedEvents := append([]domain.OutboxDraft(nil), m.events...)
	savedNext := m.nextID

	if err := fn(nil); err != nil {
		m.players, m.events, m.nextID = savedPlayers, savedEvents, savedNext
		return err
	}
	return nil
}

type memPlayers struct{ store *memStore }

func (r memPlayers) sorted(match func(domain.Player) bool) []domain.Player {
	var out []domain.Player
	for _, p := range r.store.players {
		if match(p) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (r memPlayers) List(_ context.Context, _ repository.DBTX) ([]domain.Player, error) {
	if err := r.store.fail("list"); err != nil {
		return nil, err
	}
	return r.sorted(func(domain.Player) bool { return true }), nil
}

func (r memPlayers) FindByID(_ context.Context, _ repository.DBTX, id int64) (*domain.Player, error) {
	p, ok := r.store.players[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (r memPlayers) FindByNameIgnoreCase(_ context.Context, _ repository.DBTX, name string) (*domain.Player, error) {
	for _, p := range r.sorted(func(p domain.Player) bool { return strings.EqualFold(p.Name, name) }) {
		return &p, nil
	}
	return nil, nil
}

func (r memPlayers) Create(_ context.Context, _ repository.DBTX, p *domain.Player) error {
	if err := r.store.fail("create"); err != nil {
		return err
	}
	for _, existing := range r.store.players {
		if strings.EqualFold(existing.Name, p.Name) {
			return repository.ErrDuplicateName
		}
	}
	r.store.nextID++
	now := r.store.clock.Now()
	p.ID, p.CreatedAt, p.UpdatedAt = r.store.nextID, now, now
	r.store.players[p.ID] = *p
	return nil
}

func (r memPlayers) Update(_ context.Context, _ repository.DBTX, p *domain.Player) (bool, error) {
	prev, ok := r.store.players[p.ID]
	if !ok {
		return false, nil
	}
	updated := r.store.clock.Now()
	if floor := prev.UpdatedAt.Add(time.Microsecond); updated.Before(floor) {
		updated = floor
	}
	p.CreatedAt, p.UpdatedAt = prev.CreatedAt, updated
	r.store.players[p.ID] = *p
	return true, nil
}

func (r memPlayers) Delete(_ context.Context, _ repository.DBTX, id int64) (bool, error) {
	if _, ok := r.store.players[id]; !ok {
		return false, nil
	}
	delete(r.store.players, id)
	return true, nil
}

func (r memPlayers) ListByStatus(_ context.Context, _ repository.DBTX, status domain.Status) ([]domain.Player, error) {
	return r.sorted(func(p domain.Player) bool { return p.Status == status }), nil
}

func (r memPlayers) SearchByName(_ context.Context, _ repository.DBTX, term string) ([]domain.Player, error) {
	term = strings.ToLower(term)
	return r.sorted(func(p domain.Player) bool { return strings.Contains(strings.ToLower(p.Name), term) }), nil
}

func (r memPlayers) ListByBirthdayRange(_ context.Context, _ repository.DBTX, start, end domain.Date) ([]domain.Player, error) {
	return r.sorted(func(p domain.Player) bool {
		return !p.Birthday.Before(start.Time) && !p.Birthday.After(end.Time)
	}), nil
}

func (r memPlayers) CountByStatus(_ context.Context, _ repository.DBTX, status domain.Status) (int64, error) {
	if err := r.store.fail("count"); err != nil {
		return 0, err
	}
	return int64(len(r.sorted(func(p domain.Player) bool { return p.Status == status }))), nil
}

func (r memPlayers) CountStatuses(ctx context.Context, db repository.DBTX) (domain.StatusCounts, error) {
	active, err := r.CountByStatus(ctx, db, domain.StatusActive)
	if err != nil {
		return domain.StatusCounts{}, err
	}
	inactive, err := r.CountByStatus(ctx, db, domain.StatusInactive)
	if err != nil {
		return domain.StatusCounts{}, err
	}
	return domain.StatusCounts{Active: active, Inactive: inactive}, nil
}

type memOutbox struct{ store *memStore }

func (o memOutbox) Insert(_ context.Context, _ repository.DBTX, d domain.OutboxDraft) error {
	if err := o.store.fail("outbox"); err != nil {
		return err
	}
	d.SeqID = int64(len(o.store.events) + 1)
	o.store.events = append(o.store.events, d)
	return nil
}

func (o memOutbox) FetchUnpublished(_ context.Context, _ repository.DBTX, limit int) ([]domain.OutboxDraft, error) {
	if limit > len(o.store.events) {
		limit = len(o.store.events)
	}
	return append([]domain.OutboxDraft(nil), o.store.events[:limit]...), nil
}

func (o memOutbox) MarkPublished(_ context.Context, _ repository.DBTX, ids []int64) error {
	drop := map[int64]bool{}
	for _, id := range ids {
		drop[id] = true
	}
	kept := o.store.events[:0]
	for _, e := range o.store.events {
		if !drop[e.SeqID] {
			kept = append(kept, e)
		}
	}
	o.store.events = kept
	return nil
}

type fakeSigner struct {
	keys []string
	err  error
}

func (f *fakeSigner) PresignGet(_ context.Context, key string) (string, time.Time, error) {
	if f.err != nil {
		return "", time.Time{}, f.err
	}
	f.keys = append(f.keys, key)
	return "https://images.example.test/" + key + "?sig=x", testNow.Add(15 * time.Minute), nil
}

func noopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
