package api

import (
	"context"
	"errors"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"lifeboard/domain"
	"lifeboard/storage"
)

const defaultSaveTimeout = 5 * time.Second

// Registry owns the live boards, one per authenticated owner. A board is
// hydrated from storage on first touch; an absent or unreadable snapshot
// falls back to the default task set without surfacing anything.
type Registry struct {
	store  storage.Store
	logger *log.Logger

	mu     sync.Mutex
	boards map[string]*domain.Board

	// SaveTimeout bounds each persist write. FlagDelay is forwarded to new
	// boards; tests shorten both.
	SaveTimeout time.Duration
	FlagDelay   time.Duration
}

// NewRegistry creates a registry persisting through store.
func NewRegistry(store storage.Store, logger *log.Logger) *Registry {
	if store == nil {
		panic("api.NewRegistry: store is nil")
	}
	if logger == nil {
		panic("api.NewRegistry: logger is nil")
	}
	return &Registry{
		store:       store,
		logger:      logger,
		boards:      make(map[string]*domain.Board),
		SaveTimeout: defaultSaveTimeout,
		FlagDelay:   domain.DefaultFlagDelay,
	}
}

// Board returns the owner's board, loading it on first access.
func (r *Registry) Board(ctx context.Context, owner string) (*domain.Board, error) {
	r.mu.Lock()
	if b, ok := r.boards[owner]; ok {
		r.mu.Unlock()
		return b, nil
	}
	r.mu.Unlock()

	tasks, err := r.store.Load(ctx, owner)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			return nil, err
		}
		tasks = domain.DefaultTasks()
	}

	b := domain.NewBoard(tasks, r.persistFor(owner))
	b.FlagDelay = r.FlagDelay

	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.boards[owner]; ok {
		// Another request hydrated the same owner first.
		return existing, nil
	}
	r.boards[owner] = b
	return b, nil
}

// persistFor builds the board's persist sink. Writes are fire-and-forget:
// a storage failure is logged and the board carries on.
func (r *Registry) persistFor(owner string) domain.PersistFunc {
	return func(tasks []domain.Task) {
		ctx, cancel := context.WithTimeout(context.Background(), r.SaveTimeout)
		defer cancel()
		if err := r.store.Save(ctx, owner, tasks); err != nil {
			r.logger.WithError(err).WithField("owner", owner).Error("board save failed")
		}
	}
}

// Ping reports storage reachability for health checks.
func (r *Registry) Ping(ctx context.Context) error {
	return r.store.Ping(ctx)
}
