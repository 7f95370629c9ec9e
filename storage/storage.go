package storage

import (
	"context"
	"errors"

	"github.com/bytedance/sonic"

	"lifeboard/domain"
)

// ErrNotFound signals an absent or unreadable board. Callers substitute the
// default task set; the condition is never surfaced further.
var ErrNotFound = errors.New("board not found")

// Store persists the committed task sequence of a board under one fixed key
// per owner.
type Store interface {
	// Load returns the stored sequence, or ErrNotFound when the key is
	// absent or its value does not parse.
	Load(ctx context.Context, owner string) ([]domain.Task, error)
	// Save overwrites the stored sequence. The caller has already filtered
	// soft-deleted tasks out.
	Save(ctx context.Context, owner string, tasks []domain.Task) error
	// Ping reports whether the backing store is reachable.
	Ping(ctx context.Context) error
}

func boardKey(owner string) string {
	return "board:" + owner
}

func encodeTasks(tasks []domain.Task) ([]byte, error) {
	if tasks == nil {
		tasks = []domain.Task{}
	}
	return sonic.Marshal(tasks)
}

// decodeTasks turns a stored payload back into tasks. Any parse failure maps
// to ErrNotFound so a corrupt value degrades to the default board.
func decodeTasks(data []byte) ([]domain.Task, error) {
	var tasks []domain.Task
	if err := sonic.Unmarshal(data, &tasks); err != nil {
		return nil, ErrNotFound
	}
	return tasks, nil
}
