package api

import (
	"context"

	"lifeboard/domain"
)

// BoardSource hands out the live board for an owner, hydrating from storage
// on first touch.
type BoardSource interface {
	Board(ctx context.Context, owner string) (*domain.Board, error)
	Ping(ctx context.Context) error
}

// Authenticator is implemented by types able to extract board owners from
// Authorization headers.
type Authenticator interface {
	UserIDFromAuthHeader(string) (string, error)
}

// Deduper prevents reprocessing of duplicate commands.
type Deduper interface {
	// AddMany records a batch of keys, reporting per key whether it was new.
	AddMany(ctx context.Context, owner string, keys []string) ([]bool, error)
	// Remove releases a recorded key so the client may retry the command
	// after a downstream failure.
	Remove(ctx context.Context, owner, key string) error
}
