package api

import (
	"lifeboard/domain"
	"lifeboard/view"
)

const postCommandMaxSize = 64 * 1024 // 64 KiB

// GET /api/tasks response body.
type tasksResponse struct {
	Tasks []domain.Task `json:"tasks"`
}

// GET /api/board response body.
type boardResponse struct {
	Sections []view.Section `json:"sections"`
}

// POST /api/commands response body.
type postCommandResponse struct {
	IdempotencyKeys []string `json:"idempotencyKeys,omitempty"`
	Error           string   `json:"error,omitempty"`
}
