package domain

import "github.com/bytedance/sonic"

// Command types accepted by the board.
const (
	TaskCreate  = "task-create"
	TaskToggle  = "task-toggle"
	TaskDelete  = "task-delete"
	TaskReorder = "task-reorder"
)

// Command represents a write request for the board.
type Command struct {
	// ID carries the idempotency key once the command is accepted.
	ID             string                 `json:"id,omitempty"`
	IdempotencyKey string                 `json:"idempotencyKey"`
	Type           string                 `json:"type"`
	Data           sonic.NoCopyRawMessage `json:"data,omitempty"`
	Timestamp      int64                  `json:"timestamp"`
}

// CreateData is the payload of a task-create command.
type CreateData struct {
	Text     string `json:"text"`
	Category string `json:"category"`
}

// ToggleData is the payload of a task-toggle command.
type ToggleData struct {
	ID string `json:"id"`
}

// DeleteData is the payload of a task-delete command.
type DeleteData struct {
	ID string `json:"id"`
}

// ReorderData is the payload of a task-reorder command.
type ReorderData struct {
	SourceID string `json:"sourceId"`
	TargetID string `json:"targetId"`
}
