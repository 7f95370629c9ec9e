package domain

import (
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultFlagDelay is how long a task keeps its isNew flag and how long a
// soft-deleted task lingers in memory before removal.
const DefaultFlagDelay = 300 * time.Millisecond

// PersistFunc receives the committed snapshot after every mutation that
// changes it. It runs under the board lock so snapshots reach storage in
// mutation order; implementations must not call back into the board.
type PersistFunc func(tasks []Task)

// Board is the single source of truth for one owner's ordered task list.
// Tasks live in a flat global sequence regardless of category; category
// grouping is derived at render time. Presentation flags are held in a
// side map and never reach the persist sink.
type Board struct {
	mu       sync.Mutex
	tasks    []Task
	presence map[string]Flags
	persist  PersistFunc

	// FlagDelay controls the isNew-clear and soft-delete removal timers.
	// Set before first use; tests shorten it.
	FlagDelay time.Duration
}

// NewBoard creates a board seeded with tasks. persist may be nil.
func NewBoard(tasks []Task, persist PersistFunc) *Board {
	b := &Board{
		tasks:     make([]Task, len(tasks)),
		presence:  make(map[string]Flags),
		persist:   persist,
		FlagDelay: DefaultFlagDelay,
	}
	copy(b.tasks, tasks)
	return b
}

func newTaskID() string { return uuid.NewString() }

// Create appends a task with fresh id and unset completion. Empty text after
// trimming, or a category outside the closed set, is a silent no-op.
func (b *Board) Create(text string, category Category) (Task, bool) {
	text = strings.TrimSpace(text)
	if text == "" || !category.Valid() {
		return Task{}, false
	}

	t := Task{ID: newTaskID(), Text: text, Category: category}

	b.mu.Lock()
	b.tasks = append(b.tasks, t)
	b.presence[t.ID] = Flags{IsNew: true}
	b.notifyLocked()
	delay := b.FlagDelay
	b.mu.Unlock()

	time.AfterFunc(delay, func() { b.clearNew(t.ID) })
	return t, true
}

// ToggleComplete flips the completion state of the task with the given id.
// Unknown ids are ignored.
func (b *Board) ToggleComplete(id string) bool {
	b.mu.Lock()
	i := b.indexLocked(id)
	if i < 0 {
		b.mu.Unlock()
		return false
	}
	b.tasks[i].Completed = !b.tasks[i].Completed
	b.notifyLocked()
	b.mu.Unlock()
	return true
}

// SoftDelete marks the task as deleting. It disappears from the committed
// view immediately and from memory once the removal timer fires. Unknown and
// already-deleting ids are ignored.
func (b *Board) SoftDelete(id string) bool {
	b.mu.Lock()
	i := b.indexLocked(id)
	if i < 0 {
		b.mu.Unlock()
		return false
	}
	f := b.presence[id]
	if f.IsDeleting {
		b.mu.Unlock()
		return false
	}
	f.IsDeleting = true
	b.presence[id] = f
	b.notifyLocked()
	delay := b.FlagDelay
	b.mu.Unlock()

	time.AfterFunc(delay, func() { b.remove(id) })
	return true
}

// Reorder moves the source task into the slot the target task currently
// occupies, preserving all other relative order. The sequence is the flat
// global one, so a drag inside one category section may still move the task
// relative to tasks in other categories. No-op when either id is missing or
// the ids are equal.
func (b *Board) Reorder(sourceID, targetID string) bool {
	if sourceID == targetID {
		return false
	}

	b.mu.Lock()
	src := b.indexLocked(sourceID)
	dst := b.indexLocked(targetID)
	if src < 0 || dst < 0 {
		b.mu.Unlock()
		return false
	}
	moved := b.tasks[src]
	rest := append(b.tasks[:src:src], b.tasks[src+1:]...)
	b.tasks = append(rest[:dst:dst], append([]Task{moved}, rest[dst:]...)...)
	b.notifyLocked()
	b.mu.Unlock()
	return true
}

// Tasks returns the committed snapshot: every task not flagged deleting, in
// flat order. This is exactly what persistence sees.
func (b *Board) Tasks() []Task {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.committedLocked()
}

// All returns the full in-memory sequence with presentation flags, deleting
// tasks included, for rendering exit animations.
func (b *Board) All() []TaskState {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]TaskState, len(b.tasks))
	for i, t := range b.tasks {
		out[i] = TaskState{Task: t, Flags: b.presence[t.ID]}
	}
	return out
}

// Len reports the number of tasks still in memory, deleting ones included.
func (b *Board) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.tasks)
}

// FindByText returns the first task whose text matches exactly.
func (b *Board) FindByText(text string) (Task, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, t := range b.tasks {
		if t.Text == text {
			return t, true
		}
	}
	return Task{}, false
}

func (b *Board) committedLocked() []Task {
	out := make([]Task, 0, len(b.tasks))
	for _, t := range b.tasks {
		if b.presence[t.ID].IsDeleting {
			continue
		}
		out = append(out, t)
	}
	return out
}

func (b *Board) indexLocked(id string) int {
	for i := range b.tasks {
		if b.tasks[i].ID == id {
			return i
		}
	}
	return -1
}

// clearNew drops the isNew flag. Safe against tasks that disappeared before
// the timer fired.
func (b *Board) clearNew(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	f, ok := b.presence[id]
	if !ok || !f.IsNew {
		return
	}
	f.IsNew = false
	if f == (Flags{}) {
		delete(b.presence, id)
		return
	}
	b.presence[id] = f
}

// remove drops a soft-deleted task from memory. The committed view already
// excluded it, so no persist is triggered here.
func (b *Board) remove(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	i := b.indexLocked(id)
	if i < 0 || !b.presence[id].IsDeleting {
		return
	}
	b.tasks = append(b.tasks[:i], b.tasks[i+1:]...)
	delete(b.presence, id)
}

// notifyLocked delivers the committed snapshot to the persist sink while
// still holding mu. A slow sink therefore delays the next mutation instead
// of letting its snapshot overtake a later one.
func (b *Board) notifyLocked() {
	if b.persist != nil {
		b.persist(b.committedLocked())
	}
}
