package domain

// Category is one of the four fixed life-domains a task belongs to.
type Category string

const (
	CategoryPhysical  Category = "physical"
	CategoryMental    Category = "mental"
	CategorySpiritual Category = "spiritual"
	CategoryChores    Category = "chores"
)

// Categories returns the four categories in board display order.
func Categories() []Category {
	return []Category{CategoryPhysical, CategoryMental, CategorySpiritual, CategoryChores}
}

// ParseCategory maps a raw string onto the closed category set.
func ParseCategory(s string) (Category, bool) {
	switch Category(s) {
	case CategoryPhysical, CategoryMental, CategorySpiritual, CategoryChores:
		return Category(s), true
	}
	return "", false
}

// Valid reports whether c is a member of the closed category set.
func (c Category) Valid() bool {
	_, ok := ParseCategory(string(c))
	return ok
}

// Task represents a single board item.
type Task struct {
	ID        string   `json:"id"`
	Text      string   `json:"text"`
	Completed bool     `json:"completed,omitempty"`
	Category  Category `json:"category"`
}

// Flags carries the transient presentation state attached to a task. It is
// kept outside the Task record so it can never leak into storage.
type Flags struct {
	IsNew      bool `json:"isNew,omitempty"`
	IsDeleting bool `json:"isDeleting,omitempty"`
}

// TaskState pairs a task with its presentation flags for rendering.
type TaskState struct {
	Task
	Flags
}

// DefaultTasks returns the sample board used when nothing has been persisted
// yet, one task per category.
func DefaultTasks() []Task {
	return []Task{
		{ID: newTaskID(), Text: "Morning workout", Category: CategoryPhysical},
		{ID: newTaskID(), Text: "Meditation", Category: CategoryMental},
		{ID: newTaskID(), Text: "Read for 30 minutes", Category: CategorySpiritual},
		{ID: newTaskID(), Text: "Make the bed", Category: CategoryChores},
	}
}
