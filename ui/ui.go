// Package ui is the terminal client. It renders the board as category
// sections and drives every mutation through the shared domain board, with
// a SQLite sink for persistence.
package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"lifeboard/config"
	"lifeboard/domain"
	"lifeboard/dnd"
	"lifeboard/storage"
	"lifeboard/view"
)

const (
	defaultOwner = "local"
	saveTimeout  = 5 * time.Second

	// listTop is the absolute line of the first section header in View
	// output. Row geometry for mouse drags is anchored on it.
	listTop = 2
	rowW    = 80
)

type mode int

const (
	modeList mode = iota
	modeAdd
)

// refreshMsg repaints after a presentation timer has fired.
type refreshMsg struct{}

// row is one visible task line with its absolute position in the view.
type row struct {
	state domain.TaskState
	line  int
}

type Model struct {
	board      *domain.Board
	cfg        config.Config
	cursor     int
	mode       mode
	input      textinput.Model
	addCat     domain.Category
	status     string
	confirmDel bool
	pendingDel *domain.TaskState
	drag       dnd.Controller
	mouseID    string
	mouse      dnd.Point
}

// Run loads the board from store, falling back to the default task set, and
// blocks until the program exits.
func Run(store *storage.SQLite, cfg config.Config) error {
	ctx := context.Background()
	tasks, err := store.Load(ctx, defaultOwner)
	if errors.Is(err, storage.ErrNotFound) {
		tasks = domain.DefaultTasks()
	} else if err != nil {
		return err
	}

	board := domain.NewBoard(tasks, func(snapshot []domain.Task) {
		sctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
		defer cancel()
		// Storage failures never interrupt the session.
		_ = store.Save(sctx, defaultOwner, snapshot)
	})

	ti := textinput.New()
	ti.Placeholder = "Task text"
	ti.CharLimit = 256
	ti.Width = 40

	m := Model{
		board:  board,
		cfg:    cfg,
		input:  ti,
		addCat: domain.Categories()[0],
		status: fmt.Sprintf("'%s' add, '%s' toggle, '%s' delete, '%s' move, '%s' quit",
			cfg.Keys.Add, cfg.Keys.Toggle, cfg.Keys.Delete, cfg.Keys.Grab, cfg.Keys.Quit),
	}

	program := tea.NewProgram(m, tea.WithMouseCellMotion())
	_, err = program.Run()
	return err
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.confirmDel {
			return m.updateDeleteConfirm(msg.String())
		}
		if _, dragging := m.drag.Active(); dragging {
			return m.updateDragMode(msg.String())
		}
		if m.mode == modeAdd {
			return m.updateAddMode(msg.String(), msg)
		}
		return m.updateListMode(msg.String())
	case tea.MouseMsg:
		return m.updateMouse(msg)
	case tea.WindowSizeMsg:
		m.input.Width = msg.Width - 10
	case refreshMsg:
		m.cursor = clampCursor(m.cursor, len(m.rows()))
	}
	return m, nil
}

func (m Model) updateListMode(key string) (tea.Model, tea.Cmd) {
	rows := m.rows()
	switch key {
	case "ctrl+c", m.cfg.Keys.Quit:
		return m, tea.Quit
	case m.cfg.Keys.Down, "down":
		if len(rows) == 0 {
			return m, nil
		}
		m.cursor = clampCursor(m.cursor+1, len(rows))
	case m.cfg.Keys.Up, "up":
		if m.cursor > 0 {
			m.cursor = clampCursor(m.cursor-1, len(rows))
		}
	case m.cfg.Keys.Add:
		m.mode = modeAdd
		m.input.Focus()
		m.status = fmt.Sprintf("Add to %s: type text, tab to change category, enter to save", m.addCat)
	case m.cfg.Keys.Toggle:
		r, ok := m.currentRow(rows)
		if !ok {
			return m, nil
		}
		if m.board.ToggleComplete(r.state.ID) {
			m.status = "Toggled"
		}
	case m.cfg.Keys.Delete:
		r, ok := m.currentRow(rows)
		if !ok {
			return m, nil
		}
		t := r.state
		m.confirmDel = true
		m.pendingDel = &t
		m.status = fmt.Sprintf("Delete %q? y/n", t.Text)
	case m.cfg.Keys.Grab:
		r, ok := m.currentRow(rows)
		if !ok {
			return m, nil
		}
		if m.drag.Grab(r.state.ID, rowIDs(rows)) {
			m.status = fmt.Sprintf("Moving %q: %s/%s to pick a slot, %s to drop, %s to cancel",
				r.state.Text, m.cfg.Keys.Up, m.cfg.Keys.Down, m.cfg.Keys.Confirm, m.cfg.Keys.Cancel)
		}
	}
	return m, nil
}

func (m Model) updateAddMode(key string, msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch key {
	case m.cfg.Keys.Cancel:
		m.mode = modeList
		m.input.SetValue("")
		m.input.Blur()
		m.status = "Cancelled"
		return m, nil
	case "tab":
		m.addCat = nextCategory(m.addCat)
		m.status = fmt.Sprintf("Add to %s: type text, tab to change category, enter to save", m.addCat)
		return m, nil
	case m.cfg.Keys.Confirm:
		text := strings.TrimSpace(m.input.Value())
		if text == "" {
			m.status = "Text cannot be empty"
			return m, nil
		}
		t, ok := m.board.Create(text, m.addCat)
		m.input.SetValue("")
		m.input.Blur()
		m.mode = modeList
		if !ok {
			m.status = "Nothing added"
			return m, nil
		}
		m.status = fmt.Sprintf("Added to %s", t.Category)
		m.moveCursorTo(t.ID)
		return m, m.refreshAfterFlag()
	default:
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
}

func (m Model) updateDeleteConfirm(key string) (tea.Model, tea.Cmd) {
	switch key {
	case "n", "N", m.cfg.Keys.Cancel:
		m.status = "Delete cancelled"
		m.confirmDel = false
		m.pendingDel = nil
		return m, nil
	case "y", "Y", m.cfg.Keys.Confirm:
		m.confirmDel = false
		if m.pendingDel == nil {
			return m, nil
		}
		id := m.pendingDel.ID
		m.pendingDel = nil
		if m.board.SoftDelete(id) {
			m.status = "Deleted"
		}
		m.cursor = clampCursor(m.cursor, len(m.rows()))
		return m, m.refreshAfterFlag()
	default:
		return m, nil
	}
}

func (m Model) updateDragMode(key string) (tea.Model, tea.Cmd) {
	switch key {
	case m.cfg.Keys.Cancel:
		m.drag.Cancel()
		m.status = "Move cancelled"
		return m, nil
	case m.cfg.Keys.Up, "up":
		m.drag.MoveUp()
		m.followDragTarget()
		return m, nil
	case m.cfg.Keys.Down, "down":
		m.drag.MoveDown()
		m.followDragTarget()
		return m, nil
	case m.cfg.Keys.Confirm, m.cfg.Keys.Grab:
		gesture, ok := m.drag.Drop()
		if !ok {
			m.status = "Move cancelled"
			return m, nil
		}
		if m.board.Reorder(gesture.SourceID, gesture.TargetID) {
			m.status = "Moved"
			m.moveCursorTo(gesture.SourceID)
		}
		return m, nil
	default:
		return m, nil
	}
}

func (m Model) updateMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	switch msg.Action {
	case tea.MouseActionPress:
		if msg.Button != tea.MouseButtonLeft {
			return m, nil
		}
		if r, ok := rowAt(m.rows(), msg.Y); ok {
			m.mouseID = r.state.ID
			m.mouse = dnd.Point{X: float64(msg.X), Y: float64(msg.Y)}
			m.moveCursorTo(m.mouseID)
		}
	case tea.MouseActionMotion:
		if m.mouseID != "" {
			m.mouse = dnd.Point{X: float64(msg.X), Y: float64(msg.Y)}
		}
	case tea.MouseActionRelease:
		if m.mouseID == "" {
			return m, nil
		}
		active := m.mouseID
		m.mouseID = ""
		m.mouse = dnd.Point{X: float64(msg.X), Y: float64(msg.Y)}
		target, ok := dnd.Resolve(active, m.mouse, rowRects(m.rows()))
		if !ok || target == active {
			return m, nil
		}
		if m.board.Reorder(active, target) {
			m.status = "Moved"
			m.moveCursorTo(active)
		}
	}
	return m, nil
}

func (m Model) View() string {
	var b strings.Builder

	b.WriteString("Life Board")
	b.WriteString("\n\n")

	rows := m.rows()
	if len(rows) == 0 {
		b.WriteString(fmt.Sprintf("No tasks. Press '%s' to add one.", m.cfg.Keys.Add))
		b.WriteString("\n")
	} else {
		b.WriteString(m.renderSections())
	}

	b.WriteString("\n---\n")
	if m.mode == modeAdd {
		b.WriteString(fmt.Sprintf("New task (%s):\n", m.addCat))
		b.WriteString(m.input.View())
		b.WriteString("\n")
	}
	b.WriteString(m.status)
	b.WriteString("\n")
	return b.String()
}

func (m Model) rows() []row {
	return rowsFrom(view.ByCategory(m.board.All()))
}

// rowsFrom flattens the section projection into visible task lines,
// assigning the absolute line each occupies in View output. The layout here
// must match renderSections exactly.
func rowsFrom(sections []view.Section) []row {
	line := listTop
	var out []row
	for _, s := range sections {
		line++ // section header
		for _, t := range s.Tasks {
			out = append(out, row{state: t, line: line})
			line++
		}
		line++ // blank after section
	}
	return out
}

func (m Model) renderSections() string {
	// One snapshot for both layout and text, so a timer firing mid-render
	// cannot desync them.
	sections := view.ByCategory(m.board.All())
	rows := rowsFrom(sections)
	dragTarget, _ := m.drag.TargetID()
	dragActive, dragging := m.drag.Active()

	var b strings.Builder
	i := 0
	for _, s := range sections {
		b.WriteString(strings.ToUpper(string(s.Category)))
		b.WriteString("\n")
		for range s.Tasks {
			r := rows[i]
			b.WriteString(m.renderRow(r, i, dragging, dragActive, dragTarget))
			b.WriteString("\n")
			i++
		}
		b.WriteString("\n")
	}
	return b.String()
}

func (m Model) renderRow(r row, i int, dragging bool, activeID, targetID string) string {
	cursor := " "
	if m.cursor == i && m.mode == modeList && !dragging {
		cursor = ">"
	}
	if dragging && r.state.ID == targetID {
		cursor = "^"
	}

	checkbox := "[ ]"
	if r.state.Completed {
		checkbox = "[x]"
	}

	text := r.state.Text
	switch {
	case r.state.IsDeleting:
		text += " (removing)"
	case r.state.IsNew:
		text += " (new)"
	}
	if dragging && r.state.ID == activeID {
		text += " <- moving"
	}
	return fmt.Sprintf("%s %s %s", cursor, checkbox, text)
}

func (m *Model) moveCursorTo(id string) {
	rows := m.rows()
	for i, r := range rows {
		if r.state.ID == id {
			m.cursor = i
			return
		}
	}
	m.cursor = clampCursor(m.cursor, len(rows))
}

func (m *Model) followDragTarget() {
	target, ok := m.drag.TargetID()
	if !ok {
		return
	}
	for i, r := range m.rows() {
		if r.state.ID == target {
			m.cursor = i
			return
		}
	}
}

// refreshAfterFlag schedules a repaint just after the presentation timers
// fire, so (new) markers and removed rows leave the screen on their own.
func (m Model) refreshAfterFlag() tea.Cmd {
	delay := m.board.FlagDelay + 50*time.Millisecond
	return tea.Tick(delay, func(time.Time) tea.Msg { return refreshMsg{} })
}

func (m Model) currentRow(rows []row) (row, bool) {
	if len(rows) == 0 {
		return row{}, false
	}
	r := rows[clampCursor(m.cursor, len(rows))]
	if r.state.IsDeleting {
		return row{}, false
	}
	return r, true
}

func rowIDs(rows []row) []string {
	ids := make([]string, len(rows))
	for i, r := range rows {
		ids[i] = r.state.ID
	}
	return ids
}

func rowRects(rows []row) []dnd.Rect {
	rects := make([]dnd.Rect, len(rows))
	for i, r := range rows {
		rects[i] = dnd.Rect{ID: r.state.ID, X: 0, Y: float64(r.line), W: rowW, H: 1}
	}
	return rects
}

func rowAt(rows []row, y int) (row, bool) {
	for _, r := range rows {
		if r.line == y {
			return r, true
		}
	}
	return row{}, false
}

func nextCategory(c domain.Category) domain.Category {
	cats := domain.Categories()
	for i, v := range cats {
		if v == c {
			return cats[(i+1)%len(cats)]
		}
	}
	return cats[0]
}

func clampCursor(cur, n int) int {
	if n <= 0 {
		return 0
	}
	if cur < 0 {
		return 0
	}
	if cur >= n {
		return n - 1
	}
	return cur
}
