// Package dnd resolves drag-reorder gestures into (source, target) task id
// pairs. It is geometry only; the board performs the actual reorder against
// its flat global order.
package dnd

// Point is a pointer position in the same coordinate space as the row
// bounds.
type Point struct {
	X, Y float64
}

// Rect is the visible bounding box of one task row.
type Rect struct {
	ID         string
	X, Y, W, H float64
}

// Center returns the geometric center of the rect.
func (r Rect) Center() Point {
	return Point{X: r.X + r.W/2, Y: r.Y + r.H/2}
}

// Resolve picks the drop target for an active drag: the row whose center is
// nearest the pointer, the active row itself excluded. It returns false when
// no other visible row exists.
func Resolve(activeID string, p Point, rows []Rect) (string, bool) {
	best := ""
	bestDist := 0.0
	for _, row := range rows {
		if row.ID == activeID {
			continue
		}
		c := row.Center()
		dx, dy := c.X-p.X, c.Y-p.Y
		d := dx*dx + dy*dy
		if best == "" || d < bestDist {
			best = row.ID
			bestDist = d
		}
	}
	return best, best != ""
}

// Gesture is a completed drag: move source to the slot target occupies.
type Gesture struct {
	SourceID string
	TargetID string
}

// Controller drives the discrete keyboard modality: grab a row, step the
// tentative slot up or down within the visible scope, then drop.
type Controller struct {
	activeID string
	scope    []string
	index    int
}

// Grab starts a keyboard drag of id within the ordered visible scope.
// Returns false when id is not part of the scope.
func (c *Controller) Grab(id string, scope []string) bool {
	for i, v := range scope {
		if v == id {
			c.activeID = id
			c.scope = append([]string(nil), scope...)
			c.index = i
			return true
		}
	}
	return false
}

// Active returns the id being dragged, if any.
func (c *Controller) Active() (string, bool) {
	return c.activeID, c.activeID != ""
}

// MoveUp steps the tentative slot one row up. No-op at the top edge or when
// nothing is grabbed.
func (c *Controller) MoveUp() bool {
	if c.activeID == "" || c.index == 0 {
		return false
	}
	c.index--
	return true
}

// MoveDown steps the tentative slot one row down.
func (c *Controller) MoveDown() bool {
	if c.activeID == "" || c.index >= len(c.scope)-1 {
		return false
	}
	c.index++
	return true
}

// TargetID returns the id occupying the tentative slot.
func (c *Controller) TargetID() (string, bool) {
	if c.activeID == "" {
		return "", false
	}
	return c.scope[c.index], true
}

// Drop completes the gesture. It returns false when nothing was grabbed or
// the row never left its own slot.
func (c *Controller) Drop() (Gesture, bool) {
	defer c.Cancel()
	if c.activeID == "" {
		return Gesture{}, false
	}
	target := c.scope[c.index]
	if target == c.activeID {
		return Gesture{}, false
	}
	return Gesture{SourceID: c.activeID, TargetID: target}, true
}

// Cancel abandons the gesture without emitting anything.
func (c *Controller) Cancel() {
	c.activeID = ""
	c.scope = nil
	c.index = 0
}
