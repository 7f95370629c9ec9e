package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"

	"lifeboard/domain"
)

type mockBoards struct {
	board *domain.Board
	err   error
}

func (m *mockBoards) Board(ctx context.Context, owner string) (*domain.Board, error) {
	return m.board, m.err
}

func (m *mockBoards) Ping(ctx context.Context) error { return m.err }

type mockAuth struct{}

func (mockAuth) UserIDFromAuthHeader(string) (string, error) { return "owner", nil }

type failAuth struct{}

func (failAuth) UserIDFromAuthHeader(string) (string, error) {
	return "", errors.New("bad token")
}

func testBoard(t *testing.T) *domain.Board {
	t.Helper()
	b := domain.NewBoard(domain.DefaultTasks(), nil)
	b.FlagDelay = 10 * time.Millisecond
	return b
}

func testLogger() *log.Logger {
	logger, _ := test.NewNullLogger()
	return logger
}

func TestGetTasks(t *testing.T) {
	e := echo.New()
	boards := &mockBoards{board: testBoard(t)}
	req := httptest.NewRequest(http.MethodGet, "/api/tasks", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer token")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := getTasks(boards, mockAuth{}, testLogger())(c); err != nil {
		t.Fatalf("handler: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var resp tasksResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Tasks) != 4 {
		t.Fatalf("expected 4 tasks, got %d", len(resp.Tasks))
	}
}

func TestGetTasksUnauthorized(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/tasks", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := getTasks(&mockBoards{board: testBoard(t)}, failAuth{}, testLogger())(c); err != nil {
		t.Fatalf("handler: %v", err)
	}
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestGetTasksCategoryFilter(t *testing.T) {
	e := echo.New()
	board := testBoard(t)
	board.Create("Stretch", domain.CategoryPhysical)
	boards := &mockBoards{board: board}

	req := httptest.NewRequest(http.MethodGet, "/api/tasks?category=physical", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := getTasks(boards, mockAuth{}, testLogger())(c); err != nil {
		t.Fatalf("handler: %v", err)
	}
	var resp tasksResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Tasks) != 2 {
		t.Fatalf("expected 2 physical tasks, got %d", len(resp.Tasks))
	}
	for _, task := range resp.Tasks {
		if task.Category != domain.CategoryPhysical {
			t.Fatalf("unexpected category %s", task.Category)
		}
	}
}

func TestGetTasksInvalidCategory(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/tasks?category=work", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := getTasks(&mockBoards{board: testBoard(t)}, mockAuth{}, testLogger())(c); err != nil {
		t.Fatalf("handler: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestGetBoardSections(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/board", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := getBoard(&mockBoards{board: testBoard(t)}, mockAuth{})(c); err != nil {
		t.Fatalf("handler: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var resp boardResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Sections) != 4 {
		t.Fatalf("expected 4 sections, got %d", len(resp.Sections))
	}
	for _, s := range resp.Sections {
		if len(s.Tasks) == 0 {
			t.Fatalf("empty section %s rendered", s.Category)
		}
	}
}

func TestPostCommandsAppliesBatch(t *testing.T) {
	e := echo.New()
	board := testBoard(t)
	boards := &mockBoards{board: board}
	existing := board.Tasks()

	body := `[
		{"type":"task-create","data":{"text":"Stretch","category":"physical"}},
		{"type":"task-toggle","data":{"id":"` + existing[1].ID + `"}},
		{"type":"task-reorder","data":{"sourceId":"` + existing[0].ID + `","targetId":"` + existing[3].ID + `"}},
		{"type":"task-delete","data":{"id":"` + existing[2].ID + `"}}
	]`
	req := httptest.NewRequest(http.MethodPost, "/api/commands", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := postCommands(boards, mockAuth{}, nil, testLogger())(c); err != nil {
		t.Fatalf("handler: %v", err)
	}
	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want 202", rec.Code)
	}
	var resp postCommandResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.IdempotencyKeys) != 4 {
		t.Fatalf("expected 4 keys, got %d", len(resp.IdempotencyKeys))
	}

	tasks := board.Tasks()
	if len(tasks) != 4 { // 4 defaults + 1 created - 1 deleted
		t.Fatalf("expected 4 committed tasks, got %d", len(tasks))
	}
	var sawStretch, sawToggled bool
	for _, task := range tasks {
		if task.Text == "Stretch" {
			sawStretch = true
		}
		if task.ID == existing[1].ID && task.Completed {
			sawToggled = true
		}
		if task.ID == existing[2].ID {
			t.Fatal("deleted task still committed")
		}
	}
	if !sawStretch || !sawToggled {
		t.Fatalf("commands not applied: stretch=%v toggled=%v", sawStretch, sawToggled)
	}
}

func TestPostCommandsDeduplicates(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	deduper := NewRedisDeduper(client, time.Hour)

	e := echo.New()
	board := testBoard(t)
	boards := &mockBoards{board: board}

	body := `[{"idempotencyKey":"once","type":"task-create","data":{"text":"Stretch","category":"physical"}}]`
	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/commands", strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		if err := postCommands(boards, mockAuth{}, deduper, testLogger())(c); err != nil {
			t.Fatalf("handler round %d: %v", i, err)
		}
		if rec.Code != http.StatusAccepted {
			t.Fatalf("round %d status = %d, want 202", i, rec.Code)
		}
	}

	count := 0
	for _, task := range board.Tasks() {
		if task.Text == "Stretch" {
			count++
		}
	}
	if count != 1 {
		t.Fatalf("expected exactly one Stretch task, got %d", count)
	}
}

func TestPostCommandsReleasesKeysWhenBoardUnavailable(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	deduper := NewRedisDeduper(client, time.Hour)

	e := echo.New()
	board := testBoard(t)
	boards := &mockBoards{board: board, err: errors.New("storage down")}

	body := `[{"idempotencyKey":"retry-me","type":"task-create","data":{"text":"Stretch","category":"physical"}}]`
	req := httptest.NewRequest(http.MethodPost, "/api/commands", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if err := postCommands(boards, mockAuth{}, deduper, testLogger())(c); err != nil {
		t.Fatalf("handler: %v", err)
	}
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}

	// The failed batch released its keys, so the retry is not treated as a
	// duplicate.
	boards.err = nil
	req = httptest.NewRequest(http.MethodPost, "/api/commands", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec = httptest.NewRecorder()
	c = e.NewContext(req, rec)
	if err := postCommands(boards, mockAuth{}, deduper, testLogger())(c); err != nil {
		t.Fatalf("retry handler: %v", err)
	}
	if rec.Code != http.StatusAccepted {
		t.Fatalf("retry status = %d, want 202", rec.Code)
	}

	count := 0
	for _, task := range board.Tasks() {
		if task.Text == "Stretch" {
			count++
		}
	}
	if count != 1 {
		t.Fatalf("expected the retried create to apply once, got %d", count)
	}
}

func TestPostCommandsInvalidBody(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/api/commands", strings.NewReader("{not json"))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := postCommands(&mockBoards{board: testBoard(t)}, mockAuth{}, nil, testLogger())(c); err != nil {
		t.Fatalf("handler: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestHealthz(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := healthz(&mockBoards{board: testBoard(t)})(c); err != nil {
		t.Fatalf("handler: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	rec = httptest.NewRecorder()
	c = e.NewContext(req, rec)
	if err := healthz(&mockBoards{err: errors.New("down")})(c); err != nil {
		t.Fatalf("handler: %v", err)
	}
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
}
