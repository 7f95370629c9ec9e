package api

import (
	"io"
	"net/http"
	"time"

	"github.com/bytedance/sonic"
	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"

	"lifeboard/domain"
	"lifeboard/view"
)

// Register wires up all API routes on the provided Echo instance.
func Register(e *echo.Echo, boards BoardSource, auth Authenticator, deduper Deduper, logger *log.Logger) {
	e.GET("/api/tasks", getTasks(boards, auth, logger))
	e.GET("/api/board", getBoard(boards, auth))
	e.POST("/api/commands", postCommands(boards, auth, deduper, logger))
	e.GET("/api/stream", streamTasks(boards, auth, logger))
	e.GET("/healthz", healthz(boards))
}

func healthz(boards BoardSource) echo.HandlerFunc {
	return func(c echo.Context) error {
		if err := boards.Ping(c.Request().Context()); err != nil {
			return c.String(http.StatusServiceUnavailable, err.Error())
		}
		return c.NoContent(http.StatusOK)
	}
}

func getTasks(boards BoardSource, auth Authenticator, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) (err error) {
		ctx := c.Request().Context()
		metrics, spanCtx := newTaskRequestMetrics(ctx, logger)
		if spanCtx != nil {
			c.SetRequest(c.Request().WithContext(spanCtx))
			ctx = spanCtx
		}
		defer func() {
			metrics.Log(c.Response().Status, err)
		}()

		authStart := time.Now()
		owner, authErr := auth.UserIDFromAuthHeader(c.Request().Header.Get(echo.HeaderAuthorization))
		metrics.ObserveAuth(time.Since(authStart))
		if authErr != nil {
			metrics.SetErrorStage("auth")
			err = c.String(http.StatusUnauthorized, authErr.Error())
			return err
		}

		var filter domain.Category
		if raw := c.QueryParam("category"); raw != "" {
			parsed, ok := domain.ParseCategory(raw)
			if !ok {
				metrics.SetErrorStage("invalid_category")
				err = c.String(http.StatusBadRequest, "invalid category")
				return err
			}
			filter = parsed
		}

		fetchStart := time.Now()
		board, fetchErr := boards.Board(ctx, owner)
		metrics.ObserveFetch(time.Since(fetchStart))
		if fetchErr != nil {
			metrics.SetErrorStage("storage")
			c.Logger().Error(fetchErr)
			err = c.String(http.StatusInternalServerError, fetchErr.Error())
			return err
		}

		tasks := board.Tasks()
		if filter != "" {
			filtered := make([]domain.Task, 0, len(tasks))
			for _, t := range tasks {
				if t.Category == filter {
					filtered = append(filtered, t)
				}
			}
			tasks = filtered
		}
		metrics.SetTasksReturned(len(tasks))

		encodeStart := time.Now()
		err = c.JSON(http.StatusOK, tasksResponse{Tasks: tasks})
		metrics.ObserveEncode(time.Since(encodeStart))
		if err != nil {
			metrics.SetErrorStage("encode_response")
		}
		return err
	}
}

func getBoard(boards BoardSource, auth Authenticator) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		owner, err := auth.UserIDFromAuthHeader(c.Request().Header.Get(echo.HeaderAuthorization))
		if err != nil {
			return c.String(http.StatusUnauthorized, err.Error())
		}
		board, err := boards.Board(ctx, owner)
		if err != nil {
			c.Logger().Error(err)
			return c.String(http.StatusInternalServerError, err.Error())
		}
		return c.JSON(http.StatusOK, boardResponse{Sections: view.ByCategory(board.All())})
	}
}

func postCommands(boards BoardSource, auth Authenticator, deduper Deduper, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		owner, err := auth.UserIDFromAuthHeader(c.Request().Header.Get(echo.HeaderAuthorization))
		if err != nil {
			return c.String(http.StatusUnauthorized, err.Error())
		}

		lr := io.LimitReader(c.Request().Body, postCommandMaxSize)
		dec := sonic.ConfigStd.NewDecoder(lr)
		dec.DisallowUnknownFields()

		cmds := make([]domain.Command, 0, 4)
		if err := dec.Decode(&cmds); err != nil {
			return c.String(http.StatusBadRequest, "invalid body")
		}

		keys := finalizeCommands(cmds)

		fresh := cmds
		var accepted []string
		if deduper != nil && len(keys) > 0 {
			added, dedupErr := deduper.AddMany(ctx, owner, keys)
			if dedupErr != nil {
				// Idempotency is best effort; a deduper outage must not
				// block the board.
				logger.WithError(dedupErr).Warn("deduper unavailable, applying all commands")
			} else {
				fresh = fresh[:0]
				for i, cmd := range cmds {
					if added[i] {
						fresh = append(fresh, cmd)
						accepted = append(accepted, keys[i])
					}
				}
			}
		}

		board, err := boards.Board(ctx, owner)
		if err != nil {
			// Release the keys recorded above so the client can retry the
			// same batch once the board is reachable again.
			for _, key := range accepted {
				if remErr := deduper.Remove(ctx, owner, key); remErr != nil {
					logger.WithError(remErr).WithField("key", key).Warn("failed to release idempotency key")
				}
			}
			c.Logger().Error(err)
			return c.String(http.StatusInternalServerError, err.Error())
		}
		applyCommands(board, fresh, logger)

		return c.JSON(http.StatusAccepted, postCommandResponse{IdempotencyKeys: keys})
	}
}
