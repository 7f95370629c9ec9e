package api

import (
	"net/http"
	"time"

	"github.com/bytedance/sonic"
	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"
)

const streamInterval = 5 * time.Second

// streamTasks pushes the committed board over server-sent events on a fixed
// tick. EventSource clients cannot set headers, so a token query parameter
// stands in for the Authorization header.
func streamTasks(boards BoardSource, auth Authenticator, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) error {
		header := c.Request().Header.Get(echo.HeaderAuthorization)
		if header == "" {
			if token := c.QueryParam("token"); token != "" {
				header = "Bearer " + token
			}
		}
		owner, err := auth.UserIDFromAuthHeader(header)
		if err != nil {
			return c.String(http.StatusUnauthorized, err.Error())
		}

		c.Response().Header().Set(echo.HeaderContentType, "text/event-stream")
		c.Response().Header().Set(echo.HeaderCacheControl, "no-cache")
		c.Response().Header().Set(echo.HeaderConnection, "keep-alive")
		c.Response().Header().Set("X-Accel-Buffering", "no")
		flusher, ok := c.Response().Writer.(http.Flusher)
		if !ok {
			return c.String(http.StatusInternalServerError, "stream unsupported")
		}

		ctx := c.Request().Context()
		ticker := time.NewTicker(streamInterval)
		defer ticker.Stop()
		for {
			board, err := boards.Board(ctx, owner)
			if err == nil {
				data, encErr := sonic.Marshal(board.Tasks())
				if encErr != nil {
					// Skip the frame; the next tick retries.
					logger.WithError(encErr).Warn("stream frame encode failed")
				} else {
					if _, err := c.Response().Write([]byte("data: ")); err != nil {
						return nil
					}
					if _, err := c.Response().Write(data); err != nil {
						return nil
					}
					if _, err := c.Response().Write([]byte("\n\n")); err != nil {
						return nil
					}
					flusher.Flush()
				}
			}
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
			}
		}
	}
}
