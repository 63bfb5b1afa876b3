package server

import (
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// usernameKey is the echo context key the session middleware stores the
// authenticated username under.
const usernameKey = "username"

// requireSession validates the session token header and stores the resolved
// username in the request context.  Failures map to 401 with the historical
// error messages the client matches on.
func (s *Server) requireSession(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		token := c.Request().Header.Get(SessionHeader)
		username, err := s.auth.Validate(c.Request().Context(), token)
		if err != nil {
			return s.jsonError(c, err)
		}
		c.Set(usernameKey, username)
		return next(c)
	}
}

// requestLogger logs every request with a generated request id.
func (s *Server) requestLogger() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			id := uuid.NewString()
			c.Response().Header().Set(echo.HeaderXRequestID, id)

			if err := next(c); err != nil {
				c.Error(err)
			}

			req := c.Request()
			s.log.InfoContext(req.Context(), "http request",
				"request_id", id,
				"method", req.Method,
				"path", req.URL.Path,
				"status", c.Response().Status,
				"duration_ms", time.Since(start).Milliseconds(),
				"bytes_out", c.Response().Size,
			)
			return nil
		}
	}
}
