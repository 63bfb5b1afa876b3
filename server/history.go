package server

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/brightroom/brightroom/store"
)

func (s *Server) listHistory(c echo.Context) error {
	entries, err := s.history.List(c.Request().Context())
	if err != nil {
		return s.jsonError(c, err)
	}
	return c.JSON(http.StatusOK, entries)
}

func (s *Server) appendHistory(c echo.Context) error {
	var e store.HistoryEntry
	if err := c.Bind(&e); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if err := s.history.Append(c.Request().Context(), e); err != nil {
		return s.jsonError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true})
}

func (s *Server) clearHistory(c echo.Context) error {
	if err := s.history.Clear(c.Request().Context()); err != nil {
		return s.jsonError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true})
}
