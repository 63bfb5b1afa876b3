package server

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	apperrors "github.com/brightroom/brightroom/errors"
)

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type tokenResponse struct {
	CsrfToken string `json:"csrfToken"`
}

func (s *Server) login(c echo.Context) error {
	var req credentialsRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}

	token, err := s.auth.Login(c.Request().Context(), req.Username, req.Password)
	if err != nil {
		return s.jsonError(c, err)
	}

	s.log.InfoContext(c.Request().Context(), "user logged in", "username", req.Username)
	return c.JSON(http.StatusOK, tokenResponse{CsrfToken: token})
}

func (s *Server) register(c echo.Context) error {
	var req credentialsRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}

	token, err := s.auth.Register(c.Request().Context(), req.Username, req.Password)
	if err != nil {
		return s.jsonError(c, err)
	}

	s.log.InfoContext(c.Request().Context(), "user registered", "username", req.Username)
	return c.JSON(http.StatusOK, tokenResponse{CsrfToken: token})
}

func (s *Server) updateProfile(c echo.Context) error {
	var req credentialsRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}

	token := c.Request().Header.Get(SessionHeader)
	if err := s.auth.Update(c.Request().Context(), token, req.Username, req.Password); err != nil {
		return s.jsonError(c, err)
	}

	return c.JSON(http.StatusOK, echo.Map{"success": true})
}

// jsonError maps the error taxonomy onto HTTP statuses and the error
// messages the client matches on.
func (s *Server) jsonError(c echo.Context, err error) error {
	status := http.StatusInternalServerError
	msg := "internal server error"

	switch {
	case errors.Is(err, apperrors.ErrTokenMissing):
		status, msg = http.StatusUnauthorized, "Unauthorized: No CSRF token"
	case errors.Is(err, apperrors.ErrTokenInvalid):
		status, msg = http.StatusUnauthorized, "Unauthorized: Invalid CSRF token"
	case errors.Is(err, apperrors.ErrBadCredentials):
		status, msg = http.StatusUnauthorized, "Invalid credentials"
	case errors.Is(err, apperrors.ErrDuplicateUser):
		status, msg = http.StatusBadRequest, "Username already exists"
	case errors.Is(err, apperrors.ErrOversizeUpload):
		status, msg = http.StatusRequestEntityTooLarge, "File size exceeds 50MB limit"
	case apperrors.IsCategory(err, apperrors.CategoryDecode),
		apperrors.IsCategory(err, apperrors.CategoryEncode),
		apperrors.IsCategory(err, apperrors.CategoryPipeline):
		msg = "Enhancement error: " + err.Error()
	case apperrors.IsCategory(err, apperrors.CategoryInput):
		status, msg = http.StatusBadRequest, cause(err).Error()
	}

	if status >= http.StatusInternalServerError {
		s.log.ErrorContext(c.Request().Context(), "request failed", "error", err)
	} else {
		s.log.WarnContext(c.Request().Context(), "request rejected", "error", err)
	}
	return c.JSON(status, echo.Map{"error": msg})
}

// cause returns the innermost error in the chain, stripping the structured
// wrapping so clients see the bare message.
func cause(err error) error {
	for {
		next := errors.Unwrap(err)
		if next == nil {
			return err
		}
		err = next
	}
}
