package server

import (
	"errors"
	"log/slog"
	"strconv"
	"strings"

	"smartbarangay/internal/middleware"
	"smartbarangay/internal/models"

	"github.com/gofiber/fiber/v2"
)

// errResponseWritten is a sentinel indicating the HTTP response was already
// committed by a helper. Handlers must return nil (not this error) to avoid
// Fiber's ErrorHandler overwriting the response.
var errResponseWritten = errors.New("response already written")

// parseID extracts a route parameter by name as a positive integer.
// On failure it writes a 400 JSON response and returns errResponseWritten.
// Post ids are millisecond timestamps, so the result is int64.
func parseID(c *fiber.Ctx, param string) (int64, error) {
	id, err := strconv.ParseInt(c.Params(param), 10, 64)
	if err != nil || id <= 0 {
		_ = models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid "+humanizeParam(param)))
		return 0, errResponseWritten
	}
	return id, nil
}

// parseUserID is parseID for account ids.
func parseUserID(c *fiber.Ctx, param string) (uint, error) {
	id, err := parseID(c, param)
	if err != nil {
		return 0, err
	}
	return uint(id), nil
}

// humanizeParam converts a route param name into a human-readable label.
// Examples: "id" -> "ID", "reportId" -> "report ID".
func humanizeParam(param string) string {
	if param == "id" {
		return "ID"
	}
	if prefix, ok := strings.CutSuffix(param, "Id"); ok && prefix != "" {
		return strings.ToLower(prefix) + " ID"
	}
	return param
}

// bindJSON parses the request body into dst, answering 400 on malformed input.
func bindJSON(c *fiber.Ctx, dst any) error {
	if err := c.BodyParser(dst); err != nil {
		_ = models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
		return errResponseWritten
	}
	return nil
}

// viewer returns the authenticated viewer, answering 401 when there is none.
func viewer(c *fiber.Ctx) (models.Viewer, error) {
	v, ok := middleware.ViewerFrom(c)
	if !ok {
		_ = models.RespondWithError(c, fiber.StatusUnauthorized,
			models.NewUnauthorizedError("Authorization required"))
		return models.Viewer{}, errResponseWritten
	}
	return v, nil
}

// fail writes err with the status its code maps to. Internal errors are
// logged and answered without details.
func (s *Server) fail(c *fiber.Ctx, err error) error {
	status := models.StatusFor(err)
	if status >= fiber.StatusInternalServerError {
		middleware.Logger.ErrorContext(c.UserContext(), "request failed",
			slog.String("path", c.Path()),
			slog.String("code", models.ErrorCode(err)),
			slog.String("error", err.Error()),
		)
	}
	if models.ErrorCode(err) == "" || models.IsCode(err, models.CodeInternal) {
		return models.RespondWithError(c, status, &models.AppError{
			Code:    models.CodeInternal,
			Message: "Internal server error",
		})
	}
	return models.RespondWithError(c, status, err)
}
