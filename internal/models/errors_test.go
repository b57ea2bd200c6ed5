package models

import (
	"fmt"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
)

func TestStatusFor(t *testing.T) {
	t.Parallel()

	tests := []struct {
		err  error
		want int
	}{
		{NewValidationError("bad"), fiber.StatusBadRequest},
		{NewUnauthorizedError("no"), fiber.StatusUnauthorized},
		{NewForbiddenError("no"), fiber.StatusForbidden},
		{NewNotFoundError("Post", 1), fiber.StatusNotFound},
		{NewInFlightError("submit"), fiber.StatusConflict},
		{NewNetworkError("http://x", nil), fiber.StatusBadGateway},
		{NewServerError(500, ""), fiber.StatusBadGateway},
		{fmt.Errorf("wrapped: %w", NewNotFoundError("Post", 2)), fiber.StatusNotFound},
		{fmt.Errorf("plain"), fiber.StatusInternalServerError},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, StatusFor(tt.err), tt.err.Error())
	}
}

func TestNewServerErrorFallsBackToStatusText(t *testing.T) {
	t.Parallel()

	err := NewServerError(503, "")
	assert.Equal(t, "Service Unavailable", err.Message)
	assert.True(t, IsCode(err, CodeServerError))
}

func TestUpstreamStatus(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 401, UpstreamStatus(fmt.Errorf("login: %w", NewServerError(401, "Invalid credentials"))))
	assert.Equal(t, 0, UpstreamStatus(NewNetworkError("http://x", nil)))
	assert.Equal(t, 0, UpstreamStatus(nil))
}
