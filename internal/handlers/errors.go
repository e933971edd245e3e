package handlers

import (
	"context"
	"errors"
	"time"

	"memory-test-service/internal/apperr"
	"memory-test-service/internal/logger"
	"memory-test-service/internal/middleware"
	"memory-test-service/internal/models"

	"github.com/gofiber/fiber/v3"
)

var errUnauthenticated = errors.New("User not authenticated")

// statusFor maps an error kind onto the HTTP status returned to clients.
func statusFor(err error) int {
	if errors.Is(err, errUnauthenticated) {
		return fiber.StatusUnauthorized
	}
	switch apperr.KindOf(err) {
	case apperr.KindInsufficientInput, apperr.KindInvalidInput:
		return fiber.StatusBadRequest
	case apperr.KindForbidden:
		return fiber.StatusForbidden
	case apperr.KindNotFound:
		return fiber.StatusNotFound
	case apperr.KindAlreadyCompleted:
		return fiber.StatusConflict
	case apperr.KindCanceled:
		return fiber.StatusRequestTimeout
	case apperr.KindGenerationFailed, apperr.KindBackend:
		return fiber.StatusBadGateway
	default:
		return fiber.StatusInternalServerError
	}
}

// base carries what every handler needs: the per-operation timeout and a
// logger for server-side failures.
type base struct {
	timeout time.Duration
	log     *logger.Logger
}

// begin returns the authenticated caller and a context bounded by the
// operation timeout. The caller must invoke cancel when err is nil.
func (b base) begin(c fiber.Ctx) (models.Caller, context.Context, context.CancelFunc, error) {
	caller, ok := middleware.CallerFrom(c)
	if !ok {
		return models.Caller{}, nil, nil, errUnauthenticated
	}

	parent := context.Context(c.Context())
	if b.timeout <= 0 {
		ctx, cancel := context.WithCancel(parent)
		return caller, ctx, cancel, nil
	}
	ctx, cancel := context.WithTimeout(parent, b.timeout)
	return caller, ctx, cancel, nil
}

func (b base) fail(c fiber.Ctx, err error) error {
	status := statusFor(err)

	msg := err.Error()
	var appErr *apperr.Error
	if errors.As(err, &appErr) && appErr.Msg != "" {
		msg = appErr.Msg
	}
	if status >= fiber.StatusInternalServerError {
		b.log.Error("Request failed", "method", c.Method(), "path", c.Path(), "status", status, "error", err)
		if status == fiber.StatusInternalServerError {
			msg = "Internal server error"
		}
	}

	return c.Status(status).JSON(fiber.Map{
		"error": msg,
	})
}
