package handlers

import (
	"context"
	"time"

	"memory-test-service/internal/logger"
	"memory-test-service/internal/models"

	"github.com/gofiber/fiber/v3"
)

type TestService interface {
	GenerateTest(ctx context.Context, caller models.Caller, patientID string, count int) (*models.Test, error)
	PendingTests(ctx context.Context, caller models.Caller, patientID string) ([]*models.Test, error)
	CompletedTests(ctx context.Context, caller models.Caller, patientID string) ([]*models.Test, error)
	GetTest(ctx context.Context, caller models.Caller, testID string) (*models.Test, error)
	TestAnswers(ctx context.Context, caller models.Caller, testID string) (*models.TestAnswers, error)
	CompleteTest(ctx context.Context, caller models.Caller, testID string, answers []models.Answer) (*models.Test, error)
}

type TestHandler struct {
	base
	testService TestService
}

func NewTestHandler(testService TestService, timeout time.Duration, log *logger.Logger) *TestHandler {
	return &TestHandler{
		base:        base{timeout: timeout, log: log},
		testService: testService,
	}
}

type generateTestRequest struct {
	Count int `json:"count"`
}

type completeTestRequest struct {
	Answers []models.Answer `json:"answers"`
}

func (h *TestHandler) RegisterRoutes(api fiber.Router) {
	api.Post("/patients/:patientId/tests", h.GenerateTest)
	api.Get("/patients/:patientId/tests", h.ListTests)

	testGroup := api.Group("/tests")
	testGroup.Get("/:id", h.GetTest)
	testGroup.Get("/:id/answers", h.GetAnswers)
	testGroup.Post("/:id/completion", h.CompleteTest)
}

func (h *TestHandler) GenerateTest(c fiber.Ctx) error {
	caller, ctx, cancel, err := h.begin(c)
	if err != nil {
		return h.fail(c, err)
	}
	defer cancel()

	var req generateTestRequest
	if len(c.Body()) > 0 {
		if err := c.Bind().Body(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Invalid request body",
			})
		}
	}

	test, err := h.testService.GenerateTest(ctx, caller, c.Params("patientId"), req.Count)
	if err != nil {
		return h.fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Test generated successfully",
		"data":    test,
	})
}

// ListTests returns pending tests unless ?status=completed is given.
func (h *TestHandler) ListTests(c fiber.Ctx) error {
	caller, ctx, cancel, err := h.begin(c)
	if err != nil {
		return h.fail(c, err)
	}
	defer cancel()

	patientID := c.Params("patientId")
	var tests []*models.Test
	switch status := models.TestStatus(c.Query("status", string(models.TestStatusPending))); status {
	case models.TestStatusPending:
		tests, err = h.testService.PendingTests(ctx, caller, patientID)
	case models.TestStatusCompleted:
		tests, err = h.testService.CompletedTests(ctx, caller, patientID)
	default:
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "status must be pending or completed",
		})
	}
	if err != nil {
		return h.fail(c, err)
	}
	if tests == nil {
		tests = []*models.Test{}
	}
	return c.JSON(fiber.Map{
		"data": tests,
	})
}

func (h *TestHandler) GetTest(c fiber.Ctx) error {
	caller, ctx, cancel, err := h.begin(c)
	if err != nil {
		return h.fail(c, err)
	}
	defer cancel()

	test, err := h.testService.GetTest(ctx, caller, c.Params("id"))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(fiber.Map{
		"data": test,
	})
}

func (h *TestHandler) GetAnswers(c fiber.Ctx) error {
	caller, ctx, cancel, err := h.begin(c)
	if err != nil {
		return h.fail(c, err)
	}
	defer cancel()

	answers, err := h.testService.TestAnswers(ctx, caller, c.Params("id"))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(fiber.Map{
		"data": answers,
	})
}

func (h *TestHandler) CompleteTest(c fiber.Ctx) error {
	caller, ctx, cancel, err := h.begin(c)
	if err != nil {
		return h.fail(c, err)
	}
	defer cancel()

	var req completeTestRequest
	if err := c.Bind().Body(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	test, err := h.testService.CompleteTest(ctx, caller, c.Params("id"), req.Answers)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(fiber.Map{
		"message": "Test completed successfully",
		"data":    test,
	})
}
