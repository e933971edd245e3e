package handlers

import (
	"context"
	"mime/multipart"
	"time"

	"memory-test-service/internal/apperr"
	"memory-test-service/internal/logger"
	"memory-test-service/internal/models"
	"memory-test-service/internal/service"

	"github.com/gofiber/fiber/v3"
)

type MemoryService interface {
	List(ctx context.Context, caller models.Caller, patientID string) ([]*models.Memory, error)
	Get(ctx context.Context, caller models.Caller, id string) (*models.Memory, error)
	Upload(ctx context.Context, caller models.Caller, patientID, description string, upload service.ImageUpload) (*models.Memory, error)
	Update(ctx context.Context, caller models.Caller, id string, changes service.MemoryChanges) (*models.Memory, error)
	Delete(ctx context.Context, caller models.Caller, id string) error
	ImageURL(ctx context.Context, caller models.Caller, id string) (string, error)
}

type MemoryHandler struct {
	base
	memoryService MemoryService
}

func NewMemoryHandler(memoryService MemoryService, timeout time.Duration, log *logger.Logger) *MemoryHandler {
	return &MemoryHandler{
		base:          base{timeout: timeout, log: log},
		memoryService: memoryService,
	}
}

func (h *MemoryHandler) RegisterRoutes(api fiber.Router) {
	api.Get("/patients/:patientId/memories", h.ListMemories)
	api.Post("/patients/:patientId/memories", h.UploadMemory)

	memoryGroup := api.Group("/memories")
	memoryGroup.Get("/:id", h.GetMemory)
	memoryGroup.Get("/:id/url", h.GetImageURL)
	memoryGroup.Put("/:id", h.UpdateMemory)
	memoryGroup.Delete("/:id", h.DeleteMemory)
}

func (h *MemoryHandler) ListMemories(c fiber.Ctx) error {
	caller, ctx, cancel, err := h.begin(c)
	if err != nil {
		return h.fail(c, err)
	}
	defer cancel()

	memories, err := h.memoryService.List(ctx, caller, c.Params("patientId"))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(fiber.Map{
		"data": memories,
	})
}

func (h *MemoryHandler) UploadMemory(c fiber.Ctx) error {
	caller, ctx, cancel, err := h.begin(c)
	if err != nil {
		return h.fail(c, err)
	}
	defer cancel()

	fileHeader, err := c.FormFile("image")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "No image provided",
		})
	}
	upload, closeFn, err := openUpload(fileHeader)
	if err != nil {
		return h.fail(c, err)
	}
	defer closeFn()

	memory, err := h.memoryService.Upload(ctx, caller, c.Params("patientId"), c.FormValue("description"), upload)
	if err != nil {
		return h.fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Memory uploaded successfully",
		"data":    memory,
	})
}

func (h *MemoryHandler) GetMemory(c fiber.Ctx) error {
	caller, ctx, cancel, err := h.begin(c)
	if err != nil {
		return h.fail(c, err)
	}
	defer cancel()

	memory, err := h.memoryService.Get(ctx, caller, c.Params("id"))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(fiber.Map{
		"data": memory,
	})
}

func (h *MemoryHandler) GetImageURL(c fiber.Ctx) error {
	caller, ctx, cancel, err := h.begin(c)
	if err != nil {
		return h.fail(c, err)
	}
	defer cancel()

	url, err := h.memoryService.ImageURL(ctx, caller, c.Params("id"))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(fiber.Map{
		"url": url,
	})
}

// UpdateMemory accepts a multipart form; the image part is optional.
func (h *MemoryHandler) UpdateMemory(c fiber.Ctx) error {
	caller, ctx, cancel, err := h.begin(c)
	if err != nil {
		return h.fail(c, err)
	}
	defer cancel()

	changes := service.MemoryChanges{
		Description: c.FormValue("description"),
		Status:      models.MemoryStatus(c.FormValue("status")),
	}
	if fileHeader, err := c.FormFile("image"); err == nil {
		u, closeFn, err := openUpload(fileHeader)
		if err != nil {
			return h.fail(c, err)
		}
		defer closeFn()
		changes.Image = &u
	}

	memory, err := h.memoryService.Update(ctx, caller, c.Params("id"), changes)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(fiber.Map{
		"message": "Memory updated successfully",
		"data":    memory,
	})
}

func (h *MemoryHandler) DeleteMemory(c fiber.Ctx) error {
	caller, ctx, cancel, err := h.begin(c)
	if err != nil {
		return h.fail(c, err)
	}
	defer cancel()

	if err := h.memoryService.Delete(ctx, caller, c.Params("id")); err != nil {
		return h.fail(c, err)
	}
	return c.JSON(fiber.Map{
		"message": "Memory deleted successfully",
	})
}

func openUpload(fileHeader *multipart.FileHeader) (service.ImageUpload, func(), error) {
	file, err := fileHeader.Open()
	if err != nil {
		return service.ImageUpload{}, nil, apperr.Wrap(apperr.KindInvalidInput, "failed to read uploaded image", err)
	}
	return service.ImageUpload{
		Filename:    fileHeader.Filename,
		ContentType: fileHeader.Header.Get("Content-Type"),
		Size:        fileHeader.Size,
		Body:        file,
	}, func() { file.Close() }, nil
}
