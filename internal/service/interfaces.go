package service

import (
	"context"
	"io"
	"time"

	"memory-test-service/internal/models"
)

// MemoryStore is the read side of the memory collection the generators use.
type MemoryStore interface {
	ListMemories(ctx context.Context, ownerID string) ([]*models.Memory, error)
	GetMemory(ctx context.Context, id string) (*models.Memory, error)
}

type MemoryRepository interface {
	MemoryStore
	Create(ctx context.Context, memory *models.Memory) (*models.Memory, error)
	Update(ctx context.Context, id, description string, status models.MemoryStatus, imageRef string) (*models.Memory, error)
	Delete(ctx context.Context, id string) error
}

type ImageStore interface {
	Put(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error
	Remove(ctx context.Context, key string) error
	PresignedURL(ctx context.Context, key string, expiry time.Duration) (string, error)
}

type TestRepository interface {
	CreateTest(ctx context.Context, test *models.Test) (*models.Test, error)
	GetTestByID(ctx context.Context, id string) (*models.Test, error)
	GetPendingTestsForPatient(ctx context.Context, patientID string) ([]*models.Test, error)
	GetCompletedTestsForPatient(ctx context.Context, patientID string) ([]*models.Test, error)
	CountCompletedTestsForPatient(ctx context.Context, patientID string) (int, error)
	SubmitCompletion(ctx context.Context, testID string, answers []models.Answer, score, totalTimeSeconds int, narrative string) (*models.Test, error)
	GetAnswers(ctx context.Context, testID string) (*models.TestAnswers, error)
}

type UserDirectory interface {
	GetUser(ctx context.Context, id string) (*models.User, error)
}

type ReportRepository interface {
	Create(ctx context.Context, record *models.ReportRecord) error
	ListByPatient(ctx context.Context, patientID string) ([]*models.ReportRecord, error)
}

// QuotaGate remembers that the language model ran out of quota.
type QuotaGate interface {
	CoolingDown(ctx context.Context) (bool, error)
	Trip(ctx context.Context, ttl time.Duration) error
}
