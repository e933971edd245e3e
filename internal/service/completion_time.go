package service

import (
	"time"

	"memory-test-service/internal/models"
)

func completionTime(t *models.Test) time.Time {
	if t.CompletedAt != nil {
		return *t.CompletedAt
	}
	return t.CreatedAt
}
