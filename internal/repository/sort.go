package repository

import (
	"slices"
	"time"

	"memory-test-service/internal/models"
)

// Queries never ask the store to order results so they keep working
// without compound indexes; ordering happens here instead.

func sortTestsNewestFirst(tests []*models.Test) {
	slices.SortStableFunc(tests, func(a, b *models.Test) int {
		return compareNewestFirst(a.CreatedAt, b.CreatedAt)
	})
}

func sortMemoriesNewestFirst(memories []*models.Memory) {
	slices.SortStableFunc(memories, func(a, b *models.Memory) int {
		return compareNewestFirst(a.CreatedAt, b.CreatedAt)
	})
}

func sortReportsNewestFirst(records []*models.ReportRecord) {
	slices.SortStableFunc(records, func(a, b *models.ReportRecord) int {
		return compareNewestFirst(a.CreatedAt, b.CreatedAt)
	})
}

func compareNewestFirst(a, b time.Time) int {
	return b.Compare(a)
}
