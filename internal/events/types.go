package events

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

const ExchangeName = "memory-test-events"

type EventType string

const (
	// TestCreated is published after a test is stored as pending
	TestCreated EventType = "test.created"
	// TestCompleted is published after a completion is committed
	TestCompleted EventType = "test.completed"
	// MemoryDeleted is published after a memory and its image are removed
	MemoryDeleted EventType = "memory.deleted"
)

type BaseEvent struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	Timestamp int64     `json:"timestamp"`
	Version   string    `json:"version"`
}

func newBaseEvent(t EventType) BaseEvent {
	return BaseEvent{
		ID:        uuid.NewString(),
		Type:      t,
		Timestamp: time.Now().Unix(),
		Version:   "1.0",
	}
}

type TestCreatedEvent struct {
	BaseEvent
	TestID         string `json:"test_id"`
	PatientID      string `json:"patient_id"`
	CreatorID      string `json:"creator_id"`
	CreatorRole    string `json:"creator_role"`
	TotalQuestions int    `json:"total_questions"`
}

func NewTestCreatedEvent(testID, patientID, creatorID, creatorRole string, totalQuestions int) *TestCreatedEvent {
	return &TestCreatedEvent{
		BaseEvent:      newBaseEvent(TestCreated),
		TestID:         testID,
		PatientID:      patientID,
		CreatorID:      creatorID,
		CreatorRole:    creatorRole,
		TotalQuestions: totalQuestions,
	}
}

func (e *TestCreatedEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

type TestCompletedEvent struct {
	BaseEvent
	TestID           string `json:"test_id"`
	PatientID        string `json:"patient_id"`
	Score            int    `json:"score"`
	TotalQuestions   int    `json:"total_questions"`
	TotalTimeSeconds int    `json:"total_time_seconds"`
}

func NewTestCompletedEvent(testID, patientID string, score, totalQuestions, totalTimeSeconds int) *TestCompletedEvent {
	return &TestCompletedEvent{
		BaseEvent:        newBaseEvent(TestCompleted),
		TestID:           testID,
		PatientID:        patientID,
		Score:            score,
		TotalQuestions:   totalQuestions,
		TotalTimeSeconds: totalTimeSeconds,
	}
}

func (e *TestCompletedEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

type MemoryDeletedEvent struct {
	BaseEvent
	MemoryID  string `json:"memory_id"`
	OwnerID   string `json:"owner_id"`
	DeletedBy string `json:"deleted_by"`
}

func NewMemoryDeletedEvent(memoryID, ownerID, deletedBy string) *MemoryDeletedEvent {
	return &MemoryDeletedEvent{
		BaseEvent: newBaseEvent(MemoryDeleted),
		MemoryID:  memoryID,
		OwnerID:   ownerID,
		DeletedBy: deletedBy,
	}
}

func (e *MemoryDeletedEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}
