package models

import "time"

type MemoryStatus string

const (
	MemoryStatusActive   MemoryStatus = "active"
	MemoryStatusInactive MemoryStatus = "inactive"
)

// Memory is a photograph of the patient's life together with the
// description used as the correct answer when questions are generated.
type Memory struct {
	ID           string       `bson:"_id,omitempty" json:"id"`
	OwnerID      string       `bson:"owner_id" json:"owner_id"`
	ImageRef     string       `bson:"image_ref" json:"image_ref"`
	Description  string       `bson:"description" json:"description"`
	CreatedAt    time.Time    `bson:"created_at" json:"created_at"`
	UpdatedAt    *time.Time   `bson:"updated_at,omitempty" json:"updated_at,omitempty"`
	UploaderRole Role         `bson:"uploader_role" json:"uploader_role"`
	UploaderID   string       `bson:"uploader_id,omitempty" json:"uploader_id,omitempty"`
	Status       MemoryStatus `bson:"status" json:"status"`
}

func (s MemoryStatus) Valid() bool {
	return s == MemoryStatusActive || s == MemoryStatusInactive
}

// IsActive reports whether the memory may be used to generate questions.
func (m *Memory) IsActive() bool {
	return m.Status == "" || m.Status == MemoryStatusActive
}
