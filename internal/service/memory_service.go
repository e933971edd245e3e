package service

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"memory-test-service/internal/apperr"
	"memory-test-service/internal/events"
	"memory-test-service/internal/logger"
	"memory-test-service/internal/models"
)

// ImageUpload is a photograph received from a client.
type ImageUpload struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

type MemoryService struct {
	memories  MemoryRepository
	images    ImageStore
	auth      *Authorizer
	publisher events.Publisher
	urlExpiry time.Duration
	log       *logger.Logger
	now       func() time.Time
}

func NewMemoryService(memories MemoryRepository, images ImageStore, auth *Authorizer, publisher events.Publisher, urlExpiry time.Duration, log *logger.Logger) *MemoryService {
	return &MemoryService{
		memories:  memories,
		images:    images,
		auth:      auth,
		publisher: publisher,
		urlExpiry: urlExpiry,
		log:       log,
		now:       time.Now,
	}
}

func (s *MemoryService) List(ctx context.Context, caller models.Caller, patientID string) ([]*models.Memory, error) {
	if err := s.auth.CanAccessPatient(ctx, caller, patientID); err != nil {
		return nil, err
	}
	return s.memories.ListMemories(ctx, patientID)
}

func (s *MemoryService) Get(ctx context.Context, caller models.Caller, id string) (*models.Memory, error) {
	memory, err := s.memories.GetMemory(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.auth.CanAccessPatient(ctx, caller, memory.OwnerID); err != nil {
		return nil, err
	}
	return memory, nil
}

// Upload stores the image and then its metadata. If the metadata write
// fails the image is removed again.
func (s *MemoryService) Upload(ctx context.Context, caller models.Caller, patientID, description string, upload ImageUpload) (*models.Memory, error) {
	if err := s.auth.CanAccessPatient(ctx, caller, patientID); err != nil {
		return nil, err
	}
	description = strings.TrimSpace(description)
	if description == "" {
		return nil, apperr.New(apperr.KindInvalidInput, "UploadMemory", "description is required")
	}

	key, err := s.store(ctx, patientID, upload)
	if err != nil {
		return nil, err
	}

	memory := &models.Memory{
		OwnerID:      patientID,
		ImageRef:     key,
		Description:  description,
		UploaderRole: caller.Role,
		Status:       models.MemoryStatusActive,
	}
	if caller.UID != patientID {
		memory.UploaderID = caller.UID
	}

	created, err := s.memories.Create(ctx, memory)
	if err != nil {
		if rmErr := s.images.Remove(ctx, key); rmErr != nil {
			s.log.Warn("Failed to remove orphaned image", "key", key, "error", rmErr)
		}
		return nil, err
	}
	s.log.Info("Memory uploaded", "memory_id", created.ID, "owner_id", patientID)
	return created, nil
}

// MemoryChanges lists what Update may change. Zero fields keep the stored value.
type MemoryChanges struct {
	Description string
	Status      models.MemoryStatus
	Image       *ImageUpload
}

// Update applies changes to a memory. An inactive memory stays listed but is
// no longer used to generate tests.
func (s *MemoryService) Update(ctx context.Context, caller models.Caller, id string, changes MemoryChanges) (*models.Memory, error) {
	memory, err := s.Get(ctx, caller, id)
	if err != nil {
		return nil, err
	}
	if changes.Status != "" && !changes.Status.Valid() {
		return nil, apperr.Newf(apperr.KindInvalidInput, "UpdateMemory", "unknown memory status %q", changes.Status)
	}
	description := strings.TrimSpace(changes.Description)
	if description == "" {
		description = memory.Description
	}

	newKey := ""
	if changes.Image != nil {
		if newKey, err = s.store(ctx, memory.OwnerID, *changes.Image); err != nil {
			return nil, err
		}
	}

	updated, err := s.memories.Update(ctx, id, description, changes.Status, newKey)
	if err != nil {
		if newKey != "" {
			if rmErr := s.images.Remove(ctx, newKey); rmErr != nil {
				s.log.Warn("Failed to remove orphaned image", "key", newKey, "error", rmErr)
			}
		}
		return nil, err
	}

	if newKey != "" && memory.ImageRef != "" && memory.ImageRef != newKey {
		if err := s.images.Remove(ctx, memory.ImageRef); err != nil {
			s.log.Warn("Failed to remove replaced image", "key", memory.ImageRef, "error", err)
		}
	}
	return updated, nil
}

// Delete removes the image and the memory. Only caregivers and doctors may
// delete; a failure to remove the image does not keep the memory alive.
func (s *MemoryService) Delete(ctx context.Context, caller models.Caller, id string) error {
	if err := s.auth.RequireCareProvider(caller); err != nil {
		return err
	}
	memory, err := s.Get(ctx, caller, id)
	if err != nil {
		return err
	}

	if memory.ImageRef != "" {
		if err := s.images.Remove(ctx, memory.ImageRef); err != nil {
			s.log.Warn("Failed to remove memory image", "memory_id", id, "key", memory.ImageRef, "error", err)
		}
	}
	if err := s.memories.Delete(ctx, id); err != nil {
		return err
	}

	if err := s.publisher.PublishMemoryDeleted(ctx, memory, caller.UID); err != nil {
		s.log.Warn("Failed to publish memory deleted event", "memory_id", id, "error", err)
	}
	return nil
}

func (s *MemoryService) ImageURL(ctx context.Context, caller models.Caller, id string) (string, error) {
	memory, err := s.Get(ctx, caller, id)
	if err != nil {
		return "", err
	}
	return s.images.PresignedURL(ctx, memory.ImageRef, s.urlExpiry)
}

func (s *MemoryService) store(ctx context.Context, ownerID string, upload ImageUpload) (string, error) {
	if upload.Body == nil || upload.Size <= 0 {
		return "", apperr.New(apperr.KindInvalidInput, "UploadMemory", "image is required")
	}
	if !strings.HasPrefix(upload.ContentType, "image/") {
		return "", apperr.Newf(apperr.KindInvalidInput, "UploadMemory", "unsupported content type %q", upload.ContentType)
	}

	key := imageKey(ownerID, upload.Filename, s.now())
	if err := s.images.Put(ctx, key, upload.Body, upload.Size, upload.ContentType); err != nil {
		return "", err
	}
	return key, nil
}

func imageKey(ownerID, filename string, at time.Time) string {
	name := path.Base(strings.ReplaceAll(filename, "\\", "/"))
	if name == "." || name == "/" || name == "" {
		name = "image"
	}
	name = strings.ReplaceAll(name, " ", "_")
	return fmt.Sprintf("memories/%s/%d_%s", ownerID, at.UnixNano(), name)
}
