package repository

import (
	"context"
	"errors"
	"time"

	mongodb "memory-test-service/internal/database/mongo"
	"memory-test-service/internal/models"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
)

type MemoryRepository struct {
	collection *mongo.Collection
}

func NewMemoryRepository(database *mongo.Database) *MemoryRepository {
	return &MemoryRepository{
		collection: database.Collection(mongodb.CollectionMemories),
	}
}

func (r *MemoryRepository) Create(ctx context.Context, memory *models.Memory) (*models.Memory, error) {
	if memory.ID == "" {
		memory.ID = bson.NewObjectID().Hex()
	}
	if memory.CreatedAt.IsZero() {
		memory.CreatedAt = time.Now().UTC()
	}
	if memory.Status == "" {
		memory.Status = models.MemoryStatusActive
	}

	if _, err := r.collection.InsertOne(ctx, memory); err != nil {
		return nil, persistence("failed to insert memory", err)
	}
	return memory, nil
}

func (r *MemoryRepository) GetMemory(ctx context.Context, id string) (*models.Memory, error) {
	var memory models.Memory
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&memory)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, notFound("GetMemory", "memory %s not found", id)
		}
		return nil, persistence("failed to get memory", err)
	}
	return &memory, nil
}

// ListMemories returns every memory owned by ownerID, newest first.
func (r *MemoryRepository) ListMemories(ctx context.Context, ownerID string) ([]*models.Memory, error) {
	cursor, err := r.collection.Find(ctx, bson.M{"owner_id": ownerID})
	if err != nil {
		return nil, persistence("failed to query memories", err)
	}
	defer cursor.Close(ctx)

	memories := []*models.Memory{}
	if err := cursor.All(ctx, &memories); err != nil {
		return nil, persistence("failed to decode memories", err)
	}

	sortMemoriesNewestFirst(memories)
	return memories, nil
}

// Update replaces the mutable fields of a memory. An empty imageRef keeps the
// stored one.
func (r *MemoryRepository) Update(ctx context.Context, id, description string, status models.MemoryStatus, imageRef string) (*models.Memory, error) {
	now := time.Now().UTC()
	set := bson.M{
		"description": description,
		"updated_at":  now,
	}
	if status != "" {
		set["status"] = status
	}
	if imageRef != "" {
		set["image_ref"] = imageRef
	}

	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	if err != nil {
		return nil, persistence("failed to update memory", err)
	}
	if res.MatchedCount == 0 {
		return nil, notFound("UpdateMemory", "memory %s not found", id)
	}
	return r.GetMemory(ctx, id)
}

func (r *MemoryRepository) Delete(ctx context.Context, id string) error {
	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return persistence("failed to delete memory", err)
	}
	if res.DeletedCount == 0 {
		return notFound("DeleteMemory", "memory %s not found", id)
	}
	return nil
}

func (r *MemoryRepository) InitializeIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "owner_id", Value: 1}},
	})
	if err != nil {
		return persistence("failed to create memory indexes", err)
	}
	return nil
}
