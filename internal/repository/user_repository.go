package repository

import (
	"context"
	"errors"

	mongodb "memory-test-service/internal/database/mongo"
	"memory-test-service/internal/models"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
)

// UserRepository reads the user directory maintained by the identity
// provider. This service never writes to it.
type UserRepository struct {
	collection *mongo.Collection
}

func NewUserRepository(database *mongo.Database) *UserRepository {
	return &UserRepository{
		collection: database.Collection(mongodb.CollectionUsers),
	}
}

func (r *UserRepository) GetUser(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, notFound("GetUser", "user %s not found", id)
		}
		return nil, persistence("failed to get user", err)
	}
	return &user, nil
}
