package repository

import (
	"context"
	"time"

	mongodb "memory-test-service/internal/database/mongo"
	"memory-test-service/internal/models"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
)

type ReportRepository struct {
	collection *mongo.Collection
}

func NewReportRepository(database *mongo.Database) *ReportRepository {
	return &ReportRepository{
		collection: database.Collection(mongodb.CollectionReports),
	}
}

func (r *ReportRepository) Create(ctx context.Context, record *models.ReportRecord) error {
	if record.ID == "" {
		record.ID = bson.NewObjectID().Hex()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}
	if _, err := r.collection.InsertOne(ctx, record); err != nil {
		return persistence("failed to insert report record", err)
	}
	return nil
}

func (r *ReportRepository) ListByPatient(ctx context.Context, patientID string) ([]*models.ReportRecord, error) {
	cursor, err := r.collection.Find(ctx, bson.M{"patient_id": patientID})
	if err != nil {
		return nil, persistence("failed to query report records", err)
	}
	defer cursor.Close(ctx)

	records := []*models.ReportRecord{}
	if err := cursor.All(ctx, &records); err != nil {
		return nil, persistence("failed to decode report records", err)
	}

	sortReportsNewestFirst(records)
	return records, nil
}

func (r *ReportRepository) InitializeIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "patient_id", Value: 1}},
	})
	if err != nil {
		return persistence("failed to create report indexes", err)
	}
	return nil
}
