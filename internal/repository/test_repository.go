package repository

import (
	"context"
	"errors"
	"time"

	"memory-test-service/internal/apperr"
	mongodb "memory-test-service/internal/database/mongo"
	"memory-test-service/internal/models"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

type TestRepository struct {
	client  *mongo.Client
	tests   *mongo.Collection
	results *mongo.Collection
}

func NewTestRepository(database *mongo.Database) *TestRepository {
	return &TestRepository{
		client:  database.Client(),
		tests:   database.Collection(mongodb.CollectionTests),
		results: database.Collection(mongodb.CollectionTestResults),
	}
}

// CreateTest stores a new pending test. Status, TotalQuestions, CreatedAt and
// the id are always set here regardless of what the caller filled in.
func (r *TestRepository) CreateTest(ctx context.Context, test *models.Test) (*models.Test, error) {
	if test.ID == "" {
		test.ID = bson.NewObjectID().Hex()
	}
	if test.CreatedAt.IsZero() {
		test.CreatedAt = time.Now().UTC()
	}
	test.Status = models.TestStatusPending
	test.TotalQuestions = len(test.Questions)
	test.CompletedAt = nil
	test.Result = nil

	if _, err := r.tests.InsertOne(ctx, test); err != nil {
		return nil, persistence("failed to insert test", err)
	}
	return test, nil
}

func (r *TestRepository) GetTestByID(ctx context.Context, id string) (*models.Test, error) {
	var test models.Test
	err := r.tests.FindOne(ctx, bson.M{"_id": id}).Decode(&test)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, notFound("GetTestByID", "test %s not found", id)
		}
		return nil, persistence("failed to get test", err)
	}
	return &test, nil
}

func (r *TestRepository) GetPendingTestsForPatient(ctx context.Context, patientID string) ([]*models.Test, error) {
	return r.findByStatus(ctx, patientID, models.TestStatusPending)
}

func (r *TestRepository) GetCompletedTestsForPatient(ctx context.Context, patientID string) ([]*models.Test, error) {
	return r.findByStatus(ctx, patientID, models.TestStatusCompleted)
}

func (r *TestRepository) CountCompletedTestsForPatient(ctx context.Context, patientID string) (int, error) {
	n, err := r.tests.CountDocuments(ctx, bson.M{
		"patient_id": patientID,
		"status":     models.TestStatusCompleted,
	})
	if err != nil {
		return 0, persistence("failed to count tests", err)
	}
	return int(n), nil
}

func (r *TestRepository) findByStatus(ctx context.Context, patientID string, status models.TestStatus) ([]*models.Test, error) {
	cursor, err := r.tests.Find(ctx, bson.M{
		"patient_id": patientID,
		"status":     status,
	})
	if err != nil {
		return nil, persistence("failed to query tests", err)
	}
	defer cursor.Close(ctx)

	tests := []*models.Test{}
	for cursor.Next(ctx) {
		var test models.Test
		if err := cursor.Decode(&test); err != nil {
			return nil, persistence("failed to decode test", err)
		}
		tests = append(tests, &test)
	}
	if err := cursor.Err(); err != nil {
		return nil, persistence("failed to iterate tests", err)
	}

	sortTestsNewestFirst(tests)
	return tests, nil
}

// SubmitCompletion marks a pending test completed and stores its answers in
// one transaction. The status update is conditional on the test still being
// pending, so a second submission for the same test fails with
// apperr.ErrAlreadyCompleted instead of overwriting the first.
func (r *TestRepository) SubmitCompletion(ctx context.Context, testID string, answers []models.Answer, score, totalTimeSeconds int, narrative string) (*models.Test, error) {
	session, err := r.client.StartSession()
	if err != nil {
		return nil, persistence("failed to start session", err)
	}
	defer session.EndSession(ctx)

	out, err := session.WithTransaction(ctx, func(ctx context.Context) (any, error) {
		return r.completeInTx(ctx, testID, answers, score, totalTimeSeconds, narrative)
	})
	if err != nil {
		return nil, completionTxError(err)
	}
	return out.(*models.Test), nil
}

func (r *TestRepository) completeInTx(ctx context.Context, testID string, answers []models.Answer, score, totalTimeSeconds int, narrative string) (*models.Test, error) {
	var test models.Test
	if err := r.tests.FindOne(ctx, bson.M{"_id": testID}).Decode(&test); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, notFound("SubmitCompletion", "test %s not found", testID)
		}
		return nil, persistence("failed to load test", err)
	}
	if test.IsCompleted() {
		return nil, apperr.Newf(apperr.KindAlreadyCompleted, "SubmitCompletion", "test %s is already completed", testID)
	}

	now := time.Now().UTC()
	result := &models.Result{
		Score:             score,
		TotalQuestions:    test.TotalQuestions,
		TotalTimeSeconds:  totalTimeSeconds,
		NarrativeAnalysis: narrative,
	}

	res, err := r.tests.UpdateOne(ctx,
		bson.M{"_id": testID, "status": models.TestStatusPending},
		bson.M{"$set": bson.M{
			"status":       models.TestStatusCompleted,
			"completed_at": now,
			"result":       result,
		}},
	)
	if err != nil {
		return nil, persistence("failed to update test status", err)
	}
	if err := checkPendingMatched(testID, res.MatchedCount); err != nil {
		return nil, err
	}

	record := models.TestAnswers{
		ID:        bson.NewObjectID().Hex(),
		TestID:    testID,
		PatientID: test.PatientID,
		Answers:   answers,
		CreatedAt: now,
	}
	if _, err := r.results.InsertOne(ctx, record); err != nil {
		return nil, answersInsertError(testID, err)
	}

	test.Status = models.TestStatusCompleted
	test.CompletedAt = &now
	test.Result = result
	return &test, nil
}

// checkPendingMatched fails when the status-guarded update matched no
// pending test, meaning a concurrent submission completed it first.
func checkPendingMatched(testID string, matched int64) error {
	if matched == 0 {
		return apperr.Newf(apperr.KindAlreadyCompleted, "SubmitCompletion", "test %s is already completed", testID)
	}
	return nil
}

func answersInsertError(testID string, err error) error {
	if mongo.IsDuplicateKeyError(err) {
		return apperr.Newf(apperr.KindAlreadyCompleted, "SubmitCompletion", "answers for test %s already stored", testID)
	}
	return persistence("failed to insert test answers", err)
}

// completionTxError keeps errors raised inside the transaction callback and
// reports anything else from the driver as a persistence failure.
func completionTxError(err error) error {
	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		return err
	}
	return persistence("failed to complete test", err)
}

func (r *TestRepository) GetAnswers(ctx context.Context, testID string) (*models.TestAnswers, error) {
	var record models.TestAnswers
	err := r.results.FindOne(ctx, bson.M{"test_id": testID}).Decode(&record)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, notFound("GetAnswers", "answers for test %s not found", testID)
		}
		return nil, persistence("failed to get test answers", err)
	}
	return &record, nil
}

func (r *TestRepository) InitializeIndexes(ctx context.Context) error {
	_, err := r.tests.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "patient_id", Value: 1}, {Key: "status", Value: 1}}},
	})
	if err != nil {
		return persistence("failed to create test indexes", err)
	}

	_, err = r.results.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "test_id", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return persistence("failed to create test result indexes", err)
	}
	return nil
}
