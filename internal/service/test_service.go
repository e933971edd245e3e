package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"memory-test-service/internal/apperr"
	"memory-test-service/internal/events"
	"memory-test-service/internal/logger"
	"memory-test-service/internal/metrics"
	"memory-test-service/internal/models"
)

type TestServiceConfig struct {
	MinMemoriesForTest   int
	DefaultQuestionCount int
}

// TestService runs the generate, take and complete workflow on top of the
// repositories and generators.
type TestService struct {
	tests     TestRepository
	memories  MemoryStore
	users     UserDirectory
	auth      *Authorizer
	generator *QuestionGenerator
	analyzer  *Analyzer
	publisher events.Publisher
	cfg       TestServiceConfig
	log       *logger.Logger
	now       func() time.Time
}

func NewTestService(
	tests TestRepository,
	memories MemoryStore,
	users UserDirectory,
	auth *Authorizer,
	generator *QuestionGenerator,
	analyzer *Analyzer,
	publisher events.Publisher,
	cfg TestServiceConfig,
	log *logger.Logger,
) *TestService {
	if cfg.DefaultQuestionCount < 1 {
		cfg.DefaultQuestionCount = 5
	}
	return &TestService{
		tests:     tests,
		memories:  memories,
		users:     users,
		auth:      auth,
		generator: generator,
		analyzer:  analyzer,
		publisher: publisher,
		cfg:       cfg,
		log:       log,
		now:       time.Now,
	}
}

// GenerateTest builds a new pending test for patientID from the patient's
// active memories. count <= 0 selects the configured default.
func (s *TestService) GenerateTest(ctx context.Context, caller models.Caller, patientID string, count int) (*models.Test, error) {
	if err := s.auth.RequireCareProvider(caller); err != nil {
		return nil, err
	}
	if err := s.auth.CanAccessPatient(ctx, caller, patientID); err != nil {
		return nil, err
	}
	if count <= 0 {
		count = s.cfg.DefaultQuestionCount
	}

	all, err := s.memories.ListMemories(ctx, patientID)
	if err != nil {
		return nil, err
	}
	active := make([]*models.Memory, 0, len(all))
	for _, m := range all {
		if m.IsActive() {
			active = append(active, m)
		}
	}
	if len(active) < s.cfg.MinMemoriesForTest {
		return nil, apperr.Newf(apperr.KindInsufficientInput, "GenerateTest",
			"se necesitan al menos %d memorias para generar un test (hay %d)", s.cfg.MinMemoriesForTest, len(active))
	}

	questions, err := s.generator.GenerateQuestions(ctx, active, count)
	if err != nil {
		return nil, err
	}

	patientName := s.patientName(ctx, patientID)
	test := &models.Test{
		PatientID:   patientID,
		Title:       fmt.Sprintf("Test de Memoria - %s", s.now().Format("02/01/2006")),
		Description: fmt.Sprintf("Test generado automáticamente con IA basado en las memorias de %s", patientName),
		Questions:   questions,
	}
	test.SetCreator(caller.UID, caller.Role)

	created, err := s.tests.CreateTest(ctx, test)
	if err != nil {
		return nil, err
	}
	metrics.TestsCreated.Inc()
	s.log.Info("Test created", "test_id", created.ID, "patient_id", patientID, "questions", created.TotalQuestions)

	if err := s.publisher.PublishTestCreated(ctx, created); err != nil {
		s.log.Warn("Failed to publish test created event", "test_id", created.ID, "error", err)
	}
	return created, nil
}

func (s *TestService) PendingTests(ctx context.Context, caller models.Caller, patientID string) ([]*models.Test, error) {
	if err := s.auth.CanAccessPatient(ctx, caller, patientID); err != nil {
		return nil, err
	}
	tests, err := s.tests.GetPendingTestsForPatient(ctx, patientID)
	if err != nil {
		return nil, err
	}
	for i, test := range tests {
		tests[i] = viewFor(caller, test)
	}
	return tests, nil
}

func (s *TestService) CompletedTests(ctx context.Context, caller models.Caller, patientID string) ([]*models.Test, error) {
	if err := s.auth.CanAccessPatient(ctx, caller, patientID); err != nil {
		return nil, err
	}
	return s.tests.GetCompletedTestsForPatient(ctx, patientID)
}

func (s *TestService) GetTest(ctx context.Context, caller models.Caller, testID string) (*models.Test, error) {
	test, err := s.tests.GetTestByID(ctx, testID)
	if err != nil {
		return nil, err
	}
	if err := s.auth.CanAccessPatient(ctx, caller, test.PatientID); err != nil {
		return nil, err
	}
	return viewFor(caller, test), nil
}

// viewFor withholds the answer key from a patient until the test is completed.
func viewFor(caller models.Caller, test *models.Test) *models.Test {
	if caller.Role == models.RolePatient && !test.IsCompleted() {
		return test.WithoutAnswerKey()
	}
	return test
}

// TestAnswers returns the per-question record of a completed test.
func (s *TestService) TestAnswers(ctx context.Context, caller models.Caller, testID string) (*models.TestAnswers, error) {
	test, err := s.GetTest(ctx, caller, testID)
	if err != nil {
		return nil, err
	}
	if !test.IsCompleted() {
		return nil, apperr.Newf(apperr.KindNotFound, "TestAnswers", "test %s has not been completed", testID)
	}
	return s.tests.GetAnswers(ctx, testID)
}

// CompleteTest grades the patient's answers, writes the narrative and
// commits the result. A test can be completed once; later submissions fail
// with apperr.ErrAlreadyCompleted.
func (s *TestService) CompleteTest(ctx context.Context, caller models.Caller, testID string, answers []models.Answer) (*models.Test, error) {
	test, err := s.tests.GetTestByID(ctx, testID)
	if err != nil {
		return nil, err
	}
	if caller.Role != models.RolePatient || caller.UID != test.PatientID {
		return nil, apperr.New(apperr.KindForbidden, "CompleteTest", "only the patient may complete this test")
	}
	if test.IsCompleted() {
		metrics.TestCompletions.WithLabelValues("already_completed").Inc()
		return nil, apperr.Newf(apperr.KindAlreadyCompleted, "CompleteTest", "test %s is already completed", testID)
	}

	graded, err := GradeAnswers(test, answers)
	if err != nil {
		return nil, err
	}
	score := Score(test, graded)
	totalTime := TotalTime(graded)
	narrative := s.analyzer.Analyze(ctx, score, test.TotalQuestions, totalTime)

	completed, err := s.tests.SubmitCompletion(ctx, testID, graded, score, totalTime, narrative)
	if err != nil {
		if errors.Is(err, apperr.ErrAlreadyCompleted) {
			metrics.TestCompletions.WithLabelValues("already_completed").Inc()
		} else {
			metrics.TestCompletions.WithLabelValues("failure").Inc()
		}
		return nil, err
	}
	metrics.TestCompletions.WithLabelValues("success").Inc()
	s.log.Info("Test completed", "test_id", testID, "score", score, "total", test.TotalQuestions)

	if err := s.publisher.PublishTestCompleted(ctx, completed); err != nil {
		s.log.Warn("Failed to publish test completed event", "test_id", testID, "error", err)
	}
	return completed, nil
}

func (s *TestService) patientName(ctx context.Context, patientID string) string {
	user, err := s.users.GetUser(ctx, patientID)
	if err != nil {
		s.log.Warn("Could not load patient name", "patient_id", patientID, "error", err)
		return models.UnnamedUser
	}
	return user.DisplayName()
}
