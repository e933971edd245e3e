package service

import (
	"context"
	"testing"

	"memory-test-service/internal/apperr"
	"memory-test-service/internal/logger"
	"memory-test-service/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func twoQuestionTest() *models.Test {
	return &models.Test{
		ID:        "t1",
		PatientID: "p1",
		Questions: []models.Question{
			{ID: "q1", Text: "¿Qué celebración es?", Options: []string{"Boda", "Bautizo", "Cumpleaños", "Navidad"}, CorrectOptionIndex: 2},
			{ID: "q2", Text: "¿Dónde fue?", Options: []string{"Madrid", "Lima", "Quito", "Bogotá"}, CorrectOptionIndex: 0},
		},
		TotalQuestions: 2,
		Status:         models.TestStatusPending,
	}
}

func TestScore(t *testing.T) {
	test := twoQuestionTest()

	tests := []struct {
		name    string
		answers []models.Answer
		want    int
	}{
		{
			name:    "one right one wrong",
			answers: []models.Answer{{QuestionID: "q1", SelectedOptionIndex: 2}, {QuestionID: "q2", SelectedOptionIndex: 3}},
			want:    1,
		},
		{
			name:    "all right",
			answers: []models.Answer{{QuestionID: "q1", SelectedOptionIndex: 2}, {QuestionID: "q2", SelectedOptionIndex: 0}},
			want:    2,
		},
		{
			name:    "repeated correct answer counts once",
			answers: []models.Answer{{QuestionID: "q1", SelectedOptionIndex: 2}, {QuestionID: "q1", SelectedOptionIndex: 2}},
			want:    1,
		},
		{
			name:    "unknown question ignored",
			answers: []models.Answer{{QuestionID: "q9", SelectedOptionIndex: 0}},
			want:    0,
		},
		{
			name: "no answers",
			want: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Score(test, tt.answers))
		})
	}
}

func TestScore_IndependentOfOrder(t *testing.T) {
	test := twoQuestionTest()
	forward := []models.Answer{{QuestionID: "q1", SelectedOptionIndex: 2}, {QuestionID: "q2", SelectedOptionIndex: 1}}
	reversed := []models.Answer{forward[1], forward[0]}

	assert.Equal(t, Score(test, forward), Score(test, reversed))
}

func TestGradeAnswers(t *testing.T) {
	test := twoQuestionTest()

	graded, err := GradeAnswers(test, []models.Answer{
		{QuestionID: "q1", SelectedOptionIndex: 2, TimeSpentSeconds: 12},
		{QuestionID: "q2", SelectedOptionIndex: 3, TimeSpentSeconds: 20, IsCorrect: true},
	})
	require.NoError(t, err)
	require.Len(t, graded, 2)
	assert.True(t, graded[0].IsCorrect)
	assert.False(t, graded[1].IsCorrect, "client supplied correctness is ignored")
	assert.Equal(t, 32, TotalTime(graded))
}

func TestGradeAnswers_Invalid(t *testing.T) {
	test := twoQuestionTest()

	tests := []struct {
		name    string
		answers []models.Answer
	}{
		{name: "empty", answers: nil},
		{name: "unknown question", answers: []models.Answer{{QuestionID: "nope"}}},
		{name: "duplicate question", answers: []models.Answer{{QuestionID: "q1"}, {QuestionID: "q1", SelectedOptionIndex: 1}}},
		{name: "option too large", answers: []models.Answer{{QuestionID: "q1", SelectedOptionIndex: 4}}},
		{name: "negative option", answers: []models.Answer{{QuestionID: "q1", SelectedOptionIndex: -1}}},
		{name: "negative time", answers: []models.Answer{{QuestionID: "q1", TimeSpentSeconds: -3}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := GradeAnswers(test, tt.answers)
			assert.ErrorIs(t, err, apperr.ErrInvalidInput)
		})
	}
}

func TestAnalyze(t *testing.T) {
	t.Run("unconfigured model", func(t *testing.T) {
		a := NewAnalyzer(unconfiguredGateway(), 0.7, logger.NewNop())
		assert.Equal(t, AnalysisUnavailable, a.Analyze(context.Background(), 1, 2, 30))
	})

	t.Run("model answer", func(t *testing.T) {
		backend := &fakeBackend{replies: []fakeReply{{content: "  Buen resultado, siga practicando.  "}}}
		a := NewAnalyzer(NewModelGateway(backend, nil, 0, logger.NewNop()), 0.7, logger.NewNop())

		out := a.Analyze(context.Background(), 2, 4, 60)
		assert.Equal(t, "Buen resultado, siga practicando.", out)
		require.Equal(t, 1, backend.calls())
		assert.Equal(t, analysisMaxTokens, backend.requests[0].MaxTokens)
		assert.Contains(t, backend.requests[0].UserPrompt, "2/4 (50.0%)")
		assert.Contains(t, backend.requests[0].UserPrompt, "15.0 segundos")
	})

	t.Run("model failure", func(t *testing.T) {
		backend := &fakeBackend{replies: []fakeReply{{err: apperr.New(apperr.KindBackend, "Complete", "boom")}}}
		a := NewAnalyzer(NewModelGateway(backend, nil, 0, logger.NewNop()), 0.7, logger.NewNop())
		assert.Equal(t, AnalysisUnavailable, a.Analyze(context.Background(), 2, 4, 60))
	})

	t.Run("no questions", func(t *testing.T) {
		backend := &fakeBackend{}
		a := NewAnalyzer(NewModelGateway(backend, nil, 0, logger.NewNop()), 0.7, logger.NewNop())
		assert.Equal(t, AnalysisUnavailable, a.Analyze(context.Background(), 0, 0, 0))
		assert.Zero(t, backend.calls())
	})
}
