package service

import (
	"context"
	"strings"

	"memory-test-service/internal/apperr"
	"memory-test-service/internal/llm"
	"memory-test-service/internal/logger"
	"memory-test-service/internal/models"
)

const (
	analysisMaxTokens = 200
	// AnalysisUnavailable is returned whenever the narrative cannot be produced.
	AnalysisUnavailable = "No se pudo generar el análisis en este momento."
)

// Score counts the questions of test answered correctly. Each question
// counts at most once and answers for unknown questions are ignored, so the
// result does not depend on the order of answers.
func Score(test *models.Test, answers []models.Answer) int {
	correct := make(map[string]bool, len(test.Questions))
	for _, a := range answers {
		q, ok := test.QuestionByID(a.QuestionID)
		if !ok {
			continue
		}
		if a.SelectedOptionIndex == q.CorrectOptionIndex {
			correct[q.ID] = true
		}
	}
	return len(correct)
}

// GradeAnswers checks answers against test and returns them with IsCorrect
// derived from the stored questions. Every answer must reference a distinct
// question of the test with an option index in range and a non-negative time.
func GradeAnswers(test *models.Test, answers []models.Answer) ([]models.Answer, error) {
	if len(answers) == 0 {
		return nil, apperr.New(apperr.KindInvalidInput, "GradeAnswers", "no answers submitted")
	}

	seen := make(map[string]bool, len(answers))
	graded := make([]models.Answer, 0, len(answers))
	for _, a := range answers {
		q, ok := test.QuestionByID(a.QuestionID)
		if !ok {
			return nil, apperr.Newf(apperr.KindInvalidInput, "GradeAnswers", "question %s is not part of test %s", a.QuestionID, test.ID)
		}
		if seen[a.QuestionID] {
			return nil, apperr.Newf(apperr.KindInvalidInput, "GradeAnswers", "question %s answered more than once", a.QuestionID)
		}
		if a.SelectedOptionIndex < 0 || a.SelectedOptionIndex >= len(q.Options) {
			return nil, apperr.Newf(apperr.KindInvalidInput, "GradeAnswers", "option %d out of range for question %s", a.SelectedOptionIndex, a.QuestionID)
		}
		if a.TimeSpentSeconds < 0 {
			return nil, apperr.Newf(apperr.KindInvalidInput, "GradeAnswers", "negative time for question %s", a.QuestionID)
		}
		seen[a.QuestionID] = true

		a.IsCorrect = a.SelectedOptionIndex == q.CorrectOptionIndex
		graded = append(graded, a)
	}
	return graded, nil
}

func TotalTime(answers []models.Answer) int {
	total := 0
	for _, a := range answers {
		total += a.TimeSpentSeconds
	}
	return total
}

type Analyzer struct {
	model       *ModelGateway
	temperature float64
	log         *logger.Logger
}

func NewAnalyzer(model *ModelGateway, temperature float64, log *logger.Logger) *Analyzer {
	return &Analyzer{model: model, temperature: temperature, log: log}
}

// Analyze writes a short narrative about one test result. It never fails:
// without a usable model it returns AnalysisUnavailable.
func (a *Analyzer) Analyze(ctx context.Context, score, total, elapsedSeconds int) string {
	if total <= 0 {
		return AnalysisUnavailable
	}
	percentage := float64(score) / float64(total) * 100
	avg := float64(elapsedSeconds) / float64(total)

	out, err := a.model.Complete(ctx, llm.CompletionRequest{
		SystemPrompt: analysisSystemPrompt,
		UserPrompt:   analysisUserPrompt(score, total, percentage, avg),
		MaxTokens:    analysisMaxTokens,
		Temperature:  a.temperature,
	})
	if err != nil {
		if !apperr.UseFallback(err) {
			a.log.Warn("Result analysis failed", "error", err)
		}
		return AnalysisUnavailable
	}

	out = strings.TrimSpace(out)
	if out == "" {
		return AnalysisUnavailable
	}
	return out
}
