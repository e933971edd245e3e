package service

import (
	"context"
	"testing"
	"time"

	"memory-test-service/internal/apperr"
	"memory-test-service/internal/logger"
	"memory-test-service/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func summaries(scores ...int) []models.TestSummary {
	base := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	out := make([]models.TestSummary, 0, len(scores))
	for i, s := range scores {
		out = append(out, models.TestSummary{
			Title:            "Test de Memoria",
			Date:             base.AddDate(0, 0, 7*i),
			Score:            s,
			TotalQuestions:   10,
			TotalTimeSeconds: 100,
		})
	}
	return out
}

func TestComputeReportStats(t *testing.T) {
	tests := []struct {
		name    string
		scores  []int
		average float64
		trend   models.Trend
	}{
		{name: "single test is stable", scores: []int{7}, average: 70, trend: models.TrendStable},
		{name: "improving", scores: []int{6, 8}, average: 70, trend: models.TrendImprovement},
		{name: "declining", scores: []int{9, 5, 4}, average: 60, trend: models.TrendDecline},
		{name: "first equals last", scores: []int{5, 9, 5}, average: 190.0 / 3, trend: models.TrendStable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stats, err := ComputeReportStats(summaries(tt.scores...))
			require.NoError(t, err)
			assert.InDelta(t, tt.average, stats.Average, 1e-9)
			assert.Equal(t, tt.trend, stats.Trend)
			assert.InDelta(t, 10.0, stats.AverageTimeTaken, 1e-9)
		})
	}
}

func TestComputeReportStats_Empty(t *testing.T) {
	_, err := ComputeReportStats(nil)
	assert.ErrorIs(t, err, apperr.ErrInsufficientInput)
}

func TestGenerateReport_FallbackWithoutModel(t *testing.T) {
	g := NewReportGenerator(unconfiguredGateway(), 0.7, logger.NewNop())

	report, err := g.GenerateReport(context.Background(), "Ana", summaries(6, 8))
	require.NoError(t, err)

	assert.Equal(t, models.ReportSourceFallback, report.Source)
	assert.Equal(t, models.TrendImprovement, report.Trend)
	assert.InDelta(t, 70.0, report.AverageScore, 1e-9)
	assert.Equal(t, 2, report.TestsAnalyzed)
	assert.Equal(t, "Ana", report.PatientName)
	assert.Contains(t, report.Markdown, "70.0%")
	assert.Contains(t, report.Markdown, "mejoría")
	for _, section := range []string{
		"## Resumen Ejecutivo",
		"## Análisis de Tendencias",
		"## Evaluación del Rendimiento",
		"## Observaciones Clínicas",
		"## Recomendaciones",
	} {
		assert.Contains(t, report.Markdown, section)
	}
}

func TestGenerateReport_SingleTest(t *testing.T) {
	g := NewReportGenerator(unconfiguredGateway(), 0.7, logger.NewNop())

	report, err := g.GenerateReport(context.Background(), "Luis", summaries(7))
	require.NoError(t, err)
	assert.Equal(t, models.TrendStable, report.Trend)
	assert.Contains(t, report.Markdown, "Puntuación promedio: 70.0%")
	assert.Contains(t, report.Markdown, "| Test de Memoria | 01/03/2025 | 7/10 (70.0%) |")
}

func TestGenerateReport_UsesModel(t *testing.T) {
	backend := &fakeBackend{replies: []fakeReply{{content: "# Informe\n\n## Resumen Ejecutivo\n..."}}}
	g := NewReportGenerator(NewModelGateway(backend, nil, 0, logger.NewNop()), 0.7, logger.NewNop())

	report, err := g.GenerateReport(context.Background(), "Ana", summaries(6, 8))
	require.NoError(t, err)
	assert.Equal(t, models.ReportSourceLLM, report.Source)
	assert.Equal(t, "# Informe\n\n## Resumen Ejecutivo\n...", report.Markdown)
	assert.Equal(t, models.TrendImprovement, report.Trend)

	require.Equal(t, 1, backend.calls())
	assert.Equal(t, reportMaxTokens, backend.requests[0].MaxTokens)
	assert.Contains(t, backend.requests[0].UserPrompt, "Ana")
}

func TestGenerateReport_ModelFailureFallsBack(t *testing.T) {
	for _, reply := range []fakeReply{
		{err: apperr.New(apperr.KindBackend, "Complete", "status 500")},
		{err: apperr.New(apperr.KindRateLimited, "Complete", "status 429")},
		{content: "   "},
	} {
		backend := &fakeBackend{replies: []fakeReply{reply}}
		g := NewReportGenerator(NewModelGateway(backend, nil, 0, logger.NewNop()), 0.7, logger.NewNop())

		report, err := g.GenerateReport(context.Background(), "Ana", summaries(9, 5))
		require.NoError(t, err)
		assert.Equal(t, models.ReportSourceFallback, report.Source)
		assert.Equal(t, models.TrendDecline, report.Trend)
	}
}

func TestGenerateReport_EmptyInput(t *testing.T) {
	g := NewReportGenerator(unconfiguredGateway(), 0.7, logger.NewNop())

	_, err := g.GenerateReport(context.Background(), "Ana", nil)
	assert.ErrorIs(t, err, apperr.ErrInsufficientInput)
}
