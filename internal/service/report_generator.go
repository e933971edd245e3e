package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"memory-test-service/internal/apperr"
	"memory-test-service/internal/llm"
	"memory-test-service/internal/logger"
	"memory-test-service/internal/models"
)

const reportMaxTokens = 1000

var reportRecommendations = []string{
	"Continuar con tests de memoria de forma regular, idealmente una vez por semana.",
	"Incorporar nuevas fotografías de momentos significativos para mantener el material actualizado.",
	"Revisar los recuerdos junto al paciente en un ambiente tranquilo y sin prisas.",
	"Mantener rutinas diarias estables que refuercen la orientación temporal.",
	"Consultar con el especialista ante cambios bruscos en los resultados.",
}

// ReportStats are the arithmetic aggregates a report is built from.
// Percentages are used so tests with different lengths compare fairly.
type ReportStats struct {
	Average          float64
	Min              float64
	Max              float64
	First            float64
	Last             float64
	Trend            models.Trend
	AverageTimeTaken float64
}

// ComputeReportStats requires a non-empty, chronologically ordered slice.
func ComputeReportStats(tests []models.TestSummary) (ReportStats, error) {
	if len(tests) == 0 {
		return ReportStats{}, apperr.New(apperr.KindInsufficientInput, "ComputeReportStats", "no completed tests to summarize")
	}

	stats := ReportStats{
		Min:   tests[0].Percentage(),
		Max:   tests[0].Percentage(),
		First: tests[0].Percentage(),
		Last:  tests[len(tests)-1].Percentage(),
	}

	var sum float64
	var totalTime, totalQuestions int
	for _, t := range tests {
		p := t.Percentage()
		sum += p
		stats.Min = min(stats.Min, p)
		stats.Max = max(stats.Max, p)
		totalTime += t.TotalTimeSeconds
		totalQuestions += t.TotalQuestions
	}
	stats.Average = sum / float64(len(tests))
	if totalQuestions > 0 {
		stats.AverageTimeTaken = float64(totalTime) / float64(totalQuestions)
	}

	switch {
	case stats.Last > stats.First:
		stats.Trend = models.TrendImprovement
	case stats.Last < stats.First:
		stats.Trend = models.TrendDecline
	default:
		stats.Trend = models.TrendStable
	}
	return stats, nil
}

type ReportGenerator struct {
	model       *ModelGateway
	temperature float64
	log         *logger.Logger
	now         func() time.Time
}

func NewReportGenerator(model *ModelGateway, temperature float64, log *logger.Logger) *ReportGenerator {
	return &ReportGenerator{
		model:       model,
		temperature: temperature,
		log:         log,
		now:         time.Now,
	}
}

// GenerateReport produces a markdown progress report. The model is asked
// first; if it is unavailable or fails for any reason the deterministic
// report is returned instead, so the only error is empty input.
func (g *ReportGenerator) GenerateReport(ctx context.Context, patientName string, tests []models.TestSummary) (*models.Report, error) {
	stats, err := ComputeReportStats(tests)
	if err != nil {
		return nil, err
	}

	report := &models.Report{
		PatientName:   patientName,
		Trend:         stats.Trend,
		AverageScore:  stats.Average,
		TestsAnalyzed: len(tests),
		GeneratedAt:   g.now().UTC(),
	}

	markdown, err := g.fromModel(ctx, patientName, tests)
	if err == nil {
		report.Markdown = markdown
		report.Source = models.ReportSourceLLM
		return report, nil
	}
	if !apperr.UseFallback(err) {
		g.log.Warn("Report generation failed, using fallback", "error", err)
	}

	report.Markdown = FallbackReport(patientName, tests, stats)
	report.Source = models.ReportSourceFallback
	return report, nil
}

func (g *ReportGenerator) fromModel(ctx context.Context, patientName string, tests []models.TestSummary) (string, error) {
	payload, err := json.MarshalIndent(tests, "", "  ")
	if err != nil {
		return "", apperr.Wrap(apperr.KindBackend, "failed to encode test summaries", err)
	}

	out, err := g.model.Complete(ctx, llm.CompletionRequest{
		SystemPrompt: reportSystemPrompt,
		UserPrompt:   reportUserPrompt(patientName, string(payload)),
		MaxTokens:    reportMaxTokens,
		Temperature:  g.temperature,
	})
	if err != nil {
		return "", err
	}
	out = strings.TrimSpace(out)
	if out == "" {
		return "", apperr.New(apperr.KindBackend, "GenerateReport", "empty report")
	}
	return out, nil
}

// FallbackReport renders the fixed-structure report from stats alone.
func FallbackReport(patientName string, tests []models.TestSummary, stats ReportStats) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Informe de Progreso Cognitivo - %s\n\n", patientName)

	b.WriteString("## Resumen Ejecutivo\n\n")
	fmt.Fprintf(&b, "Se analizaron %d tests de memoria completados. La puntuación promedio fue de %.1f%% y la tendencia general es de **%s**.\n\n",
		len(tests), stats.Average, stats.Trend)

	b.WriteString("## Análisis de Tendencias\n\n")
	fmt.Fprintf(&b, "El primer test registró %.1f%% y el más reciente %.1f%%. %s\n\n",
		stats.First, stats.Last, trendSentence(stats.Trend))

	b.WriteString("## Evaluación del Rendimiento\n\n")
	fmt.Fprintf(&b, "- Puntuación promedio: %.1f%%\n", stats.Average)
	fmt.Fprintf(&b, "- Puntuación máxima: %.1f%%\n", stats.Max)
	fmt.Fprintf(&b, "- Puntuación mínima: %.1f%%\n", stats.Min)
	fmt.Fprintf(&b, "- Tiempo promedio por pregunta: %.1f segundos\n\n", stats.AverageTimeTaken)

	b.WriteString("| Test | Fecha | Resultado |\n|---|---|---|\n")
	for _, t := range tests {
		fmt.Fprintf(&b, "| %s | %s | %d/%d (%.1f%%) |\n",
			t.Title, t.Date.Format("02/01/2006"), t.Score, t.TotalQuestions, t.Percentage())
	}
	b.WriteString("\n")

	b.WriteString("## Observaciones Clínicas\n\n")
	b.WriteString(observationSentence(stats))
	b.WriteString("\n\n")

	b.WriteString("## Recomendaciones\n\n")
	for _, r := range reportRecommendations {
		fmt.Fprintf(&b, "- %s\n", r)
	}

	return b.String()
}

func trendSentence(trend models.Trend) string {
	switch trend {
	case models.TrendImprovement:
		return "Los resultados muestran una mejoría respecto al inicio del seguimiento."
	case models.TrendDecline:
		return "Los resultados muestran un declive respecto al inicio del seguimiento."
	default:
		return "Los resultados se mantienen estables a lo largo del seguimiento."
	}
}

func observationSentence(stats ReportStats) string {
	spread := stats.Max - stats.Min
	switch {
	case stats.Average >= 80:
		return "El paciente reconoce la mayoría de sus recuerdos con facilidad."
	case stats.Average >= 50:
		if spread >= 40 {
			return "El reconocimiento de recuerdos es parcial y varía notablemente entre sesiones."
		}
		return "El reconocimiento de recuerdos es parcial pero consistente entre sesiones."
	default:
		return "El paciente presenta dificultades para reconocer la mayoría de sus recuerdos; se sugiere valoración especializada."
	}
}
