package service

import (
	"context"
	"errors"
	"slices"

	"memory-test-service/internal/apperr"
	"memory-test-service/internal/logger"
	"memory-test-service/internal/metrics"
	"memory-test-service/internal/models"

	"golang.org/x/sync/errgroup"
)

const overviewConcurrency = 4

type ReportService struct {
	tests     TestRepository
	users     UserDirectory
	records   ReportRepository
	auth      *Authorizer
	generator *ReportGenerator
	minTests  int
	log       *logger.Logger
}

func NewReportService(
	tests TestRepository,
	users UserDirectory,
	records ReportRepository,
	auth *Authorizer,
	generator *ReportGenerator,
	minTests int,
	log *logger.Logger,
) *ReportService {
	if minTests < 1 {
		minTests = 1
	}
	return &ReportService{
		tests:     tests,
		users:     users,
		records:   records,
		auth:      auth,
		generator: generator,
		minTests:  minTests,
		log:       log,
	}
}

// PatientReport summarizes every completed test of patientID, oldest first.
func (s *ReportService) PatientReport(ctx context.Context, caller models.Caller, patientID string) (*models.Report, error) {
	if err := s.auth.RequireCareProvider(caller); err != nil {
		return nil, err
	}
	if err := s.auth.CanAccessPatient(ctx, caller, patientID); err != nil {
		return nil, err
	}

	completed, err := s.tests.GetCompletedTestsForPatient(ctx, patientID)
	if err != nil {
		return nil, err
	}
	if len(completed) < s.minTests {
		return nil, apperr.Newf(apperr.KindInsufficientInput, "PatientReport",
			"se necesitan al menos %d tests completados para generar un reporte (hay %d)", s.minTests, len(completed))
	}

	name := models.UnnamedUser
	if user, err := s.users.GetUser(ctx, patientID); err == nil {
		name = user.DisplayName()
	} else if !errors.Is(err, apperr.ErrNotFound) {
		return nil, err
	}

	report, err := s.generator.GenerateReport(ctx, name, summarize(completed))
	if err != nil {
		return nil, err
	}
	report.PatientID = patientID
	metrics.ReportsGenerated.WithLabelValues(string(report.Source)).Inc()

	record := &models.ReportRecord{
		PatientID:     patientID,
		RequestedBy:   caller.UID,
		TestsAnalyzed: report.TestsAnalyzed,
		AverageScore:  report.AverageScore,
		Trend:         report.Trend,
		Source:        report.Source,
		CreatedAt:     report.GeneratedAt,
	}
	if err := s.records.Create(ctx, record); err != nil {
		s.log.Warn("Failed to record report generation", "patient_id", patientID, "error", err)
	}

	return report, nil
}

func (s *ReportService) History(ctx context.Context, caller models.Caller, patientID string) ([]*models.ReportRecord, error) {
	if err := s.auth.RequireCareProvider(caller); err != nil {
		return nil, err
	}
	if err := s.auth.CanAccessPatient(ctx, caller, patientID); err != nil {
		return nil, err
	}
	return s.records.ListByPatient(ctx, patientID)
}

// Overview lists the caller's patients with their completed test counts.
// Lookups for different patients run concurrently.
func (s *ReportService) Overview(ctx context.Context, caller models.Caller) ([]models.PatientReportStatus, error) {
	patientIDs, err := s.auth.PatientsOf(ctx, caller)
	if err != nil {
		return nil, err
	}

	statuses := make([]models.PatientReportStatus, len(patientIDs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(overviewConcurrency)

	for i, id := range patientIDs {
		g.Go(func() error {
			name := models.UnnamedUser
			user, err := s.users.GetUser(gctx, id)
			switch {
			case err == nil:
				name = user.DisplayName()
			case !errors.Is(err, apperr.ErrNotFound):
				return err
			}

			n, err := s.tests.CountCompletedTestsForPatient(gctx, id)
			if err != nil {
				return err
			}

			statuses[i] = models.PatientReportStatus{
				PatientID:         id,
				PatientName:       name,
				CompletedTests:    n,
				CanGenerateReport: n >= s.minTests,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return statuses, nil
}

// summarize orders completed tests chronologically by completion time.
func summarize(tests []*models.Test) []models.TestSummary {
	ordered := slices.Clone(tests)
	slices.SortStableFunc(ordered, func(a, b *models.Test) int {
		return completionTime(a).Compare(completionTime(b))
	})

	summaries := make([]models.TestSummary, 0, len(ordered))
	for _, t := range ordered {
		s := models.TestSummary{
			Title:          t.Title,
			Date:           completionTime(t),
			TotalQuestions: t.TotalQuestions,
		}
		if t.Result != nil {
			s.Score = t.Result.Score
			s.TotalTimeSeconds = t.Result.TotalTimeSeconds
			if t.Result.TotalQuestions > 0 {
				s.TotalQuestions = t.Result.TotalQuestions
			}
		}
		summaries = append(summaries, s)
	}
	return summaries
}
