package models

import "time"

type Trend string

const (
	TrendImprovement Trend = "mejoría"
	TrendStable      Trend = "estable"
	TrendDecline     Trend = "declive"
)

type ReportSource string

const (
	ReportSourceLLM      ReportSource = "llm"
	ReportSourceFallback ReportSource = "fallback"
)

// TestSummary is the slice of a completed test the report generator reads.
type TestSummary struct {
	Title            string    `json:"title"`
	Date             time.Time `json:"date"`
	Score            int       `json:"score"`
	TotalQuestions   int       `json:"total_questions"`
	TotalTimeSeconds int       `json:"total_time_seconds"`
}

// Percentage is the share of correct answers, 0 when the test had no questions.
func (s TestSummary) Percentage() float64 {
	if s.TotalQuestions <= 0 {
		return 0
	}
	return float64(s.Score) / float64(s.TotalQuestions) * 100
}

// Report is generated on demand and never stored.
type Report struct {
	PatientID     string       `json:"patient_id,omitempty"`
	PatientName   string       `json:"patient_name"`
	Markdown      string       `json:"narrative_markdown"`
	Trend         Trend        `json:"trend"`
	AverageScore  float64      `json:"average_score"`
	TestsAnalyzed int          `json:"tests_analyzed"`
	GeneratedAt   time.Time    `json:"generated_at"`
	Source        ReportSource `json:"source"`
}

// ReportRecord is the audit trail left behind each time a report is produced.
type ReportRecord struct {
	ID            string       `bson:"_id,omitempty" json:"id"`
	PatientID     string       `bson:"patient_id" json:"patient_id"`
	RequestedBy   string       `bson:"requested_by" json:"requested_by"`
	TestsAnalyzed int          `bson:"tests_analyzed" json:"tests_analyzed"`
	AverageScore  float64      `bson:"average_score" json:"average_score"`
	Trend         Trend        `bson:"trend" json:"trend"`
	Source        ReportSource `bson:"source" json:"source"`
	CreatedAt     time.Time    `bson:"created_at" json:"created_at"`
}

type PatientReportStatus struct {
	PatientID         string `json:"patient_id"`
	PatientName       string `json:"patient_name"`
	CompletedTests    int    `json:"completed_tests"`
	CanGenerateReport bool   `json:"can_generate_report"`
}
