package models

import "time"

type TestStatus string

const (
	TestStatusPending   TestStatus = "pending"
	TestStatusCompleted TestStatus = "completed"
)

// Test is a set of questions assigned to one patient. A completed test
// always carries CompletedAt and Result and is never modified again.
type Test struct {
	ID             string     `bson:"_id,omitempty" json:"id"`
	PatientID      string     `bson:"patient_id" json:"patient_id"`
	CaregiverID    string     `bson:"caregiver_id,omitempty" json:"caregiver_id,omitempty"`
	DoctorID       string     `bson:"doctor_id,omitempty" json:"doctor_id,omitempty"`
	CreatorRole    Role       `bson:"creator_role" json:"creator_role"`
	Title          string     `bson:"title" json:"title"`
	Description    string     `bson:"description,omitempty" json:"description,omitempty"`
	Questions      []Question `bson:"questions" json:"questions"`
	TotalQuestions int        `bson:"total_questions" json:"total_questions"`
	Status         TestStatus `bson:"status" json:"status"`
	CreatedAt      time.Time  `bson:"created_at" json:"created_at"`
	CompletedAt    *time.Time `bson:"completed_at,omitempty" json:"completed_at,omitempty"`
	Result         *Result    `bson:"result,omitempty" json:"result,omitempty"`
}

type Result struct {
	Score             int    `bson:"score" json:"score"`
	TotalQuestions    int    `bson:"total_questions" json:"total_questions"`
	TotalTimeSeconds  int    `bson:"total_time_seconds" json:"total_time_seconds"`
	NarrativeAnalysis string `bson:"narrative_analysis" json:"narrative_analysis"`
}

// CreatorID returns whichever of CaregiverID or DoctorID is set.
func (t *Test) CreatorID() string {
	if t.CreatorRole == RoleDoctor {
		return t.DoctorID
	}
	return t.CaregiverID
}

// SetCreator stamps the creator id into the field that matches role.
func (t *Test) SetCreator(creatorID string, role Role) {
	t.CreatorRole = role
	t.CaregiverID, t.DoctorID = "", ""
	switch role {
	case RoleDoctor:
		t.DoctorID = creatorID
	case RoleCaregiver:
		t.CaregiverID = creatorID
	}
}

func (t *Test) IsCompleted() bool {
	return t.Status == TestStatusCompleted
}

func (t *Test) QuestionByID(id string) (Question, bool) {
	for _, q := range t.Questions {
		if q.ID == id {
			return q, true
		}
	}
	return Question{}, false
}

// WithoutAnswerKey returns a copy of t whose questions do not reveal the
// correct option. t itself is left untouched.
func (t *Test) WithoutAnswerKey() *Test {
	cp := *t
	cp.Questions = make([]Question, len(t.Questions))
	for i, q := range t.Questions {
		q.Options = append([]string(nil), q.Options...)
		q.CorrectOptionIndex = HiddenOptionIndex
		cp.Questions[i] = q
	}
	return &cp
}
