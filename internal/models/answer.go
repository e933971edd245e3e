package models

import "time"

type Answer struct {
	QuestionID          string `bson:"question_id" json:"question_id"`
	SelectedOptionIndex int    `bson:"selected_option_index" json:"selected_option_index"`
	IsCorrect           bool   `bson:"is_correct" json:"is_correct"`
	TimeSpentSeconds    int    `bson:"time_spent_seconds" json:"time_spent_seconds"`
}

// TestAnswers is the per-question record stored next to a completed test.
type TestAnswers struct {
	ID        string    `bson:"_id,omitempty" json:"id"`
	TestID    string    `bson:"test_id" json:"test_id"`
	PatientID string    `bson:"patient_id" json:"patient_id"`
	Answers   []Answer  `bson:"answers" json:"answers"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}
