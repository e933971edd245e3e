package models

import "encoding/json"

// OptionsPerQuestion is the fixed number of choices every question carries.
const OptionsPerQuestion = 4

// HiddenOptionIndex replaces the correct option index on questions shown to
// a patient before the test is completed.
const HiddenOptionIndex = -1

type Question struct {
	ID                 string   `bson:"id" json:"id"`
	Text               string   `bson:"text" json:"text"`
	Options            []string `bson:"options" json:"options"`
	CorrectOptionIndex int      `bson:"correct_option_index" json:"correct_option_index"`
	SourceMemoryID     string   `bson:"source_memory_id" json:"source_memory_id"`
	ImageRef           string   `bson:"image_ref" json:"image_ref"`
}

func (q *Question) Valid() bool {
	return q.Text != "" &&
		len(q.Options) == OptionsPerQuestion &&
		q.CorrectOptionIndex >= 0 &&
		q.CorrectOptionIndex < OptionsPerQuestion
}

func (q *Question) CorrectOption() string {
	if q.CorrectOptionIndex < 0 || q.CorrectOptionIndex >= len(q.Options) {
		return ""
	}
	return q.Options[q.CorrectOptionIndex]
}

func (q *Question) AnswerHidden() bool {
	return q.CorrectOptionIndex == HiddenOptionIndex
}

// MarshalJSON leaves correct_option_index out when the answer is hidden.
func (q Question) MarshalJSON() ([]byte, error) {
	type plain Question
	if !q.AnswerHidden() {
		return json.Marshal(plain(q))
	}
	return json.Marshal(struct {
		plain
		CorrectOptionIndex *int `json:"correct_option_index,omitempty"`
	}{plain: plain(q)})
}
