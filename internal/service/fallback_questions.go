package service

import (
	"strings"

	"memory-test-service/internal/models"
)

type questionTemplate struct {
	text        string
	distractors []string
}

var questionTemplates = []questionTemplate{
	{
		text:        "¿Recuerdas qué había en esta foto?",
		distractors: []string{"Una celebración familiar", "Un día en el parque", "Una comida especial"},
	},
	{
		text:        "¿Qué momento representa esta imagen?",
		distractors: []string{"Un viaje a la playa", "Una reunión de amigos", "Un evento importante"},
	},
	{
		text:        "Esta foto muestra...",
		distractors: []string{"Un recuerdo familiar", "Una ocasión especial", "Un lugar significativo"},
	},
}

// fromTemplate builds a question without the model. The template rotates
// with index and the memory's own description is always the right answer.
func (g *QuestionGenerator) fromTemplate(index int, memory *models.Memory) models.Question {
	tpl := questionTemplates[index%len(questionTemplates)]

	options := make([]string, 0, models.OptionsPerQuestion)
	options = append(options, memory.Description)
	options = append(options, pickDistractors(index, memory.Description, models.OptionsPerQuestion-1)...)

	g.mu.Lock()
	g.rng.Shuffle(len(options), func(i, j int) {
		options[i], options[j] = options[j], options[i]
	})
	g.mu.Unlock()

	correct := 0
	for i, opt := range options {
		if opt == memory.Description {
			correct = i
			break
		}
	}

	return models.Question{
		ID:                 newQuestionID(),
		Text:               tpl.text,
		Options:            options,
		CorrectOptionIndex: correct,
		SourceMemoryID:     memory.ID,
		ImageRef:           memory.ImageRef,
	}
}

// pickDistractors walks the distractor pool starting at the template for
// index, cycling through the other templates, and skips anything equal to
// the correct answer or already chosen.
func pickDistractors(index int, correct string, n int) []string {
	var pool []string
	for i := range questionTemplates {
		pool = append(pool, questionTemplates[(index+i)%len(questionTemplates)].distractors...)
	}

	picked := make([]string, 0, n)
	seen := map[string]bool{normalizeOption(correct): true}
	for _, d := range pool {
		if len(picked) == n {
			break
		}
		key := normalizeOption(d)
		if seen[key] {
			continue
		}
		seen[key] = true
		picked = append(picked, d)
	}
	return picked
}

func normalizeOption(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
