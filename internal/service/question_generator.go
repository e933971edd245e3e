package service

import (
	"context"
	"encoding/json"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"memory-test-service/internal/apperr"
	"memory-test-service/internal/llm"
	"memory-test-service/internal/logger"
	"memory-test-service/internal/metrics"
	"memory-test-service/internal/models"

	"github.com/google/uuid"
)

const questionMaxTokens = 300

type QuestionGeneratorConfig struct {
	Temperature float64
	// CallDelay separates consecutive model calls within one generation.
	CallDelay time.Duration
	// Seed fixes the shuffle sequence; zero seeds from the clock.
	Seed uint64
}

type QuestionGenerator struct {
	model       *ModelGateway
	temperature float64
	callDelay   time.Duration
	log         *logger.Logger

	mu  sync.Mutex
	rng *rand.Rand
}

func NewQuestionGenerator(model *ModelGateway, cfg QuestionGeneratorConfig, log *logger.Logger) *QuestionGenerator {
	seed := cfg.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return &QuestionGenerator{
		model:       model,
		temperature: cfg.Temperature,
		callDelay:   cfg.CallDelay,
		log:         log,
		rng:         rand.New(rand.NewPCG(seed, seed>>1|1)),
	}
}

type generatedQuestion struct {
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer int      `json:"correctAnswer"`
}

// GenerateQuestions returns one question per memory for min(count,
// len(memories)) randomly chosen memories. Model calls run one after the
// other with callDelay between them. Once the model reports exhausted quota
// or is not configured, the remaining memories get template questions; any
// other model failure aborts the whole generation. A done ctx yields
// apperr.ErrCanceled.
func (g *QuestionGenerator) GenerateQuestions(ctx context.Context, memories []*models.Memory, count int) ([]models.Question, error) {
	if len(memories) == 0 {
		return nil, apperr.New(apperr.KindInsufficientInput, "GenerateQuestions", "no memories to generate questions from")
	}
	if count < 1 {
		return nil, apperr.Newf(apperr.KindInvalidInput, "GenerateQuestions", "question count must be positive, got %d", count)
	}
	count = min(count, len(memories))

	selected := g.pick(memories, count)
	questions := make([]models.Question, 0, count)
	useFallback := false

	for i, memory := range selected {
		if !useFallback {
			if i > 0 {
				if err := g.wait(ctx); err != nil {
					return nil, apperr.Wrap(apperr.KindCanceled, "GenerateQuestions", err)
				}
			}

			q, err := g.fromModel(ctx, memory)
			if err == nil {
				metrics.QuestionsGenerated.WithLabelValues("llm").Inc()
				questions = append(questions, q)
				continue
			}
			if !apperr.UseFallback(err) {
				if canceled := apperr.Canceled(ctx, "GenerateQuestions"); canceled != nil {
					return nil, canceled
				}
				return nil, apperr.Wrap(apperr.KindGenerationFailed, "GenerateQuestions", err)
			}

			g.log.Info("Switching to template questions", "reason", apperr.KindOf(err), "generated", len(questions), "remaining", count-i)
			useFallback = true
		}

		metrics.QuestionsGenerated.WithLabelValues("fallback").Inc()
		questions = append(questions, g.fromTemplate(i, memory))
	}

	return questions, nil
}

// pick returns the first count memories of a uniform random permutation.
func (g *QuestionGenerator) pick(memories []*models.Memory, count int) []*models.Memory {
	shuffled := make([]*models.Memory, len(memories))
	copy(shuffled, memories)

	g.mu.Lock()
	g.rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	g.mu.Unlock()

	return shuffled[:count]
}

func (g *QuestionGenerator) wait(ctx context.Context) error {
	if g.callDelay <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(g.callDelay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (g *QuestionGenerator) fromModel(ctx context.Context, memory *models.Memory) (models.Question, error) {
	raw, err := g.model.Complete(ctx, llm.CompletionRequest{
		SystemPrompt: questionSystemPrompt,
		UserPrompt:   questionUserPrompt(memory.Description),
		MaxTokens:    questionMaxTokens,
		Temperature:  g.temperature,
		JSON:         true,
	})
	if err != nil {
		return models.Question{}, err
	}

	var parsed generatedQuestion
	if err := json.Unmarshal([]byte(stripCodeFence(raw)), &parsed); err != nil {
		return models.Question{}, apperr.Wrap(apperr.KindBackend, "failed to parse generated question", err)
	}

	q := models.Question{
		ID:                 newQuestionID(),
		Text:               strings.TrimSpace(parsed.Question),
		Options:            parsed.Options,
		CorrectOptionIndex: parsed.CorrectAnswer,
		SourceMemoryID:     memory.ID,
		ImageRef:           memory.ImageRef,
	}
	if !q.Valid() {
		return models.Question{}, apperr.Newf(apperr.KindBackend, "GenerateQuestions",
			"model returned a malformed question (%d options, correct index %d)", len(parsed.Options), parsed.CorrectAnswer)
	}
	return q, nil
}

// stripCodeFence removes a ```json fence some models wrap around the object.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimPrefix(s, "json")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

func newQuestionID() string {
	return "q_" + uuid.NewString()
}
