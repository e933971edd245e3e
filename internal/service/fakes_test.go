package service

import (
	"bytes"
	"context"
	"io"
	"slices"
	"sync"
	"time"

	"memory-test-service/internal/apperr"
	"memory-test-service/internal/llm"
	"memory-test-service/internal/logger"
	"memory-test-service/internal/models"
)

type fakeReply struct {
	content string
	err     error
}

type fakeBackend struct {
	mu       sync.Mutex
	replies  []fakeReply
	requests []llm.CompletionRequest
}

func (b *fakeBackend) Complete(ctx context.Context, req llm.CompletionRequest) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.requests = append(b.requests, req)
	if len(b.replies) == 0 {
		return "", apperr.New(apperr.KindBackend, "fake", "no reply scripted")
	}
	r := b.replies[0]
	if len(b.replies) > 1 {
		b.replies = b.replies[1:]
	}
	return r.content, r.err
}

func (b *fakeBackend) calls() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.requests)
}

type fakeQuota struct {
	cooling bool
	trips   int
	ttl     time.Duration
}

func (q *fakeQuota) CoolingDown(ctx context.Context) (bool, error) { return q.cooling, nil }

func (q *fakeQuota) Trip(ctx context.Context, ttl time.Duration) error {
	q.trips++
	q.ttl = ttl
	q.cooling = true
	return nil
}

type fakeUsers map[string]*models.User

func (u fakeUsers) GetUser(ctx context.Context, id string) (*models.User, error) {
	user, ok := u[id]
	if !ok {
		return nil, apperr.Newf(apperr.KindNotFound, "GetUser", "user %s not found", id)
	}
	return user, nil
}

type fakeMemories struct {
	mu        sync.Mutex
	byID      map[string]*models.Memory
	nextID    int
	createErr error
	updateErr error
}

func newFakeMemories(memories ...*models.Memory) *fakeMemories {
	f := &fakeMemories{byID: map[string]*models.Memory{}}
	for _, m := range memories {
		f.byID[m.ID] = m
	}
	return f
}

func (f *fakeMemories) ListMemories(ctx context.Context, ownerID string) ([]*models.Memory, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Memory
	for _, m := range f.byID {
		if m.OwnerID == ownerID {
			out = append(out, m)
		}
	}
	slices.SortFunc(out, func(a, b *models.Memory) int { return b.CreatedAt.Compare(a.CreatedAt) })
	return out, nil
}

func (f *fakeMemories) GetMemory(ctx context.Context, id string) (*models.Memory, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.byID[id]
	if !ok {
		return nil, apperr.Newf(apperr.KindNotFound, "GetMemory", "memory %s not found", id)
	}
	cp := *m
	return &cp, nil
}

func (f *fakeMemories) Create(ctx context.Context, memory *models.Memory) (*models.Memory, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.nextID++
	memory.ID = "mem-new-" + string(rune('0'+f.nextID))
	memory.CreatedAt = time.Now()
	f.byID[memory.ID] = memory
	return memory, nil
}

func (f *fakeMemories) Update(ctx context.Context, id, description string, status models.MemoryStatus, imageRef string) (*models.Memory, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	m, ok := f.byID[id]
	if !ok {
		return nil, apperr.Newf(apperr.KindNotFound, "UpdateMemory", "memory %s not found", id)
	}
	m.Description = description
	if status != "" {
		m.Status = status
	}
	if imageRef != "" {
		m.ImageRef = imageRef
	}
	cp := *m
	return &cp, nil
}

func (f *fakeMemories) Delete(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byID[id]; !ok {
		return apperr.Newf(apperr.KindNotFound, "DeleteMemory", "memory %s not found", id)
	}
	delete(f.byID, id)
	return nil
}

type fakeImages struct {
	objects map[string][]byte
	removed []string
}

func newFakeImages() *fakeImages {
	return &fakeImages{objects: map[string][]byte{}}
}

func (f *fakeImages) Put(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error {
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, reader); err != nil {
		return err
	}
	f.objects[key] = buf.Bytes()
	return nil
}

func (f *fakeImages) Remove(ctx context.Context, key string) error {
	f.removed = append(f.removed, key)
	delete(f.objects, key)
	return nil
}

func (f *fakeImages) PresignedURL(ctx context.Context, key string, expiry time.Duration) (string, error) {
	return "https://storage.example/" + key, nil
}

// fakeTests mirrors the write-once completion of the Mongo repository.
type fakeTests struct {
	mu      sync.Mutex
	byID    map[string]*models.Test
	answers map[string]*models.TestAnswers
	nextID  int
}

func newFakeTests(tests ...*models.Test) *fakeTests {
	f := &fakeTests{byID: map[string]*models.Test{}, answers: map[string]*models.TestAnswers{}}
	for _, t := range tests {
		f.byID[t.ID] = t
	}
	return f
}

func (f *fakeTests) CreateTest(ctx context.Context, test *models.Test) (*models.Test, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	test.ID = "test-" + string(rune('a'+f.nextID-1))
	test.Status = models.TestStatusPending
	test.TotalQuestions = len(test.Questions)
	test.CreatedAt = time.Now()
	cp := *test
	f.byID[test.ID] = &cp
	return test, nil
}

func (f *fakeTests) GetTestByID(ctx context.Context, id string) (*models.Test, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.byID[id]
	if !ok {
		return nil, apperr.Newf(apperr.KindNotFound, "GetTestByID", "test %s not found", id)
	}
	cp := *t
	return &cp, nil
}

func (f *fakeTests) byStatus(patientID string, status models.TestStatus) []*models.Test {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Test
	for _, t := range f.byID {
		if t.PatientID == patientID && t.Status == status {
			cp := *t
			out = append(out, &cp)
		}
	}
	slices.SortFunc(out, func(a, b *models.Test) int { return b.CreatedAt.Compare(a.CreatedAt) })
	return out
}

func (f *fakeTests) GetPendingTestsForPatient(ctx context.Context, patientID string) ([]*models.Test, error) {
	return f.byStatus(patientID, models.TestStatusPending), nil
}

func (f *fakeTests) GetCompletedTestsForPatient(ctx context.Context, patientID string) ([]*models.Test, error) {
	return f.byStatus(patientID, models.TestStatusCompleted), nil
}

func (f *fakeTests) CountCompletedTestsForPatient(ctx context.Context, patientID string) (int, error) {
	return len(f.byStatus(patientID, models.TestStatusCompleted)), nil
}

func (f *fakeTests) SubmitCompletion(ctx context.Context, testID string, answers []models.Answer, score, totalTimeSeconds int, narrative string) (*models.Test, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.byID[testID]
	if !ok {
		return nil, apperr.Newf(apperr.KindNotFound, "SubmitCompletion", "test %s not found", testID)
	}
	if t.IsCompleted() {
		return nil, apperr.Newf(apperr.KindAlreadyCompleted, "SubmitCompletion", "test %s is already completed", testID)
	}
	now := time.Now()
	t.Status = models.TestStatusCompleted
	t.CompletedAt = &now
	t.Result = &models.Result{
		Score:             score,
		TotalQuestions:    t.TotalQuestions,
		TotalTimeSeconds:  totalTimeSeconds,
		NarrativeAnalysis: narrative,
	}
	f.answers[testID] = &models.TestAnswers{TestID: testID, PatientID: t.PatientID, Answers: answers, CreatedAt: now}
	cp := *t
	return &cp, nil
}

func (f *fakeTests) GetAnswers(ctx context.Context, testID string) (*models.TestAnswers, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.answers[testID]
	if !ok {
		return nil, apperr.Newf(apperr.KindNotFound, "GetAnswers", "answers for test %s not found", testID)
	}
	return a, nil
}

type fakeReports struct {
	records []*models.ReportRecord
}

func (f *fakeReports) Create(ctx context.Context, record *models.ReportRecord) error {
	f.records = append(f.records, record)
	return nil
}

func (f *fakeReports) ListByPatient(ctx context.Context, patientID string) ([]*models.ReportRecord, error) {
	var out []*models.ReportRecord
	for _, r := range f.records {
		if r.PatientID == patientID {
			out = append(out, r)
		}
	}
	return out, nil
}

type fakePublisher struct {
	mu      sync.Mutex
	created []string
	done    []string
	deleted []string
}

func (p *fakePublisher) PublishTestCreated(ctx context.Context, test *models.Test) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.created = append(p.created, test.ID)
	return nil
}

func (p *fakePublisher) PublishTestCompleted(ctx context.Context, test *models.Test) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.done = append(p.done, test.ID)
	return nil
}

func (p *fakePublisher) PublishMemoryDeleted(ctx context.Context, memory *models.Memory, deletedBy string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.deleted = append(p.deleted, memory.ID)
	return nil
}

func (p *fakePublisher) Close() error { return nil }

func photoMemories(ownerID string, descriptions ...string) []*models.Memory {
	base := time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)
	out := make([]*models.Memory, 0, len(descriptions))
	for i, d := range descriptions {
		out = append(out, &models.Memory{
			ID:          "mem-" + string(rune('1'+i)),
			OwnerID:     ownerID,
			ImageRef:    "memories/" + ownerID + "/" + string(rune('1'+i)) + ".jpg",
			Description: d,
			CreatedAt:   base.Add(time.Duration(i) * time.Hour),
			Status:      models.MemoryStatusActive,
		})
	}
	return out
}

func unconfiguredGateway() *ModelGateway {
	return NewModelGateway(nil, nil, 0, logger.NewNop())
}
