package service

import (
	"context"
	"database/sql"
	"log/slog"
	"os"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/lexa-learn/lexa-api/internal/domain"
	"github.com/lexa-learn/lexa-api/internal/store"
)

func setupTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	}))
}

// memCardStore is an in-memory store.CardStore.
type memCardStore struct {
	mu    sync.Mutex
	cards map[uuid.UUID]*domain.Card
	err   error
}

func newMemCardStore() *memCardStore {
	return &memCardStore{cards: make(map[uuid.UUID]*domain.Card)}
}

func (s *memCardStore) add(cards ...*domain.Card) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, card := range cards {
		s.cards[card.ID] = card
	}
}

func (s *memCardStore) CreateMultiple(ctx context.Context, cards []*domain.Card) error {
	if s.err != nil {
		return s.err
	}
	s.add(cards...)
	return nil
}

func (s *memCardStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Card, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	card, ok := s.cards[id]
	if !ok {
		return nil, store.ErrCardNotFound
	}
	return card, nil
}

func (s *memCardStore) ListByChapter(ctx context.Context, chapterID uuid.UUID) ([]*domain.Card, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}

	phase := map[domain.CardType]int{
		domain.CardTypeFlashcard: 0,
		domain.CardTypeQuiz:      1,
		domain.CardTypeSummary:   2,
	}

	var cards []*domain.Card
	for _, card := range s.cards {
		if card.ChapterID == chapterID {
			cards = append(cards, card)
		}
	}
	sort.Slice(cards, func(i, j int) bool {
		if phase[cards[i].Type] != phase[cards[j].Type] {
			return phase[cards[i].Type] < phase[cards[j].Type]
		}
		return cards[i].Position < cards[j].Position
	})
	return cards, nil
}

func (s *memCardStore) WithTx(tx *sql.Tx) store.CardStore { return s }

// memReviewStore is an in-memory store.ReviewStateStore.
type memReviewStore struct {
	mu     sync.Mutex
	states map[uuid.UUID]map[uuid.UUID]*domain.ReviewState // userID -> cardID -> state
	err    error
}

func newMemReviewStore() *memReviewStore {
	return &memReviewStore{states: make(map[uuid.UUID]map[uuid.UUID]*domain.ReviewState)}
}

func (s *memReviewStore) Get(ctx context.Context, userID, cardID uuid.UUID) (*domain.ReviewState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	state, ok := s.states[userID][cardID]
	if !ok {
		return nil, store.ErrReviewStateNotFound
	}
	copied := *state
	return &copied, nil
}

func (s *memReviewStore) Save(ctx context.Context, state *domain.ReviewState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	if s.states[state.UserID] == nil {
		s.states[state.UserID] = make(map[uuid.UUID]*domain.ReviewState)
	}
	copied := *state
	s.states[state.UserID][state.CardID] = &copied
	return nil
}

func (s *memReviewStore) ListForCards(ctx context.Context, userID uuid.UUID, cardIDs []uuid.UUID) (map[uuid.UUID]*domain.ReviewState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	result := make(map[uuid.UUID]*domain.ReviewState)
	for _, cardID := range cardIDs {
		if state, ok := s.states[userID][cardID]; ok {
			copied := *state
			result[cardID] = &copied
		}
	}
	return result, nil
}

// memProgressStore is an in-memory store.ChapterProgressStore.
type memProgressStore struct {
	mu      sync.Mutex
	records map[uuid.UUID]map[uuid.UUID]*domain.ChapterProgress // userID -> chapterID
	err     error
}

func newMemProgressStore() *memProgressStore {
	return &memProgressStore{records: make(map[uuid.UUID]map[uuid.UUID]*domain.ChapterProgress)}
}

func (s *memProgressStore) Get(ctx context.Context, userID, chapterID uuid.UUID) (*domain.ChapterProgress, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	progress, ok := s.records[userID][chapterID]
	if !ok {
		return nil, store.ErrChapterProgressNotFound
	}
	copied := *progress
	return &copied, nil
}

func (s *memProgressStore) Save(ctx context.Context, progress *domain.ChapterProgress) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	if s.records[progress.UserID] == nil {
		s.records[progress.UserID] = make(map[uuid.UUID]*domain.ChapterProgress)
	}
	copied := *progress
	s.records[progress.UserID][progress.ChapterID] = &copied
	return nil
}

// memUploadStore is an in-memory store.UploadStore.
type memUploadStore struct {
	mu      sync.Mutex
	uploads map[uuid.UUID]*domain.Upload
	err     error
}

func newMemUploadStore() *memUploadStore {
	return &memUploadStore{uploads: make(map[uuid.UUID]*domain.Upload)}
}

func (s *memUploadStore) Create(ctx context.Context, upload *domain.Upload) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.uploads[upload.ID] = upload
	return nil
}

func (s *memUploadStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Upload, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	upload, ok := s.uploads[id]
	if !ok {
		return nil, store.ErrUploadNotFound
	}
	return upload, nil
}

// memJobStore is an in-memory store.UploadJobStore.
type memJobStore struct {
	mu   sync.Mutex
	jobs map[uuid.UUID]*domain.UploadJob
	err  error
}

func newMemJobStore() *memJobStore {
	return &memJobStore{jobs: make(map[uuid.UUID]*domain.UploadJob)}
}

func (s *memJobStore) Create(ctx context.Context, job *domain.UploadJob) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	copied := *job
	s.jobs[job.ID] = &copied
	return nil
}

func (s *memJobStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.UploadJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[id]
	if !ok {
		return nil, store.ErrJobNotFound
	}
	copied := *job
	return &copied, nil
}

func (s *memJobStore) ListByUpload(ctx context.Context, uploadID uuid.UUID) ([]*domain.UploadJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var jobs []*domain.UploadJob
	for _, job := range s.jobs {
		if job.UploadID == uploadID {
			copied := *job
			jobs = append(jobs, &copied)
		}
	}
	sort.Slice(jobs, func(i, j int) bool { return jobs[i].CreatedAt.Before(jobs[j].CreatedAt) })
	return jobs, nil
}

func (s *memJobStore) ListUnfinished(ctx context.Context) ([]*domain.UploadJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var jobs []*domain.UploadJob
	for _, job := range s.jobs {
		if !job.IsTerminal() {
			copied := *job
			jobs = append(jobs, &copied)
		}
	}
	return jobs, nil
}

func (s *memJobStore) Apply(ctx context.Context, id uuid.UUID, update store.JobUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[id]
	if !ok {
		return store.ErrJobNotFound
	}
	if job.IsTerminal() {
		return store.ErrUpdateFailed
	}
	if update.Status != nil {
		job.Status = *update.Status
	}
	if update.Progress != nil {
		job.Progress = *update.Progress
	}
	if update.Result != nil {
		job.Result = update.Result
	}
	if update.Error != nil {
		job.Error = *update.Error
	}
	if update.StartedAt != nil {
		job.StartedAt = update.StartedAt
	}
	if update.CompletedAt != nil {
		job.CompletedAt = update.CompletedAt
	}
	return nil
}
