package resultrepo

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/yanqian/urban-heat-advisor/internal/domain/survey"
)

// MemoryRepository keeps analysis results in process memory for tests/dev.
// maxEntries bounds the history; the oldest result is evicted first.
type MemoryRepository struct {
	mu         sync.RWMutex
	maxEntries int
	order      []uuid.UUID
	items      map[uuid.UUID]survey.Result
}

// NewMemoryRepository constructs a repository; maxEntries <= 0 means unbounded.
func NewMemoryRepository(maxEntries int) *MemoryRepository {
	return &MemoryRepository{
		maxEntries: maxEntries,
		items:      make(map[uuid.UUID]survey.Result),
	}
}

// Save implements survey.ResultRepository.
func (r *MemoryRepository) Save(_ context.Context, result survey.Result) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.items[result.ID]; !exists {
		r.order = append(r.order, result.ID)
	}
	r.items[result.ID] = result
	for r.maxEntries > 0 && len(r.order) > r.maxEntries {
		delete(r.items, r.order[0])
		r.order = r.order[1:]
	}
	return nil
}

// Get implements survey.ResultRepository.
func (r *MemoryRepository) Get(_ context.Context, id uuid.UUID) (survey.Result, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	res, ok := r.items[id]
	return res, ok, nil
}

var _ survey.ResultRepository = (*MemoryRepository)(nil)
