package jobstore

import (
	"context"

	lru "github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/Belphemur/MediaFetch/internal/apperrors"
	"github.com/Belphemur/MediaFetch/internal/models"
)

func init() {
	Register("memory", newMemoryStore)
}

// memoryStore keeps job copies in an expirable LRU, so callers can never
// mutate a stored record through a returned pointer.
type memoryStore struct {
	inner *lru.LRU[string, models.Job]
}

func newMemoryStore(cfg ProviderConfig) (Store, error) {
	var onEvict func(string, models.Job)
	if cfg.OnEvict != nil {
		onEvict = func(id string, _ models.Job) {
			cfg.OnEvict(id)
		}
	}
	return &memoryStore{
		inner: lru.NewLRU[string, models.Job](cfg.Size, onEvict, cfg.TTL),
	}, nil
}

func (m *memoryStore) Get(_ context.Context, id string) (*models.Job, error) {
	job, ok := m.inner.Get(id)
	if !ok {
		return nil, apperrors.NewJobNotFoundError(id)
	}
	return &job, nil
}

func (m *memoryStore) Put(_ context.Context, job *models.Job) error {
	m.inner.Add(job.ID, job.Clone())
	return nil
}

func (m *memoryStore) Len() int {
	return m.inner.Len()
}

func (m *memoryStore) Close() error {
	return nil
}
