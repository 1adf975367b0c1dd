package jobstore

import (
	"context"
	"errors"

	"github.com/Belphemur/MediaFetch/internal/apperrors"
	"github.com/Belphemur/MediaFetch/internal/models"
)

// instrumentedStore counts lookups per group; evictions are counted by the
// OnEvict wrapper installed in New.
type instrumentedStore struct {
	inner Store
	group string
}

func newInstrumentedStore(inner Store, group string) *instrumentedStore {
	registerEntriesCollector(group, inner.Len)
	return &instrumentedStore{inner: inner, group: group}
}

func (s *instrumentedStore) Get(ctx context.Context, id string) (*models.Job, error) {
	job, err := s.inner.Get(ctx, id)
	switch {
	case err == nil:
		HitsTotal.WithLabelValues(s.group).Inc()
	case errors.Is(err, &apperrors.ErrNotFound{}):
		MissesTotal.WithLabelValues(s.group).Inc()
	}
	return job, err
}

func (s *instrumentedStore) Put(ctx context.Context, job *models.Job) error {
	return s.inner.Put(ctx, job)
}

func (s *instrumentedStore) Len() int {
	return s.inner.Len()
}

// Close unregisters the entries collector and closes the underlying store.
func (s *instrumentedStore) Close() error {
	unregisterEntriesCollector(s.group)
	return s.inner.Close()
}
