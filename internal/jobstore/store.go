package jobstore

import (
	"context"

	"github.com/Belphemur/MediaFetch/internal/models"
)

// EvictCallback is called with the id of a job record dropped to make room.
// Not all providers support eviction callbacks (e.g., Redis only reports capacity evictions).
type EvictCallback func(id string)

// Store keeps job records for the async API with LRU semantics and a TTL.
// Implementations may use in-memory storage or external backends like Redis/Valkey.
type Store interface {
	// Get returns the job with the given id, or an *apperrors.ErrNotFound when
	// the job is unknown or has expired.
	Get(ctx context.Context, id string) (*models.Job, error)

	// Put stores job under job.ID, replacing any previous record.
	Put(ctx context.Context, job *models.Job) error

	// Len returns the number of job records currently held.
	Len() int

	// Close releases any resources held by the store (e.g., network connections).
	Close() error
}
