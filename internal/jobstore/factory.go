package jobstore

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/Belphemur/MediaFetch/internal/config"
)

// ProviderConfig holds the configuration needed to create a job store.
type ProviderConfig struct {
	// Size is the maximum number of job records kept.
	Size int

	// TTL is how long a job record survives after its last write.
	TTL time.Duration

	// OnEvict is called when a record is evicted. Not all providers support this.
	OnEvict EvictCallback

	RedisAddress  string
	RedisPassword string
	RedisDB       int

	// KeyPrefix namespaces the Redis keys; defaults to "mediafetch:jobs:".
	KeyPrefix string

	// Group labels the job_store_* Prometheus metrics.
	// When non-empty the store is automatically wrapped with metric instrumentation.
	Group string
}

// Provider is a constructor function that creates a Store from config.
type Provider func(cfg ProviderConfig) (Store, error)

var (
	mu        sync.RWMutex
	providers = make(map[string]Provider)
)

// Register registers a store provider under the given name.
// It panics if the name is already registered or the provider is nil.
func Register(name string, p Provider) {
	mu.Lock()
	defer mu.Unlock()

	if p == nil {
		panic("jobstore: Register provider is nil")
	}
	if _, exists := providers[name]; exists {
		panic(fmt.Sprintf("jobstore: provider %q already registered", name))
	}
	providers[name] = p
}

// New creates a Store using the named provider. When cfg.Group is set, hits,
// misses and evictions are counted under that label and the entry count is
// read lazily at scrape time.
func New(name string, cfg ProviderConfig) (Store, error) {
	mu.RLock()
	p, ok := providers[name]
	mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("jobstore: unknown provider %q (registered: %v)", name, RegisteredProviders())
	}
	if cfg.Size <= 0 {
		return nil, fmt.Errorf("jobstore: size must be positive, got %d", cfg.Size)
	}

	if cfg.Group == "" {
		return p(cfg)
	}

	group := cfg.Group
	original := cfg.OnEvict
	cfg.OnEvict = func(id string) {
		EvictionsTotal.WithLabelValues(group).Inc()
		if original != nil {
			original(id)
		}
	}

	inner, err := p(cfg)
	if err != nil {
		return nil, err
	}

	return newInstrumentedStore(inner, group), nil
}

// RegisteredProviders returns a sorted list of registered provider names.
func RegisteredProviders() []string {
	mu.RLock()
	defer mu.RUnlock()

	names := make([]string, 0, len(providers))
	for name := range providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// NewFromConfig builds the store selected by the jobs section of cfg,
// instrumented under the "jobs" group.
func NewFromConfig(cfg *config.Config) (Store, error) {
	return New(cfg.Jobs.Provider, ProviderConfig{
		Size:          cfg.Jobs.Size,
		TTL:           config.ParseDuration("jobs.ttl", cfg.Jobs.TTL, 24*time.Hour),
		RedisAddress:  cfg.Jobs.Redis.Address,
		RedisPassword: cfg.Jobs.Redis.Password,
		RedisDB:       cfg.Jobs.Redis.DB,
		Group:         "jobs",
	})
}
