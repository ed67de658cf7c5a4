package jobstore

import (
	"context"
	"sync"
	"time"

	"github.com/civicsim/orchestrator/pkg/models"
)

// memStore is the fallback JobStore backend: a process-local map guarded
// by one store-wide lock (jobs are not locked individually), used when no
// etcd endpoint is reachable. It has no
// persistence across restarts — acceptable because a lost in-flight job
// can simply be re-submitted, and spec.md treats the JobStore as a
// progress-reporting convenience, not a durability guarantee.
type memStore struct {
	mu   sync.RWMutex
	jobs map[string]*models.SimulationJob
	ttl  time.Duration
}

func newMemStore(ttl time.Duration) *memStore {
	return &memStore{jobs: make(map[string]*models.SimulationJob), ttl: ttl}
}

func (m *memStore) Create(_ context.Context, job *models.SimulationJob) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.jobs[job.JobID] = job.Clone()
	return nil
}

func (m *memStore) Get(_ context.Context, jobID string) (*models.SimulationJob, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	job, ok := m.jobs[jobID]
	if !ok {
		return nil, ErrJobNotFound
	}
	return job.Clone(), nil
}

// Update applies mutate to the stored job under the store's lock, giving
// the progressive pipeline's single writer goroutine exclusive access to
// the record for the duration of the mutation ("sole writer").
func (m *memStore) Update(_ context.Context, jobID string, mutate func(*models.SimulationJob)) (*models.SimulationJob, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	job, ok := m.jobs[jobID]
	if !ok {
		return nil, ErrJobNotFound
	}
	mutate(job)
	return job.Clone(), nil
}

func (m *memStore) Delete(_ context.Context, jobID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.jobs, jobID)
	return nil
}

func (m *memStore) Close() error { return nil }
