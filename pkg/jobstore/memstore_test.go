package jobstore

import (
	"context"
	"testing"
	"time"

	"github.com/civicsim/orchestrator/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemStore_CreateThenGet(t *testing.T) {
	s := newMemStore(time.Hour)
	ctx := context.Background()

	job := &models.SimulationJob{JobID: "job-1", Status: models.JobPending}
	require.NoError(t, s.Create(ctx, job))

	got, err := s.Get(ctx, "job-1")
	require.NoError(t, err)
	assert.Equal(t, models.JobPending, got.Status)
}

func TestMemStore_GetMissing(t *testing.T) {
	s := newMemStore(time.Hour)
	_, err := s.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrJobNotFound)
}

func TestMemStore_Update_AppliesMutation(t *testing.T) {
	s := newMemStore(time.Hour)
	ctx := context.Background()
	require.NoError(t, s.Create(ctx, &models.SimulationJob{JobID: "job-1", Progress: 0}))

	updated, err := s.Update(ctx, "job-1", func(j *models.SimulationJob) {
		j.Progress = 42
		j.Status = models.JobRunning
	})
	require.NoError(t, err)
	assert.Equal(t, 42, updated.Progress)

	got, err := s.Get(ctx, "job-1")
	require.NoError(t, err)
	assert.Equal(t, 42, got.Progress)
	assert.Equal(t, models.JobRunning, got.Status)
}

func TestMemStore_Update_MissingJob(t *testing.T) {
	s := newMemStore(time.Hour)
	_, err := s.Update(context.Background(), "missing", func(*models.SimulationJob) {})
	assert.ErrorIs(t, err, ErrJobNotFound)
}

func TestMemStore_Delete(t *testing.T) {
	s := newMemStore(time.Hour)
	ctx := context.Background()
	require.NoError(t, s.Create(ctx, &models.SimulationJob{JobID: "job-1"}))
	require.NoError(t, s.Delete(ctx, "job-1"))

	_, err := s.Get(ctx, "job-1")
	assert.ErrorIs(t, err, ErrJobNotFound)
}

func TestMemStore_CreateIsDefensivelyCopied(t *testing.T) {
	s := newMemStore(time.Hour)
	ctx := context.Background()

	job := &models.SimulationJob{JobID: "job-1", Progress: 1}
	require.NoError(t, s.Create(ctx, job))
	job.Progress = 999 // mutate caller's copy after Create

	got, err := s.Get(ctx, "job-1")
	require.NoError(t, err)
	assert.Equal(t, 1, got.Progress, "Create must store a defensive copy")
}

func TestOpen_NoEndpointsReturnsMemStore(t *testing.T) {
	store := Open(context.Background(), nil, time.Hour)
	require.NotNil(t, store)
	_, ok := store.(*memStore)
	assert.True(t, ok)
}

func TestOpen_UnreachableEtcdFallsBackToMemStore(t *testing.T) {
	store := Open(context.Background(), []string{"127.0.0.1:1"}, 50*time.Millisecond)
	require.NotNil(t, store)
	_, ok := store.(*memStore)
	assert.True(t, ok, "an unreachable etcd endpoint must degrade to the in-memory store")
}
