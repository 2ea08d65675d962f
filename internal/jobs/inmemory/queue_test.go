package inmemory

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dvloznov/fraud-analyzer/internal/jobs"
)

func waitForStatus(t *testing.T, s *Store, id string, want jobs.JobStatus) *jobs.AnalysisJob {
	t.Helper()
	var got *jobs.AnalysisJob
	require.Eventually(t, func() bool {
		j, err := s.GetJob(context.Background(), id)
		if err != nil {
			return false
		}
		got = j
		return j.Status == want
	}, 2*time.Second, 5*time.Millisecond, "job %s never reached %s", id, want)
	return got
}

func TestQueue_PublishDefaults(t *testing.T) {
	s := NewStore()
	q := NewQueue(1, s)
	defer q.Close()

	job := &jobs.AnalysisJob{SourceURI: "data/tx.csv"}
	require.NoError(t, q.PublishAnalysis(context.Background(), job))

	assert.NotEmpty(t, job.JobID)
	assert.Equal(t, jobs.JobStatusPending, job.Status)
	assert.Equal(t, jobs.DefaultMaxRetries, job.MaxRetries)
	assert.False(t, job.CreatedAt.IsZero())

	stored, err := s.GetJob(context.Background(), job.JobID)
	require.NoError(t, err)
	assert.Equal(t, "data/tx.csv", stored.SourceURI)
}

func TestQueue_ProcessesJobs(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s := NewStore()
	q := NewQueue(10, s, WithWorkers(2))
	require.NoError(t, q.Start(ctx, func(ctx context.Context, job jobs.Job) error {
		j := job.(*jobs.AnalysisJob)
		j.ReportIDs = []string{"report-" + j.AccountID}
		return nil
	}))

	job := &jobs.AnalysisJob{SourceURI: "data/tx.csv", AccountID: "ACC_001"}
	require.NoError(t, q.PublishAnalysis(ctx, job))

	done := waitForStatus(t, s, job.JobID, jobs.JobStatusCompleted)
	assert.Equal(t, []string{"report-ACC_001"}, done.ReportIDs)
	assert.NotNil(t, done.StartedAt)
	assert.NotNil(t, done.CompletedAt)
	assert.Empty(t, done.Error)

	require.NoError(t, q.Stop(context.Background()))
}

func TestQueue_RetriesThenSucceeds(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var calls atomic.Int32
	s := NewStore()
	q := NewQueue(10, s, WithBackoff(time.Millisecond))
	require.NoError(t, q.Start(ctx, func(ctx context.Context, job jobs.Job) error {
		if calls.Add(1) < 3 {
			return errors.New("warehouse unavailable")
		}
		return nil
	}))

	job := &jobs.AnalysisJob{SourceURI: "data/tx.csv"}
	require.NoError(t, q.PublishAnalysis(ctx, job))

	done := waitForStatus(t, s, job.JobID, jobs.JobStatusCompleted)
	assert.Equal(t, 2, done.RetryCount)
	assert.Equal(t, int32(3), calls.Load())
	assert.Empty(t, done.Error)
}

func TestQueue_FailsAfterMaxRetries(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var calls atomic.Int32
	s := NewStore()
	q := NewQueue(10, s, WithBackoff(time.Millisecond))
	require.NoError(t, q.Start(ctx, func(ctx context.Context, job jobs.Job) error {
		calls.Add(1)
		return errors.New("malformed CSV")
	}))

	job := &jobs.AnalysisJob{SourceURI: "data/tx.csv", MaxRetries: 1}
	require.NoError(t, q.PublishAnalysis(ctx, job))

	failed := waitForStatus(t, s, job.JobID, jobs.JobStatusFailed)
	assert.Equal(t, 1, failed.RetryCount)
	assert.Equal(t, "malformed CSV", failed.Error)
	assert.Equal(t, int32(2), calls.Load())
}

func TestQueue_ClosedRejectsWork(t *testing.T) {
	q := NewQueue(1, nil)
	require.NoError(t, q.Close())
	require.NoError(t, q.Stop(context.Background()))

	assert.Error(t, q.PublishAnalysis(context.Background(), &jobs.AnalysisJob{}))
	assert.Error(t, q.Start(context.Background(), func(context.Context, jobs.Job) error { return nil }))
}

func TestQueue_PublishHonoursContext(t *testing.T) {
	q := NewQueue(0, nil)
	defer q.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	err := q.PublishAnalysis(ctx, &jobs.AnalysisJob{})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestQueue_WithMaxRetries(t *testing.T) {
	q := NewQueue(2, nil, WithMaxRetries(7))
	defer q.Close()

	job := &jobs.AnalysisJob{SourceURI: "data/tx.csv"}
	require.NoError(t, q.PublishAnalysis(context.Background(), job))
	assert.Equal(t, 7, job.MaxRetries)

	explicit := &jobs.AnalysisJob{SourceURI: "data/tx.csv", MaxRetries: 1}
	require.NoError(t, q.PublishAnalysis(context.Background(), explicit))
	assert.Equal(t, 1, explicit.MaxRetries)
}
