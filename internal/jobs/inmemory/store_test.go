package inmemory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dvloznov/fraud-analyzer/internal/jobs"
)

func TestStore_SaveAndGetCopies(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	job := &jobs.AnalysisJob{JobID: "j1", SourceURI: "gs://in/tx.csv", ReportIDs: []string{"r1"}}
	require.NoError(t, s.SaveJob(ctx, job))

	job.ReportIDs[0] = "mutated"
	got, err := s.GetJob(ctx, "j1")
	require.NoError(t, err)
	assert.Equal(t, []string{"r1"}, got.ReportIDs)

	got.Status = jobs.JobStatusFailed
	again, _ := s.GetJob(ctx, "j1")
	assert.Empty(t, again.Status)
}

func TestStore_Errors(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	assert.Error(t, s.SaveJob(ctx, &jobs.AnalysisJob{}))

	_, err := s.GetJob(ctx, "missing")
	assert.ErrorIs(t, err, jobs.ErrJobNotFound)

	assert.ErrorIs(t, s.UpdateJobStatus(ctx, "missing", jobs.JobStatusFailed, "x"), jobs.ErrJobNotFound)
}

func TestStore_ListJobs(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	base := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	for i, j := range []*jobs.AnalysisJob{
		{JobID: "a", AccountID: "ACC_001", Status: jobs.JobStatusCompleted},
		{JobID: "b", AccountID: "ACC_002", Status: jobs.JobStatusFailed},
		{JobID: "c", AccountID: "ACC_001", Status: jobs.JobStatusPending},
		{JobID: "d", SourceURI: "gs://in/other.csv", Status: jobs.JobStatusCompleted},
	} {
		j.CreatedAt = base.Add(time.Duration(i) * time.Minute)
		require.NoError(t, s.SaveJob(ctx, j))
	}

	ids := func(list []*jobs.AnalysisJob) []string {
		out := make([]string, len(list))
		for i, j := range list {
			out[i] = j.JobID
		}
		return out
	}

	tests := []struct {
		name   string
		filter jobs.JobFilter
		want   []string
	}{
		{"all newest first", jobs.JobFilter{}, []string{"d", "c", "b", "a"}},
		{"by account", jobs.JobFilter{AccountID: "ACC_001"}, []string{"c", "a"}},
		{"by status", jobs.JobFilter{Status: jobs.JobStatusCompleted}, []string{"d", "a"}},
		{"by source", jobs.JobFilter{SourceURI: "gs://in/other.csv"}, []string{"d"}},
		{"limit", jobs.JobFilter{Limit: 2}, []string{"d", "c"}},
		{"offset", jobs.JobFilter{Offset: 3}, []string{"a"}},
		{"offset past end", jobs.JobFilter{Offset: 10}, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			list, err := s.ListJobs(ctx, tt.filter)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ids(list))
		})
	}
}

func TestStore_UpdateJobStatus(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	require.NoError(t, s.SaveJob(ctx, &jobs.AnalysisJob{JobID: "j1", Status: jobs.JobStatusRunning}))

	require.NoError(t, s.UpdateJobStatus(ctx, "j1", jobs.JobStatusFailed, "bad csv"))

	got, _ := s.GetJob(ctx, "j1")
	assert.Equal(t, jobs.JobStatusFailed, got.Status)
	assert.Equal(t, "bad csv", got.Error)
}
