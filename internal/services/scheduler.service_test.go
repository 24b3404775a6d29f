package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubJob struct {
	name     string
	schedule Schedule
	err      error
	runs     int
}

func (j *stubJob) Name() string { return j.name }

func (j *stubJob) Execute(ctx context.Context) error {
	j.runs++
	return j.err
}

func (j *stubJob) Schedule() Schedule { return j.schedule }

func isStarted(s *SchedulerService) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.started
}

func TestSchedulerService_AddJob(t *testing.T) {
	scheduler := NewSchedulerService()
	defer func() { _ = scheduler.Stop() }()

	require.NoError(t, scheduler.AddJob(&stubJob{name: "hourly", schedule: Hourly}))
	require.NoError(t, scheduler.AddJob(&stubJob{name: "daily", schedule: Daily}))

	assert.Equal(t, 2, scheduler.GetJobCount())
	assert.False(t, isStarted(scheduler))
}

func TestSchedulerService_AddJobUnknownSchedule(t *testing.T) {
	scheduler := NewSchedulerService()
	defer func() { _ = scheduler.Stop() }()

	err := scheduler.AddJob(&stubJob{name: "weird", schedule: Schedule(42)})

	assert.Error(t, err)
	assert.Equal(t, 0, scheduler.GetJobCount())
}

func TestSchedulerService_StartWithoutJobs(t *testing.T) {
	scheduler := NewSchedulerService()

	require.NoError(t, scheduler.Start())
	assert.False(t, isStarted(scheduler))
	assert.NoError(t, scheduler.Stop())
}

func TestSchedulerService_StartStop(t *testing.T) {
	scheduler := NewSchedulerService()
	require.NoError(t, scheduler.AddJob(&stubJob{name: "hourly", schedule: Hourly}))

	require.NoError(t, scheduler.Start())
	assert.True(t, isStarted(scheduler))

	require.NoError(t, scheduler.Stop())
	assert.False(t, isStarted(scheduler))
}

func TestSchedulerService_TriggerJobByName(t *testing.T) {
	scheduler := NewSchedulerService()
	defer func() { _ = scheduler.Stop() }()

	job := &stubJob{name: "cleanup", schedule: Hourly}
	failing := &stubJob{name: "broken", schedule: Hourly, err: errors.New("boom")}
	require.NoError(t, scheduler.AddJob(job))
	require.NoError(t, scheduler.AddJob(failing))

	require.NoError(t, scheduler.TriggerJobByName(context.Background(), "cleanup"))
	assert.Equal(t, 1, job.runs)

	assert.Error(t, scheduler.TriggerJobByName(context.Background(), "broken"))
	assert.Error(t, scheduler.TriggerJobByName(context.Background(), "missing"))
}
