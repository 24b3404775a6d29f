package jobs

import (
	"context"
	"errors"
	"feedloader/config"
	"feedloader/internal/models"
	"feedloader/internal/services"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockOrphanSweeper struct {
	mock.Mock
}

func (m *MockOrphanSweeper) SweepOrphans(ctx context.Context, uploads services.FeedUploadLookup) (int, error) {
	args := m.Called(ctx, uploads)
	return args.Int(0), args.Error(1)
}

type stubLookup struct{}

func (stubLookup) GetByID(ctx context.Context, id int) (*models.FeedUpload, error) {
	return nil, nil
}

func TestOrphanImageCleanupJob_Metadata(t *testing.T) {
	job := NewOrphanImageCleanupJob(new(MockOrphanSweeper), stubLookup{}, services.Hourly)

	assert.Equal(t, "OrphanImageCleanup", job.Name())
	assert.Equal(t, services.Hourly, job.Schedule())
}

func TestOrphanImageCleanupJob_Execute(t *testing.T) {
	sweeper := new(MockOrphanSweeper)
	lookup := stubLookup{}
	sweeper.On("SweepOrphans", mock.Anything, lookup).Return(2, nil)

	job := NewOrphanImageCleanupJob(sweeper, lookup, services.Hourly)

	require.NoError(t, job.Execute(context.Background()))
	sweeper.AssertExpectations(t)
}

func TestOrphanImageCleanupJob_ExecuteError(t *testing.T) {
	sweeper := new(MockOrphanSweeper)
	sweeper.On("SweepOrphans", mock.Anything, mock.Anything).Return(0, errors.New("disk gone"))

	job := NewOrphanImageCleanupJob(sweeper, stubLookup{}, services.Hourly)

	assert.Error(t, job.Execute(context.Background()))
}

func TestRegisterAllJobs(t *testing.T) {
	t.Run("enabled", func(t *testing.T) {
		scheduler := services.NewSchedulerService()
		defer func() { _ = scheduler.Stop() }()

		err := RegisterAllJobs(scheduler, config.Config{ImageCleanupEnabled: true}, new(MockOrphanSweeper), stubLookup{})

		require.NoError(t, err)
		assert.Equal(t, 1, scheduler.GetJobCount())
	})

	t.Run("disabled", func(t *testing.T) {
		scheduler := services.NewSchedulerService()
		defer func() { _ = scheduler.Stop() }()

		err := RegisterAllJobs(scheduler, config.Config{}, new(MockOrphanSweeper), stubLookup{})

		require.NoError(t, err)
		assert.Equal(t, 0, scheduler.GetJobCount())
	})
}
