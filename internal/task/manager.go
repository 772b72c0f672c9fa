package task

import (
	"github.com/travisim/Farmify-sub001/internal/config"
	"github.com/travisim/Farmify-sub001/internal/logger"
	"github.com/travisim/Farmify-sub001/internal/logic"
	"github.com/travisim/Farmify-sub001/internal/xrpl"

	"github.com/go-co-op/gocron/v2"
	"gorm.io/gorm"
)

// Job is a schedulable unit of background work.
type Job interface {
	GetName() string
	GetSchedule() gocron.JobDefinition
	Execute()
}

// Manager runs the background jobs.
type Manager struct {
	scheduler gocron.Scheduler
	jobs      []Job
}

// NewManager creates the job manager with all jobs registered.
func NewManager(db *gorm.DB, gateway xrpl.Gateway, funding *logic.FundingLogic,
	distribution *logic.DistributionLogic, cfg *config.Config) (*Manager, error) {

	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}

	m := &Manager{
		scheduler: s,
		jobs: []Job{
			NewLedgerReconcileJob(db, gateway, funding, cfg),
			NewDistributionRetryJob(db, distribution, cfg),
		},
	}

	for _, job := range m.jobs {
		if _, err := s.NewJob(
			job.GetSchedule(),
			gocron.NewTask(job.Execute),
			gocron.WithName(job.GetName()),
			gocron.WithSingletonMode(gocron.LimitModeReschedule),
		); err != nil {
			logger.Error("failed to register job %s: %v", job.GetName(), err)
		}
	}

	return m, nil
}

// Start launches the scheduler.
func (m *Manager) Start() {
	m.scheduler.Start()
	logger.Info("task manager started with %d jobs", len(m.jobs))
}

// Stop shuts the scheduler down.
func (m *Manager) Stop() {
	if err := m.scheduler.Shutdown(); err != nil {
		logger.Error("failed to shutdown scheduler: %v", err)
	}
}
