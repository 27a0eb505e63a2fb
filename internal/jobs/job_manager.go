package jobs

import (
	"fmt"

	"github.com/rs/zerolog"
)

// Config holds the cron expressions (seconds precision) of every job.
type Config struct {
	RelaySchedule string
	RelayBatch    int
	DepthSchedule string
}

// JobManager coordinates all scheduled jobs in the application.
type JobManager struct {
	relay *OutboxRelayJob
	depth *QueueDepthJob
}

func NewJobManager(relayer Relayer, queue DepthReader, cfg Config, log zerolog.Logger) *JobManager {
	return &JobManager{
		relay: NewOutboxRelayJob(relayer, cfg.RelaySchedule, cfg.RelayBatch, log),
		depth: NewQueueDepthJob(queue, cfg.DepthSchedule, log),
	}
}

// StartAll starts all scheduled jobs.
// Returns an error if any job fails to start.
func (jm *JobManager) StartAll() error {
	if err := jm.relay.Start(); err != nil {
		return fmt.Errorf("failed to start outbox relay job: %w", err)
	}
	if err := jm.depth.Start(); err != nil {
		// Stop already started jobs if this one fails
		jm.relay.Stop()
		return fmt.Errorf("failed to start queue depth job: %w", err)
	}
	return nil
}

// StopAll stops all scheduled jobs gracefully.
func (jm *JobManager) StopAll() {
	jm.depth.Stop()
	jm.relay.Stop()
}
