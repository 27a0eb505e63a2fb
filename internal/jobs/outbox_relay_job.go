package jobs

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

const (
	DefaultRelaySchedule = "*/5 * * * * *"
	defaultRelayBatch    = 100
	relayTimeout         = 30 * time.Second
)

// Relayer re-publishes unpublished ledger entries.
type Relayer interface {
	RelayPending(ctx context.Context, limit int) (int, error)
}

// OutboxRelayJob periodically drains the ledger outbox, so a transition whose
// fan-out failed still reaches its subscribers.
type OutboxRelayJob struct {
	relayer  Relayer
	schedule string
	batch    int
	cron     *cron.Cron
	log      zerolog.Logger
}

func NewOutboxRelayJob(relayer Relayer, schedule string, batch int, log zerolog.Logger) *OutboxRelayJob {
	if schedule == "" {
		schedule = DefaultRelaySchedule
	}
	if batch <= 0 {
		batch = defaultRelayBatch
	}
	return &OutboxRelayJob{
		relayer:  relayer,
		schedule: schedule,
		batch:    batch,
		cron:     cron.New(cron.WithSeconds(), cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		log:      log.With().Str("component", "outbox_relay_job").Logger(),
	}
}

func (j *OutboxRelayJob) Start() error {
	if _, err := j.cron.AddFunc(j.schedule, j.run); err != nil {
		return err
	}
	j.cron.Start()
	j.log.Info().Str("schedule", j.schedule).Msg("outbox relay job started")
	return nil
}

func (j *OutboxRelayJob) run() {
	ctx, cancel := context.WithTimeout(context.Background(), relayTimeout)
	defer cancel()

	n, err := j.relayer.RelayPending(ctx, j.batch)
	if err != nil {
		j.log.Error().Err(err).Msg("outbox relay failed")
		return
	}
	if n > 0 {
		j.log.Info().Int("shipments", n).Msg("outbox relayed")
	}
}

// Stop waits for a running relay to finish.
func (j *OutboxRelayJob) Stop() {
	<-j.cron.Stop().Done()
	j.log.Info().Msg("outbox relay job stopped")
}
