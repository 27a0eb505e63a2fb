package jobs

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/99minutos/shipment-lifecycle/internal/pkg/metrics"
)

const DefaultDepthSchedule = "*/15 * * * * *"

// DepthReader reports how many tasks are claimable or leased.
type DepthReader interface {
	Depth(ctx context.Context) (int64, error)
}

// QueueDepthJob keeps the webhook queue depth gauge fresh while the
// dispatcher is idle.
type QueueDepthJob struct {
	queue    DepthReader
	schedule string
	cron     *cron.Cron
	log      zerolog.Logger
}

func NewQueueDepthJob(queue DepthReader, schedule string, log zerolog.Logger) *QueueDepthJob {
	if schedule == "" {
		schedule = DefaultDepthSchedule
	}
	return &QueueDepthJob{
		queue:    queue,
		schedule: schedule,
		cron:     cron.New(cron.WithSeconds()),
		log:      log.With().Str("component", "queue_depth_job").Logger(),
	}
}

func (j *QueueDepthJob) Start() error {
	if _, err := j.cron.AddFunc(j.schedule, j.run); err != nil {
		return err
	}
	j.cron.Start()
	return nil
}

func (j *QueueDepthJob) run() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	depth, err := j.queue.Depth(ctx)
	if err != nil {
		j.log.Warn().Err(err).Msg("read queue depth")
		return
	}
	metrics.WebhookQueueDepth.Set(float64(depth))
}

func (j *QueueDepthJob) Stop() {
	<-j.cron.Stop().Done()
}
