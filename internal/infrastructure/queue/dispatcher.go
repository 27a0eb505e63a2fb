package queue

import (
	"context"
	"hash/fnv"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/99minutos/shipment-lifecycle/internal/core/ports"
	"github.com/99minutos/shipment-lifecycle/internal/pkg/metrics"
)

const (
	defaultWorkers = 8
	channelBuffer  = 256
	// drainTimeout bounds how long a stopping worker spends on events that
	// were accepted before shutdown.
	drainTimeout = 10 * time.Second
)

// Dispatcher feeds accepted carrier events to a fixed set of workers. Events
// for one tracking number always hash to the same worker, so they are
// applied in the order they were accepted.
type Dispatcher struct {
	shards  []chan ports.CarrierEventInput
	service ports.EventService
	log     zerolog.Logger
	wg      sync.WaitGroup
}

// NewDispatcher creates a Dispatcher with n shards (defaultWorkers if n <= 0).
func NewDispatcher(n int, service ports.EventService, log zerolog.Logger) *Dispatcher {
	if n <= 0 {
		n = defaultWorkers
	}
	d := &Dispatcher{
		shards:  make([]chan ports.CarrierEventInput, n),
		service: service,
		log:     log,
	}
	for i := range d.shards {
		d.shards[i] = make(chan ports.CarrierEventInput, channelBuffer)
	}
	return d
}

// Start launches one goroutine per shard. When ctx is cancelled each worker
// finishes the events already buffered for it and returns.
func (d *Dispatcher) Start(ctx context.Context) {
	for i := range d.shards {
		d.wg.Add(1)
		go d.run(ctx, i)
	}
}

// Wait blocks until every worker has returned.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

// Enqueue hands an event to its shard. It blocks while that shard's buffer is full.
func (d *Dispatcher) Enqueue(event ports.CarrierEventInput) {
	idx := d.shardIndex(event.TrackingNumber)
	d.shards[idx] <- event
	metrics.EventsQueueDepth.WithLabelValues(strconv.Itoa(idx)).Set(float64(len(d.shards[idx])))
}

// EnqueueBatch enqueues events in slice order.
func (d *Dispatcher) EnqueueBatch(events []ports.CarrierEventInput) {
	for _, e := range events {
		d.Enqueue(e)
	}
}

// shardIndex is case-insensitive so "shp..." and "SHP..." share a worker.
func (d *Dispatcher) shardIndex(trackingNumber string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(strings.ToUpper(strings.TrimSpace(trackingNumber))))
	return int(h.Sum32() % uint32(len(d.shards)))
}

func (d *Dispatcher) run(ctx context.Context, idx int) {
	defer d.wg.Done()
	ch := d.shards[idx]
	log := d.log.With().Int("worker_id", idx).Logger()

	for {
		select {
		case <-ctx.Done():
			d.drain(ctx, idx, log)
			return
		case event := <-ch:
			d.process(ctx, idx, event, log)
		}
	}
}

// drain applies what is left in the shard on a context detached from the
// cancelled one, giving up after drainTimeout.
func (d *Dispatcher) drain(ctx context.Context, idx int, log zerolog.Logger) {
	ch := d.shards[idx]
	if len(ch) == 0 {
		return
	}
	dctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), drainTimeout)
	defer cancel()

	log.Info().Int("pending", len(ch)).Msg("draining carrier events")
	for {
		select {
		case event := <-ch:
			d.process(dctx, idx, event, log)
		default:
			return
		}
		if dctx.Err() != nil {
			log.Warn().Int("dropped", len(ch)).Msg("drain timed out")
			return
		}
	}
}

func (d *Dispatcher) process(ctx context.Context, idx int, event ports.CarrierEventInput, log zerolog.Logger) {
	metrics.EventsQueueDepth.WithLabelValues(strconv.Itoa(idx)).Set(float64(len(d.shards[idx])))

	start := time.Now()
	outcome := strings.ToLower(event.Status)
	if err := d.service.RecordCarrierEvent(ctx, event); err != nil {
		outcome = "error"
		log.Error().Err(err).
			Str("tracking_number", event.TrackingNumber).
			Str("status", event.Status).
			Msg("carrier event processing failed")
	}
	metrics.EventProcessingDuration.WithLabelValues(outcome).Observe(time.Since(start).Seconds())
}
