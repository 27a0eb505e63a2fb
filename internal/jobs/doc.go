// Package jobs provides scheduled background tasks for the shipment
// lifecycle engine, driven by github.com/robfig/cron/v3 with seconds precision.
//
// # Available Jobs
//
//  1. OutboxRelayJob - re-publishes ledger entries whose fan-out failed
//  2. QueueDepthJob - samples the webhook task queue depth into a gauge
//
// # Usage
//
//	jobManager := jobs.NewJobManager(lifecycle, taskQueue, cfg, logger)
//	if err := jobManager.StartAll(); err != nil {
//		log.Fatal().Err(err).Msg("start jobs")
//	}
//	defer jobManager.StopAll()
package jobs
