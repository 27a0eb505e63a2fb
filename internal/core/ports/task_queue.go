package ports

import (
	"context"
	"time"

	"github.com/99minutos/shipment-lifecycle/internal/core/domain"
)

// TaskQueue is the durable store of notification tasks.
//
// Tasks sharing a chain key are ordered by ledger sequence and only the head
// of a chain can be claimed. Enqueueing an id that is pending, abandoned or
// recently completed is a no-op.
type TaskQueue interface {
	Enqueue(ctx context.Context, tasks ...*domain.NotificationTask) error
	// Claim leases up to limit due chain heads. Leases that expired are
	// returned to the due index first.
	Claim(ctx context.Context, now time.Time, limit int, lease time.Duration) ([]*domain.NotificationTask, error)
	// Complete removes a delivered or dropped task and releases the next task in its chain.
	Complete(ctx context.Context, task *domain.NotificationTask) error
	// Reschedule stores task and makes it due again at task.NotBefore.
	Reschedule(ctx context.Context, task *domain.NotificationTask) error
	// Abandon records a task that exhausted its attempts and releases its chain.
	Abandon(ctx context.Context, task *domain.NotificationTask) error
	ListAbandoned(ctx context.Context, limit int) ([]*domain.NotificationTask, error)
	// Depth counts chain heads that are due, scheduled or leased.
	Depth(ctx context.Context) (int64, error)
}
