package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/99minutos/shipment-lifecycle/internal/core/domain"
)

var t0 = time.Date(2026, 5, 4, 12, 0, 0, 0, time.UTC)

func task(sub, shipment string, seq int64) *domain.NotificationTask {
	return &domain.NotificationTask{
		ID:             domain.NewTaskID(shipment, seq, sub),
		SubscriptionID: sub,
		ShipmentID:     shipment,
		Sequence:       seq,
		Event:          domain.EventStatusChanged,
		NotBefore:      t0,
		State:          domain.TaskQueued,
	}
}

func TestTaskQueue_OnlyChainHeadIsClaimable(t *testing.T) {
	ctx := context.Background()
	q := NewTaskQueue()

	require.NoError(t, q.Enqueue(ctx, task("sub-1", "ship-1", 1), task("sub-1", "ship-1", 2), task("sub-2", "ship-1", 1)))

	claimed, err := q.Claim(ctx, t0, 10, time.Minute)
	require.NoError(t, err)
	require.Len(t, claimed, 2)
	for _, c := range claimed {
		require.Equal(t, int64(1), c.Sequence)
		require.Equal(t, domain.TaskInFlight, c.State)
	}

	// nothing else is due while the heads are leased
	again, err := q.Claim(ctx, t0, 10, time.Minute)
	require.NoError(t, err)
	require.Empty(t, again)

	for _, c := range claimed {
		if c.SubscriptionID == "sub-1" {
			require.NoError(t, q.Complete(ctx, c))
		}
	}
	next, err := q.Claim(ctx, t0, 10, time.Minute)
	require.NoError(t, err)
	require.Len(t, next, 1)
	require.Equal(t, int64(2), next[0].Sequence)
}

func TestTaskQueue_OutOfOrderEnqueueKeepsSequenceOrder(t *testing.T) {
	ctx := context.Background()
	q := NewTaskQueue()

	require.NoError(t, q.Enqueue(ctx, task("sub-1", "ship-1", 2)))
	require.NoError(t, q.Enqueue(ctx, task("sub-1", "ship-1", 1)))

	claimed, err := q.Claim(ctx, t0, 10, time.Minute)
	require.NoError(t, err)
	require.Len(t, claimed, 1)
	require.Equal(t, int64(1), claimed[0].Sequence)
}

func TestTaskQueue_EnqueueIsIdempotent(t *testing.T) {
	ctx := context.Background()
	q := NewTaskQueue()
	first := task("sub-1", "ship-1", 1)

	require.NoError(t, q.Enqueue(ctx, first))
	require.NoError(t, q.Enqueue(ctx, task("sub-1", "ship-1", 1)))

	depth, err := q.Depth(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(1), depth)

	claimed, err := q.Claim(ctx, t0, 10, time.Minute)
	require.NoError(t, err)
	require.Len(t, claimed, 1)
	require.NoError(t, q.Complete(ctx, claimed[0]))

	// a recently completed id is not delivered twice
	require.NoError(t, q.Enqueue(ctx, task("sub-1", "ship-1", 1)))
	depth, err = q.Depth(ctx)
	require.NoError(t, err)
	require.Zero(t, depth)
}

func TestTaskQueue_RescheduleWaitsForNotBefore(t *testing.T) {
	ctx := context.Background()
	q := NewTaskQueue()
	require.NoError(t, q.Enqueue(ctx, task("sub-1", "ship-1", 1), task("sub-1", "ship-1", 2)))

	claimed, err := q.Claim(ctx, t0, 10, time.Minute)
	require.NoError(t, err)
	require.Len(t, claimed, 1)

	retry := claimed[0]
	retry.Attempts = 1
	retry.State = domain.TaskRetrying
	retry.NotBefore = t0.Add(5 * time.Second)
	require.NoError(t, q.Reschedule(ctx, retry))

	early, err := q.Claim(ctx, t0.Add(time.Second), 10, time.Minute)
	require.NoError(t, err)
	require.Empty(t, early, "sequence 2 must wait behind the retrying head")

	due, err := q.Claim(ctx, t0.Add(5*time.Second), 10, time.Minute)
	require.NoError(t, err)
	require.Len(t, due, 1)
	require.Equal(t, int64(1), due[0].Sequence)
	require.Equal(t, 1, due[0].Attempts)
}

func TestTaskQueue_ExpiredLeaseIsReclaimed(t *testing.T) {
	ctx := context.Background()
	q := NewTaskQueue()
	require.NoError(t, q.Enqueue(ctx, task("sub-1", "ship-1", 1)))

	_, err := q.Claim(ctx, t0, 10, time.Minute)
	require.NoError(t, err)

	claimed, err := q.Claim(ctx, t0.Add(30*time.Second), 10, time.Minute)
	require.NoError(t, err)
	require.Empty(t, claimed)

	claimed, err = q.Claim(ctx, t0.Add(time.Minute), 10, time.Minute)
	require.NoError(t, err)
	require.Len(t, claimed, 1)
}

func TestTaskQueue_AbandonReleasesChainAndIsListed(t *testing.T) {
	ctx := context.Background()
	q := NewTaskQueue()
	require.NoError(t, q.Enqueue(ctx, task("sub-1", "ship-1", 1), task("sub-1", "ship-1", 2)))

	claimed, err := q.Claim(ctx, t0, 10, time.Minute)
	require.NoError(t, err)
	require.Len(t, claimed, 1)
	claimed[0].Attempts = 6
	claimed[0].LastError = "status 500"
	require.NoError(t, q.Abandon(ctx, claimed[0]))

	abandoned, err := q.ListAbandoned(ctx, 10)
	require.NoError(t, err)
	require.Len(t, abandoned, 1)
	require.Equal(t, domain.TaskAbandoned, abandoned[0].State)
	require.Equal(t, "status 500", abandoned[0].LastError)

	// never retried: re-enqueueing the same id is ignored
	require.NoError(t, q.Enqueue(ctx, task("sub-1", "ship-1", 1)))

	next, err := q.Claim(ctx, t0, 10, time.Minute)
	require.NoError(t, err)
	require.Len(t, next, 1)
	require.Equal(t, int64(2), next[0].Sequence)
}
