package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/99minutos/shipment-lifecycle/internal/core/domain"
	"github.com/99minutos/shipment-lifecycle/internal/core/ports"
)

// completedTTL is how long a delivered or dropped id keeps rejecting re-enqueues.
const completedTTL = 7 * 24 * time.Hour

// TaskQueue is an in-process ports.TaskQueue.
type TaskQueue struct {
	mu        sync.Mutex
	tasks     map[string]domain.NotificationTask
	chains    map[string][]string // chain key -> task ids ordered by sequence
	due       map[string]time.Time
	inflight  map[string]time.Time // id -> lease expiry
	completed map[string]time.Time // id -> expiry of the idempotency marker
	abandoned map[string]domain.NotificationTask
	abandonAt map[string]time.Time
	now       func() time.Time
}

var _ ports.TaskQueue = (*TaskQueue)(nil)

// NewTaskQueue returns an empty TaskQueue.
func NewTaskQueue() *TaskQueue {
	return &TaskQueue{
		tasks:     make(map[string]domain.NotificationTask),
		chains:    make(map[string][]string),
		due:       make(map[string]time.Time),
		inflight:  make(map[string]time.Time),
		completed: make(map[string]time.Time),
		abandoned: make(map[string]domain.NotificationTask),
		abandonAt: make(map[string]time.Time),
		now:       time.Now,
	}
}

func (q *TaskQueue) Enqueue(_ context.Context, tasks ...*domain.NotificationTask) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	for _, t := range tasks {
		if q.known(t.ID) {
			continue
		}
		task := *t
		task.State = domain.TaskQueued
		q.tasks[task.ID] = task

		key := task.ChainKey()
		chain := append(q.chains[key], task.ID)
		sort.SliceStable(chain, func(i, j int) bool {
			return q.tasks[chain[i]].Sequence < q.tasks[chain[j]].Sequence
		})
		q.chains[key] = chain

		if chain[0] != task.ID {
			continue
		}
		if len(chain) > 1 {
			prev := chain[1]
			if _, leased := q.inflight[prev]; leased {
				continue
			}
			delete(q.due, prev)
		}
		q.due[task.ID] = task.NotBefore
	}
	return nil
}

func (q *TaskQueue) known(id string) bool {
	if _, ok := q.tasks[id]; ok {
		return true
	}
	if _, ok := q.abandoned[id]; ok {
		return true
	}
	if exp, ok := q.completed[id]; ok {
		if q.now().Before(exp) {
			return true
		}
		delete(q.completed, id)
	}
	return false
}

func (q *TaskQueue) Claim(_ context.Context, now time.Time, limit int, lease time.Duration) ([]*domain.NotificationTask, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for id, exp := range q.inflight {
		if !exp.After(now) {
			delete(q.inflight, id)
			q.due[id] = now
		}
	}

	var ready []string
	for id, at := range q.due {
		if !at.After(now) {
			ready = append(ready, id)
		}
	}
	sort.Slice(ready, func(i, j int) bool {
		a, b := q.due[ready[i]], q.due[ready[j]]
		if !a.Equal(b) {
			return a.Before(b)
		}
		return ready[i] < ready[j]
	})
	if limit > 0 && len(ready) > limit {
		ready = ready[:limit]
	}

	out := make([]*domain.NotificationTask, 0, len(ready))
	for _, id := range ready {
		delete(q.due, id)
		task, ok := q.tasks[id]
		if !ok {
			continue
		}
		q.inflight[id] = now.Add(lease)
		task.State = domain.TaskInFlight
		out = append(out, &task)
	}
	return out, nil
}

func (q *TaskQueue) Complete(_ context.Context, t *domain.NotificationTask) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if _, ok := q.tasks[t.ID]; !ok {
		return domain.ErrTaskNotFound
	}
	q.remove(t.ID, t.ChainKey())
	q.completed[t.ID] = q.now().Add(completedTTL)
	q.promote(t.ChainKey())
	return nil
}

func (q *TaskQueue) Reschedule(_ context.Context, t *domain.NotificationTask) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if _, ok := q.tasks[t.ID]; !ok {
		return domain.ErrTaskNotFound
	}
	q.tasks[t.ID] = *t
	delete(q.inflight, t.ID)
	if chain := q.chains[t.ChainKey()]; len(chain) > 0 && chain[0] == t.ID {
		q.due[t.ID] = t.NotBefore
	}
	return nil
}

func (q *TaskQueue) Abandon(_ context.Context, t *domain.NotificationTask) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if _, ok := q.tasks[t.ID]; !ok {
		return domain.ErrTaskNotFound
	}
	q.remove(t.ID, t.ChainKey())
	task := *t
	task.State = domain.TaskAbandoned
	q.abandoned[t.ID] = task
	q.abandonAt[t.ID] = q.now()
	q.promote(t.ChainKey())
	return nil
}

func (q *TaskQueue) ListAbandoned(_ context.Context, limit int) ([]*domain.NotificationTask, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	ids := make([]string, 0, len(q.abandoned))
	for id := range q.abandoned {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		a, b := q.abandonAt[ids[i]], q.abandonAt[ids[j]]
		if !a.Equal(b) {
			return a.After(b)
		}
		return ids[i] < ids[j]
	})
	if limit > 0 && len(ids) > limit {
		ids = ids[:limit]
	}
	out := make([]*domain.NotificationTask, 0, len(ids))
	for _, id := range ids {
		task := q.abandoned[id]
		out = append(out, &task)
	}
	return out, nil
}

func (q *TaskQueue) Depth(_ context.Context) (int64, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return int64(len(q.due) + len(q.inflight)), nil
}

func (q *TaskQueue) remove(id, chainKey string) {
	delete(q.tasks, id)
	delete(q.due, id)
	delete(q.inflight, id)

	chain := q.chains[chainKey]
	for i, member := range chain {
		if member == id {
			chain = append(chain[:i], chain[i+1:]...)
			break
		}
	}
	if len(chain) == 0 {
		delete(q.chains, chainKey)
		return
	}
	q.chains[chainKey] = chain
}

// promote makes the new head of a chain claimable.
func (q *TaskQueue) promote(chainKey string) {
	chain := q.chains[chainKey]
	if len(chain) == 0 {
		return
	}
	head := chain[0]
	if _, leased := q.inflight[head]; leased {
		return
	}
	if _, queued := q.due[head]; queued {
		return
	}
	q.due[head] = q.tasks[head].NotBefore
}
