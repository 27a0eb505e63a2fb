package redis

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/99minutos/shipment-lifecycle/internal/core/domain"
	"github.com/99minutos/shipment-lifecycle/internal/core/ports"
)

// completedTTL is how long a delivered or dropped task id keeps rejecting re-enqueues.
const completedTTL = 7 * 24 * time.Hour

// Key layout:
//
//	whq:task:<id>            task JSON (kept for abandoned tasks)
//	whq:done:<id>            idempotency marker, expires after completedTTL
//	whq:chain:<sub>|<ship>   ZSET of live task ids scored by ledger sequence
//	whq:due                  ZSET of claimable chain heads scored by not-before (ms)
//	whq:inflight             ZSET of leased ids scored by lease expiry (ms)
//	whq:sched                HASH id -> not-before (ms), used when a head is promoted
//	whq:abandoned            ZSET of abandoned ids scored by abandon time (ms)
const (
	keyPrefix    = "whq:"
	dueKey       = keyPrefix + "due"
	inflightKey  = keyPrefix + "inflight"
	schedKey     = keyPrefix + "sched"
	abandonedKey = keyPrefix + "abandoned"
)

func taskKey(id string) string     { return keyPrefix + "task:" + id }
func doneKey(id string) string     { return keyPrefix + "done:" + id }
func chainKey(chain string) string { return keyPrefix + "chain:" + chain }

// promoteLua makes the head of a chain claimable unless it is already due or
// leased. The including script defines locals chain, due, inflight and sched.
const promoteLua = `
local head = redis.call('ZRANGE', chain, 0, 0)[1]
if head and not redis.call('ZSCORE', inflight, head) and not redis.call('ZSCORE', due, head) then
  local nb = redis.call('HGET', sched, head) or '0'
  redis.call('ZADD', due, nb, head)
end
`

// KEYS: task, done, chain, due, inflight, sched
// ARGV: id, json, seq, notBefore
var enqueueScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 1 or redis.call('EXISTS', KEYS[2]) == 1 then
  return 0
end
redis.call('SET', KEYS[1], ARGV[2])
redis.call('HSET', KEYS[6], ARGV[1], ARGV[4])
redis.call('ZADD', KEYS[3], ARGV[3], ARGV[1])
local heads = redis.call('ZRANGE', KEYS[3], 0, 1)
if heads[1] ~= ARGV[1] then
  return 1
end
if heads[2] then
  if redis.call('ZSCORE', KEYS[5], heads[2]) then
    return 1
  end
  redis.call('ZREM', KEYS[4], heads[2])
end
redis.call('ZADD', KEYS[4], ARGV[4], ARGV[1])
return 1
`)

// KEYS: due, inflight
// ARGV: now, limit, leaseExpiry
var claimScript = redis.NewScript(`
local expired = redis.call('ZRANGEBYSCORE', KEYS[2], '-inf', ARGV[1])
for _, id in ipairs(expired) do
  redis.call('ZREM', KEYS[2], id)
  redis.call('ZADD', KEYS[1], ARGV[1], id)
end
local ids = redis.call('ZRANGEBYSCORE', KEYS[1], '-inf', ARGV[1], 'LIMIT', 0, ARGV[2])
for _, id in ipairs(ids) do
  redis.call('ZREM', KEYS[1], id)
  redis.call('ZADD', KEYS[2], ARGV[3], id)
end
return ids
`)

// KEYS: task, done, chain, due, inflight, sched
// ARGV: id, doneTTL
var completeScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then
  return 0
end
redis.call('DEL', KEYS[1])
redis.call('HDEL', KEYS[6], ARGV[1])
redis.call('ZREM', KEYS[3], ARGV[1])
redis.call('ZREM', KEYS[4], ARGV[1])
redis.call('ZREM', KEYS[5], ARGV[1])
redis.call('SET', KEYS[2], '1', 'PX', ARGV[2])
local chain, due, inflight, sched = KEYS[3], KEYS[4], KEYS[5], KEYS[6]
` + promoteLua + `
return 1
`)

// KEYS: task, chain, due, inflight, sched, abandoned
// ARGV: id, json, now
var abandonScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then
  return 0
end
redis.call('SET', KEYS[1], ARGV[2])
redis.call('HDEL', KEYS[5], ARGV[1])
redis.call('ZREM', KEYS[2], ARGV[1])
redis.call('ZREM', KEYS[3], ARGV[1])
redis.call('ZREM', KEYS[4], ARGV[1])
redis.call('ZADD', KEYS[6], ARGV[3], ARGV[1])
local chain, due, inflight, sched = KEYS[2], KEYS[3], KEYS[4], KEYS[5]
` + promoteLua + `
return 1
`)

// KEYS: task, chain, due, inflight, sched
// ARGV: id, json, notBefore
var rescheduleScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then
  return 0
end
redis.call('SET', KEYS[1], ARGV[2])
redis.call('HSET', KEYS[5], ARGV[1], ARGV[3])
redis.call('ZREM', KEYS[4], ARGV[1])
if redis.call('ZRANGE', KEYS[2], 0, 0)[1] == ARGV[1] then
  redis.call('ZADD', KEYS[3], ARGV[3], ARGV[1])
end
return 1
`)

// TaskQueue is the Redis-backed ports.TaskQueue. Every state change runs in
// a Lua script so chain heads, due and lease indexes move atomically.
type TaskQueue struct {
	client *redis.Client
	now    func() time.Time
}

var _ ports.TaskQueue = (*TaskQueue)(nil)

// NewTaskQueue returns a TaskQueue over client.
func NewTaskQueue(client *redis.Client) *TaskQueue {
	return &TaskQueue{client: client, now: time.Now}
}

func ms(t time.Time) string {
	return strconv.FormatInt(t.UnixMilli(), 10)
}

func (q *TaskQueue) Enqueue(ctx context.Context, tasks ...*domain.NotificationTask) error {
	for _, t := range tasks {
		task := *t
		task.State = domain.TaskQueued
		body, err := json.Marshal(&task)
		if err != nil {
			return errors.Wrap(err, "encode task")
		}
		keys := []string{taskKey(task.ID), doneKey(task.ID), chainKey(task.ChainKey()), dueKey, inflightKey, schedKey}
		if err := enqueueScript.Run(ctx, q.client, keys, task.ID, body, task.Sequence, ms(task.NotBefore)).Err(); err != nil {
			return errors.Wrapf(err, "enqueue task %s", task.ID)
		}
	}
	return nil
}

func (q *TaskQueue) Claim(ctx context.Context, now time.Time, limit int, lease time.Duration) ([]*domain.NotificationTask, error) {
	if limit <= 0 {
		return nil, nil
	}
	ids, err := claimScript.Run(ctx, q.client, []string{dueKey, inflightKey}, ms(now), limit, ms(now.Add(lease))).StringSlice()
	if err != nil {
		return nil, errors.Wrap(err, "claim tasks")
	}
	tasks, err := q.load(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, t := range tasks {
		t.State = domain.TaskInFlight
	}
	return tasks, nil
}

func (q *TaskQueue) Complete(ctx context.Context, t *domain.NotificationTask) error {
	keys := []string{taskKey(t.ID), doneKey(t.ID), chainKey(t.ChainKey()), dueKey, inflightKey, schedKey}
	n, err := completeScript.Run(ctx, q.client, keys, t.ID, completedTTL.Milliseconds()).Int()
	if err != nil {
		return errors.Wrapf(err, "complete task %s", t.ID)
	}
	if n == 0 {
		return domain.ErrTaskNotFound
	}
	return nil
}

func (q *TaskQueue) Reschedule(ctx context.Context, t *domain.NotificationTask) error {
	body, err := json.Marshal(t)
	if err != nil {
		return errors.Wrap(err, "encode task")
	}
	keys := []string{taskKey(t.ID), chainKey(t.ChainKey()), dueKey, inflightKey, schedKey}
	n, err := rescheduleScript.Run(ctx, q.client, keys, t.ID, body, ms(t.NotBefore)).Int()
	if err != nil {
		return errors.Wrapf(err, "reschedule task %s", t.ID)
	}
	if n == 0 {
		return domain.ErrTaskNotFound
	}
	return nil
}

func (q *TaskQueue) Abandon(ctx context.Context, t *domain.NotificationTask) error {
	task := *t
	task.State = domain.TaskAbandoned
	body, err := json.Marshal(&task)
	if err != nil {
		return errors.Wrap(err, "encode task")
	}
	keys := []string{taskKey(t.ID), chainKey(t.ChainKey()), dueKey, inflightKey, schedKey, abandonedKey}
	n, err := abandonScript.Run(ctx, q.client, keys, t.ID, body, ms(q.now())).Int()
	if err != nil {
		return errors.Wrapf(err, "abandon task %s", t.ID)
	}
	if n == 0 {
		return domain.ErrTaskNotFound
	}
	return nil
}

func (q *TaskQueue) ListAbandoned(ctx context.Context, limit int) ([]*domain.NotificationTask, error) {
	stop := int64(-1)
	if limit > 0 {
		stop = int64(limit) - 1
	}
	ids, err := q.client.ZRevRange(ctx, abandonedKey, 0, stop).Result()
	if err != nil {
		return nil, errors.Wrap(err, "list abandoned")
	}
	return q.load(ctx, ids)
}

func (q *TaskQueue) Depth(ctx context.Context) (int64, error) {
	pipe := q.client.Pipeline()
	due := pipe.ZCard(ctx, dueKey)
	inflight := pipe.ZCard(ctx, inflightKey)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, errors.Wrap(err, "queue depth")
	}
	return due.Val() + inflight.Val(), nil
}

// load fetches task bodies in the order of ids, skipping ids whose body is gone.
func (q *TaskQueue) load(ctx context.Context, ids []string) ([]*domain.NotificationTask, error) {
	out := make([]*domain.NotificationTask, 0, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = taskKey(id)
	}
	vals, err := q.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, errors.Wrap(err, "load tasks")
	}
	for i, v := range vals {
		raw, ok := v.(string)
		if !ok {
			continue
		}
		var t domain.NotificationTask
		if err := json.Unmarshal([]byte(raw), &t); err != nil {
			return nil, errors.Wrapf(err, "decode task %s", ids[i])
		}
		out = append(out, &t)
	}
	return out, nil
}
