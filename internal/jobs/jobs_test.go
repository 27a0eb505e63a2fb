package jobs

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

type stubRelayer struct {
	calls  int
	limits []int
	err    error
}

func (s *stubRelayer) RelayPending(_ context.Context, limit int) (int, error) {
	s.calls++
	s.limits = append(s.limits, limit)
	return 2, s.err
}

type stubDepth struct {
	depth int64
	err   error
}

func (s *stubDepth) Depth(context.Context) (int64, error) { return s.depth, s.err }

func TestOutboxRelayJob_RunUsesBatch(t *testing.T) {
	r := &stubRelayer{}
	j := NewOutboxRelayJob(r, "", 25, zerolog.Nop())

	j.run()
	r.err = errors.New("mongo down")
	j.run()

	require.Equal(t, 2, r.calls)
	require.Equal(t, []int{25, 25}, r.limits)
	require.Equal(t, DefaultRelaySchedule, j.schedule)
}

func TestOutboxRelayJob_InvalidSchedule(t *testing.T) {
	j := NewOutboxRelayJob(&stubRelayer{}, "not a cron line", 0, zerolog.Nop())
	require.Error(t, j.Start())
	require.Equal(t, defaultRelayBatch, j.batch)
}

func TestJobManager_StartStop(t *testing.T) {
	jm := NewJobManager(&stubRelayer{}, &stubDepth{depth: 3}, Config{}, zerolog.Nop())
	require.NoError(t, jm.StartAll())
	jm.StopAll()
}

func TestJobManager_StartFailsOnBadDepthSchedule(t *testing.T) {
	jm := NewJobManager(&stubRelayer{}, &stubDepth{}, Config{DepthSchedule: "@never"}, zerolog.Nop())
	require.Error(t, jm.StartAll())
}

func TestQueueDepthJob_ToleratesErrors(t *testing.T) {
	j := NewQueueDepthJob(&stubDepth{err: errors.New("redis down")}, "", zerolog.Nop())
	j.run()
}
