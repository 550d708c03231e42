package timer

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/palemoky/fibbing-it/internal/apperrors"
)

const tick = time.Second

func newManualService(t *testing.T) (*Service, *ManualClock) {
	t.Helper()
	clock := NewManualClock(time.Unix(1_700_000_000, 0))
	s := New(WithClock(clock), WithTickInterval(tick))
	t.Cleanup(s.Shutdown)
	return s, clock
}

type recorder struct {
	mu      sync.Mutex
	ticks   []int
	expires atomic.Int32
}

func (r *recorder) callbacks() Callbacks {
	return Callbacks{
		OnTick: func(remaining int) {
			r.mu.Lock()
			r.ticks = append(r.ticks, remaining)
			r.mu.Unlock()
		},
		OnExpire: func() { r.expires.Add(1) },
	}
}

func (r *recorder) tickCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.ticks)
}

func (r *recorder) tickValues() []int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]int(nil), r.ticks...)
}

func TestStartTimer_NonPositiveExpiresSynchronously(t *testing.T) {
	t.Parallel()

	for _, d := range []int{0, -1, -30} {
		s, _ := newManualService(t)
		rec := &recorder{}

		h, err := s.StartTimer("ROOM", d, rec.callbacks())
		require.NoError(t, err)

		assert.Equal(t, "ROOM", h.RoomCode)
		assert.Equal(t, int32(1), rec.expires.Load(), "duration %d", d)
		assert.Zero(t, rec.tickCount())
		assert.False(t, s.IsTimerRunning("ROOM"))
	}
}

func TestStartTimer_ZeroDurationStopsRunningTimer(t *testing.T) {
	t.Parallel()

	s, clock := newManualService(t)
	first := &recorder{}
	_, err := s.StartTimer("ROOM", 5, first.callbacks())
	require.NoError(t, err)

	second := &recorder{}
	_, err = s.StartTimer("ROOM", 0, second.callbacks())
	require.NoError(t, err)

	clock.Tick(tick, 6)
	assert.Equal(t, int32(1), second.expires.Load())
	assert.Zero(t, first.expires.Load())
	assert.Zero(t, first.tickCount())
}

func TestStartTimer_TicksThenExpiresOnce(t *testing.T) {
	t.Parallel()

	s, clock := newManualService(t)
	rec := &recorder{}

	h, err := s.StartTimer("ROOM", 3, rec.callbacks())
	require.NoError(t, err)
	assert.Equal(t, clock.Now().Add(3*tick), h.Deadline)
	assert.True(t, s.IsTimerRunning("ROOM"))

	clock.Tick(tick, 3)

	assert.Eventually(t, func() bool { return rec.expires.Load() == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, []int{2, 1}, rec.tickValues())
	assert.False(t, s.IsTimerRunning("ROOM"))

	// 到期后继续推进不会再触发
	clock.Tick(tick, 3)
	assert.Equal(t, int32(1), rec.expires.Load())
	assert.Equal(t, 0, s.TimerCount())
}

func TestStartTimer_ReplacesExistingTimer(t *testing.T) {
	t.Parallel()

	s, clock := newManualService(t)
	old := &recorder{}
	_, err := s.StartTimer("ROOM", 2, old.callbacks())
	require.NoError(t, err)

	fresh := &recorder{}
	_, err = s.StartTimer("ROOM", 4, fresh.callbacks())
	require.NoError(t, err)
	assert.Equal(t, 1, s.TimerCount())

	clock.Tick(tick, 4)

	assert.Eventually(t, func() bool { return fresh.expires.Load() == 1 }, time.Second, 5*time.Millisecond)
	assert.Zero(t, old.expires.Load())
	assert.Zero(t, old.tickCount())
}

func TestStopTimer_Idempotent(t *testing.T) {
	t.Parallel()

	s, clock := newManualService(t)
	rec := &recorder{}
	_, err := s.StartTimer("ROOM", 10, rec.callbacks())
	require.NoError(t, err)

	clock.Tick(tick, 2)
	assert.Eventually(t, func() bool { return rec.tickCount() == 2 }, time.Second, 5*time.Millisecond)

	assert.True(t, s.StopTimer("ROOM"))
	assert.False(t, s.StopTimer("ROOM"))

	clock.Tick(tick, 10)
	assert.Equal(t, 2, rec.tickCount())
	assert.Zero(t, rec.expires.Load())
	assert.False(t, s.StopTimer("NOPE"))
}

func TestStopTimer_WaitsForInFlightTick(t *testing.T) {
	t.Parallel()

	s, clock := newManualService(t)
	entered := make(chan struct{}, 1)
	release := make(chan struct{})
	var ticks atomic.Int32
	_, err := s.StartTimer("ROOM", 10, Callbacks{
		OnTick: func(int) {
			ticks.Add(1)
			entered <- struct{}{}
			<-release
		},
		OnExpire: func() {},
	})
	require.NoError(t, err)

	clock.Advance(tick)
	<-entered

	var stopped atomic.Bool
	done := make(chan struct{})
	go func() {
		defer close(done)
		stopped.Store(s.StopTimer("ROOM"))
	}()

	assert.Never(t, func() bool {
		select {
		case <-done:
			return true
		default:
			return false
		}
	}, 50*time.Millisecond, 5*time.Millisecond, "StopTimer returned while OnTick was running")

	close(release)
	<-done
	assert.True(t, stopped.Load())

	// 停止后再无 tick
	clock.Tick(tick, 5)
	assert.Equal(t, int32(1), ticks.Load())
	assert.Eventually(t, func() bool { return clock.TickerCount() == 0 }, time.Second, 5*time.Millisecond)
}

func TestTimers_AreIndependentPerRoom(t *testing.T) {
	t.Parallel()

	s, clock := newManualService(t)
	a, b := &recorder{}, &recorder{}
	_, err := s.StartTimer("AAAA", 2, a.callbacks())
	require.NoError(t, err)
	_, err = s.StartTimer("BBBB", 5, b.callbacks())
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"AAAA", "BBBB"}, s.ActiveTimers())

	clock.Tick(tick, 2)
	assert.Eventually(t, func() bool { return a.expires.Load() == 1 }, time.Second, 5*time.Millisecond)
	assert.Zero(t, b.expires.Load())

	assert.Eventually(t, func() bool {
		remaining, ok := s.Remaining("BBBB")
		return ok && remaining == 3
	}, time.Second, 5*time.Millisecond)
}

func TestStartTimer_NilExpireIsTimerFault(t *testing.T) {
	t.Parallel()

	s, _ := newManualService(t)
	_, err := s.StartTimer("ROOM", 3, Callbacks{})
	assert.ErrorIs(t, err, apperrors.ErrTimerService)
	assert.False(t, s.IsTimerRunning("ROOM"))
}

func TestStartTimer_PanickingCallbackDoesNotCrash(t *testing.T) {
	t.Parallel()

	s, clock := newManualService(t)

	_, err := s.StartTimer("ROOM", 0, Callbacks{OnExpire: func() { panic("boom") }})
	assert.ErrorIs(t, err, apperrors.ErrTimerService)

	var expired atomic.Bool
	_, err = s.StartTimer("ROOM", 2, Callbacks{
		OnTick:   func(int) { panic("tick boom") },
		OnExpire: func() { expired.Store(true) },
	})
	require.NoError(t, err)

	clock.Tick(tick, 2)
	assert.Eventually(t, expired.Load, time.Second, 5*time.Millisecond)
}

type fakeRegistry map[string]bool

func (f fakeRegistry) HasRoom(code string) bool { return f[code] }

func TestSweep_StopsOrphanedTimers(t *testing.T) {
	t.Parallel()

	s, clock := newManualService(t)
	live, orphan := &recorder{}, &recorder{}
	_, err := s.StartTimer("LIVE", 10, live.callbacks())
	require.NoError(t, err)
	_, err = s.StartTimer("GONE", 10, orphan.callbacks())
	require.NoError(t, err)

	assert.Equal(t, 1, s.Sweep(fakeRegistry{"LIVE": true}))
	assert.Equal(t, []string{"LIVE"}, s.ActiveTimers())

	clock.Tick(tick, 10)
	assert.Eventually(t, func() bool { return live.expires.Load() == 1 }, time.Second, 5*time.Millisecond)
	assert.Zero(t, orphan.expires.Load())
}

func TestStartSweeper_RunsOnInterval(t *testing.T) {
	t.Parallel()

	s, clock := newManualService(t)
	_, err := s.StartTimer("GONE", 100, Callbacks{OnExpire: func() {}})
	require.NoError(t, err)

	s.StartSweeper(fakeRegistry{}, 30*time.Second)
	clock.Advance(30 * time.Second)

	assert.Eventually(t, func() bool { return s.TimerCount() == 0 }, time.Second, 5*time.Millisecond)
}

func TestShutdown_StopsEverything(t *testing.T) {
	t.Parallel()

	clock := NewManualClock(time.Now())
	s := New(WithClock(clock))
	rec := &recorder{}
	for _, code := range []string{"A", "B", "C"} {
		_, err := s.StartTimer(code, 5, rec.callbacks())
		require.NoError(t, err)
	}
	s.StartSweeper(fakeRegistry{}, time.Minute)

	s.Shutdown()
	s.Shutdown()

	assert.Equal(t, 0, s.TimerCount())
	assert.Equal(t, 0, clock.TickerCount())

	_, err := s.StartTimer("D", 5, rec.callbacks())
	assert.ErrorIs(t, err, apperrors.ErrTimerService)
}

func TestRealClock_ShortTimerExpires(t *testing.T) {
	t.Parallel()

	s := New(WithTickInterval(5 * time.Millisecond))
	t.Cleanup(s.Shutdown)

	var ticks, expires atomic.Int32
	_, err := s.StartTimer("REAL", 3, Callbacks{
		OnTick:   func(int) { ticks.Add(1) },
		OnExpire: func() { expires.Add(1) },
	})
	require.NoError(t, err)

	assert.Eventually(t, func() bool { return expires.Load() == 1 }, time.Second, time.Millisecond)
	assert.Equal(t, int32(2), ticks.Load())
}
