package room

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/palemoky/fibbing-it/internal/apperrors"
	"github.com/palemoky/fibbing-it/internal/game"
	"github.com/palemoky/fibbing-it/internal/game/fibbing"
	"github.com/palemoky/fibbing-it/internal/game/prompt"
	"github.com/palemoky/fibbing-it/internal/game/rng"
	"github.com/palemoky/fibbing-it/internal/protocol"
	"github.com/palemoky/fibbing-it/internal/protocol/codec"
	"github.com/palemoky/fibbing-it/internal/testutil"
)

func testEngine() *fibbing.Engine {
	return fibbing.New(fibbing.Config{PromptSeconds: 15, ChooseSeconds: 20, ScoringSeconds: 6}, prompt.Default(), rng.New(1))
}

func newTestRoom(t *testing.T) *Room {
	t.Helper()
	r := newRoom("ABCD", testEngine(), time.Now)
	t.Cleanup(r.close)
	return r
}

func TestRoom_NewRoomStartsInLobby(t *testing.T) {
	t.Parallel()

	r := newTestRoom(t)
	assert.Equal(t, fibbing.GameType, r.GameType)
	assert.Equal(t, game.PhaseLobby, r.Phase())
	assert.Equal(t, 0, r.PlayerCount())
	assert.False(t, r.EmptySince().IsZero())
}

func TestRoom_DoRunsJobsInSubmissionOrder(t *testing.T) {
	t.Parallel()

	r := newTestRoom(t)
	var order []int
	var mu sync.Mutex
	for i := range 100 {
		require.True(t, r.Post(func() {
			mu.Lock()
			order = append(order, i)
			mu.Unlock()
		}))
	}
	require.NoError(t, r.Do(func() error { return nil }))

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, order, 100)
	for i, v := range order {
		assert.Equal(t, i, v)
	}
}

func TestRoom_DoSerializesConcurrentCallers(t *testing.T) {
	t.Parallel()

	r := newTestRoom(t)
	counter := 0
	var wg sync.WaitGroup
	for range 50 {
		wg.Go(func() {
			_ = r.Do(func() error {
				counter++
				return nil
			})
		})
	}
	wg.Wait()

	require.NoError(t, r.Do(func() error {
		assert.Equal(t, 50, counter)
		return nil
	}))
}

func TestRoom_DoReturnsErrorAndSurvivesPanic(t *testing.T) {
	t.Parallel()

	r := newTestRoom(t)
	sentinel := errors.New("nope")
	assert.ErrorIs(t, r.Do(func() error { return sentinel }), sentinel)

	err := r.Do(func() error { panic("boom") })
	assert.ErrorIs(t, err, apperrors.ErrUnknown)

	assert.NoError(t, r.Do(func() error { return nil }), "executor keeps running after a panic")
}

func TestRoom_ClosedRoomRejectsWork(t *testing.T) {
	t.Parallel()

	r := newRoom("WXYZ", testEngine(), time.Now)
	r.close()

	assert.False(t, r.Post(func() {}))
	assert.ErrorIs(t, r.Do(func() error { return nil }), apperrors.ErrRoomNotFound)
}

func TestRoom_RefreshTracksPlayers(t *testing.T) {
	t.Parallel()

	r := newTestRoom(t)
	require.NoError(t, r.Do(func() error {
		r.State.AddPlayer(&game.Player{ID: "p1", Connected: true})
		r.State.AddPlayer(&game.Player{ID: "p2", Connected: false})
		return nil
	}))

	assert.Equal(t, 2, r.PlayerCount())
	assert.Equal(t, 1, r.ConnectedCount())
	assert.True(t, r.EmptySince().IsZero())

	require.NoError(t, r.Do(func() error {
		r.State.SetConnected("p1", false)
		return nil
	}))
	assert.Equal(t, 0, r.ConnectedCount())
	assert.False(t, r.EmptySince().IsZero())
}

func TestRoom_AttachDetach(t *testing.T) {
	t.Parallel()

	r := newTestRoom(t)
	first := testutil.NewSimpleClient("p1", "Alice")
	second := testutil.NewSimpleClient("p1", "Alice")

	assert.Nil(t, r.Attach("p1", first))
	assert.Same(t, first, r.Attach("p1", second))

	assert.False(t, r.Detach("p1", first), "stale connection cannot detach the new one")
	assert.Same(t, second, r.Client("p1"))
	assert.True(t, r.Detach("p1", second))
	assert.Nil(t, r.Client("p1"))
}

func TestRoom_Broadcast(t *testing.T) {
	t.Parallel()

	r := newTestRoom(t)
	a := testutil.NewSimpleClient("a", "A")
	b := testutil.NewSimpleClient("b", "B")
	r.Attach("a", a)
	r.Attach("b", b)

	r.Broadcast(codec.MustNewMessage(protocol.MsgTimer, protocol.TimerPayload{TimeLeft: 3}))
	r.BroadcastExcept("a", codec.MustNewMessage(protocol.MsgPong, nil))
	r.SendTo("a", codec.MustNewMessage(protocol.MsgJoined, nil))

	assert.Len(t, a.Messages(), 2)
	assert.NotNil(t, a.Last(protocol.MsgJoined))
	assert.Len(t, b.Messages(), 2)
	assert.NotNil(t, b.Last(protocol.MsgPong))
	assert.Equal(t, b, r.Client("b"))
	assert.Nil(t, r.Client("c"))
}

func TestRoom_Snapshot(t *testing.T) {
	t.Parallel()

	r := newTestRoom(t)
	var snap protocol.RoomPayload
	require.NoError(t, r.Do(func() error {
		r.State.AddPlayer(&game.Player{ID: "p1", Name: "Alice", Connected: true})
		snap = r.Snapshot()
		return nil
	}))

	assert.Equal(t, "ABCD", snap.Code)
	assert.Equal(t, "lobby", snap.Phase)
	require.Len(t, snap.Players, 1)
	assert.True(t, snap.Players[0].IsHost)
}
