package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionManager_CRUD(t *testing.T) {
	t.Parallel()
	sm := NewSessionManager(0)

	session := sm.CreateSession("p1", "Player1", "ABCD")
	require.NotNil(t, session)
	assert.Equal(t, "p1", session.PlayerID)
	assert.Equal(t, "Player1", session.PlayerName)
	assert.Equal(t, "ABCD", session.RoomCode)
	assert.NotEmpty(t, session.ReconnectToken)
	assert.True(t, session.IsOnline())

	assert.Same(t, session, sm.GetSession("p1"))
	assert.Same(t, session, sm.GetSessionByToken(session.ReconnectToken))
	assert.Equal(t, 1, sm.Count())

	sm.DeleteSession("p1")
	assert.Nil(t, sm.GetSession("p1"))
	assert.Nil(t, sm.GetSessionByToken(session.ReconnectToken))
}

func TestSessionManager_RecreateRevokesOldToken(t *testing.T) {
	t.Parallel()
	sm := NewSessionManager(0)

	first := sm.CreateSession("p1", "Player1", "ABCD")
	second := sm.CreateSession("p1", "Player1", "WXYZ")

	assert.NotEqual(t, first.ReconnectToken, second.ReconnectToken)
	assert.Nil(t, sm.GetSessionByToken(first.ReconnectToken))
	assert.Same(t, second, sm.GetSessionByToken(second.ReconnectToken))
}

func TestSessionManager_OnlineStatus(t *testing.T) {
	t.Parallel()
	sm := NewSessionManager(0)
	session := sm.CreateSession("p1", "Player1", "ABCD")

	assert.True(t, session.IsOnline())
	assert.True(t, session.DisconnectedAt().IsZero())

	sm.SetOffline("p1")
	assert.False(t, sm.IsOnline("p1"))
	assert.False(t, session.DisconnectedAt().IsZero())

	sm.SetOnline("p1")
	assert.True(t, sm.IsOnline("p1"))
	assert.True(t, session.DisconnectedAt().IsZero())
}

func TestSessionManager_Resolve(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		setup     func(sm *SessionManager) (token, playerID string)
		wantAllow bool
	}{
		{
			name: "valid reconnection (online)",
			setup: func(sm *SessionManager) (string, string) {
				return sm.CreateSession("p1", "Player1", "ABCD").ReconnectToken, "p1"
			},
			wantAllow: true,
		},
		{
			name: "valid reconnection (offline)",
			setup: func(sm *SessionManager) (string, string) {
				session := sm.CreateSession("p1", "Player1", "ABCD")
				sm.SetOffline("p1")
				return session.ReconnectToken, "p1"
			},
			wantAllow: true,
		},
		{
			name: "token only",
			setup: func(sm *SessionManager) (string, string) {
				return sm.CreateSession("p1", "Player1", "ABCD").ReconnectToken, ""
			},
			wantAllow: true,
		},
		{
			name: "invalid token",
			setup: func(sm *SessionManager) (string, string) {
				sm.CreateSession("p1", "Player1", "ABCD")
				return "wrong-token", "p1"
			},
			wantAllow: false,
		},
		{
			name: "wrong player ID",
			setup: func(sm *SessionManager) (string, string) {
				return sm.CreateSession("p1", "Player1", "ABCD").ReconnectToken, "p2"
			},
			wantAllow: false,
		},
		{
			name: "expired session",
			setup: func(sm *SessionManager) (string, string) {
				session := sm.CreateSession("p1", "Player1", "ABCD")
				sm.SetOffline("p1")
				session.mu.Lock()
				session.disconnectedAt = time.Now().Add(-3 * time.Minute)
				session.mu.Unlock()
				return session.ReconnectToken, "p1"
			},
			wantAllow: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			sm := NewSessionManager(0)
			token, playerID := tt.setup(sm)
			session, ok := sm.Resolve(token, playerID)
			assert.Equal(t, tt.wantAllow, ok)
			if ok {
				assert.Equal(t, "p1", session.PlayerID)
			}
		})
	}
}

func TestSessionManager_Cleanup(t *testing.T) {
	t.Parallel()
	sm := NewSessionManager(time.Minute)
	base := time.Now()
	sm.now = func() time.Time { return base }

	sm.CreateSession("online", "A", "ABCD")
	sm.CreateSession("recent", "B", "ABCD")
	stale := sm.CreateSession("stale", "C", "ABCD")
	sm.SetOffline("recent")
	sm.SetOffline("stale")
	stale.mu.Lock()
	stale.disconnectedAt = base.Add(-2 * time.Minute)
	stale.mu.Unlock()

	assert.Equal(t, 1, sm.cleanup(base))
	assert.NotNil(t, sm.GetSession("online"))
	assert.NotNil(t, sm.GetSession("recent"))
	assert.Nil(t, sm.GetSession("stale"))
	assert.Nil(t, sm.GetSessionByToken(stale.ReconnectToken))
}

func TestSessionManager_DeleteRoomSessions(t *testing.T) {
	t.Parallel()
	sm := NewSessionManager(0)

	sm.CreateSession("p1", "A", "ABCD")
	sm.CreateSession("p2", "B", "ABCD")
	sm.CreateSession("p3", "C", "WXYZ")

	assert.Equal(t, 2, sm.DeleteRoomSessions("ABCD"))
	assert.Equal(t, 1, sm.Count())
	assert.NotNil(t, sm.GetSession("p3"))
}

func TestSessionManager_NonExistentPlayer(t *testing.T) {
	t.Parallel()
	sm := NewSessionManager(0)

	assert.NotPanics(t, func() {
		sm.SetOffline("non-existent")
		sm.SetOnline("non-existent")
		sm.DeleteSession("non-existent")
	})
	assert.False(t, sm.IsOnline("non-existent"))
	assert.Nil(t, sm.GetSessionByToken(""))
}

func TestSessionManager_StartStop(t *testing.T) {
	t.Parallel()
	sm := NewSessionManager(0)
	sm.Start()
	sm.Stop()
	sm.Stop()
}
