package session

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const (
	// DefaultReconnectWindow 断线后可凭令牌重连的时长
	DefaultReconnectWindow = 2 * time.Minute
	// 会话清理间隔
	sessionCleanupInterval = time.Minute
)

// PlayerSession 玩家会话（用于断线重连）
// PlayerID / PlayerName / RoomCode / ReconnectToken 创建后不再改变
type PlayerSession struct {
	PlayerID       string
	PlayerName     string
	RoomCode       string
	ReconnectToken string

	disconnectedAt time.Time // 断线时间
	online         bool      // 是否在线

	mu sync.RWMutex
}

// IsOnline 会话是否在线
func (s *PlayerSession) IsOnline() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.online
}

// DisconnectedAt 断线时间，在线时为零值
func (s *PlayerSession) DisconnectedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.disconnectedAt
}

// SessionManager 会话管理器
type SessionManager struct {
	sessions map[string]*PlayerSession // playerID -> session
	tokens   map[string]string         // token -> playerID
	mu       sync.RWMutex

	window time.Duration
	now    func() time.Time

	stop     chan struct{}
	stopOnce sync.Once
}

// NewSessionManager 创建会话管理器，window <= 0 时使用默认重连时长
func NewSessionManager(window time.Duration) *SessionManager {
	if window <= 0 {
		window = DefaultReconnectWindow
	}
	return &SessionManager{
		sessions: make(map[string]*PlayerSession),
		tokens:   make(map[string]string),
		window:   window,
		now:      time.Now,
		stop:     make(chan struct{}),
	}
}

// Start 启动会话清理协程
func (sm *SessionManager) Start() {
	go sm.cleanupLoop()
}

// Stop 停止会话清理协程
func (sm *SessionManager) Stop() {
	sm.stopOnce.Do(func() { close(sm.stop) })
}

// CreateSession 创建新会话
func (sm *SessionManager) CreateSession(playerID, playerName, roomCode string) *PlayerSession {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if old, ok := sm.sessions[playerID]; ok {
		delete(sm.tokens, old.ReconnectToken)
	}

	session := &PlayerSession{
		PlayerID:       playerID,
		PlayerName:     playerName,
		RoomCode:       roomCode,
		ReconnectToken: uuid.NewString(),
		online:         true,
	}
	sm.sessions[playerID] = session
	sm.tokens[session.ReconnectToken] = playerID
	return session
}

// GetSession 获取会话
func (sm *SessionManager) GetSession(playerID string) *PlayerSession {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.sessions[playerID]
}

// GetSessionByToken 通过 token 获取会话
func (sm *SessionManager) GetSessionByToken(token string) *PlayerSession {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	playerID, ok := sm.tokens[token]
	if !ok {
		return nil
	}
	return sm.sessions[playerID]
}

// SetOffline 设置玩家离线
func (sm *SessionManager) SetOffline(playerID string) {
	if session := sm.GetSession(playerID); session != nil {
		session.mu.Lock()
		session.online = false
		session.disconnectedAt = sm.now()
		session.mu.Unlock()
	}
}

// SetOnline 设置玩家上线
func (sm *SessionManager) SetOnline(playerID string) {
	if session := sm.GetSession(playerID); session != nil {
		session.mu.Lock()
		session.online = true
		session.disconnectedAt = time.Time{}
		session.mu.Unlock()
	}
}

// IsOnline 检查玩家是否在线
func (sm *SessionManager) IsOnline(playerID string) bool {
	session := sm.GetSession(playerID)
	return session != nil && session.IsOnline()
}

// DeleteSession 删除会话
func (sm *SessionManager) DeleteSession(playerID string) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if session, ok := sm.sessions[playerID]; ok {
		delete(sm.tokens, session.ReconnectToken)
		delete(sm.sessions, playerID)
	}
}

// DeleteRoomSessions 删除房间内所有会话（房间解散时）
func (sm *SessionManager) DeleteRoomSessions(roomCode string) int {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	n := 0
	for id, session := range sm.sessions {
		if session.RoomCode == roomCode {
			delete(sm.tokens, session.ReconnectToken)
			delete(sm.sessions, id)
			n++
		}
	}
	return n
}

// Resolve 校验重连令牌，返回对应会话
// playerID 为空时只校验令牌；断线超过重连时长的会话视为失效
func (sm *SessionManager) Resolve(token, playerID string) (*PlayerSession, bool) {
	session := sm.GetSessionByToken(token)
	if session == nil {
		return nil, false
	}
	if playerID != "" && session.PlayerID != playerID {
		return nil, false
	}
	if sm.expired(session, sm.now()) {
		return nil, false
	}
	return session, true
}

// Count 会话数量
func (sm *SessionManager) Count() int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return len(sm.sessions)
}

func (sm *SessionManager) expired(s *PlayerSession, now time.Time) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return !s.online && now.Sub(s.disconnectedAt) > sm.window
}

// cleanupLoop 定期清理过期会话
func (sm *SessionManager) cleanupLoop() {
	ticker := time.NewTicker(sessionCleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-sm.stop:
			return
		case <-ticker.C:
			if n := sm.cleanup(sm.now()); n > 0 {
				log.Debug().Int("sessions", n).Msg("🧹 已清理过期会话")
			}
		}
	}
}

// cleanup 清理过期会话，返回清理数量
func (sm *SessionManager) cleanup(now time.Time) int {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	n := 0
	for playerID, session := range sm.sessions {
		if sm.expired(session, now) {
			delete(sm.tokens, session.ReconnectToken)
			delete(sm.sessions, playerID)
			n++
		}
	}
	return n
}
