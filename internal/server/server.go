package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/palemoky/fibbing-it/internal/config"
	"github.com/palemoky/fibbing-it/internal/game/room"
	"github.com/palemoky/fibbing-it/internal/game/timer"
	"github.com/palemoky/fibbing-it/internal/logger"
	"github.com/palemoky/fibbing-it/internal/protocol"
	"github.com/palemoky/fibbing-it/internal/server/handler"
	"github.com/palemoky/fibbing-it/internal/server/session"
	"github.com/palemoky/fibbing-it/internal/server/storage"
)

// Leaderboard 排行榜查询
type Leaderboard interface {
	GetLeaderboard(ctx context.Context, period storage.Period, limit int) ([]protocol.LeaderboardEntry, error)
	GetPlayerStats(ctx context.Context, playerName string) (*storage.PlayerStats, error)
	GetPlayerRank(ctx context.Context, playerName string) (int64, error)
}

// Deps 服务器依赖
type Deps struct {
	Rooms       *room.RoomManager
	Timers      *timer.Service
	Sessions    *session.SessionManager
	Coordinator *session.Coordinator
	Leaderboard Leaderboard   // 可为空，未启用 Redis
	Redis       *redis.Client // 可为空，关闭时释放
}

// Server HTTP / WebSocket 服务器
type Server struct {
	config      *config.Config
	rooms       *room.RoomManager
	timers      *timer.Service
	sessions    *session.SessionManager
	coordinator *session.Coordinator
	leaderboard Leaderboard
	redis       *redis.Client
	handler     *handler.Handler

	router        *httprouter.Router
	upgrader      websocket.Upgrader
	originChecker *OriginChecker
	httpServer    *http.Server

	clients   map[*Client]struct{}
	clientsMu sync.RWMutex

	// 连接控制
	maxConnections int
	semaphore      chan struct{} // 信号量控制并发连接数

	// 关闭中：拒绝新连接与新房间
	maintenanceMode atomic.Bool
	shutdownOnce    sync.Once
}

// NewServer 创建服务器实例
func NewServer(cfg *config.Config, deps Deps) *Server {
	s := &Server{
		config:         cfg,
		rooms:          deps.Rooms,
		timers:         deps.Timers,
		sessions:       deps.Sessions,
		coordinator:    deps.Coordinator,
		leaderboard:    deps.Leaderboard,
		redis:          deps.Redis,
		handler:        handler.NewHandler(deps.Coordinator),
		originChecker:  NewOriginChecker(cfg.Security.AllowedOrigins),
		clients:        make(map[*Client]struct{}),
		maxConnections: cfg.Server.MaxConnections,
		semaphore:      make(chan struct{}, max(cfg.Server.MaxConnections, 1)),
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     s.originChecker.Check,
	}
	s.router = s.routes()

	log.Info().
		Int("msgPerSecond", cfg.Security.MessageLimit.MaxPerSecond).
		Int("msgBurst", cfg.Security.MessageLimit.Burst).
		Int("maxConnections", cfg.Server.MaxConnections).
		Bool("leaderboard", deps.Leaderboard != nil).
		Msg("🔒 安全配置")
	return s
}

func (s *Server) routes() *httprouter.Router {
	r := httprouter.New()
	r.GET("/ws", s.handleWebSocket)
	r.GET("/health", s.handleHealth)
	r.GET("/leaderboard", s.handleLeaderboard)
	r.GET("/leaderboard/:name", s.handlePlayerStanding)
	r.POST("/rooms", s.handleCreateRoom)
	r.GET("/rooms/:code", s.handleGetRoom)
	r.DELETE("/rooms/:code", s.handleDeleteRoom)
	r.GET("/rooms/:code/qr", s.handleRoomQR)
	r.PanicHandler = func(w http.ResponseWriter, _ *http.Request, v any) {
		logger.LogPanic(v)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
	return r
}

// Handler 返回路由，供 httptest 使用
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start 启动服务器，阻塞直到关闭
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second, // 防止 Slowloris 攻击
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go s.monitorStats()

	log.Info().Str("addr", addr).Int("cpus", runtime.NumCPU()).Msgf("🚀 服务器启动在 ws://%s/ws", addr)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// registerClient 注册客户端
func (s *Server) registerClient(client *Client) {
	s.clientsMu.Lock()
	defer s.clientsMu.Unlock()
	s.clients[client] = struct{}{}
}

// unregisterClient 注销客户端并释放连接名额
func (s *Server) unregisterClient(client *Client) {
	s.clientsMu.Lock()
	defer s.clientsMu.Unlock()

	if _, ok := s.clients[client]; ok {
		delete(s.clients, client)
		<-s.semaphore
		log.Debug().Str("client", client.GetID()).Str("ip", client.IP).Msg("❌ 连接已断开")
	}
}

// GetOnlineCount 当前连接数
func (s *Server) GetOnlineCount() int {
	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()
	return len(s.clients)
}
