package server

import (
	"context"
	"runtime"
	"time"

	"github.com/rs/zerolog/log"
)

// monitorInterval 状态日志间隔
const monitorInterval = 30 * time.Second

// monitorStats 定期监控服务器状态
func (s *Server) monitorStats() {
	ticker := time.NewTicker(monitorInterval)
	defer ticker.Stop()

	for range ticker.C {
		if s.IsMaintenanceMode() {
			return
		}
		var m runtime.MemStats
		runtime.ReadMemStats(&m)

		log.Info().
			Int("online", s.GetOnlineCount()).
			Int("rooms", s.rooms.GetRoomCount()).
			Int("timers", s.timers.TimerCount()).
			Int("goroutines", runtime.NumGoroutine()).
			Int("conns", len(s.semaphore)).
			Int("maxConns", s.maxConnections).
			Float64("memMB", float64(m.Alloc)/1024/1024).
			Msg("📊 [监控]")
	}
}

// EnterMaintenanceMode 停止接受新连接与新房间
func (s *Server) EnterMaintenanceMode() {
	if s.maintenanceMode.CompareAndSwap(false, true) {
		log.Info().Msg("🔧 进入维护模式：停止新连接和房间创建")
	}
}

// IsMaintenanceMode 检查是否在维护模式
func (s *Server) IsMaintenanceMode() bool {
	return s.maintenanceMode.Load()
}

// Shutdown 优雅关闭：停止 HTTP、解散房间、停止所有计时器
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.EnterMaintenanceMode()

		if s.httpServer != nil {
			if e := s.httpServer.Shutdown(ctx); e != nil {
				log.Warn().Err(e).Msg("⚠️ HTTP 服务关闭超时")
				err = e
			}
		}

		// 解散房间会通知房间内玩家并停止计时器
		s.rooms.Shutdown()
		s.timers.Shutdown()
		s.sessions.Stop()

		// 关闭所有客户端连接
		s.clientsMu.RLock()
		for client := range s.clients {
			client.Close()
		}
		s.clientsMu.RUnlock()

		// 等待排行榜写入完成
		s.coordinator.Wait()

		if s.redis != nil {
			_ = s.redis.Close()
		}
		log.Info().Msg("🛑 服务器已关闭")
	})
	return err
}
