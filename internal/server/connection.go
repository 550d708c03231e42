package server

import (
	"net/http"

	"github.com/julienschmidt/httprouter"
	"github.com/rs/zerolog/log"

	"github.com/palemoky/fibbing-it/internal/protocol/codec"
)

// handleWebSocket 处理 WebSocket 连接，?codec=proto 使用二进制帧
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	// 获取真实客户端IP
	clientIP := GetClientIP(r)

	// 关闭中拒绝新连接（最优先）
	if s.IsMaintenanceMode() {
		log.Info().Str("ip", clientIP).Msg("🔧 服务器关闭中，拒绝新连接")
		http.Error(w, "Server is shutting down", http.StatusServiceUnavailable)
		return
	}

	// 来源验证
	if !s.originChecker.Check(r) {
		log.Warn().Str("origin", r.Header.Get("Origin")).Str("ip", clientIP).Msg("🚫 来源验证失败")
		http.Error(w, "Origin not allowed", http.StatusForbidden)
		return
	}

	// 连接数限制检查，名额在连接断开时释放
	select {
	case s.semaphore <- struct{}{}:
	default:
		log.Warn().Int("max", s.maxConnections).Str("ip", clientIP).Msg("🚫 达到最大连接数限制")
		http.Error(w, "Server Full", http.StatusServiceUnavailable)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		<-s.semaphore
		log.Warn().Err(err).Str("ip", clientIP).Msg("WebSocket 升级失败")
		return
	}

	client := NewClient(s, conn, codec.ByName(r.URL.Query().Get("codec")))
	client.IP = clientIP
	s.registerClient(client)

	log.Debug().Str("client", client.GetID()).Str("ip", clientIP).Str("codec", client.codec.Name()).Msg("✅ 新连接")

	// 启动客户端读写协程
	go client.WritePump()
	go client.ReadPump()
}
