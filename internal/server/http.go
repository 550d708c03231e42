package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/rs/zerolog/log"
	"github.com/skip2/go-qrcode"

	"github.com/palemoky/fibbing-it/internal/apperrors"
	"github.com/palemoky/fibbing-it/internal/game/roomcode"
	"github.com/palemoky/fibbing-it/internal/protocol"
	"github.com/palemoky/fibbing-it/internal/server/storage"
)

const (
	qrSize             = 320 // 手机扫码友好的尺寸
	leaderboardTimeout = 3 * time.Second
	maxBodySize        = 4096
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warn().Err(err).Msg("⚠️ 响应写入失败")
	}
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, apperrors.StatusOf(err), protocol.HTTPError{Error: apperrors.ToPayload(err)})
}

// handleCreateRoom POST /rooms
func (s *Server) handleCreateRoom(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	if s.IsMaintenanceMode() {
		writeError(w, apperrors.ErrUnavailable.WithMessage("服务器关闭中，暂停创建房间"))
		return
	}

	var req protocol.CreateRoomRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodySize)).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, apperrors.InvalidRequest(err.Error()))
		return
	}

	room, err := s.rooms.CreateRoom(req.RoomCode, req.GameType)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, protocol.CreateRoomResponse{Code: room.Code})
}

// handleGetRoom GET /rooms/:code
func (s *Server) handleGetRoom(w http.ResponseWriter, _ *http.Request, ps httprouter.Params) {
	snap, err := s.rooms.Snapshot(ps.ByName("code"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// handleDeleteRoom DELETE /rooms/:code
func (s *Server) handleDeleteRoom(w http.ResponseWriter, _ *http.Request, ps httprouter.Params) {
	code := ps.ByName("code")
	if !s.coordinator.CloseRoom(code) {
		writeError(w, apperrors.RoomNotFound(code))
		return
	}
	writeJSON(w, http.StatusOK, protocol.DeleteRoomResponse{
		Success: true,
		Message: fmt.Sprintf("room %s deleted", roomcode.Normalize(code)),
	})
}

// handleRoomQR GET /rooms/:code/qr 返回加入链接的二维码 PNG
func (s *Server) handleRoomQR(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	snap, err := s.rooms.Snapshot(ps.ByName("code"))
	if err != nil {
		writeError(w, err)
		return
	}

	png, err := qrcode.Encode(s.joinURL(r, snap.Code), qrcode.Medium, qrSize)
	if err != nil {
		writeError(w, apperrors.ErrUnknown.Wrap(err))
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(png)
}

// joinURL 优先使用配置的公开地址，否则根据请求推导
func (s *Server) joinURL(r *http.Request, code string) string {
	base := strings.TrimRight(s.config.Server.PublicURL, "/")
	if base == "" {
		scheme := "http"
		if r.TLS != nil {
			scheme = "https"
		}
		if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
			scheme = proto
		}
		base = scheme + "://" + r.Host
	}
	return base + "/?room=" + url.QueryEscape(code)
}

// handleHealth GET /health
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
	status := "ok"
	if s.IsMaintenanceMode() {
		status = "shutting_down"
	}
	writeJSON(w, http.StatusOK, protocol.HealthResponse{
		Status:    status,
		Timestamp: time.Now().UnixMilli(),
		Resources: protocol.HealthResources{
			ActiveRooms:   s.rooms.GetRoomCount(),
			ActivePlayers: s.rooms.GetActivePlayerCount(),
			ActiveTimers:  s.timers.TimerCount(),
		},
	})
}

// handleLeaderboard GET /leaderboard?limit=&period=
func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	if s.leaderboard == nil {
		writeError(w, apperrors.ErrUnavailable.WithMessage("排行榜未启用"))
		return
	}

	q := r.URL.Query()
	limit := 0
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeError(w, apperrors.InvalidRequest("limit must be a non-negative integer"))
			return
		}
		limit = n
	}

	ctx, cancel := context.WithTimeout(r.Context(), leaderboardTimeout)
	defer cancel()

	entries, err := s.leaderboard.GetLeaderboard(ctx, storage.ParsePeriod(q.Get("period")), limit)
	if err != nil {
		log.Warn().Err(err).Msg("⚠️ 排行榜查询失败")
		writeError(w, apperrors.ErrUnavailable.Wrap(err))
		return
	}
	if entries == nil {
		entries = []protocol.LeaderboardEntry{}
	}
	writeJSON(w, http.StatusOK, protocol.LeaderboardResponse{Entries: entries})
}

// handlePlayerStanding GET /leaderboard/:name 玩家总榜排名与累计数据
func (s *Server) handlePlayerStanding(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if s.leaderboard == nil {
		writeError(w, apperrors.ErrUnavailable.WithMessage("排行榜未启用"))
		return
	}
	name := strings.TrimSpace(ps.ByName("name"))

	ctx, cancel := context.WithTimeout(r.Context(), leaderboardTimeout)
	defer cancel()

	stats, err := s.leaderboard.GetPlayerStats(ctx, name)
	if err != nil {
		log.Warn().Err(err).Str("player", name).Msg("⚠️ 玩家统计查询失败")
		writeError(w, apperrors.ErrUnavailable.Wrap(err))
		return
	}
	if stats == nil {
		writeError(w, apperrors.ErrPlayerNotFound.WithMessage("player has no recorded games: "+name))
		return
	}
	rank, err := s.leaderboard.GetPlayerRank(ctx, name)
	if err != nil {
		log.Warn().Err(err).Str("player", name).Msg("⚠️ 玩家排名查询失败")
		writeError(w, apperrors.ErrUnavailable.Wrap(err))
		return
	}

	writeJSON(w, http.StatusOK, protocol.PlayerStandingResponse{
		PlayerName: stats.PlayerName,
		Rank:       int(rank),
		Games:      stats.TotalGames,
		Wins:       stats.Wins,
		TotalScore: stats.TotalScore,
		BestScore:  stats.BestScore,
	})
}
