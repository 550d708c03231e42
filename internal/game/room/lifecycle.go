package room

import (
	"time"

	"github.com/rs/zerolog/log"

	"github.com/palemoky/fibbing-it/internal/game"
)

// cleanupLoop 定期清理空房间与空闲房间
func (rm *RoomManager) cleanupLoop() {
	ticker := time.NewTicker(rm.cfg.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-rm.stop:
			return
		case <-ticker.C:
			rm.cleanup(rm.now())
		}
	}
}

// cleanup 清理超时房间，返回被清理的房间号
// 1. 无在线玩家超过 EmptyRoomGrace
// 2. 停留在 lobby 且无任何活动超过 IdleTimeout
func (rm *RoomManager) cleanup(now time.Time) []string {
	type victim struct {
		code   string
		reason string
	}
	var victims []victim

	rm.mu.RLock()
	for code, room := range rm.rooms {
		if since := room.EmptySince(); !since.IsZero() && rm.cfg.EmptyRoomGrace > 0 && now.Sub(since) > rm.cfg.EmptyRoomGrace {
			victims = append(victims, victim{code, "房间无人已关闭"})
			continue
		}
		if room.Phase() == game.PhaseLobby && rm.cfg.IdleTimeout > 0 && now.Sub(room.LastActive()) > rm.cfg.IdleTimeout {
			victims = append(victims, victim{code, "房间超时已关闭"})
		}
	}
	rm.mu.RUnlock()

	codes := make([]string, 0, len(victims))
	for _, v := range victims {
		if rm.deleteRoom(v.code, v.reason) {
			codes = append(codes, v.code)
		}
	}
	if len(codes) > 0 {
		log.Info().Strs("rooms", codes).Msg("🧹 已清理房间")
	}
	return codes
}
