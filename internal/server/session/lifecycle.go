package session

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/palemoky/fibbing-it/internal/game/room"
	"github.com/palemoky/fibbing-it/internal/server/storage"
)

// recordTimeout 写排行榜超时
const recordTimeout = 5 * time.Second

// recordResults 游戏结束后异步写入排行榜；仅在执行器内调用
func (c *Coordinator) recordResults(r *room.Room) {
	standings := r.Engine.Winners(r.State)
	if len(standings) == 0 {
		return
	}

	top := standings[0].Score
	results := make([]storage.GameResult, 0, len(standings))
	for _, p := range standings {
		results = append(results, storage.GameResult{
			PlayerName: p.Name,
			Score:      p.Score,
			Won:        p.Score == top,
		})
	}

	log.Info().Str("room", r.Code).Str("winner", standings[0].Name).Int("score", top).Msg("🎮 游戏结束")

	if c.results == nil {
		return
	}
	code := r.Code
	c.wg.Go(func() {
		ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
		defer cancel()
		if err := c.results.RecordGame(ctx, results); err != nil {
			log.Warn().Err(err).Str("room", code).Msg("⚠️ 排行榜写入失败")
		}
	})
}
