package server

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/palemoky/fibbing-it/internal/config"
	"github.com/palemoky/fibbing-it/internal/game"
	"github.com/palemoky/fibbing-it/internal/game/fibbing"
	"github.com/palemoky/fibbing-it/internal/game/prompt"
	"github.com/palemoky/fibbing-it/internal/game/rng"
	"github.com/palemoky/fibbing-it/internal/game/room"
	"github.com/palemoky/fibbing-it/internal/game/timer"
	"github.com/palemoky/fibbing-it/internal/server/session"
	"github.com/palemoky/fibbing-it/internal/server/storage"
)

// redisConnectTimeout Redis 连接检测超时
const redisConnectTimeout = 5 * time.Second

// New 按配置组装完整服务：题库、规则引擎、计时器、房间、会话、排行榜
func New(cfg *config.Config) (*Server, error) {
	bank := prompt.Default()
	if cfg.Game.PromptsFile != "" {
		loaded, err := prompt.Load(cfg.Game.PromptsFile)
		if err != nil {
			return nil, fmt.Errorf("加载题库失败: %w", err)
		}
		bank = loaded
	}

	src := rng.New(cfg.Game.Seed)
	timers := timer.New(timer.WithTickInterval(cfg.Game.TickInterval()))
	engines := game.NewRegistry(fibbing.New(fibbing.ConfigFrom(cfg), bank, src))
	rooms := room.NewRoomManager(room.Config{
		DefaultGameType: cfg.Game.DefaultType,
		CodeLength:      cfg.Game.RoomCodeLength,
		CodeAlphabet:    cfg.Game.RoomCodeAlphabet,
		CodePattern:     cfg.Game.RoomCodePattern,
		EmptyRoomGrace:  cfg.Game.EmptyRoomGraceDuration(),
		IdleTimeout:     cfg.Game.RoomIdleTimeoutDuration(),
		CleanupInterval: cfg.Game.CleanupIntervalDuration(),
	}, engines, timers, src)
	sessions := session.NewSessionManager(0)

	deps := Deps{Rooms: rooms, Timers: timers, Sessions: sessions}
	coordDeps := session.Deps{
		Rooms:      rooms,
		Timers:     timers,
		Sessions:   sessions,
		Rand:       src,
		MaxPlayers: cfg.Game.MaxPlayers,
	}

	if cfg.Redis.Enabled {
		ctx, cancel := context.WithTimeout(context.Background(), redisConnectTimeout)
		defer cancel()
		rdb, err := storage.NewRedisClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			timers.Shutdown()
			return nil, err
		}
		lb := storage.NewLeaderboardManager(rdb)
		deps.Redis = rdb
		deps.Leaderboard = lb
		coordDeps.Results = lb
		log.Info().Str("addr", cfg.Redis.Addr).Msg("🏆 排行榜已启用")
	}

	deps.Coordinator = session.NewCoordinator(coordDeps)
	s := NewServer(cfg, deps)

	rooms.Start()
	sessions.Start()
	timers.StartSweeper(rooms, cfg.Game.TimerSweepInterval())

	log.Info().
		Int("prompts", bank.Len()).
		Strs("games", engines.Types()).
		Dur("tick", timers.TickInterval()).
		Msg("🎮 服务组装完成")
	return s, nil
}
