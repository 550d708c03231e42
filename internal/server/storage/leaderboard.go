package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/palemoky/fibbing-it/internal/protocol"
)

const (
	// Redis key
	playerStatsKey    = "fibbing:stats:"
	leaderboardKey    = "fibbing:leaderboard:total"
	dailyLeaderboard  = "fibbing:leaderboard:daily:"
	weeklyLeaderboard = "fibbing:leaderboard:weekly:"

	dailyTTL  = 48 * time.Hour
	weeklyTTL = 8 * 24 * time.Hour

	// DefaultLimit 排行榜默认条数
	DefaultLimit = 10
	// MaxLimit 排行榜最大条数
	MaxLimit = 100
)

// Period 排行榜周期
type Period string

const (
	PeriodTotal  Period = "total"
	PeriodDaily  Period = "daily"
	PeriodWeekly Period = "weekly"
)

// GameResult 一局结束时单个玩家的结果
type GameResult struct {
	PlayerName string
	Score      int
	Won        bool
}

// PlayerStats 玩家累计数据，以昵称为键（玩家 id 仅在房间内有效）
type PlayerStats struct {
	PlayerName   string `json:"player_name"`
	TotalGames   int    `json:"total_games"`
	Wins         int    `json:"wins"`
	TotalScore   int    `json:"total_score"`
	BestScore    int    `json:"best_score"`
	LastPlayedAt int64  `json:"last_played_at"`
	CreatedAt    int64  `json:"created_at"`
}

// LeaderboardManager 排行榜管理器
type LeaderboardManager struct {
	redis *redis.Client
	now   func() time.Time
}

// NewLeaderboardManager 创建排行榜管理器
func NewLeaderboardManager(client *redis.Client) *LeaderboardManager {
	return &LeaderboardManager{redis: client, now: time.Now}
}

// NewRedisClient 创建并检测 Redis 连接
func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis 连接失败: %w", err)
	}
	return rdb, nil
}

func memberOf(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// GetPlayerStats 获取玩家统计，不存在时返回 nil
func (lm *LeaderboardManager) GetPlayerStats(ctx context.Context, playerName string) (*PlayerStats, error) {
	data, err := lm.redis.Get(ctx, playerStatsKey+memberOf(playerName)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}

	var stats PlayerStats
	if err := json.Unmarshal(data, &stats); err != nil {
		return nil, fmt.Errorf("反序列化玩家统计失败: %w", err)
	}
	return &stats, nil
}

// RecordGame 记录一局游戏的所有玩家结果
func (lm *LeaderboardManager) RecordGame(ctx context.Context, results []GameResult) error {
	var errs []error
	for _, r := range results {
		if memberOf(r.PlayerName) == "" {
			continue
		}
		if err := lm.recordResult(ctx, r); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", r.PlayerName, err))
		}
	}
	return errors.Join(errs...)
}

func (lm *LeaderboardManager) recordResult(ctx context.Context, r GameResult) error {
	stats, err := lm.GetPlayerStats(ctx, r.PlayerName)
	if err != nil {
		return err
	}
	now := lm.now()
	if stats == nil {
		stats = &PlayerStats{CreatedAt: now.Unix()}
	}

	stats.PlayerName = r.PlayerName
	stats.TotalGames++
	stats.TotalScore += r.Score
	stats.BestScore = max(stats.BestScore, r.Score)
	stats.LastPlayedAt = now.Unix()
	if r.Won {
		stats.Wins++
	}

	data, err := json.Marshal(stats)
	if err != nil {
		return err
	}

	member := memberOf(r.PlayerName)
	dailyKey := lm.periodKey(PeriodDaily)
	weeklyKey := lm.periodKey(PeriodWeekly)

	_, err = lm.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, playerStatsKey+member, data, 0)
		pipe.ZAdd(ctx, leaderboardKey, redis.Z{Score: float64(stats.TotalScore), Member: member})
		pipe.ZIncrBy(ctx, dailyKey, float64(r.Score), member)
		pipe.Expire(ctx, dailyKey, dailyTTL)
		pipe.ZIncrBy(ctx, weeklyKey, float64(r.Score), member)
		pipe.Expire(ctx, weeklyKey, weeklyTTL)
		return nil
	})
	return err
}

func (lm *LeaderboardManager) periodKey(p Period) string {
	now := lm.now()
	switch p {
	case PeriodDaily:
		return dailyLeaderboard + now.Format("2006-01-02")
	case PeriodWeekly:
		year, week := now.ISOWeek()
		return fmt.Sprintf("%s%d-W%02d", weeklyLeaderboard, year, week)
	}
	return leaderboardKey
}

// GetLeaderboard 获取排行榜（从高到低）
func (lm *LeaderboardManager) GetLeaderboard(ctx context.Context, period Period, limit int) ([]protocol.LeaderboardEntry, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	limit = min(limit, MaxLimit)

	results, err := lm.redis.ZRevRangeWithScores(ctx, lm.periodKey(period), 0, int64(limit-1)).Result()
	if err != nil {
		return nil, err
	}

	entries := make([]protocol.LeaderboardEntry, 0, len(results))
	for i, z := range results {
		member, _ := z.Member.(string)
		entry := protocol.LeaderboardEntry{
			Rank:       i + 1,
			PlayerName: member,
			Score:      int(z.Score),
		}
		if stats, err := lm.GetPlayerStats(ctx, member); err == nil && stats != nil {
			entry.PlayerName = stats.PlayerName
			entry.Games = stats.TotalGames
			entry.Wins = stats.Wins
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// GetPlayerRank 获取玩家总榜排名，未上榜返回 -1
func (lm *LeaderboardManager) GetPlayerRank(ctx context.Context, playerName string) (int64, error) {
	rank, err := lm.redis.ZRevRank(ctx, leaderboardKey, memberOf(playerName)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return -1, nil
		}
		return -1, err
	}
	return rank + 1, nil
}

// ParsePeriod 解析查询参数，未知值按总榜处理
func ParsePeriod(s string) Period {
	switch Period(strings.ToLower(s)) {
	case PeriodDaily:
		return PeriodDaily
	case PeriodWeekly:
		return PeriodWeekly
	}
	return PeriodTotal
}
