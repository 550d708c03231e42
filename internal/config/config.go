package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// 默认值
const (
	defaultHost           = "0.0.0.0"
	defaultPort           = 1780
	defaultMaxConnections = 2000
	defaultRedisAddr      = "localhost:6379"
	defaultLogLevel       = "info"

	defaultGameType         = "fibbing-it"
	defaultTickIntervalMS   = 1000
	defaultTimerSweep       = 30
	defaultRoomIdleTimeout  = 30
	defaultEmptyRoomGrace   = 120
	defaultCleanupInterval  = 30
	defaultMaxPlayers       = 8
	defaultMinPlayers       = 2
	defaultMaxRounds        = 5
	defaultRoomCodeLength   = 4
	defaultRoomCodeAlphabet = "ABCDEFGHJKMNPQRSTUWXYZ23456789"
	defaultRoomCodePattern  = `^[ABCDEFGHJKMNPQRSTUWXYZ2-9]{4,8}$`

	defaultPromptSeconds  = 15
	defaultChooseSeconds  = 20
	defaultScoringSeconds = 6
	defaultCorrectPoints  = 1000
	defaultFooledPoints   = 500

	defaultMessagesPerSecond = 10
	defaultMessageBurst      = 20
)

// Config 服务端配置
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Redis    RedisConfig    `yaml:"redis"`
	Game     GameConfig     `yaml:"game"`
	Fibbing  FibbingConfig  `yaml:"fibbing"`
	Security SecurityConfig `yaml:"security"`
	Log      LogConfig      `yaml:"log"`
}

// ServerConfig HTTP / WebSocket 服务器配置
type ServerConfig struct {
	Host           string `yaml:"host"`
	Port           int    `yaml:"port"`
	MaxConnections int    `yaml:"max_connections"`
	PublicURL      string `yaml:"public_url"`     // 二维码中的加入地址前缀
	ShutdownGrace  int    `yaml:"shutdown_grace"` // 优雅关闭等待（秒）
}

// RedisConfig Redis 配置（仅用于排行榜，房间不落盘）
type RedisConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// GameConfig 房间与计时器配置（与具体玩法无关）
type GameConfig struct {
	DefaultType      string `yaml:"default_type"`
	TickIntervalMS   int    `yaml:"tick_interval_ms"`     // 计时器 tick 间隔（毫秒）
	TimerSweep       int    `yaml:"timer_sweep_interval"` // 孤儿计时器清理间隔（秒）
	RoomIdleTimeout  int    `yaml:"room_idle_timeout"`    // 大厅空闲超时（分钟）
	EmptyRoomGrace   int    `yaml:"empty_room_grace"`     // 无在线玩家的房间保留时间（秒）
	CleanupInterval  int    `yaml:"cleanup_interval"`     // 房间清理间隔（秒）
	MaxPlayers       int    `yaml:"max_players"`
	MinPlayers       int    `yaml:"min_players"`
	MaxRounds        int    `yaml:"max_rounds"`
	RoomCodeLength   int    `yaml:"room_code_length"`
	RoomCodeAlphabet string `yaml:"room_code_alphabet"`
	RoomCodePattern  string `yaml:"room_code_pattern"`
	PromptsFile      string `yaml:"prompts_file"` // 为空时使用内置题库
	Seed             uint64 `yaml:"seed"`         // 0 表示随机种子
}

// FibbingConfig Fibbing It 玩法配置
type FibbingConfig struct {
	LobbySeconds           int  `yaml:"lobby_seconds"`
	PromptSeconds          int  `yaml:"prompt_seconds"`
	ChooseSeconds          int  `yaml:"choose_seconds"`
	ScoringSeconds         int  `yaml:"scoring_seconds"`
	CorrectPoints          int  `yaml:"correct_points"`
	FooledPoints           int  `yaml:"fooled_points"`
	CountDisconnectedVotes bool `yaml:"count_disconnected_votes"`
}

// SecurityConfig 连接安全配置
type SecurityConfig struct {
	AllowedOrigins []string           `yaml:"allowed_origins"`
	MessageLimit   MessageLimitConfig `yaml:"message_limit"`
}

// MessageLimitConfig 单连接消息速率限制
type MessageLimitConfig struct {
	MaxPerSecond int `yaml:"max_per_second"`
	Burst        int `yaml:"burst"`
}

// LogConfig 日志配置
type LogConfig struct {
	Level  string `yaml:"level"`
	Pretty bool   `yaml:"pretty"`
}

// TickInterval 返回计时器 tick 间隔
func (c *GameConfig) TickInterval() time.Duration {
	return time.Duration(c.TickIntervalMS) * time.Millisecond
}

// TimerSweepInterval 返回孤儿计时器清理间隔
func (c *GameConfig) TimerSweepInterval() time.Duration {
	return time.Duration(c.TimerSweep) * time.Second
}

// RoomIdleTimeoutDuration 返回大厅空闲超时时长
func (c *GameConfig) RoomIdleTimeoutDuration() time.Duration {
	return time.Duration(c.RoomIdleTimeout) * time.Minute
}

// EmptyRoomGraceDuration 返回空房间保留时长
func (c *GameConfig) EmptyRoomGraceDuration() time.Duration {
	return time.Duration(c.EmptyRoomGrace) * time.Second
}

// CleanupIntervalDuration 返回房间清理间隔
func (c *GameConfig) CleanupIntervalDuration() time.Duration {
	return time.Duration(c.CleanupInterval) * time.Second
}

// ShutdownGraceDuration 返回优雅关闭等待时长
func (c *ServerConfig) ShutdownGraceDuration() time.Duration {
	return time.Duration(c.ShutdownGrace) * time.Second
}

// Load 加载配置文件
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	applyEnv(&cfg)
	applyDefaults(&cfg)
	return &cfg, nil
}

// Default 返回默认配置
func Default() *Config {
	cfg := &Config{}
	applyEnv(cfg)
	applyDefaults(cfg)
	return cfg
}

// applyDefaults 设置默认值
func applyDefaults(cfg *Config) {
	setDefault(&cfg.Server.Host, defaultHost)
	setDefault(&cfg.Server.Port, defaultPort)
	setDefault(&cfg.Server.MaxConnections, defaultMaxConnections)
	setDefault(&cfg.Server.ShutdownGrace, 5)
	setDefault(&cfg.Redis.Addr, defaultRedisAddr)
	setDefault(&cfg.Log.Level, defaultLogLevel)

	g := &cfg.Game
	setDefault(&g.DefaultType, defaultGameType)
	setDefault(&g.TickIntervalMS, defaultTickIntervalMS)
	setDefault(&g.TimerSweep, defaultTimerSweep)
	setDefault(&g.RoomIdleTimeout, defaultRoomIdleTimeout)
	setDefault(&g.EmptyRoomGrace, defaultEmptyRoomGrace)
	setDefault(&g.CleanupInterval, defaultCleanupInterval)
	setDefault(&g.MaxPlayers, defaultMaxPlayers)
	setDefault(&g.MinPlayers, defaultMinPlayers)
	setDefault(&g.MaxRounds, defaultMaxRounds)
	setDefault(&g.RoomCodeLength, defaultRoomCodeLength)
	setDefault(&g.RoomCodeAlphabet, defaultRoomCodeAlphabet)
	setDefault(&g.RoomCodePattern, defaultRoomCodePattern)

	f := &cfg.Fibbing
	setDefault(&f.PromptSeconds, defaultPromptSeconds)
	setDefault(&f.ChooseSeconds, defaultChooseSeconds)
	setDefault(&f.ScoringSeconds, defaultScoringSeconds)
	setDefault(&f.CorrectPoints, defaultCorrectPoints)
	setDefault(&f.FooledPoints, defaultFooledPoints)

	if len(cfg.Security.AllowedOrigins) == 0 {
		cfg.Security.AllowedOrigins = []string{"*"}
	}
	setDefault(&cfg.Security.MessageLimit.MaxPerSecond, defaultMessagesPerSecond)
	setDefault(&cfg.Security.MessageLimit.Burst, defaultMessageBurst)
}

// applyEnv 环境变量覆盖配置文件
func applyEnv(cfg *Config) {
	if v := os.Getenv("SERVER_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v, ok := envInt("SERVER_PORT"); ok {
		cfg.Server.Port = v
	}
	if v := os.Getenv("SERVER_PUBLIC_URL"); v != "" {
		cfg.Server.PublicURL = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
		cfg.Redis.Enabled = true
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if v, ok := envInt("GAME_MAX_ROUNDS"); ok {
		cfg.Game.MaxRounds = v
	}
	if v, ok := envInt("GAME_MAX_PLAYERS"); ok {
		cfg.Game.MaxPlayers = v
	}
	if v := os.Getenv("SECURITY_ALLOWED_ORIGINS"); v != "" {
		cfg.Security.AllowedOrigins = strings.Split(v, ",")
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
}

func envInt(key string) (int, bool) {
	v := os.Getenv(key)
	if v == "" {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return n, true
}

func setDefault[T comparable](field *T, value T) {
	var zero T
	if *field == zero {
		*field = value
	}
}
