package room

import (
	"slices"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/palemoky/fibbing-it/internal/apperrors"
	"github.com/palemoky/fibbing-it/internal/game"
	"github.com/palemoky/fibbing-it/internal/game/rng"
	"github.com/palemoky/fibbing-it/internal/game/roomcode"
	"github.com/palemoky/fibbing-it/internal/protocol"
	"github.com/palemoky/fibbing-it/internal/protocol/codec"
)

// maxCodeAttempts 自动生成房间号的最大重试次数
const maxCodeAttempts = 64

// TimerStopper 删除房间时停止其计时器
type TimerStopper interface {
	StopTimer(roomCode string) bool
}

// Config 房间管理器配置
type Config struct {
	DefaultGameType string
	CodeLength      int
	CodeAlphabet    string
	CodePattern     string
	EmptyRoomGrace  time.Duration // 无在线玩家的房间保留时间
	IdleTimeout     time.Duration // 大厅空闲超时
	CleanupInterval time.Duration
}

// RoomManager 房间管理器，房间的唯一权威注册表
type RoomManager struct {
	cfg     Config
	engines *game.Registry
	timers  TimerStopper
	rng     *rng.Source
	now     func() time.Time

	rooms map[string]*Room
	mu    sync.RWMutex

	onDelete func(code string)

	stop     chan struct{}
	stopOnce sync.Once
}

// OnDelete 注册房间删除后的回调（在删除房间的 goroutine 中执行）
func (rm *RoomManager) OnDelete(fn func(code string)) {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	rm.onDelete = fn
}

// NewRoomManager 创建房间管理器
func NewRoomManager(cfg Config, engines *game.Registry, timers TimerStopper, src *rng.Source) *RoomManager {
	if cfg.CodeLength <= 0 {
		cfg.CodeLength = roomcode.DefaultLength
	}
	if cfg.CodeAlphabet == "" {
		cfg.CodeAlphabet = roomcode.Alphabet
	}
	return &RoomManager{
		cfg:     cfg,
		engines: engines,
		timers:  timers,
		rng:     src,
		now:     time.Now,
		rooms:   make(map[string]*Room),
		stop:    make(chan struct{}),
	}
}

// Start 启动房间清理协程
func (rm *RoomManager) Start() {
	if rm.cfg.CleanupInterval <= 0 {
		return
	}
	go rm.cleanupLoop()
}

// CreateRoom 创建房间；code 为空时自动生成
func (rm *RoomManager) CreateRoom(code, gameType string) (*Room, error) {
	if gameType == "" {
		gameType = rm.cfg.DefaultGameType
	}
	engine, ok := rm.engines.Get(gameType)
	if !ok {
		return nil, apperrors.InvalidRequest("unknown game type: " + gameType)
	}

	code = roomcode.Normalize(code)
	if code != "" && (!roomcode.Valid(code, rm.cfg.CodePattern) || !roomcode.InAlphabet(code, rm.cfg.CodeAlphabet)) {
		return nil, apperrors.InvalidRequest("invalid room code: " + code)
	}

	rm.mu.Lock()
	defer rm.mu.Unlock()

	if code == "" {
		generated, err := rm.generateRoomCode()
		if err != nil {
			return nil, err
		}
		code = generated
	} else if _, exists := rm.rooms[code]; exists {
		return nil, apperrors.RoomAlreadyExists(code)
	}

	room := newRoom(code, engine, rm.now)
	rm.rooms[code] = room

	log.Info().Str("room", code).Str("gameType", gameType).Msg("🏠 房间已创建")
	return room, nil
}

// generateRoomCode 生成未被占用的房间号，调用方需持有写锁
func (rm *RoomManager) generateRoomCode() (string, error) {
	for range maxCodeAttempts {
		code := roomcode.GenerateFrom(rm.cfg.CodeAlphabet, rm.cfg.CodeLength, rm.rng)
		if _, exists := rm.rooms[code]; !exists {
			return code, nil
		}
	}
	return "", apperrors.ErrUnavailable.WithMessage("无可用房间号")
}

// HasRoom 房间是否存在
func (rm *RoomManager) HasRoom(code string) bool {
	rm.mu.RLock()
	defer rm.mu.RUnlock()
	_, ok := rm.rooms[roomcode.Normalize(code)]
	return ok
}

// GetRoom 获取房间
func (rm *RoomManager) GetRoom(code string) (*Room, error) {
	code = roomcode.Normalize(code)
	rm.mu.RLock()
	defer rm.mu.RUnlock()
	room, ok := rm.rooms[code]
	if !ok {
		return nil, apperrors.RoomNotFound(code)
	}
	return room, nil
}

// DeleteRoom 删除房间并停止其计时器，返回是否确实删除
func (rm *RoomManager) DeleteRoom(code string) bool {
	return rm.deleteRoom(roomcode.Normalize(code), "房间已关闭")
}

func (rm *RoomManager) deleteRoom(code, reason string) bool {
	rm.mu.Lock()
	room, ok := rm.rooms[code]
	if ok {
		delete(rm.rooms, code)
	}
	onDelete := rm.onDelete
	rm.mu.Unlock()

	if !ok {
		return false
	}

	if rm.timers != nil {
		rm.timers.StopTimer(code)
	}
	room.Broadcast(codec.NewErrorMessage(apperrors.RoomNotFound(code).WithMessage(reason)))
	room.close()
	if onDelete != nil {
		onDelete(code)
	}

	log.Info().Str("room", code).Str("reason", reason).Msg("🏠 房间已解散")
	return true
}

// GetRoomCount 房间数量
func (rm *RoomManager) GetRoomCount() int {
	rm.mu.RLock()
	defer rm.mu.RUnlock()
	return len(rm.rooms)
}

// GetActivePlayerCount 所有房间的在线玩家总数
func (rm *RoomManager) GetActivePlayerCount() int {
	rm.mu.RLock()
	defer rm.mu.RUnlock()
	total := 0
	for _, room := range rm.rooms {
		total += room.ConnectedCount()
	}
	return total
}

// Codes 所有房间号（有序）
func (rm *RoomManager) Codes() []string {
	rm.mu.RLock()
	defer rm.mu.RUnlock()
	codes := make([]string, 0, len(rm.rooms))
	for code := range rm.rooms {
		codes = append(codes, code)
	}
	slices.Sort(codes)
	return codes
}

// Snapshot 通过房间执行器读取房间快照
func (rm *RoomManager) Snapshot(code string) (protocol.RoomPayload, error) {
	room, err := rm.GetRoom(code)
	if err != nil {
		return protocol.RoomPayload{}, err
	}
	var snap protocol.RoomPayload
	err = room.Do(func() error {
		snap = room.Snapshot()
		return nil
	})
	return snap, err
}

// Shutdown 停止清理协程并关闭所有房间
func (rm *RoomManager) Shutdown() {
	rm.stopOnce.Do(func() { close(rm.stop) })
	for _, code := range rm.Codes() {
		rm.deleteRoom(code, "服务器关闭")
	}
}
