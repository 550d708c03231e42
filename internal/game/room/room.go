package room

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/palemoky/fibbing-it/internal/apperrors"
	"github.com/palemoky/fibbing-it/internal/game"
	"github.com/palemoky/fibbing-it/internal/protocol"
	"github.com/palemoky/fibbing-it/internal/types"
)

// Room 游戏房间
// State 与 TimerID 只能在房间执行器内（Do / Post 的回调中）读写
type Room struct {
	Code      string      // 房间号
	GameType  string      // 游戏类型
	Engine    game.Engine // 规则引擎
	CreatedAt time.Time   // 创建时间

	State   *game.State
	TimerID string // 当前计时器 id，空表示未计时

	clients   map[string]types.ClientInterface // 玩家 id → 连接
	clientsMu sync.RWMutex

	// 供清理协程与健康检查无锁读取的统计快照，每个任务执行后刷新
	playerCount    atomic.Int32
	connectedCount atomic.Int32
	phase          atomic.Value // game.Phase
	lastActive     atomic.Int64 // unix nano
	emptySince     atomic.Int64 // unix nano，0 表示有在线玩家

	now  func() time.Time
	exec *executor
}

func newRoom(code string, engine game.Engine, now func() time.Time) *Room {
	created := now()
	r := &Room{
		Code:      code,
		GameType:  engine.Type(),
		Engine:    engine,
		CreatedAt: created,
		State:     engine.Initialize(nil),
		clients:   make(map[string]types.ClientInterface),
		now:       now,
		exec:      newExecutor(),
	}
	r.refresh()
	return r
}

// Do 在房间执行器内同步执行 fn 并返回其错误
// 不可在执行器内部（另一个 Do / Post 回调中）调用，否则会死锁
func (r *Room) Do(fn func() error) error {
	done := make(chan error, 1)
	ok := r.exec.submit(func() {
		defer func() {
			if rec := recover(); rec != nil {
				done <- apperrors.ErrUnknown.Wrap(fmt.Errorf("room %s: %v", r.Code, rec))
				panic(rec)
			}
		}()
		err := fn()
		r.refresh()
		done <- err
	})
	if !ok {
		return apperrors.RoomNotFound(r.Code)
	}
	return <-done
}

// Post 异步提交任务，房间已关闭时返回 false
func (r *Room) Post(fn func()) bool {
	return r.exec.submit(func() {
		fn()
		r.refresh()
	})
}

// refresh 刷新统计快照，仅在执行器内调用
func (r *Room) refresh() {
	total, connected := 0, 0
	if r.State != nil {
		total = len(r.State.Players)
		connected = r.State.ConnectedCount()
		r.phase.Store(r.State.Phase)
	}
	r.playerCount.Store(int32(total))
	r.connectedCount.Store(int32(connected))

	now := r.now().UnixNano()
	r.lastActive.Store(now)
	if connected > 0 {
		r.emptySince.Store(0)
	} else if r.emptySince.Load() == 0 {
		r.emptySince.Store(now)
	}
}

// Phase 当前阶段（快照）
func (r *Room) Phase() game.Phase {
	p, _ := r.phase.Load().(game.Phase)
	return p
}

// PlayerCount 玩家总数（快照）
func (r *Room) PlayerCount() int {
	return int(r.playerCount.Load())
}

// ConnectedCount 在线玩家数（快照）
func (r *Room) ConnectedCount() int {
	return int(r.connectedCount.Load())
}

// LastActive 最近一次处理任务的时间
func (r *Room) LastActive() time.Time {
	return time.Unix(0, r.lastActive.Load())
}

// EmptySince 无在线玩家的起始时间，有在线玩家时返回零值
func (r *Room) EmptySince() time.Time {
	ns := r.emptySince.Load()
	if ns == 0 {
		return time.Time{}
	}
	return time.Unix(0, ns)
}

// --- 连接管理 ---

// Attach 绑定玩家连接，返回被替换的旧连接
func (r *Room) Attach(playerID string, client types.ClientInterface) types.ClientInterface {
	r.clientsMu.Lock()
	defer r.clientsMu.Unlock()
	old := r.clients[playerID]
	r.clients[playerID] = client
	if old == client {
		return nil
	}
	return old
}

// Detach 解绑连接；仅当当前绑定的就是该连接时才解绑（重连后旧连接的断开不影响新连接）
func (r *Room) Detach(playerID string, client types.ClientInterface) bool {
	r.clientsMu.Lock()
	defer r.clientsMu.Unlock()
	if cur, ok := r.clients[playerID]; ok && (client == nil || cur == client) {
		delete(r.clients, playerID)
		return true
	}
	return false
}

// Client 获取玩家连接
func (r *Room) Client(playerID string) types.ClientInterface {
	r.clientsMu.RLock()
	defer r.clientsMu.RUnlock()
	return r.clients[playerID]
}

// Broadcast 向房间内所有连接广播
func (r *Room) Broadcast(msg *protocol.Message) {
	r.BroadcastExcept("", msg)
}

// BroadcastExcept 向除指定玩家外的连接广播
func (r *Room) BroadcastExcept(excludeID string, msg *protocol.Message) {
	r.clientsMu.RLock()
	defer r.clientsMu.RUnlock()
	for id, c := range r.clients {
		if id != excludeID {
			c.SendMessage(msg)
		}
	}
}

// SendTo 向指定玩家发送
func (r *Room) SendTo(playerID string, msg *protocol.Message) {
	if c := r.Client(playerID); c != nil {
		c.SendMessage(msg)
	}
}

// close 关闭执行器并解除所有连接的房间绑定
func (r *Room) close() {
	r.exec.close()
	r.clientsMu.Lock()
	defer r.clientsMu.Unlock()
	for id, c := range r.clients {
		c.SetRoom("")
		delete(r.clients, id)
	}
}
