package game

import (
	"slices"
	"sync"
)

// Phase 游戏阶段
type Phase string

const (
	PhaseLobby   Phase = "lobby"
	PhasePrompt  Phase = "prompt"
	PhaseChoose  Phase = "choose"
	PhaseScoring Phase = "scoring"
	PhaseOver    Phase = "over"
)

// Engine 游戏规则引擎，每种游戏一个实现
// 引擎本身无状态，可被多个房间共享；所有方法都必须在房间执行器内调用
type Engine interface {
	// Type 游戏类型标识，对应 Room.GameType
	Type() string
	// Initialize 构建 lobby 阶段的初始状态
	Initialize(players []*Player) *State
	// ProcessAction 唯一的动作入口；无效动作返回原 state 且 Valid=false
	ProcessAction(state *State, action Action) Result
	// CanAdvancePhase 非终止阶段均可推进
	CanAdvancePhase(state *State) bool
	// NextPhase 固定阶段顺序中的后继，终止阶段返回自身
	NextPhase(p Phase) Phase
	// AdvancePhase 推进到下一阶段并应用轮数上限
	AdvancePhase(state *State) (*State, []Event)
	// PhaseDuration 阶段时长（秒）
	PhaseDuration(p Phase) int
	ValidActions(state *State, playerID string) []ActionKind
	IsGameOver(state *State) bool
	// Winners 按分数降序排列的玩家，同分按加入顺序
	Winners(state *State) []Player
	// UpdateTimer 扣减剩余时间，最小为 0
	UpdateTimer(state *State, deltaSeconds int) *State
	// AllSubmitted 当前阶段所有在线玩家是否都已提交
	AllSubmitted(state *State) bool
}

// Result ProcessAction 的结果
type Result struct {
	State  *State
	Events []Event
	Valid  bool
	Err    error // 无效时的原因
}

// Registry 游戏类型 → 引擎
type Registry struct {
	mu      sync.RWMutex
	engines map[string]Engine
}

// NewRegistry 创建引擎注册表
func NewRegistry(engines ...Engine) *Registry {
	r := &Registry{engines: make(map[string]Engine)}
	for _, e := range engines {
		r.Register(e)
	}
	return r
}

// Register 注册引擎，同类型覆盖
func (r *Registry) Register(e Engine) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.engines[e.Type()] = e
}

// Get 按类型获取引擎
func (r *Registry) Get(gameType string) (Engine, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.engines[gameType]
	return e, ok
}

// Types 已注册的游戏类型（有序）
func (r *Registry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	types := make([]string, 0, len(r.engines))
	for t := range r.engines {
		types = append(types, t)
	}
	slices.Sort(types)
	return types
}
