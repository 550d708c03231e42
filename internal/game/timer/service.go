package timer

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/palemoky/fibbing-it/internal/apperrors"
)

// 默认参数
const (
	DefaultTickInterval  = time.Second
	DefaultSweepInterval = 30 * time.Second
)

var (
	errNilExpire = errors.New("nil expire callback")
	errShutdown  = errors.New("timer service shut down")
)

// Callbacks 计时器回调，在计时器 goroutine 中执行
// OnTick 可为空；OnExpire 必须提供
// 回调内不能同步调用本房间的 StopTimer / StartTimer，需要时投递到房间执行器
type Callbacks struct {
	OnTick   func(remaining int)
	OnExpire func()
}

// Handle 已启动计时器的标识
type Handle struct {
	ID       string
	RoomCode string
	Deadline time.Time
}

// RoomRegistry 孤儿计时器清理时查询房间是否仍存在
type RoomRegistry interface {
	HasRoom(code string) bool
}

// Option 服务配置项
type Option func(*Service)

// WithClock 注入时钟
func WithClock(c Clock) Option {
	return func(s *Service) { s.clock = c }
}

// WithTickInterval 设置 tick 间隔
func WithTickInterval(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.tick = d
		}
	}
}

// Service 每个房间至多一个倒计时
type Service struct {
	mu     sync.Mutex
	timers map[string]*countdown
	closed bool

	clock Clock
	tick  time.Duration

	sweepStop chan struct{}
	sweepOnce sync.Once
	wg        sync.WaitGroup
}

type countdown struct {
	handle    Handle
	remaining atomic.Int64
	stopped   atomic.Bool
	stop      chan struct{}
	stopOnce  sync.Once
	firing    sync.Mutex // tick 的 stopped 检查与 OnTick 在同一临界区内
}

func (cd *countdown) halt() {
	cd.stopped.Store(true)
	cd.stopOnce.Do(func() { close(cd.stop) })
}

// settle 等待正在执行的 OnTick 返回，之后不会再有 tick
func (cd *countdown) settle() {
	cd.firing.Lock()
	cd.firing.Unlock()
}

// New 创建计时服务
func New(opts ...Option) *Service {
	s := &Service{
		timers:    make(map[string]*countdown),
		clock:     RealClock{},
		tick:      DefaultTickInterval,
		sweepStop: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// TickInterval 返回 tick 间隔
func (s *Service) TickInterval() time.Duration {
	return s.tick
}

// StartTimer 为房间启动倒计时，已有计时器会被替换
// seconds <= 0 时停止已有计时器并同步触发一次 OnExpire，不触发 OnTick
func (s *Service) StartTimer(roomCode string, seconds int, cb Callbacks) (Handle, error) {
	if cb.OnExpire == nil {
		return Handle{}, s.fault(roomCode, errNilExpire)
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return Handle{}, s.fault(roomCode, errShutdown)
	}
	old, replaced := s.timers[roomCode]
	if replaced {
		delete(s.timers, roomCode)
		old.halt()
	}

	now := s.clock.Now()
	if seconds <= 0 {
		s.mu.Unlock()
		if replaced {
			old.settle()
		}
		h := Handle{ID: uuid.NewString(), RoomCode: roomCode, Deadline: now}
		return h, s.safeCall(roomCode, "expire", cb.OnExpire)
	}

	cd := &countdown{
		handle: Handle{
			ID:       uuid.NewString(),
			RoomCode: roomCode,
			Deadline: now.Add(time.Duration(seconds) * s.tick),
		},
		stop: make(chan struct{}),
	}
	cd.remaining.Store(int64(seconds))
	s.timers[roomCode] = cd
	// ticker 在启动 goroutine 前创建，保证之后的时钟推进不会丢失
	ticker := s.clock.NewTicker(s.tick)
	s.wg.Add(1)
	s.mu.Unlock()

	if replaced {
		old.settle()
	}
	go s.run(cd, ticker, cb)

	log.Debug().Str("room", roomCode).Int("seconds", seconds).Str("timer", cd.handle.ID).Msg("⏱️ 计时器启动")
	return cd.handle, nil
}

func (s *Service) run(cd *countdown, ticker Ticker, cb Callbacks) {
	defer s.wg.Done()
	defer ticker.Stop()

	for {
		select {
		case <-cd.stop:
			return
		case <-ticker.C():
			if !s.fire(cd, cb) {
				return
			}
		}
	}
}

// fire 处理一次 tick，返回计时器是否继续运行
func (s *Service) fire(cd *countdown, cb Callbacks) bool {
	code := cd.handle.RoomCode

	cd.firing.Lock()
	if cd.stopped.Load() {
		cd.firing.Unlock()
		return false
	}
	remaining := cd.remaining.Add(-1)
	if remaining > 0 {
		if cb.OnTick != nil {
			_ = s.safeCall(code, "tick", func() { cb.OnTick(int(remaining)) })
		}
		cd.firing.Unlock()
		return true
	}
	released := s.release(cd)
	cd.firing.Unlock()

	if released {
		_ = s.safeCall(code, "expire", cb.OnExpire)
	}
	return false
}

// release 到期时移除计时器；已被替换或停止则返回 false
func (s *Service) release(cd *countdown) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.timers[cd.handle.RoomCode] != cd || cd.stopped.Load() {
		return false
	}
	delete(s.timers, cd.handle.RoomCode)
	cd.stopped.Store(true)
	return true
}

// StopTimer 停止房间计时器，返回是否确实停止了一个计时器
func (s *Service) StopTimer(roomCode string) bool {
	s.mu.Lock()
	cd, ok := s.timers[roomCode]
	if ok {
		delete(s.timers, roomCode)
	}
	s.mu.Unlock()

	if !ok {
		return false
	}
	cd.halt()
	cd.settle()
	log.Debug().Str("room", roomCode).Str("timer", cd.handle.ID).Msg("⏹️ 计时器停止")
	return true
}

// IsTimerRunning 房间是否有计时器在运行
func (s *Service) IsTimerRunning(roomCode string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.timers[roomCode]
	return ok
}

// ActiveTimers 返回所有运行中计时器的房间号
func (s *Service) ActiveTimers() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	codes := make([]string, 0, len(s.timers))
	for code := range s.timers {
		codes = append(codes, code)
	}
	return codes
}

// TimerCount 运行中计时器数量
func (s *Service) TimerCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.timers)
}

// Remaining 返回剩余秒数
func (s *Service) Remaining(roomCode string) (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cd, ok := s.timers[roomCode]
	if !ok {
		return 0, false
	}
	return int(cd.remaining.Load()), true
}

// StartSweeper 启动孤儿计时器清理
func (s *Service) StartSweeper(registry RoomRegistry, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	ticker := s.clock.NewTicker(interval)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer ticker.Stop()
		for {
			select {
			case <-s.sweepStop:
				return
			case <-ticker.C():
				s.Sweep(registry)
			}
		}
	}()
}

// Sweep 停止房间已不存在的计时器，返回清理数量
func (s *Service) Sweep(registry RoomRegistry) int {
	// 不持锁查询 registry，避免与 RoomManager 的锁形成环
	codes := s.ActiveTimers()

	swept := 0
	for _, code := range codes {
		if registry.HasRoom(code) {
			continue
		}
		if s.StopTimer(code) {
			swept++
			log.Warn().Str("room", code).Msg("🧹 清理孤儿计时器")
		}
	}
	return swept
}

// Shutdown 停止所有计时器与清理任务
func (s *Service) Shutdown() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	timers := s.timers
	s.timers = make(map[string]*countdown)
	s.mu.Unlock()

	for _, cd := range timers {
		cd.halt()
	}
	s.sweepOnce.Do(func() { close(s.sweepStop) })
	s.wg.Wait()
	log.Info().Int("stopped", len(timers)).Msg("⏱️ 计时服务已关闭")
}

// safeCall 执行回调并将 panic 转换为 TimerServiceError
func (s *Service) safeCall(roomCode, kind string, fn func()) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = s.fault(roomCode, fmt.Errorf("%s callback panic: %v", kind, r))
		}
	}()
	fn()
	return nil
}

func (s *Service) fault(roomCode string, cause error) error {
	err := apperrors.TimerFault(roomCode, cause)
	log.Error().Err(err).Str("room", roomCode).Msg("❌ 计时服务故障")
	return err
}
