//go:build !production

package timer

import (
	"sync"
	"time"
)

// ManualClock 手动推进的时钟，仅用于测试
// Advance 会阻塞直到每个到期的 tick 被对应的计时器 goroutine 接收
type ManualClock struct {
	mu      sync.Mutex
	now     time.Time
	tickers []*manualTicker
}

// NewManualClock 创建手动时钟
func NewManualClock(start time.Time) *ManualClock {
	return &ManualClock{now: start}
}

func (c *ManualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *ManualClock) NewTicker(d time.Duration) Ticker {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &manualTicker{
		c:      make(chan time.Time),
		done:   make(chan struct{}),
		period: d,
		next:   c.now.Add(d),
	}
	c.tickers = append(c.tickers, t)
	return t
}

// Advance 推进时间并投递所有到期的 tick
func (c *ManualClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	now := c.now
	type delivery struct {
		t  *manualTicker
		at time.Time
	}
	var due []delivery
	live := c.tickers[:0]
	for _, t := range c.tickers {
		if t.isStopped() {
			continue
		}
		live = append(live, t)
		for !t.next.After(now) {
			due = append(due, delivery{t, t.next})
			t.next = t.next.Add(t.period)
		}
	}
	c.tickers = live
	c.mu.Unlock()

	for _, d := range due {
		d.t.deliver(d.at)
	}
}

// Tick 推进 n 个周期
func (c *ManualClock) Tick(period time.Duration, n int) {
	for range n {
		c.Advance(period)
	}
}

// TickerCount 当前未停止的 ticker 数量
func (c *ManualClock) TickerCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, t := range c.tickers {
		if !t.isStopped() {
			n++
		}
	}
	return n
}

type manualTicker struct {
	c        chan time.Time
	done     chan struct{}
	stopOnce sync.Once
	period   time.Duration
	next     time.Time
}

func (t *manualTicker) C() <-chan time.Time { return t.c }

func (t *manualTicker) Stop() {
	t.stopOnce.Do(func() { close(t.done) })
}

func (t *manualTicker) isStopped() bool {
	select {
	case <-t.done:
		return true
	default:
		return false
	}
}

func (t *manualTicker) deliver(at time.Time) {
	select {
	case t.c <- at:
	case <-t.done:
	}
}
