package timer

import "time"

// Ticker 抽象 time.Ticker，便于测试时手动驱动
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

// Clock 时间源
type Clock interface {
	Now() time.Time
	NewTicker(d time.Duration) Ticker
}

// RealClock 使用系统时间
type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now() }

func (RealClock) NewTicker(d time.Duration) Ticker {
	return realTicker{time.NewTicker(d)}
}

type realTicker struct {
	t *time.Ticker
}

func (r realTicker) C() <-chan time.Time { return r.t.C }
func (r realTicker) Stop()               { r.t.Stop() }
