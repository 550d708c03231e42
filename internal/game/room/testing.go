//go:build !production

package room

import (
	"time"

	"github.com/stretchr/testify/mock"
)

// MockTimerStopper 计时器停止 mock
type MockTimerStopper struct {
	mock.Mock
}

func (m *MockTimerStopper) StopTimer(roomCode string) bool {
	args := m.Called(roomCode)
	return args.Bool(0)
}

// SetClockForTest 替换管理器使用的时钟
func (rm *RoomManager) SetClockForTest(now func() time.Time) {
	rm.now = now
}

// CleanupForTest 以指定时间执行一次清理
func (rm *RoomManager) CleanupForTest(now time.Time) []string {
	return rm.cleanup(now)
}

// PendingForTest 执行器队列长度
func (r *Room) PendingForTest() int {
	return r.exec.pending()
}
