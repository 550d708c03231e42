package rng

import (
	"math/rand/v2"
	"sync"
	"time"
)

// Source 线程安全的随机源
// seed 非零时结果可复现（测试与回放），为零时使用当前时间
type Source struct {
	mu sync.Mutex
	r  *rand.Rand
}

// New 创建随机源
func New(seed uint64) *Source {
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return &Source{r: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

// IntN 返回 [0, n) 的随机整数
func (s *Source) IntN(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.r.IntN(n)
}

// Shuffle 原地打乱切片（Fisher-Yates）
func Shuffle[T any](s *Source, items []T) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.r.Shuffle(len(items), func(i, j int) {
		items[i], items[j] = items[j], items[i]
	})
}
