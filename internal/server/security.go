package server

import (
	"net"
	"net/http"
	"strings"
	"sync"

	"golang.org/x/time/rate"
)

// --- 来源验证 ---

// OriginChecker 来源验证器
type OriginChecker struct {
	allowedOrigins map[string]bool
	allowAll       bool
}

// NewOriginChecker 创建来源验证器，空列表或 "*" 允许所有来源
func NewOriginChecker(origins []string) *OriginChecker {
	oc := &OriginChecker{
		allowedOrigins: make(map[string]bool),
		allowAll:       len(origins) == 0,
	}

	for _, origin := range origins {
		if origin == "*" {
			oc.allowAll = true
			return oc
		}
		oc.allowedOrigins[strings.ToLower(strings.TrimRight(origin, "/"))] = true
	}

	return oc
}

// Check 检查来源是否允许
func (oc *OriginChecker) Check(r *http.Request) bool {
	if oc.allowAll {
		return true
	}

	origin := r.Header.Get("Origin")
	if origin == "" {
		// 没有 Origin 头，可能是同源请求或本地客户端
		return true
	}

	return oc.allowedOrigins[strings.ToLower(origin)]
}

// --- 辅助函数 ---

// GetClientIP 获取客户端真实 IP
func GetClientIP(r *http.Request) string {
	// 检查代理头
	forwarded := r.Header.Get("X-Forwarded-For")
	if forwarded != "" {
		// 取第一个 IP（最原始的客户端）
		parts := strings.Split(forwarded, ",")
		return strings.TrimSpace(parts[0])
	}

	realIP := r.Header.Get("X-Real-IP")
	if realIP != "" {
		return realIP
	}

	// 从连接中获取
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// --- 消息速率限制 ---

// maxViolations 超速次数达到该值后断开连接
const maxViolations = 5

// MessageLimiter 单连接消息速率限制（令牌桶）
type MessageLimiter struct {
	limiter *rate.Limiter

	mu         sync.Mutex
	violations int
}

// NewMessageLimiter 创建消息速率限制器；perSecond <= 0 时不限速
func NewMessageLimiter(perSecond, burst int) *MessageLimiter {
	limit := rate.Inf
	if perSecond > 0 {
		limit = rate.Limit(perSecond)
	}
	return &MessageLimiter{limiter: rate.NewLimiter(limit, max(burst, 1))}
}

// Allow 是否允许处理下一条消息；拒绝时同时返回是否应断开连接
func (ml *MessageLimiter) Allow() (allowed, disconnect bool) {
	if ml.limiter.Allow() {
		return true, false
	}
	ml.mu.Lock()
	defer ml.mu.Unlock()
	ml.violations++
	return false, ml.violations > maxViolations
}

// Violations 超速次数
func (ml *MessageLimiter) Violations() int {
	ml.mu.Lock()
	defer ml.mu.Unlock()
	return ml.violations
}
