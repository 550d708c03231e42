package server

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/palemoky/fibbing-it/internal/apperrors"
	"github.com/palemoky/fibbing-it/internal/logger"
	"github.com/palemoky/fibbing-it/internal/protocol"
	"github.com/palemoky/fibbing-it/internal/protocol/codec"
)

const (
	// 写入超时
	writeWait = 10 * time.Second

	// 读取超时（pong 等待时间）
	pongWait = 60 * time.Second

	// ping 发送间隔（必须小于 pongWait）
	pingPeriod = (pongWait * 9) / 10

	// 消息最大大小
	maxMessageSize = 4096

	// 发送队列长度
	sendBuffer = 256
)

// Client 代表一个 WebSocket 连接
type Client struct {
	IP string // 客户端 IP 地址

	server  *Server
	conn    *websocket.Conn
	codec   codec.Codec
	limiter *MessageLimiter
	send    chan []byte

	mu       sync.RWMutex
	id       string // 加入前为连接 id，加入后为玩家 id
	name     string
	roomCode string
	closed   bool
}

// NewClient 创建新客户端
func NewClient(s *Server, conn *websocket.Conn, c codec.Codec) *Client {
	limit := s.config.Security.MessageLimit
	return &Client{
		id:      uuid.NewString(),
		server:  s,
		conn:    conn,
		codec:   c,
		limiter: NewMessageLimiter(limit.MaxPerSecond, limit.Burst),
		send:    make(chan []byte, sendBuffer),
	}
}

// ReadPump 从 WebSocket 读取消息
func (c *Client) ReadPump() {
	defer func() {
		if r := recover(); r != nil {
			logger.LogPanic(r)
		}
		c.handleDisconnect()
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Debug().Err(err).Str("client", c.GetID()).Msg("读取错误")
			}
			return
		}

		// 消息速率限制检查
		allowed, disconnect := c.limiter.Allow()
		if !allowed {
			log.Warn().Str("client", c.GetID()).Str("ip", c.IP).Int("violations", c.limiter.Violations()).Msg("⚠️ 客户端消息过于频繁")
			c.SendMessage(codec.NewErrorMessage(apperrors.ErrRateLimited))
			if disconnect {
				log.Warn().Str("client", c.GetID()).Str("ip", c.IP).Msg("🚫 客户端因多次超速被断开连接")
				return
			}
			continue
		}

		msg, err := c.codec.Decode(data)
		if err != nil {
			c.SendMessage(codec.NewErrorMessage(apperrors.InvalidRequest(err.Error())))
			continue
		}

		// 交给处理器处理
		c.server.handler.Handle(c, msg)
		codec.PutMessage(msg)
	}
}

// WritePump 向 WebSocket 写入消息
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		if r := recover(); r != nil {
			logger.LogPanic(r)
		}
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// 通道已关闭
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(c.codec.FrameType(), message); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// SendMessage 编码并入队，发送队列满时丢弃
func (c *Client) SendMessage(msg *protocol.Message) {
	data, err := c.codec.Encode(msg)
	if err != nil {
		log.Error().Err(err).Str("type", string(msg.Type)).Msg("❌ 消息编码错误")
		return
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return
	}
	select {
	case c.send <- data:
	default:
		log.Warn().Str("client", c.id).Str("type", string(msg.Type)).Msg("⚠️ 发送缓冲区已满，消息丢弃")
	}
}

// handleDisconnect 处理断开连接：玩家保留在房间内等待重连
func (c *Client) handleDisconnect() {
	c.server.handler.Disconnect(c)
	c.Close()
	c.server.unregisterClient(c)
}

// Close 关闭客户端连接
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

// GetID 获取 ID
func (c *Client) GetID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.id
}

// GetName 获取昵称
func (c *Client) GetName() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.name
}

// SetIdentity 绑定玩家身份
func (c *Client) SetIdentity(playerID, name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.id = playerID
	c.name = name
}

// SetRoom 设置客户端所在房间
func (c *Client) SetRoom(code string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.roomCode = code
}

// GetRoom 获取客户端所在房间
func (c *Client) GetRoom() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.roomCode
}
