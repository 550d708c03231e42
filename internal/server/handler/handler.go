package handler

import (
	"github.com/rs/zerolog/log"

	"github.com/palemoky/fibbing-it/internal/apperrors"
	"github.com/palemoky/fibbing-it/internal/protocol"
	"github.com/palemoky/fibbing-it/internal/protocol/codec"
	"github.com/palemoky/fibbing-it/internal/types"
)

// GameService 房间与对局操作（由 session.Coordinator 实现）
type GameService interface {
	Join(client types.ClientInterface, req protocol.JoinPayload) error
	Leave(client types.ClientInterface) error
	Disconnect(client types.ClientInterface)
	StartGame(client types.ClientInterface, req protocol.StartGamePayload) error
	SubmitAnswer(client types.ClientInterface, req protocol.SubmitAnswerPayload) error
	SubmitVote(client types.ClientInterface, req protocol.SubmitVotePayload) error
	NextPhase(client types.ClientInterface) error
	Restart(client types.ClientInterface) error
}

// Handler 消息处理器
type Handler struct {
	service  GameService
	handlers map[protocol.MessageType]handlerFunc
}

// handlerFunc 统一的处理器函数签名，返回的错误会回传给客户端
type handlerFunc func(client types.ClientInterface, msg *protocol.Message) error

// NewHandler 创建处理器
func NewHandler(service GameService) *Handler {
	h := &Handler{service: service}
	h.initHandlers()
	return h
}

// initHandlers 初始化消息处理器映射
func (h *Handler) initHandlers() {
	h.handlers = map[protocol.MessageType]handlerFunc{
		// 连接操作
		protocol.MsgPing: h.handlePing,

		// 房间操作
		protocol.MsgJoin:  h.handleJoin,
		protocol.MsgLeave: func(c types.ClientInterface, _ *protocol.Message) error { return h.service.Leave(c) },

		// 游戏操作
		protocol.MsgStartGame:    h.handleStartGame,
		protocol.MsgSubmitAnswer: h.handleSubmitAnswer,
		protocol.MsgSubmitVote:   h.handleSubmitVote,
		protocol.MsgNextPhase:    func(c types.ClientInterface, _ *protocol.Message) error { return h.service.NextPhase(c) },
		protocol.MsgRestart:      func(c types.ClientInterface, _ *protocol.Message) error { return h.service.Restart(c) },
	}
}

// Handle 处理消息
func (h *Handler) Handle(client types.ClientInterface, msg *protocol.Message) {
	handler, ok := h.handlers[msg.Type]
	if !ok {
		log.Warn().Str("type", string(msg.Type)).Str("client", client.GetID()).Int("payload", len(msg.Payload)).Msg("⚠️ 未知消息类型")
		client.SendMessage(codec.NewErrorMessage(apperrors.InvalidRequest("unknown message type: " + string(msg.Type))))
		return
	}

	if err := handler(client, msg); err != nil {
		log.Debug().Err(err).Str("type", string(msg.Type)).Str("client", client.GetID()).Str("room", client.GetRoom()).Msg("🚫 请求被拒绝")
		client.SendMessage(codec.NewErrorMessage(err))
	}
}

// Disconnect 连接关闭时调用
func (h *Handler) Disconnect(client types.ClientInterface) {
	h.service.Disconnect(client)
}
