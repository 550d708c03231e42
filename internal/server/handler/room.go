package handler

import (
	"github.com/palemoky/fibbing-it/internal/apperrors"
	"github.com/palemoky/fibbing-it/internal/protocol"
	"github.com/palemoky/fibbing-it/internal/protocol/codec"
	"github.com/palemoky/fibbing-it/internal/types"
)

// handleJoin 加入房间；携带令牌时为重连，房间号可省略
func (h *Handler) handleJoin(client types.ClientInterface, msg *protocol.Message) error {
	payload, err := codec.ParsePayload[protocol.JoinPayload](msg)
	if err != nil {
		return err
	}
	if payload.RoomCode == "" && payload.Token == "" {
		return apperrors.InvalidRequest("roomCode is required")
	}
	return h.service.Join(client, *payload)
}
