package handler

import (
	"strings"

	"github.com/palemoky/fibbing-it/internal/apperrors"
	"github.com/palemoky/fibbing-it/internal/protocol"
	"github.com/palemoky/fibbing-it/internal/protocol/codec"
	"github.com/palemoky/fibbing-it/internal/types"
)

func (h *Handler) handleStartGame(client types.ClientInterface, msg *protocol.Message) error {
	payload, err := codec.ParsePayload[protocol.StartGamePayload](msg)
	if err != nil {
		return err
	}
	if payload.MaxRounds < 0 {
		return apperrors.InvalidRequest("maxRounds must not be negative")
	}
	return h.service.StartGame(client, *payload)
}

func (h *Handler) handleSubmitAnswer(client types.ClientInterface, msg *protocol.Message) error {
	payload, err := codec.ParsePayload[protocol.SubmitAnswerPayload](msg)
	if err != nil {
		return err
	}
	if strings.TrimSpace(payload.Text) == "" {
		return apperrors.InvalidRequest("text is required")
	}
	return h.service.SubmitAnswer(client, *payload)
}

func (h *Handler) handleSubmitVote(client types.ClientInterface, msg *protocol.Message) error {
	payload, err := codec.ParsePayload[protocol.SubmitVotePayload](msg)
	if err != nil {
		return err
	}
	if payload.ChoiceID == "" {
		return apperrors.InvalidRequest("choiceId is required")
	}
	return h.service.SubmitVote(client, *payload)
}
