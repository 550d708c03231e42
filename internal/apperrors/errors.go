package apperrors

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/palemoky/fibbing-it/internal/protocol"
)

// GameError 游戏错误（房间、会话、计时器共享）
// 以 Code 作为身份：errors.Is 只比较错误码
type GameError struct {
	Code    string
	Status  int // 对应的 HTTP 状态码
	Message string
	Details map[string]any
	cause   error
}

func (e *GameError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

// Unwrap 返回底层错误
func (e *GameError) Unwrap() error {
	return e.cause
}

// Is 按错误码匹配
func (e *GameError) Is(target error) bool {
	var ge *GameError
	if !errors.As(target, &ge) {
		return false
	}
	return e.Code == ge.Code
}

// WithDetails 返回附带上下文信息的副本，不修改预定义错误
func (e *GameError) WithDetails(kv map[string]any) *GameError {
	cp := *e
	cp.Details = make(map[string]any, len(e.Details)+len(kv))
	for k, v := range e.Details {
		cp.Details[k] = v
	}
	for k, v := range kv {
		cp.Details[k] = v
	}
	return &cp
}

// WithMessage 返回替换了消息的副本
func (e *GameError) WithMessage(msg string) *GameError {
	cp := *e
	cp.Message = msg
	return &cp
}

// Wrap 返回包裹了底层错误的副本
func (e *GameError) Wrap(cause error) *GameError {
	cp := *e
	cp.cause = cause
	return &cp
}

func newError(code string, status int) *GameError {
	return &GameError{Code: code, Status: status, Message: protocol.ErrorMessages[code]}
}

// 预定义错误
var (
	ErrUnknown             = newError(protocol.ErrCodeUnknown, http.StatusInternalServerError)
	ErrInvalidRequest      = newError(protocol.ErrCodeInvalidRequest, http.StatusBadRequest)
	ErrRateLimited         = newError(protocol.ErrCodeRateLimited, http.StatusTooManyRequests)
	ErrRoomNotFound        = newError(protocol.ErrCodeRoomNotFound, http.StatusNotFound)
	ErrRoomAlreadyExists   = newError(protocol.ErrCodeRoomAlreadyExists, http.StatusConflict)
	ErrRoomFull            = newError(protocol.ErrCodeRoomFull, http.StatusConflict)
	ErrPlayerNotFound      = newError(protocol.ErrCodePlayerNotFound, http.StatusNotFound)
	ErrInvalidGameAction   = newError(protocol.ErrCodeInvalidGameAction, http.StatusBadRequest)
	ErrInsufficientPlayers = newError(protocol.ErrCodeInsufficientPlayers, http.StatusBadRequest)
	ErrGameAlreadyStarted  = newError(protocol.ErrCodeGameAlreadyStarted, http.StatusBadRequest)
	ErrTimerService        = newError(protocol.ErrCodeTimerService, http.StatusInternalServerError)
	ErrUnavailable         = newError(protocol.ErrCodeUnavailable, http.StatusServiceUnavailable)
)

// RoomNotFound 指定房间号的 ROOM_NOT_FOUND
func RoomNotFound(code string) *GameError {
	return ErrRoomNotFound.WithDetails(map[string]any{"roomCode": code})
}

// RoomAlreadyExists 指定房间号的 ROOM_ALREADY_EXISTS
func RoomAlreadyExists(code string) *GameError {
	return ErrRoomAlreadyExists.WithDetails(map[string]any{"roomCode": code})
}

// PlayerNotFound 指定玩家的 PLAYER_NOT_FOUND
func PlayerNotFound(playerID string) *GameError {
	return ErrPlayerNotFound.WithDetails(map[string]any{"playerId": playerID})
}

// InvalidAction 携带原因的 INVALID_GAME_ACTION
func InvalidAction(reason string) *GameError {
	return ErrInvalidGameAction.WithDetails(map[string]any{"reason": reason})
}

// InvalidRequest 携带原因的 INVALID_REQUEST
func InvalidRequest(reason string) *GameError {
	return ErrInvalidRequest.WithDetails(map[string]any{"reason": reason})
}

// InsufficientPlayers 当前人数与最低人数
func InsufficientPlayers(have, need int) *GameError {
	return ErrInsufficientPlayers.WithDetails(map[string]any{"players": have, "required": need})
}

// TimerFault 包裹计时器内部故障
func TimerFault(roomCode string, cause error) *GameError {
	return ErrTimerService.Wrap(cause).WithDetails(map[string]any{"roomCode": roomCode})
}

// As 提取 GameError；非 GameError 归为 UNKNOWN
func As(err error) *GameError {
	if err == nil {
		return nil
	}
	var ge *GameError
	if errors.As(err, &ge) {
		return ge
	}
	return ErrUnknown.Wrap(err)
}

// CodeOf 返回错误码
func CodeOf(err error) string {
	if ge := As(err); ge != nil {
		return ge.Code
	}
	return ""
}

// StatusOf 返回 HTTP 状态码
func StatusOf(err error) int {
	if ge := As(err); ge != nil {
		return ge.Status
	}
	return http.StatusOK
}

// ToPayload 转换为协议错误负载
func ToPayload(err error) protocol.ErrorPayload {
	ge := As(err)
	if ge == nil {
		return protocol.ErrorPayload{}
	}
	return protocol.ErrorPayload{Code: ge.Code, Message: ge.Message, Details: ge.Details}
}
