package apperrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/palemoky/fibbing-it/internal/protocol"
)

func TestGameError_IsMatchesByCode(t *testing.T) {
	t.Parallel()

	err := RoomNotFound("ABCD")
	assert.True(t, errors.Is(err, ErrRoomNotFound))
	assert.False(t, errors.Is(err, ErrRoomFull))

	wrapped := fmt.Errorf("join: %w", err)
	assert.True(t, errors.Is(wrapped, ErrRoomNotFound))
}

func TestGameError_WithDetailsDoesNotMutateSentinel(t *testing.T) {
	t.Parallel()

	err := InvalidAction("wrong phase")
	assert.Equal(t, "wrong phase", err.Details["reason"])
	assert.Nil(t, ErrInvalidGameAction.Details)
}

func TestGameError_WrapAndUnwrap(t *testing.T) {
	t.Parallel()

	cause := errors.New("tick panicked")
	err := TimerFault("WXYZ", cause)

	assert.ErrorIs(t, err, cause)
	assert.ErrorIs(t, err, ErrTimerService)
	assert.Contains(t, err.Error(), "tick panicked")
	assert.Equal(t, "WXYZ", err.Details["roomCode"])
}

func TestAs_NonGameError(t *testing.T) {
	t.Parallel()

	assert.Nil(t, As(nil))

	ge := As(errors.New("boom"))
	require.NotNil(t, ge)
	assert.Equal(t, protocol.ErrCodeUnknown, ge.Code)
}

func TestStatusOf(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, http.StatusOK},
		{"not found", RoomNotFound("X"), http.StatusNotFound},
		{"conflict", RoomAlreadyExists("X"), http.StatusConflict},
		{"bad request", InvalidRequest("x"), http.StatusBadRequest},
		{"rate limited", ErrRateLimited, http.StatusTooManyRequests},
		{"plain error", errors.New("x"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, StatusOf(tt.err))
		})
	}
}

func TestToPayload(t *testing.T) {
	t.Parallel()

	p := ToPayload(InsufficientPlayers(1, 2))
	assert.Equal(t, protocol.ErrCodeInsufficientPlayers, p.Code)
	assert.Equal(t, protocol.ErrorMessages[protocol.ErrCodeInsufficientPlayers], p.Message)
	assert.Equal(t, 1, p.Details["players"])
	assert.Equal(t, 2, p.Details["required"])
	assert.Equal(t, protocol.ErrCodeInsufficientPlayers, CodeOf(InsufficientPlayers(0, 2)))
}
