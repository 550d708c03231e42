package codec

import (
	"sync"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/palemoky/fibbing-it/internal/apperrors"
	"github.com/palemoky/fibbing-it/internal/protocol"
)

func TestByName(t *testing.T) {
	t.Parallel()

	assert.Equal(t, NameProto, ByName("proto").Name())
	assert.Equal(t, NameJSON, ByName("json").Name())
	assert.Equal(t, NameJSON, ByName("").Name())
	assert.Equal(t, websocket.BinaryMessage, ByName("proto").FrameType())
	assert.Equal(t, websocket.TextMessage, ByName("json").FrameType())
}

func TestCodecs_CarryPayloadAcrossTheWire(t *testing.T) {
	t.Parallel()

	for _, c := range []Codec{JSONCodec{}, ProtoCodec{}} {
		t.Run(c.Name(), func(t *testing.T) {
			t.Parallel()

			msg := MustNewMessage(protocol.MsgChoices, protocol.ChoicesPayload{
				Round:    2,
				Duration: 20,
				Choices: []protocol.ChoiceInfo{
					{ID: "6f1c2a", Text: "a <b>"},
					{ID: "B::1", Text: "lie"},
				},
			})

			data, err := c.Encode(msg)
			require.NoError(t, err)

			decoded, err := c.Decode(data)
			require.NoError(t, err)
			defer PutMessage(decoded)

			assert.Equal(t, protocol.MsgChoices, decoded.Type)
			payload, err := ParsePayload[protocol.ChoicesPayload](decoded)
			require.NoError(t, err)
			assert.Equal(t, 2, payload.Round)
			assert.Equal(t, 20, payload.Duration)
			require.Len(t, payload.Choices, 2)
			assert.Equal(t, "a <b>", payload.Choices[0].Text)
		})
	}
}

func TestCodecs_MessageWithoutPayload(t *testing.T) {
	t.Parallel()

	for _, c := range []Codec{JSONCodec{}, ProtoCodec{}} {
		data, err := c.Encode(&protocol.Message{Type: protocol.MsgLeave})
		require.NoError(t, err)

		decoded, err := c.Decode(data)
		require.NoError(t, err)
		assert.Equal(t, protocol.MsgLeave, decoded.Type)
		assert.Empty(t, decoded.Payload)
	}
}

func TestCodecs_RejectGarbage(t *testing.T) {
	t.Parallel()

	_, err := JSONCodec{}.Decode([]byte("{not json"))
	assert.Error(t, err)

	_, err = ProtoCodec{}.Decode([]byte{0xff, 0xff, 0xff})
	assert.Error(t, err)

	_, err = JSONCodec{}.Decode(nil)
	assert.ErrorIs(t, err, ErrEmptyFrame)
}

func TestParsePayload_InvalidJSONIsInvalidRequest(t *testing.T) {
	t.Parallel()

	msg := &protocol.Message{Type: protocol.MsgSubmitVote, Payload: []byte(`{"choiceId": 5}`)}
	_, err := ParsePayload[protocol.SubmitVotePayload](msg)
	assert.ErrorIs(t, err, apperrors.ErrInvalidRequest)
}

func TestNewErrorMessage(t *testing.T) {
	t.Parallel()

	msg := NewErrorMessage(apperrors.RoomNotFound("ZZZZ"))
	assert.Equal(t, protocol.MsgError, msg.Type)

	payload, err := ParsePayload[protocol.ErrorPayload](msg)
	require.NoError(t, err)
	assert.Equal(t, protocol.ErrCodeRoomNotFound, payload.Code)
	assert.Equal(t, "ZZZZ", payload.Details["roomCode"])
}

func TestMessagePool_GetPut(t *testing.T) {
	t.Parallel()

	msg := GetMessage()
	msg.Type = "test"
	msg.Payload = []byte("data")
	PutMessage(msg)

	msg2 := GetMessage()
	assert.Empty(t, msg2.Type)
	assert.Nil(t, msg2.Payload)

	assert.NotPanics(t, func() { PutMessage(nil) })
}

func TestBufferPool_CapacityPreserved(t *testing.T) {
	t.Parallel()

	buf := GetBuffer()
	buf.Write(make([]byte, 1024))
	PutBuffer(buf)

	buf2 := GetBuffer()
	assert.Equal(t, 0, buf2.Len())
	assert.NotPanics(t, func() { PutBuffer(nil) })
}

func TestCodecs_Concurrency(t *testing.T) {
	t.Parallel()

	var wg sync.WaitGroup
	for range 100 {
		wg.Go(func() {
			c := ProtoCodec{}
			data, err := c.Encode(MustNewMessage(protocol.MsgTimer, protocol.TimerPayload{TimeLeft: 3}))
			if err != nil {
				return
			}
			if msg, err := c.Decode(data); err == nil {
				PutMessage(msg)
			}
		})
	}
	wg.Wait()
}

func BenchmarkProtoCodec_Encode(b *testing.B) {
	msg := MustNewMessage(protocol.MsgTimer, protocol.TimerPayload{Phase: "prompt", Round: 1, TimeLeft: 10})
	c := ProtoCodec{}
	for b.Loop() {
		_, _ = c.Encode(msg)
	}
}
