package codec

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/gorilla/websocket"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/palemoky/fibbing-it/internal/apperrors"
	"github.com/palemoky/fibbing-it/internal/protocol"
)

// Codec 名称，对应 /ws?codec=
const (
	NameJSON  = "json"
	NameProto = "proto"
)

// ErrEmptyFrame 空帧
var ErrEmptyFrame = errors.New("codec: empty frame")

// Codec 线上编解码器
type Codec interface {
	Name() string
	// FrameType websocket 帧类型（Text / Binary）
	FrameType() int
	Encode(m *protocol.Message) ([]byte, error)
	// Decode 返回的消息来自对象池，处理完毕后应调用 PutMessage
	Decode(data []byte) (*protocol.Message, error)
}

// ByName 按名称选择编解码器，未知名称回落到 JSON
func ByName(name string) Codec {
	if name == NameProto {
		return ProtoCodec{}
	}
	return JSONCodec{}
}

// JSONCodec 文本帧 JSON 信封 {"type": ..., "payload": ...}
type JSONCodec struct{}

func (JSONCodec) Name() string   { return NameJSON }
func (JSONCodec) FrameType() int { return websocket.TextMessage }

// Encode 将消息编码为 JSON 字节
func (JSONCodec) Encode(m *protocol.Message) ([]byte, error) {
	buf := GetBuffer()
	defer PutBuffer(buf)

	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(m); err != nil {
		return nil, err
	}
	// Encoder 追加换行，去掉并复制出池化缓冲区
	out := buf.Bytes()
	return append([]byte(nil), out[:len(out)-1]...), nil
}

// Decode 从 JSON 字节解码消息
func (JSONCodec) Decode(data []byte) (*protocol.Message, error) {
	if len(data) == 0 {
		return nil, ErrEmptyFrame
	}
	msg := GetMessage()
	if err := json.Unmarshal(data, msg); err != nil {
		PutMessage(msg)
		return nil, err
	}
	return msg, nil
}

// ProtoCodec 二进制帧，信封为 google.protobuf.Struct
// 字段 type 为字符串，payload 为任意 JSON 值
type ProtoCodec struct{}

func (ProtoCodec) Name() string   { return NameProto }
func (ProtoCodec) FrameType() int { return websocket.BinaryMessage }

// Encode 将消息编码为 Protobuf 字节
func (ProtoCodec) Encode(m *protocol.Message) ([]byte, error) {
	env := getEnvelope()
	defer putEnvelope(env)

	env.Fields = map[string]*structpb.Value{
		"type": structpb.NewStringValue(string(m.Type)),
	}
	if len(m.Payload) > 0 {
		payload := &structpb.Value{}
		if err := payload.UnmarshalJSON(m.Payload); err != nil {
			return nil, fmt.Errorf("codec: payload to struct: %w", err)
		}
		env.Fields["payload"] = payload
	}
	return proto.Marshal(env)
}

// Decode 从 Protobuf 字节解码消息
func (ProtoCodec) Decode(data []byte) (*protocol.Message, error) {
	if len(data) == 0 {
		return nil, ErrEmptyFrame
	}
	env := getEnvelope()
	defer putEnvelope(env)

	if err := proto.Unmarshal(data, env); err != nil {
		return nil, err
	}

	msg := GetMessage()
	msg.Type = protocol.MessageType(env.GetFields()["type"].GetStringValue())
	if payload, ok := env.GetFields()["payload"]; ok {
		raw, err := payload.MarshalJSON()
		if err != nil {
			PutMessage(msg)
			return nil, err
		}
		msg.Payload = raw
	}
	return msg, nil
}

// NewMessage 创建一个新消息
// 广播消息会被多个连接共享，因此不从对象池分配
func NewMessage(msgType protocol.MessageType, payload any) (*protocol.Message, error) {
	msg := &protocol.Message{Type: msgType}
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		msg.Payload = data
	}
	return msg, nil
}

// MustNewMessage 创建消息，失败时 panic
func MustNewMessage(msgType protocol.MessageType, payload any) *protocol.Message {
	msg, err := NewMessage(msgType, payload)
	if err != nil {
		panic(err)
	}
	return msg
}

// ParsePayload 解析消息的 Payload 到指定类型
func ParsePayload[T any](msg *protocol.Message) (*T, error) {
	var payload T
	if len(msg.Payload) == 0 {
		return &payload, nil
	}
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		return nil, apperrors.InvalidRequest(err.Error())
	}
	return &payload, nil
}

// NewErrorMessage 创建错误消息
func NewErrorMessage(err error) *protocol.Message {
	return MustNewMessage(protocol.MsgError, apperrors.ToPayload(err))
}
