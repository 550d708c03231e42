package types

import (
	"github.com/palemoky/fibbing-it/internal/protocol"
)

// ClientInterface 定义客户端接口（用于打破 server 与 room/session 之间的循环依赖）
type ClientInterface interface {
	// GetID 加入房间前为连接 id，加入后为玩家 id
	GetID() string
	GetName() string
	GetRoom() string
	SetRoom(code string)
	// SetIdentity 加入或重连成功后绑定玩家身份
	SetIdentity(playerID, name string)
	// SendMessage 非阻塞发送，发送队列满时丢弃
	SendMessage(msg *protocol.Message)
	Close()
}
