package protocol

import "encoding/json"

// Message 基础消息结构
type Message struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// MessageType 消息类型
type MessageType string

// 客户端 → 服务端 消息类型
const (
	MsgJoin         MessageType = "join"         // 加入房间（或携带令牌重连）
	MsgLeave        MessageType = "leave"        // 离开房间
	MsgStartGame    MessageType = "startGame"    // 房主开始游戏
	MsgSubmitAnswer MessageType = "submitAnswer" // 提交谎言答案
	MsgSubmitVote   MessageType = "submitVote"   // 投票
	MsgNextPhase    MessageType = "nextPhase"    // 房主手动推进阶段
	MsgRestart      MessageType = "restart"      // 房主在结束后重开
	MsgPing         MessageType = "ping"         // 心跳 ping
)

// 服务端 → 客户端 消息类型
const (
	MsgJoined    MessageType = "joined"    // 加入成功（含重连令牌）
	MsgRoom      MessageType = "room"      // 房间完整快照
	MsgTimer     MessageType = "timer"     // 倒计时 tick
	MsgPrompt    MessageType = "prompt"    // 本轮题目
	MsgChoices   MessageType = "choices"   // 可投票选项
	MsgScores    MessageType = "scores"    // 本轮结算
	MsgGameOver  MessageType = "gameOver"  // 游戏结束
	MsgSubmitted MessageType = "submitted" // 提交回执
	MsgPong      MessageType = "pong"      // 心跳 pong
	MsgError     MessageType = "error"     // 错误消息
)

// IsClientMessage 是否为客户端可发送的消息类型
func (t MessageType) IsClientMessage() bool {
	switch t {
	case MsgJoin, MsgLeave, MsgStartGame, MsgSubmitAnswer, MsgSubmitVote,
		MsgNextPhase, MsgRestart, MsgPing:
		return true
	}
	return false
}
