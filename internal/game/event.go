package game

// EventType 领域事件类型
type EventType string

const (
	EventPrompt    EventType = "prompt"
	EventChoices   EventType = "choices"
	EventScores    EventType = "scores"
	EventGameOver  EventType = "gameOver"
	EventSubmitted EventType = "submitted"
)

// Event 引擎产生的领域事件，由网关转换为协议消息广播
type Event struct {
	Type    EventType
	Payload any
}

// PromptEvent 新回合题目
type PromptEvent struct {
	Round     int
	MaxRounds int
	PromptID  string
	Prompt    string
}

// ChoicesEvent 投票选项（作者对客户端隐藏）
type ChoicesEvent struct {
	Round   int
	Choices []Choice
}

// ScoresEvent 回合结算
type ScoresEvent struct {
	Round     *RoundState
	Deltas    map[string]int
	Standings []Player
}

// GameOverEvent 游戏结束
type GameOverEvent struct {
	Winners   []Player // 最高分（可能并列）
	Standings []Player
}

// SubmittedEvent 提交回执
type SubmittedEvent struct {
	PlayerID string
	Phase    Phase
	Count    int
	Total    int
}
