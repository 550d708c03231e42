package game

// ActionKind 动作类型
type ActionKind string

const (
	ActionStartGame    ActionKind = "startGame"
	ActionSubmitAnswer ActionKind = "submitAnswer"
	ActionSubmitVote   ActionKind = "submitVote"
	ActionRestart      ActionKind = "restart"
)

// Action 玩家动作（封闭的和类型，只有本包内的类型可以实现）
type Action interface {
	Kind() ActionKind
	Actor() string
	isAction()
}

// StartGame 房主开始游戏
type StartGame struct {
	By        string
	MaxRounds int // 0 使用默认值
}

// SubmitAnswer 提交谎言
type SubmitAnswer struct {
	By   string
	Text string
}

// SubmitVote 投票
type SubmitVote struct {
	By       string
	ChoiceID string
}

// Restart 结束后重开
type Restart struct {
	By string
}

func (StartGame) Kind() ActionKind    { return ActionStartGame }
func (SubmitAnswer) Kind() ActionKind { return ActionSubmitAnswer }
func (SubmitVote) Kind() ActionKind   { return ActionSubmitVote }
func (Restart) Kind() ActionKind      { return ActionRestart }

func (a StartGame) Actor() string    { return a.By }
func (a SubmitAnswer) Actor() string { return a.By }
func (a SubmitVote) Actor() string   { return a.By }
func (a Restart) Actor() string      { return a.By }

func (StartGame) isAction()    {}
func (SubmitAnswer) isAction() {}
func (SubmitVote) isAction()   {}
func (Restart) isAction()      {}
