package protocol

// --- 客户端请求 Payloads ---

// JoinPayload 加入房间请求
// 携带 PlayerID + Token 时视为断线重连
type JoinPayload struct {
	RoomCode string `json:"roomCode"`
	Name     string `json:"name,omitempty"`
	Avatar   string `json:"avatar,omitempty"`
	PlayerID string `json:"playerId,omitempty"`
	Token    string `json:"token,omitempty"`
}

// StartGamePayload 开始游戏请求
type StartGamePayload struct {
	MaxRounds int `json:"maxRounds,omitempty"` // 0 表示使用服务器默认值
}

// SubmitAnswerPayload 提交谎言
type SubmitAnswerPayload struct {
	Text string `json:"text"`
}

// SubmitVotePayload 投票
type SubmitVotePayload struct {
	ChoiceID string `json:"choiceId"`
}

// PingPayload 心跳请求
type PingPayload struct {
	Timestamp int64 `json:"timestamp"` // 客户端时间戳（毫秒）
}

// --- 服务端响应 Payloads ---

// JoinedPayload 加入成功响应
type JoinedPayload struct {
	RoomCode    string `json:"roomCode"`
	PlayerID    string `json:"playerId"`
	Token       string `json:"token"` // 重连令牌
	Reconnected bool   `json:"reconnected"`
}

// PlayerInfo 玩家信息
type PlayerInfo struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Avatar    string `json:"avatar,omitempty"`
	Score     int    `json:"score"`
	Connected bool   `json:"connected"`
	IsHost    bool   `json:"isHost"`
}

// RoomPayload 房间完整快照
type RoomPayload struct {
	Code      string       `json:"code"`
	GameType  string       `json:"gameType"`
	Phase     string       `json:"phase"`
	Round     int          `json:"round"`
	MaxRounds int          `json:"maxRounds"`
	TimeLeft  int          `json:"timeLeft"`
	HostID    string       `json:"hostId,omitempty"`
	Players   []PlayerInfo `json:"players"`
}

// TimerPayload 倒计时 tick
type TimerPayload struct {
	Phase    string `json:"phase"`
	Round    int    `json:"round"`
	TimeLeft int    `json:"timeLeft"`
}

// PromptPayload 本轮题目（不含答案）
type PromptPayload struct {
	Round     int    `json:"round"`
	MaxRounds int    `json:"maxRounds"`
	PromptID  string `json:"promptId"`
	Prompt    string `json:"prompt"`
	Duration  int    `json:"duration"`
}

// ChoiceInfo 可投票选项（隐藏作者）
type ChoiceInfo struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// ChoicesPayload 投票阶段选项
type ChoicesPayload struct {
	Round    int          `json:"round"`
	Choices  []ChoiceInfo `json:"choices"`
	Duration int          `json:"duration"`
}

// ChoiceResult 结算时公开的选项详情
type ChoiceResult struct {
	ID      string   `json:"id"`
	Text    string   `json:"text"`
	IsTruth bool     `json:"isTruth"`
	Authors []string `json:"authors,omitempty"`
	Voters  []string `json:"voters"`
}

// ScoreDelta 本轮得分
type ScoreDelta struct {
	PlayerID string `json:"playerId"`
	Points   int    `json:"points"`
}

// ScoresPayload 本轮结算
type ScoresPayload struct {
	Round         int            `json:"round"`
	PromptID      string         `json:"promptId"`
	Answer        string         `json:"answer"`
	TruthChoiceID string         `json:"truthChoiceId"`
	Results       []ChoiceResult `json:"results"`
	Deltas        []ScoreDelta   `json:"deltas"`
	Standings     []PlayerInfo   `json:"standings"`
}

// GameOverPayload 游戏结束
type GameOverPayload struct {
	Winners   []PlayerInfo `json:"winners"`   // 最高分玩家（可能并列）
	Standings []PlayerInfo `json:"standings"` // 完整排名
}

// SubmittedPayload 提交回执
type SubmittedPayload struct {
	PlayerID string `json:"playerId"`
	Phase    string `json:"phase"`
	Count    int    `json:"count"` // 已提交人数
	Total    int    `json:"total"` // 应提交人数
}

// PongPayload 心跳响应
type PongPayload struct {
	ClientTimestamp int64 `json:"clientTimestamp"`
	ServerTimestamp int64 `json:"serverTimestamp"`
}

// ErrorPayload 错误消息
type ErrorPayload struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// --- HTTP 控制面 ---

// CreateRoomRequest POST /rooms 请求体
type CreateRoomRequest struct {
	GameType string `json:"gameType,omitempty"`
	RoomCode string `json:"roomCode,omitempty"`
}

// CreateRoomResponse POST /rooms 响应
type CreateRoomResponse struct {
	Code string `json:"code"`
}

// DeleteRoomResponse DELETE /rooms/:code 响应
type DeleteRoomResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// HealthResources 健康检查资源统计
type HealthResources struct {
	ActiveRooms   int `json:"activeRooms"`
	ActivePlayers int `json:"activePlayers"`
	ActiveTimers  int `json:"activeTimers"`
}

// HealthResponse GET /health 响应
type HealthResponse struct {
	Status    string          `json:"status"`
	Timestamp int64           `json:"timestamp"`
	Resources HealthResources `json:"resources"`
}

// HTTPError HTTP 错误响应
type HTTPError struct {
	Error ErrorPayload `json:"error"`
}

// LeaderboardEntry 排行榜条目
type LeaderboardEntry struct {
	Rank       int    `json:"rank"`
	PlayerName string `json:"playerName"`
	Score      int    `json:"score"`
	Games      int    `json:"games"`
	Wins       int    `json:"wins"`
}

// LeaderboardResponse GET /leaderboard 响应
type LeaderboardResponse struct {
	Entries []LeaderboardEntry `json:"entries"`
}

// PlayerStandingResponse GET /leaderboard/:name 响应，Rank 为 -1 表示未上总榜
type PlayerStandingResponse struct {
	PlayerName string `json:"playerName"`
	Rank       int    `json:"rank"`
	Games      int    `json:"games"`
	Wins       int    `json:"wins"`
	TotalScore int    `json:"totalScore"`
	BestScore  int    `json:"bestScore"`
}
