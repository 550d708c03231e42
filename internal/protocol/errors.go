package protocol

// 错误码（稳定字符串，客户端据此本地化提示）
const (
	ErrCodeUnknown             = "UNKNOWN"
	ErrCodeInvalidRequest      = "INVALID_REQUEST"
	ErrCodeRateLimited         = "RATE_LIMITED"
	ErrCodeRoomNotFound        = "ROOM_NOT_FOUND"
	ErrCodeRoomAlreadyExists   = "ROOM_ALREADY_EXISTS"
	ErrCodeRoomFull            = "ROOM_FULL"
	ErrCodePlayerNotFound      = "PLAYER_NOT_FOUND"
	ErrCodeInvalidGameAction   = "INVALID_GAME_ACTION"
	ErrCodeInsufficientPlayers = "INSUFFICIENT_PLAYERS"
	ErrCodeGameAlreadyStarted  = "GAME_ALREADY_STARTED"
	ErrCodeTimerService        = "TIMER_SERVICE_ERROR"
	ErrCodeUnavailable         = "SERVICE_UNAVAILABLE"
)

// ErrorMessages 错误码对应的默认消息
var ErrorMessages = map[string]string{
	ErrCodeUnknown:             "未知错误",
	ErrCodeInvalidRequest:      "无效的请求",
	ErrCodeRateLimited:         "请求过于频繁",
	ErrCodeRoomNotFound:        "房间不存在",
	ErrCodeRoomAlreadyExists:   "房间号已被占用",
	ErrCodeRoomFull:            "房间已满",
	ErrCodePlayerNotFound:      "玩家不存在",
	ErrCodeInvalidGameAction:   "当前阶段不允许该操作",
	ErrCodeInsufficientPlayers: "玩家人数不足",
	ErrCodeGameAlreadyStarted:  "游戏已开始",
	ErrCodeTimerService:        "计时服务异常",
	ErrCodeUnavailable:         "服务暂不可用",
}
