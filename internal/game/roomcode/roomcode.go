package roomcode

import (
	"regexp"
	"strings"
	"sync"

	"github.com/palemoky/fibbing-it/internal/game/rng"
)

// Alphabet 房间号字符集，去掉易混淆的 I L O V 0 1
const Alphabet = "ABCDEFGHJKMNPQRSTUWXYZ23456789"

// DefaultPattern 客户端自定义房间号的默认规则，字符范围与 Alphabet 一致
const DefaultPattern = `^[ABCDEFGHJKMNPQRSTUWXYZ2-9]{4,8}$`

// DefaultLength 默认房间号长度
const DefaultLength = 4

// Generate 生成指定长度的房间号
// 不做唯一性检查，由 RoomManager 负责冲突重试
func Generate(length int, src *rng.Source) string {
	return GenerateFrom(Alphabet, length, src)
}

// GenerateFrom 使用自定义字符集生成房间号
func GenerateFrom(alphabet string, length int, src *rng.Source) string {
	if length <= 0 {
		length = DefaultLength
	}
	if alphabet == "" {
		alphabet = Alphabet
	}
	var sb strings.Builder
	sb.Grow(length)
	for range length {
		sb.WriteByte(alphabet[src.IntN(len(alphabet))])
	}
	return sb.String()
}

// Normalize 规范化客户端传入的房间号
func Normalize(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

var (
	patternMu    sync.Mutex
	patternCache = map[string]*regexp.Regexp{}
)

// Valid 校验房间号是否匹配配置的正则
// 空 pattern 时只要求由字符集中的字符组成
func Valid(code, pattern string) bool {
	if code == "" {
		return false
	}
	if pattern == "" {
		return InAlphabet(code, Alphabet)
	}
	re, err := compile(pattern)
	if err != nil {
		return false
	}
	return re.MatchString(code)
}

// InAlphabet 房间号是否只由字符集中的字符组成；字符集为空时使用 Alphabet
func InAlphabet(code, alphabet string) bool {
	if alphabet == "" {
		alphabet = Alphabet
	}
	return code != "" && strings.Trim(code, alphabet) == ""
}

func compile(pattern string) (*regexp.Regexp, error) {
	patternMu.Lock()
	defer patternMu.Unlock()
	if re, ok := patternCache[pattern]; ok {
		return re, nil
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, err
	}
	patternCache[pattern] = re
	return re, nil
}
