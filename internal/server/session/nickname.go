package session

import (
	"strings"
	"unicode/utf8"

	"github.com/palemoky/fibbing-it/internal/game/rng"
)

// maxNameLength 昵称最大长度（字符）
const maxNameLength = 16

// 昵称词库
var (
	adjectives = []string{
		"狡猾的", "诚实的", "淡定的", "心虚的", "机智的",
		"神秘的", "嘴硬的", "无辜的", "可疑的", "老实的",
		"浮夸的", "腼腆的", "傲娇的", "迷糊的", "镇定的",
	}

	nouns = []string{
		"狐狸", "熊猫", "海豚", "企鹅", "考拉",
		"柴犬", "龙猫", "仓鼠", "刺猬", "松鼠",
		"浣熊", "水獭", "羊驼", "鹦鹉", "变色龙",
	}
)

// GenerateNickname 生成随机昵称
func GenerateNickname(src *rng.Source) string {
	return adjectives[src.IntN(len(adjectives))] + nouns[src.IntN(len(nouns))]
}

// SanitizeName 去除首尾空白与控制字符并截断
func SanitizeName(name string) string {
	name = strings.Map(func(r rune) rune {
		if r < 0x20 || r == 0x7f {
			return -1
		}
		return r
	}, strings.TrimSpace(name))
	if utf8.RuneCountInString(name) > maxNameLength {
		name = string([]rune(name)[:maxNameLength])
	}
	return strings.TrimSpace(name)
}
