package fibbing

import "github.com/palemoky/fibbing-it/internal/game"

// Score 计算一轮得分，纯函数
// 选中真相的投票者得 correct 分；谎言的每位作者按被骗人数每人得 fooled 分
// eligible 返回 false 的投票者被忽略
func Score(r *game.RoundState, eligible func(playerID string) bool, correct, fooled int) map[string]int {
	deltas := make(map[string]int)
	for _, v := range r.Votes {
		if eligible != nil && !eligible(v.Voter) {
			continue
		}
		choice, ok := r.Choice(v.ChoiceID)
		if !ok {
			continue
		}
		if choice.IsTruth {
			deltas[v.Voter] += correct
			continue
		}
		for _, author := range choice.Authors {
			if author == v.Voter {
				continue
			}
			deltas[author] += fooled
		}
	}
	return deltas
}
