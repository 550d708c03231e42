package convert

import (
	"github.com/palemoky/fibbing-it/internal/game"
	"github.com/palemoky/fibbing-it/internal/protocol"
	"github.com/palemoky/fibbing-it/internal/protocol/codec"
)

// --- Player conversion ---

func PlayerToInfo(p game.Player, hostID string) protocol.PlayerInfo {
	return protocol.PlayerInfo{
		ID:        p.ID,
		Name:      p.Name,
		Avatar:    p.Avatar,
		Score:     p.Score,
		Connected: p.Connected,
		IsHost:    p.ID == hostID,
	}
}

func PlayersToInfos(players []game.Player, hostID string) []protocol.PlayerInfo {
	result := make([]protocol.PlayerInfo, len(players))
	for i, p := range players {
		result[i] = PlayerToInfo(p, hostID)
	}
	return result
}

func statePlayers(st *game.State) []game.Player {
	out := make([]game.Player, len(st.Players))
	for i, p := range st.Players {
		out[i] = *p
	}
	return out
}

// --- Room snapshot ---

// RoomSnapshot 房间完整快照（不含任何回合秘密：答案、谎言作者、投票）
func RoomSnapshot(code, gameType string, st *game.State) protocol.RoomPayload {
	return protocol.RoomPayload{
		Code:      code,
		GameType:  gameType,
		Phase:     string(st.Phase),
		Round:     st.Round,
		MaxRounds: st.MaxRounds,
		TimeLeft:  st.TimeLeft,
		HostID:    st.HostID,
		Players:   PlayersToInfos(statePlayers(st), st.HostID),
	}
}

// --- Choice conversion ---

func ChoicesToInfos(choices []game.Choice) []protocol.ChoiceInfo {
	result := make([]protocol.ChoiceInfo, len(choices))
	for i, c := range choices {
		result[i] = protocol.ChoiceInfo{ID: c.Ref, Text: c.Text}
	}
	return result
}

func choiceResults(r *game.RoundState) []protocol.ChoiceResult {
	result := make([]protocol.ChoiceResult, len(r.Choices))
	for i, c := range r.Choices {
		voters := []string{}
		for _, v := range r.Votes {
			if v.ChoiceID == c.ID {
				voters = append(voters, v.Voter)
			}
		}
		result[i] = protocol.ChoiceResult{
			ID:      c.Ref,
			Text:    c.Text,
			IsTruth: c.IsTruth,
			Authors: c.Authors,
			Voters:  voters,
		}
	}
	return result
}

func truthRef(r *game.RoundState) string {
	truth, _ := r.TruthChoice()
	return truth.Ref
}

// --- Event conversion ---

// EventPayload 将引擎事件转换为协议消息类型与负载
// st 用于标记排名中的房主；duration 为当前阶段时长
func EventPayload(ev game.Event, st *game.State, duration int) (protocol.MessageType, any, bool) {
	switch p := ev.Payload.(type) {
	case game.PromptEvent:
		return protocol.MsgPrompt, protocol.PromptPayload{
			Round:     p.Round,
			MaxRounds: p.MaxRounds,
			PromptID:  p.PromptID,
			Prompt:    p.Prompt,
			Duration:  duration,
		}, true

	case game.ChoicesEvent:
		return protocol.MsgChoices, protocol.ChoicesPayload{
			Round:    p.Round,
			Choices:  ChoicesToInfos(p.Choices),
			Duration: duration,
		}, true

	case game.ScoresEvent:
		deltas := make([]protocol.ScoreDelta, 0, len(p.Standings))
		for _, pl := range p.Standings {
			deltas = append(deltas, protocol.ScoreDelta{PlayerID: pl.ID, Points: p.Deltas[pl.ID]})
		}
		return protocol.MsgScores, protocol.ScoresPayload{
			Round:         p.Round.RoundNumber,
			PromptID:      p.Round.PromptID,
			Answer:        p.Round.Answer,
			TruthChoiceID: truthRef(p.Round),
			Results:       choiceResults(p.Round),
			Deltas:        deltas,
			Standings:     PlayersToInfos(p.Standings, st.HostID),
		}, true

	case game.GameOverEvent:
		return protocol.MsgGameOver, protocol.GameOverPayload{
			Winners:   PlayersToInfos(p.Winners, st.HostID),
			Standings: PlayersToInfos(p.Standings, st.HostID),
		}, true

	case game.SubmittedEvent:
		return protocol.MsgSubmitted, protocol.SubmittedPayload{
			PlayerID: p.PlayerID,
			Phase:    string(p.Phase),
			Count:    p.Count,
			Total:    p.Total,
		}, true
	}
	return "", nil, false
}

// EventMessage 将引擎事件转换为协议消息，未知事件返回 nil
func EventMessage(ev game.Event, st *game.State, duration int) *protocol.Message {
	t, payload, ok := EventPayload(ev, st, duration)
	if !ok {
		return nil
	}
	return codec.MustNewMessage(t, payload)
}
