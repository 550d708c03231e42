package session

import (
	"fmt"
	"slices"

	"github.com/rs/zerolog/log"

	"github.com/palemoky/fibbing-it/internal/apperrors"
	"github.com/palemoky/fibbing-it/internal/game"
	"github.com/palemoky/fibbing-it/internal/game/room"
	"github.com/palemoky/fibbing-it/internal/protocol"
	"github.com/palemoky/fibbing-it/internal/protocol/codec"
	"github.com/palemoky/fibbing-it/internal/protocol/convert"
	"github.com/palemoky/fibbing-it/internal/types"
)

// StartGame 房主开始游戏
func (c *Coordinator) StartGame(client types.ClientInterface, req protocol.StartGamePayload) error {
	return c.act(client, func(playerID string) game.Action {
		return game.StartGame{By: playerID, MaxRounds: req.MaxRounds}
	})
}

// SubmitAnswer 提交谎言答案
func (c *Coordinator) SubmitAnswer(client types.ClientInterface, req protocol.SubmitAnswerPayload) error {
	return c.act(client, func(playerID string) game.Action {
		return game.SubmitAnswer{By: playerID, Text: req.Text}
	})
}

// SubmitVote 投票
func (c *Coordinator) SubmitVote(client types.ClientInterface, req protocol.SubmitVotePayload) error {
	return c.act(client, func(playerID string) game.Action {
		return game.SubmitVote{By: playerID, ChoiceID: req.ChoiceID}
	})
}

// Restart 房主在结束后重开
func (c *Coordinator) Restart(client types.ClientInterface) error {
	return c.act(client, func(playerID string) game.Action {
		return game.Restart{By: playerID}
	})
}

// NextPhase 房主手动推进阶段；lobby 中等同于开始游戏
func (c *Coordinator) NextPhase(client types.ClientInterface) error {
	r, playerID, err := c.resolve(client)
	if err != nil {
		return err
	}
	return r.Do(func() error {
		if r.State.Player(playerID) == nil {
			return apperrors.PlayerNotFound(playerID)
		}
		if !r.State.IsHost(playerID) {
			return apperrors.InvalidAction("only the host can advance the phase")
		}
		switch r.State.Phase {
		case game.PhaseLobby:
			return c.apply(r, game.StartGame{By: playerID})
		case game.PhaseOver:
			return apperrors.InvalidAction("game is over, restart instead")
		}
		log.Info().Str("room", r.Code).Str("phase", string(r.State.Phase)).Msg("⏭️ 房主手动推进阶段")
		c.advance(r)
		return nil
	})
}

func (c *Coordinator) act(client types.ClientInterface, build func(playerID string) game.Action) error {
	r, playerID, err := c.resolve(client)
	if err != nil {
		return err
	}
	return r.Do(func() error {
		action := build(playerID)
		if err := c.allowed(r, action); err != nil {
			return err
		}
		return c.apply(r, action)
	})
}

// allowed 按引擎给出的可用动作过滤请求，不合法的动作不会进入 ProcessAction
func (c *Coordinator) allowed(r *room.Room, action game.Action) error {
	st := r.State
	by := action.Actor()
	if st.Player(by) == nil {
		return apperrors.PlayerNotFound(by)
	}
	if slices.Contains(r.Engine.ValidActions(st, by), action.Kind()) {
		return nil
	}
	if action.Kind() == game.ActionStartGame && st.Phase != game.PhaseLobby {
		return apperrors.ErrGameAlreadyStarted
	}
	return apperrors.InvalidAction(fmt.Sprintf("%s not available in phase %s", action.Kind(), st.Phase))
}

// apply 执行动作；仅在执行器内调用
func (c *Coordinator) apply(r *room.Room, action game.Action) error {
	prev := r.State
	res := r.Engine.ProcessAction(prev, action)
	if !res.Valid {
		if res.Err == nil {
			return apperrors.ErrInvalidGameAction
		}
		return res.Err
	}

	r.State = res.State
	c.publish(r, res.Events)
	if phaseChanged(prev, r.State) {
		c.enterPhase(r)
		return nil
	}
	c.checkEarlyAdvance(r)
	return nil
}

// advance 推进到下一阶段；仅在执行器内调用
func (c *Coordinator) advance(r *room.Room) {
	prev := r.State
	if !r.Engine.CanAdvancePhase(prev) {
		return
	}
	c.stopTimer(r)
	next, events := r.Engine.AdvancePhase(prev)
	r.State = next
	c.publish(r, events)
	if phaseChanged(prev, next) {
		c.enterPhase(r)
	}
}

// checkEarlyAdvance 所有在线玩家都已提交时提前结束当前阶段
func (c *Coordinator) checkEarlyAdvance(r *room.Room) {
	if r.Engine.AllSubmitted(r.State) {
		log.Debug().Str("room", r.Code).Str("phase", string(r.State.Phase)).Msg("⏩ 全员已提交，提前推进")
		c.advance(r)
	}
}

// enterPhase 进入新阶段：广播快照、重新计时，结束时记录成绩
func (c *Coordinator) enterPhase(r *room.Room) {
	c.broadcastRoom(r)
	c.armTimer(r)
	if r.Engine.IsGameOver(r.State) {
		c.recordResults(r)
	}
}

func phaseChanged(prev, next *game.State) bool {
	return prev.Phase != next.Phase || prev.Round != next.Round
}

// publish 将引擎事件转换为协议消息广播
func (c *Coordinator) publish(r *room.Room, events []game.Event) {
	duration := r.Engine.PhaseDuration(r.State.Phase)
	for _, ev := range events {
		if msg := convert.EventMessage(ev, r.State, duration); msg != nil {
			r.Broadcast(msg)
		}
	}
}

func (c *Coordinator) broadcastRoom(r *room.Room) {
	r.Broadcast(codec.MustNewMessage(protocol.MsgRoom, r.Snapshot()))
}

// sendPhaseState 向重连玩家补发当前阶段的题目或选项
func (c *Coordinator) sendPhaseState(r *room.Room, playerID string) {
	st := r.State
	cur := st.Current
	if cur == nil {
		return
	}

	var ev game.Event
	switch st.Phase {
	case game.PhasePrompt:
		ev = game.Event{Type: game.EventPrompt, Payload: game.PromptEvent{
			Round:     st.Round,
			MaxRounds: st.MaxRounds,
			PromptID:  cur.PromptID,
			Prompt:    cur.Prompt,
		}}
	case game.PhaseChoose:
		ev = game.Event{Type: game.EventChoices, Payload: game.ChoicesEvent{
			Round:   st.Round,
			Choices: cur.Choices,
		}}
	default:
		return
	}
	if msg := convert.EventMessage(ev, st, st.TimeLeft); msg != nil {
		r.SendTo(playerID, msg)
	}
}
