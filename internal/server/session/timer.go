package session

import (
	"github.com/rs/zerolog/log"

	"github.com/palemoky/fibbing-it/internal/game"
	"github.com/palemoky/fibbing-it/internal/game/room"
	"github.com/palemoky/fibbing-it/internal/game/timer"
	"github.com/palemoky/fibbing-it/internal/protocol"
	"github.com/palemoky/fibbing-it/internal/protocol/codec"
)

// timedPhase 需要倒计时的阶段
func timedPhase(p game.Phase) bool {
	switch p {
	case game.PhasePrompt, game.PhaseChoose, game.PhaseScoring:
		return true
	}
	return false
}

// armTimer 为当前阶段启动倒计时；仅在执行器内调用
// 回调只向房间投递任务，任务内以计时器 id 判断是否过期
func (c *Coordinator) armTimer(r *room.Room) {
	c.stopTimer(r)
	if !timedPhase(r.State.Phase) {
		return
	}

	var id string
	h, err := c.timers.StartTimer(r.Code, r.Engine.PhaseDuration(r.State.Phase), timer.Callbacks{
		OnTick: func(remaining int) {
			r.Post(func() { c.onTick(r, id, remaining) })
		},
		OnExpire: func() {
			r.Post(func() { c.onExpire(r, id) })
		},
	})
	if err != nil {
		// 保持当前阶段，房主可通过 nextPhase 继续
		log.Error().Err(err).Str("room", r.Code).Str("phase", string(r.State.Phase)).Msg("❌ 阶段计时器启动失败")
		return
	}
	id = h.ID
	r.TimerID = h.ID
}

// stopTimer 停止房间计时器；仅在执行器内调用
func (c *Coordinator) stopTimer(r *room.Room) {
	if r.TimerID == "" {
		return
	}
	c.timers.StopTimer(r.Code)
	r.TimerID = ""
}

func (c *Coordinator) onTick(r *room.Room, id string, remaining int) {
	if id == "" || r.TimerID != id {
		return
	}
	if delta := r.State.TimeLeft - remaining; delta > 0 {
		r.State = r.Engine.UpdateTimer(r.State, delta)
	}
	r.Broadcast(codec.MustNewMessage(protocol.MsgTimer, protocol.TimerPayload{
		Phase:    string(r.State.Phase),
		Round:    r.State.Round,
		TimeLeft: r.State.TimeLeft,
	}))
}

func (c *Coordinator) onExpire(r *room.Room, id string) {
	if id == "" || r.TimerID != id {
		return
	}
	r.TimerID = ""
	r.State = r.Engine.UpdateTimer(r.State, r.State.TimeLeft)
	log.Debug().Str("room", r.Code).Str("phase", string(r.State.Phase)).Int("round", r.State.Round).Msg("⏰ 阶段超时")
	c.advance(r)
}
