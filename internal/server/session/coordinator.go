package session

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/palemoky/fibbing-it/internal/apperrors"
	"github.com/palemoky/fibbing-it/internal/game"
	"github.com/palemoky/fibbing-it/internal/game/rng"
	"github.com/palemoky/fibbing-it/internal/game/room"
	"github.com/palemoky/fibbing-it/internal/game/roomcode"
	"github.com/palemoky/fibbing-it/internal/game/timer"
	"github.com/palemoky/fibbing-it/internal/protocol"
	"github.com/palemoky/fibbing-it/internal/protocol/codec"
	"github.com/palemoky/fibbing-it/internal/server/storage"
	"github.com/palemoky/fibbing-it/internal/types"
)

// ResultRecorder 记录结束的对局（排行榜）
type ResultRecorder interface {
	RecordGame(ctx context.Context, results []storage.GameResult) error
}

// Deps 协调器依赖
type Deps struct {
	Rooms      *room.RoomManager
	Timers     *timer.Service
	Sessions   *SessionManager
	Results    ResultRecorder // 可为空，未启用排行榜
	Rand       *rng.Source
	MaxPlayers int
}

// Coordinator 连接房间、规则引擎与计时器
// 所有房间状态的读写都在房间执行器内完成
type Coordinator struct {
	rooms      *room.RoomManager
	timers     *timer.Service
	sessions   *SessionManager
	results    ResultRecorder
	rng        *rng.Source
	maxPlayers int

	wg sync.WaitGroup // 异步写排行榜
}

// NewCoordinator 创建协调器
func NewCoordinator(deps Deps) *Coordinator {
	src := deps.Rand
	if src == nil {
		src = rng.New(0)
	}
	c := &Coordinator{
		rooms:      deps.Rooms,
		timers:     deps.Timers,
		sessions:   deps.Sessions,
		results:    deps.Results,
		rng:        src,
		maxPlayers: deps.MaxPlayers,
	}
	deps.Rooms.OnDelete(func(code string) {
		if n := c.sessions.DeleteRoomSessions(code); n > 0 {
			log.Debug().Str("room", code).Int("sessions", n).Msg("🧹 房间会话已清理")
		}
	})
	return c
}

// Wait 等待异步任务完成
func (c *Coordinator) Wait() {
	c.wg.Wait()
}

// Join 加入房间；携带令牌时按重连处理
func (c *Coordinator) Join(client types.ClientInterface, req protocol.JoinPayload) error {
	if req.Token != "" {
		return c.reconnect(client, req)
	}

	r, err := c.rooms.GetRoom(req.RoomCode)
	if err != nil {
		return err
	}
	if cur := client.GetRoom(); cur != "" {
		if cur == r.Code {
			return apperrors.InvalidRequest("already in this room")
		}
		if err := c.Leave(client); err != nil {
			log.Warn().Err(err).Str("room", cur).Msg("⚠️ 切换房间时离开旧房间失败")
		}
	}

	name := SanitizeName(req.Name)
	if name == "" {
		name = GenerateNickname(c.rng)
	}
	playerID := uuid.NewString()

	err = r.Do(func() error {
		if r.State.Phase != game.PhaseLobby {
			return apperrors.ErrGameAlreadyStarted.WithDetails(map[string]any{"roomCode": r.Code})
		}
		if c.maxPlayers > 0 && len(r.State.Players) >= c.maxPlayers {
			return apperrors.ErrRoomFull.WithDetails(map[string]any{"roomCode": r.Code, "maxPlayers": c.maxPlayers})
		}

		r.State.AddPlayer(&game.Player{ID: playerID, Name: name, Avatar: req.Avatar, Connected: true})
		sess := c.sessions.CreateSession(playerID, name, r.Code)

		client.SetIdentity(playerID, name)
		client.SetRoom(r.Code)
		r.Attach(playerID, client)

		r.SendTo(playerID, codec.MustNewMessage(protocol.MsgJoined, protocol.JoinedPayload{
			RoomCode: r.Code,
			PlayerID: playerID,
			Token:    sess.ReconnectToken,
		}))
		c.broadcastRoom(r)
		return nil
	})
	if err != nil {
		return err
	}

	log.Info().Str("room", r.Code).Str("player", name).Str("playerId", playerID).Msg("✅ 玩家加入房间")
	return nil
}

// reconnect 凭令牌恢复身份，玩家在任意阶段都可以重连
func (c *Coordinator) reconnect(client types.ClientInterface, req protocol.JoinPayload) error {
	sess, ok := c.sessions.Resolve(req.Token, req.PlayerID)
	if !ok {
		return apperrors.ErrPlayerNotFound.WithMessage("重连令牌无效或已过期")
	}
	if req.RoomCode != "" && roomcode.Normalize(req.RoomCode) != sess.RoomCode {
		return apperrors.InvalidRequest("token does not belong to room " + req.RoomCode)
	}

	r, err := c.rooms.GetRoom(sess.RoomCode)
	if err != nil {
		c.sessions.DeleteSession(sess.PlayerID)
		return err
	}

	err = r.Do(func() error {
		p := r.State.Player(sess.PlayerID)
		if p == nil {
			return apperrors.PlayerNotFound(sess.PlayerID)
		}
		r.State.SetConnected(p.ID, true)
		c.sessions.SetOnline(p.ID)

		client.SetIdentity(p.ID, p.Name)
		client.SetRoom(r.Code)
		if old := r.Attach(p.ID, client); old != nil {
			old.SetRoom("")
			old.Close()
		}

		r.SendTo(p.ID, codec.MustNewMessage(protocol.MsgJoined, protocol.JoinedPayload{
			RoomCode:    r.Code,
			PlayerID:    p.ID,
			Token:       sess.ReconnectToken,
			Reconnected: true,
		}))
		c.broadcastRoom(r)
		c.sendPhaseState(r, p.ID)
		return nil
	})
	if err != nil {
		return err
	}

	log.Info().Str("room", r.Code).Str("playerId", sess.PlayerID).Msg("🔄 玩家重连成功")
	return nil
}

// Leave 主动离开房间，最后一人离开时解散房间
func (c *Coordinator) Leave(client types.ClientInterface) error {
	code := client.GetRoom()
	if code == "" {
		return apperrors.InvalidRequest("not in a room")
	}
	playerID := client.GetID()
	client.SetRoom("")

	r, err := c.rooms.GetRoom(code)
	if err != nil {
		return err
	}

	err = r.Do(func() error {
		if !r.State.RemovePlayer(playerID) {
			return apperrors.PlayerNotFound(playerID)
		}
		r.Detach(playerID, nil)
		c.sessions.DeleteSession(playerID)

		if len(r.State.Players) == 0 {
			return nil
		}
		c.broadcastRoom(r)
		c.checkEarlyAdvance(r)
		return nil
	})
	if err != nil {
		return err
	}

	log.Info().Str("room", code).Str("playerId", playerID).Msg("👋 玩家离开房间")
	if r.PlayerCount() == 0 {
		c.CloseRoom(code)
	}
	return nil
}

// Disconnect 连接断开：玩家保留在房间内，标记为离线
func (c *Coordinator) Disconnect(client types.ClientInterface) {
	code := client.GetRoom()
	if code == "" {
		return
	}
	r, err := c.rooms.GetRoom(code)
	if err != nil {
		return
	}
	playerID := client.GetID()

	_ = r.Do(func() error {
		// 已被新连接替换时不处理
		if !r.Detach(playerID, client) {
			return nil
		}
		if !r.State.SetConnected(playerID, false) {
			return nil
		}
		c.sessions.SetOffline(playerID)
		c.broadcastRoom(r)
		c.checkEarlyAdvance(r)
		return nil
	})
	log.Info().Str("room", code).Str("playerId", playerID).Msg("📴 玩家掉线")
}

// CloseRoom 解散房间并停止其计时器
func (c *Coordinator) CloseRoom(code string) bool {
	return c.rooms.DeleteRoom(code)
}

// resolve 定位客户端所在房间
func (c *Coordinator) resolve(client types.ClientInterface) (*room.Room, string, error) {
	code := client.GetRoom()
	if code == "" {
		return nil, "", apperrors.InvalidRequest("not in a room")
	}
	r, err := c.rooms.GetRoom(code)
	if err != nil {
		return nil, "", err
	}
	return r, client.GetID(), nil
}
