package game

import "slices"

// Player 房间内玩家
// 断线只改变 Connected，仅在主动离开或房间销毁时移除
type Player struct {
	ID        string
	Name      string
	Avatar    string
	Score     int
	Connected bool
}

// Bluff 玩家提交的谎言
type Bluff struct {
	ID   string
	By   string
	Text string
}

// Choice 投票选项，去重后的谎言可能有多个作者
// ID 仅在服务端使用（TRUE::/BLUFF:: 前缀），客户端只能看到每轮随机生成的 Ref
type Choice struct {
	ID      string
	Ref     string
	Text    string
	Authors []string
	IsTruth bool
}

// AuthoredBy 是否由该玩家编写
func (c Choice) AuthoredBy(playerID string) bool {
	return slices.Contains(c.Authors, playerID)
}

// Vote 投票
type Vote struct {
	Voter    string
	ChoiceID string
}

// RoundState 当前回合数据，进入 prompt 时创建，回合结束时丢弃
type RoundState struct {
	RoundNumber int
	PromptID    string
	Prompt      string
	Answer      string
	Bluffs      []Bluff
	Choices     []Choice
	Votes       []Vote
	Phase       Phase
	TimeLeft    int
	Scored      bool
	Deltas      map[string]int // 本轮得分，进入 scoring 时计算
}

// BluffBy 查找玩家的谎言
func (r *RoundState) BluffBy(playerID string) (Bluff, bool) {
	for _, b := range r.Bluffs {
		if b.By == playerID {
			return b, true
		}
	}
	return Bluff{}, false
}

// VoteBy 查找玩家的投票
func (r *RoundState) VoteBy(playerID string) (Vote, bool) {
	for _, v := range r.Votes {
		if v.Voter == playerID {
			return v, true
		}
	}
	return Vote{}, false
}

// Choice 按 id 查找选项
func (r *RoundState) Choice(id string) (Choice, bool) {
	for _, c := range r.Choices {
		if c.ID == id {
			return c, true
		}
	}
	return Choice{}, false
}

// ChoiceByRef 按对外 ref 查找选项
func (r *RoundState) ChoiceByRef(ref string) (Choice, bool) {
	if ref == "" {
		return Choice{}, false
	}
	for _, c := range r.Choices {
		if c.Ref == ref {
			return c, true
		}
	}
	return Choice{}, false
}

// TruthChoice 真相选项，进入 choose 之前不存在
func (r *RoundState) TruthChoice() (Choice, bool) {
	for _, c := range r.Choices {
		if c.IsTruth {
			return c, true
		}
	}
	return Choice{}, false
}

// TruthChoiceID 真相选项 id
func (r *RoundState) TruthChoiceID() string {
	return TruthChoiceID(r.PromptID)
}

// TruthChoiceID 真相选项 id 格式 TRUE::<promptId>
func TruthChoiceID(promptID string) string {
	return "TRUE::" + promptID
}

func (r *RoundState) clone() *RoundState {
	if r == nil {
		return nil
	}
	cp := *r
	cp.Bluffs = slices.Clone(r.Bluffs)
	cp.Votes = slices.Clone(r.Votes)
	cp.Choices = make([]Choice, len(r.Choices))
	for i, c := range r.Choices {
		c.Authors = slices.Clone(c.Authors)
		cp.Choices[i] = c
	}
	if r.Deltas != nil {
		cp.Deltas = make(map[string]int, len(r.Deltas))
		for k, v := range r.Deltas {
			cp.Deltas[k] = v
		}
	}
	return &cp
}

// State 一局游戏的完整状态
// Players 保持加入顺序，第一个玩家为房主
type State struct {
	Phase         Phase
	Players       []*Player
	HostID        string
	Round         int
	MaxRounds     int
	TimeLeft      int
	Current       *RoundState // 仅 prompt / choose / scoring 阶段存在
	UsedPromptIDs []string
}

// Clone 深拷贝
func (s *State) Clone() *State {
	cp := *s
	cp.Players = make([]*Player, len(s.Players))
	for i, p := range s.Players {
		pp := *p
		cp.Players[i] = &pp
	}
	cp.Current = s.Current.clone()
	cp.UsedPromptIDs = slices.Clone(s.UsedPromptIDs)
	return &cp
}

// Player 按 id 查找玩家
func (s *State) Player(id string) *Player {
	for _, p := range s.Players {
		if p.ID == id {
			return p
		}
	}
	return nil
}

// IsHost 是否为房主
func (s *State) IsHost(playerID string) bool {
	return playerID != "" && s.HostID == playerID
}

// ConnectedPlayers 在线玩家（保持加入顺序）
func (s *State) ConnectedPlayers() []*Player {
	out := make([]*Player, 0, len(s.Players))
	for _, p := range s.Players {
		if p.Connected {
			out = append(out, p)
		}
	}
	return out
}

// ConnectedCount 在线人数
func (s *State) ConnectedCount() int {
	n := 0
	for _, p := range s.Players {
		if p.Connected {
			n++
		}
	}
	return n
}

// AddPlayer 加入玩家，第一个加入者成为房主
func (s *State) AddPlayer(p *Player) {
	s.Players = append(s.Players, p)
	if s.HostID == "" {
		s.HostID = p.ID
	}
}

// RemovePlayer 移除玩家，房主离开时转交给下一个在线玩家
func (s *State) RemovePlayer(id string) bool {
	idx := slices.IndexFunc(s.Players, func(p *Player) bool { return p.ID == id })
	if idx < 0 {
		return false
	}
	s.Players = slices.Delete(s.Players, idx, idx+1)
	if s.HostID == id {
		s.reassignHost()
	}
	return true
}

// SetConnected 更新在线状态；房主断线且有其他在线玩家时转交房主
func (s *State) SetConnected(id string, connected bool) bool {
	p := s.Player(id)
	if p == nil {
		return false
	}
	p.Connected = connected
	if !connected && s.HostID == id {
		s.reassignHost()
	}
	if connected && s.HostID == "" {
		s.HostID = id
	}
	return true
}

func (s *State) reassignHost() {
	for _, p := range s.Players {
		if p.Connected && p.ID != s.HostID {
			s.HostID = p.ID
			return
		}
	}
	// 没有其他在线玩家时保留原房主（若仍在房间内）
	if s.Player(s.HostID) == nil {
		s.HostID = ""
		if len(s.Players) > 0 {
			s.HostID = s.Players[0].ID
		}
	}
}
