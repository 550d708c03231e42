package fibbing

import (
	"fmt"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/palemoky/fibbing-it/internal/apperrors"
	"github.com/palemoky/fibbing-it/internal/config"
	"github.com/palemoky/fibbing-it/internal/game"
	"github.com/palemoky/fibbing-it/internal/game/prompt"
	"github.com/palemoky/fibbing-it/internal/game/rng"
)

// GameType 游戏类型标识
const GameType = "fibbing-it"

const (
	maxAnswerLength = 80
	maxRoundsLimit  = 20
	bluffIDPrefix   = "BLUFF::"
)

// Config 玩法参数
type Config struct {
	LobbySeconds   int
	PromptSeconds  int
	ChooseSeconds  int
	ScoringSeconds int
	CorrectPoints  int
	FooledPoints   int
	MinPlayers     int
	MaxRounds      int
	// CountDisconnectedVotes 结算时是否计入已断线玩家的投票
	CountDisconnectedVotes bool
}

// ConfigFrom 从服务配置构建玩法参数
func ConfigFrom(cfg *config.Config) Config {
	return Config{
		LobbySeconds:           cfg.Fibbing.LobbySeconds,
		PromptSeconds:          cfg.Fibbing.PromptSeconds,
		ChooseSeconds:          cfg.Fibbing.ChooseSeconds,
		ScoringSeconds:         cfg.Fibbing.ScoringSeconds,
		CorrectPoints:          cfg.Fibbing.CorrectPoints,
		FooledPoints:           cfg.Fibbing.FooledPoints,
		MinPlayers:             cfg.Game.MinPlayers,
		MaxRounds:              cfg.Game.MaxRounds,
		CountDisconnectedVotes: cfg.Fibbing.CountDisconnectedVotes,
	}
}

// Engine Fibbing It 规则
// lobby → prompt → choose → scoring → (prompt | over)
type Engine struct {
	cfg  Config
	bank *prompt.Bank
	rng  *rng.Source
}

var _ game.Engine = (*Engine)(nil)

// New 创建引擎
func New(cfg Config, bank *prompt.Bank, src *rng.Source) *Engine {
	if cfg.MinPlayers <= 0 {
		cfg.MinPlayers = 2
	}
	if cfg.MaxRounds <= 0 {
		cfg.MaxRounds = 5
	}
	return &Engine{cfg: cfg, bank: bank, rng: src}
}

func (e *Engine) Type() string { return GameType }

// Initialize 构建 lobby 初始状态，第一个玩家为房主
func (e *Engine) Initialize(players []*game.Player) *game.State {
	st := &game.State{
		Phase:     game.PhaseLobby,
		Players:   make([]*game.Player, 0, len(players)),
		MaxRounds: e.cfg.MaxRounds,
		TimeLeft:  e.PhaseDuration(game.PhaseLobby),
	}
	for _, p := range players {
		cp := *p
		cp.Score = 0
		st.AddPlayer(&cp)
	}
	return st
}

// PhaseDuration 阶段时长（秒）
func (e *Engine) PhaseDuration(p game.Phase) int {
	switch p {
	case game.PhaseLobby:
		return e.cfg.LobbySeconds
	case game.PhasePrompt:
		return e.cfg.PromptSeconds
	case game.PhaseChoose:
		return e.cfg.ChooseSeconds
	case game.PhaseScoring:
		return e.cfg.ScoringSeconds
	}
	return 0
}

// NextPhase 阶段后继；scoring 的后继为 prompt，是否结束由 AdvancePhase 按轮数决定
func (e *Engine) NextPhase(p game.Phase) game.Phase {
	switch p {
	case game.PhaseLobby:
		return game.PhasePrompt
	case game.PhasePrompt:
		return game.PhaseChoose
	case game.PhaseChoose:
		return game.PhaseScoring
	case game.PhaseScoring:
		return game.PhasePrompt
	}
	return game.PhaseOver
}

func (e *Engine) CanAdvancePhase(state *game.State) bool {
	return state.Phase != game.PhaseOver
}

func (e *Engine) IsGameOver(state *game.State) bool {
	return state.Phase == game.PhaseOver
}

// ValidActions 玩家在当前阶段可执行的动作
func (e *Engine) ValidActions(state *game.State, playerID string) []game.ActionKind {
	p := state.Player(playerID)
	if p == nil {
		return nil
	}
	switch state.Phase {
	case game.PhaseLobby:
		if state.IsHost(playerID) {
			return []game.ActionKind{game.ActionStartGame}
		}
	case game.PhasePrompt:
		if _, done := state.Current.BluffBy(playerID); p.Connected && !done {
			return []game.ActionKind{game.ActionSubmitAnswer}
		}
	case game.PhaseChoose:
		if p.Connected {
			return []game.ActionKind{game.ActionSubmitVote}
		}
	case game.PhaseOver:
		if state.IsHost(playerID) {
			return []game.ActionKind{game.ActionRestart}
		}
	}
	return nil
}

// ProcessAction 校验并应用动作，无效动作不修改 state
func (e *Engine) ProcessAction(state *game.State, action game.Action) game.Result {
	switch a := action.(type) {
	case game.StartGame:
		return e.startGame(state, a)
	case game.SubmitAnswer:
		return e.submitAnswer(state, a)
	case game.SubmitVote:
		return e.submitVote(state, a)
	case game.Restart:
		return e.restart(state, a)
	}
	return reject(state, apperrors.InvalidAction(fmt.Sprintf("unsupported action %T", action)))
}

func reject(state *game.State, err error) game.Result {
	return game.Result{State: state, Valid: false, Err: err}
}

func wrongPhase(kind game.ActionKind, phase game.Phase) error {
	return apperrors.InvalidAction(fmt.Sprintf("%s not allowed in phase %s", kind, phase))
}

func (e *Engine) startGame(state *game.State, a game.StartGame) game.Result {
	if state.Phase != game.PhaseLobby {
		return reject(state, apperrors.ErrGameAlreadyStarted)
	}
	if state.Player(a.By) == nil {
		return reject(state, apperrors.PlayerNotFound(a.By))
	}
	if !state.IsHost(a.By) {
		return reject(state, apperrors.InvalidAction("only the host can start the game"))
	}
	if n := state.ConnectedCount(); n < e.cfg.MinPlayers {
		return reject(state, apperrors.InsufficientPlayers(n, e.cfg.MinPlayers))
	}

	next := state.Clone()
	next.MaxRounds = e.cfg.MaxRounds
	if a.MaxRounds > 0 {
		next.MaxRounds = min(a.MaxRounds, maxRoundsLimit)
	}
	next.Round = 0
	next.UsedPromptIDs = nil
	for _, p := range next.Players {
		p.Score = 0
	}

	next, events := e.startRound(next)
	return game.Result{State: next, Events: events, Valid: true}
}

func (e *Engine) submitAnswer(state *game.State, a game.SubmitAnswer) game.Result {
	if state.Phase != game.PhasePrompt || state.Current == nil {
		return reject(state, wrongPhase(a.Kind(), state.Phase))
	}
	p := state.Player(a.By)
	if p == nil {
		return reject(state, apperrors.PlayerNotFound(a.By))
	}
	if !p.Connected {
		return reject(state, apperrors.InvalidAction("player is disconnected"))
	}
	if _, done := state.Current.BluffBy(a.By); done {
		return reject(state, apperrors.InvalidAction("answer already submitted"))
	}

	text := strings.TrimSpace(a.Text)
	switch {
	case text == "":
		return reject(state, apperrors.InvalidAction("answer is empty"))
	case utf8.RuneCountInString(text) > maxAnswerLength:
		return reject(state, apperrors.InvalidAction("answer is too long"))
	case normalize(text) == normalize(state.Current.Answer):
		return reject(state, apperrors.InvalidAction("answer matches the truth"))
	}

	next := state.Clone()
	next.Current.Bluffs = append(next.Current.Bluffs, game.Bluff{ID: uuid.NewString(), By: a.By, Text: text})

	count := 0
	for _, pl := range next.ConnectedPlayers() {
		if _, ok := next.Current.BluffBy(pl.ID); ok {
			count++
		}
	}
	return game.Result{State: next, Events: []game.Event{submitted(a.By, next, count)}, Valid: true}
}

func (e *Engine) submitVote(state *game.State, a game.SubmitVote) game.Result {
	if state.Phase != game.PhaseChoose || state.Current == nil {
		return reject(state, wrongPhase(a.Kind(), state.Phase))
	}
	p := state.Player(a.By)
	if p == nil {
		return reject(state, apperrors.PlayerNotFound(a.By))
	}
	if !p.Connected {
		return reject(state, apperrors.InvalidAction("player is disconnected"))
	}
	choice, ok := state.Current.ChoiceByRef(a.ChoiceID)
	if !ok {
		return reject(state, apperrors.InvalidAction("unknown choice"))
	}
	if choice.AuthoredBy(a.By) {
		return reject(state, apperrors.InvalidAction("cannot vote for your own answer"))
	}

	next := state.Clone()
	votes := next.Current.Votes
	if i := slices.IndexFunc(votes, func(v game.Vote) bool { return v.Voter == a.By }); i >= 0 {
		votes[i].ChoiceID = choice.ID
	} else {
		next.Current.Votes = append(votes, game.Vote{Voter: a.By, ChoiceID: choice.ID})
	}

	count := 0
	for _, pl := range next.ConnectedPlayers() {
		if _, ok := next.Current.VoteBy(pl.ID); ok {
			count++
		}
	}
	return game.Result{State: next, Events: []game.Event{submitted(a.By, next, count)}, Valid: true}
}

func (e *Engine) restart(state *game.State, a game.Restart) game.Result {
	if state.Phase != game.PhaseOver {
		return reject(state, wrongPhase(a.Kind(), state.Phase))
	}
	if state.Player(a.By) == nil {
		return reject(state, apperrors.PlayerNotFound(a.By))
	}
	if !state.IsHost(a.By) {
		return reject(state, apperrors.InvalidAction("only the host can restart the game"))
	}

	next := e.Initialize(state.Players)
	next.HostID = state.HostID
	return game.Result{State: next, Valid: true}
}

func submitted(by string, st *game.State, count int) game.Event {
	return game.Event{Type: game.EventSubmitted, Payload: game.SubmittedEvent{
		PlayerID: by,
		Phase:    st.Phase,
		Count:    count,
		Total:    st.ConnectedCount(),
	}}
}

// AllSubmitted 所有在线玩家是否都已提交；无在线玩家时返回 false
func (e *Engine) AllSubmitted(state *game.State) bool {
	if state.Current == nil {
		return false
	}
	connected := state.ConnectedPlayers()
	if len(connected) == 0 {
		return false
	}
	for _, p := range connected {
		switch state.Phase {
		case game.PhasePrompt:
			if _, ok := state.Current.BluffBy(p.ID); !ok {
				return false
			}
		case game.PhaseChoose:
			if _, ok := state.Current.VoteBy(p.ID); !ok {
				return false
			}
		default:
			return false
		}
	}
	return true
}

// AdvancePhase 推进阶段
func (e *Engine) AdvancePhase(state *game.State) (*game.State, []game.Event) {
	if !e.CanAdvancePhase(state) {
		return state, nil
	}

	next := state.Clone()
	switch state.Phase {
	case game.PhaseLobby:
		return e.startRound(next)
	case game.PhasePrompt:
		return e.enterChoose(next)
	case game.PhaseChoose:
		return e.enterScoring(next)
	case game.PhaseScoring:
		if next.Round >= next.MaxRounds {
			return e.finish(next)
		}
		return e.startRound(next)
	}
	return state, nil
}

// startRound 进入 prompt；题库耗尽时直接结束
func (e *Engine) startRound(st *game.State) (*game.State, []game.Event) {
	p, ok := e.bank.Pick(st.UsedPromptIDs, e.rng)
	if !ok {
		return e.finish(st)
	}

	st.Round++
	st.Phase = game.PhasePrompt
	st.TimeLeft = e.PhaseDuration(game.PhasePrompt)
	st.UsedPromptIDs = append(st.UsedPromptIDs, p.ID)
	st.Current = &game.RoundState{
		RoundNumber: st.Round,
		PromptID:    p.ID,
		Prompt:      p.Question,
		Answer:      p.Answer,
		Phase:       game.PhasePrompt,
		TimeLeft:    st.TimeLeft,
	}

	return st, []game.Event{{Type: game.EventPrompt, Payload: game.PromptEvent{
		Round:     st.Round,
		MaxRounds: st.MaxRounds,
		PromptID:  p.ID,
		Prompt:    p.Question,
	}}}
}

func (e *Engine) enterChoose(st *game.State) (*game.State, []game.Event) {
	st.Current.Choices = e.buildChoices(st.Current)
	e.setPhase(st, game.PhaseChoose)

	return st, []game.Event{{Type: game.EventChoices, Payload: game.ChoicesEvent{
		Round:   st.Round,
		Choices: slices.Clone(st.Current.Choices),
	}}}
}

// buildChoices 真相 + 去重后的谎言，随机排序
// 每个选项带独立的随机 ref，客户端无法从 id 推断真相
func (e *Engine) buildChoices(r *game.RoundState) []game.Choice {
	choices := []game.Choice{{
		ID:      r.TruthChoiceID(),
		Ref:     uuid.NewString(),
		Text:    r.Answer,
		IsTruth: true,
	}}
	byText := make(map[string]int, len(r.Bluffs))
	for _, b := range r.Bluffs {
		key := normalize(b.Text)
		if idx, ok := byText[key]; ok {
			choices[idx].Authors = append(choices[idx].Authors, b.By)
			continue
		}
		byText[key] = len(choices)
		choices = append(choices, game.Choice{
			ID:      bluffIDPrefix + b.ID,
			Ref:     uuid.NewString(),
			Text:    b.Text,
			Authors: []string{b.By},
		})
	}
	rng.Shuffle(e.rng, choices)
	return choices
}

func (e *Engine) enterScoring(st *game.State) (*game.State, []game.Event) {
	r := st.Current
	if !r.Scored {
		eligible := func(id string) bool {
			p := st.Player(id)
			return p != nil && (p.Connected || e.cfg.CountDisconnectedVotes)
		}
		r.Deltas = Score(r, eligible, e.cfg.CorrectPoints, e.cfg.FooledPoints)
		for id, pts := range r.Deltas {
			if p := st.Player(id); p != nil {
				p.Score += pts
			}
		}
		r.Scored = true
	}
	e.setPhase(st, game.PhaseScoring)

	deltas := make(map[string]int, len(r.Deltas))
	for k, v := range r.Deltas {
		deltas[k] = v
	}
	return st, []game.Event{{Type: game.EventScores, Payload: game.ScoresEvent{
		Round:     st.Clone().Current,
		Deltas:    deltas,
		Standings: e.Winners(st),
	}}}
}

func (e *Engine) finish(st *game.State) (*game.State, []game.Event) {
	st.Phase = game.PhaseOver
	st.Current = nil
	st.TimeLeft = 0

	standings := e.Winners(st)
	var winners []game.Player
	for _, p := range standings {
		if p.Score != standings[0].Score {
			break
		}
		winners = append(winners, p)
	}
	return st, []game.Event{{Type: game.EventGameOver, Payload: game.GameOverEvent{
		Winners:   winners,
		Standings: standings,
	}}}
}

func (e *Engine) setPhase(st *game.State, p game.Phase) {
	st.Phase = p
	st.TimeLeft = e.PhaseDuration(p)
	if st.Current != nil {
		st.Current.Phase = p
		st.Current.TimeLeft = st.TimeLeft
	}
}

// Winners 按分数降序，同分保持加入顺序
func (e *Engine) Winners(state *game.State) []game.Player {
	out := make([]game.Player, len(state.Players))
	for i, p := range state.Players {
		out[i] = *p
	}
	slices.SortStableFunc(out, func(a, b game.Player) int {
		return b.Score - a.Score
	})
	return out
}

// UpdateTimer 扣减剩余时间，最小为 0
func (e *Engine) UpdateTimer(state *game.State, deltaSeconds int) *game.State {
	next := state.Clone()
	next.TimeLeft = max(0, next.TimeLeft-deltaSeconds)
	if next.Current != nil {
		next.Current.TimeLeft = next.TimeLeft
	}
	return next
}

// normalize 比较答案时忽略大小写与多余空白
func normalize(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}
