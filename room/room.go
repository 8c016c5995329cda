// room/room.go
package room

import (
	"slices"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/wfunc/rmcs/game"
	"github.com/wfunc/rmcs/logger"
	"github.com/wfunc/rmcs/models"
	"github.com/wfunc/rmcs/network"
	"github.com/wfunc/rmcs/state"
)

// MaxActivePlayers caps the seated players; later joiners are waitlisted.
const MaxActivePlayers = game.RoleCount

// Room 是游戏房间的核心结构. All round state is guarded by mu; a room
// serialises its own operations and never holds mu while calling out.
type Room struct {
	ID        string
	Name      string
	CreatedAt time.Time

	mu          sync.Mutex
	active      []*Player
	waitlist    []*Player
	round       *state.BaseStateMachine
	roundNumber int
	mantriID    string
	chorID      string
	guessedID   string
	lastActive  time.Time

	deps
}

func newRoom(id, name string, host *Player, d deps) *Room {
	now := d.clock()
	return &Room{
		ID:         id,
		Name:       name,
		CreatedAt:  now,
		active:     []*Player{host},
		waitlist:   []*Player{},
		round:      state.NewRoundMachine(),
		lastActive: now,
		deps:       d,
	}
}

// MaxNameLength caps player and room names, in runes.
const MaxNameLength = 64

func cleanName(name string) (string, error) {
	name = strings.TrimSpace(name)
	switch {
	case name == "":
		return "", errBlankName
	case utf8.RuneCountInString(name) > MaxNameLength:
		return "", errNameTooLong
	}
	return name, nil
}

// touch records activity for idle expiry. Callers hold mu.
func (r *Room) touch() {
	r.lastActive = r.clock()
}

func (r *Room) LastActive() time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastActive
}

func (r *Room) Phase() state.Phase {
	return r.round.Current()
}

func (r *Room) RoundNumber() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.roundNumber
}

func (r *Room) findActive(playerID string) (int, *Player) {
	for i, p := range r.active {
		if p.ID == playerID {
			return i, p
		}
	}
	return -1, nil
}

func (r *Room) findWaitlisted(playerID string) (int, *Player) {
	for i, p := range r.waitlist {
		if p.ID == playerID {
			return i, p
		}
	}
	return -1, nil
}

func (r *Room) playersView() PlayersView {
	players := make([]PlayerBrief, 0, len(r.active))
	for _, p := range r.active {
		players = append(players, p.brief())
	}
	return PlayersView{Players: players, WaitlistCount: len(r.waitlist)}
}

// Join admits names in order: seats are filled up to MaxActivePlayers and
// everyone after that goes to the waitlist. Either every name is admitted
// or, if one is blank or too long, none is.
func (r *Room) Join(names []string) (JoinResult, error) {
	cleaned := make([]string, 0, len(names))
	for _, n := range names {
		name, err := cleanName(n)
		if err != nil {
			return JoinResult{}, err
		}
		cleaned = append(cleaned, name)
	}

	r.mu.Lock()
	res := JoinResult{Added: []PlayerBrief{}, Waitlisted: []PlayerBrief{}}
	for _, name := range cleaned {
		p := newPlayer(name)
		if len(r.active) < MaxActivePlayers {
			r.active = append(r.active, p)
			res.Added = append(res.Added, p.brief())
		} else {
			r.waitlist = append(r.waitlist, p)
			res.Waitlisted = append(res.Waitlisted, p.brief())
		}
	}
	r.touch()
	event := playersChangedEvent{RoomID: r.ID, PlayersView: r.playersView()}
	r.mu.Unlock()

	if len(cleaned) > 0 {
		r.emit(network.MsgTypePlayersChanged, event)
	}
	return res, nil
}

// Players lists the seated players and the waitlist length.
func (r *Room) Players() PlayersView {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.touch()
	return r.playersView()
}

// AssignRoles deals a fresh random permutation of the four roles to the
// seated players in seat order and opens the next round. Scores are kept.
func (r *Room) AssignRoles() (int, error) {
	r.mu.Lock()
	if len(r.active) != MaxActivePlayers {
		r.mu.Unlock()
		return 0, errNeedFourPlayers
	}
	if !r.round.Can(state.EventAssignRoles) {
		r.mu.Unlock()
		return 0, errGuessPending
	}

	deal := game.Deal(r.shuffler)
	seats := deal.Seats()
	for i, p := range r.active {
		p.Role = seats[i]
	}
	r.mantriID = r.active[deal.Holder(game.Mantri)].ID
	r.chorID = r.active[deal.Holder(game.Chor)].ID
	r.guessedID = ""
	if err := r.round.Fire(state.EventAssignRoles); err != nil {
		r.mu.Unlock()
		return 0, newError(ErrInvalidState, err.Error())
	}
	r.roundNumber++
	r.touch()
	round := r.roundNumber
	r.mu.Unlock()

	r.observer.RoundStarted()
	logger.Log.Infof("Room %s: roles assigned for round %d", r.ID, round)
	r.emit(network.MsgTypeRoundStarted, roundStartedEvent{RoomID: r.ID, Round: round})
	return round, nil
}

// ViewRole returns a seated player's own role, game.NoRole before the first
// deal. Waitlisted players are not at the table and are not found.
func (r *Room) ViewRole(playerID string) (game.Role, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, p := r.findActive(playerID)
	if p == nil {
		return game.NoRole, errPlayerNotFound
	}
	r.touch()
	return p.Role, nil
}

// SubmitGuess resolves the round: only the Mantri may guess, once per
// round, and every seated player's score grows by game.Delta. Any id other
// than the Chor's, seated or not, is a miss.
func (r *Room) SubmitGuess(guesserID, guessedID string) (GuessResult, error) {
	r.mu.Lock()
	switch r.round.Current() {
	case state.PhaseNoRound:
		r.mu.Unlock()
		return GuessResult{}, errRolesNotAssigned
	case state.PhaseGuessResolved:
		r.mu.Unlock()
		return GuessResult{}, errGuessResolved
	}
	if guesserID != r.mantriID {
		r.mu.Unlock()
		return GuessResult{}, errNotMantri
	}
	if err := r.round.Fire(state.EventSubmitGuess); err != nil {
		r.mu.Unlock()
		return GuessResult{}, newError(ErrInvalidState, err.Error())
	}

	r.guessedID = guessedID
	correct := guessedID == r.chorID

	now := r.clock()
	rec := models.RoundRecord{
		RoomID:          r.ID,
		RoomName:        r.Name,
		Round:           r.roundNumber,
		MantriID:        r.mantriID,
		ChorID:          r.chorID,
		GuessedPlayerID: guessedID,
		Correct:         correct,
		ResolvedAt:      now,
	}
	for _, p := range r.active {
		delta := game.Delta(p.Role, correct)
		p.Score += delta
		rec.Players = append(rec.Players, models.PlayerOutcome{
			PlayerID: p.ID,
			Name:     p.Name,
			Role:     p.Role.String(),
			Delta:    delta,
			Score:    p.Score,
		})
	}
	r.lastActive = now

	res := GuessResult{Correct: correct, Result: resultLabel(correct), ActualChorID: r.chorID}
	event := guessResolvedEvent{
		RoomID:          r.ID,
		Round:           r.roundNumber,
		Result:          res.Result,
		ActualChorID:    r.chorID,
		GuessedPlayerID: guessedID,
		Players:         r.resultPlayers(),
	}
	r.mu.Unlock()

	r.observer.GuessResolved(correct)
	logger.Log.Infof("Room %s: round %d guess %s", r.ID, rec.Round, res.Result)
	if err := r.recorder.Record(rec); err != nil {
		logger.Log.Errorf("Room %s: failed to archive round %d: %v", r.ID, rec.Round, err)
	}
	r.emit(network.MsgTypeGuessResolved, event)
	return res, nil
}

func (r *Room) resultPlayers() []ResultPlayer {
	players := make([]ResultPlayer, 0, len(r.active))
	for _, p := range r.active {
		players = append(players, ResultPlayer{
			ID:    p.ID,
			Name:  p.Name,
			Role:  roleLabel(p.Role),
			Score: p.Score,
		})
	}
	return players
}

// Result reveals the resolved round. It is only available once the Mantri
// has guessed.
func (r *Room) Result() (ResultView, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch r.round.Current() {
	case state.PhaseNoRound:
		return ResultView{}, errRolesNotAssigned
	case state.PhaseRolesAssigned:
		return ResultView{}, errGuessPending
	}
	r.touch()
	return ResultView{Round: r.roundNumber, Players: r.resultPlayers()}, nil
}

// Leaderboard orders seated players by score, highest first. Equal scores
// keep seat order.
func (r *Room) Leaderboard() []Standing {
	r.mu.Lock()
	standings := make([]Standing, 0, len(r.active))
	for _, p := range r.active {
		standings = append(standings, Standing{ID: p.ID, Name: p.Name, Score: p.Score})
	}
	r.touch()
	r.mu.Unlock()

	slices.SortStableFunc(standings, func(a, b Standing) int {
		return b.Score - a.Score
	})
	return standings
}

// Leave removes a player. A waitlisted player can always leave. A seated
// player can leave only when no guess is pending; the first waitlisted
// player takes the free seat and the round state is cleared so the next
// deal starts from a clean table.
func (r *Room) Leave(playerID string) (LeaveResult, error) {
	r.mu.Lock()

	if i, p := r.findWaitlisted(playerID); p != nil {
		r.waitlist = slices.Delete(r.waitlist, i, i+1)
		r.touch()
		event := playersChangedEvent{RoomID: r.ID, PlayersView: r.playersView()}
		r.mu.Unlock()

		r.emit(network.MsgTypePlayerLeft, playerLeftEvent{RoomID: r.ID, PlayerID: p.ID})
		r.emit(network.MsgTypePlayersChanged, event)
		return LeaveResult{Removed: p.brief()}, nil
	}

	i, p := r.findActive(playerID)
	if p == nil {
		r.mu.Unlock()
		return LeaveResult{}, errPlayerNotFound
	}
	if !r.round.Can(state.EventReset) {
		r.mu.Unlock()
		return LeaveResult{}, errRoundInProgress
	}

	r.active = slices.Delete(r.active, i, i+1)
	res := LeaveResult{Removed: p.brief()}
	if len(r.waitlist) > 0 {
		next := r.waitlist[0]
		r.waitlist = r.waitlist[1:]
		r.active = append(r.active, next)
		promoted := next.brief()
		res.Promoted = &promoted
	}

	for _, seated := range r.active {
		seated.Role = game.NoRole
	}
	r.mantriID, r.chorID, r.guessedID = "", "", ""
	if err := r.round.Fire(state.EventReset); err != nil {
		logger.Log.Errorf("Room %s: reset after leave: %v", r.ID, err)
	}
	r.touch()
	event := playersChangedEvent{RoomID: r.ID, PlayersView: r.playersView()}
	r.mu.Unlock()

	left := playerLeftEvent{RoomID: r.ID, PlayerID: p.ID}
	if res.Promoted != nil {
		left.PromotedID = res.Promoted.ID
	}
	r.emit(network.MsgTypePlayerLeft, left)
	r.emit(network.MsgTypePlayersChanged, event)
	return res, nil
}

// roomCloser is implemented by broadcasters that hold per-room watchers.
type roomCloser interface {
	CloseRoom(roomID string)
}

// close notifies watchers that the room is gone.
func (r *Room) close() {
	r.emit(network.MsgTypeRoomClosed, struct {
		RoomID string `json:"roomId"`
	}{r.ID})
	if c, ok := r.broadcaster.(roomCloser); ok {
		c.CloseRoom(r.ID)
	}
}
