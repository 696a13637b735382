package game

import (
	"math/rand"
	"time"

	"eventease/shared/logger"
)

const countdownSeconds = 3

// Room is one isolated game session. A single goroutine (GameLoop) owns all
// of its state; everything else talks to it through channels, so there is no
// locking anywhere below this type.
type Room struct {
	id         string
	phase      RoomPhase
	players    []*Player // insertion order decides host succession
	spectators []*Player
	variant    variant
	lobby      Lobby
	tickers    PeriodicTickerFactory
	rng        *rand.Rand
	createdAt  time.Time
	countdown  int

	inbox        chan commandEnvelope
	joinRequests chan roomJoinRequest
	removals     chan string
	notices      chan ServerMessage
	pings        chan struct{}
	closed       chan struct{}

	// Timer-handle table: at most one live handle per kind. Entering a
	// phase always cancels the previous handle of the kind it uses.
	simTicks  <-chan time.Time
	stopSim   func()
	secTicks  <-chan time.Time
	stopSec   func()
	breakTick <-chan time.Time
	stopBreak func()
}

func NewRoom(host *Player, kind string, opts VariantOptions, lobby Lobby, tickers PeriodicTickerFactory) (*Room, error) {
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	v, err := newVariant(kind, opts, rng)
	if err != nil {
		return nil, err
	}

	r := &Room{
		phase:        PHASE_LOBBY,
		variant:      v,
		lobby:        lobby,
		tickers:      tickers,
		rng:          rng,
		createdAt:    time.Now(),
		inbox:        make(chan commandEnvelope, 1024),
		joinRequests: make(chan roomJoinRequest),
		removals:     make(chan string, 64),
		notices:      make(chan ServerMessage, 16),
		pings:        make(chan struct{}, 1),
		closed:       make(chan struct{}),
	}

	host.isHost = true
	r.players = append(r.players, host)
	v.assignSeat(r, host)
	host.attach(r)
	return r, nil
}

func (r *Room) SetId(id string) {
	r.id = id
}

// RequestJoin is called from the lobby actor. A room that is already
// tearing down answers not-found instead of blocking the lobby forever.
func (r *Room) RequestJoin(req roomJoinRequest) {
	select {
	case r.joinRequests <- req:
	case <-r.closed:
		req.errChan <- ErrRoomNotFound
	}
}

// RequestNotice injects an out-of-band broadcast (the device-report
// piggyback). Fire-and-forget: a full queue drops the notice.
func (r *Room) RequestNotice(msg ServerMessage) {
	select {
	case r.notices <- msg:
	case <-r.closed:
	default:
	}
}

// RequestPing asks the room to ping its connected participants.
func (r *Room) RequestPing() {
	select {
	case r.pings <- struct{}{}:
	default:
	}
}

// GameLoop runs the room until its last human leaves. A panic in one room
// tears that room down without touching the rest of the process.
func (r *Room) GameLoop() {
	defer func() {
		if err := recover(); err != nil {
			logger.Criticalf("[Room %s] panic in game loop: %v", r.id, err)
		}
		r.teardown()
	}()

	r.broadcast(r.variant.lobbyState(r))

	for {
		select {
		case env := <-r.inbox:
			if done := r.handleCommand(env, time.Now()); done {
				return
			}
		case req := <-r.joinRequests:
			r.handleJoinRequest(req)
		case connId := <-r.removals:
			if done := r.handleRemoval(connId, time.Now()); done {
				return
			}
		case now := <-r.simTicks:
			r.handleSimTick(now)
		case now := <-r.secTicks:
			r.handleSecond(now)
		case now := <-r.breakTick:
			r.handleBreak(now)
		case msg := <-r.notices:
			r.broadcast(msg)
		case <-r.pings:
			r.pingPlayers()
		}
	}
}

func (r *Room) teardown() {
	close(r.closed)
	r.stopSimTicker()
	r.stopSecondTicker()
	r.stopBreakTimer()
	for _, p := range r.players {
		r.lobby.NotifyLeft(p.id)
		p.release()
	}
	for _, s := range r.spectators {
		s.release()
	}
	r.players = nil
	r.spectators = nil
	r.lobby.RemoveRoom(r.id)
	logger.Infof("[Room %s] destroyed", r.id)
}

// --- timer-handle table ---

func (r *Room) startSimTicker() {
	r.stopSimTicker()
	period := r.variant.tickPeriod()
	if period == 0 {
		return
	}
	r.simTicks, r.stopSim = r.tickers.Create(period)
}

func (r *Room) stopSimTicker() {
	if r.stopSim != nil {
		r.stopSim()
		r.stopSim = nil
		r.simTicks = nil
	}
}

func (r *Room) startSecondTicker() {
	r.stopSecondTicker()
	r.secTicks, r.stopSec = r.tickers.Create(time.Second)
}

func (r *Room) stopSecondTicker() {
	if r.stopSec != nil {
		r.stopSec()
		r.stopSec = nil
		r.secTicks = nil
	}
}

func (r *Room) startBreakTimer(delay time.Duration) {
	r.stopBreakTimer()
	r.breakTick, r.stopBreak = r.tickers.Create(delay)
}

func (r *Room) stopBreakTimer() {
	if r.stopBreak != nil {
		r.stopBreak()
		r.stopBreak = nil
		r.breakTick = nil
	}
}

// --- tick handlers ---

// handleSimTick drives one simulation step. The phase check is the guard
// against a stale ticker firing after a transition already happened.
func (r *Room) handleSimTick(now time.Time) {
	if r.phase != PHASE_PLAYING {
		r.stopSimTicker()
		return
	}
	r.variant.step(r, now)
	if r.phase == PHASE_PLAYING {
		r.broadcast(ServerMessage{Type: "tick", Data: r.variant.snapshotData(r)})
	}
}

func (r *Room) handleSecond(now time.Time) {
	switch r.phase {
	case PHASE_COUNTDOWN:
		r.countdown--
		if r.countdown > 0 {
			r.broadcast(ServerMessage{Type: "countdown", Data: map[string]int{"countdown": r.countdown}})
			return
		}
		r.stopSecondTicker()
		r.beginPlay(now)
	case PHASE_PLAYING:
		r.variant.second(r, now)
	default:
		r.stopSecondTicker()
	}
}

func (r *Room) handleBreak(now time.Time) {
	r.stopBreakTimer()
	switch r.phase {
	case PHASE_INTERMISSION, PHASE_ROUND_OVER:
		r.variant.resumeFromBreak(r, now)
	}
}

// --- phase transitions (the only mutators of the timer table) ---

func (r *Room) startCountdown() {
	r.stopSimTicker()
	r.stopBreakTimer()
	r.phase = PHASE_COUNTDOWN
	r.countdown = countdownSeconds
	r.broadcast(ServerMessage{Type: "countdown", Data: map[string]int{"countdown": r.countdown}})
	r.startSecondTicker()
}

func (r *Room) beginPlay(now time.Time) {
	r.phase = PHASE_PLAYING
	r.variant.startRound(r, now)
	r.broadcast(ServerMessage{Type: "start", Data: r.variant.snapshotData(r)})
	r.startSimTicker()
	r.startSecondTicker()
}

// resumePlay re-enters playing without a fresh countdown (second half).
func (r *Room) resumePlay(msgType string) {
	r.phase = PHASE_PLAYING
	r.broadcast(ServerMessage{Type: msgType, Data: r.variant.snapshotData(r)})
	// Clients that rejoined mid-break key off "start" as well.
	r.broadcast(ServerMessage{Type: "start", Data: r.variant.snapshotData(r)})
	r.startSimTicker()
	r.startSecondTicker()
}

func (r *Room) enterIntermission(delay time.Duration) {
	r.stopSimTicker()
	r.stopSecondTicker()
	r.phase = PHASE_INTERMISSION
	r.startBreakTimer(delay)
}

func (r *Room) enterRoundOver(delay time.Duration) {
	r.stopSimTicker()
	r.stopSecondTicker()
	r.phase = PHASE_ROUND_OVER
	r.startBreakTimer(delay)
}

func (r *Room) finishMatch(summary ServerMessage) {
	r.stopSimTicker()
	r.stopSecondTicker()
	r.stopBreakTimer()
	r.phase = PHASE_FINISHED
	r.broadcast(summary)
}

// --- membership ---

func (r *Room) handleJoinRequest(req roomJoinRequest) {
	p := req.player

	if req.spectator {
		r.spectators = append(r.spectators, p)
		p.attach(r)
		req.errChan <- nil
		p.send(ServerMessage{Type: "joined", Data: map[string]any{"roomId": r.id, "playerId": p.id, "spectator": true}})
		p.send(r.currentState())
		return
	}

	if r.phase != PHASE_LOBBY {
		req.errChan <- ErrAlreadyStarted
		return
	}
	if r.humanCount() >= r.variant.maxPlayers() {
		req.errChan <- ErrRoomFull
		return
	}

	r.players = append(r.players, p)
	r.variant.assignSeat(r, p)
	p.attach(r)
	req.errChan <- nil
	r.lobby.NotifyJoined(p.id, r.id)

	p.send(ServerMessage{Type: "joined", Data: map[string]any{"roomId": r.id, "playerId": p.id, "isHost": false}})
	r.broadcast(r.variant.lobbyState(r))
	logger.Infof("[Room %s] %s joined (%d players)", r.id, p.name, r.humanCount())
}

// handleRemoval takes a player out of the room. Returns true once no human
// remains and the room should die.
func (r *Room) handleRemoval(connId string, now time.Time) bool {
	idx := -1
	for i, p := range r.players {
		if p.id == connId {
			idx = i
			break
		}
	}
	if idx == -1 {
		return r.removeSpectator(connId)
	}

	p := r.players[idx]
	r.players = append(r.players[:idx], r.players[idx+1:]...)
	r.lobby.NotifyLeft(p.id)
	p.release()

	if r.humanCount() == 0 {
		return true
	}

	if p.isHost {
		next := r.oldestHuman()
		if next != nil {
			next.isHost = true
			next.send(ServerMessage{Type: "you_are_host"})
		}
	}

	r.broadcast(ServerMessage{Type: "player_left", Data: map[string]string{"playerId": p.id, "name": p.name}})
	if r.phase == PHASE_LOBBY {
		r.broadcast(r.variant.lobbyState(r))
	}
	r.variant.playerLeft(r, p, now)
	return false
}

func (r *Room) removeSpectator(connId string) bool {
	for i, s := range r.spectators {
		if s.id == connId {
			r.spectators = append(r.spectators[:i], r.spectators[i+1:]...)
			s.release()
			break
		}
	}
	return false
}

func (r *Room) humanCount() int {
	n := 0
	for _, p := range r.players {
		if !p.isBot {
			n++
		}
	}
	return n
}

func (r *Room) oldestHuman() *Player {
	for _, p := range r.players {
		if !p.isBot {
			return p
		}
	}
	return nil
}

func (r *Room) removeBots() {
	kept := r.players[:0]
	for _, p := range r.players {
		if !p.isBot {
			kept = append(kept, p)
		}
	}
	r.players = kept
}

// --- commands ---

func (r *Room) handleCommand(env commandEnvelope, now time.Time) bool {
	p := env.from
	cmd := env.cmd

	// Resync and leave work for anyone attached; everything that can
	// touch match state requires a seat on the roster.
	switch cmd.Type {
	case "request_state":
		p.send(r.currentState())
		return false
	case "leave":
		return r.handleRemoval(p.id, now)
	}
	if !r.isSeated(p) {
		return false
	}

	switch cmd.Type {
	case "start":
		// Non-host start is dropped on the floor: the signal to the
		// client is the absence of effect.
		if !p.isHost || r.phase != PHASE_LOBBY {
			return false
		}
		if r.humanCount() < r.variant.minPlayers() {
			p.send(ServerMessage{Type: "error", Data: ErrorNotice{Reason: ErrNotEnoughPlayers.Error()}})
			return false
		}
		r.variant.fillSeats(r)
		r.startCountdown()

	case "move":
		if r.phase != PHASE_PLAYING {
			return false
		}
		p.inputDx = clamp(cmd.Dx, -1, 1)
		p.inputDy = clamp(cmd.Dy, -1, 1)
		p.intentUntil = time.Time{}

	case "move_stop":
		p.inputDx, p.inputDy = 0, 0
		p.intentUntil = time.Time{}

	case "action":
		if r.phase != PHASE_PLAYING || p.isBot {
			return false
		}
		if !p.allowAction(now) {
			return false
		}
		r.variant.handleCommand(r, p, cmd, now)

	case "swipe", "tap", "taunt":
		if r.phase != PHASE_PLAYING {
			return false
		}
		r.variant.handleCommand(r, p, cmd, now)

	case "reset":
		if !p.isHost {
			return false
		}
		r.stopSimTicker()
		r.stopSecondTicker()
		r.stopBreakTimer()
		r.removeBots()
		r.phase = PHASE_LOBBY
		r.variant.resetState(r)
		r.broadcast(r.variant.lobbyState(r))
	}
	return false
}

func (r *Room) isSeated(p *Player) bool {
	for _, q := range r.players {
		if q == p {
			return true
		}
	}
	return false
}

func (r *Room) currentState() ServerMessage {
	switch r.phase {
	case PHASE_LOBBY:
		return r.variant.lobbyState(r)
	case PHASE_INTERMISSION, PHASE_ROUND_OVER:
		return r.variant.breakState(r)
	default:
		return ServerMessage{Type: "start", Data: r.variant.snapshotData(r)}
	}
}

// --- outbound ---

func (r *Room) broadcast(msg ServerMessage) {
	for _, p := range r.players {
		p.send(msg)
	}
	for _, s := range r.spectators {
		s.send(msg)
	}
}

func (r *Room) pingPlayers() {
	for _, p := range r.players {
		p.ping()
	}
	for _, s := range r.spectators {
		s.ping()
	}
}

func clamp(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
