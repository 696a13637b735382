package game

import "time"

const (
	twWinThreshold = 100
	twSurgeWindow  = time.Second
	twSurgeThresh  = 8
	twSurgeTaps    = 3
	twSurgeMult    = 3
	twTauntBounce  = 8
	twRoundsToWin  = 2
	twRoundOver    = 3 * time.Second
)

// tapSeat is one side of the tug-of-war. dir is the sign this seat's taps
// apply to the bar; the first joiner pulls negative.
type tapSeat struct {
	dir         int
	roundWins   int
	surgeActive bool
	surgeCount  int
	tapTimes    []time.Time
	tauntUsed   bool
}

// tapwar is a two-player tap duel: first to drag the shared bar to their
// threshold takes the round, best of three takes the match. No simulation
// ticker; the bar only moves on taps.
type tapwar struct {
	seats map[string]*tapSeat
	bar   int
	round int
}

func newTapwar() *tapwar {
	return &tapwar{seats: make(map[string]*tapSeat), round: 1}
}

func (t *tapwar) name() string              { return VariantTapwar }
func (t *tapwar) maxPlayers() int           { return 2 }
func (t *tapwar) minPlayers() int           { return 2 }
func (t *tapwar) tickPeriod() time.Duration { return 0 }

func (t *tapwar) assignSeat(r *Room, p *Player) {
	dir := -1
	for _, seat := range t.seats {
		if seat.dir == -1 {
			dir = 1
		}
	}
	t.seats[p.id] = &tapSeat{dir: dir}
}

func (t *tapwar) fillSeats(r *Room) {}

// startRound resets per-round state. Round wins and the round counter
// survive; they only clear on a host reset.
func (t *tapwar) startRound(r *Room, now time.Time) {
	t.bar = 0
	for _, seat := range t.seats {
		seat.surgeActive = false
		seat.surgeCount = 0
		seat.tapTimes = nil
		seat.tauntUsed = false
	}
}

func (t *tapwar) step(r *Room, now time.Time)   {}
func (t *tapwar) second(r *Room, now time.Time) {}

func (t *tapwar) resumeFromBreak(r *Room, now time.Time) {
	t.round++
	r.startCountdown()
}

func (t *tapwar) handleCommand(r *Room, p *Player, cmd Command, now time.Time) {
	seat := t.seats[p.id]
	if seat == nil {
		return
	}
	switch cmd.Type {
	case "tap":
		t.handleTap(r, p, seat, now)
	case "taunt":
		t.handleTaunt(r, p, seat)
	}
}

func (t *tapwar) handleTap(r *Room, p *Player, seat *tapSeat, now time.Time) {
	units := 1
	if seat.surgeActive {
		units = twSurgeMult
		seat.surgeCount++
		if seat.surgeCount >= twSurgeTaps {
			seat.surgeActive = false
			seat.surgeCount = 0
		}
	} else {
		t.recordTap(r, p, seat, now)
	}

	t.bar = clampInt(t.bar+seat.dir*units, -twWinThreshold, twWinThreshold)
	r.broadcast(ServerMessage{Type: "tick", Data: t.snapshotData(r)})

	if t.bar <= -twWinThreshold || t.bar >= twWinThreshold {
		t.endRound(r, p)
	}
}

// recordTap tracks tap rate inside a sliding window; eight taps within one
// second arms a surge worth three tripled taps.
func (t *tapwar) recordTap(r *Room, p *Player, seat *tapSeat, now time.Time) {
	kept := seat.tapTimes[:0]
	for _, ts := range seat.tapTimes {
		if now.Sub(ts) < twSurgeWindow {
			kept = append(kept, ts)
		}
	}
	seat.tapTimes = append(kept, now)

	if len(seat.tapTimes) >= twSurgeThresh {
		seat.surgeActive = true
		seat.surgeCount = 0
		seat.tapTimes = nil
		r.broadcast(ServerMessage{Type: "surge", Data: map[string]string{"who": p.id, "name": p.name}})
	}
}

func (t *tapwar) handleTaunt(r *Room, p *Player, seat *tapSeat) {
	if seat.tauntUsed {
		return
	}
	seat.tauntUsed = true
	// Only taps decide a round. A taunt can pin the bar on the
	// threshold; the next tap converts it.
	t.bar = clampInt(t.bar+seat.dir*twTauntBounce, -twWinThreshold, twWinThreshold)
	r.broadcast(ServerMessage{Type: "taunt", Data: map[string]any{
		"who": p.id, "name": p.name, "barPos": t.bar,
	}})
}

func (t *tapwar) endRound(r *Room, winner *Player) {
	seat := t.seats[winner.id]
	seat.roundWins++

	if seat.roundWins >= twRoundsToWin {
		t.finish(r, winner)
		return
	}

	r.broadcast(ServerMessage{Type: "round_over", Data: map[string]any{
		"winner": winner.id, "winnerName": winner.name, "round": t.round,
		"roundWins": t.winCounts(r),
	}})
	r.enterRoundOver(twRoundOver)
}

func (t *tapwar) finish(r *Room, winner *Player) {
	r.finishMatch(ServerMessage{Type: "finished", Data: map[string]any{
		"winner": winner.id, "winnerName": winner.name,
		"roundWins": t.winCounts(r),
	}})
}

func (t *tapwar) playerLeft(r *Room, p *Player, now time.Time) {
	delete(t.seats, p.id)
	if r.phase != PHASE_PLAYING {
		return
	}
	if remaining := r.oldestHuman(); remaining != nil {
		if t.seats[remaining.id] == nil {
			return
		}
		t.finish(r, remaining)
	}
}

func (t *tapwar) winCounts(r *Room) map[string]int {
	wins := make(map[string]int, len(t.seats))
	for id, seat := range t.seats {
		wins[id] = seat.roundWins
	}
	return wins
}

func (t *tapwar) snapshotData(r *Room) any {
	seats := make([]map[string]any, 0, len(r.players))
	for _, p := range r.players {
		seat := t.seats[p.id]
		if seat == nil {
			continue
		}
		seats = append(seats, map[string]any{
			"id": p.id, "name": p.name, "dir": seat.dir,
			"roundWins": seat.roundWins, "surge": seat.surgeActive,
			"tauntUsed": seat.tauntUsed,
		})
	}
	return map[string]any{
		"roomId":  r.id,
		"phase":   r.phase.String(),
		"barPos":  t.bar,
		"round":   t.round,
		"players": seats,
	}
}

func (t *tapwar) lobbyState(r *Room) ServerMessage {
	players := make([]map[string]any, 0, len(r.players))
	for _, p := range r.players {
		players = append(players, map[string]any{
			"id": p.id, "name": p.name, "isHost": p.isHost,
		})
	}
	return ServerMessage{Type: "lobby", Data: map[string]any{
		"roomId":  r.id,
		"phase":   r.phase.String(),
		"players": players,
	}}
}

func (t *tapwar) breakState(r *Room) ServerMessage {
	return ServerMessage{Type: "round_over", Data: t.snapshotData(r)}
}

func (t *tapwar) resetState(r *Room) {
	t.bar = 0
	t.round = 1
	for _, seat := range t.seats {
		seat.roundWins = 0
		seat.surgeActive = false
		seat.surgeCount = 0
		seat.tapTimes = nil
		seat.tauntUsed = false
	}
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
