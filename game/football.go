package game

import (
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/google/uuid"
)

const (
	footballMaxPlayers = 6
	footballTeamSize   = 3
	matchSeconds       = 120
	footballTickMs     = 80

	pitchWidth  = 140.0
	pitchHeight = 70.0
	goalYMin    = 27.0
	goalYMax    = 43.0

	playerSpeed  = 4.2
	sprintMult   = 1.75
	speedScale   = 0.55
	velocityDamp = 0.82

	staminaMax       = 100.0
	staminaSprintHit = 18.0
	staminaDrain     = 0.3
	staminaRegen     = 0.8
	sprintMoveFloor  = 10.0
	sprintStartFloor = 15.0
	sprintBurst      = 1800 * time.Millisecond

	ballPassSpeed  = 10.0
	ballCrossSpeed = 12.0
	ballShootSpeed = 16.0
	ballFriction   = 0.90
	ballBoundInset = 1.5
	bounceDampY    = 0.65
	bounceDampX    = 0.6

	tackleRange   = 9.0
	pickupRange   = 6.5
	passRange     = 50.0
	tackleSuccess = 0.68
	pressRange    = 25.0
	pressHold     = 600 * time.Millisecond
	interceptHold = 800 * time.Millisecond

	goalDebounce = 2 * time.Second
	kickoffDelay = 2500 * time.Millisecond
	halftimeWait = 8 * time.Second

	// Solo rooms never run the clock down.
	soloTimeLeft = 99999
)

var (
	startPosA = [footballTeamSize][2]float64{{28, 22}, {28, 48}, {38, 35}}
	startPosB = [footballTeamSize][2]float64{{112, 22}, {112, 48}, {102, 35}}
)

type footballTeam struct {
	Id    string `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
	Score int    `json:"score"`
}

type footballBall struct {
	x, y, vx, vy float64
	ownerId      string
}

type football struct {
	solo     bool
	rng      *rand.Rand
	teamA    footballTeam
	teamB    footballTeam
	ball     footballBall
	timeLeft int
	half     int

	lastGoal  time.Time
	kickoffAt time.Time
}

func newFootball(solo bool, rng *rand.Rand) *football {
	return &football{
		solo:     solo,
		rng:      rng,
		teamA:    footballTeam{Id: "A", Name: "REDS", Color: "red"},
		teamB:    footballTeam{Id: "B", Name: "BLUES", Color: "blue"},
		ball:     footballBall{x: pitchWidth / 2, y: pitchHeight / 2},
		timeLeft: matchSeconds,
		half:     1,
	}
}

func (f *football) name() string              { return VariantFootball }
func (f *football) maxPlayers() int           { return footballMaxPlayers }
func (f *football) minPlayers() int           { return 1 }
func (f *football) tickPeriod() time.Duration { return footballTickMs * time.Millisecond }

// assignSeat balances humans across teams and seats them at their slot's
// kickoff position.
func (f *football) assignSeat(r *Room, p *Player) {
	aCount, bCount := 0, 0
	for _, q := range r.players {
		if q == p || q.isBot {
			continue
		}
		if q.team == "A" {
			aCount++
		} else {
			bCount++
		}
	}
	if aCount <= bCount {
		p.team, p.slot = "A", aCount
	} else {
		p.team, p.slot = "B", bCount
	}
	f.placeAtStart(p, p.slot)
}

func (f *football) placeAtStart(p *Player, slot int) {
	pos := startPosA[slot%footballTeamSize]
	if p.team == "B" {
		pos = startPosB[slot%footballTeamSize]
	}
	p.x, p.y = pos[0], pos[1]
	p.vx, p.vy = 0, 0
	p.hasBall = false
	p.inputDx, p.inputDy = 0, 0
}

// fillSeats tops both teams up to three with bots.
func (f *football) fillSeats(r *Room) {
	aCount, bCount := 0, 0
	for _, p := range r.players {
		if p.team == "A" {
			aCount++
		} else {
			bCount++
		}
	}
	for i := bCount; i < footballTeamSize; i++ {
		bot := NewBot(uuid.NewString(), botName("AI", i))
		bot.team, bot.slot = "B", i
		f.placeAtStart(bot, i)
		r.players = append(r.players, bot)
	}
	for i := aCount; i < footballTeamSize; i++ {
		bot := NewBot(uuid.NewString(), botName("BOT", i))
		bot.team, bot.slot = "A", i
		f.placeAtStart(bot, i)
		r.players = append(r.players, bot)
	}
}

func botName(prefix string, i int) string {
	return fmt.Sprintf("%s-%d", prefix, i+1)
}

func (f *football) startRound(r *Room, now time.Time) {
	f.half = 1
	f.teamA.Score = 0
	f.teamB.Score = 0
	f.timeLeft = matchSeconds
	if f.solo {
		f.timeLeft = soloTimeLeft
	}
	f.lastGoal = time.Time{}
	f.kickoffAt = time.Time{}
	f.resetPositions(r)
}

func (f *football) resetPositions(r *Room) {
	slotA, slotB := 0, 0
	for _, p := range r.players {
		if p.team == "A" {
			f.placeAtStart(p, slotA)
			slotA++
		} else {
			f.placeAtStart(p, slotB)
			slotB++
		}
	}
	f.ball = footballBall{x: pitchWidth / 2, y: pitchHeight / 2}
}

// --- simulation ---

func (f *football) step(r *Room, now time.Time) {
	if !f.kickoffAt.IsZero() && !now.Before(f.kickoffAt) {
		f.kickoffAt = time.Time{}
		f.resetPositions(r)
	}

	for _, p := range r.players {
		if p.isBot {
			f.thinkAI(r, p, now)
		}
	}

	for _, p := range r.players {
		f.movePlayer(p, now)
	}

	if f.ball.ownerId == "" {
		if scored := f.moveFreeBall(r, now); scored {
			return
		}
		f.tryPickup(r)
	}

	if f.ball.ownerId != "" {
		owner := f.findPlayer(r, f.ball.ownerId)
		if owner == nil || !owner.hasBall {
			f.ball.ownerId = ""
		}
	}
}

func (f *football) movePlayer(p *Player, now time.Time) {
	if !p.intentUntil.IsZero() && now.After(p.intentUntil) {
		p.inputDx, p.inputDy = 0, 0
		p.intentUntil = time.Time{}
	}
	if p.sprinting && now.After(p.sprintUntil) {
		p.sprinting = false
	}

	mag := math.Hypot(p.inputDx, p.inputDy)
	if mag > 0.05 {
		spd := playerSpeed
		if p.sprinting && p.stamina > sprintMoveFloor {
			spd *= sprintMult
		}
		norm := math.Max(mag, 1)
		p.vx = p.inputDx / norm * spd * speedScale
		p.vy = p.inputDy / norm * spd * speedScale
	}

	p.x = clamp(p.x+p.vx, 2, pitchWidth-2)
	p.y = clamp(p.y+p.vy, 2, pitchHeight-2)
	p.vx *= velocityDamp
	p.vy *= velocityDamp

	if p.sprinting && !p.isBot {
		p.stamina = math.Max(0, p.stamina-staminaDrain)
	} else {
		p.stamina = math.Min(staminaMax, p.stamina+staminaRegen)
	}

	if p.hasBall {
		f.ball.x = p.x + carryOffset(p.team)
		f.ball.y = p.y
		f.ball.vx, f.ball.vy = 0, 0
		f.ball.ownerId = p.id
	}
}

func carryOffset(team string) float64 {
	if team == "A" {
		return 2.5
	}
	return -2.5
}

// moveFreeBall advances a loose ball, bouncing it off the walls. A ball
// crossing a goal line inside the mouth scores; the return value tells the
// tick to stop early in that case.
func (f *football) moveFreeBall(r *Room, now time.Time) bool {
	b := &f.ball
	b.x += b.vx
	b.y += b.vy
	b.vx *= ballFriction
	b.vy *= ballFriction

	if b.y <= ballBoundInset {
		b.y = ballBoundInset
		b.vy = math.Abs(b.vy) * bounceDampY
	}
	if b.y >= pitchHeight-ballBoundInset {
		b.y = pitchHeight - ballBoundInset
		b.vy = -math.Abs(b.vy) * bounceDampY
	}

	if b.x <= ballBoundInset {
		if b.y >= goalYMin && b.y <= goalYMax {
			f.scoreGoal(r, "B", now)
			return true
		}
		b.x = ballBoundInset
		b.vx = math.Abs(b.vx) * bounceDampX
	}
	if b.x >= pitchWidth-ballBoundInset {
		if b.y >= goalYMin && b.y <= goalYMax {
			f.scoreGoal(r, "A", now)
			return true
		}
		b.x = pitchWidth - ballBoundInset
		b.vx = -math.Abs(b.vx) * bounceDampX
	}
	return false
}

// tryPickup gives a loose ball to the closest player inside pickup range.
// Roster order breaks exact ties.
func (f *football) tryPickup(r *Room) {
	var closest *Player
	closestDist := pickupRange
	for _, p := range r.players {
		d := dist(p.x, p.y, f.ball.x, f.ball.y)
		if d < closestDist {
			closestDist = d
			closest = p
		}
	}
	if closest == nil {
		return
	}
	closest.hasBall = true
	f.ball.ownerId = closest.id
	f.ball.x = closest.x + carryOffset(closest.team)
	f.ball.y = closest.y
	f.ball.vx, f.ball.vy = 0, 0

	closest.send(ServerMessage{Type: "you_have_ball"})
	r.broadcast(ServerMessage{Type: "pickup", Data: map[string]string{
		"playerId": closest.id, "name": closest.name, "team": closest.team,
	}})
}

func (f *football) scoreGoal(r *Room, team string, now time.Time) {
	if r.phase != PHASE_PLAYING {
		return
	}
	// A ball sitting in the mouth is one crossing, not a stream: no new
	// goal until the pending kickoff has reset the pitch.
	if !f.kickoffAt.IsZero() {
		return
	}
	if !f.lastGoal.IsZero() && now.Sub(f.lastGoal) < goalDebounce {
		return
	}
	f.lastGoal = now

	if team == "A" {
		f.teamA.Score++
	} else {
		f.teamB.Score++
	}
	f.kickoffAt = now.Add(kickoffDelay)

	r.broadcast(ServerMessage{Type: "goal", Data: map[string]any{
		"team":   team,
		"scoreA": f.teamA.Score,
		"scoreB": f.teamB.Score,
	}})
}

// --- clock ---

func (f *football) second(r *Room, now time.Time) {
	if f.solo {
		return
	}
	f.timeLeft--
	if f.timeLeft > 0 {
		return
	}
	if f.half == 1 {
		r.broadcast(ServerMessage{Type: "halftime", Data: map[string]any{
			"scoreA": f.teamA.Score, "scoreB": f.teamB.Score, "half": 1,
		}})
		r.enterIntermission(halftimeWait)
		return
	}
	f.endMatch(r)
}

func (f *football) resumeFromBreak(r *Room, now time.Time) {
	f.half = 2
	f.timeLeft = matchSeconds
	f.resetPositions(r)
	r.resumePlay("second_half")
}

func (f *football) endMatch(r *Room) {
	winner := "draw"
	if f.teamA.Score > f.teamB.Score {
		winner = "A"
	} else if f.teamB.Score > f.teamA.Score {
		winner = "B"
	}

	summary := make([]map[string]any, 0, len(r.players))
	for _, p := range r.players {
		if p.isBot {
			continue
		}
		summary = append(summary, map[string]any{
			"id": p.id, "name": p.name, "team": p.team,
			"goals": p.goals, "tackles": p.tackles, "passes": p.passes,
		})
	}

	r.finishMatch(ServerMessage{Type: "finished", Data: map[string]any{
		"winner":  winner,
		"scoreA":  f.teamA.Score,
		"scoreB":  f.teamB.Score,
		"teamA":   f.teamA,
		"teamB":   f.teamB,
		"players": summary,
	}})
}

// --- commands ---

func (f *football) handleCommand(r *Room, p *Player, cmd Command, now time.Time) {
	if cmd.Type != "action" {
		return
	}
	switch cmd.Kind {
	case "pass":
		f.doPass(r, p, cmd.Direction)
	case "cross":
		f.doCross(r, p)
	case "shoot":
		f.doShoot(r, p)
	case "tackle":
		f.doTackle(r, p)
	case "sprint":
		f.doSprint(r, p, now)
	case "press":
		f.doPress(r, p, now)
	case "intercept":
		f.doIntercept(p, now)
	}
}

func (f *football) doPass(r *Room, p *Player, direction string) {
	if !p.hasBall {
		return
	}
	var target *Player
	bestDist := passRange
	for _, q := range r.players {
		if q.id == p.id || q.team != p.team {
			continue
		}
		if d := dist(p.x, p.y, q.x, q.y); d < bestDist {
			bestDist = d
			target = q
		}
	}

	p.hasBall = false
	f.ball.ownerId = ""
	p.passes++

	if target != nil {
		f.kickToward(target.x, target.y, ballPassSpeed)
		r.broadcast(ServerMessage{Type: "pass", Data: map[string]string{
			"from": p.id, "fromName": p.name, "to": target.id, "toName": target.name, "team": p.team,
		}})
		return
	}

	dx, dy := passFallback(direction, p.team)
	f.ball.vx = dx * ballPassSpeed
	f.ball.vy = dy * ballPassSpeed
	r.broadcast(ServerMessage{Type: "pass", Data: map[string]string{
		"from": p.id, "fromName": p.name, "direction": direction,
	}})
}

func passFallback(direction, team string) (float64, float64) {
	switch direction {
	case "up":
		return 0, -1
	case "down":
		return 0, 1
	case "left":
		return -1, 0
	case "right":
		return 1, 0
	}
	if team == "A" {
		return 1, 0
	}
	return -1, 0
}

func (f *football) doCross(r *Room, p *Player) {
	if !p.hasBall {
		return
	}
	targetX := pitchWidth * 0.8
	if p.team == "B" {
		targetX = pitchWidth * 0.2
	}
	targetY := pitchHeight * 0.7
	if f.ball.y > pitchHeight/2 {
		targetY = pitchHeight * 0.3
	}

	p.hasBall = false
	f.ball.ownerId = ""
	p.passes++
	f.kickToward(targetX, targetY, ballCrossSpeed)
	r.broadcast(ServerMessage{Type: "pass", Data: map[string]string{
		"from": p.id, "fromName": p.name, "kind": "cross",
	}})
}

func (f *football) doShoot(r *Room, p *Player) {
	if !p.hasBall {
		return
	}
	goalX := pitchWidth
	if p.team == "B" {
		goalX = 0
	}
	goalY := pitchHeight/2 + (f.rng.Float64()-0.5)*10

	p.hasBall = false
	f.ball.ownerId = ""
	p.shots++
	f.kickToward(goalX, goalY, ballShootSpeed)
	r.broadcast(ServerMessage{Type: "shot", Data: map[string]string{
		"playerId": p.id, "name": p.name, "team": p.team,
	}})
}

func (f *football) doTackle(r *Room, p *Player) {
	if p.hasBall {
		return
	}
	var tackled *Player
	bestDist := tackleRange
	for _, q := range r.players {
		if q.team == p.team || !q.hasBall {
			continue
		}
		if d := dist(p.x, p.y, q.x, q.y); d < bestDist {
			bestDist = d
			tackled = q
		}
	}
	if tackled == nil {
		return
	}
	if f.rng.Float64() >= tackleSuccess {
		return
	}

	tackled.hasBall = false
	f.ball.ownerId = ""
	f.ball.vx = (f.rng.Float64() - 0.5) * 5
	f.ball.vy = (f.rng.Float64() - 0.5) * 5
	p.tackles++

	tackled.send(ServerMessage{Type: "you_were_tackled"})
	p.send(ServerMessage{Type: "tackle_success", Data: map[string]string{"tackledName": tackled.name}})
	r.broadcast(ServerMessage{Type: "tackle", Data: map[string]string{
		"tackler": p.name, "tackled": tackled.name,
	}})
}

func (f *football) doSprint(r *Room, p *Player, now time.Time) {
	if p.stamina <= sprintStartFloor {
		p.send(ServerMessage{Type: "error", Data: ErrorNotice{Reason: "low-stamina"}})
		return
	}
	p.sprinting = true
	p.sprintUntil = now.Add(sprintBurst)
	p.stamina = math.Max(0, p.stamina-staminaSprintHit)
	dir := 1.0
	if p.team == "B" {
		dir = -1
	}
	p.vx += dir * playerSpeed * (sprintMult - 1) * 2
}

func (f *football) doPress(r *Room, p *Player, now time.Time) {
	var closest *Player
	bestDist := pressRange
	for _, q := range r.players {
		if q.team == p.team {
			continue
		}
		if d := dist(p.x, p.y, q.x, q.y); d < bestDist {
			bestDist = d
			closest = q
		}
	}
	if closest == nil {
		return
	}
	dx, dy := closest.x-p.x, closest.y-p.y
	d := math.Max(math.Hypot(dx, dy), 1)
	p.inputDx, p.inputDy = dx/d, dy/d
	p.intentUntil = now.Add(pressHold)
}

func (f *football) doIntercept(p *Player, now time.Time) {
	predX := f.ball.x + f.ball.vx*4
	predY := f.ball.y + f.ball.vy*4
	dx, dy := predX-p.x, predY-p.y
	d := math.Max(math.Hypot(dx, dy), 1)
	p.inputDx, p.inputDy = dx/d, dy/d
	p.intentUntil = now.Add(interceptHold)
}

func (f *football) kickToward(targetX, targetY, speed float64) {
	dx := targetX - f.ball.x
	dy := targetY - f.ball.y
	d := math.Max(math.Hypot(dx, dy), 1)
	f.ball.vx = dx / d * speed
	f.ball.vy = dy / d * speed
}

// --- roster events & views ---

func (f *football) playerLeft(r *Room, p *Player, now time.Time) {
	if f.ball.ownerId == p.id {
		f.ball.ownerId = ""
	}
}

func (f *football) snapshotData(r *Room) any {
	players := make([]map[string]any, 0, len(r.players))
	for _, p := range r.players {
		players = append(players, map[string]any{
			"id": p.id, "name": p.name, "team": p.team, "slot": p.slot,
			"x": p.x, "y": p.y, "vx": p.vx, "vy": p.vy,
			"hasBall": p.hasBall, "sprinting": p.sprinting,
			"goals": p.goals, "tackles": p.tackles, "passes": p.passes,
			"stamina": p.stamina, "isBot": p.isBot,
		})
	}
	return map[string]any{
		"roomId":   r.id,
		"phase":    r.phase.String(),
		"timeLeft": f.timeLeft,
		"half":     f.half,
		"solo":     f.solo,
		"pitchW":   pitchWidth,
		"pitchH":   pitchHeight,
		"scores":   map[string]int{"A": f.teamA.Score, "B": f.teamB.Score},
		"ball":     map[string]any{"x": f.ball.x, "y": f.ball.y, "ownerId": f.ball.ownerId},
		"players":  players,
		"teamA":    f.teamA,
		"teamB":    f.teamB,
	}
}

func (f *football) lobbyState(r *Room) ServerMessage {
	players := make([]map[string]any, 0, len(r.players))
	teamRoster := map[string][]string{"A": {}, "B": {}}
	for _, p := range r.players {
		if p.isBot {
			continue
		}
		players = append(players, map[string]any{
			"id": p.id, "name": p.name, "team": p.team, "isHost": p.isHost,
		})
		teamRoster[p.team] = append(teamRoster[p.team], p.name)
	}
	return ServerMessage{Type: "lobby", Data: map[string]any{
		"roomId": r.id,
		"phase":  r.phase.String(),
		"solo":   f.solo,
		"players": players,
		"teams": []map[string]any{
			{"id": "A", "name": f.teamA.Name, "color": f.teamA.Color, "score": f.teamA.Score, "players": teamRoster["A"]},
			{"id": "B", "name": f.teamB.Name, "color": f.teamB.Color, "score": f.teamB.Score, "players": teamRoster["B"]},
		},
	}}
}

func (f *football) breakState(r *Room) ServerMessage {
	return ServerMessage{Type: "halftime", Data: map[string]any{
		"scoreA": f.teamA.Score, "scoreB": f.teamB.Score, "half": f.half,
	}}
}

func (f *football) resetState(r *Room) {
	f.teamA.Score = 0
	f.teamB.Score = 0
	f.half = 1
	f.timeLeft = matchSeconds
	f.lastGoal = time.Time{}
	f.kickoffAt = time.Time{}
	f.ball = footballBall{x: pitchWidth / 2, y: pitchHeight / 2}
	for _, p := range r.players {
		p.goals, p.tackles, p.passes, p.shots = 0, 0, 0, 0
		p.hasBall = false
		p.sprinting = false
		p.stamina = staminaMax
	}
}

func (f *football) findPlayer(r *Room, id string) *Player {
	for _, p := range r.players {
		if p.id == id {
			return p
		}
	}
	return nil
}

func dist(ax, ay, bx, by float64) float64 {
	return math.Hypot(ax-bx, ay-by)
}
