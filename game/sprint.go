package game

import (
	"math/rand"
	"sort"
	"time"
)

const (
	laneCount        = 3
	gridCols         = 30
	patternCols      = 500
	sprintTickMs     = 80
	sprintMaxPlayers = 8
	speedBoostSecs   = 10
	maxSpeed         = 6
	slideCols        = 3

	// 80ms ticks per wall-clock second, rounded.
	ticksPerSecond = 13
)

// sprint is the lane-grid elimination race. Everyone scrolls through the
// same laser pattern; touching an active laser eliminates you, reaching the
// last column ranks you.
type sprint struct {
	rng *rand.Rand

	pattern      [][laneCount]bool
	scrollOffset int
	speed        int
	elapsedSecs  int
	tickCount    int
	finishCount  int
}

func newSprint(rng *rand.Rand) *sprint {
	return &sprint{rng: rng, speed: 1}
}

func (s *sprint) name() string              { return VariantSprint }
func (s *sprint) maxPlayers() int           { return sprintMaxPlayers }
func (s *sprint) minPlayers() int           { return 1 }
func (s *sprint) tickPeriod() time.Duration { return sprintTickMs * time.Millisecond }

func (s *sprint) assignSeat(r *Room, p *Player) {
	p.lane = 1
	p.colOffset = 0
}

func (s *sprint) fillSeats(r *Room) {}

// randomLaserPattern keeps at least one lane safe per column; more players
// mean fewer safe lanes, down to one.
func (s *sprint) randomLaserPattern(cols, activePlayers int) [][laneCount]bool {
	safeCount := laneCount - min(2, activePlayers-1)
	if safeCount < 1 {
		safeCount = 1
	}
	pattern := make([][laneCount]bool, cols)
	for c := range pattern {
		safe := map[int]bool{}
		for len(safe) < safeCount {
			safe[s.rng.Intn(laneCount)] = true
		}
		for lane := 0; lane < laneCount; lane++ {
			pattern[c][lane] = !safe[lane]
		}
	}
	return pattern
}

func (s *sprint) startRound(r *Room, now time.Time) {
	s.scrollOffset = 0
	s.elapsedSecs = 0
	s.speed = 1
	s.tickCount = 0
	s.finishCount = 0

	for _, p := range r.players {
		p.lane = 1
		p.colOffset = 0
		p.alive = true
		p.eliminated = false
		p.rank = 0
		p.finishTime = 0
	}
	s.pattern = s.randomLaserPattern(patternCols, len(r.players))
}

func (s *sprint) step(r *Room, now time.Time) {
	s.tickCount++
	if s.tickCount%ticksPerSecond == 0 {
		s.elapsedSecs++
		if s.elapsedSecs%speedBoostSecs == 0 && s.speed < maxSpeed {
			s.speed++
			r.broadcast(ServerMessage{Type: "speedup", Data: map[string]int{"speed": s.speed}})
		}
	}

	s.scrollOffset += s.speed
	maxCol := float64(len(s.pattern) - 1)

	for _, p := range r.players {
		if !p.alive {
			continue
		}
		p.colOffset += float64(s.speed)

		if p.colOffset >= maxCol {
			p.alive = false
			s.finishCount++
			p.rank = s.finishCount
			p.finishTime = s.elapsedSecs
			r.broadcast(ServerMessage{Type: "finish_line", Data: map[string]any{
				"playerId": p.id, "name": p.name, "rank": p.rank, "time": p.finishTime,
			}})
			p.send(ServerMessage{Type: "you_finished", Data: map[string]int{"rank": p.rank}})
			continue
		}

		col := s.pattern[int(p.colOffset)]
		if col[p.lane] {
			p.alive = false
			p.eliminated = true
			r.broadcast(ServerMessage{Type: "eliminated", Data: map[string]string{
				"playerId": p.id, "name": p.name,
			}})
			p.send(ServerMessage{Type: "you_were_eliminated"})
		}
	}

	if s.aliveCount(r) == 0 {
		s.endGame(r)
	}
}

func (s *sprint) second(r *Room, now time.Time) {}

func (s *sprint) resumeFromBreak(r *Room, now time.Time) {}

func (s *sprint) handleCommand(r *Room, p *Player, cmd Command, now time.Time) {
	if cmd.Type != "swipe" || !p.alive {
		return
	}
	switch cmd.Direction {
	case "up":
		if p.lane > 0 {
			p.lane--
		}
	case "down":
		if p.lane < laneCount-1 {
			p.lane++
		}
	case "slide":
		maxCol := float64(len(s.pattern) - 1)
		p.colOffset = min(p.colOffset+slideCols, maxCol)
	default:
		return
	}
	r.broadcast(ServerMessage{Type: "player_moved", Data: map[string]any{
		"playerId": p.id, "lane": p.lane, "colOffset": p.colOffset,
	}})
}

func (s *sprint) playerLeft(r *Room, p *Player, now time.Time) {
	if r.phase != PHASE_PLAYING {
		return
	}
	if s.aliveCount(r) <= 1 {
		s.endGame(r)
	}
}

func (s *sprint) aliveCount(r *Room) int {
	n := 0
	for _, p := range r.players {
		if p.alive {
			n++
		}
	}
	return n
}

func (s *sprint) endGame(r *Room) {
	type result struct {
		Id         string `json:"id"`
		Name       string `json:"name"`
		Rank       int    `json:"rank"`
		Eliminated bool   `json:"eliminated"`
		Time       int    `json:"time"`
	}
	results := make([]result, 0, len(r.players))
	for _, p := range r.players {
		rank := p.rank
		if rank == 0 {
			rank = 999
		}
		results = append(results, result{
			Id: p.id, Name: p.name, Rank: rank, Eliminated: p.eliminated, Time: p.finishTime,
		})
	}
	sort.Slice(results, func(i, j int) bool { return results[i].Rank < results[j].Rank })

	r.finishMatch(ServerMessage{Type: "finished", Data: map[string]any{
		"roomId":  r.id,
		"results": results,
	}})
}

func (s *sprint) snapshotData(r *Room) any {
	window := s.visibleWindow()
	players := make([]map[string]any, 0, len(r.players))
	for _, p := range r.players {
		players = append(players, map[string]any{
			"id": p.id, "name": p.name, "lane": p.lane,
			"colOffset": p.colOffset, "alive": p.alive, "rank": p.rank,
		})
	}
	return map[string]any{
		"roomId":       r.id,
		"phase":        r.phase.String(),
		"elapsedSecs":  s.elapsedSecs,
		"speed":        s.speed,
		"scrollOffset": s.scrollOffset,
		"laserPattern": window,
		"players":      players,
	}
}

func (s *sprint) visibleWindow() [][laneCount]bool {
	if len(s.pattern) == 0 {
		return nil
	}
	from := s.scrollOffset
	if from > len(s.pattern) {
		from = len(s.pattern)
	}
	to := from + gridCols
	if to > len(s.pattern) {
		to = len(s.pattern)
	}
	return s.pattern[from:to]
}

func (s *sprint) lobbyState(r *Room) ServerMessage {
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

// Sprint has no break phases; a resync mid-race is a fresh snapshot.
func (s *sprint) breakState(r *Room) ServerMessage {
	return ServerMessage{Type: "start", Data: s.snapshotData(r)}
}

func (s *sprint) resetState(r *Room) {
	s.scrollOffset = 0
	s.elapsedSecs = 0
	s.speed = 1
	s.tickCount = 0
	s.finishCount = 0
	for _, p := range r.players {
		p.alive = true
		p.eliminated = false
		p.lane = 1
		p.colOffset = 0
		p.rank = 0
		p.finishTime = 0
	}
}
