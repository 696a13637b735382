package game

import (
	"math"
	"time"
)

const (
	aiReaction   = 600 * time.Millisecond
	aiShootRange = 35.0
	aiShootProb  = 0.6
	aiChaseMid   = 40.0
	aiChaseDef   = 25.0
	aiDriftDist  = 5.0
)

// thinkAI steers one bot. Slot 0 plays defender, 1 midfield, 2 attacker.
// Bots re-decide at most every aiReaction; between decisions they keep
// running with the inputs they already hold.
func (f *football) thinkAI(r *Room, p *Player, now time.Time) {
	if now.Sub(p.aiLastThink) < aiReaction {
		return
	}
	p.aiLastThink = now

	goalX := pitchWidth - 2
	if p.team == "B" {
		goalX = 2.0
	}
	goalY := pitchHeight / 2

	if p.hasBall {
		if dist(p.x, p.y, goalX, goalY) < aiShootRange && f.rng.Float64() < aiShootProb {
			f.aiShoot(r, p, goalX, goalY)
			return
		}
		f.steerToward(p, goalX, goalY, 1)
		return
	}

	dToBall := dist(p.x, p.y, f.ball.x, f.ball.y)
	shouldChase := p.slot == 2 ||
		(p.slot == 1 && dToBall < aiChaseMid) ||
		(p.slot == 0 && dToBall < aiChaseDef)

	if shouldChase {
		f.steerToward(p, f.ball.x, f.ball.y, 1)
		if dToBall < tackleRange {
			f.aiTryTackle(r, p)
		}
		return
	}

	// Drift back toward the formation spot at half intent.
	home := startPosA[p.slot%footballTeamSize]
	if p.team == "B" {
		home = startPosB[p.slot%footballTeamSize]
	}
	if dist(p.x, p.y, home[0], home[1]) > aiDriftDist {
		f.steerToward(p, home[0], home[1], 0.5)
	} else {
		p.inputDx, p.inputDy = 0, 0
	}
}

func (f *football) steerToward(p *Player, tx, ty, intent float64) {
	dx, dy := tx-p.x, ty-p.y
	d := math.Max(math.Hypot(dx, dy), 1)
	p.inputDx = dx / d * intent
	p.inputDy = dy / d * intent
}

func (f *football) aiShoot(r *Room, p *Player, goalX, goalY float64) {
	jitterY := goalY + (f.rng.Float64()*10 - 5)
	p.hasBall = false
	f.ball.ownerId = ""
	p.shots++
	f.kickToward(goalX, jitterY, ballShootSpeed)
	r.broadcast(ServerMessage{Type: "shot", Data: map[string]string{
		"playerId": p.id, "name": p.name, "team": p.team,
	}})
}

// aiTryTackle is a coin-flip steal when the bot is on top of an opposing
// carrier.
func (f *football) aiTryTackle(r *Room, p *Player) {
	owner := f.findPlayer(r, f.ball.ownerId)
	if owner == nil || owner.team == p.team {
		return
	}
	if f.rng.Float64() >= 0.5 {
		return
	}
	owner.hasBall = false
	f.ball.ownerId = ""
	f.ball.vx = f.rng.Float64()*6 - 3
	f.ball.vy = f.rng.Float64()*6 - 3
	p.tackles++
	r.broadcast(ServerMessage{Type: "tackle", Data: map[string]string{
		"tackler": p.name, "tackled": owner.name,
	}})
}
