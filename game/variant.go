package game

import (
	"math/rand"
	"time"
)

const (
	VariantFootball = "football"
	VariantSprint   = "sprint"
	VariantTapwar   = "tapwar"
)

// VariantOptions carries per-room flags from the create request.
type VariantOptions struct {
	Solo bool
}

// variant is the capability set every game mode implements. The room actor
// owns phases and timers; the variant owns everything the mode simulates.
// All methods run on the room's goroutine.
type variant interface {
	name() string

	// maxPlayers bounds the human roster; minPlayers gates the host's
	// start command. Bot seats are synthesized in fillSeats and count
	// toward neither.
	maxPlayers() int
	minPlayers() int

	// tickPeriod is the simulation tick interval, or 0 for purely
	// event-driven modes that only use the shared 1s clock.
	tickPeriod() time.Duration

	// assignSeat places a freshly joined player (team, slot, lane,
	// start position).
	assignSeat(r *Room, p *Player)

	// fillSeats tops up the roster with bots right before countdown.
	fillSeats(r *Room)

	// startRound (re)initializes round state when countdown hits zero.
	// Cumulative match tallies survive; per-round state does not.
	startRound(r *Room, now time.Time)

	// step runs one simulation tick. Only called while playing.
	step(r *Room, now time.Time)

	// second runs once per wall-clock second while playing (match
	// clocks, elapsed counters). May be a no-op.
	second(r *Room, now time.Time)

	// resumeFromBreak fires when the roundOver/intermission delay
	// elapses and decides where the room goes next.
	resumeFromBreak(r *Room, now time.Time)

	// handleCommand applies one player command. Phase and rate limits
	// were already checked by the room.
	handleCommand(r *Room, p *Player, cmd Command, now time.Time)

	// playerLeft runs on every removal, whatever the phase: seat
	// cleanup always, match consequences (early end, freeing a held
	// ball) only while playing.
	playerLeft(r *Room, p *Player, now time.Time)

	// snapshotData is the full public room state broadcast every tick
	// and on resync.
	snapshotData(r *Room) any

	// lobbyState is the roster view broadcast while in the lobby.
	lobbyState(r *Room) ServerMessage

	// breakState is the resync answer during roundOver/intermission.
	breakState(r *Room) ServerMessage

	// resetState clears all cumulative state on a host reset.
	resetState(r *Room)
}

func newVariant(kind string, opts VariantOptions, rng *rand.Rand) (variant, error) {
	switch kind {
	case VariantFootball:
		return newFootball(opts.Solo, rng), nil
	case VariantSprint:
		return newSprint(rng), nil
	case VariantTapwar:
		return newTapwar(), nil
	default:
		return nil, ErrUnknownVariant
	}
}

func knownVariant(kind string) bool {
	switch kind {
	case VariantFootball, VariantSprint, VariantTapwar:
		return true
	}
	return false
}
