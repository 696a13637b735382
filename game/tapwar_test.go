package game

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTapwarMatch(t *testing.T) (*Room, *Player, *Player, *tapwar) {
	t.Helper()
	host := newTestPlayer(t, "h1", "naruto")
	r, _, _ := newTestRoom(t, VariantTapwar, VariantOptions{}, host)
	sasuke := newTestPlayer(t, "p2", "sasuke")
	require.NoError(t, joinPlayer(t, r, sasuke))
	startPlaying(t, r, host)
	drainMessages(t, host)
	drainMessages(t, sasuke)
	return r, host, sasuke, r.variant.(*tapwar)
}

func TestTapwar_TapsPullTheBar(t *testing.T) {
	t.Parallel()
	r, host, sasuke, tw := newTapwarMatch(t)
	now := time.Now()

	r.handleCommand(commandEnvelope{cmd: Command{Type: "tap"}, from: host}, now)
	assert.Equal(t, -1, tw.bar)

	r.handleCommand(commandEnvelope{cmd: Command{Type: "tap"}, from: sasuke}, now)
	assert.Equal(t, 0, tw.bar)

	msgs := drainMessages(t, host)
	tick, ok := lastMessageOfType(msgs, "tick")
	require.True(t, ok)
	assert.EqualValues(t, 0, tick.Data.(map[string]any)["barPos"])
}

func TestTapwar_SurgeTriplesTaps(t *testing.T) {
	t.Parallel()
	r, host, _, tw := newTapwarMatch(t)
	now := time.Now()

	// Eight taps inside one second arm the surge.
	for i := 0; i < twSurgeThresh; i++ {
		r.handleCommand(commandEnvelope{cmd: Command{Type: "tap"}, from: host}, now.Add(time.Duration(i)*100*time.Millisecond))
	}
	seat := tw.seats["h1"]
	require.True(t, seat.surgeActive)
	assert.Equal(t, -8, tw.bar)

	msgs := drainMessages(t, host)
	_, ok := lastMessageOfType(msgs, "surge")
	assert.True(t, ok)

	// Three boosted taps, then the surge burns out.
	for i := 0; i < twSurgeTaps; i++ {
		r.handleCommand(commandEnvelope{cmd: Command{Type: "tap"}, from: host}, now.Add(2*time.Second))
	}
	assert.Equal(t, -17, tw.bar)
	assert.False(t, seat.surgeActive)
}

func TestTapwar_SlowTapsNeverSurge(t *testing.T) {
	t.Parallel()
	r, host, _, tw := newTapwarMatch(t)
	now := time.Now()

	for i := 0; i < 20; i++ {
		r.handleCommand(commandEnvelope{cmd: Command{Type: "tap"}, from: host}, now.Add(time.Duration(i)*2*time.Second))
	}
	assert.False(t, tw.seats["h1"].surgeActive)
	assert.Equal(t, -20, tw.bar)
}

func TestTapwar_TauntOncePerRound(t *testing.T) {
	t.Parallel()
	r, host, _, tw := newTapwarMatch(t)
	now := time.Now()

	r.handleCommand(commandEnvelope{cmd: Command{Type: "taunt"}, from: host}, now)
	assert.Equal(t, -twTauntBounce, tw.bar)
	msgs := drainMessages(t, host)
	_, ok := lastMessageOfType(msgs, "taunt")
	assert.True(t, ok)

	r.handleCommand(commandEnvelope{cmd: Command{Type: "taunt"}, from: host}, now)
	assert.Equal(t, -twTauntBounce, tw.bar)
}

func TestTapwar_TauntOnThresholdNeedsATapToConvert(t *testing.T) {
	t.Parallel()
	r, host, _, tw := newTapwarMatch(t)
	now := time.Now()

	// A taunt can pin the bar on the threshold, but only a tap takes
	// the round.
	tw.bar = -twWinThreshold + 2
	r.handleCommand(commandEnvelope{cmd: Command{Type: "taunt"}, from: host}, now)

	assert.Equal(t, -twWinThreshold, tw.bar)
	assert.Equal(t, PHASE_PLAYING, r.phase)
	assert.Equal(t, 0, tw.seats["h1"].roundWins)

	r.handleCommand(commandEnvelope{cmd: Command{Type: "tap"}, from: host}, now)
	assert.Equal(t, PHASE_ROUND_OVER, r.phase)
	assert.Equal(t, 1, tw.seats["h1"].roundWins)
}

func TestTapwar_RoundOverCarriesWins(t *testing.T) {
	t.Parallel()
	r, host, _, tw := newTapwarMatch(t)
	now := time.Now()

	tw.bar = -twWinThreshold + 1
	r.handleCommand(commandEnvelope{cmd: Command{Type: "tap"}, from: host}, now)

	require.Equal(t, PHASE_ROUND_OVER, r.phase)
	assert.Equal(t, 1, tw.seats["h1"].roundWins)
	msgs := drainMessages(t, host)
	ro, ok := lastMessageOfType(msgs, "round_over")
	require.True(t, ok)
	assert.Equal(t, "h1", ro.Data.(map[string]any)["winner"])

	// Break elapses into a fresh countdown with wins intact.
	r.handleBreak(now.Add(twRoundOver))
	require.Equal(t, PHASE_COUNTDOWN, r.phase)
	assert.Equal(t, 2, tw.round)

	for i := 1; i <= countdownSeconds; i++ {
		r.handleSecond(now.Add(time.Duration(i) * time.Second))
	}
	require.Equal(t, PHASE_PLAYING, r.phase)
	assert.Equal(t, 0, tw.bar)
	assert.Equal(t, 1, tw.seats["h1"].roundWins)
	assert.False(t, tw.seats["h1"].tauntUsed)
}

func TestTapwar_BestOfThree(t *testing.T) {
	t.Parallel()
	r, host, _, tw := newTapwarMatch(t)
	now := time.Now()

	tw.seats["h1"].roundWins = 1
	tw.bar = -twWinThreshold + 1
	r.handleCommand(commandEnvelope{cmd: Command{Type: "tap"}, from: host}, now)

	require.Equal(t, PHASE_FINISHED, r.phase)
	msgs := drainMessages(t, host)
	fin, ok := lastMessageOfType(msgs, "finished")
	require.True(t, ok)
	data := fin.Data.(map[string]any)
	assert.Equal(t, "h1", data["winner"])
	wins := data["roundWins"].(map[string]any)
	assert.EqualValues(t, 2, wins["h1"])
}

func TestTapwar_BarClampsAtThreshold(t *testing.T) {
	t.Parallel()
	r, host, _, tw := newTapwarMatch(t)

	tw.bar = -twWinThreshold + 2
	tw.seats["h1"].surgeActive = true // tripled tap would overshoot
	r.handleCommand(commandEnvelope{cmd: Command{Type: "tap"}, from: host}, time.Now())

	assert.Equal(t, 1, tw.seats["h1"].roundWins)
	assert.Equal(t, -twWinThreshold, tw.bar)
}

func TestTapwar_OpponentLeavingWinsTheMatch(t *testing.T) {
	t.Parallel()
	r, host, _, _ := newTapwarMatch(t)

	done := r.handleRemoval("p2", time.Now())

	require.False(t, done)
	assert.Equal(t, PHASE_FINISHED, r.phase)
	msgs := drainMessages(t, host)
	fin, ok := lastMessageOfType(msgs, "finished")
	require.True(t, ok)
	assert.Equal(t, "h1", fin.Data.(map[string]any)["winner"])
}
