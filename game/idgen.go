package game

import (
	"math/rand"
	"sync"
)

// Room codes must survive being read aloud and typed on a phone, so the
// alphabet drops 0/O/1/I.
const codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
const codeLength = 6

type Idgen struct {
	ids    map[string]struct{}
	locker sync.Mutex
}

func NewIdGen() Idgen {
	return Idgen{ids: make(map[string]struct{})}
}

// Generate returns a code that is not currently live. Collisions are
// unlikely at expected scale but a taken code is never handed out twice.
func (g *Idgen) Generate() string {
	g.locker.Lock()
	defer g.locker.Unlock()

	for {
		b := make([]byte, codeLength)
		for i := range b {
			b[i] = codeAlphabet[rand.Intn(len(codeAlphabet))]
		}
		id := string(b)
		if _, taken := g.ids[id]; taken {
			continue
		}
		g.ids[id] = struct{}{}
		return id
	}
}

func (g *Idgen) Dispose(id string) {
	g.locker.Lock()
	defer g.locker.Unlock()
	delete(g.ids, id)
}
