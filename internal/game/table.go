package game

import (
	"math/rand"
	"sync"

	"github.com/DoyleJ11/liujiatong-server/internal/types"
)

// Table is the shared game state behind the game lock. Every method holds
// the lock for one read or one mutation and never across I/O or a barrier.
type Table struct {
	mu    sync.Mutex
	state State
	rng   *rand.Rand
}

func NewTable(rng *rand.Rand) *Table {
	return &Table{state: NewState(), rng: rng}
}

func (t *Table) Deal() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.state.DealNewGame(t.rng)
}

func (t *Table) Play(seat int, play types.Play) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state.ApplyPlay(seat, play)
}

func (t *Table) Advance() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state.AdvanceTurn()
}

// Status returns the two values sessions cache after crossing a barrier.
func (t *Table) Status() (gameOver, turn int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state.GameOver, t.state.TurnOrder
}

func (t *Table) Round(seat int) types.Round {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state.Round(seat)
}

func (t *Table) Public(names [Seats]string, offline [Seats]bool) types.Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state.Public(names, offline)
}

// Intn draws from the table's random source under the lock.
func (t *Table) Intn(n int) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.rng.Intn(n)
}

// Shuffle permutes n items with the table's random source.
func (t *Table) Shuffle(n int, swap func(i, j int)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.rng.Shuffle(n, swap)
}
