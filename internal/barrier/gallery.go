package barrier

import (
	"context"
	"errors"
	"sync"
)

var ErrGalleryClosed = errors.New("gallery closed")

// Gallery is the spectator side of a broadcast. Its membership changes
// freely, so instead of a fixed-arity barrier the broadcaster publishes a
// Round sized to the members present at that moment and waits for each of
// them to report Done.
type Gallery struct {
	mu      sync.Mutex
	game    uint64
	open    bool
	changed chan struct{}
	members int
	seq     uint64
	current *Round
}

// Round is one broadcast. Members joined after it was published do not owe it.
type Round struct {
	Seq      uint64
	GameOver int
	pending  int
	done     chan struct{}
}

func (r *Round) finish() {
	r.pending--
	if r.pending == 0 {
		close(r.done)
	}
}

// Wait blocks until every counted member is done with r.
func (r *Round) Wait(ctx context.Context) error {
	select {
	case <-r.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Ticket is one member's place in the gallery.
type Ticket struct {
	g    *Gallery
	game uint64
	done uint64
	left bool
}

func NewGallery() *Gallery {
	return &Gallery{changed: make(chan struct{})}
}

func (g *Gallery) notify() {
	close(g.changed)
	g.changed = make(chan struct{})
}

// Open lets members join once the table is dealt.
func (g *Gallery) Open() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.open = true
	g.notify()
}

// Close ends the current game: pending joins and waits fail with
// ErrGalleryClosed and membership starts from zero.
func (g *Gallery) Close() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if r := g.current; r != nil && r.pending > 0 {
		r.pending = 0
		close(r.done)
	}
	g.open = false
	g.game++
	g.members = 0
	g.current = nil
	g.notify()
}

func (g *Gallery) Members() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.members
}

// Join waits until the gallery is open and registers a member.
func (g *Gallery) Join(ctx context.Context) (*Ticket, error) {
	g.mu.Lock()
	game := g.game
	for !g.open {
		ch := g.changed
		g.mu.Unlock()
		select {
		case <-ch:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		g.mu.Lock()
		if g.game != game {
			g.mu.Unlock()
			return nil, ErrGalleryClosed
		}
	}
	g.members++
	t := &Ticket{g: g, game: game, done: g.seq}
	g.mu.Unlock()
	return t, nil
}

// Publish starts a broadcast counted against the current members.
func (g *Gallery) Publish(gameOver int) *Round {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.seq++
	r := &Round{Seq: g.seq, GameOver: gameOver, pending: g.members, done: make(chan struct{})}
	if r.pending == 0 {
		close(r.done)
	}
	g.current = r
	g.notify()
	return r
}

// Await returns the next round this ticket owes.
func (t *Ticket) Await(ctx context.Context) (*Round, error) {
	g := t.g
	g.mu.Lock()
	for {
		if t.left || g.game != t.game {
			g.mu.Unlock()
			return nil, ErrGalleryClosed
		}
		if r := g.current; r != nil && r.Seq > t.done {
			g.mu.Unlock()
			return r, nil
		}
		ch := g.changed
		g.mu.Unlock()
		select {
		case <-ch:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		g.mu.Lock()
	}
}

// Done reports that this member has finished with r.
func (t *Ticket) Done(r *Round) {
	g := t.g
	g.mu.Lock()
	defer g.mu.Unlock()
	if t.game != g.game || r.Seq <= t.done {
		return
	}
	t.done = r.Seq
	r.finish()
}

// Leave removes the member, discharging the round it still owes. Safe to
// call more than once.
func (t *Ticket) Leave() {
	g := t.g
	g.mu.Lock()
	defer g.mu.Unlock()
	if t.left {
		return
	}
	t.left = true
	if t.game != g.game {
		return
	}
	if r := g.current; r != nil && r.Seq > t.done {
		t.done = r.Seq
		r.finish()
	}
	g.members--
}
