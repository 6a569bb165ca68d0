// Package lobby is the player registry: who holds which seat, under which
// cookie, and whether that seat is currently connected.
package lobby

import (
	"context"
	"crypto/rand"
	"errors"
	"math/big"
	"sync"

	"github.com/DoyleJ11/liujiatong-server/internal/phase"
	"github.com/DoyleJ11/liujiatong-server/internal/types"
)

var ErrUnknownCookie = errors.New("unknown cookie")
var ErrRecoveryRejected = errors.New("seat is still connected")
var ErrHallFull = errors.New("waiting hall is full")
var ErrSeated = errors.New("seats already assigned")

const (
	Seats     = types.Seats
	NoSeat    = -1
	cookieLen = 8
)

func GenerateCookie() (string, error) {
	const charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

	code := make([]byte, cookieLen)
	for i := range code {
		num, err := rand.Int(rand.Reader, big.NewInt(int64(len(charset))))
		if err != nil {
			return "", err
		}
		code[i] = charset[num.Int64()]
	}
	return string(code), nil
}

type entry struct {
	cookie  string
	name    string
	seat    int
	offline bool
	phase   phase.Phase
	claim   *Claim
}

// Claim is a pending reconnection of one seat. The live session hands the
// seat over by resolving it with the phase the new session must resume at.
type Claim struct {
	claimed chan struct{}
	ready   chan struct{}
	resume  phase.Phase
}

func newClaim() *Claim {
	return &Claim{claimed: make(chan struct{}), ready: make(chan struct{})}
}

// Wait blocks until the seat is handed over and returns the resume phase.
// phase.GameOver means the game ended before the hand-off.
func (c *Claim) Wait(ctx context.Context) (phase.Phase, error) {
	select {
	case <-c.ready:
		return c.resume, nil
	case <-ctx.Done():
		return phase.None, ctx.Err()
	}
}

type Registry struct {
	mu       sync.Mutex
	entries  []*entry
	byCookie map[string]*entry
	seated   bool
	game     int
	changed  chan struct{}
}

func New() *Registry {
	return &Registry{
		byCookie: make(map[string]*entry),
		changed:  make(chan struct{}),
	}
}

func (r *Registry) notify() {
	close(r.changed)
	r.changed = make(chan struct{})
}

// Join registers a new player and returns its cookie.
func (r *Registry) Join(name string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.entries) >= Seats {
		return "", ErrHallFull
	}
	var cookie string
	for {
		c, err := GenerateCookie()
		if err != nil {
			return "", err
		}
		if r.byCookie[c] == nil {
			cookie = c
			break
		}
	}
	e := &entry{cookie: cookie, name: name, seat: NoSeat}
	r.entries = append(r.entries, e)
	r.byCookie[cookie] = e
	r.notify()
	return cookie, nil
}

// Drop forgets a player whose handshake failed before the deal.
func (r *Registry) Drop(cookie string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e := r.byCookie[cookie]
	if e == nil || r.seated {
		return
	}
	delete(r.byCookie, cookie)
	for i, x := range r.entries {
		if x == e {
			r.entries = append(r.entries[:i], r.entries[i+1:]...)
			break
		}
	}
	r.notify()
}

func (r *Registry) Known(cookie string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.byCookie[cookie] != nil
}

func (r *Registry) Full() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries) >= Seats
}

// Game counts the tables served so far.
func (r *Registry) Game() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.game
}

// Hall returns the waiting hall and a channel closed on its next change.
func (r *Registry) Hall() (types.Hall, <-chan struct{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	h := types.Hall{
		Names:   make([]string, len(r.entries)),
		Offline: make([]bool, len(r.entries)),
	}
	for i, e := range r.entries {
		h.Names[i] = e.name
		h.Offline[i] = e.offline
	}
	return h, r.changed
}

// Seat fixes the seat order. shuffle permutes the join order; nil keeps it.
func (r *Registry) Seat(shuffle func(n int, swap func(i, j int))) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.seated {
		return ErrSeated
	}
	if shuffle != nil {
		shuffle(len(r.entries), func(i, j int) {
			r.entries[i], r.entries[j] = r.entries[j], r.entries[i]
		})
	}
	for i, e := range r.entries {
		e.seat = i
	}
	r.seated = true
	r.notify()
	return nil
}

func (r *Registry) SeatOf(cookie string) (int, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e := r.byCookie[cookie]
	if e == nil || e.seat == NoSeat {
		return NoSeat, false
	}
	return e.seat, true
}

// Names and offline flags in seat order.
func (r *Registry) Names() (names [Seats]string, offline [Seats]bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, e := range r.entries {
		if i >= Seats {
			break
		}
		names[i] = e.name
		offline[i] = e.offline
	}
	return names, offline
}

// Record stores the protocol phase a live session just entered.
func (r *Registry) Record(cookie string, p phase.Phase) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e := r.byCookie[cookie]; e != nil {
		e.phase = p
	}
}

// MarkOffline flags the seat as disconnected and opens it for reclaiming.
func (r *Registry) MarkOffline(cookie string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e := r.byCookie[cookie]
	if e == nil || e.offline {
		return
	}
	e.offline = true
	e.claim = newClaim()
	r.notify()
}

// Reclaim claims an offline seat for a reconnecting client. A seat whose
// session is still connected cannot be claimed.
func (r *Registry) Reclaim(cookie string) (*Claim, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e := r.byCookie[cookie]
	if e == nil {
		return nil, ErrUnknownCookie
	}
	if !e.offline || e.claim == nil {
		return nil, ErrRecoveryRejected
	}
	e.offline = false
	close(e.claim.claimed)
	r.notify()
	return e.claim, nil
}

// Claimed reports whether a reconnecting client is waiting for the seat.
func (r *Registry) Claimed(cookie string) bool {
	r.mu.Lock()
	c := r.claimOf(cookie)
	r.mu.Unlock()
	if c == nil {
		return false
	}
	select {
	case <-c.claimed:
		return true
	default:
		return false
	}
}

// AwaitClaim blocks until a reconnecting client claims the seat.
func (r *Registry) AwaitClaim(ctx context.Context, cookie string) error {
	r.mu.Lock()
	c := r.claimOf(cookie)
	r.mu.Unlock()
	if c == nil {
		return ErrUnknownCookie
	}
	select {
	case <-c.claimed:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *Registry) claimOf(cookie string) *Claim {
	if e := r.byCookie[cookie]; e != nil {
		return e.claim
	}
	return nil
}

// HandOff resolves the seat's claim with the phase the new session resumes
// at. The descriptor is consumed: the seat has no claim afterwards.
func (r *Registry) HandOff(cookie string, p phase.Phase) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e := r.byCookie[cookie]
	if e == nil || e.claim == nil {
		return
	}
	e.phase = p
	c := e.claim
	e.claim = nil
	c.resume = p
	close(c.ready)
}

// Reset wipes the registry for a new table. Pending reconnections resolve
// with phase.GameOver.
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.entries {
		if e.claim != nil {
			e.claim.resume = phase.GameOver
			close(e.claim.ready)
		}
	}
	r.entries = nil
	r.byCookie = make(map[string]*entry)
	r.seated = false
	r.game++
	r.notify()
}

// EntryView is the registry as reported on the admin endpoint.
type EntryView struct {
	Name    string `json:"name"`
	Seat    int    `json:"seat"`
	Offline bool   `json:"offline"`
	Phase   string `json:"phase"`
}

func (r *Registry) Entries() []EntryView {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]EntryView, len(r.entries))
	for i, e := range r.entries {
		out[i] = EntryView{Name: e.name, Seat: e.seat, Offline: e.offline, Phase: e.phase.String()}
	}
	return out
}
