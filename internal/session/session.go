// Package session runs one protocol state machine per participant: a
// Player per seat, an Onlooker per spectator and the single Manager that
// owns the table.
package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/DoyleJ11/liujiatong-server/internal/barrier"
	"github.com/DoyleJ11/liujiatong-server/internal/game"
	"github.com/DoyleJ11/liujiatong-server/internal/lobby"
	"github.com/DoyleJ11/liujiatong-server/internal/phase"
	"github.com/DoyleJ11/liujiatong-server/internal/types"
	"go.uber.org/zap"
)

var ErrUnsupportedPhase = errors.New("unsupported phase")

// Parties at every fixed barrier: six players and the manager.
const Parties = game.Seats + 1

// Conn is the socket side of a player or onlooker.
type Conn interface {
	SendHall(types.Hall) error
	SendField(types.Field) error
	SendRound(types.Round) error
	SendVerdict(accepted bool) error
	RecvHeartbeat() (bool, error)
	RecvReply() (types.Reply, error)
	Close() error
}

// Publisher receives the public table view at every broadcast.
type Publisher interface {
	Publish(ctx context.Context, snap types.Snapshot)
}

type Barriers struct {
	Init           *barrier.Barrier
	GameStart      *barrier.Barrier
	SendRoundInfo  *barrier.Barrier
	RecvPlayerInfo *barrier.Barrier
	NextTurn       *barrier.Barrier
}

func NewBarriers() *Barriers {
	return &Barriers{
		Init:           barrier.New(Parties),
		GameStart:      barrier.New(Parties),
		SendRoundInfo:  barrier.New(Parties),
		RecvPlayerInfo: barrier.New(Parties),
		NextTurn:       barrier.New(Parties),
	}
}

// Env is everything the sessions of one server share.
type Env struct {
	Table    *game.Table
	Registry *lobby.Registry
	Barriers *Barriers
	Gallery  *barrier.Gallery
	Feed     Publisher // optional
	Static   bool      // keep join order as seat order
	Log      *zap.Logger
}

type handler func(ctx context.Context) error

type machine interface {
	next(cur phase.Phase) (phase.Phase, bool)
	handlers() map[phase.Phase]handler
}

// run drives m from Init until its transition function reports no next
// phase. Only fatal errors (cancellation, broken invariants) stop it early;
// connection failures are absorbed by the roles themselves.
func run(ctx context.Context, m machine, log *zap.Logger) error {
	table := m.handlers()
	cur := phase.Init
	for {
		nxt, ok := m.next(cur)
		if !ok {
			return nil
		}
		h, ok := table[nxt]
		if !ok {
			return fmt.Errorf("%w: %s", ErrUnsupportedPhase, nxt)
		}
		cur = nxt
		if ce := log.Check(zap.DebugLevel, "phase"); ce != nil {
			ce.Write(zap.Stringer("phase", cur))
		}
		if err := h(ctx); err != nil {
			return fmt.Errorf("%s: %w", cur, err)
		}
	}
}
