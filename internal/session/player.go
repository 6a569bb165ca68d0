package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/DoyleJ11/liujiatong-server/internal/engine"
	"github.com/DoyleJ11/liujiatong-server/internal/lobby"
	"github.com/DoyleJ11/liujiatong-server/internal/phase"
	"github.com/DoyleJ11/liujiatong-server/internal/types"
	"go.uber.org/zap"
)

// replayPath is the order a reconnected player catches up in: every I/O
// phase a fresh client needs, without any barrier.
var replayPath = []phase.Phase{
	phase.Init,
	phase.SendWaitingHallInfo,
	phase.SendFieldInfo,
	phase.SendRoundInfo,
	phase.RecvPlayerInfo,
}

// Player owns one seat. After a connection failure it keeps walking the
// barriers with its I/O skipped, and gives the seat to a reconnecting
// client at the next I/O phase.
type Player struct {
	env    *Env
	conn   Conn
	cookie string
	log    *zap.Logger

	seat     int
	gameOver int
	turn     int

	resume    phase.Phase // replay target, phase.None when live from the start
	failed    bool
	handedOff bool
}

func NewPlayer(env *Env, conn Conn, cookie string, log *zap.Logger) *Player {
	return &Player{
		env:    env,
		conn:   conn,
		cookie: cookie,
		log:    log,
		seat:   lobby.NoSeat,
	}
}

// ResumePlayer takes over a seat handed off at resume. It loads the values
// a live session would have cached at its last barrier.
func ResumePlayer(env *Env, conn Conn, cookie string, resume phase.Phase, log *zap.Logger) *Player {
	p := NewPlayer(env, conn, cookie, log)
	p.resume = resume
	if seat, ok := env.Registry.SeatOf(cookie); ok {
		p.seat = seat
		p.log = p.log.With(zap.Int("seat", seat))
	}
	p.gameOver, p.turn = env.Table.Status()
	return p
}

func (p *Player) Run(ctx context.Context) error {
	defer p.conn.Close()
	return run(ctx, p, p.log)
}

func (p *Player) next(cur phase.Phase) (phase.Phase, bool) {
	if cur == phase.GameOver {
		return phase.None, false
	}
	if p.handedOff {
		return phase.GameOver, true
	}

	nxt := p.transition(cur)
	if nxt == phase.None {
		return phase.None, false
	}
	if !p.failed {
		p.env.Registry.Record(p.cookie, nxt)
	}
	return nxt, true
}

func (p *Player) transition(cur phase.Phase) phase.Phase {
	if p.resume != phase.None {
		for i, ph := range replayPath[:len(replayPath)-1] {
			if ph != cur {
				continue
			}
			nxt := replayPath[i+1]
			if nxt == p.resume {
				p.resume = phase.None
			}
			return nxt
		}
		p.resume = phase.None
	}

	switch cur {
	case phase.Init:
		return phase.SendWaitingHallInfo
	case phase.SendWaitingHallInfo:
		return phase.InitSync
	case phase.InitSync:
		return phase.GameStartSync
	case phase.GameStartSync:
		return phase.SendFieldInfo
	case phase.SendFieldInfo:
		return phase.SendRoundInfo
	case phase.SendRoundInfo:
		return phase.SendRoundInfoSync
	case phase.SendRoundInfoSync:
		switch {
		case p.gameOver != 0:
			return phase.GameOver
		case p.turn == p.seat:
			return phase.RecvPlayerInfo
		default:
			return phase.RecvPlayerInfoSync
		}
	case phase.RecvPlayerInfo:
		return phase.RecvPlayerInfoSync
	case phase.RecvPlayerInfoSync:
		return phase.NextTurnSync
	case phase.NextTurnSync:
		return phase.SendRoundInfo
	}
	return phase.None
}

func (p *Player) handlers() map[phase.Phase]handler {
	b := p.env.Barriers
	return map[phase.Phase]handler{
		phase.SendWaitingHallInfo: p.sendWaitingHallInfo,
		phase.InitSync:            b.Init.Wait,
		phase.GameStartSync:       p.gameStartSync,
		phase.SendFieldInfo:       p.sendFieldInfo,
		phase.SendRoundInfo:       p.sendRoundInfo,
		phase.SendRoundInfoSync:   b.SendRoundInfo.Wait,
		phase.RecvPlayerInfo:      p.recvPlayerInfo,
		phase.RecvPlayerInfoSync:  b.RecvPlayerInfo.Wait,
		phase.NextTurnSync:        p.nextTurnSync,
		phase.GameOver:            p.over,
	}
}

func (p *Player) sendWaitingHallInfo(ctx context.Context) error {
	if p.failed {
		return p.yield(ctx, phase.SendWaitingHallInfo, false)
	}
	for {
		hall, changed := p.env.Registry.Hall()
		if err := p.conn.SendHall(hall); err != nil {
			p.disconnect(err)
			return p.yield(ctx, phase.SendWaitingHallInfo, false)
		}
		if hall.Full() {
			return nil
		}
		select {
		case <-changed:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (p *Player) gameStartSync(ctx context.Context) error {
	if err := p.env.Barriers.GameStart.Wait(ctx); err != nil {
		return err
	}
	seat, ok := p.env.Registry.SeatOf(p.cookie)
	if !ok {
		return fmt.Errorf("%w: no seat after the deal", lobby.ErrUnknownCookie)
	}
	p.seat = seat
	p.log = p.log.With(zap.Int("seat", seat))
	p.gameOver, p.turn = p.env.Table.Status()
	return nil
}

func (p *Player) sendFieldInfo(ctx context.Context) error {
	if p.failed {
		return p.yield(ctx, phase.SendFieldInfo, false)
	}
	names, _ := p.env.Registry.Names()
	if err := p.conn.SendField(types.Field{IsPlayer: true, Names: names, Seat: p.seat}); err != nil {
		p.disconnect(err)
		return p.yield(ctx, phase.SendFieldInfo, false)
	}
	return nil
}

func (p *Player) sendRoundInfo(ctx context.Context) error {
	if p.failed {
		return p.yield(ctx, phase.SendRoundInfo, false)
	}
	if err := p.conn.SendRound(p.env.Table.Round(p.seat)); err != nil {
		p.disconnect(err)
		return p.yield(ctx, phase.SendRoundInfo, false)
	}
	return nil
}

// recvPlayerInfo reads plays until one is legal. Illegal plays are
// answered with a false verdict and the client plays again.
func (p *Player) recvPlayerInfo(ctx context.Context) error {
	if p.failed {
		return p.yield(ctx, phase.RecvPlayerInfo, true)
	}
	for {
		reply, err := p.readReply()
		if err != nil {
			p.disconnect(err)
			return p.yield(ctx, phase.RecvPlayerInfo, true)
		}

		err = p.env.Table.Play(p.seat, reply.Play)
		accepted := err == nil
		if verr := p.conn.SendVerdict(accepted); verr != nil {
			p.disconnect(verr)
			if accepted {
				// The play stands; a reconnection picks up at the next round.
				return nil
			}
			return p.yield(ctx, phase.RecvPlayerInfo, true)
		}
		if accepted {
			p.checkReply(reply)
			return nil
		}
		if !errors.Is(err, engine.ErrIllegalPlay) {
			p.log.Error("play rejected", zap.Error(err))
			continue
		}
		p.log.Info("illegal play", zap.Error(err), zap.Int("cards", len(reply.Play.Cards)))
	}
}

// readReply waits out the heartbeats, then reads the play.
func (p *Player) readReply() (types.Reply, error) {
	for {
		finished, err := p.conn.RecvHeartbeat()
		if err != nil {
			return types.Reply{}, err
		}
		if finished {
			break
		}
	}
	return p.conn.RecvReply()
}

// checkReply compares the client's own bookkeeping with the table. The
// table wins; a mismatch only means the client drifted.
func (p *Player) checkReply(reply types.Reply) {
	r := p.env.Table.Round(p.seat)
	if len(reply.Hand) != len(r.MyHand) || reply.TrickScore != r.TrickScore {
		p.log.Warn("client state out of sync",
			zap.Int("client_hand", len(reply.Hand)), zap.Int("hand", len(r.MyHand)),
			zap.Int("client_trick_score", reply.TrickScore), zap.Int("trick_score", r.TrickScore))
	}
}

func (p *Player) nextTurnSync(ctx context.Context) error {
	if err := p.env.Barriers.NextTurn.Wait(ctx); err != nil {
		return err
	}
	p.gameOver, p.turn = p.env.Table.Status()
	return nil
}

func (p *Player) over(ctx context.Context) error {
	switch {
	case p.handedOff:
		p.log.Info("session replaced by reconnection")
	case p.failed:
		if p.env.Registry.Claimed(p.cookie) {
			p.env.Registry.HandOff(p.cookie, phase.GameOver)
		}
		p.log.Info("game over while offline")
	default:
		p.log.Info("game over", zap.Int("result", p.gameOver))
	}
	return nil
}

// disconnect marks the seat offline so a client holding the cookie can
// claim it back.
func (p *Player) disconnect(err error) {
	if p.failed {
		return
	}
	p.failed = true
	p.log.Warn("connection lost", zap.Error(err))
	p.env.Registry.MarkOffline(p.cookie)
	_ = p.conn.Close()
}

// yield hands the seat to a waiting reconnection at phase ph. With wait
// set it blocks until one arrives: the table cannot move without this seat.
func (p *Player) yield(ctx context.Context, ph phase.Phase, wait bool) error {
	reg := p.env.Registry
	if wait {
		p.log.Info("waiting for seat to reconnect", zap.Stringer("phase", ph))
		if err := reg.AwaitClaim(ctx, p.cookie); err != nil {
			return err
		}
	} else if !reg.Claimed(p.cookie) {
		return nil
	}
	reg.HandOff(p.cookie, ph)
	p.handedOff = true
	p.log.Info("seat handed off", zap.Stringer("phase", ph))
	return nil
}
