package session

import (
	"context"
	"errors"

	"github.com/DoyleJ11/liujiatong-server/internal/barrier"
	"github.com/DoyleJ11/liujiatong-server/internal/phase"
	"github.com/DoyleJ11/liujiatong-server/internal/types"
	"go.uber.org/zap"
)

// Onlooker watches one seat's view of the table. It is paced by the
// gallery, never by the fixed barriers.
type Onlooker struct {
	env  *Env
	conn Conn
	seat int
	log  *zap.Logger

	ticket   *barrier.Ticket
	round    *barrier.Round
	gameOver int
	failed   bool
}

func NewOnlooker(env *Env, conn Conn, seat int, log *zap.Logger) *Onlooker {
	return &Onlooker{env: env, conn: conn, seat: seat, log: log.With(zap.Int("watching", seat))}
}

func (o *Onlooker) Run(ctx context.Context) error {
	defer o.conn.Close()
	return run(ctx, o, o.log)
}

func (o *Onlooker) next(cur phase.Phase) (phase.Phase, bool) {
	if cur == phase.GameOver {
		return phase.None, false
	}
	if o.failed && cur != phase.SendRoundInfo {
		return phase.GameOver, true
	}
	switch cur {
	case phase.Init:
		return phase.SendWaitingHallInfo, true
	case phase.SendWaitingHallInfo:
		return phase.OnlookerRegister, true
	case phase.OnlookerRegister:
		return phase.SendFieldInfo, true
	case phase.SendFieldInfo:
		return phase.OnlookerSync, true
	case phase.OnlookerSync:
		return phase.SendRoundInfo, true
	case phase.SendRoundInfo:
		return phase.SendRoundInfoSync, true
	case phase.SendRoundInfoSync:
		if o.gameOver != 0 {
			return phase.GameOver, true
		}
		return phase.OnlookerSync, true
	}
	return phase.None, false
}

func (o *Onlooker) handlers() map[phase.Phase]handler {
	return map[phase.Phase]handler{
		phase.SendWaitingHallInfo: o.sendWaitingHallInfo,
		phase.OnlookerRegister:    o.register,
		phase.SendFieldInfo:       o.sendFieldInfo,
		phase.OnlookerSync:        o.sync,
		phase.SendRoundInfo:       o.sendRoundInfo,
		phase.SendRoundInfoSync:   o.roundDone,
		phase.GameOver:            o.over,
	}
}

// The hall is full by the time a spectator is admitted, so one frame does.
func (o *Onlooker) sendWaitingHallInfo(ctx context.Context) error {
	hall, _ := o.env.Registry.Hall()
	o.check(o.conn.SendHall(hall))
	return nil
}

func (o *Onlooker) register(ctx context.Context) error {
	t, err := o.env.Gallery.Join(ctx)
	if errors.Is(err, barrier.ErrGalleryClosed) {
		o.failed = true
		return nil
	}
	if err != nil {
		return err
	}
	o.ticket = t
	return nil
}

func (o *Onlooker) sendFieldInfo(ctx context.Context) error {
	names, _ := o.env.Registry.Names()
	o.check(o.conn.SendField(types.Field{IsPlayer: false, Names: names, Seat: o.seat}))
	return nil
}

func (o *Onlooker) sync(ctx context.Context) error {
	r, err := o.ticket.Await(ctx)
	if errors.Is(err, barrier.ErrGalleryClosed) {
		o.failed = true
		return nil
	}
	if err != nil {
		return err
	}
	o.round = r
	o.gameOver = r.GameOver
	return nil
}

func (o *Onlooker) sendRoundInfo(ctx context.Context) error {
	if !o.failed {
		o.check(o.conn.SendRound(o.env.Table.Round(o.seat)))
	}
	return nil
}

func (o *Onlooker) roundDone(ctx context.Context) error {
	o.ticket.Done(o.round)
	return nil
}

func (o *Onlooker) over(ctx context.Context) error {
	if o.ticket != nil {
		o.ticket.Leave()
	}
	o.log.Info("onlooker left", zap.Bool("failed", o.failed), zap.Int("result", o.gameOver))
	return nil
}

func (o *Onlooker) check(err error) {
	if err == nil || o.failed {
		return
	}
	o.failed = true
	o.log.Info("onlooker connection lost", zap.Error(err))
	_ = o.conn.Close()
}
