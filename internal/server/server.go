// Package server accepts game connections, runs the handshake and hands
// each connection to its session.
package server

import (
	"context"
	"errors"
	"net"
	"sync"
	"time"

	"github.com/DoyleJ11/liujiatong-server/internal/game"
	"github.com/DoyleJ11/liujiatong-server/internal/lobby"
	"github.com/DoyleJ11/liujiatong-server/internal/phase"
	"github.com/DoyleJ11/liujiatong-server/internal/session"
	"github.com/DoyleJ11/liujiatong-server/internal/wire"
	"github.com/google/uuid"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type Server struct {
	env       *session.Env
	log       *zap.Logger
	readWait  time.Duration
	writeWait time.Duration
	maxFrame  int
	wg        sync.WaitGroup
}

type Option func(*Server)

// WithReadTimeout drops a client that stays silent this long while the
// server is reading from it.
func WithReadTimeout(d time.Duration) Option { return func(s *Server) { s.readWait = d } }

// WithWriteTimeout drops a client that stops reading: a write that cannot
// complete in d counts as a lost connection.
func WithWriteTimeout(d time.Duration) Option { return func(s *Server) { s.writeWait = d } }

func WithMaxFrame(n int) Option { return func(s *Server) { s.maxFrame = n } }

func New(env *session.Env, opts ...Option) *Server {
	s := &Server{env: env, log: env.Log, maxFrame: wire.DefaultMaxFrame}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Serve runs the manager and accepts connections on ln until ctx ends.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		err := session.NewManager(s.env).Run(ctx)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})
	g.Go(func() error {
		<-ctx.Done()
		return ln.Close()
	})
	g.Go(func() error {
		defer s.wg.Wait()
		for {
			nc, err := ln.Accept()
			if err != nil {
				if ctx.Err() != nil {
					return nil
				}
				return err
			}
			s.wg.Add(1)
			go func() {
				defer s.wg.Done()
				s.Handle(ctx, nc)
			}()
		}
	})

	s.log.Info("game server listening", zap.String("addr", ln.Addr().String()))
	err := g.Wait()
	if errors.Is(err, net.ErrClosed) {
		return nil
	}
	return err
}

type runner interface {
	Run(ctx context.Context) error
}

// Handle runs one connection to completion.
func (s *Server) Handle(ctx context.Context, nc net.Conn) {
	log := s.log.With(zap.String("conn", uuid.NewString()), zap.String("remote", nc.RemoteAddr().String()))
	stop := context.AfterFunc(ctx, func() { _ = nc.Close() })
	defer stop()

	conn := wire.NewConn(nc,
		wire.WithMaxFrame(s.maxFrame),
		wire.WithReadTimeout(s.readWait),
		wire.WithWriteTimeout(s.writeWait))
	r, err := s.handshake(ctx, conn, log)
	if err != nil {
		log.Info("handshake failed", zap.Error(multierr.Append(err, conn.Close())))
		return
	}
	if r == nil {
		_ = conn.Close()
		return
	}
	if err := r.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("session ended", zap.Error(err))
	}
}

// handshake identifies the client. It returns a nil runner when the
// connection has nothing left to do.
func (s *Server) handshake(ctx context.Context, conn *wire.Conn, log *zap.Logger) (runner, error) {
	reg := s.env.Registry

	hasCookie, err := wire.Recv[bool](conn)
	if err != nil {
		return nil, err
	}
	var cookie string
	if hasCookie {
		if cookie, err = wire.Recv[string](conn); err != nil {
			return nil, err
		}
	}

	if hasCookie && reg.Known(cookie) {
		if err := conn.Send(true); err != nil {
			return nil, err
		}
		return s.reclaim(ctx, conn, cookie, log)
	}
	if err := conn.Send(false); err != nil {
		return nil, err
	}

	name, err := wire.Recv[string](conn)
	if err != nil {
		return nil, err
	}
	cookie, err = reg.Join(name)
	if errors.Is(err, lobby.ErrHallFull) {
		if err := conn.Send(nil); err != nil {
			return nil, err
		}
		seat := s.env.Table.Intn(game.Seats)
		log.Info("onlooker joined", zap.String("name", name), zap.Int("watching", seat))
		return session.NewOnlooker(s.env, conn, seat, log.With(zap.String("name", name))), nil
	}
	if err != nil {
		return nil, err
	}
	if err := conn.Send(cookie); err != nil {
		reg.Drop(cookie)
		return nil, err
	}
	log = log.With(zap.String("name", name))
	log.Info("player joined")
	return session.NewPlayer(s.env, conn, cookie, log), nil
}

// reclaim claims an offline seat and waits for its live session to hand
// it over.
func (s *Server) reclaim(ctx context.Context, conn *wire.Conn, cookie string, log *zap.Logger) (runner, error) {
	claim, err := s.env.Registry.Reclaim(cookie)
	if err != nil {
		log.Info("recovery rejected", zap.Error(err))
		return nil, multierr.Append(err, conn.Send(false))
	}
	if err := conn.Send(true); err != nil {
		// The seat is claimed now; the resumed session will notice the
		// broken connection and release it again.
		log.Warn("recovery reply failed", zap.Error(err))
	}

	resume, err := claim.Wait(ctx)
	if err != nil {
		return nil, err
	}
	if resume == phase.GameOver {
		log.Info("game ended before recovery")
		return nil, nil
	}
	log.Info("player recovered", zap.Stringer("resume", resume))
	return session.ResumePlayer(s.env, conn, cookie, resume, log), nil
}
