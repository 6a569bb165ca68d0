package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"math/rand"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/DoyleJ11/liujiatong-server/internal/barrier"
	"github.com/DoyleJ11/liujiatong-server/internal/config"
	"github.com/DoyleJ11/liujiatong-server/internal/game"
	"github.com/DoyleJ11/liujiatong-server/internal/httpapi"
	"github.com/DoyleJ11/liujiatong-server/internal/hub"
	"github.com/DoyleJ11/liujiatong-server/internal/lobby"
	"github.com/DoyleJ11/liujiatong-server/internal/logger"
	"github.com/DoyleJ11/liujiatong-server/internal/server"
	"github.com/DoyleJ11/liujiatong-server/internal/session"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	var (
		envFile = flag.String("env", ".env", "dotenv file to load, missing is fine")
		ip      = flag.String("ip", "", "game server listen ip")
		port    = flag.Int("port", 0, "game server listen port")
		httpOn  = flag.String("http", "", "admin http listen address, \"off\" disables it")
		static  bool
	)
	flag.BoolVar(&static, "static", false, "seat players in join order")
	flag.BoolVar(&static, "s", false, "shorthand for --static")
	flag.Parse()

	cfg, err := config.Load(*envFile)
	if err != nil {
		return err
	}
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "ip":
			cfg.IP = *ip
		case "port":
			cfg.Port = *port
		case "http":
			cfg.HTTPAddr = *httpOn
			if *httpOn == "off" {
				cfg.HTTPAddr = ""
			}
		case "static", "s":
			cfg.Static = static
		}
	})
	if err := cfg.Validate(); err != nil {
		return err
	}

	log, err := logger.New(cfg.LogLevel, cfg.LogDev)
	if err != nil {
		return err
	}
	defer log.Sync()

	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	h := hub.NewHub(ctx, log.Named("hub"))
	reg := lobby.New()
	env := &session.Env{
		Table:    game.NewTable(rand.New(rand.NewSource(seed))),
		Registry: reg,
		Barriers: session.NewBarriers(),
		Gallery:  barrier.NewGallery(),
		Feed:     h,
		Static:   cfg.Static,
		Log:      log,
	}
	srv := server.New(env, server.WithReadTimeout(cfg.ReadTimeout),
		server.WithWriteTimeout(cfg.WriteTimeout), server.WithMaxFrame(cfg.MaxFrame))

	ln, err := net.Listen("tcp", cfg.GameAddr())
	if err != nil {
		return err
	}
	log.Info("starting", zap.String("game", cfg.GameAddr()), zap.String("http", cfg.HTTPAddr),
		zap.Bool("static", cfg.Static), zap.Int64("seed", seed))

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return srv.Serve(ctx, ln) })

	if cfg.HTTPAddr != "" {
		hs := &http.Server{Addr: cfg.HTTPAddr, Handler: httpapi.SetupRoutes(h, reg, log)}
		g.Go(func() error {
			if err := hs.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return hs.Shutdown(shutdownCtx)
		})
	}

	err = g.Wait()
	select {
	case h.Inbox() <- hub.ShutdownHub{}:
	case <-h.Done():
	}
	log.Info("stopped")
	return err
}
