package session

import (
	"context"

	"github.com/DoyleJ11/liujiatong-server/internal/game"
	"github.com/DoyleJ11/liujiatong-server/internal/phase"
	"go.uber.org/zap"
)

// Manager owns the table: it seats and deals, paces every broadcast and
// advances the turn. It runs one game after another until ctx ends.
type Manager struct {
	env      *Env
	log      *zap.Logger
	gameOver int
	games    int
}

func NewManager(env *Env) *Manager {
	return &Manager{env: env, log: env.Log.Named("manager")}
}

func (m *Manager) Run(ctx context.Context) error {
	return run(ctx, m, m.log)
}

func (m *Manager) next(cur phase.Phase) (phase.Phase, bool) {
	switch cur {
	case phase.Init, phase.GameOver:
		return phase.InitSync, true
	case phase.InitSync:
		return phase.GameStart, true
	case phase.GameStart:
		return phase.GameStartSync, true
	case phase.GameStartSync, phase.NextTurnSync:
		return phase.SendRoundInfo, true
	case phase.SendRoundInfo:
		return phase.SendRoundInfoSync, true
	case phase.SendRoundInfoSync:
		if m.gameOver != 0 {
			return phase.GameOver, true
		}
		return phase.RecvPlayerInfoSync, true
	case phase.RecvPlayerInfoSync:
		return phase.NextTurn, true
	case phase.NextTurn:
		return phase.NextTurnSync, true
	}
	return phase.None, false
}

func (m *Manager) handlers() map[phase.Phase]handler {
	b := m.env.Barriers
	return map[phase.Phase]handler{
		phase.InitSync:           b.Init.Wait,
		phase.GameStart:          m.gameStart,
		phase.GameStartSync:      m.gameStartSync,
		phase.SendRoundInfo:      m.sendRoundInfo,
		phase.SendRoundInfoSync:  b.SendRoundInfo.Wait,
		phase.RecvPlayerInfoSync: b.RecvPlayerInfo.Wait,
		phase.NextTurn:           m.nextTurn,
		phase.NextTurnSync:       m.nextTurnSync,
		phase.GameOver:           m.over,
	}
}

func (m *Manager) gameStart(ctx context.Context) error {
	var shuffle func(n int, swap func(i, j int))
	if !m.env.Static {
		shuffle = m.env.Table.Shuffle
	}
	if err := m.env.Registry.Seat(shuffle); err != nil {
		return err
	}
	m.env.Table.Deal()
	m.games++
	names, _ := m.env.Registry.Names()
	m.log.Info("game started", zap.Int("game", m.games), zap.Strings("seats", names[:]))
	return nil
}

func (m *Manager) gameStartSync(ctx context.Context) error {
	if err := m.env.Barriers.GameStart.Wait(ctx); err != nil {
		return err
	}
	m.gameOver, _ = m.env.Table.Status()
	m.env.Gallery.Open()
	return nil
}

// sendRoundInfo paces the spectators: players are paced by the barrier
// that follows, onlookers by the gallery round.
func (m *Manager) sendRoundInfo(ctx context.Context) error {
	if m.env.Feed != nil {
		names, offline := m.env.Registry.Names()
		m.env.Feed.Publish(ctx, m.env.Table.Public(names, offline))
	}
	return m.env.Gallery.Publish(m.gameOver).Wait(ctx)
}

func (m *Manager) nextTurn(ctx context.Context) error {
	if err := m.env.Table.Advance(); err != nil {
		// Only reachable if the turn seat never played; the table is unchanged.
		m.log.Error("advance turn", zap.Error(err))
	}
	return nil
}

func (m *Manager) nextTurnSync(ctx context.Context) error {
	if err := m.env.Barriers.NextTurn.Wait(ctx); err != nil {
		return err
	}
	m.gameOver, _ = m.env.Table.Status()
	return nil
}

func (m *Manager) over(ctx context.Context) error {
	team, double, _ := game.Winner(m.gameOver)
	m.log.Info("game over",
		zap.Int("game", m.games), zap.Int("winner_team", team), zap.Bool("double", double),
		zap.Int("onlookers", m.env.Gallery.Members()))
	m.env.Gallery.Close()
	m.env.Registry.Reset()
	return nil
}
