package game

import (
	"errors"
	"fmt"
	"math/rand"
	"slices"

	"github.com/DoyleJ11/liujiatong-server/internal/card"
	"github.com/DoyleJ11/liujiatong-server/internal/engine"
	"github.com/DoyleJ11/liujiatong-server/internal/types"
)

var ErrWrongTurn = errors.New("not this seat's turn")
var ErrAlreadyPlayed = errors.New("seat already played this turn")
var ErrNoPlay = errors.New("no play to resolve")
var ErrGameOver = errors.New("game is over")

const (
	Seats        = card.Seats
	NoLead       = -1
	NoHeadMaster = -1
	WinScore     = 200
	EscapesToWin = 3
)

// State is the authoritative record of one game. It holds no lock; Table
// serialises access to it.
type State struct {
	Hands         [Seats][]card.Card
	Played        [Seats][]card.Card
	PersonalScore [Seats]int
	TeamScore     [2]int
	TeamEscapes   [2]int
	Finished      [Seats]bool
	TurnOrder     int
	LastPlayer    int
	HeadMaster    int
	TrickScore    int
	GameOver      int
	Discarded     int

	acted bool
}

func NewState() State {
	return State{LastPlayer: NoLead, HeadMaster: NoHeadMaster}
}

func Team(seat int) int { return seat % 2 }

// DealNewGame resets every aggregate and deals a freshly shuffled deck.
func (s *State) DealNewGame(rng *rand.Rand) {
	deck := card.NewDeck()
	card.Shuffle(rng, deck)
	*s = NewState()
	s.Hands = card.Deal(deck)
}

// Leading reports whether seat opens the current trick.
func (s *State) Leading(seat int) bool {
	return s.LastPlayer == NoLead || s.LastPlayer == seat
}

// Previous is the play the seat on turn has to beat, nil when leading.
func (s *State) Previous() []card.Card {
	if s.Leading(s.TurnOrder) {
		return nil
	}
	return s.Played[s.LastPlayer]
}

// ApplyPlay validates and commits seat's play. A pass leaves the hand and
// the lead untouched.
func (s *State) ApplyPlay(seat int, play types.Play) error {
	switch {
	case s.GameOver != 0:
		return ErrGameOver
	case seat != s.TurnOrder:
		return fmt.Errorf("%w: seat %d, turn %d", ErrWrongTurn, seat, s.TurnOrder)
	case s.acted || len(s.Played[seat]) != 0:
		return ErrAlreadyPlayed
	}

	cards := play.Cards
	if play.Pass {
		cards = nil
	}
	if err := engine.Validate(cards, s.Hands[seat], s.Previous(), s.Leading(seat)); err != nil {
		return err
	}

	if len(cards) == 0 {
		s.acted = true
		return nil
	}
	rest, removed, ok := card.Remove(s.Hands[seat], cards)
	if !ok {
		return engine.ErrNotInHand
	}
	s.acted = true
	s.Hands[seat] = rest
	s.Played[seat] = removed
	s.Discarded += len(removed)
	s.LastPlayer = seat
	s.TrickScore += engine.Score(removed)
	return nil
}

// Round is what seat sees this turn. Cards are copied so the snapshot can
// be sent without holding the table lock.
func (s *State) Round(seat int) types.Round {
	r := types.Round{
		GameOver:   s.GameOver,
		Scores:     s.PersonalScore,
		TrickScore: s.TrickScore,
		TurnOrder:  s.TurnOrder,
		HeadMaster: s.HeadMaster,
		MyHand:     slices.Clone(s.Hands[seat]),
	}
	for i := 0; i < Seats; i++ {
		r.HandCounts[i] = len(s.Hands[i])
		r.Played[i] = slices.Clone(s.Played[i])
	}
	if s.GameOver != 0 {
		all := s.hands()
		r.AllHands = &all
	}
	return r
}

func (s *State) hands() [Seats][]card.Card {
	var out [Seats][]card.Card
	for i := 0; i < Seats; i++ {
		out[i] = slices.Clone(s.Hands[i])
	}
	return out
}

// Public is the watcher view; hands stay hidden until the game is over.
func (s *State) Public(names [Seats]string, offline [Seats]bool) types.Snapshot {
	snap := types.Snapshot{
		TeamScore:  s.TeamScore,
		Escapes:    s.TeamEscapes,
		TrickScore: s.TrickScore,
		TurnOrder:  s.TurnOrder,
		HeadMaster: s.HeadMaster,
		GameOver:   s.GameOver,
	}
	for i := 0; i < Seats; i++ {
		snap.Seats[i] = types.Seat{
			Name:      names[i],
			Offline:   offline[i],
			HandCount: len(s.Hands[i]),
			Score:     s.PersonalScore[i],
			Played:    slices.Clone(s.Played[i]),
		}
	}
	if s.GameOver != 0 {
		all := s.hands()
		snap.AllHands = &all
	}
	return snap
}

// Winner decodes a game-over value into the winning team and whether it
// was a double win.
func Winner(gameOver int) (team int, double bool, ok bool) {
	switch {
	case gameOver > 0:
		return gameOver - 1, false, true
	case gameOver < 0:
		return -gameOver - 1, true, true
	}
	return 0, false, false
}
