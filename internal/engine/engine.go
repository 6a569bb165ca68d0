package engine

import (
	"errors"
	"fmt"

	"github.com/DoyleJ11/liujiatong-server/internal/card"
)

var ErrIllegalPlay = errors.New("illegal play")
var ErrNotInHand = fmt.Errorf("%w: cards not in hand", ErrIllegalPlay)
var ErrIllegalCombination = fmt.Errorf("%w: not a valid combination", ErrIllegalPlay)
var ErrCannotBeat = fmt.Errorf("%w: does not beat the previous play", ErrIllegalPlay)
var ErrPassOnLead = fmt.Errorf("%w: cannot pass when leading", ErrIllegalPlay)
var ErrInvalidCard = fmt.Errorf("%w: no such card", ErrIllegalPlay)

type CardType int

const (
	Illegal CardType = iota
	NormalBomb
	SmallJokerBomb
	BigJokerBomb
	Straight
	StraightPairs
	StraightTriples
	Flight
	Single
	Pair
	Triple
	TriplePair
)

var typeNames = [...]string{
	Illegal:         "Illegal",
	NormalBomb:      "NormalBomb",
	SmallJokerBomb:  "SmallJokerBomb",
	BigJokerBomb:    "BigJokerBomb",
	Straight:        "Straight",
	StraightPairs:   "StraightPairs",
	StraightTriples: "StraightTriples",
	Flight:          "Flight",
	Single:          "Single",
	Pair:            "Pair",
	Triple:          "Triple",
	TriplePair:      "TriplePair",
}

func (t CardType) String() string {
	if t < 0 || int(t) >= len(typeNames) {
		return fmt.Sprintf("CardType(%d)", int(t))
	}
	return typeNames[t]
}

// bombFamily orders the bomb types; zero for everything else.
func (t CardType) bombFamily() int {
	switch t {
	case NormalBomb:
		return 1
	case SmallJokerBomb:
		return 2
	case BigJokerBomb:
		return 3
	}
	return 0
}

// Combination is a classified play. Key is the card rank used to compare
// two plays of the same shape; Size is the number of cards.
type Combination struct {
	Type CardType
	Key  int
	Size int
}

func (c Combination) String() string {
	return fmt.Sprintf("%s(key=%d, n=%d)", c.Type, c.Key, c.Size)
}

const (
	maxRunRank = card.RankAce
	maxGroups  = 12
	// A normal bomb of at least this many cards outranks joker bombs.
	bombOverrideSize = 9
)

// Classify resolves cards into a combination, trying bombs first and
// substituting jokers as wildcards wherever a shape allows it.
func Classify(cards []card.Card) Combination {
	t := newTally(cards)
	if t.n == 0 {
		return Combination{Type: Illegal}
	}
	for _, try := range []func(tally) (CardType, int){
		tally.bomb, tally.single, tally.pair, tally.triple, tally.triplePair,
		tally.straight, tally.straightPairs, tally.straightTriples, tally.flight,
	} {
		if typ, key := try(t); typ != Illegal {
			return Combination{Type: typ, Key: key, Size: t.n}
		}
	}
	return Combination{Type: Illegal, Size: t.n}
}

// Compare reports whether candidate may be played on top of previous. An
// Illegal previous means the candidate leads the trick.
func Compare(candidate, previous Combination) bool {
	if candidate.Type == Illegal {
		return false
	}
	if previous.Type == Illegal {
		return true
	}

	cur, last := candidate.Type.bombFamily(), previous.Type.bombFamily()
	switch {
	case cur > 0 && last == 0:
		return true
	case cur == 0 && last > 0:
		return false
	case cur > 0 && last > 0:
		if (last > cur && candidate.Size < bombOverrideSize) || (last < cur && previous.Size >= bombOverrideSize) {
			return false
		}
		if (last > cur && candidate.Size >= bombOverrideSize) || (last < cur && previous.Size < bombOverrideSize) {
			return true
		}
		if candidate.Size != previous.Size {
			return candidate.Size > previous.Size
		}
		return candidate.Key > previous.Key
	}

	return candidate.Type == previous.Type && candidate.Size == previous.Size && candidate.Key > previous.Key
}

// CanBeat classifies both plays and compares them. An empty previous play
// means the candidate leads.
func CanBeat(candidate, previous []card.Card) bool {
	return Compare(Classify(candidate), Classify(previous))
}

// Score is the point value carried by cards: 5 per five, 10 per ten and king.
func Score(cards []card.Card) int {
	n := card.Counts(cards)
	return 5*n[card.RankFive] + 10*(n[card.RankTen]+n[card.RankKing])
}

// EnoughInHand reports whether hand holds at least as many cards of every
// rank as candidate uses.
func EnoughInHand(candidate, hand []card.Card) bool {
	want, have := card.Counts(candidate), card.Counts(hand)
	for r := range want {
		if want[r] > have[r] {
			return false
		}
	}
	return true
}

// Validate checks a play for seat legality. previous is the play currently
// on the table; leading means the seat opens the trick. A nil or empty play
// is a pass.
func Validate(play, hand, previous []card.Card, leading bool) error {
	if len(play) == 0 {
		if leading {
			return ErrPassOnLead
		}
		return nil
	}
	for _, c := range play {
		if !c.Valid() {
			return fmt.Errorf("%w: suit %q rank %d", ErrInvalidCard, c.Suit, c.Rank)
		}
	}
	if !EnoughInHand(play, hand) {
		return ErrNotInHand
	}
	cand := Classify(play)
	if cand.Type == Illegal {
		return ErrIllegalCombination
	}
	if leading {
		return nil
	}
	if !Compare(cand, Classify(previous)) {
		return fmt.Errorf("%w: %s on %s", ErrCannotBeat, cand, Classify(previous))
	}
	return nil
}
