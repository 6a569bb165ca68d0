package card

import (
	"fmt"
	"math/rand"
	"slices"
)

type Suit string

const (
	Spade   Suit = "Spade"
	Heart   Suit = "Heart"
	Club    Suit = "Club"
	Diamond Suit = "Diamond"
	None    Suit = "" // jokers
)

var Suits = []Suit{Spade, Heart, Club, Diamond}

const (
	RankThree      = 3
	RankFive       = 5
	RankTen        = 10
	RankKing       = 13
	RankAce        = 14
	RankTwo        = 15
	RankSmallJoker = 16
	RankBigJoker   = 17
)

const (
	Decks     = 4
	Seats     = 6
	DeckSize  = Decks * (13*4 + 2) // 216
	HandSize  = DeckSize / Seats   // 36
	MaxRank   = RankBigJoker
	rankCount = MaxRank + 1
)

// Card is an immutable value; two cards are equal when suit and rank match.
type Card struct {
	Suit Suit `json:"suit"`
	Rank int  `json:"value"`
}

func New(s Suit, rank int) Card { return Card{Suit: s, Rank: rank} }

func SmallJoker() Card { return Card{Suit: None, Rank: RankSmallJoker} }
func BigJoker() Card   { return Card{Suit: None, Rank: RankBigJoker} }

func (c Card) IsJoker() bool { return c.Rank >= RankSmallJoker }

func (c Card) Valid() bool {
	if c.IsJoker() {
		return c.Rank <= RankBigJoker && c.Suit == None
	}
	return c.Rank >= RankThree && c.Rank <= RankTwo && slices.Contains(Suits, c.Suit)
}

func (c Card) String() string {
	var face string
	switch c.Rank {
	case 11:
		face = "J"
	case 12:
		face = "Q"
	case RankKing:
		face = "K"
	case RankAce:
		face = "A"
	case RankTwo:
		face = "2"
	case RankSmallJoker:
		return "SJ"
	case RankBigJoker:
		return "BJ"
	default:
		face = fmt.Sprint(c.Rank)
	}
	if c.Suit == None {
		return "?" + face
	}
	return string(c.Suit[:1]) + face
}

// Counts tallies cards by rank.
func Counts(cards []Card) [rankCount]int {
	var n [rankCount]int
	for _, c := range cards {
		if c.Rank >= 0 && c.Rank < rankCount {
			n[c.Rank]++
		}
	}
	return n
}

func suitOrder(s Suit) int {
	switch s {
	case Spade:
		return 0
	case Heart:
		return 1
	case Club:
		return 2
	case Diamond:
		return 3
	}
	return 4
}

func compare(a, b Card) int {
	if a.Rank != b.Rank {
		return a.Rank - b.Rank
	}
	return suitOrder(a.Suit) - suitOrder(b.Suit)
}

// Sort orders cards ascending by rank, then suit.
func Sort(cards []Card) { slices.SortFunc(cards, compare) }

// NewDeck builds the four-deck pack: every ordinary rank in every suit plus
// one small and one big joker per deck.
func NewDeck() []Card {
	deck := make([]Card, 0, DeckSize)
	for rep := 0; rep < Decks; rep++ {
		for _, s := range Suits {
			for r := RankThree; r <= RankTwo; r++ {
				deck = append(deck, New(s, r))
			}
		}
		deck = append(deck, SmallJoker(), BigJoker())
	}
	return deck
}

func Shuffle(rng *rand.Rand, deck []Card) {
	rng.Shuffle(len(deck), func(i, j int) { deck[i], deck[j] = deck[j], deck[i] })
}

// Deal hands card j to seat j%Seats and sorts every hand.
func Deal(deck []Card) [Seats][]Card {
	var hands [Seats][]Card
	for j, c := range deck {
		hands[j%Seats] = append(hands[j%Seats], c)
	}
	for i := range hands {
		Sort(hands[i])
	}
	return hands
}

// Remove takes cards out of hand, preferring exact matches and falling back
// to any card of the same rank. It reports the cards actually removed.
func Remove(hand, cards []Card) (rest, removed []Card, ok bool) {
	rest = slices.Clone(hand)
	take := func(match func(Card) bool) bool {
		i := slices.IndexFunc(rest, match)
		if i < 0 {
			return false
		}
		removed = append(removed, rest[i])
		rest = slices.Delete(rest, i, i+1)
		return true
	}
	for _, c := range cards {
		if take(func(h Card) bool { return h == c }) {
			continue
		}
		if !take(func(h Card) bool { return h.Rank == c.Rank }) {
			return hand, nil, false
		}
	}
	return rest, removed, true
}
