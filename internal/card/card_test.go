package card

import (
	"encoding/json"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDeck_Composition(t *testing.T) {
	deck := NewDeck()
	require.Len(t, deck, DeckSize)

	n := Counts(deck)
	for r := RankThree; r <= RankTwo; r++ {
		assert.Equal(t, 16, n[r], "rank %d", r)
	}
	assert.Equal(t, 4, n[RankSmallJoker])
	assert.Equal(t, 4, n[RankBigJoker])

	for _, c := range deck {
		assert.True(t, c.Valid(), "invalid card %v", c)
	}
}

func TestDeal_RoundRobinSortedHands(t *testing.T) {
	deck := NewDeck()
	Shuffle(rand.New(rand.NewSource(7)), deck)
	hands := Deal(deck)

	total := 0
	for i, h := range hands {
		assert.Len(t, h, HandSize, "seat %d", i)
		assert.IsNonDecreasing(t, ranks(h))
		total += len(h)
	}
	assert.Equal(t, DeckSize, total)
	assert.Contains(t, hands[0], deck[0])
	assert.Contains(t, hands[5], deck[11])
}

func TestRemove(t *testing.T) {
	hand := []Card{New(Spade, 5), New(Heart, 5), New(Club, 9), BigJoker()}

	cases := []struct {
		name        string
		cards       []Card
		wantOK      bool
		wantRest    int
		wantRemoved []Card
	}{
		{"exact match", []Card{New(Heart, 5)}, true, 3, []Card{New(Heart, 5)}},
		{"same rank other suit", []Card{New(Diamond, 9)}, true, 3, []Card{New(Club, 9)}},
		{"joker", []Card{BigJoker()}, true, 3, []Card{BigJoker()}},
		{"too many of a rank", []Card{New(Spade, 5), New(Spade, 5), New(Spade, 5)}, false, 4, nil},
		{"missing rank", []Card{New(Spade, 14)}, false, 4, nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rest, removed, ok := Remove(hand, tc.cards)
			assert.Equal(t, tc.wantOK, ok)
			assert.Len(t, rest, tc.wantRest)
			assert.Equal(t, tc.wantRemoved, removed)
		})
	}
	assert.Len(t, hand, 4, "input hand must not be mutated")
}

func TestCard_JSON(t *testing.T) {
	b, err := json.Marshal([]Card{New(Spade, 11), SmallJoker()})
	require.NoError(t, err)
	assert.JSONEq(t, `[{"suit":"Spade","value":11},{"suit":"","value":16}]`, string(b))
}

func ranks(cards []Card) []int {
	out := make([]int, len(cards))
	for i, c := range cards {
		out[i] = c.Rank
	}
	return out
}

func TestCard_String(t *testing.T) {
	cases := []struct {
		card Card
		want string
	}{
		{New(Spade, 11), "SJ"},
		{New(Heart, RankTwo), "H2"},
		{New(Diamond, 10), "D10"},
		{BigJoker(), "BJ"},
		{Card{Rank: 7}, "?7"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, tc.card.String())
	}
}

func TestCard_Valid(t *testing.T) {
	assert.True(t, New(Club, RankThree).Valid())
	assert.True(t, SmallJoker().Valid())
	assert.False(t, Card{Suit: Spade, Rank: 99}.Valid())
	assert.False(t, Card{Rank: 7}.Valid())
	assert.False(t, Card{Suit: Heart, Rank: RankBigJoker}.Valid())
	assert.False(t, New(Spade, 2).Valid())
}
