package engine

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/DoyleJ11/liujiatong-server/internal/card"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// cards builds a play from ranks, cycling suits for ordinary cards.
func cards(ranks ...int) []card.Card {
	out := make([]card.Card, len(ranks))
	for i, r := range ranks {
		if r >= card.RankSmallJoker {
			out[i] = card.Card{Suit: card.None, Rank: r}
			continue
		}
		out[i] = card.New(card.Suits[i%len(card.Suits)], r)
	}
	return out
}

func repeat(rank, n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = rank
	}
	return out
}

func TestClassify(t *testing.T) {
	cases := []struct {
		name  string
		ranks []int
		typ   CardType
		key   int
	}{
		{"four twos", []int{15, 15, 15, 15}, NormalBomb, 15},
		{"four small jokers", []int{16, 16, 16, 16}, SmallJokerBomb, 16},
		{"four big jokers", []int{17, 17, 17, 17}, BigJokerBomb, 17},
		{"bomb filled by joker", []int{4, 4, 4, 4, 17}, NormalBomb, 4},
		{"bomb filled by two jokers", []int{8, 8, 8, 17, 17}, NormalBomb, 8},
		{"mixed jokers are not a bomb", []int{16, 16, 17, 17}, Illegal, 0},
		{"single", []int{9}, Single, 9},
		{"single joker", []int{17}, Single, 17},
		{"pair", []int{7, 7}, Pair, 7},
		{"pair with joker", []int{15, 17}, Pair, 15},
		{"pair of small jokers", []int{16, 16}, Pair, 16},
		{"two different jokers", []int{16, 17}, Illegal, 0},
		{"two ranks", []int{7, 8}, Illegal, 0},
		{"triple", []int{6, 6, 6}, Triple, 6},
		{"triple with joker", []int{15, 15, 17}, Triple, 15},
		{"triple with two jokers", []int{9, 16, 17}, Triple, 9},
		{"triple pair", []int{4, 4, 5, 5, 5}, TriplePair, 5},
		{"triple pair joker completes triple", []int{4, 5, 5, 5, 16}, TriplePair, 5},
		{"triple pair joker on two pairs", []int{4, 4, 9, 9, 16}, TriplePair, 9},
		{"triple pair two jokers", []int{4, 4, 9, 16, 17}, TriplePair, 4},
		{"triple pair three jokers", []int{4, 9, 16, 16, 17}, TriplePair, 9},
		{"straight", []int{3, 4, 5, 6, 7}, Straight, 7},
		{"straight with jokers", []int{8, 10, 11, 16, 17}, Straight, 12},
		{"straight to ace", []int{11, 12, 13, 16, 17}, Straight, 14},
		{"straight never includes two", []int{11, 12, 13, 14, 15}, Illegal, 0},
		{"straight pairs", []int{3, 3, 4, 4}, StraightPairs, 4},
		{"straight pairs with joker", []int{3, 3, 4, 16}, StraightPairs, 4},
		{"straight triples with jokers", []int{3, 3, 3, 4, 16, 16}, StraightTriples, 4},
		{"flight with jokers", []int{5, 5, 6, 6, 8, 9, 9, 9, 16, 17}, Flight, 9},
		{"flight", []int{9, 9, 10, 10, 11, 11, 11, 12, 12, 12}, Flight, 12},
		{"flight lowest rank in triples", []int{3, 3, 3, 4, 4, 4, 9, 9, 10, 10}, Flight, 4},
		{"gap is illegal", []int{3, 5, 7, 9, 11}, Illegal, 0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Classify(cards(tc.ranks...))
			assert.Equal(t, tc.typ, got.Type, "got %s", got)
			assert.Equal(t, tc.key, got.Key)
		})
	}
}

func TestClassify_EmptyIsIllegal(t *testing.T) {
	assert.Equal(t, Illegal, Classify(nil).Type)
}

func TestClassify_IsTotal(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	deck := card.NewDeck()
	for rep := 0; rep < 2000; rep++ {
		card.Shuffle(rng, deck)
		n := 1 + rng.Intn(15)
		got := Classify(deck[:n])
		assert.GreaterOrEqual(t, int(got.Type), int(Illegal))
		assert.LessOrEqual(t, int(got.Type), int(TriplePair))
		if got.Type != Illegal {
			assert.Equal(t, n, got.Size)
		}
	}
}

func TestClassify_StraightWindowRoundTrip(t *testing.T) {
	for lo := 3; lo <= 10; lo++ {
		play := cards(lo, lo+1, lo+2, lo+3, lo+4)
		got := Classify(play)
		require.Equal(t, Straight, got.Type)
		for r := got.Key - 4; r <= got.Key; r++ {
			assert.Equal(t, 1, card.Counts(play)[r], "rank %d in window", r)
		}
	}
}

func TestCompare(t *testing.T) {
	nineFours := cards(repeat(4, 9)...)
	cases := []struct {
		name      string
		candidate []card.Card
		previous  []card.Card
		want      bool
	}{
		{"lead with anything legal", cards(3), nil, true},
		{"lead with illegal", cards(3, 9), nil, false},
		{"higher single", cards(9), cards(8), true},
		{"lower single", cards(7), cards(8), false},
		{"same key", cards(8), cards(8), false},
		{"different type", cards(9, 9), cards(8), false},
		{"different straight pair length", cards(5, 5, 6, 6, 7, 7), cards(3, 3, 4, 4), false},
		{"bomb beats straight", cards(3, 3, 3, 3), cards(10, 11, 12, 13, 14), true},
		{"straight never beats bomb", cards(10, 11, 12, 13, 14), cards(3, 3, 3, 3), false},
		{"longer bomb", cards(3, 3, 3, 3, 3), cards(15, 15, 15, 15), true},
		{"equal length bomb higher key", cards(repeat(15, 5)...), cards(4, 4, 4, 4, 17), true},
		{"nine card bomb beats big jokers", nineFours, cards(17, 17, 17, 17), true},
		{"big jokers lose to nine card bomb", cards(17, 17, 17, 17), nineFours, false},
		{"big jokers beat four card bomb", cards(17, 17, 17, 17), cards(4, 4, 4, 4), true},
		{"eight card bomb loses to small jokers", cards(repeat(4, 8)...), cards(16, 16, 16, 16), false},
		{"big jokers beat small jokers", cards(17, 17, 17, 17), cards(16, 16, 16, 16), true},
		{"small jokers lose to big jokers", cards(16, 16, 16, 16), cards(17, 17, 17, 17), false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, CanBeat(tc.candidate, tc.previous))
		})
	}
}

func TestScore(t *testing.T) {
	assert.Equal(t, 5, Score(cards(4, 5, 6, 7, 8)))
	assert.Equal(t, 15, Score(cards(5, 5, 5)))
	assert.Equal(t, 25, Score(cards(5, 10, 13, 17)))
	assert.Equal(t, 0, Score(nil))

	// Order and suit never matter.
	a := []card.Card{card.New(card.Spade, 10), card.New(card.Heart, 5), card.New(card.Club, 13)}
	b := []card.Card{card.New(card.Diamond, 13), card.New(card.Diamond, 10), card.New(card.Spade, 5)}
	assert.Equal(t, Score(a), Score(b))
}

func TestEnoughInHand(t *testing.T) {
	hand := cards(3, 3, 5, 17)
	assert.True(t, EnoughInHand(cards(3, 3), hand))
	assert.True(t, EnoughInHand(cards(17), hand))
	assert.False(t, EnoughInHand(cards(3, 3, 3), hand))
	assert.False(t, EnoughInHand(cards(16), hand))
	assert.True(t, EnoughInHand(nil, hand))
}

func TestValidate(t *testing.T) {
	hand := cards(5, 5, 5, 9, 12)
	cases := []struct {
		name     string
		play     []card.Card
		previous []card.Card
		leading  bool
		wantErr  error
	}{
		{"lead triple", cards(5, 5, 5), nil, true, nil},
		{"pass on lead", nil, nil, true, ErrPassOnLead},
		{"pass when following", nil, cards(3), false, nil},
		{"not in hand", cards(14), nil, true, ErrNotInHand},
		{"illegal shape", cards(9, 12), nil, true, ErrIllegalCombination},
		{"cannot beat", cards(9), cards(13), false, ErrCannotBeat},
		{"beats", cards(12), cards(9), false, nil},
		{"rank out of range", append(cards(5, 5, 5), card.New(card.Spade, 99)), nil, true, ErrInvalidCard},
		{"suited joker", []card.Card{{Suit: card.Heart, Rank: card.RankBigJoker}}, nil, true, ErrInvalidCard},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := Validate(tc.play, hand, tc.previous, tc.leading)
			if tc.wantErr == nil {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, errors.Is(err, tc.wantErr))
			assert.True(t, errors.Is(err, ErrIllegalPlay))
		})
	}
}
