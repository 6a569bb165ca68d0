package engine

import "github.com/DoyleJ11/liujiatong-server/internal/card"

// tally is the rank histogram a play is classified from.
type tally struct {
	n      int
	count  [card.MaxRank + 1]int
	jokers int
	lo, hi int // lowest and highest ordinary rank, zero when all jokers
}

func newTally(cards []card.Card) tally {
	t := tally{n: len(cards), count: card.Counts(cards)}
	t.jokers = t.count[card.RankSmallJoker] + t.count[card.RankBigJoker]
	for r := card.RankThree; r <= card.RankTwo; r++ {
		if t.count[r] == 0 {
			continue
		}
		if t.lo == 0 {
			t.lo = r
		}
		t.hi = r
	}
	return t
}

// kinds counts the ordinary ranks that appear exactly k times.
func (t tally) kinds(k int) int {
	n := 0
	for r := card.RankThree; r <= card.RankTwo; r++ {
		if t.count[r] == k {
			n++
		}
	}
	return n
}

func (t tally) distinct() int {
	n := 0
	for r := card.RankThree; r <= card.RankTwo; r++ {
		if t.count[r] > 0 {
			n++
		}
	}
	return n
}

// highestWith returns the highest rank held exactly k times, jokers
// included when withJokers is set.
func (t tally) highestWith(k int, withJokers bool) int {
	top := card.RankTwo
	if withJokers {
		top = card.RankBigJoker
	}
	for r := top; r >= card.RankThree; r-- {
		if t.count[r] == k {
			return r
		}
	}
	return 0
}

func (t tally) bomb() (CardType, int) {
	if t.n < 4 {
		return Illegal, 0
	}
	switch t.distinct() {
	case 1:
		return NormalBomb, t.lo
	case 0:
		if t.count[card.RankSmallJoker] == 4 && t.count[card.RankBigJoker] == 0 {
			return SmallJokerBomb, card.RankSmallJoker
		}
		if t.count[card.RankBigJoker] == 4 && t.count[card.RankSmallJoker] == 0 {
			return BigJokerBomb, card.RankBigJoker
		}
	}
	return Illegal, 0
}

func (t tally) single() (CardType, int) {
	if t.n != 1 {
		return Illegal, 0
	}
	for r := card.MaxRank; r >= card.RankThree; r-- {
		if t.count[r] > 0 {
			return Single, r
		}
	}
	return Illegal, 0
}

func (t tally) pair() (CardType, int) {
	if t.n != 2 {
		return Illegal, 0
	}
	switch {
	case t.kinds(2) == 1:
		return Pair, t.lo
	case t.count[card.RankSmallJoker] == 2:
		return Pair, card.RankSmallJoker
	case t.count[card.RankBigJoker] == 2:
		return Pair, card.RankBigJoker
	case t.jokers == 1:
		return Pair, t.lo
	}
	return Illegal, 0
}

func (t tally) triple() (CardType, int) {
	if t.n != 3 {
		return Illegal, 0
	}
	switch {
	case t.kinds(3) == 1:
		return Triple, t.lo
	case t.count[card.RankSmallJoker] == 3:
		return Triple, card.RankSmallJoker
	case t.count[card.RankBigJoker] == 3:
		return Triple, card.RankBigJoker
	case t.jokers == 1 && t.kinds(2) == 1, t.jokers == 2 && t.kinds(1) == 1:
		return Triple, t.lo
	}
	return Illegal, 0
}

func (t tally) triplePair() (CardType, int) {
	if t.n != 5 {
		return Illegal, 0
	}
	small, big := t.count[card.RankSmallJoker], t.count[card.RankBigJoker]
	switch {
	case t.kinds(3) == 1 && t.kinds(2) == 1,
		small == 3 && big == 2,
		small == 2 && big == 3:
		return TriplePair, t.highestWith(3, true)
	case t.jokers == 1 && t.kinds(2) == 2:
		return TriplePair, t.hi
	case t.jokers == 1 && t.kinds(3) == 1 && t.kinds(1) == 1:
		return TriplePair, t.highestWith(3, false)
	case t.jokers == 2 && t.kinds(2) == 1 && t.kinds(1) == 1:
		return TriplePair, t.highestWith(2, false)
	case t.jokers == 3 && t.kinds(1) == 2:
		return TriplePair, t.hi
	}
	return Illegal, 0
}

func (t tally) straight() (CardType, int) {
	if t.n != 5 || t.lo == 0 || (t.kinds(1) != 5 && t.jokers == 0) {
		return Illegal, 0
	}
	if t.hi-t.lo+1 > 5 {
		return Illegal, 0
	}
	lo, hi := window(t.lo, 5)
	if !fill(t.count, lo, hi, t.jokers, 1) {
		return Illegal, 0
	}
	return Straight, hi
}

func (t tally) straightPairs() (CardType, int) {
	if t.n < 4 || t.n%2 != 0 {
		return Illegal, 0
	}
	if key := t.run(t.n/2, 2); key > 0 {
		return StraightPairs, key
	}
	return Illegal, 0
}

func (t tally) straightTriples() (CardType, int) {
	if t.n < 6 || t.n%3 != 0 {
		return Illegal, 0
	}
	if key := t.run(t.n/3, 3); key > 0 {
		return StraightTriples, key
	}
	return Illegal, 0
}

// run checks for groups consecutive ranks holding width copies each and
// returns the top rank of the run, or zero.
func (t tally) run(groups, width int) int {
	if groups > maxGroups || t.lo == 0 || t.hi-t.lo+1 > groups {
		return 0
	}
	lo, hi := window(t.lo, groups)
	if !fill(t.count, lo, hi, t.jokers, width) {
		return 0
	}
	return hi
}

// flight is a run of k triples with k pairs attached. The lowest rank may
// belong to either part, so both readings are tried and the higher key kept.
func (t tally) flight() (CardType, int) {
	if t.n < 10 || t.n%5 != 0 || t.lo == 0 {
		return Illegal, 0
	}
	k := t.n / 5
	if k > maxGroups {
		return Illegal, 0
	}

	pairsFirst := t.flightFrom(k, 2, 3)
	triplesFirst := t.flightFrom(k, 3, 2)
	key := max(pairsFirst, triplesFirst)
	if key == 0 {
		return Illegal, 0
	}
	return Flight, key
}

// flightFrom lets the lowest rank start a run of width `first`, then asks
// the remaining cards to form a run of width `second`. It returns the top
// of the triple run, or zero.
func (t tally) flightFrom(k, first, second int) int {
	count := t.count
	lo, hi := window(t.lo, k)
	jokers, ok := consume(&count, lo, hi, t.jokers, first)
	if !ok {
		return 0
	}

	rest := 0
	for r := t.lo; r <= t.hi; r++ {
		if count[r] > 0 {
			rest = r
			break
		}
	}

	if rest == 0 {
		if jokers != k*second {
			return 0
		}
		if first == 3 {
			return hi
		}
		return maxRunRank
	}

	lo2, hi2 := window(rest, k)
	if !fill(count, lo2, hi2, jokers, second) {
		return 0
	}
	if first == 3 {
		return hi
	}
	return hi2
}

// window returns the n consecutive ranks starting at lo, shifted down so
// that the run never passes the ace.
func window(lo, n int) (int, int) {
	if lo+n-1 > maxRunRank {
		return maxRunRank - n + 1, maxRunRank
	}
	return lo, lo + n - 1
}

// fill reports whether every rank in [lo, hi] can be topped up to exactly
// width copies using at most jokers wildcards.
func fill(count [card.MaxRank + 1]int, lo, hi, jokers, width int) bool {
	for r := lo; r <= hi; r++ {
		if count[r] > width {
			return false
		}
		jokers -= width - count[r]
		if jokers < 0 {
			return false
		}
	}
	return true
}

// consume removes width copies of every rank in [lo, hi] from count,
// paying for shortfalls with jokers. It returns the jokers left.
func consume(count *[card.MaxRank + 1]int, lo, hi, jokers, width int) (int, bool) {
	for r := lo; r <= hi; r++ {
		if count[r] < width {
			jokers -= width - count[r]
			if jokers < 0 {
				return 0, false
			}
		}
		count[r] = max(count[r]-width, 0)
	}
	return jokers, true
}
