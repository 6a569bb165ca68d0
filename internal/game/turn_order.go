package game

// AdvanceTurn resolves the play just committed by the seat on turn: escapes
// and head master, the next seat, trick completion, team scores and the
// game-over predicate. It runs exactly once per play.
func (s *State) AdvanceTurn() error {
	if s.GameOver != 0 {
		return ErrGameOver
	}
	if !s.acted {
		return ErrNoPlay
	}
	s.acted = false

	acted := s.TurnOrder
	if len(s.Hands[acted]) == 0 && len(s.Played[acted]) > 0 {
		s.TeamEscapes[Team(acted)]++
		if s.HeadMaster == NoHeadMaster {
			s.HeadMaster = acted
		}
	}

	s.nextSeat()
	// A seat that ran out stays in the rotation only while it holds the
	// lead, so the trick can come back around to it.
	for len(s.Hands[s.TurnOrder]) == 0 && s.LastPlayer != s.TurnOrder {
		s.retire(s.TurnOrder)
		s.nextSeat()
	}

	if s.TurnOrder == s.LastPlayer {
		winner := s.TurnOrder
		s.PersonalScore[winner] += s.TrickScore
		s.TrickScore = 0
		for i := range s.Played {
			s.Played[i] = nil
		}
		if len(s.Hands[winner]) == 0 {
			s.retire(winner)
			s.nextSeat()
			s.LastPlayer = NoLead
		}
	}
	s.Played[s.TurnOrder] = nil

	s.recomputeTeamScore()
	s.GameOver = s.outcome()
	return nil
}

func (s *State) retire(seat int) {
	s.Finished[seat] = true
	s.Played[seat] = nil
}

// nextSeat moves the turn to the next seat not yet retired.
func (s *State) nextSeat() {
	for rep := 0; rep < Seats; rep++ {
		s.TurnOrder = (s.TurnOrder + 1) % Seats
		if !s.Finished[s.TurnOrder] {
			return
		}
	}
}

// recomputeTeamScore credits a seat's points to its team once that team
// owns the head master or the seat itself has escaped.
func (s *State) recomputeTeamScore() {
	s.TeamScore = [2]int{}
	for seat := 0; seat < Seats; seat++ {
		owns := s.HeadMaster != NoHeadMaster && Team(s.HeadMaster) == Team(seat)
		if owns || len(s.Hands[seat]) == 0 {
			s.TeamScore[Team(seat)] += s.PersonalScore[seat]
		}
	}
}

// outcome is 0 while the game runs, i+1 when team i wins and -(i+1) for a
// double win.
func (s *State) outcome() int {
	if s.HeadMaster == NoHeadMaster {
		return 0
	}
	for i := 0; i < 2; i++ {
		score, own, other := s.TeamScore[i], s.TeamEscapes[i], s.TeamEscapes[1-i]
		if score >= WinScore && own == EscapesToWin && other == 0 {
			return -(i + 1)
		}
		if (score >= WinScore && other > 0) || own == EscapesToWin {
			return i + 1
		}
	}
	return 0
}
