package types

import (
	"bytes"
	"encoding/json"

	"github.com/DoyleJ11/liujiatong-server/internal/card"
)

const Seats = card.Seats

// Hall is one waiting-hall update: names in join order and which of those
// seats are currently offline.
type Hall struct {
	Names   []string
	Offline []bool
}

func (h Hall) Full() bool { return len(h.Names) >= Seats }

// Field is sent once before the first round.
type Field struct {
	IsPlayer bool
	Names    [Seats]string
	Seat     int
}

// Round is everything one participant sees at the start of a turn.
type Round struct {
	GameOver   int
	Scores     [Seats]int
	HandCounts [Seats]int
	Played     [Seats][]card.Card
	AllHands   *[Seats][]card.Card // only once the game is over
	MyHand     []card.Card
	TrickScore int
	TurnOrder  int
	HeadMaster int
}

// Reply is what the seat on turn answers with.
type Reply struct {
	Hand       []card.Card
	Play       Play
	TrickScore int
}

var passSentinel = []byte(`["F"]`)

// Play is a list of cards or a pass. A pass travels as ["F"].
type Play struct {
	Pass  bool
	Cards []card.Card
}

func PassPlay() Play { return Play{Pass: true} }

func CardsPlay(cards ...card.Card) Play { return Play{Cards: cards} }

func (p Play) MarshalJSON() ([]byte, error) {
	if p.Pass {
		return passSentinel, nil
	}
	if p.Cards == nil {
		return []byte(`[]`), nil
	}
	return json.Marshal(p.Cards)
}

func (p *Play) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if len(raw) == 1 && bytes.Equal(bytes.TrimSpace(raw[0]), []byte(`"F"`)) {
		*p = PassPlay()
		return nil
	}
	var cards []card.Card
	if err := json.Unmarshal(data, &cards); err != nil {
		return err
	}
	*p = Play{Pass: len(cards) == 0, Cards: cards}
	return nil
}

// Seat summarises one seat for the public snapshot.
type Seat struct {
	Name      string      `json:"name"`
	Offline   bool        `json:"offline"`
	HandCount int         `json:"hand_count"`
	Score     int         `json:"score"`
	Played    []card.Card `json:"played"`
}

// Snapshot is the public table view served to watchers: no hidden hands
// until the game is over.
type Snapshot struct {
	Version    int                 `json:"version"`
	Seats      [Seats]Seat         `json:"seats"`
	TeamScore  [2]int              `json:"team_score"`
	Escapes    [2]int              `json:"escapes"`
	TrickScore int                 `json:"trick_score"`
	TurnOrder  int                 `json:"turn_order"`
	HeadMaster int                 `json:"head_master"`
	GameOver   int                 `json:"game_over"`
	AllHands   *[Seats][]card.Card `json:"all_hands,omitempty"`
}

type ServerMessage struct {
	Type     string    `json:"type"` // "RoundSnapshot" | "Error"
	Version  int       `json:"version,omitempty"`
	Snapshot *Snapshot `json:"snapshot,omitempty"`
	Error    string    `json:"error,omitempty"`
}
