// Package phase names the protocol states every session walks through.
package phase

type Phase int

const (
	None Phase = iota
	Init
	SendWaitingHallInfo
	InitSync
	GameStart
	GameStartSync
	OnlookerRegister
	OnlookerSync
	SendFieldInfo
	SendRoundInfo
	SendRoundInfoSync
	RecvPlayerInfo
	RecvPlayerInfoSync
	NextTurn
	NextTurnSync
	GameOver
)

var names = [...]string{
	None:                "None",
	Init:                "Init",
	SendWaitingHallInfo: "SendWaitingHallInfo",
	InitSync:            "InitSync",
	GameStart:           "GameStart",
	GameStartSync:       "GameStartSync",
	OnlookerRegister:    "OnlookerRegister",
	OnlookerSync:        "OnlookerSync",
	SendFieldInfo:       "SendFieldInfo",
	SendRoundInfo:       "SendRoundInfo",
	SendRoundInfoSync:   "SendRoundInfoSync",
	RecvPlayerInfo:      "RecvPlayerInfo",
	RecvPlayerInfoSync:  "RecvPlayerInfoSync",
	NextTurn:            "NextTurn",
	NextTurnSync:        "NextTurnSync",
	GameOver:            "GameOver",
}

func (p Phase) String() string {
	if p < 0 || int(p) >= len(names) {
		return "Phase(?)"
	}
	return names[p]
}

// IO reports whether a player performs socket I/O in p. These are the only
// points where a seat can be handed to a reconnecting client.
func (p Phase) IO() bool {
	switch p {
	case SendWaitingHallInfo, SendFieldInfo, SendRoundInfo, RecvPlayerInfo:
		return true
	}
	return false
}
