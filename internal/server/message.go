package server

import (
	"encoding/json"
	"time"

	"github.com/peakecoin/peakpoker/internal/deck"
	"github.com/peakecoin/peakpoker/internal/game"
	"github.com/peakecoin/peakpoker/internal/session"
)

// MessageType identifies a websocket message
type MessageType string

// Client → server
const (
	MessageTypeSignIn       MessageType = "sign_in"
	MessageTypeFetchBalance MessageType = "fetch_balance"
	MessageTypeStartRound   MessageType = "start_round"
	MessageTypeAdvance      MessageType = "advance"
)

// Server → client
const (
	MessageTypeSignedIn MessageType = "signed_in"
	MessageTypeBalance  MessageType = "balance"
	MessageTypeSnapshot MessageType = "snapshot"
	MessageTypeEvent    MessageType = "event"
	MessageTypeError    MessageType = "error"
)

// Message is the base websocket message structure
type Message struct {
	Type      MessageType     `json:"type"`
	Data      json.RawMessage `json:"data,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

// NewMessage creates a new message with the current timestamp
func NewMessage(messageType MessageType, data interface{}) (*Message, error) {
	var dataBytes json.RawMessage
	if data != nil {
		var err error
		dataBytes, err = json.Marshal(data)
		if err != nil {
			return nil, err
		}
	}
	return &Message{
		Type:      messageType,
		Data:      dataBytes,
		Timestamp: time.Now(),
	}, nil
}

// StartRoundData carries the player's bet
type StartRoundData struct {
	Bet float64 `json:"bet"`
}

// SignedInData reports the resolved identity
type SignedInData struct {
	Identity string `json:"identity"`
	Token    string `json:"token"`
}

// BalanceData reports the account balance. Stale means the last
// refresh failed and this is the previous known figure.
type BalanceData struct {
	Identity string  `json:"identity"`
	Balance  float64 `json:"balance"`
	Token    string  `json:"token"`
	Stale    bool    `json:"stale,omitempty"`
}

// ErrorData carries a user-facing failure message
type ErrorData struct {
	Message string `json:"message"`
}

// EventData is the wire form of a round event
type EventData struct {
	Event   string  `json:"event"`
	RoundID string  `json:"roundId"`
	Stage   string  `json:"stage,omitempty"`
	Bet     float64 `json:"bet,omitempty"`
	Pot     float64 `json:"pot,omitempty"`
	Outcome string  `json:"outcome,omitempty"`
	Message string  `json:"message,omitempty"`
}

// EventDataFromGame converts a core round event to its wire form
func EventDataFromGame(event game.Event) EventData {
	data := EventData{Event: event.EventType().String()}
	switch e := event.(type) {
	case game.RoundStartedEvent:
		data.RoundID = e.RoundID
		data.Bet = e.Bet
		data.Pot = e.Pot
	case game.StageAdvancedEvent:
		data.RoundID = e.RoundID
		data.Stage = e.Stage.String()
	case game.RoundResolvedEvent:
		data.RoundID = e.RoundID
		data.Outcome = e.Outcome.String()
		data.Pot = e.Pot
		data.Message = e.Message
	}
	return data
}

// faceDownCard is the placeholder rendered for masked opponent cards
const faceDownCard = "🂠"

// SnapshotData is the wire form of a round snapshot
type SnapshotData struct {
	RoundID      string   `json:"roundId"`
	Stage        string   `json:"stage"`
	StageIndex   int      `json:"stageIndex"`
	PlayerHand   []string `json:"playerHand"`
	OpponentHand []string `json:"opponentHand"`
	Community    []string `json:"community"`
	Pot          float64  `json:"pot"`
	Bet          float64  `json:"bet"`
	Outcome      string   `json:"outcome,omitempty"`
	Message      string   `json:"message,omitempty"`
	PayoutFailed string   `json:"payoutFailed,omitempty"`
	BalanceStale bool     `json:"balanceStale,omitempty"`
}

// SnapshotDataFromGame converts a core snapshot to its wire form. The
// core has already withheld opponent cards before showdown; here they
// only get their face-down glyphs.
func SnapshotDataFromGame(snap game.Snapshot) SnapshotData {
	data := SnapshotData{
		RoundID:    snap.RoundID,
		Stage:      snap.Stage.String(),
		StageIndex: int(snap.Stage),
		PlayerHand: cardStrings(snap.PlayerHole),
		Community:  cardStrings(snap.Community),
		Pot:        snap.Pot,
		Bet:        snap.Bet,
		Message:    snap.Message,
	}
	if snap.OpponentHole != nil {
		data.OpponentHand = cardStrings(snap.OpponentHole)
	} else {
		data.OpponentHand = make([]string, snap.OpponentHidden)
		for i := range data.OpponentHand {
			data.OpponentHand[i] = faceDownCard
		}
	}
	if snap.Outcome != game.Undecided {
		data.Outcome = snap.Outcome.String()
	}
	return data
}

// SnapshotDataFromResult converts an advance result, carrying the
// payout note alongside the snapshot.
func SnapshotDataFromResult(result session.AdvanceResult) SnapshotData {
	data := SnapshotDataFromGame(result.Snapshot)
	data.PayoutFailed = result.PayoutFailed
	data.BalanceStale = result.BalanceStale
	return data
}

func cardStrings(cards []deck.Card) []string {
	out := make([]string, len(cards))
	for i, c := range cards {
		out[i] = c.String()
	}
	return out
}
