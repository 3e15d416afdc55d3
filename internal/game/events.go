package game

import (
	"sync"
	"time"
)

// EventType represents a game event type with type safety
type EventType string

const (
	EventTypeRoundStarted  EventType = "round_started"
	EventTypeStageAdvanced EventType = "stage_advanced"
	EventTypeRoundResolved EventType = "round_resolved"
)

// String returns the string representation of the event type
func (et EventType) String() string {
	return string(et)
}

// Event represents anything that happens during a round
type Event interface {
	EventType() EventType
	Timestamp() time.Time
}

// RoundStartedEvent is published when a new round is dealt
type RoundStartedEvent struct {
	RoundID   string
	Bet       float64
	Pot       float64
	timestamp time.Time
}

func (e RoundStartedEvent) EventType() EventType { return EventTypeRoundStarted }
func (e RoundStartedEvent) Timestamp() time.Time { return e.timestamp }

// NewRoundStartedEvent creates a new round started event
func NewRoundStartedEvent(roundID string, bet, pot float64) RoundStartedEvent {
	return RoundStartedEvent{RoundID: roundID, Bet: bet, Pot: pot, timestamp: time.Now()}
}

// StageAdvancedEvent is published on every stage transition
type StageAdvancedEvent struct {
	RoundID   string
	Stage     Stage
	timestamp time.Time
}

func (e StageAdvancedEvent) EventType() EventType { return EventTypeStageAdvanced }
func (e StageAdvancedEvent) Timestamp() time.Time { return e.timestamp }

// NewStageAdvancedEvent creates a new stage advanced event
func NewStageAdvancedEvent(roundID string, stage Stage) StageAdvancedEvent {
	return StageAdvancedEvent{RoundID: roundID, Stage: stage, timestamp: time.Now()}
}

// RoundResolvedEvent is published exactly once, when the round reaches
// showdown and the outcome becomes final.
type RoundResolvedEvent struct {
	RoundID       string
	Outcome       Outcome
	PlayerClass   StrengthClass
	OpponentClass StrengthClass
	Pot           float64
	Message       string
	timestamp     time.Time
}

func (e RoundResolvedEvent) EventType() EventType { return EventTypeRoundResolved }
func (e RoundResolvedEvent) Timestamp() time.Time { return e.timestamp }

// NewRoundResolvedEvent creates a new round resolved event
func NewRoundResolvedEvent(roundID string, outcome Outcome, playerClass, oppClass StrengthClass, pot float64, message string) RoundResolvedEvent {
	return RoundResolvedEvent{
		RoundID:       roundID,
		Outcome:       outcome,
		PlayerClass:   playerClass,
		OpponentClass: oppClass,
		Pot:           pot,
		Message:       message,
		timestamp:     time.Now(),
	}
}

// EventSubscriber can subscribe to round events
type EventSubscriber interface {
	OnEvent(event Event)
}

// EventBus manages event publishing and subscription
type EventBus interface {
	Subscribe(subscriber EventSubscriber)
	Unsubscribe(subscriber EventSubscriber)
	Publish(event Event)
}

// SimpleEventBus is a basic in-memory event bus implementation
type SimpleEventBus struct {
	mu          sync.RWMutex
	subscribers []EventSubscriber
}

// NewEventBus creates a new in-memory event bus
func NewEventBus() *SimpleEventBus {
	return &SimpleEventBus{}
}

// Subscribe registers a subscriber for all events
func (b *SimpleEventBus) Subscribe(subscriber EventSubscriber) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers = append(b.subscribers, subscriber)
}

// Unsubscribe removes a subscriber
func (b *SimpleEventBus) Unsubscribe(subscriber EventSubscriber) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, s := range b.subscribers {
		if s == subscriber {
			b.subscribers = append(b.subscribers[:i], b.subscribers[i+1:]...)
			return
		}
	}
}

// Publish delivers the event to all subscribers synchronously
func (b *SimpleEventBus) Publish(event Event) {
	b.mu.RLock()
	subs := make([]EventSubscriber, len(b.subscribers))
	copy(subs, b.subscribers)
	b.mu.RUnlock()

	for _, s := range subs {
		s.OnEvent(event)
	}
}
