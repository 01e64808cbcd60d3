package game

import "time"

// EventType identifies a lifecycle moment in the action pipeline.
type EventType string

const (
	EventActionQueued     EventType = "action:queued"
	EventActionExecuting  EventType = "action:executing"
	EventActionExecuted   EventType = "action:executed"
	EventActionRejected   EventType = "action:rejected"
	EventActionBlocked    EventType = "action:blocked"
	EventActionReplaced   EventType = "action:replaced"
	EventAutoActionQueued EventType = "auto-action:queued"
	EventTurnEnded        EventType = "turn:ended"
	EventTurnStarted      EventType = "turn:started"
)

// Event carries what happened and enough context to render it without
// holding a reference to the live state.
type Event struct {
	Type EventType

	// Action is the action involved, nil for turn events.
	Action Action

	// Replacement is set on action:replaced: the action that will run in
	// Action's place.
	Replacement Action

	// Reason explains rejections and blocks.
	Reason string

	Turn         int
	ActivePlayer int
	Timestamp    time.Time
}

// Listener receives published events synchronously, in subscription order.
type Listener func(Event)

type subscription struct {
	id       int
	types    map[EventType]bool // nil means all types
	listener Listener
}

// EventBus fans events out to registered listeners. It is not safe for
// concurrent use; the loop that owns it is single-threaded.
type EventBus struct {
	nextID int
	subs   []subscription
}

func NewEventBus() *EventBus {
	return &EventBus{}
}

// Subscribe registers a listener for every event type and returns a token
// for Unsubscribe.
func (b *EventBus) Subscribe(fn Listener) int {
	return b.add(nil, fn)
}

// SubscribeTyped registers a listener for only the given event types.
func (b *EventBus) SubscribeTyped(fn Listener, types ...EventType) int {
	set := make(map[EventType]bool, len(types))
	for _, t := range types {
		set[t] = true
	}
	return b.add(set, fn)
}

func (b *EventBus) add(types map[EventType]bool, fn Listener) int {
	b.nextID++
	b.subs = append(b.subs, subscription{id: b.nextID, types: types, listener: fn})
	return b.nextID
}

// Unsubscribe removes a listener by its token. Unknown tokens are ignored.
func (b *EventBus) Unsubscribe(id int) {
	for i, sub := range b.subs {
		if sub.id == id {
			b.subs = append(b.subs[:i], b.subs[i+1:]...)
			return
		}
	}
}

// Publish delivers the event to every matching listener.
func (b *EventBus) Publish(ev Event) {
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now()
	}
	for _, sub := range b.subs {
		if sub.types == nil || sub.types[ev.Type] {
			sub.listener(ev)
		}
	}
}
