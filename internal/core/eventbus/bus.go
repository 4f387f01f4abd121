package eventbus

import (
	"context"
	"sync"
)

type envelope struct {
	event   Event
	payload any
}

// EventBus delivers events to subscribers on a single dispatch goroutine.
// Publish never blocks: when the buffer is full the event is dropped.
type EventBus struct {
	ch    chan envelope
	hooks hooks

	mu   sync.RWMutex
	subs map[Event][]func(any)
}

// New creates a bus with the given buffer size.
func New(buffer int) *EventBus {
	return &EventBus{
		ch:   make(chan envelope, buffer),
		subs: make(map[Event][]func(any)),
	}
}

// Start dispatches events until ctx is cancelled, then drains anything
// already enqueued before returning.
func (bus *EventBus) Start(ctx context.Context) {
	for {
		select {
		case env := <-bus.ch:
			bus.dispatch(env)
		case <-ctx.Done():
			for {
				select {
				case env := <-bus.ch:
					bus.dispatch(env)
				default:
					return
				}
			}
		}
	}
}

func (bus *EventBus) subscribe(event Event, fn func(any)) {
	bus.mu.Lock()
	bus.subs[event] = append(bus.subs[event], fn)
	bus.mu.Unlock()
	bus.runOnSubscribe(event)
}

func (bus *EventBus) dispatch(env envelope) {
	bus.mu.RLock()
	subs := make([]func(any), len(bus.subs[env.event]))
	copy(subs, bus.subs[env.event])
	bus.mu.RUnlock()

	for _, fn := range subs {
		func() {
			defer func() {
				if r := recover(); r != nil {
					bus.runOnPanic(env.event, env.payload, r)
				}
			}()
			fn(env.payload)
		}()
	}
}

func (bus *EventBus) PublishProfileCreated(p ProfileCreatedPayload) {
	bus.send(EventProfileCreated, p)
}

func (bus *EventBus) SubscribeProfileCreated(fn func(ProfileCreatedPayload)) {
	bus.subscribe(EventProfileCreated, func(p any) { fn(p.(ProfileCreatedPayload)) })
}

func (bus *EventBus) PublishTaskToggled(p TaskToggledPayload) {
	bus.send(EventTaskToggled, p)
}

func (bus *EventBus) SubscribeTaskToggled(fn func(TaskToggledPayload)) {
	bus.subscribe(EventTaskToggled, func(p any) { fn(p.(TaskToggledPayload)) })
}

func (bus *EventBus) PublishPhaseChanged(p PhaseChangedPayload) {
	bus.send(EventPhaseChanged, p)
}

func (bus *EventBus) SubscribePhaseChanged(fn func(PhaseChangedPayload)) {
	bus.subscribe(EventPhaseChanged, func(p any) { fn(p.(PhaseChangedPayload)) })
}

func (bus *EventBus) PublishPhaseUnlocked(p PhaseUnlockedPayload) {
	bus.send(EventPhaseUnlocked, p)
}

func (bus *EventBus) SubscribePhaseUnlocked(fn func(PhaseUnlockedPayload)) {
	bus.subscribe(EventPhaseUnlocked, func(p any) { fn(p.(PhaseUnlockedPayload)) })
}

func (bus *EventBus) PublishDocumentChanged(p DocumentChangedPayload) {
	bus.send(EventDocumentChanged, p)
}

func (bus *EventBus) SubscribeDocumentChanged(fn func(DocumentChangedPayload)) {
	bus.subscribe(EventDocumentChanged, func(p any) { fn(p.(DocumentChangedPayload)) })
}

func (bus *EventBus) PublishJourneyReset(p JourneyResetPayload) {
	bus.send(EventJourneyReset, p)
}

func (bus *EventBus) SubscribeJourneyReset(fn func(JourneyResetPayload)) {
	bus.subscribe(EventJourneyReset, func(p any) { fn(p.(JourneyResetPayload)) })
}

func (bus *EventBus) PublishNotificationPublished(p NotificationPublishedPayload) {
	bus.send(EventNotificationPublished, p)
}

func (bus *EventBus) SubscribeNotificationPublished(fn func(NotificationPublishedPayload)) {
	bus.subscribe(EventNotificationPublished, func(p any) { fn(p.(NotificationPublishedPayload)) })
}
