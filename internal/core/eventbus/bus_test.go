package eventbus_test

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/goleak"

	"github.com/colonyops/abroad/internal/core/eventbus"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestEventBus_StartDrainsOnCancel(t *testing.T) {
	bus := eventbus.New(16)

	var got atomic.Int32
	bus.SubscribeJourneyReset(func(eventbus.JourneyResetPayload) {
		got.Add(1)
	})

	// Publish before the dispatcher runs; cancellation must still deliver.
	for range 5 {
		bus.PublishJourneyReset(eventbus.JourneyResetPayload{ProfileID: "p"})
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	bus.Start(ctx)

	assert.Equal(t, int32(5), got.Load())
}

func TestEventBus_DropWhenFull(t *testing.T) {
	bus := eventbus.New(1)

	var published, dropped int
	bus.OnPublish(func(eventbus.Event, any) { published++ })
	bus.OnDrop(func(eventbus.Event, any) { dropped++ })

	bus.PublishJourneyReset(eventbus.JourneyResetPayload{})
	bus.PublishJourneyReset(eventbus.JourneyResetPayload{})

	assert.Equal(t, 1, published)
	assert.Equal(t, 1, dropped)
}

func TestEventBus_PanicIsRecovered(t *testing.T) {
	bus := eventbus.New(4)

	var panics int
	var after atomic.Bool
	bus.OnPanic(func(eventbus.Event, any, any) { panics++ })
	bus.SubscribePhaseUnlocked(func(eventbus.PhaseUnlockedPayload) { panic("boom") })
	bus.SubscribePhaseUnlocked(func(eventbus.PhaseUnlockedPayload) { after.Store(true) })

	bus.PublishPhaseUnlocked(eventbus.PhaseUnlockedPayload{PhaseID: "tests"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	bus.Start(ctx)

	assert.Equal(t, 1, panics)
	assert.True(t, after.Load(), "later subscribers still run")
}

func TestEventBus_OnSubscribe(t *testing.T) {
	bus := eventbus.New(1)

	var seen []eventbus.Event
	bus.OnSubscribe(func(e eventbus.Event) { seen = append(seen, e) })
	bus.SubscribeProfileCreated(func(eventbus.ProfileCreatedPayload) {})

	assert.Equal(t, []eventbus.Event{eventbus.EventProfileCreated}, seen)
}
