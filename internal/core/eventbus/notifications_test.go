package eventbus_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colonyops/abroad/internal/core/eventbus"
	"github.com/colonyops/abroad/internal/core/eventbus/testbus"
	"github.com/colonyops/abroad/internal/core/journey"
)

func latestNotificationPayload(tb *testbus.Bus, t *testing.T) eventbus.NotificationPublishedPayload {
	t.Helper()
	tb.AssertPublished(t, eventbus.EventNotificationPublished)

	var payload eventbus.NotificationPublishedPayload
	for _, e := range tb.Events() {
		if e.Event != eventbus.EventNotificationPublished {
			continue
		}
		p, ok := e.Payload.(eventbus.NotificationPublishedPayload)
		require.True(t, ok)
		payload = p
	}

	return payload
}

func TestNotificationRouter_PhaseCompleted(t *testing.T) {
	tb := testbus.New(t)
	eventbus.NewNotificationRouter(tb.EventBus).Register()

	tb.PublishPhaseChanged(eventbus.PhaseChangedPayload{
		PhaseID: "research",
		Title:   "Research & Planning",
		From:    journey.StatusInProgress,
		To:      journey.StatusCompleted,
	})
	p := latestNotificationPayload(tb, t)

	assert.Equal(t, eventbus.LevelSuccess, p.Level)
	assert.Contains(t, p.Message, "Research & Planning")
}

func TestNotificationRouter_PhaseInProgressIsQuiet(t *testing.T) {
	tb := testbus.New(t)
	eventbus.NewNotificationRouter(tb.EventBus).Register()

	tb.PublishPhaseChanged(eventbus.PhaseChangedPayload{
		PhaseID: "research",
		From:    journey.StatusNotStarted,
		To:      journey.StatusInProgress,
	})

	tb.AssertNotPublished(t, eventbus.EventNotificationPublished, 50*time.Millisecond)
}

func TestNotificationRouter_PhaseUnlocked(t *testing.T) {
	tb := testbus.New(t)
	eventbus.NewNotificationRouter(tb.EventBus).Register()

	tb.PublishPhaseUnlocked(eventbus.PhaseUnlockedPayload{PhaseID: "tests", Title: "Tests & Preparation"})
	p := latestNotificationPayload(tb, t)

	assert.Equal(t, eventbus.LevelInfo, p.Level)
	assert.Contains(t, p.Message, "Tests & Preparation")
}

func TestNotificationRouter_DocumentReady(t *testing.T) {
	tb := testbus.New(t)
	eventbus.NewNotificationRouter(tb.EventBus).Register()

	tb.PublishDocumentChanged(eventbus.DocumentChangedPayload{
		DocumentID: "passport",
		Name:       "Valid passport",
		From:       journey.DocumentMissing,
		To:         journey.DocumentReady,
	})
	p := latestNotificationPayload(tb, t)

	assert.Equal(t, eventbus.LevelSuccess, p.Level)
	assert.Contains(t, p.Message, "Valid passport")
}

func TestNotificationRouter_Reset(t *testing.T) {
	tb := testbus.New(t)
	eventbus.NewNotificationRouter(tb.EventBus).Register()

	tb.PublishJourneyReset(eventbus.JourneyResetPayload{ProfileID: "p-1"})
	p := latestNotificationPayload(tb, t)

	assert.Equal(t, eventbus.LevelWarning, p.Level)
}

func TestNotificationRouter_NilSafe(t *testing.T) {
	var r *eventbus.NotificationRouter
	assert.NotPanics(t, r.Register)
}
