package eventbus

import (
	"fmt"

	"github.com/colonyops/abroad/internal/core/journey"
)

// Level is the severity of a notification.
type Level string

const (
	LevelInfo    Level = "info"
	LevelSuccess Level = "success"
	LevelWarning Level = "warning"
)

// NotificationRouter maps journey events to user-facing notifications.
type NotificationRouter struct {
	bus *EventBus
}

// NewNotificationRouter constructs a router for event-to-notification mappings.
func NewNotificationRouter(bus *EventBus) *NotificationRouter {
	return &NotificationRouter{bus: bus}
}

// Register subscribes all supported event mappings.
func (r *NotificationRouter) Register() {
	if r == nil || r.bus == nil {
		return
	}

	r.bus.SubscribePhaseChanged(func(p PhaseChangedPayload) {
		if p.To == journey.StatusCompleted {
			r.notifyf(LevelSuccess, "phase %q complete", p.Title)
		}
	})

	r.bus.SubscribePhaseUnlocked(func(p PhaseUnlockedPayload) {
		r.notifyf(LevelInfo, "phase %q unlocked", p.Title)
	})

	r.bus.SubscribeDocumentChanged(func(p DocumentChangedPayload) {
		if p.To == journey.DocumentReady && p.From != journey.DocumentReady {
			r.notifyf(LevelSuccess, "%s is ready", p.Name)
		}
	})

	r.bus.SubscribeJourneyReset(func(p JourneyResetPayload) {
		r.notifyf(LevelWarning, "journey progress reset")
	})
}

func (r *NotificationRouter) notifyf(level Level, format string, args ...any) {
	r.bus.PublishNotificationPublished(NotificationPublishedPayload{
		Level:   level,
		Message: fmt.Sprintf(format, args...),
	})
}
