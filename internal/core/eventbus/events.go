// Package eventbus provides a typed publish/subscribe event bus for
// cross-component communication within abroad.
package eventbus

import "github.com/colonyops/abroad/internal/core/journey"

// Event names a published event.
type Event string

const (
	// Keep list sorted A-Z
	EventDocumentChanged       Event = "journey.document-changed"
	EventJourneyReset          Event = "journey.reset"
	EventNotificationPublished Event = "notification.published"
	EventPhaseChanged          Event = "journey.phase-changed"
	EventPhaseUnlocked         Event = "journey.phase-unlocked"
	EventProfileCreated        Event = "profile.created"
	EventTaskToggled           Event = "journey.task-toggled"
)

// ProfileCreatedPayload is emitted when onboarding creates a profile.
type ProfileCreatedPayload struct {
	Profile journey.Profile
}

// TaskToggledPayload is emitted when a task's completion flips.
type TaskToggledPayload struct {
	ProfileID  string
	TaskTitle  string
	Transition journey.Transition
}

// PhaseChangedPayload is emitted when a toggle changes its phase's status.
type PhaseChangedPayload struct {
	ProfileID string
	PhaseID   string
	Title     string
	From      journey.Status
	To        journey.Status
}

// PhaseUnlockedPayload is emitted for each phase the cascade unlocks.
type PhaseUnlockedPayload struct {
	ProfileID string
	PhaseID   string
	Title     string
}

// DocumentChangedPayload is emitted when a document status is replaced.
type DocumentChangedPayload struct {
	ProfileID  string
	DocumentID string
	Name       string
	From       journey.DocumentStatus
	To         journey.DocumentStatus
}

// JourneyResetPayload is emitted after a journey is reset.
type JourneyResetPayload struct {
	ProfileID string
}

// NotificationPublishedPayload carries a user-facing message.
type NotificationPublishedPayload struct {
	Level   Level
	Message string
}
