// Package journey defines the study-abroad journey domain: ordered phases of
// tasks, independent documents, and the rules that derive phase status and
// progress from task completion.
package journey

import (
	"errors"
	"time"
)

var (
	// ErrNoSnapshot is returned by a Store when nothing has been persisted yet.
	ErrNoSnapshot = errors.New("no journey snapshot")
	// ErrProfileNotFound is returned when a profile does not exist.
	ErrProfileNotFound = errors.New("journey profile not found")
	// ErrNoProfile is returned when no profile has been onboarded for the session.
	ErrNoProfile = errors.New("no journey profile; run 'abroad init' first")
	// ErrPhaseLocked is returned when a task is toggled inside a locked phase.
	ErrPhaseLocked = errors.New("phase is locked")
	// ErrInvalidStatus is returned for a document status outside the known set.
	ErrInvalidStatus = errors.New("invalid document status")
)

// Status is the gating state of a phase.
type Status string

const (
	StatusCompleted  Status = "completed"
	StatusInProgress Status = "in-progress"
	StatusNotStarted Status = "not-started"
	StatusLocked     Status = "locked"
)

// IsValid reports whether s is a known phase status.
func (s Status) IsValid() bool {
	switch s {
	case StatusCompleted, StatusInProgress, StatusNotStarted, StatusLocked:
		return true
	default:
		return false
	}
}

// Priority ranks a task.
type Priority string

const (
	PriorityHigh   Priority = "High"
	PriorityMedium Priority = "Medium"
	PriorityLow    Priority = "Low"
)

// DocumentStatus is the readiness of a required paper or credential.
type DocumentStatus string

const (
	DocumentReady      DocumentStatus = "ready"
	DocumentInProgress DocumentStatus = "in-progress"
	DocumentMissing    DocumentStatus = "missing"
)

// IsValid reports whether s is a known document status.
func (s DocumentStatus) IsValid() bool {
	switch s {
	case DocumentReady, DocumentInProgress, DocumentMissing:
		return true
	default:
		return false
	}
}

// StudyLevel is the degree level a profile plans to study at.
type StudyLevel string

const (
	LevelUndergraduate  StudyLevel = "Undergraduate"
	LevelMasters        StudyLevel = "Masters"
	LevelPhD            StudyLevel = "PhD"
	LevelLanguageCourse StudyLevel = "Language Course"
)

// StudyLevels lists the supported study levels in display order.
func StudyLevels() []StudyLevel {
	return []StudyLevel{LevelUndergraduate, LevelMasters, LevelPhD, LevelLanguageCourse}
}

// IsValid reports whether l is a supported study level.
func (l StudyLevel) IsValid() bool {
	for _, v := range StudyLevels() {
		if l == v {
			return true
		}
	}
	return false
}

// Task is a single checklist item within a phase.
type Task struct {
	ID          string   `json:"id" yaml:"id"`
	Title       string   `json:"title" yaml:"title"`
	Description string   `json:"description" yaml:"description"`
	Completed   bool     `json:"completed" yaml:"completed"`
	Priority    Priority `json:"priority" yaml:"priority"`
	Category    string   `json:"category" yaml:"category"`
}

// Phase is one stage of the journey timeline, gating a list of tasks.
type Phase struct {
	ID          string `json:"id" yaml:"id"`
	Number      int    `json:"number" yaml:"number"`
	Title       string `json:"title" yaml:"title"`
	Description string `json:"description" yaml:"description"`
	Timeframe   string `json:"timeframe" yaml:"timeframe"`
	Status      Status `json:"status" yaml:"status"`
	Tasks       []Task `json:"tasks" yaml:"tasks"`
	Icon        string `json:"icon" yaml:"icon"`
}

// CompletedTasks returns the number of completed tasks in the phase.
func (p Phase) CompletedTasks() int {
	n := 0
	for _, t := range p.Tasks {
		if t.Completed {
			n++
		}
	}
	return n
}

// HasTask reports whether the phase contains a task with the given ID.
func (p Phase) HasTask(taskID string) bool {
	for _, t := range p.Tasks {
		if t.ID == taskID {
			return true
		}
	}
	return false
}

// Document is an independent checklist item for a required paper or credential.
type Document struct {
	ID         string         `json:"id" yaml:"id"`
	Name       string         `json:"name" yaml:"name"`
	Category   string         `json:"category" yaml:"category"`
	Status     DocumentStatus `json:"status" yaml:"status"`
	Required   bool           `json:"required" yaml:"required"`
	ExpiryDate *time.Time     `json:"expiry_date,omitempty" yaml:"expiry_date,omitempty"`
}

// Profile is the onboarding record for a journey. It is never mutated after
// creation; a reset replaces it wholesale.
type Profile struct {
	ID            string     `json:"id"`
	Name          string     `json:"name"`
	TargetCountry string     `json:"target_country"`
	StudyLevel    StudyLevel `json:"study_level"`
	StartDate     time.Time  `json:"start_date"`
	CreatedAt     time.Time  `json:"created_at"`
}

// Snapshot is the persisted journey state.
type Snapshot struct {
	Phases    []Phase    `json:"phases"`
	Documents []Document `json:"documents"`
}

// Clone returns a deep copy of the snapshot.
func (s Snapshot) Clone() Snapshot {
	return Snapshot{
		Phases:    clonePhases(s.Phases),
		Documents: cloneDocuments(s.Documents),
	}
}

func clonePhases(phases []Phase) []Phase {
	if phases == nil {
		return nil
	}
	out := make([]Phase, len(phases))
	for i, p := range phases {
		out[i] = p
		out[i].Tasks = append([]Task(nil), p.Tasks...)
	}
	return out
}

func cloneDocuments(docs []Document) []Document {
	if docs == nil {
		return nil
	}
	out := make([]Document, len(docs))
	for i, d := range docs {
		out[i] = d
		if d.ExpiryDate != nil {
			t := *d.ExpiryDate
			out[i].ExpiryDate = &t
		}
	}
	return out
}
