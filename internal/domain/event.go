package domain

import (
	"time"

	"github.com/google/uuid"
)

// EventType names a dashboard event published to the event stream.
type EventType string

const (
	EventAssessmentCompleted EventType = "assessment.completed"
	EventEmergencyTripped    EventType = "emergency.tripped"
	EventEmergencyCleared    EventType = "emergency.cleared"
)

// Event is a notable state change, keyed by ID for idempotent consumers.
type Event struct {
	ID         string    `json:"id"`
	Type       EventType `json:"type"`
	OccurredAt time.Time `json:"occurred_at"`

	AssessmentID       string  `json:"assessment_id,omitempty"`
	Source             Source  `json:"source,omitempty"`
	VulnerabilityScore float64 `json:"vulnerability_score,omitempty"`
	Vibration          float64 `json:"vibration,omitempty"`
	SafetyThreshold    float64 `json:"safety_threshold,omitempty"`
	Reason             string  `json:"reason,omitempty"`
}

// NewEvent creates an event of type t stamped with the current time.
func NewEvent(t EventType) Event {
	return Event{
		ID:         uuid.NewString(),
		Type:       t,
		OccurredAt: clock.Now().UTC(),
	}
}

// AssessmentCompleted describes a finished assessment.
func AssessmentCompleted(a Assessment) Event {
	e := NewEvent(EventAssessmentCompleted)
	e.AssessmentID = a.ID
	e.Source = a.Source
	e.VulnerabilityScore = a.Result.VulnerabilityScore
	return e
}

// EmergencyTripped describes an automatic emergency trip.
func EmergencyTripped(score, vibration float64) Event {
	e := NewEvent(EventEmergencyTripped)
	e.VulnerabilityScore = score
	e.Vibration = vibration
	e.SafetyThreshold = SafetyThreshold(score)
	e.Reason = "vibration exceeded safety threshold"
	return e
}

// EmergencyCleared describes the emergency flag being cleared.
func EmergencyCleared(reason string) Event {
	e := NewEvent(EventEmergencyCleared)
	e.Reason = reason
	return e
}
