// Package sse implements Server-Sent Events for library changes and
// generation progress.
package sse

import "time"

// EventType is the type of an SSE event.
type EventType string

const (
	// EventLibraryUpdated is sent after a library section is written.
	EventLibraryUpdated EventType = "library.updated"

	// EventGenerationStarted is sent when a committed plan starts running.
	EventGenerationStarted EventType = "generation.started"
	// EventGenerationProgress is sent after each artisan finishes.
	EventGenerationProgress EventType = "generation.progress"
	// EventGenerationCompleted is sent after the last artisan.
	EventGenerationCompleted EventType = "generation.completed"

	// EventHeartbeat keeps idle connections open.
	EventHeartbeat EventType = "heartbeat"
)

// Event is an SSE event sent to clients.
type Event struct {
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"`
	Type      EventType `json:"type"`
}

// LibraryUpdatedEventData names the section that changed and its new size.
type LibraryUpdatedEventData struct {
	Section string `json:"section"`
	Count   int    `json:"count"`
}

// GenerationStartedEventData is the payload of generation.started.
type GenerationStartedEventData struct {
	PlanID    string `json:"plan_id"`
	BookID    string `json:"book_id"`
	ChapterID string `json:"chapter_id"`
	Total     int    `json:"total"`
}

// GenerationProgressEventData is the payload of generation.progress.
type GenerationProgressEventData struct {
	PlanID      string `json:"plan_id"`
	ArtisanID   string `json:"artisan_id"`
	ArtisanName string `json:"artisan_name"`
	Completed   int    `json:"completed"`
	Total       int    `json:"total"`
	Failed      bool   `json:"failed"`
}

// GenerationCompletedEventData is the payload of generation.completed.
type GenerationCompletedEventData struct {
	PlanID  string `json:"plan_id"`
	Results int    `json:"results"`
	Failed  int    `json:"failed"`
	Saved   bool   `json:"saved"`
}

// HeartbeatEventData is the payload of heartbeat.
type HeartbeatEventData struct {
	ServerTime time.Time `json:"server_time"`
}

// NewLibraryUpdatedEvent creates a library.updated event.
func NewLibraryUpdatedEvent(section string, count int) Event {
	return Event{
		Type:      EventLibraryUpdated,
		Timestamp: time.Now(),
		Data:      LibraryUpdatedEventData{Section: section, Count: count},
	}
}

// NewGenerationStartedEvent creates a generation.started event.
func NewGenerationStartedEvent(data GenerationStartedEventData) Event {
	return Event{Type: EventGenerationStarted, Timestamp: time.Now(), Data: data}
}

// NewGenerationProgressEvent creates a generation.progress event.
func NewGenerationProgressEvent(data GenerationProgressEventData) Event {
	return Event{Type: EventGenerationProgress, Timestamp: time.Now(), Data: data}
}

// NewGenerationCompletedEvent creates a generation.completed event.
func NewGenerationCompletedEvent(data GenerationCompletedEventData) Event {
	return Event{Type: EventGenerationCompleted, Timestamp: time.Now(), Data: data}
}

// NewHeartbeatEvent creates a heartbeat event.
func NewHeartbeatEvent() Event {
	now := time.Now()
	return Event{
		Type:      EventHeartbeat,
		Timestamp: now,
		Data:      HeartbeatEventData{ServerTime: now},
	}
}
