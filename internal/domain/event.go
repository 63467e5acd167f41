package domain

import (
	"encoding/json"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// EventType enumerates all domain event types.
type EventType string

const (
	EventPlayerCreated EventType = "created"
	EventPlayerUpdated EventType = "updated"
	EventPlayerDeleted EventType = "deleted"
)

// AggregateType enumerates the aggregate root types for outbox events.
type AggregateType string

const (
	AggregatePlayer AggregateType = "player"
)

// OutboxDraft is the payload written to the event_outbox table.
type OutboxDraft struct {
	SeqID         int64           `json:"-"`
	EventID       uuid.UUID       `json:"eventId"`
	AggregateType AggregateType   `json:"aggregateType"`
	AggregateID   string          `json:"aggregateId"`
	EventType     EventType       `json:"eventType"`
	Payload       json.RawMessage `json:"payload"`
	OccurredAt    time.Time       `json:"occurredAt"`
}

// Topic is the broker topic for this event under the given prefix.
func (d OutboxDraft) Topic(prefix string) string {
	topic := string(d.AggregateType) + "." + string(d.EventType)
	if prefix == "" {
		return topic
	}
	return prefix + "." + topic
}

// NewPlayerEvent snapshots a player into a lifecycle event.
// Deleted events carry only the id.
func NewPlayerEvent(eventType EventType, p *Player, now time.Time) OutboxDraft {
	var payload []byte
	if eventType == EventPlayerDeleted {
		payload, _ = json.Marshal(map[string]int64{"id": p.ID})
	} else {
		payload, _ = json.Marshal(ToResponse(p, now))
	}
	return OutboxDraft{
		EventID:       uuid.New(),
		AggregateType: AggregatePlayer,
		AggregateID:   strconv.FormatInt(p.ID, 10),
		EventType:     eventType,
		Payload:       payload,
		OccurredAt:    now,
	}
}
