// Package events carries tournament notifications from the engine to live
// subscribers, one topic per tournament.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type Type string

const (
	MatchUpdate      Type = "match:update"
	TeamCheckIn      Type = "team:checkin"
	MatchesGenerated Type = "matches:generated"
	MatchConfirmed   Type = "match:confirmed"
	StatsUpdate      Type = "stats:update"
	Snapshot         Type = "snapshot"
)

// Event is the wire envelope relayed verbatim to subscribers.
type Event struct {
	ID           string          `json:"id"`
	Type         Type            `json:"type"`
	TournamentID string          `json:"tournamentId"`
	Payload      json.RawMessage `json:"payload"`
	Timestamp    time.Time       `json:"timestamp"`
}

// NewEvent encodes payload into a fresh envelope stamped at now.
func NewEvent(tournamentID string, eventType Type, payload interface{}, now time.Time) (Event, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Event{}, fmt.Errorf("failed to encode %s payload: %w", eventType, err)
	}
	return Event{
		ID:           uuid.NewString(),
		Type:         eventType,
		TournamentID: tournamentID,
		Payload:      raw,
		Timestamp:    now.UTC(),
	}, nil
}

// Publisher sends an event on the tournament's topic. Callers treat failures
// as non-fatal.
type Publisher interface {
	Publish(ctx context.Context, tournamentID string, eventType Type, payload interface{}) error
}

// Subscriber streams events of one tournament until ctx is done.
type Subscriber interface {
	Subscribe(ctx context.Context, tournamentID string) (<-chan Event, error)
}

// Topic names the channel a tournament's events travel on.
func Topic(tournamentID string) string {
	return "tournament." + tournamentID
}

type nopPublisher struct{}

// NewNopPublisher drops every event.
func NewNopPublisher() Publisher { return nopPublisher{} }

func (nopPublisher) Publish(context.Context, string, Type, interface{}) error { return nil }
