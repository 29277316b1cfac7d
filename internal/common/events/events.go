// Package events is the publish/subscribe channel between the matching
// surfaces and the presentation layer. The matching engine never imports it.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"sponsorloop-workers/internal/matching"

	"github.com/google/uuid"
)

// Named topics.
const (
	TopicRecommendationsOpen = "recommendations.open"
	TopicNavigationHome      = "navigation.home"
	TopicMatchesRanked       = "matches.ranked"
)

var ErrUnknownTopic = errors.New("UNKNOWN_TOPIC")

var knownTopics = map[string]bool{
	TopicRecommendationsOpen: true,
	TopicNavigationHome:      true,
	TopicMatchesRanked:       true,
}

// ValidTopic reports whether topic is one of the named topics.
func ValidTopic(topic string) bool {
	return knownTopics[topic]
}

// Event is the envelope delivered to subscribers.
type Event struct {
	ID         string          `json:"id"`
	Topic      string          `json:"topic"`
	OccurredAt time.Time       `json:"occurredAt"`
	Payload    json.RawMessage `json:"payload,omitempty"`
}

// Decode unmarshals the payload into v.
func (e Event) Decode(v interface{}) error {
	if len(e.Payload) == 0 {
		return nil
	}
	return json.Unmarshal(e.Payload, v)
}

// Handler receives events for a subscribed topic.
type Handler func(ctx context.Context, e Event)

// Bus publishes events to named topics.
type Bus interface {
	Publish(ctx context.Context, topic string, payload interface{}) (Event, error)
	// Subscribe returns a function that removes the subscription.
	Subscribe(topic string, h Handler) (func(), error)
	Close() error
}

// MatchesRanked is the payload of TopicMatchesRanked.
type MatchesRanked struct {
	ViewerID   string        `json:"viewerId,omitempty"`
	ViewerRole string        `json:"viewerRole"`
	Text       string        `json:"text,omitempty"`
	Category   string        `json:"category"`
	Source     string        `json:"source"`
	Matches    []RankedMatch `json:"matches"`
}

type RankedMatch struct {
	ProfileID string `json:"profileId"`
	Score     int    `json:"score"`
}

// RankedFrom keeps the IDs and scores of results in rank order.
func RankedFrom(results []matching.MatchResult) []RankedMatch {
	out := make([]RankedMatch, 0, len(results))
	for _, r := range results {
		out = append(out, RankedMatch{ProfileID: r.Profile.ID, Score: r.Score})
	}
	return out
}

// RecommendationsOpen asks the presentation layer to show recommendations.
type RecommendationsOpen struct {
	ViewerID string `json:"viewerId,omitempty"`
	Category string `json:"category,omitempty"`
}

func newEvent(topic string, payload interface{}) (Event, error) {
	if !ValidTopic(topic) {
		return Event{}, fmt.Errorf("%w: %s", ErrUnknownTopic, topic)
	}

	var raw json.RawMessage
	switch p := payload.(type) {
	case nil:
	case json.RawMessage:
		raw = p
	default:
		data, err := json.Marshal(p)
		if err != nil {
			return Event{}, fmt.Errorf("marshal %s payload: %w", topic, err)
		}
		raw = data
	}

	return Event{
		ID:         uuid.NewString(),
		Topic:      topic,
		OccurredAt: time.Now().UTC(),
		Payload:    raw,
	}, nil
}
