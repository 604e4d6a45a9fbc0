package services

import (
	"context"

	"go.uber.org/zap"

	"github.com/Dosada05/bracket-of-death/events"
	"github.com/Dosada05/bracket-of-death/metrics"
	"github.com/Dosada05/bracket-of-death/models"
	"github.com/Dosada05/bracket-of-death/repositories"
	"github.com/Dosada05/bracket-of-death/scoring"
)

type matchUpdatePayload struct {
	MatchID string              `json:"matchId"`
	Update  scoring.MatchUpdate `json:"update"`
}

type matchRefPayload struct {
	MatchID string `json:"matchId"`
}

type checkInPayload struct {
	TeamID  string `json:"teamId"`
	Present bool   `json:"present"`
}

type matchesGeneratedPayload struct {
	Round models.RoundKind `json:"round"`
	Count int              `json:"count"`
}

// SnapshotPayload wraps a LiveSnapshot on the wire.
type SnapshotPayload struct {
	Live *LiveSnapshot `json:"live"`
}

// notifier sends events after a write has been committed. Failures are logged
// and counted, never returned, so they cannot undo the write.
type notifier struct {
	store     repositories.Store
	publisher events.Publisher
	metrics   metrics.Metrics
	log       *zap.SugaredLogger
}

func newNotifier(store repositories.Store, publisher events.Publisher, m metrics.Metrics, log *zap.SugaredLogger) *notifier {
	if publisher == nil {
		publisher = events.NewNopPublisher()
	}
	return &notifier{store: store, publisher: publisher, metrics: m, log: log}
}

func (n *notifier) publish(ctx context.Context, tournamentID string, eventType events.Type, payload interface{}) {
	if err := n.publisher.Publish(ctx, tournamentID, eventType, payload); err != nil {
		n.metrics.RecordPublishFailure(string(eventType))
		n.log.Warnw("Failed to publish event", "tournament_id", tournamentID, "type", eventType, "error", err)
	}
}

func (n *notifier) publishSnapshot(ctx context.Context, tournamentID string) {
	snap, err := loadSnapshot(ctx, n.store, tournamentID)
	if err != nil {
		n.metrics.RecordPublishFailure(string(events.Snapshot))
		n.log.Warnw("Failed to build snapshot", "tournament_id", tournamentID, "error", err)
		return
	}
	n.publish(ctx, tournamentID, events.Snapshot, SnapshotPayload{Live: snap})
}
