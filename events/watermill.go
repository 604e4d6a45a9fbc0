package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"go.uber.org/zap"
)

// Bus is an in-process pub/sub over a watermill GoChannel. Events published
// while nobody listens are dropped.
type Bus struct {
	pubsub *gochannel.GoChannel
	log    *zap.SugaredLogger
	now    func() time.Time
}

func NewBus(log *zap.SugaredLogger) *Bus {
	ps := gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: 64}, NewLoggerAdapter(log))
	return &Bus{pubsub: ps, log: log, now: time.Now}
}

func (b *Bus) Publish(ctx context.Context, tournamentID string, eventType Type, payload interface{}) error {
	evt, err := NewEvent(tournamentID, eventType, payload, b.now())
	if err != nil {
		return err
	}
	body, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("failed to encode %s event: %w", eventType, err)
	}
	msg := message.NewMessage(evt.ID, body)
	msg.SetContext(ctx)
	if err := b.pubsub.Publish(Topic(tournamentID), msg); err != nil {
		return fmt.Errorf("failed to publish %s for tournament %s: %w", eventType, tournamentID, err)
	}
	return nil
}

func (b *Bus) Subscribe(ctx context.Context, tournamentID string) (<-chan Event, error) {
	msgs, err := b.pubsub.Subscribe(ctx, Topic(tournamentID))
	if err != nil {
		return nil, fmt.Errorf("failed to subscribe to tournament %s: %w", tournamentID, err)
	}
	out := make(chan Event)
	go func() {
		defer close(out)
		for msg := range msgs {
			var evt Event
			if err := json.Unmarshal(msg.Payload, &evt); err != nil {
				b.log.Warnw("dropping undecodable event", "tournament_id", tournamentID, "message_id", msg.UUID, "error", err)
				msg.Ack()
				continue
			}
			select {
			case out <- evt:
				msg.Ack()
			case <-ctx.Done():
				msg.Nack()
				return
			}
		}
	}()
	return out, nil
}

func (b *Bus) Close() error {
	return b.pubsub.Close()
}

// LoggerAdapter lets watermill log through zap.
type LoggerAdapter struct {
	log *zap.SugaredLogger
}

func NewLoggerAdapter(log *zap.SugaredLogger) *LoggerAdapter {
	return &LoggerAdapter{log: log}
}

func (l *LoggerAdapter) Error(msg string, err error, fields watermill.LogFields) {
	l.log.Errorw(msg, append(keyvals(fields), "error", err)...)
}

func (l *LoggerAdapter) Info(msg string, fields watermill.LogFields) {
	l.log.Infow(msg, keyvals(fields)...)
}

func (l *LoggerAdapter) Debug(msg string, fields watermill.LogFields) {
	l.log.Debugw(msg, keyvals(fields)...)
}

// Trace is folded into debug, zap has no lower level.
func (l *LoggerAdapter) Trace(msg string, fields watermill.LogFields) {
	l.log.Debugw(msg, keyvals(fields)...)
}

func (l *LoggerAdapter) With(fields watermill.LogFields) watermill.LoggerAdapter {
	return &LoggerAdapter{log: l.log.With(keyvals(fields)...)}
}

func keyvals(fields watermill.LogFields) []interface{} {
	out := make([]interface{}, 0, len(fields)*2)
	for k, v := range fields {
		out = append(out, k, v)
	}
	return out
}
