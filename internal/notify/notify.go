// Package notify delivers user notifications produced by dispatch.
package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"service-dispatch/internal/domain"
	"service-dispatch/internal/logx"
)

// Publisher sends a keyed message to the notifications topic.
type Publisher interface {
	Publish(ctx context.Context, key string, value []byte) error
}

// KafkaNotifier publishes notifications keyed by recipient so one user's
// notifications stay ordered within a partition.
type KafkaNotifier struct {
	pub Publisher
}

// NewKafkaNotifier returns a notifier writing to pub.
func NewKafkaNotifier(pub Publisher) *KafkaNotifier {
	return &KafkaNotifier{pub: pub}
}

// Notify encodes n as JSON and publishes it.
func (k *KafkaNotifier) Notify(ctx context.Context, n domain.Notification) error {
	if n.Type == "" {
		n.Type = domain.NotificationSystem
	}
	b, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("encode notification: %w", err)
	}
	return k.pub.Publish(ctx, n.UserID.String(), b)
}

// LogNotifier writes notifications to the log. Used when Kafka is not configured.
type LogNotifier struct {
	logger logx.Logger
}

// NewLogNotifier returns a notifier writing to logger.
func NewLogNotifier(logger logx.Logger) *LogNotifier {
	if logger == nil {
		logger = logx.Nop()
	}
	return &LogNotifier{logger: logger}
}

// Notify logs n at info level.
func (l *LogNotifier) Notify(_ context.Context, n domain.Notification) error {
	l.logger.Info("notification",
		logx.String("user_id", n.UserID.String()),
		logx.String("title", n.Title),
		logx.String("body", n.Body),
	)
	return nil
}
