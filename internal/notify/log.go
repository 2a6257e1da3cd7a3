package notify

import (
	"context"
	"log"
)

// LogNotifier implements the Notifier interface by logging messages to
// stdout. It is the default when no email channel is configured.
type LogNotifier struct{}

func NewLogNotifier() *LogNotifier {
	return &LogNotifier{}
}

func (n *LogNotifier) Publish(ctx context.Context, message string) error {
	log.Printf("📨 [Notify] %s", message)
	return nil
}
