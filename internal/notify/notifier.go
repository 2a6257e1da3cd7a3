package notify

import "context"

// Notifier defines the interface for publishing survey activity to a
// notification channel. This abstraction allows swapping the log notifier
// with a real delivery channel without refactoring.
type Notifier interface {
	Publish(ctx context.Context, message string) error
}
