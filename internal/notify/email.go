package notify

import (
	"context"
	"fmt"
	"log"

	"github.com/resend/resend-go/v2"
)

// EmailNotifier delivers survey activity to an admin inbox via Resend.
// Delivery is best-effort; callers fire it from a background goroutine.
type EmailNotifier struct {
	client *resend.Client
	from   string
	to     string
}

func NewEmailNotifier(apiKey, from, to string) *EmailNotifier {
	return &EmailNotifier{
		client: resend.NewClient(apiKey),
		from:   from,
		to:     to,
	}
}

func (n *EmailNotifier) Publish(ctx context.Context, message string) error {
	params := &resend.SendEmailRequest{
		From:    n.from,
		To:      []string{n.to},
		Subject: "Survey Platform Activity",
		Html: fmt.Sprintf(`
			<div style="font-family: sans-serif; max-width: 480px; margin: 0 auto; padding: 24px;">
				<h2 style="color: #333;">Survey Platform</h2>
				<p style="white-space: pre-line;">%s</p>
			</div>
		`, message),
	}

	sent, err := n.client.Emails.Send(params)
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	log.Printf("📧 Notification email sent (ID: %s)", sent.Id)
	return nil
}
