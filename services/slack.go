package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
)

// Notifier posts short operational messages (admin actions) to a chat
// channel.
type Notifier interface {
	Notify(ctx context.Context, text string)
}

type SlackNotifier struct {
	webhookURL string
	client     *http.Client
	log        *logrus.Logger
}

func NewSlackNotifier(webhookURL string, log *logrus.Logger) *SlackNotifier {
	return &SlackNotifier{
		webhookURL: webhookURL,
		client:     &http.Client{Timeout: 5 * time.Second},
		log:        log,
	}
}

// Notify is best effort: failures are logged and never returned.
func (s *SlackNotifier) Notify(ctx context.Context, text string) {
	if s.webhookURL == "" {
		s.log.Debug("slack skipped: SLACK_WEBHOOK_URL not set")
		return
	}

	if err := s.post(ctx, text); err != nil {
		s.log.WithError(err).Warn("slack notification failed")
	}
}

func (s *SlackNotifier) post(ctx context.Context, text string) error {
	payload, err := json.Marshal(map[string]string{"text": text})
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.webhookURL, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("slack api error: status %d", resp.StatusCode)
	}
	return nil
}

// BookingStatusText formats the admin notification for a status change.
func BookingStatusText(bookingNumber, status, admin string) string {
	return fmt.Sprintf("Booking %s set to %s by %s", bookingNumber, status, admin)
}

func BrandingText(airline string, updated int64, admin string) string {
	return fmt.Sprintf("Branding for %s applied to %d flights by %s", airline, updated, admin)
}
