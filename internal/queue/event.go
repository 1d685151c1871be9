// Package queue moves notifications over RabbitMQ.  The publisher is a
// notify.Sink; the consumer appends every delivery to
// logs/notifications.log for the human-facing transport to pick up.
package queue

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/iliyamo/seat-reservation/internal/notify"
)

// DefaultQueue is the durable queue notifications are published to.
const DefaultQueue = "seat.notifications"

// Encode is the wire format of a notification.
func Encode(n notify.Notification) ([]byte, error) {
	return json.Marshal(n)
}

// Decode parses a message body produced by Encode.
func Decode(body []byte) (notify.Notification, error) {
	var n notify.Notification
	if err := json.Unmarshal(body, &n); err != nil {
		return n, fmt.Errorf("unmarshal: %w", err)
	}
	if n.Kind == "" || n.Recipient == 0 {
		return n, fmt.Errorf("notification %q lacks kind or recipient", n.ID)
	}
	return n, nil
}

// FormatLine renders a notification as one log line.
func FormatLine(n notify.Notification) string {
	line := fmt.Sprintf("[%s] %s | id=%s | to=%d | user_id=%d | event_id=%d | seat=%s",
		n.CreatedAt.UTC().Format(time.RFC3339), n.Kind, n.ID, n.Recipient, n.UserID, n.EventID, n.SeatID)
	if n.EvidenceRef != "" {
		line += fmt.Sprintf(" | evidence=%q", n.EvidenceRef)
	}
	if n.Decision != "" {
		line += " | decision=" + n.Decision
	}
	if n.MessageID != 0 {
		line += fmt.Sprintf(" | message=%d", n.MessageID)
	}
	if n.Text != "" {
		line += fmt.Sprintf(" | text=%q", n.Text)
	}
	return line + "\n"
}
