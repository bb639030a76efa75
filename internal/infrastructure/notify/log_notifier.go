// Package notify holds Notifier implementations. The chat transport provides
// the real one; LogNotifier is the default when the engine runs standalone.
package notify

import (
	"context"

	"github.com/rs/zerolog"
)

// LogNotifier records notifications in the service log instead of delivering
// them. Deliveries are best-effort by contract, so a log line is an
// acceptable stand-in when no transport is attached.
type LogNotifier struct {
	log zerolog.Logger
}

func NewLogNotifier(log zerolog.Logger) *LogNotifier {
	return &LogNotifier{log: log}
}

func (n *LogNotifier) Notify(_ context.Context, userID int64, message string) error {
	n.log.Info().Int64("user_id", userID).Str("message", message).Msg("notification (no transport attached)")
	return nil
}
