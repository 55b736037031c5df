package notify

import (
	"context"

	"site-guardian/alert"
	"site-guardian/model"

	"github.com/rs/zerolog/log"
)

// LogNotifier writes notifications to the structured log. It is the
// default sink and never fails.
type LogNotifier struct{}

// Notify implements alert.Notifier.
func (LogNotifier) Notify(_ context.Context, n model.Notification) error {
	log.Info().
		Str("notification_id", n.ID).
		Str("title", n.Title).
		Str("message", n.Message).
		Msg("Notification")
	return nil
}

// Multi fans a notification out to several sinks. Each sink is
// best-effort: individual failures are logged and swallowed so one bad
// sink never blocks the others or the caller.
type Multi []alert.Notifier

// Notify implements alert.Notifier.
func (m Multi) Notify(ctx context.Context, n model.Notification) error {
	for _, sink := range m {
		if err := sink.Notify(ctx, n); err != nil {
			log.Error().Err(err).Str("notification_id", n.ID).Msg("Notification sink failed")
		}
	}
	return nil
}
