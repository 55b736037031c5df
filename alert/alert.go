package alert

import (
	"context"
	"fmt"
	"time"

	"site-guardian/history"
	"site-guardian/model"
)

// Cooldown is the minimum spacing between alerts for one site.
const Cooldown = 60 * time.Minute

// Notifier delivers one-shot user notifications. Delivery is best-effort;
// a failed Notify is logged by the caller and never retried.
type Notifier interface {
	Notify(ctx context.Context, n model.Notification) error
}

// Decision is the outcome of evaluating the growth policy for one site.
type Decision struct {
	Emit        bool
	DeltaKB     int64
	ThresholdKB int64
}

// Evaluate decides whether a storage-growth alert should fire for site.
// Growth is measured against the last history point; with no history the
// delta is zero and nothing fires. Suppression is silent and final for
// this snapshot cycle. Evaluate does not mutate the site; on an emit
// decision the caller stamps LastAlertedAt and dispatches the
// notification.
func Evaluate(site *model.Site, settings model.Settings, at time.Time) Decision {
	storageKB := site.StorageKB()

	prev := storageKB
	if len(site.History) > 0 {
		prev = history.Latest(site.History).StorageKB
	}
	delta := storageKB - prev

	threshold := site.ThresholdKB
	if threshold <= 0 {
		threshold = settings.DefaultThresholdKB
	}

	d := Decision{DeltaKB: delta, ThresholdKB: threshold}
	if delta <= 0 {
		return d
	}
	if site.LastAlertedAt > 0 && at.UnixMilli()-site.LastAlertedAt < Cooldown.Milliseconds() {
		return d
	}
	if delta < threshold {
		return d
	}

	d.Emit = true
	return d
}

// NotificationFor builds the growth alert for an emit decision. The id
// combines hostname and timestamp so concurrent alerts for different
// sites never collide.
func NotificationFor(site *model.Site, d Decision, at time.Time) model.Notification {
	return model.Notification{
		ID:    fmt.Sprintf("sg_%s_%d", site.Hostname, at.UnixMilli()),
		Title: "SiteGuardian alert",
		Message: fmt.Sprintf("%s storage jumped +%d KB (threshold %d KB)",
			site.Hostname, d.DeltaKB, d.ThresholdKB),
	}
}
