package webhook

import (
	"fmt"
	"time"

	"github.com/mattjoyce/linear-relay/internal/apperr"
)

// DefaultFreshnessWindow is the largest accepted distance between the
// webhook timestamp and the local clock, in either direction.
const DefaultFreshnessWindow = 60 * time.Second

// CheckFreshness rejects a webhook whose timestamp (unix milliseconds) is
// more than window away from now. It bounds how long a captured delivery can
// be replayed.
func CheckFreshness(now time.Time, webhookTimestampMs int64, window time.Duration) error {
	skew := now.UnixMilli() - webhookTimestampMs
	if skew < 0 {
		skew = -skew
	}
	if skew > window.Milliseconds() {
		return apperr.Stale("webhook.freshness",
			fmt.Sprintf("timestamp is %dms away from now (window %s)", skew, window))
	}
	return nil
}
