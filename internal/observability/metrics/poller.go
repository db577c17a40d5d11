package metrics

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// pollerFunction alias is private and should be used only here
type pollerFunction = func(ctx context.Context) error

// RecordPollerDuration wraps a poll method so every run is observed in the
// poller duration histogram under the given type label.
func RecordPollerDuration(typ string, f pollerFunction) pollerFunction {
	return func(ctx context.Context) error {
		startTime := time.Now()
		err := f(ctx)
		elapsed := time.Since(startTime)

		status := Success
		if err != nil {
			status = Error
		}
		pollerDurationHistogram.WithLabelValues(typ, status.String()).Observe(elapsed.Seconds())

		log.Ctx(ctx).Debug().
			Str("poller", typ).
			Str("status", status.String()).
			Dur("duration", elapsed).
			Msg("poll finished")

		return err
	}
}
