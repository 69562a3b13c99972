package publishing

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// PollResult is a successful resolution: the asset's locator and the dataset
// root hash that accompanies it.
type PollResult struct {
	Locator     Locator
	DatasetRoot string
}

// Poller repeatedly checks the status of a pending submission until a locator
// appears, the backend reports a terminal failure, or the attempt budget runs
// out.
type Poller struct {
	checker     StatusChecker
	maxAttempts int
	interval    time.Duration
	logger      *slog.Logger
}

func NewPoller(checker StatusChecker, maxAttempts int, interval time.Duration, logger *slog.Logger) *Poller {
	return &Poller{
		checker:     checker,
		maxAttempts: maxAttempts,
		interval:    interval,
		logger:      logger.With(slog.String("type", "publishing.Poller")),
	}
}

// Poll drives fixed-interval status checks against the given handle.
//
// Outcomes:
//   - a locator appears: success
//   - the backend reports the asset failed: *TerminalFailureError, immediately
//   - the attempt budget is exhausted: an error wrapping ErrPollTimeout,
//     meaning "unknown, check again later", never "failed"
//
// A status check that itself errors (network, 5xx) counts as an inconclusive
// attempt: the asset state is unknown, not failed.
func (p *Poller) Poll(ctx context.Context, handle Handle) (PollResult, error) {
	for attempt := 1; attempt <= p.maxAttempts; attempt++ {
		status, err := p.checker.CheckStatus(ctx, handle)
		if err != nil {
			p.logger.Warn("status check failed",
				slog.Int("attempt", attempt),
				slog.Any("error", err))
		} else {
			switch status.State {
			case CompletedAssetState:
				if status.Locator != nil {
					return PollResult{Locator: *status.Locator, DatasetRoot: status.DatasetRoot}, nil
				}
				// completed without a locator is a backend inconsistency; keep polling
				p.logger.Warn("asset reported completed without a locator", slog.Int("attempt", attempt))
			case FailedAssetState:
				return PollResult{}, &TerminalFailureError{Message: status.Message}
			}
		}
		if attempt < p.maxAttempts {
			select {
			case <-ctx.Done():
				return PollResult{}, ctx.Err()
			case <-time.After(p.interval):
			}
		}
	}
	return PollResult{}, fmt.Errorf("%w (%d attempts at %s intervals)", ErrPollTimeout, p.maxAttempts, p.interval)
}
