package secret

import (
	"context"
	"log/slog"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/jpillora/backoff"
	"github.com/ruteri/wingedcap-client/interfaces"
)

const (
	DefaultWatchInterval = 30 * time.Second
	DefaultMaxBackoff    = 10 * time.Minute
)

// Watcher re-polls a record on an interval. When every key of a round fails
// the next round is delayed with exponential backoff instead.
type Watcher struct {
	Client   interfaces.KeyServerClient
	Splitter interfaces.SecretSplitter
	Log      *slog.Logger

	Interval   time.Duration
	MaxBackoff time.Duration
	// Jitter randomizes backoff delays between Interval and the exponential delay.
	Jitter bool
	Clock  clock.Clock
}

// WatchSender pings the sender record until ctx is done or fn returns false.
func (w *Watcher) WatchSender(ctx context.Context, sender interfaces.Sender, fn func(interfaces.SenderState) bool) error {
	return w.run(ctx, func(ctx context.Context) (bool, bool, error) {
		state, failed, err := pingRound(ctx, w.Client, sender, w.logger())
		if err != nil {
			return false, false, err
		}
		return fn(state), len(sender.Keys) > 0 && failed == len(sender.Keys), nil
	})
}

// WatchReceiver fetches the receiver record until ctx is done or fn returns false.
func (w *Watcher) WatchReceiver(ctx context.Context, receiver interfaces.Receiver, fn func(interfaces.ReceiverState) bool) error {
	return w.run(ctx, func(ctx context.Context) (bool, bool, error) {
		state, failed, err := getRound(ctx, w.Client, w.Splitter, receiver, w.logger())
		if err != nil {
			return false, false, err
		}
		return fn(state), len(receiver.Keys) > 0 && failed == len(receiver.Keys), nil
	})
}

// run calls round until it asks to stop. round reports whether to continue
// and whether every call of the round failed.
func (w *Watcher) run(ctx context.Context, round func(ctx context.Context) (bool, bool, error)) error {
	interval := w.Interval
	if interval <= 0 {
		interval = DefaultWatchInterval
	}
	maxBackoff := w.MaxBackoff
	if maxBackoff <= 0 {
		maxBackoff = DefaultMaxBackoff
	}
	if maxBackoff < interval {
		maxBackoff = interval
	}
	clk := w.Clock
	if clk == nil {
		clk = clock.New()
	}

	b := &backoff.Backoff{
		Min:    interval,
		Max:    maxBackoff,
		Factor: 2,
		Jitter: w.Jitter,
	}

	for {
		more, allFailed, err := round(ctx)
		if err != nil {
			return err
		}
		if !more {
			return nil
		}

		delay := interval
		if allFailed {
			delay = b.Duration()
			w.logger().Warn("No key server reachable, backing off", "delay", delay)
		} else {
			b.Reset()
		}

		timer := clk.Timer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

func (w *Watcher) logger() *slog.Logger {
	if w.Log == nil {
		return slog.Default()
	}
	return w.Log
}
