package notifications

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

var ErrProviderDown = errors.New("notification provider down")

// LogNotifier writes notifications to the structured log instead of a provider.
type LogNotifier struct {
	log *slog.Logger

	// Delay and Fail simulate a slow or failing provider.
	Delay time.Duration
	Fail  bool
}

func NewLogNotifier(log *slog.Logger) *LogNotifier {
	if log == nil {
		log = slog.Default()
	}
	return &LogNotifier{log: log}
}

func (n *LogNotifier) SendWelcome(ctx context.Context, in WelcomeInput) error {
	if n.Delay > 0 {
		select {
		case <-time.After(n.Delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	if n.Fail {
		return ErrProviderDown
	}

	n.log.InfoContext(ctx, "notification.welcome",
		"user_id", in.UserID,
		"email", in.Email,
		"name", in.Name,
	)
	return nil
}
