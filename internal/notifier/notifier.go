package notifier

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// Notifier delivers breach alerts. Implementations must be safe for
// concurrent use and should bound their own I/O: the monitor treats Send as
// potentially slow or failing and never lets it block a completion.

type Notifier interface {
	Send(ctx context.Context, message string) error
}

// Func adapts a function to the Notifier interface.
type Func func(ctx context.Context, message string) error

func (f Func) Send(ctx context.Context, message string) error { return f(ctx, message) }

// Slog logs alerts through the process logger at warn level. It is the
// default sink when no transport is configured, so breaches are never
// silently dropped.
type Slog struct {
	Logger *slog.Logger
}

func (s Slog) Send(_ context.Context, message string) error {
	l := s.Logger
	if l == nil {
		l = slog.Default()
	}
	l.Warn("runtime threshold breach", "alert", message)
	return nil
}

// Multi fans one alert out to several notifiers, aggregating failures.
type Multi []Notifier

func (m Multi) Send(ctx context.Context, message string) error {
	var errs []error
	for _, n := range m {
		if err := n.Send(ctx, message); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Config selects and parameterizes a notifier transport.
type Config struct {
	Type    string        `mapstructure:"type"` // "slog" (default), "webhook"
	URL     string        `mapstructure:"url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// NewFromConfig builds a notifier from config. An empty type falls back to
// the slog notifier.
func NewFromConfig(c Config) (Notifier, error) {
	switch c.Type {
	case "", "slog", "log":
		return Slog{}, nil
	case "webhook":
		if c.URL == "" {
			return nil, errors.New("webhook notifier requires url")
		}
		return NewWebhook(c.URL, c.Timeout), nil
	default:
		return nil, fmt.Errorf("unsupported notifier type: %s", c.Type)
	}
}
