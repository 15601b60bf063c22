// Package notify delivers unhealthy-service alerts over mail and Slack.
package notify

import (
	"context"
	"fmt"

	"go.uber.org/multierr"
)

type Notifier interface {
	Send(ctx context.Context, title, text string) error
}

// Multi delivers to every notifier in order and combines the failures.
// A failing channel never stops the ones after it.
type Multi []Notifier

func (m Multi) Send(ctx context.Context, title, text string) error {
	var err error
	for _, n := range m {
		if n == nil {
			continue
		}
		err = multierr.Append(err, n.Send(ctx, title, text))
	}
	return err
}

// Named prefixes a notifier's errors with the channel name.
func Named(name string, n Notifier) Notifier { return named{name: name, next: n} }

type named struct {
	name string
	next Notifier
}

func (n named) Send(ctx context.Context, title, text string) error {
	if err := n.next.Send(ctx, title, text); err != nil {
		return fmt.Errorf("%s: %w", n.name, err)
	}
	return nil
}
