package workflow

import "context"

// compensations records undo actions for the steps of a multi-system
// operation. When a later step fails, run executes the recorded actions in
// reverse order. Actions are best-effort: each one handles and logs its own
// failure, so a broken compensation never masks the original error.
type compensations struct {
	actions []func(context.Context)
}

func (c *compensations) add(action func(context.Context)) {
	c.actions = append(c.actions, action)
}

func (c *compensations) run(ctx context.Context) {
	for i := len(c.actions) - 1; i >= 0; i-- {
		c.actions[i](ctx)
	}
}
