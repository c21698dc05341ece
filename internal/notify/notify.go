// Package notify is the fire-and-forget notification sink. The engine
// never waits on delivery and never fails an operation because a
// notification did not go out; emitters log and move on.
package notify

import (
	"context"

	id "beredskap/pkg/domain"
)

// Notifier delivers a message to a household's members.
type Notifier interface {
	Notify(ctx context.Context, householdID id.HouseholdID, message string) error
}

// Noop discards notifications. Used when no sink is configured.
type Noop struct{}

func (Noop) Notify(context.Context, id.HouseholdID, string) error { return nil }
