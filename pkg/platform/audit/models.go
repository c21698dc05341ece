// Package audit defines the events the group engine emits on mutating
// operations and the Publisher contract sinks implement. Emission is
// best-effort: a failed publish is logged by the emitter, never surfaced
// to the caller of a business operation.
package audit

import (
	"context"
	"time"

	id "beredskap/pkg/domain"
)

// Action names a mutating engine operation.
type Action string

const (
	ActionGroupCreated        Action = "group_created"
	ActionGroupArchived       Action = "group_archived"
	ActionMembershipStarted   Action = "membership_started"
	ActionMembershipEnded     Action = "membership_ended"
	ActionInvitationCreated   Action = "invitation_created"
	ActionInvitationAccepted  Action = "invitation_accepted"
	ActionInvitationDeclined  Action = "invitation_declined"
	ActionContributionAdded   Action = "contribution_added"
	ActionContributionRemoved Action = "contribution_removed"
)

// Event captures one engine mutation. Ids are set where the action has
// them; zero values mean not applicable. Sinks serialize their own wire
// payloads from this.
type Event struct {
	Action      Action
	Timestamp   time.Time
	GroupID     id.GroupID
	HouseholdID id.HouseholdID
	ActorEmail  string
	RequestID   string
	Detail      string
}

// Publisher delivers events to a sink.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}
