// Package metrics provides observability for the group module.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics tracks group lifecycle and ledger activity.
type Metrics struct {
	GroupsCreated        prometheus.Counter
	GroupsArchived       prometheus.Counter
	MembershipsStarted   prometheus.Counter
	MembershipsEnded     prometheus.Counter
	InvitationsCreated   prometheus.Counter
	InvitationsResolved  *prometheus.CounterVec
	ContributionsAdded   prometheus.Counter
	ContributionsRemoved prometheus.Counter
}

// New creates a Metrics instance with all group module metrics registered.
func New() *Metrics {
	return &Metrics{
		GroupsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "beredskap_groups_created_total",
			Help: "Total number of groups created",
		}),
		GroupsArchived: promauto.NewCounter(prometheus.CounterOpts{
			Name: "beredskap_groups_archived_total",
			Help: "Total number of groups archived on last-member departure",
		}),
		MembershipsStarted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "beredskap_memberships_started_total",
			Help: "Total number of memberships started",
		}),
		MembershipsEnded: promauto.NewCounter(prometheus.CounterOpts{
			Name: "beredskap_memberships_ended_total",
			Help: "Total number of memberships ended",
		}),
		InvitationsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "beredskap_invitations_created_total",
			Help: "Total number of invitations created",
		}),
		InvitationsResolved: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "beredskap_invitations_resolved_total",
			Help: "Invitations resolved by outcome",
		}, []string{"outcome"}),
		ContributionsAdded: promauto.NewCounter(prometheus.CounterOpts{
			Name: "beredskap_contributions_added_total",
			Help: "Total number of inventory contributions added",
		}),
		ContributionsRemoved: promauto.NewCounter(prometheus.CounterOpts{
			Name: "beredskap_contributions_removed_total",
			Help: "Total number of inventory contributions removed",
		}),
	}
}

// IncrementInvitationResolved records an accepted or declined invitation.
func (m *Metrics) IncrementInvitationResolved(outcome string) {
	m.InvitationsResolved.WithLabelValues(outcome).Inc()
}
