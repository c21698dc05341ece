// Package service orchestrates the group engine: registry, membership
// ledger, invitation workflow and contribution ledger. Handlers stay thin,
// stores stay dumb; every business rule lives here or in models.
package service

import (
	"context"
	"log/slog"
	"time"

	"beredskap/internal/directory"
	groupmetrics "beredskap/internal/group/metrics"
	"beredskap/internal/group/models"
	"beredskap/internal/inventory"
	"beredskap/internal/notify"
	id "beredskap/pkg/domain"
	"beredskap/pkg/platform/audit"
)

// GroupStore persists groups. Implementations return sentinel errors.
type GroupStore interface {
	Create(ctx context.Context, group *models.Group) error
	FindByID(ctx context.Context, groupID id.GroupID) (*models.Group, error)
	FindByIDs(ctx context.Context, groupIDs []id.GroupID) ([]*models.Group, error)
	Update(ctx context.Context, group *models.Group) error
}

// MembershipStore persists membership tenures. Rows are append-only;
// Update only ever sets LeftAt.
type MembershipStore interface {
	Create(ctx context.Context, membership *models.Membership) error
	Update(ctx context.Context, membership *models.Membership) error
	CurrentByGroupAndHousehold(ctx context.Context, groupID id.GroupID, householdID id.HouseholdID, now time.Time) (*models.Membership, error)
	CurrentByHousehold(ctx context.Context, householdID id.HouseholdID, now time.Time) ([]*models.Membership, error)
	CurrentByGroup(ctx context.Context, groupID id.GroupID, now time.Time) ([]*models.Membership, error)
	CountCurrentByGroup(ctx context.Context, groupID id.GroupID, now time.Time) (int, error)
}

// InvitationStore persists invitations. Pending is the derived predicate
// (unresolved and unexpired at now); stores never write an expired state.
type InvitationStore interface {
	Create(ctx context.Context, invitation *models.Invitation) error
	Update(ctx context.Context, invitation *models.Invitation) error
	FindByID(ctx context.Context, invitationID id.InvitationID) (*models.Invitation, error)
	PendingByGroupAndHousehold(ctx context.Context, groupID id.GroupID, householdID id.HouseholdID, now time.Time) (*models.Invitation, error)
	PendingByHousehold(ctx context.Context, householdID id.HouseholdID, now time.Time) ([]*models.Invitation, error)
}

// ContributionStore persists the contribution ledger. Create returns
// sentinel.ErrConflict when the batch is already contributed anywhere;
// postgres backs this with a partial unique index, memory with a map scan
// under the store lock.
type ContributionStore interface {
	Create(ctx context.Context, contribution *models.Contribution) error
	FindByID(ctx context.Context, contributionID id.ContributionID) (*models.Contribution, error)
	FindByBatchID(ctx context.Context, batchID id.BatchID) (*models.Contribution, error)
	ExistsForBatch(ctx context.Context, batchID id.BatchID) (bool, error)
	Delete(ctx context.Context, contributionID id.ContributionID) error
	DeleteAllForHouseholdInGroup(ctx context.Context, groupID id.GroupID, householdID id.HouseholdID) (int, error)
	BatchIDsByGroup(ctx context.Context, groupID id.GroupID) ([]id.BatchID, error)
}

const (
	defaultInviteTTL = 7 * 24 * time.Hour
	defaultPageSize  = 20
)

// Service is the group engine facade. All operations take the acting
// user's email and resolve authorization through the household directory.
type Service struct {
	groups        GroupStore
	memberships   MembershipStore
	invitations   InvitationStore
	contributions ContributionStore
	directory     directory.Store
	inventory     inventory.Store
	notifier      notify.Notifier
	auditEmitter  *auditEmitter
	metrics       *groupmetrics.Metrics
	tx            StoreTx
	inviteTTL     time.Duration
	pageSize      int
	logger        *slog.Logger
}

type serviceConfig struct {
	logger         *slog.Logger
	auditPublisher audit.Publisher
	metrics        *groupmetrics.Metrics
	notifier       notify.Notifier
	tx             StoreTx
	inviteTTL      time.Duration
	pageSize       int
}

type Option func(cfg *serviceConfig)

func WithLogger(logger *slog.Logger) Option {
	return func(cfg *serviceConfig) { cfg.logger = logger }
}

func WithAuditPublisher(publisher audit.Publisher) Option {
	return func(cfg *serviceConfig) { cfg.auditPublisher = publisher }
}

func WithMetrics(m *groupmetrics.Metrics) Option {
	return func(cfg *serviceConfig) { cfg.metrics = m }
}

func WithNotifier(n notify.Notifier) Option {
	return func(cfg *serviceConfig) { cfg.notifier = n }
}

// WithStoreTx sets the transaction runner. The composition root passes the
// database-backed runner; without this option mutations run under an
// in-memory lock, which is what the unit tests want.
func WithStoreTx(tx StoreTx) Option {
	return func(cfg *serviceConfig) { cfg.tx = tx }
}

func WithInviteTTL(ttl time.Duration) Option {
	return func(cfg *serviceConfig) { cfg.inviteTTL = ttl }
}

func WithPageSize(size int) Option {
	return func(cfg *serviceConfig) { cfg.pageSize = size }
}

// New constructs the group Service.
func New(
	groups GroupStore,
	memberships MembershipStore,
	invitations InvitationStore,
	contributions ContributionStore,
	dir directory.Store,
	inv inventory.Store,
	opts ...Option,
) *Service {
	cfg := &serviceConfig{}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.logger == nil {
		cfg.logger = slog.Default()
	}
	if cfg.notifier == nil {
		cfg.notifier = notify.Noop{}
	}
	if cfg.tx == nil {
		cfg.tx = newInMemoryStoreTx()
	}
	if cfg.inviteTTL <= 0 {
		cfg.inviteTTL = defaultInviteTTL
	}
	if cfg.pageSize <= 0 {
		cfg.pageSize = defaultPageSize
	}
	return &Service{
		groups:        groups,
		memberships:   memberships,
		invitations:   invitations,
		contributions: contributions,
		directory:     dir,
		inventory:     inv,
		notifier:      cfg.notifier,
		auditEmitter:  newAuditEmitter(cfg.logger, cfg.auditPublisher),
		metrics:       cfg.metrics,
		tx:            cfg.tx,
		inviteTTL:     cfg.inviteTTL,
		pageSize:      cfg.pageSize,
		logger:        cfg.logger,
	}
}

// notifyHousehold delivers fire-and-forget. Failures are logged and never
// change the outcome of the operation that triggered them.
func (s *Service) notifyHousehold(ctx context.Context, householdID id.HouseholdID, message string) {
	if err := s.notifier.Notify(ctx, householdID, message); err != nil {
		s.logger.Warn("notification delivery failed",
			"household_id", householdID.String(),
			"error", err)
	}
}

// paginate slices items for a zero-based page of the given size. A size
// of zero or less falls back to the configured default.
func paginate[T any](items []T, page, size, defaultSize int) []T {
	if size <= 0 {
		size = defaultSize
	}
	if page < 0 {
		page = 0
	}
	start := page * size
	if start >= len(items) {
		return []T{}
	}
	end := start + size
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}
