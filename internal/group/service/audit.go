package service

import (
	"context"
	"log/slog"

	id "beredskap/pkg/domain"
	"beredskap/pkg/platform/audit"
	"beredskap/pkg/requestcontext"
)

// auditEmitter publishes engine events best-effort. A failed publish is
// logged and swallowed so that audit sink trouble never fails a business
// operation.
type auditEmitter struct {
	logger    *slog.Logger
	publisher audit.Publisher
}

func newAuditEmitter(logger *slog.Logger, publisher audit.Publisher) *auditEmitter {
	return &auditEmitter{logger: logger, publisher: publisher}
}

func (e *auditEmitter) emit(ctx context.Context, action audit.Action, groupID id.GroupID, householdID id.HouseholdID, detail string) {
	if e.publisher == nil {
		return
	}
	event := audit.Event{
		Action:      action,
		Timestamp:   requestcontext.Now(ctx),
		GroupID:     groupID,
		HouseholdID: householdID,
		ActorEmail:  requestcontext.UserEmail(ctx),
		RequestID:   requestcontext.RequestID(ctx),
		Detail:      detail,
	}
	if err := e.publisher.Publish(ctx, event); err != nil {
		e.logger.Warn("audit publish failed",
			"action", string(action),
			"group_id", groupID.String(),
			"error", err)
	}
}
