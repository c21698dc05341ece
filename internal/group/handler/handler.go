// Package handler exposes the group engine over HTTP. Handlers decode,
// delegate and encode; every rule lives in the service.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"beredskap/internal/directory"
	"beredskap/internal/group/models"
	"beredskap/internal/inventory"
	"beredskap/internal/platform/metrics"
	"beredskap/internal/platform/middleware"
	"beredskap/internal/transport/http/shared"
	id "beredskap/pkg/domain"
	dErrors "beredskap/pkg/domain-errors"
	"beredskap/pkg/requestcontext"
)

// Service is the engine surface the handler consumes.
type Service interface {
	CreateGroup(ctx context.Context, name, requesterEmail string) (*models.Group, error)
	FoundMembership(ctx context.Context, groupID id.GroupID, requesterEmail string) (*models.Membership, error)
	CurrentUserGroups(ctx context.Context, requesterEmail string, page, size int) ([]*models.Group, error)
	GetGroup(ctx context.Context, groupID id.GroupID) (*models.Group, error)
	Leave(ctx context.Context, groupID id.GroupID, requesterEmail string) error
	ListCurrentHouseholds(ctx context.Context, groupID id.GroupID, requesterEmail string) ([]*directory.Household, error)
	Invite(ctx context.Context, groupID id.GroupID, invitedHouseholdName, inviterEmail string) (*models.Invitation, error)
	Accept(ctx context.Context, invitationID id.InvitationID, actingEmail string) (*models.Membership, error)
	Decline(ctx context.Context, invitationID id.InvitationID, actingEmail string) error
	ListPending(ctx context.Context, requesterEmail string) ([]*models.Invitation, error)
	ContributeBatch(ctx context.Context, batchID id.BatchID, groupID id.GroupID, requesterEmail string) (*models.Contribution, error)
	ContributeCustom(ctx context.Context, groupID id.GroupID, customName string, expiresAt *time.Time, requesterEmail string) (*models.Contribution, error)
	RetractBatch(ctx context.Context, batchID id.BatchID, requesterEmail string) error
	TotalUnitsForProductType(ctx context.Context, productTypeID id.ProductTypeID, groupID id.GroupID) (int, error)
	ContributedProductTypes(ctx context.Context, groupID id.GroupID, requesterEmail string, page, size int) ([]*inventory.ProductType, error)
	SearchContributedProductTypes(ctx context.Context, groupID id.GroupID, query, requesterEmail string, page, size int) ([]*inventory.ProductType, error)
	ContributedBatchesByType(ctx context.Context, groupID id.GroupID, productTypeID id.ProductTypeID, page, size int) ([]*inventory.Batch, error)
	IsBatchContributed(ctx context.Context, batchID id.BatchID, requesterEmail string) (bool, error)
}

// Handler serves the group endpoints under /user/groups.
type Handler struct {
	logger    *slog.Logger
	service   Service
	metrics   *metrics.Metrics
	validator middleware.TokenValidator
}

func New(service Service, logger *slog.Logger, m *metrics.Metrics, validator middleware.TokenValidator) *Handler {
	return &Handler{
		logger:    logger,
		service:   service,
		metrics:   m,
		validator: validator,
	}
}

// Register mounts the group routes with the full middleware chain.
func (h *Handler) Register(r chi.Router) {
	groupRouter := chi.NewRouter()
	groupRouter.Use(middleware.Recovery(h.logger))
	groupRouter.Use(middleware.RequestID)
	groupRouter.Use(middleware.RequestTime)
	groupRouter.Use(middleware.Logger(h.logger))
	groupRouter.Use(middleware.Timeout(30 * time.Second))
	groupRouter.Use(middleware.ContentTypeJSON)
	groupRouter.Use(middleware.Latency(h.metrics))
	groupRouter.Use(middleware.RequireAuth(h.validator, h.logger))

	groupRouter.Post("/", h.handleCreateGroup)
	groupRouter.Get("/current", h.handleCurrentGroups)
	groupRouter.Patch("/leave/{groupID}", h.handleLeave)
	groupRouter.Get("/{groupID}/households", h.handleListHouseholds)
	groupRouter.Post("/{groupID}/invitations", h.handleInvite)
	groupRouter.Get("/invitations/pending", h.handleListPending)
	groupRouter.Patch("/invitations/{invitationID}/accept", h.handleAccept)
	groupRouter.Patch("/invitations/{invitationID}/decline", h.handleDecline)
	groupRouter.Post("/inventory", h.handleContribute)
	groupRouter.Patch("/inventory/product-batches/{batchID}", h.handleRetractBatch)
	groupRouter.Get("/inventory/product-types", h.handleContributedProductTypes)
	groupRouter.Get("/inventory/product-types/search", h.handleSearchProductTypes)
	groupRouter.Get("/inventory/product-types/batches", h.handleContributedBatches)
	groupRouter.Get("/inventory/product-types/total-units", h.handleTotalUnits)
	groupRouter.Get("/inventory/{batchID}/contributed", h.handleIsContributed)

	r.Mount("/user/groups", groupRouter)
}

// handleCreateGroup creates the group and enrolls the creator's
// household as its founding member.
func (h *Handler) handleCreateGroup(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	email := requestcontext.UserEmail(ctx)

	var req createGroupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	group, err := h.service.CreateGroup(ctx, req.Name, email)
	if err != nil {
		h.writeServiceError(ctx, w, err, "create group")
		return
	}
	if _, err := h.service.FoundMembership(ctx, group.ID, email); err != nil {
		h.writeServiceError(ctx, w, err, "found membership")
		return
	}
	shared.WriteJSON(w, http.StatusCreated, newGroupResponse(group))
}

func (h *Handler) handleCurrentGroups(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	page, size := pagination(r)

	groups, err := h.service.CurrentUserGroups(ctx, requestcontext.UserEmail(ctx), page, size)
	if err != nil {
		h.writeServiceError(ctx, w, err, "list current groups")
		return
	}
	shared.WriteJSON(w, http.StatusOK, newGroupListResponse(groups))
}

func (h *Handler) handleLeave(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	groupID, err := id.ParseGroupID(chi.URLParam(r, "groupID"))
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid group id"))
		return
	}

	if err := h.service.Leave(ctx, groupID, requestcontext.UserEmail(ctx)); err != nil {
		h.writeServiceError(ctx, w, err, "leave group")
		return
	}
	shared.WriteJSON(w, http.StatusNoContent, nil)
}

func (h *Handler) handleListHouseholds(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	groupID, err := id.ParseGroupID(chi.URLParam(r, "groupID"))
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid group id"))
		return
	}

	households, err := h.service.ListCurrentHouseholds(ctx, groupID, requestcontext.UserEmail(ctx))
	if err != nil {
		h.writeServiceError(ctx, w, err, "list households")
		return
	}
	shared.WriteJSON(w, http.StatusOK, newHouseholdListResponse(households))
}

func (h *Handler) handleInvite(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	groupID, err := id.ParseGroupID(chi.URLParam(r, "groupID"))
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid group id"))
		return
	}
	var req inviteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	invitation, err := h.service.Invite(ctx, groupID, req.HouseholdName, requestcontext.UserEmail(ctx))
	if err != nil {
		h.writeServiceError(ctx, w, err, "invite household")
		return
	}
	shared.WriteJSON(w, http.StatusCreated, newInvitationResponse(invitation, ""))
}

func (h *Handler) handleListPending(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	pending, err := h.service.ListPending(ctx, requestcontext.UserEmail(ctx))
	if err != nil {
		h.writeServiceError(ctx, w, err, "list pending invitations")
		return
	}

	out := make([]invitationResponse, len(pending))
	for i, inv := range pending {
		groupName := ""
		if group, err := h.service.GetGroup(ctx, inv.GroupID); err == nil {
			groupName = group.Name
		}
		out[i] = newInvitationResponse(inv, groupName)
	}
	shared.WriteJSON(w, http.StatusOK, out)
}

func (h *Handler) handleAccept(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	invitationID, err := id.ParseInvitationID(chi.URLParam(r, "invitationID"))
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid invitation id"))
		return
	}

	membership, err := h.service.Accept(ctx, invitationID, requestcontext.UserEmail(ctx))
	if err != nil {
		h.writeServiceError(ctx, w, err, "accept invitation")
		return
	}
	shared.WriteJSON(w, http.StatusOK, newMembershipResponse(membership))
}

func (h *Handler) handleDecline(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	invitationID, err := id.ParseInvitationID(chi.URLParam(r, "invitationID"))
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid invitation id"))
		return
	}

	if err := h.service.Decline(ctx, invitationID, requestcontext.UserEmail(ctx)); err != nil {
		h.writeServiceError(ctx, w, err, "decline invitation")
		return
	}
	shared.WriteJSON(w, http.StatusNoContent, nil)
}

// handleContribute adds a batch contribution, or a custom entry when the
// request carries a name instead of a batch id.
func (h *Handler) handleContribute(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	email := requestcontext.UserEmail(ctx)

	var raw json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	var batchReq contributeBatchRequest
	if err := json.Unmarshal(raw, &batchReq); err == nil && batchReq.BatchID != "" {
		batchID, err := id.ParseBatchID(batchReq.BatchID)
		if err != nil {
			shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid batch id"))
			return
		}
		groupID, err := id.ParseGroupID(batchReq.GroupID)
		if err != nil {
			shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid group id"))
			return
		}
		contribution, err := h.service.ContributeBatch(ctx, batchID, groupID, email)
		if err != nil {
			h.writeServiceError(ctx, w, err, "contribute batch")
			return
		}
		shared.WriteJSON(w, http.StatusCreated, newContributionResponse(contribution))
		return
	}

	var customReq contributeCustomRequest
	if err := json.Unmarshal(raw, &customReq); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	groupID, err := id.ParseGroupID(customReq.GroupID)
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid group id"))
		return
	}
	contribution, err := h.service.ContributeCustom(ctx, groupID, customReq.Name, customReq.ExpirationDate, email)
	if err != nil {
		h.writeServiceError(ctx, w, err, "contribute custom")
		return
	}
	shared.WriteJSON(w, http.StatusCreated, newContributionResponse(contribution))
}

func (h *Handler) handleRetractBatch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	batchID, err := id.ParseBatchID(chi.URLParam(r, "batchID"))
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid batch id"))
		return
	}

	if err := h.service.RetractBatch(ctx, batchID, requestcontext.UserEmail(ctx)); err != nil {
		h.writeServiceError(ctx, w, err, "retract batch")
		return
	}
	shared.WriteJSON(w, http.StatusNoContent, nil)
}

func (h *Handler) handleContributedProductTypes(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	groupID, err := id.ParseGroupID(r.URL.Query().Get("groupId"))
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid group id"))
		return
	}
	page, size := pagination(r)

	types, err := h.service.ContributedProductTypes(ctx, groupID, requestcontext.UserEmail(ctx), page, size)
	if err != nil {
		h.writeServiceError(ctx, w, err, "list contributed product types")
		return
	}
	shared.WriteJSON(w, http.StatusOK, newProductTypeListResponse(types))
}

func (h *Handler) handleSearchProductTypes(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	groupID, err := id.ParseGroupID(r.URL.Query().Get("groupId"))
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid group id"))
		return
	}
	query := r.URL.Query().Get("search")
	page, size := pagination(r)

	types, err := h.service.SearchContributedProductTypes(ctx, groupID, query, requestcontext.UserEmail(ctx), page, size)
	if err != nil {
		h.writeServiceError(ctx, w, err, "search contributed product types")
		return
	}
	shared.WriteJSON(w, http.StatusOK, newProductTypeListResponse(types))
}

func (h *Handler) handleContributedBatches(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	groupID, err := id.ParseGroupID(r.URL.Query().Get("groupId"))
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid group id"))
		return
	}
	productTypeID, err := id.ParseProductTypeID(r.URL.Query().Get("productTypeId"))
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid product type id"))
		return
	}
	page, size := pagination(r)

	batches, err := h.service.ContributedBatchesByType(ctx, groupID, productTypeID, page, size)
	if err != nil {
		h.writeServiceError(ctx, w, err, "list contributed batches")
		return
	}
	shared.WriteJSON(w, http.StatusOK, newBatchListResponse(batches))
}

func (h *Handler) handleTotalUnits(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	groupID, err := id.ParseGroupID(r.URL.Query().Get("groupId"))
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid group id"))
		return
	}
	productTypeID, err := id.ParseProductTypeID(r.URL.Query().Get("productTypeId"))
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid product type id"))
		return
	}

	total, err := h.service.TotalUnitsForProductType(ctx, productTypeID, groupID)
	if err != nil {
		h.writeServiceError(ctx, w, err, "total units")
		return
	}
	shared.WriteJSON(w, http.StatusOK, totalUnitsResponse{Total: total})
}

func (h *Handler) handleIsContributed(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	batchID, err := id.ParseBatchID(chi.URLParam(r, "batchID"))
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid batch id"))
		return
	}

	contributed, err := h.service.IsBatchContributed(ctx, batchID, requestcontext.UserEmail(ctx))
	if err != nil {
		h.writeServiceError(ctx, w, err, "check contributed")
		return
	}
	shared.WriteJSON(w, http.StatusOK, contributedResponse{Contributed: contributed})
}

// writeServiceError logs unexpected failures and hands expected codes
// straight to the shared writer.
func (h *Handler) writeServiceError(ctx context.Context, w http.ResponseWriter, err error, op string) {
	if dErrors.CodeOf(err) == dErrors.CodeInternal {
		h.logger.ErrorContext(ctx, "operation failed",
			"op", op,
			"request_id", requestcontext.RequestID(ctx),
			"error", err.Error(),
		)
	}
	shared.WriteError(w, err)
}

func pagination(r *http.Request) (page, size int) {
	page, _ = strconv.Atoi(r.URL.Query().Get("page"))
	size, _ = strconv.Atoi(r.URL.Query().Get("size"))
	return page, size
}
