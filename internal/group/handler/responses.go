package handler

import (
	"time"

	"beredskap/internal/directory"
	"beredskap/internal/group/models"
	"beredskap/internal/inventory"
)

// Ids cross the wire as strings; the typed id values render through their
// String form explicitly.

type groupResponse struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Status        string    `json:"status"`
	CreatedByUser string    `json:"createdByUser"`
	CreatedAt     time.Time `json:"createdAt"`
}

func newGroupResponse(g *models.Group) groupResponse {
	return groupResponse{
		ID:            g.ID.String(),
		Name:          g.Name,
		Status:        string(g.Status),
		CreatedByUser: g.CreatedByUser,
		CreatedAt:     g.CreatedAt,
	}
}

func newGroupListResponse(groups []*models.Group) []groupResponse {
	out := make([]groupResponse, len(groups))
	for i, g := range groups {
		out[i] = newGroupResponse(g)
	}
	return out
}

type householdResponse struct {
	ID              string  `json:"id"`
	Name            string  `json:"name"`
	Address         string  `json:"address,omitempty"`
	PopulationCount int     `json:"populationCount"`
	Latitude        float64 `json:"latitude,omitempty"`
	Longitude       float64 `json:"longitude,omitempty"`
}

func newHouseholdListResponse(households []*directory.Household) []householdResponse {
	out := make([]householdResponse, len(households))
	for i, h := range households {
		out[i] = householdResponse{
			ID:              h.ID.String(),
			Name:            h.Name,
			Address:         h.Address,
			PopulationCount: h.PopulationCount,
			Latitude:        h.Latitude,
			Longitude:       h.Longitude,
		}
	}
	return out
}

type invitationResponse struct {
	ID                 string    `json:"id"`
	GroupID            string    `json:"groupId"`
	GroupName          string    `json:"groupName,omitempty"`
	InvitedHouseholdID string    `json:"invitedHouseholdId"`
	ExpiresAt          time.Time `json:"expiresAt"`
	CreatedAt          time.Time `json:"createdAt"`
}

func newInvitationResponse(inv *models.Invitation, groupName string) invitationResponse {
	return invitationResponse{
		ID:                 inv.ID.String(),
		GroupID:            inv.GroupID.String(),
		GroupName:          groupName,
		InvitedHouseholdID: inv.InvitedHouseholdID.String(),
		ExpiresAt:          inv.ExpiresAt,
		CreatedAt:          inv.CreatedAt,
	}
}

type membershipResponse struct {
	ID          string    `json:"id"`
	GroupID     string    `json:"groupId"`
	HouseholdID string    `json:"householdId"`
	JoinedAt    time.Time `json:"joinedAt"`
}

func newMembershipResponse(m *models.Membership) membershipResponse {
	return membershipResponse{
		ID:          m.ID.String(),
		GroupID:     m.GroupID.String(),
		HouseholdID: m.HouseholdID.String(),
		JoinedAt:    m.JoinedAt,
	}
}

type contributionResponse struct {
	ID            string     `json:"id"`
	GroupID       string     `json:"groupId"`
	HouseholdID   string     `json:"householdId"`
	BatchID       string     `json:"batchId,omitempty"`
	CustomName    string     `json:"customName,omitempty"`
	ExpirationAt  *time.Time `json:"expirationDate,omitempty"`
	ContributedAt time.Time  `json:"contributedAt"`
}

func newContributionResponse(c *models.Contribution) contributionResponse {
	resp := contributionResponse{
		ID:            c.ID.String(),
		GroupID:       c.GroupID.String(),
		HouseholdID:   c.HouseholdID.String(),
		CustomName:    c.CustomName,
		ExpirationAt:  c.ExpirationAt,
		ContributedAt: c.ContributedAt,
	}
	if c.BatchID != nil {
		resp.BatchID = c.BatchID.String()
	}
	return resp
}

type productTypeResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Unit string `json:"unit"`
}

func newProductTypeListResponse(types []*inventory.ProductType) []productTypeResponse {
	out := make([]productTypeResponse, len(types))
	for i, pt := range types {
		out[i] = productTypeResponse{ID: pt.ID.String(), Name: pt.Name, Unit: pt.Unit}
	}
	return out
}

type batchResponse struct {
	ID            string     `json:"id"`
	ProductTypeID string     `json:"productTypeId"`
	UnitCount     int        `json:"number"`
	ExpiresAt     *time.Time `json:"expirationTime,omitempty"`
}

func newBatchListResponse(batches []*inventory.Batch) []batchResponse {
	out := make([]batchResponse, len(batches))
	for i, b := range batches {
		out[i] = batchResponse{
			ID:            b.ID.String(),
			ProductTypeID: b.ProductTypeID.String(),
			UnitCount:     b.UnitCount,
			ExpiresAt:     b.ExpiresAt,
		}
	}
	return out
}

type totalUnitsResponse struct {
	Total int `json:"total"`
}

type contributedResponse struct {
	Contributed bool `json:"contributed"`
}
