package handler

import (
	"time"
)

type createGroupRequest struct {
	Name string `json:"name"`
}

type inviteRequest struct {
	HouseholdName string `json:"householdName"`
}

type contributeBatchRequest struct {
	BatchID string `json:"batchId"`
	GroupID string `json:"groupId"`
}

type contributeCustomRequest struct {
	GroupID        string     `json:"groupId"`
	Name           string     `json:"name"`
	ExpirationDate *time.Time `json:"expirationDate,omitempty"`
}
