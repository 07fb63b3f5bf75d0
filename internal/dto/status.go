package dto

import "github.com/wavenote-dev/community-api/internal/models"

// UpdateDifficultyStatusesRequest maps difficulty ids to requested status
// codes. Entries carrying the ignore sentinel (-3) are filtered out before
// processing.
type UpdateDifficultyStatusesRequest struct {
	Statuses map[int]int `json:"statuses" binding:"required"`
}

// UpdateBeatmapsetStatusRequest requests a whole-set status change.
type UpdateBeatmapsetStatusRequest struct {
	Status int `json:"status"`
}

// StatusChangeResult is the success outcome of a transition, carrying the
// canonical location to display next.
type StatusChangeResult struct {
	SetID    int           `json:"setId"`
	Status   models.Status `json:"status"`
	Location string        `json:"location"`
	Changed  bool          `json:"changed"`
}

// DifficultyOutcome names one difficulty and its resulting status.
type DifficultyOutcome struct {
	Name   string `json:"name"`
	Status string `json:"status"`
}

// StatusChangeEvent is the structured notification payload handed to the
// webhook collaborator after a committed transition.
type StatusChangeEvent struct {
	SetID        int                 `json:"setId"`
	SetTitle     string              `json:"setTitle"`
	ActorID      int                 `json:"actorId"`
	ActorName    string              `json:"actorName"`
	Difficulties []DifficultyOutcome `json:"difficulties"`
}
