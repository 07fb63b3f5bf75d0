package dto

import "github.com/wavenote-dev/community-api/internal/models"

// UserProfile aggregates the public profile page data for one user.
type UserProfile struct {
	User        models.User                    `json:"user"`
	PostCount   int                            `json:"postCount"`
	Beatmapsets map[string][]models.Beatmapset `json:"beatmapsets"`
	Nominations map[string][]models.Nomination `json:"nominations"`
}

// Profile beatmapset category keys, in display order.
const (
	ProfileCategoryRanked      = "Ranked"
	ProfileCategoryLoved       = "Loved"
	ProfileCategoryQualified   = "Qualified"
	ProfileCategoryPending     = "Pending"
	ProfileCategoryWIP         = "WIP"
	ProfileCategoryGraveyarded = "Graveyarded"
)
