package dto

import (
	"github.com/marketingreboot/reboot-api/internal/models"
	"github.com/marketingreboot/reboot-api/internal/roles"
)

type UpdateProfileRequest struct {
	FullName *string `json:"full_name"`
	Username *string `json:"username"`
	Bio      *string `json:"bio"`
	Website  *string `json:"website"`
}

type MeResponse struct {
	Profile *models.Profile `json:"profile"`
	Facts   roles.Facts     `json:"facts"`
}

// PublicProfileResponse omits email and access flags.
type PublicProfileResponse struct {
	ID        string  `json:"id"`
	FullName  string  `json:"full_name"`
	Username  *string `json:"username,omitempty"`
	Bio       *string `json:"bio,omitempty"`
	Website   *string `json:"website,omitempty"`
	UserRole  string  `json:"user_role"`
	Followers int     `json:"followers"`
}
