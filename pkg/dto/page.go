package dto

import (
	"github.com/marketingreboot/reboot-api/internal/models"
	"github.com/marketingreboot/reboot-api/internal/roles"
)

// PageResponse is the view model every gated page renders from.
type PageResponse struct {
	Page     string           `json:"page"`
	Identity *models.Identity `json:"identity,omitempty"`
	Facts    roles.Facts      `json:"facts"`
	Profile  *models.Profile  `json:"profile,omitempty"`
	Posts    []models.Post    `json:"posts,omitempty"`
}

type LoginPageResponse struct {
	Page     string `json:"page"`
	Redirect string `json:"redirect,omitempty"`
}
