package dto

import (
	"time"

	"github.com/marketingreboot/reboot-api/internal/models"
	"github.com/marketingreboot/reboot-api/internal/roles"
)

type SignUpRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
	Username string `json:"username"`
}

type SignInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type SessionResponse struct {
	AccessToken  string           `json:"access_token"`
	RefreshToken string           `json:"refresh_token"`
	ExpiresAt    time.Time        `json:"expires_at"`
	ExpiresIn    int64            `json:"expires_in"`
	Identity     *models.Identity `json:"identity"`
}

// CurrentSessionResponse describes the caller as the server sees it.
type CurrentSessionResponse struct {
	Identity *models.Identity `json:"identity"`
	Facts    roles.Facts      `json:"facts"`
}
