package handlers

import (
	"errors"

	"github.com/google/uuid"
	"github.com/m1z23r/drift/pkg/drift"
	"github.com/marketingreboot/reboot-api/internal/middleware"
	"github.com/marketingreboot/reboot-api/internal/roles"
	"github.com/marketingreboot/reboot-api/internal/services"
	"github.com/marketingreboot/reboot-api/pkg/dto"
)

type ProfileHandler struct {
	profiles   ProfileServiceInterface
	engagement EngagementServiceInterface
	seeds      roles.Seeds
}

func NewProfileHandler(profiles ProfileServiceInterface, engagement EngagementServiceInterface, seeds roles.Seeds) *ProfileHandler {
	return &ProfileHandler{profiles: profiles, engagement: engagement, seeds: seeds}
}

// GetMe fetches, creating on first use, the caller's profile. The facts are
// resolved from the same row so clients never combine mismatched reads.
func (h *ProfileHandler) GetMe(c *drift.Context) {
	identity := middleware.GetIdentity(c)
	if identity == nil {
		c.Unauthorized("not authenticated")
		return
	}

	profile := h.profiles.FetchProfile(c.Request.Context(), identity)
	if profile == nil {
		c.InternalServerError("profile unavailable")
		return
	}

	_ = c.JSON(200, dto.MeResponse{
		Profile: profile,
		Facts:   roles.Resolve(identity, profile.Access(), h.seeds),
	})
}

func (h *ProfileHandler) UpdateMe(c *drift.Context) {
	identity := middleware.GetIdentity(c)
	if identity == nil {
		c.Unauthorized("not authenticated")
		return
	}

	var req dto.UpdateProfileRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}

	profile, err := h.profiles.Update(c.Request.Context(), identity.ID, services.ProfileUpdate{
		FullName: req.FullName,
		Username: req.Username,
		Bio:      req.Bio,
		Website:  req.Website,
	})
	switch {
	case errors.Is(err, services.ErrNoFieldsToUpdate):
		c.BadRequest("no fields to update")
		return
	case errors.Is(err, services.ErrNotFound):
		c.NotFound("profile not found")
		return
	case err != nil:
		c.InternalServerError("failed to update profile")
		return
	}

	_ = c.JSON(200, profile)
}

func (h *ProfileHandler) Get(c *drift.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.BadRequest("invalid profile id")
		return
	}

	profile, err := h.profiles.GetByID(c.Request.Context(), id)
	if errors.Is(err, services.ErrNotFound) {
		c.NotFound("profile not found")
		return
	}
	if err != nil {
		c.InternalServerError("failed to load profile")
		return
	}

	followers, err := h.engagement.FollowerCount(c.Request.Context(), id)
	if err != nil {
		c.InternalServerError("failed to load profile")
		return
	}

	_ = c.JSON(200, dto.PublicProfileResponse{
		ID:        profile.ID.String(),
		FullName:  profile.FullName,
		Username:  profile.Username,
		Bio:       profile.Bio,
		Website:   profile.Website,
		UserRole:  string(profile.UserRole),
		Followers: followers,
	})
}
