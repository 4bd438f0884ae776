package handlers

import (
	"context"
	"errors"
	"strconv"

	"github.com/google/uuid"
	"github.com/m1z23r/drift/pkg/drift"
	"github.com/marketingreboot/reboot-api/internal/middleware"
	"github.com/marketingreboot/reboot-api/internal/models"
	"github.com/marketingreboot/reboot-api/internal/services"
	"github.com/marketingreboot/reboot-api/pkg/dto"
	"github.com/sirupsen/logrus"
)

const (
	defaultPageSize = 50
	maxPageSize     = 200
)

// AdminHandler serves the back-office. Routes are mounted behind
// middleware.Require(access.Admin).
type AdminHandler struct {
	profiles ProfileServiceInterface
	posts    PostServiceInterface
	notifier AccessNotifier
	log      logrus.FieldLogger
}

// NewAdminHandler builds the back-office handler. notifier may be nil.
func NewAdminHandler(profiles ProfileServiceInterface, posts PostServiceInterface, notifier AccessNotifier, log logrus.FieldLogger) *AdminHandler {
	return &AdminHandler{profiles: profiles, posts: posts, notifier: notifier, log: log}
}

func (h *AdminHandler) ListProfiles(c *drift.Context) {
	limit, offset := pagination(c)

	profiles, err := h.profiles.List(c.Request.Context(), limit, offset)
	if err != nil {
		c.InternalServerError("failed to list profiles")
		return
	}
	if profiles == nil {
		profiles = []models.Profile{}
	}

	_ = c.JSON(200, profiles)
}

func (h *AdminHandler) Stats(c *drift.Context) {
	stats, err := h.profiles.Stats(c.Request.Context())
	if err != nil {
		c.InternalServerError("failed to load stats")
		return
	}

	posts, err := h.posts.Count(c.Request.Context())
	if err != nil {
		c.InternalServerError("failed to load stats")
		return
	}

	_ = c.JSON(200, dto.StatsResponse{
		Profiles:     stats.Total,
		Contributors: stats.Contributors,
		Readers:      stats.Readers,
		Admins:       stats.Admins,
		Verified:     stats.Verified,
		Posts:        posts,
	})
}

func (h *AdminHandler) SetRole(c *drift.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.BadRequest("invalid profile id")
		return
	}

	var req dto.SetRoleRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}

	role := models.UserRole(req.Role)
	if !role.Valid() {
		c.BadRequest("role must be contributor or reader")
		return
	}

	profile, err := h.profiles.SetRole(c.Request.Context(), id, role)
	h.respondMutation(c, "user_role", profile, err)
}

func (h *AdminHandler) SetAdmin(c *drift.Context) {
	h.setFlag(c, "is_admin", h.profiles.SetAdmin)
}

func (h *AdminHandler) SetVerification(c *drift.Context) {
	h.setFlag(c, "is_verified", h.profiles.SetVerified)
}

func (h *AdminHandler) setFlag(c *drift.Context, field string, apply func(ctx context.Context, id uuid.UUID, v bool) (*models.Profile, error)) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.BadRequest("invalid profile id")
		return
	}

	var req dto.SetFlagRequest
	if err := c.BindJSON(&req); err != nil || req.Value == nil {
		c.BadRequest("value is required")
		return
	}

	profile, err := apply(c.Request.Context(), id, *req.Value)
	h.respondMutation(c, field, profile, err)
}

func (h *AdminHandler) respondMutation(c *drift.Context, field string, profile *models.Profile, err error) {
	if errors.Is(err, services.ErrNotFound) {
		c.NotFound("profile not found")
		return
	}
	if err != nil {
		c.InternalServerError("failed to update profile")
		return
	}

	adminID := middleware.GetUserID(c)
	h.log.WithFields(logrus.Fields{
		"admin_id":   adminID,
		"profile_id": profile.ID,
		"field":      field,
	}).Info("profile access changed")

	if h.notifier != nil {
		h.notifier.NotifyAccessChanged(profile, field, adminID)
	}

	_ = c.JSON(200, profile)
}

func pagination(c *drift.Context) (int, int) {
	limit, err := strconv.Atoi(c.QueryParam("limit"))
	if err != nil || limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	offset, err := strconv.Atoi(c.QueryParam("offset"))
	if err != nil || offset < 0 {
		offset = 0
	}
	return limit, offset
}
