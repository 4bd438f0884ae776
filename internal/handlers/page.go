package handlers

import (
	"strings"

	"github.com/m1z23r/drift/pkg/drift"
	"github.com/marketingreboot/reboot-api/internal/middleware"
	"github.com/marketingreboot/reboot-api/internal/models"
	"github.com/marketingreboot/reboot-api/internal/roles"
	"github.com/marketingreboot/reboot-api/pkg/dto"
)

// PageHandler renders the view models of navigable pages. Every route is
// mounted behind middleware.Edge, which has already decided access.
type PageHandler struct {
	profiles   ProfileServiceInterface
	posts      PostServiceInterface
	engagement EngagementServiceInterface
	seeds      roles.Seeds
}

func NewPageHandler(profiles ProfileServiceInterface, posts PostServiceInterface, engagement EngagementServiceInterface, seeds roles.Seeds) *PageHandler {
	return &PageHandler{profiles: profiles, posts: posts, engagement: engagement, seeds: seeds}
}

func (h *PageHandler) Home(c *drift.Context) {
	posts, err := h.posts.ListPublished(c.Request.Context(), 20, 0)
	if err != nil {
		c.InternalServerError("failed to load posts")
		return
	}
	_ = c.JSON(200, h.page(c, "home", nil, posts))
}

// Login echoes the post-login destination. Only local paths are accepted.
func (h *PageHandler) Login(c *drift.Context) {
	redirect := c.QueryParam("redirect")
	if !strings.HasPrefix(redirect, "/") || strings.HasPrefix(redirect, "//") {
		redirect = ""
	}
	_ = c.JSON(200, dto.LoginPageResponse{Page: "login", Redirect: redirect})
}

func (h *PageHandler) Dashboard(c *drift.Context) {
	profile := h.profiles.FetchProfile(c.Request.Context(), middleware.GetIdentity(c))
	_ = c.JSON(200, h.page(c, "dashboard", profile, nil))
}

func (h *PageHandler) EditProfile(c *drift.Context) {
	profile := h.profiles.FetchProfile(c.Request.Context(), middleware.GetIdentity(c))
	_ = c.JSON(200, h.page(c, "profile_edit", profile, nil))
}

// NewPost is reachable by any signed-in user; the form itself is only
// offered to authors.
func (h *PageHandler) NewPost(c *drift.Context) {
	_ = c.JSON(200, h.page(c, "post_new", nil, nil))
}

func (h *PageHandler) Saved(c *drift.Context) {
	posts, err := h.engagement.ListSaved(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		c.InternalServerError("failed to load saved posts")
		return
	}
	_ = c.JSON(200, h.page(c, "saved", nil, posts))
}

func (h *PageHandler) CMS(c *drift.Context) {
	posts, err := h.posts.ListByAuthor(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		c.InternalServerError("failed to load posts")
		return
	}
	_ = c.JSON(200, h.page(c, "cms", nil, posts))
}

// page builds the view model. When the page loaded the full profile, facts
// are re-resolved from it since the edge gate may have run before the row
// existed.
func (h *PageHandler) page(c *drift.Context, name string, profile *models.Profile, posts []models.Post) dto.PageResponse {
	identity := middleware.GetIdentity(c)
	facts := middleware.GetFacts(c)
	if profile != nil {
		facts = roles.Resolve(identity, profile.Access(), h.seeds)
	}
	return dto.PageResponse{
		Page:     name,
		Identity: identity,
		Facts:    facts,
		Profile:  profile,
		Posts:    posts,
	}
}
