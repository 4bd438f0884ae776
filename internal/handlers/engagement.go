package handlers

import (
	"errors"

	"github.com/google/uuid"
	"github.com/m1z23r/drift/pkg/drift"
	"github.com/marketingreboot/reboot-api/internal/middleware"
	"github.com/marketingreboot/reboot-api/internal/models"
	"github.com/marketingreboot/reboot-api/internal/services"
	"github.com/marketingreboot/reboot-api/pkg/dto"
)

type EngagementHandler struct {
	engagement EngagementServiceInterface
}

func NewEngagementHandler(engagement EngagementServiceInterface) *EngagementHandler {
	return &EngagementHandler{engagement: engagement}
}

func (h *EngagementHandler) Save(c *drift.Context) {
	postID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.BadRequest("invalid post id")
		return
	}

	err = h.engagement.SavePost(c.Request.Context(), middleware.GetUserID(c), postID)
	if errors.Is(err, services.ErrNotFound) {
		c.NotFound("post not found")
		return
	}
	if err != nil {
		c.InternalServerError("failed to save post")
		return
	}

	_ = c.JSON(200, map[string]string{"message": "saved"})
}

func (h *EngagementHandler) Unsave(c *drift.Context) {
	postID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.BadRequest("invalid post id")
		return
	}

	if err := h.engagement.UnsavePost(c.Request.Context(), middleware.GetUserID(c), postID); err != nil {
		c.InternalServerError("failed to remove saved post")
		return
	}

	_ = c.JSON(200, map[string]string{"message": "removed"})
}

func (h *EngagementHandler) ListSaved(c *drift.Context) {
	posts, err := h.engagement.ListSaved(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		c.InternalServerError("failed to list saved posts")
		return
	}
	if posts == nil {
		posts = []models.Post{}
	}

	_ = c.JSON(200, posts)
}

func (h *EngagementHandler) Follow(c *drift.Context) {
	contributorID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.BadRequest("invalid contributor id")
		return
	}

	err = h.engagement.Follow(c.Request.Context(), middleware.GetUserID(c), contributorID)
	switch {
	case errors.Is(err, services.ErrSelfFollow):
		c.BadRequest("cannot follow yourself")
		return
	case errors.Is(err, services.ErrNotFound):
		c.NotFound("contributor not found")
		return
	case err != nil:
		c.InternalServerError("failed to follow")
		return
	}

	_ = c.JSON(200, map[string]string{"message": "following"})
}

func (h *EngagementHandler) Unfollow(c *drift.Context) {
	contributorID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.BadRequest("invalid contributor id")
		return
	}

	if err := h.engagement.Unfollow(c.Request.Context(), middleware.GetUserID(c), contributorID); err != nil {
		c.InternalServerError("failed to unfollow")
		return
	}

	_ = c.JSON(200, map[string]string{"message": "unfollowed"})
}

func (h *EngagementHandler) FollowerCount(c *drift.Context) {
	contributorID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.BadRequest("invalid contributor id")
		return
	}

	count, err := h.engagement.FollowerCount(c.Request.Context(), contributorID)
	if err != nil {
		c.InternalServerError("failed to count followers")
		return
	}

	_ = c.JSON(200, dto.CountResponse{Count: count})
}
