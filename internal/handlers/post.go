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

type PostHandler struct {
	posts PostServiceInterface
}

func NewPostHandler(posts PostServiceInterface) *PostHandler {
	return &PostHandler{posts: posts}
}

func (h *PostHandler) List(c *drift.Context) {
	limit, offset := pagination(c)

	posts, err := h.posts.ListPublished(c.Request.Context(), limit, offset)
	if err != nil {
		c.InternalServerError("failed to list posts")
		return
	}
	if posts == nil {
		posts = []models.Post{}
	}

	_ = c.JSON(200, posts)
}

// Get returns a published post to anyone and a draft only to its author or
// an admin.
func (h *PostHandler) Get(c *drift.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.BadRequest("invalid post id")
		return
	}

	post, err := h.posts.GetByID(c.Request.Context(), id)
	if errors.Is(err, services.ErrNotFound) {
		c.NotFound("post not found")
		return
	}
	if err != nil {
		c.InternalServerError("failed to load post")
		return
	}

	if !post.Published {
		facts := middleware.GetFacts(c)
		if post.AuthorID != middleware.GetUserID(c) && !facts.IsAdmin {
			c.NotFound("post not found")
			return
		}
	}

	_ = c.JSON(200, post)
}

func (h *PostHandler) Create(c *drift.Context) {
	var req dto.PostRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}

	if req.Title == nil || *req.Title == "" {
		c.BadRequest("title is required")
		return
	}

	post, err := h.posts.Create(c.Request.Context(), middleware.GetUserID(c), postInput(req))
	if err != nil {
		c.InternalServerError("failed to create post")
		return
	}

	_ = c.JSON(201, post)
}

func (h *PostHandler) Update(c *drift.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.BadRequest("invalid post id")
		return
	}

	var req dto.PostRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}

	facts := middleware.GetFacts(c)
	post, err := h.posts.Update(c.Request.Context(), middleware.GetUserID(c), facts.IsAdmin, id, postInput(req))
	switch {
	case errors.Is(err, services.ErrNoFieldsToUpdate):
		c.BadRequest("no fields to update")
		return
	case errors.Is(err, services.ErrNotFound):
		c.NotFound("post not found")
		return
	case errors.Is(err, services.ErrForbidden):
		c.Forbidden("only the author or an admin can edit this post")
		return
	case err != nil:
		c.InternalServerError("failed to update post")
		return
	}

	_ = c.JSON(200, post)
}

func (h *PostHandler) Delete(c *drift.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.BadRequest("invalid post id")
		return
	}

	facts := middleware.GetFacts(c)
	err = h.posts.Delete(c.Request.Context(), middleware.GetUserID(c), facts.IsAdmin, id)
	switch {
	case errors.Is(err, services.ErrNotFound):
		c.NotFound("post not found")
		return
	case errors.Is(err, services.ErrForbidden):
		c.Forbidden("only the author or an admin can delete this post")
		return
	case err != nil:
		c.InternalServerError("failed to delete post")
		return
	}

	_ = c.JSON(200, map[string]string{"message": "post deleted"})
}

func postInput(req dto.PostRequest) services.PostInput {
	return services.PostInput{
		Title:         req.Title,
		Excerpt:       req.Excerpt,
		Content:       req.Content,
		CoverImageURL: req.CoverImageURL,
		Published:     req.Published,
	}
}
