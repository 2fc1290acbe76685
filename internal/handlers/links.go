package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/pushp314/shortlink-backend/internal/middleware"
	"github.com/pushp314/shortlink-backend/internal/models"
	"github.com/pushp314/shortlink-backend/internal/service"
	"github.com/pushp314/shortlink-backend/pkg/apperrors"
)

type LinkHandler struct {
	links *service.LinkService
}

func NewLinkHandler(links *service.LinkService) *LinkHandler {
	return &LinkHandler{links: links}
}

type ShortenInput struct {
	OriginalURL string     `json:"original_url" binding:"required"`
	CustomAlias *string    `json:"custom_alias"`
	ExpiresAt   *time.Time `json:"expires_at"`
}

type UpdateLinkInput struct {
	OriginalURL *string    `json:"original_url"`
	IsActive    *bool      `json:"is_active"`
	ExpiresAt   *time.Time `json:"expires_at"`
}

// Shorten handles POST /links/shorten. Works for anonymous callers; a valid
// bearer token makes the caller the link's owner.
func (h *LinkHandler) Shorten(c *gin.Context) {
	var input ShortenInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var ownerID *uint
	if user := middleware.CurrentUser(c); user != nil {
		ownerID = &user.ID
	}

	link, err := h.links.Create(c.Request.Context(), input.OriginalURL, input.CustomAlias, input.ExpiresAt, ownerID)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, link)
}

// mayModify applies the ownership policy: links owned by someone else are off
// limits, anonymous links are mutable by any authenticated user.
func mayModify(user *models.User, link *models.Link) bool {
	if user == nil {
		return false
	}
	return link.UserID == nil || *link.UserID == user.ID
}

// Update handles PUT /links/:shortCode
func (h *LinkHandler) Update(c *gin.Context) {
	var input UpdateLinkInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	shortCode := c.Param("shortCode")
	link, err := h.links.Get(c.Request.Context(), shortCode)
	if err != nil {
		c.Error(err)
		return
	}
	if !mayModify(middleware.CurrentUser(c), link) {
		c.Error(apperrors.Forbidden("You do not own this link"))
		return
	}

	updated, err := h.links.Update(c.Request.Context(), shortCode, service.UpdateFields{
		OriginalURL: input.OriginalURL,
		IsActive:    input.IsActive,
		ExpiresAt:   input.ExpiresAt,
	})
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, updated)
}

// Delete handles DELETE /links/:shortCode
func (h *LinkHandler) Delete(c *gin.Context) {
	shortCode := c.Param("shortCode")
	link, err := h.links.Get(c.Request.Context(), shortCode)
	if err != nil {
		c.Error(err)
		return
	}
	if !mayModify(middleware.CurrentUser(c), link) {
		c.Error(apperrors.Forbidden("You do not own this link"))
		return
	}

	deleted, err := h.links.Delete(c.Request.Context(), shortCode)
	if err != nil {
		c.Error(err)
		return
	}
	if !deleted {
		c.Error(apperrors.NotFound("Link not found"))
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Link deleted successfully"})
}

// Redirect handles GET /:shortCode
func (h *LinkHandler) Redirect(c *gin.Context) {
	link, err := h.links.Resolve(c.Request.Context(), c.Param("shortCode"))
	if err != nil {
		c.Error(err)
		return
	}

	c.Redirect(http.StatusFound, link.OriginalURL)
}

// Stats handles GET /links/:shortCode/stats
func (h *LinkHandler) Stats(c *gin.Context) {
	stats, err := h.links.Stats(c.Request.Context(), c.Param("shortCode"))
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, stats)
}

// Search handles GET /links/search/?original_url=...
func (h *LinkHandler) Search(c *gin.Context) {
	results, err := h.links.Search(c.Request.Context(), c.Query("original_url"))
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, results)
}
