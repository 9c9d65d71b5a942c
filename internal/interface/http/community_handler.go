package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/weiluo/roamstory/internal/domain/auth"
	"github.com/weiluo/roamstory/internal/domain/community"
)

// CommunityHandler exposes the community feed endpoints.
type CommunityHandler struct {
	svc     community.Service
	authSvc auth.Service
}

// NewCommunityHandler constructs the handler.
func NewCommunityHandler(svc community.Service, authSvc auth.Service) *CommunityHandler {
	return &CommunityHandler{svc: svc, authSvc: authSvc}
}

// CreatePost publishes a post under the caller's nickname.
func (h *CommunityHandler) CreatePost(c *gin.Context) {
	claims, ok := getClaims(c)
	if !ok {
		abortWithError(c, NewHTTPError(http.StatusUnauthorized, "unauthorized", "missing claims", nil))
		return
	}
	var req community.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", errMessage(err), err))
		return
	}
	view, err := h.authSvc.Profile(c.Request.Context(), claims.UserID)
	if err != nil {
		abortWithDomainError(c, err)
		return
	}
	post, err := h.svc.CreatePost(c.Request.Context(), claims.UserID, view.Nickname, req)
	if err != nil {
		abortWithDomainError(c, err)
		return
	}
	respondOK(c, http.StatusCreated, post)
}

// GetPost fetches a single post with its like total.
func (h *CommunityHandler) GetPost(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", "invalid post id", err))
		return
	}
	post, err := h.svc.GetPost(c.Request.Context(), id)
	if err != nil {
		abortWithDomainError(c, err)
		return
	}
	respondOK(c, http.StatusOK, post)
}

// ListPosts returns the feed, optionally filtered by city.
func (h *CommunityHandler) ListPosts(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	posts, err := h.svc.ListPosts(c.Request.Context(), c.Query("city"), limit, offset)
	if err != nil {
		abortWithDomainError(c, err)
		return
	}
	respondOK(c, http.StatusOK, gin.H{"posts": posts})
}

// DeletePost removes the caller's post.
func (h *CommunityHandler) DeletePost(c *gin.Context) {
	claims, ok := getClaims(c)
	if !ok {
		abortWithError(c, NewHTTPError(http.StatusUnauthorized, "unauthorized", "missing claims", nil))
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", "invalid post id", err))
		return
	}
	if err := h.svc.DeletePost(c.Request.Context(), claims.UserID, id); err != nil {
		abortWithDomainError(c, err)
		return
	}
	respondOK(c, http.StatusOK, gin.H{"deleted": true})
}

// Like records a like and returns the new total.
func (h *CommunityHandler) Like(c *gin.Context) {
	h.toggleLike(c, true)
}

// Unlike removes a like and returns the new total.
func (h *CommunityHandler) Unlike(c *gin.Context) {
	h.toggleLike(c, false)
}

func (h *CommunityHandler) toggleLike(c *gin.Context, like bool) {
	claims, ok := getClaims(c)
	if !ok {
		abortWithError(c, NewHTTPError(http.StatusUnauthorized, "unauthorized", "missing claims", nil))
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", "invalid post id", err))
		return
	}
	var count int64
	if like {
		count, err = h.svc.Like(c.Request.Context(), claims.UserID, id)
	} else {
		count, err = h.svc.Unlike(c.Request.Context(), claims.UserID, id)
	}
	if err != nil {
		abortWithDomainError(c, err)
		return
	}
	respondOK(c, http.StatusOK, gin.H{"likeCount": count})
}

// Trending returns the most liked posts.
func (h *CommunityHandler) Trending(c *gin.Context) {
	posts, err := h.svc.Trending(c.Request.Context())
	if err != nil {
		abortWithDomainError(c, err)
		return
	}
	respondOK(c, http.StatusOK, gin.H{"posts": posts})
}
