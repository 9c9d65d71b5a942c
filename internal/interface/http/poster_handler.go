package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/weiluo/roamstory/internal/domain/poster"
)

// PosterHandler exposes the travel poster endpoints.
type PosterHandler struct {
	svc poster.Service
}

// NewPosterHandler constructs the handler.
func NewPosterHandler(svc poster.Service) *PosterHandler {
	return &PosterHandler{svc: svc}
}

// Generate renders and stores a new poster.
func (h *PosterHandler) Generate(c *gin.Context) {
	claims, ok := getClaims(c)
	if !ok {
		abortWithError(c, NewHTTPError(http.StatusUnauthorized, "unauthorized", "missing claims", nil))
		return
	}
	var req poster.GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", errMessage(err), err))
		return
	}
	p, err := h.svc.Generate(c.Request.Context(), claims.UserID, req)
	if err != nil {
		abortWithDomainError(c, err)
		return
	}
	respondOK(c, http.StatusCreated, p)
}

// Get fetches a poster.
func (h *PosterHandler) Get(c *gin.Context) {
	claims, ok := getClaims(c)
	if !ok {
		abortWithError(c, NewHTTPError(http.StatusUnauthorized, "unauthorized", "missing claims", nil))
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", "invalid poster id", err))
		return
	}
	p, err := h.svc.Get(c.Request.Context(), claims.UserID, id)
	if err != nil {
		abortWithDomainError(c, err)
		return
	}
	respondOK(c, http.StatusOK, p)
}

// List returns the caller's posters.
func (h *PosterHandler) List(c *gin.Context) {
	claims, ok := getClaims(c)
	if !ok {
		abortWithError(c, NewHTTPError(http.StatusUnauthorized, "unauthorized", "missing claims", nil))
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	posters, err := h.svc.List(c.Request.Context(), claims.UserID, limit, offset)
	if err != nil {
		abortWithDomainError(c, err)
		return
	}
	respondOK(c, http.StatusOK, gin.H{"posters": posters})
}

// Delete removes a poster.
func (h *PosterHandler) Delete(c *gin.Context) {
	claims, ok := getClaims(c)
	if !ok {
		abortWithError(c, NewHTTPError(http.StatusUnauthorized, "unauthorized", "missing claims", nil))
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", "invalid poster id", err))
		return
	}
	if err := h.svc.Delete(c.Request.Context(), claims.UserID, id); err != nil {
		abortWithDomainError(c, err)
		return
	}
	respondOK(c, http.StatusOK, gin.H{"deleted": true})
}
