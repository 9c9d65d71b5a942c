package http

import (
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/weiluo/roamstory/internal/domain/diary"
)

// DiaryHandler exposes the travel diary endpoints.
type DiaryHandler struct {
	svc diary.Service
}

// NewDiaryHandler constructs the handler.
func NewDiaryHandler(svc diary.Service) *DiaryHandler {
	return &DiaryHandler{svc: svc}
}

// Create adds a new diary entry.
func (h *DiaryHandler) Create(c *gin.Context) {
	claims, ok := getClaims(c)
	if !ok {
		abortWithError(c, NewHTTPError(http.StatusUnauthorized, "unauthorized", "missing claims", nil))
		return
	}
	var req diary.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", errMessage(err), err))
		return
	}
	entry, err := h.svc.Create(c.Request.Context(), claims.UserID, req)
	if err != nil {
		abortWithDomainError(c, err)
		return
	}
	respondOK(c, http.StatusCreated, entry)
}

// Get fetches a single entry.
func (h *DiaryHandler) Get(c *gin.Context) {
	claims, ok := getClaims(c)
	if !ok {
		abortWithError(c, NewHTTPError(http.StatusUnauthorized, "unauthorized", "missing claims", nil))
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", "invalid entry id", err))
		return
	}
	entry, err := h.svc.Get(c.Request.Context(), claims.UserID, id)
	if err != nil {
		abortWithDomainError(c, err)
		return
	}
	respondOK(c, http.StatusOK, entry)
}

// List returns the user's entries, newest first.
func (h *DiaryHandler) List(c *gin.Context) {
	claims, ok := getClaims(c)
	if !ok {
		abortWithError(c, NewHTTPError(http.StatusUnauthorized, "unauthorized", "missing claims", nil))
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	entries, err := h.svc.List(c.Request.Context(), claims.UserID, limit, offset)
	if err != nil {
		abortWithDomainError(c, err)
		return
	}
	respondOK(c, http.StatusOK, gin.H{"entries": entries})
}

// Update rewrites entry fields.
func (h *DiaryHandler) Update(c *gin.Context) {
	claims, ok := getClaims(c)
	if !ok {
		abortWithError(c, NewHTTPError(http.StatusUnauthorized, "unauthorized", "missing claims", nil))
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", "invalid entry id", err))
		return
	}
	var req diary.UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", errMessage(err), err))
		return
	}
	entry, err := h.svc.Update(c.Request.Context(), claims.UserID, id, req)
	if err != nil {
		abortWithDomainError(c, err)
		return
	}
	respondOK(c, http.StatusOK, entry)
}

// Delete removes an entry.
func (h *DiaryHandler) Delete(c *gin.Context) {
	claims, ok := getClaims(c)
	if !ok {
		abortWithError(c, NewHTTPError(http.StatusUnauthorized, "unauthorized", "missing claims", nil))
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", "invalid entry id", err))
		return
	}
	if err := h.svc.Delete(c.Request.Context(), claims.UserID, id); err != nil {
		abortWithDomainError(c, err)
		return
	}
	respondOK(c, http.StatusOK, gin.H{"deleted": true})
}

// UploadPhoto attaches a photo to an entry. The image arrives as the raw
// request body with its Content-Type header.
func (h *DiaryHandler) UploadPhoto(c *gin.Context) {
	claims, ok := getClaims(c)
	if !ok {
		abortWithError(c, NewHTTPError(http.StatusUnauthorized, "unauthorized", "missing claims", nil))
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", "invalid entry id", err))
		return
	}
	data, err := io.ReadAll(io.LimitReader(c.Request.Body, 16<<20))
	if err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", "failed to read photo", err))
		return
	}
	entry, err := h.svc.AttachPhoto(c.Request.Context(), claims.UserID, id, data, c.ContentType())
	if err != nil {
		abortWithDomainError(c, err)
		return
	}
	respondOK(c, http.StatusOK, entry)
}

// Search ranks entries against a free-text query.
func (h *DiaryHandler) Search(c *gin.Context) {
	claims, ok := getClaims(c)
	if !ok {
		abortWithError(c, NewHTTPError(http.StatusUnauthorized, "unauthorized", "missing claims", nil))
		return
	}
	results, err := h.svc.Search(c.Request.Context(), claims.UserID, c.Query("q"))
	if err != nil {
		abortWithDomainError(c, err)
		return
	}
	respondOK(c, http.StatusOK, gin.H{"results": results})
}
