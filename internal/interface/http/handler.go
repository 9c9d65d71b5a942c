package http

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/weiluo/roamstory/internal/domain/atlas"
	"github.com/weiluo/roamstory/internal/domain/story"
	apperrors "github.com/weiluo/roamstory/pkg/errors"
)

// Handler wires the HTTP transport to domain services.
type Handler struct {
	storySvc story.Service
	atlasSvc atlas.Service
	logger   *slog.Logger
}

// NewHandler constructs the root HTTP handler.
func NewHandler(storySvc story.Service, atlasSvc atlas.Service, logger *slog.Logger) *Handler {
	return &Handler{
		storySvc: storySvc,
		atlasSvc: atlasSvc,
		logger:   logger.With("component", "http.handler"),
	}
}

// GenerateArc produces a story arc for the requested city and theme. The
// pipeline degrades internally, so a well-formed request always yields an arc.
func (h *Handler) GenerateArc(c *gin.Context) {
	var req story.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", errMessage(err), err))
		return
	}

	arc, err := h.storySvc.GenerateArc(c.Request.Context(), req)
	if err != nil {
		abortWithError(c, NewHTTPError(http.StatusInternalServerError, "arc_failed", errMessage(err), err))
		return
	}

	respondOK(c, http.StatusOK, arc)
}

// SearchPois proxies a POI search to the places provider.
func (h *Handler) SearchPois(c *gin.Context) {
	q := atlas.Query{
		City:    c.Query("city"),
		Keyword: c.Query("keyword"),
	}
	if lngStr, latStr := c.Query("lng"), c.Query("lat"); lngStr != "" && latStr != "" {
		lng, lngErr := strconv.ParseFloat(lngStr, 64)
		lat, latErr := strconv.ParseFloat(latStr, 64)
		if lngErr != nil || latErr != nil {
			abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", "lng and lat must be numbers", nil))
			return
		}
		q.Lng, q.Lat = &lng, &lat
	}
	if radiusStr := c.Query("radius"); radiusStr != "" {
		radius, err := strconv.Atoi(radiusStr)
		if err != nil {
			abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", "radius must be an integer", nil))
			return
		}
		q.Radius = radius
	}

	places, err := h.atlasSvc.Search(c.Request.Context(), q)
	if err != nil {
		status := http.StatusInternalServerError
		code := "atlas_failed"
		switch {
		case apperrors.IsCode(err, "invalid_input"):
			status = http.StatusBadRequest
			code = "invalid_request"
		case apperrors.IsCode(err, "places_unavailable"):
			status = http.StatusServiceUnavailable
			code = "places_unavailable"
		case apperrors.IsCode(err, "places_error"):
			status = http.StatusBadGateway
			code = "places_error"
		}
		abortWithError(c, NewHTTPError(status, code, errMessage(err), err))
		return
	}

	respondOK(c, http.StatusOK, gin.H{"pois": places})
}

// Healthz reports liveness.
func (h *Handler) Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func errMessage(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

// statusForCode maps the shared domain error codes onto HTTP statuses.
func statusForCode(err error) (int, string) {
	code := apperrors.CodeOf(err)
	switch code {
	case "invalid_input", "invalid_request":
		return http.StatusBadRequest, "invalid_request"
	case "not_found", "user_not_found":
		return http.StatusNotFound, code
	case "email_exists", "account_linking_disabled":
		return http.StatusConflict, code
	case "invalid_credentials", "invalid_token":
		return http.StatusUnauthorized, code
	case "oauth_disabled", "poster_unavailable", "storage_unavailable", "places_unavailable":
		return http.StatusServiceUnavailable, code
	case "oauth_exchange_failed", "poster_generation_failed", "places_error":
		return http.StatusBadGateway, code
	default:
		return http.StatusInternalServerError, code
	}
}

func abortWithDomainError(c *gin.Context, err error) {
	status, code := statusForCode(err)
	abortWithError(c, NewHTTPError(status, code, errMessage(err), err))
}
