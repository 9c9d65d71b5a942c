package http

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/weiluo/roamstory/internal/domain/auth"
)

// AuthHandler exposes the authentication endpoints.
type AuthHandler struct {
	svc auth.Service
	cfg auth.Config
}

// NewAuthHandler constructs the handler.
func NewAuthHandler(svc auth.Service, cfg auth.Config) *AuthHandler {
	return &AuthHandler{svc: svc, cfg: cfg}
}

// Register creates a new account.
func (h *AuthHandler) Register(c *gin.Context) {
	var req auth.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", errMessage(err), err))
		return
	}
	view, err := h.svc.Register(c.Request.Context(), req)
	if err != nil {
		abortWithDomainError(c, err)
		return
	}
	respondOK(c, http.StatusCreated, view)
}

// Login exchanges credentials for tokens.
func (h *AuthHandler) Login(c *gin.Context) {
	var req auth.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", errMessage(err), err))
		return
	}
	resp, err := h.svc.Login(c.Request.Context(), req)
	if err != nil {
		abortWithDomainError(c, err)
		return
	}
	respondOK(c, http.StatusOK, resp)
}

// Refresh rotates an access token using a refresh token.
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req auth.RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", errMessage(err), err))
		return
	}
	resp, err := h.svc.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		abortWithDomainError(c, err)
		return
	}
	respondOK(c, http.StatusOK, resp)
}

// Profile returns the authenticated user's account.
func (h *AuthHandler) Profile(c *gin.Context) {
	claims, ok := getClaims(c)
	if !ok {
		abortWithError(c, NewHTTPError(http.StatusUnauthorized, "unauthorized", "missing claims", nil))
		return
	}
	view, err := h.svc.Profile(c.Request.Context(), claims.UserID)
	if err != nil {
		abortWithDomainError(c, err)
		return
	}
	respondOK(c, http.StatusOK, view)
}

// GoogleLogin starts the PKCE flow and redirects to Google.
func (h *AuthHandler) GoogleLogin(c *gin.Context) {
	state := randomURLToken(16)
	verifier := randomURLToken(32)
	challenge := pkceChallenge(verifier)

	url, err := h.svc.GoogleAuthURL(c.Request.Context(), state, challenge)
	if err != nil {
		abortWithDomainError(c, err)
		return
	}
	setOAuthStateCookie(c, state, verifier)
	c.Redirect(http.StatusFound, url)
}

// GoogleCallback finishes the flow and issues tokens.
func (h *AuthHandler) GoogleCallback(c *gin.Context) {
	cookie, ok := readOAuthStateCookie(c)
	clearOAuthStateCookie(c)
	if !ok || c.Query("state") != cookie.State {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "oauth_state_mismatch", "oauth state mismatch", nil))
		return
	}
	resp, err := h.svc.GoogleCallback(c.Request.Context(), c.Query("code"), cookie.CodeVerifier)
	if err != nil {
		abortWithDomainError(c, err)
		return
	}
	if redirect := h.cfg.Google.PostLoginRedirectURL; redirect != "" {
		c.Redirect(http.StatusFound, redirect+"#token="+resp.Token)
		return
	}
	respondOK(c, http.StatusOK, resp)
}

func randomURLToken(bytes int) string {
	buf := make([]byte, bytes)
	_, _ = rand.Read(buf)
	return base64.RawURLEncoding.EncodeToString(buf)
}

func pkceChallenge(verifier string) string {
	sum := sha256.Sum256([]byte(verifier))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}
