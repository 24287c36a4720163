package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/pipeline-entry/internal/repository"
	"github.com/rs/zerolog"
)

// AuthHandler handles the login endpoint
type AuthHandler struct {
	repos *repository.Repositories
	log   zerolog.Logger
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(repos *repository.Repositories, log zerolog.Logger) *AuthHandler {
	return &AuthHandler{
		repos: repos,
		log:   log.With().Str("handler", "auth").Logger(),
	}
}

type loginRequest struct {
	Username string `form:"username" binding:"required"`
	Password string `form:"password" binding:"required"`
}

// Login handles POST /login/ with form-encoded credentials
func (h *AuthHandler) Login(c *gin.Context) {
	ctx := c.Request.Context()

	var req loginRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": "username and password are required"})
		return
	}

	account, err := h.repos.Account.Authenticate(ctx, req.Username, req.Password)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to authenticate")
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "authentication failed"})
		return
	}
	if account == nil {
		h.log.Info().Str("username", req.Username).Msg("Invalid credentials")
		c.JSON(http.StatusUnauthorized, gin.H{"detail": "Invalid credentials"})
		return
	}

	token, err := h.repos.Account.IssueToken(ctx, account)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to issue token")
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "authentication failed"})
		return
	}

	h.log.Info().
		Str("username", account.Username).
		Str("role", account.Role).
		Msg("User logged in")

	c.JSON(http.StatusOK, gin.H{
		"id":           account.ID,
		"username":     account.Username,
		"role":         account.Role,
		"access_token": token,
		"token_type":   "bearer",
	})
}

// authMiddleware resolves an optional bearer token into the request's
// account. Requests without a token are let through anonymously; an unknown
// token is rejected.
func authMiddleware(repos *repository.Repositories) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.Next()
			return
		}

		token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
		account, err := repos.Account.GetByToken(c.Request.Context(), token)
		if err != nil || account == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": "invalid token"})
			return
		}
		c.Set("account", account)
		c.Next()
	}
}

// currentUsername returns the username of the authenticated caller, if any
func currentUsername(c *gin.Context) string {
	if v, ok := c.Get("account"); ok {
		if account, ok := v.(*repository.Account); ok {
			return account.Username
		}
	}
	return ""
}
