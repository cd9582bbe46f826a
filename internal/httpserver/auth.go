package httpserver

import (
	"net/http"

	"koperasi-storefront/internal/domain"
	accountsvc "koperasi-storefront/internal/service/account"

	"github.com/gin-gonic/gin"
)

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type sessionResponse struct {
	Token     string       `json:"token"`
	ExpiresIn int          `json:"expiresIn"`
	Actor     domain.Actor `json:"user"`
	IsAdmin   bool         `json:"isAdmin"`
}

func (h *handlers) signup(c *gin.Context) {
	var in accountsvc.SignupInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	acc, token, err := h.deps.Accounts.Signup(c.Request.Context(), in)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, sessionResponse{
		Token:     token,
		ExpiresIn: h.deps.Accounts.SessionTTLSeconds(),
		Actor:     domain.Actor{ID: acc.ID, Email: acc.Email, Name: acc.FullName},
	})
}

func (h *handlers) login(c *gin.Context) {
	var in loginRequest
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "email and password required"})
		return
	}
	ctx := c.Request.Context()
	acc, token, err := h.deps.Accounts.Login(ctx, in.Email, in.Password)
	if err != nil {
		h.writeError(c, err)
		return
	}
	isAdmin, err := h.deps.Accounts.IsAdmin(ctx, acc.ID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, sessionResponse{
		Token:     token,
		ExpiresIn: h.deps.Accounts.SessionTTLSeconds(),
		Actor:     domain.Actor{ID: acc.ID, Email: acc.Email, Name: acc.FullName},
		IsAdmin:   isAdmin,
	})
}

func (h *handlers) logout(c *gin.Context) {
	token := bearerToken(c.GetHeader("Authorization"))
	if token != "" {
		if err := h.deps.Accounts.Logout(c.Request.Context(), token); err != nil {
			h.writeError(c, err)
			return
		}
	}
	c.Status(http.StatusNoContent)
}

func (h *handlers) me(c *gin.Context) {
	actor := actorFrom(c)
	isAdmin, err := h.deps.Accounts.IsAdmin(c.Request.Context(), actor.ID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": actor, "isAdmin": isAdmin})
}
