package handlers

import (
	"net/http"

	"taskhub/internal/auth"
	"taskhub/internal/http/middleware"
	"taskhub/internal/service"
	"taskhub/internal/utils"

	"github.com/gin-gonic/gin"
)

// AuthHandler exposes registration and login. Both are public-API
// endpoints; everything else requires the token issued here.
type AuthHandler struct {
	Users  *service.UserService
	Tokens auth.TokenManager
}

type registerRequest struct {
	Fullname string `json:"fullname" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	Phone    string `json:"phone"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// POST /api/v1/auth/register
func (h AuthHandler) Register(c *gin.Context) {
	var req registerRequest
	if !BindJSONOrError(c, &req) {
		return
	}
	ident := middleware.CurrentIdentity(c)
	user, err := h.Users.Register(c.Request.Context(), req.Fullname, req.Email, req.Password, req.Phone, ident)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	utils.LogEvent(middleware.GetRequestID(c), "auth", "register", "new user registered")
	c.JSON(http.StatusCreated, userResponseFrom(user))
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// POST /api/v1/auth/login
func (h AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if !BindJSONOrError(c, &req) {
		return
	}
	user, err := h.Users.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	token, err := h.Tokens.Issue(user.ID, user.Type)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, tokenResponse{AccessToken: token, TokenType: "bearer"})
}
