package controller

import (
	"errors"
	"net/http"
	"unix_companion/internal/model"
	"unix_companion/internal/service"
	"unix_companion/internal/util"

	"github.com/gin-gonic/gin"
)

type AuthController struct {
	Service *service.AuthService
}

func NewAuthController(svc *service.AuthService) *AuthController {
	return &AuthController{Service: svc}
}

// Login forwards credentials to the platform and stores the session token.
func (c *AuthController) Login(ctx *gin.Context) {
	var req model.LoginRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	if err := c.Service.Login(ctx.Request.Context(), req.Login, req.Password); err != nil {
		if errors.Is(err, util.ErrLoginFailed) {
			util.Error(ctx, http.StatusUnauthorized, "Login failed. Please check your credentials.")
			return
		}
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, nil)
}

// Session reports whether a usable bearer token is stored.
func (c *AuthController) Session(ctx *gin.Context) {
	_, err := c.Service.BearerToken()
	util.Success(ctx, gin.H{"authenticated": err == nil})
}
