package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"wardsync/middlewares"
	"wardsync/services"
)

type AuthController struct {
	auth       *services.AuthService
	production bool
	logger     *zap.Logger
}

func NewAuthController(auth *services.AuthService, production bool, logger *zap.Logger) *AuthController {
	return &AuthController{auth: auth, production: production, logger: logger}
}

// RegisterUser handles user registration
func (ac *AuthController) RegisterUser(c *gin.Context) {
	var input struct {
		Name     string `json:"name" binding:"required,max=50"`
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required,min=6"`
		Role     string `json:"role" binding:"omitempty,oneof=citizen authority"`
		WardID   string `json:"wardId"`
	}

	if err := c.ShouldBindJSON(&input); err != nil {
		bindError(c, err)
		return
	}

	user, err := ac.auth.Register(c.Request.Context(), services.RegisterInput{
		Name:     input.Name,
		Email:    input.Email,
		Password: input.Password,
		Role:     input.Role,
		WardID:   input.WardID,
	})
	if err != nil {
		respondError(c, ac.logger, err)
		return
	}

	c.JSON(http.StatusCreated, user)
}

// LoginUser handles user login. The token is returned in the body and also
// set as an HttpOnly cookie for browser clients.
func (ac *AuthController) LoginUser(c *gin.Context) {
	var input struct {
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required"`
	}

	if err := c.ShouldBindJSON(&input); err != nil {
		bindError(c, err)
		return
	}

	res, err := ac.auth.Login(c.Request.Context(), input.Email, input.Password)
	if err != nil {
		respondError(c, ac.logger, err)
		return
	}

	ac.setAuthCookie(c, res)
	c.JSON(http.StatusOK, res)
}

// RefreshToken swaps the current token for a new one and revokes the old.
func (ac *AuthController) RefreshToken(c *gin.Context) {
	sess, ok := session(c, ac.logger)
	if !ok {
		return
	}

	res, err := ac.auth.Refresh(c.Request.Context(), sess)
	if err != nil {
		respondError(c, ac.logger, err)
		return
	}

	ac.setAuthCookie(c, res)
	c.JSON(http.StatusOK, res)
}

func (ac *AuthController) setAuthCookie(c *gin.Context, res *services.LoginResult) {
	cookie := &http.Cookie{
		Name:     middlewares.AuthCookie,
		Value:    res.Token,
		Expires:  res.ExpiresAt,
		MaxAge:   int(time.Until(res.ExpiresAt).Seconds()),
		Path:     "/",
		Secure:   ac.production, // false for HTTP (dev), true for HTTPS (prod)
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	if ac.production {
		cookie.SameSite = http.SameSiteNoneMode
	}
	http.SetCookie(c.Writer, cookie)
}

// GetMe retrieves the authenticated user's information
func (ac *AuthController) GetMe(c *gin.Context) {
	sess, ok := session(c, ac.logger)
	if !ok {
		return
	}

	user, err := ac.auth.Me(c.Request.Context(), sess)
	if err != nil {
		respondError(c, ac.logger, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// LogoutUser revokes the current token and clears the auth cookie
func (ac *AuthController) LogoutUser(c *gin.Context) {
	sess, ok := session(c, ac.logger)
	if !ok {
		return
	}

	if err := ac.auth.Logout(c.Request.Context(), sess); err != nil {
		respondError(c, ac.logger, err)
		return
	}

	c.SetCookie(middlewares.AuthCookie, "", -1, "/", "", ac.production, true)
	c.JSON(http.StatusOK, gin.H{
		"message": "Logged out successfully",
	})
}
