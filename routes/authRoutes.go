package routes

import (
	"github.com/gin-gonic/gin"

	"wardsync/controllers"
)

// AuthRoutes sets up the authentication routes
func AuthRoutes(r *gin.Engine, d Deps, auth gin.HandlerFunc) {
	ac := controllers.NewAuthController(d.Services.Auth, d.Production, d.Logger)

	group := r.Group("/api/auth")
	{
		group.POST("/register", ac.RegisterUser)
		group.POST("/login", ac.LoginUser)
		group.POST("/refresh", auth, ac.RefreshToken)
		group.POST("/logout", auth, ac.LogoutUser)
		group.GET("/me", auth, ac.GetMe)
	}
}
