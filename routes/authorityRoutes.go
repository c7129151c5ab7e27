package routes

import (
	"github.com/gin-gonic/gin"

	"wardsync/controllers"
	"wardsync/middlewares"
	"wardsync/models"
)

func AuthorityRoutes(r *gin.Engine, d Deps, auth gin.HandlerFunc) {
	ac := controllers.NewAuthorityController(d.Services.Authority, d.Logger)

	authority := r.Group("/api/authority", auth, middlewares.RequireRole(models.RoleAuthority))
	{
		authority.GET("/dashboard", ac.GetDashboard)
		authority.GET("/analytics", ac.GetAnalytics)
	}
}
