package routes

import (
	"github.com/gin-gonic/gin"

	"wardsync/controllers"
	"wardsync/middlewares"
	"wardsync/models"
)

// WardRoutes sets up ward registration and lookup
func WardRoutes(r *gin.Engine, d Deps, auth gin.HandlerFunc) {
	wc := controllers.NewWardController(d.Services.Wards, d.Logger)

	r.POST("/api/ward", auth, middlewares.RequireRole(models.RoleAuthority), wc.CreateWard)

	wards := r.Group("/api/wards")
	{
		wards.GET("", wc.ListWards)
		wards.GET("/cities", wc.ListCities)
	}
}
