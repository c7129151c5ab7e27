package routes

import (
	"github.com/gin-gonic/gin"

	"wardsync/controllers"
	"wardsync/middlewares"
	"wardsync/models"
)

// ComplaintRoutes sets up the complaint routes
func ComplaintRoutes(r *gin.Engine, d Deps, auth gin.HandlerFunc) {
	cc := controllers.NewComplaintController(d.Services.Complaints, d.Logger)
	citizen := middlewares.RequireRole(models.RoleCitizen)
	authority := middlewares.RequireRole(models.RoleAuthority)
	limiter := middlewares.ComplaintRateLimiter(d.Counter, d.RateLimitPrefix, d.DailyComplaintLimit, d.Metrics, d.Logger)

	complaint := r.Group("/api/complaint")
	{
		complaint.POST("", auth, citizen, limiter, cc.CreateComplaint)
		complaint.GET("", cc.GetAllComplaints)
		complaint.GET("/mine", auth, citizen, cc.GetMyComplaints)
		complaint.GET("/ward", auth, authority, cc.GetWardComplaints)
		complaint.GET("/:id", auth, cc.GetComplaint)
		complaint.DELETE("/:id", auth, cc.DeleteComplaint)
		complaint.PATCH("/:id/status", auth, authority, cc.UpdateStatus)
		complaint.POST("/:id/upvote", auth, citizen, cc.Upvote)
		complaint.DELETE("/:id/upvote", auth, citizen, cc.RemoveUpvote)
	}
}
