package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"wardsync/services"
)

type AuthorityController struct {
	authority *services.AuthorityService
	logger    *zap.Logger
}

func NewAuthorityController(authority *services.AuthorityService, logger *zap.Logger) *AuthorityController {
	return &AuthorityController{authority: authority, logger: logger}
}

// GetDashboard returns the ward stats, the top open high-priority
// complaints and the latest submissions.
func (ac *AuthorityController) GetDashboard(c *gin.Context) {
	sess, ok := session(c, ac.logger)
	if !ok {
		return
	}

	dashboard, err := ac.authority.Dashboard(c.Request.Context(), sess)
	if err != nil {
		respondError(c, ac.logger, err)
		return
	}
	c.JSON(http.StatusOK, dashboard)
}

func (ac *AuthorityController) GetAnalytics(c *gin.Context) {
	sess, ok := session(c, ac.logger)
	if !ok {
		return
	}

	analytics, err := ac.authority.Analytics(c.Request.Context(), sess)
	if err != nil {
		respondError(c, ac.logger, err)
		return
	}
	c.JSON(http.StatusOK, analytics)
}
