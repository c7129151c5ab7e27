package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"wardsync/geo"
	"wardsync/services"
)

type WardController struct {
	wards  *services.WardService
	logger *zap.Logger
}

func NewWardController(wards *services.WardService, logger *zap.Logger) *WardController {
	return &WardController{wards: wards, logger: logger}
}

// CreateWard registers a ward, optionally with a GeoJSON boundary
func (wc *WardController) CreateWard(c *gin.Context) {
	sess, ok := session(c, wc.logger)
	if !ok {
		return
	}

	var input struct {
		Name     string       `json:"name" binding:"required,max=100"`
		City     string       `json:"city" binding:"required,max=100"`
		Boundary *geo.Polygon `json:"boundary"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		bindError(c, err)
		return
	}

	ward, err := wc.wards.CreateWard(c.Request.Context(), sess, services.CreateWardInput{
		Name:     input.Name,
		City:     input.City,
		Boundary: input.Boundary,
	})
	if err != nil {
		respondError(c, wc.logger, err)
		return
	}
	c.JSON(http.StatusCreated, ward)
}

// ListWards returns every ward, or those of ?city=
func (wc *WardController) ListWards(c *gin.Context) {
	wards, err := wc.wards.ListWards(c.Request.Context(), c.Query("city"))
	if err != nil {
		respondError(c, wc.logger, err)
		return
	}
	c.JSON(http.StatusOK, wards)
}

func (wc *WardController) ListCities(c *gin.Context) {
	cities, err := wc.wards.ListCities(c.Request.Context())
	if err != nil {
		respondError(c, wc.logger, err)
		return
	}
	c.JSON(http.StatusOK, cities)
}
