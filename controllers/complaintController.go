package controllers

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"wardsync/apperrors"
	"wardsync/services"
)

type ComplaintController struct {
	complaints *services.ComplaintService
	logger     *zap.Logger
}

func NewComplaintController(complaints *services.ComplaintService, logger *zap.Logger) *ComplaintController {
	return &ComplaintController{complaints: complaints, logger: logger}
}

// CreateComplaint handles the creation of a new complaint. The ward is
// derived from the location, never taken from the client.
func (cc *ComplaintController) CreateComplaint(c *gin.Context) {
	sess, ok := session(c, cc.logger)
	if !ok {
		return
	}

	var input struct {
		Description string `json:"description" binding:"max=1000"`
		ImageURL    string `json:"imageUrl" binding:"max=2048"`
		Location    struct {
			Lat json.Number `json:"lat"`
			Lng json.Number `json:"lng"`
		} `json:"location"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		bindError(c, err)
		return
	}

	complaint, err := cc.complaints.CreateComplaint(c.Request.Context(), sess, services.CreateComplaintInput{
		Description: input.Description,
		ImageURL:    input.ImageURL,
		Lat:         input.Location.Lat.String(),
		Lng:         input.Location.Lng.String(),
	})
	if err != nil {
		respondError(c, cc.logger, err)
		return
	}
	c.JSON(http.StatusCreated, complaint)
}

// GetAllComplaints returns the public map pins, optionally for one ?wardId=
func (cc *ComplaintController) GetAllComplaints(c *gin.Context) {
	var wardID *primitive.ObjectID
	if raw := c.Query("wardId"); raw != "" {
		id, err := primitive.ObjectIDFromHex(raw)
		if err != nil {
			respondError(c, cc.logger, apperrors.Validation("Invalid ward ID"))
			return
		}
		wardID = &id
	}

	pins, err := cc.complaints.ListComplaints(c.Request.Context(), wardID)
	if err != nil {
		respondError(c, cc.logger, err)
		return
	}
	c.JSON(http.StatusOK, pins)
}

// GetMyComplaints lists the caller's own complaints
func (cc *ComplaintController) GetMyComplaints(c *gin.Context) {
	sess, ok := session(c, cc.logger)
	if !ok {
		return
	}

	views, err := cc.complaints.ListMine(c.Request.Context(), sess)
	if err != nil {
		respondError(c, cc.logger, err)
		return
	}
	c.JSON(http.StatusOK, views)
}

// GetWardComplaints is the authority listing with filters and sorting
func (cc *ComplaintController) GetWardComplaints(c *gin.Context) {
	sess, ok := session(c, cc.logger)
	if !ok {
		return
	}

	views, err := cc.complaints.ListWard(c.Request.Context(), sess, services.WardQuery{
		Category: c.Query("category"),
		Status:   c.Query("status"),
		Severity: c.Query("severity"),
		Sort:     c.Query("sort"),
	})
	if err != nil {
		respondError(c, cc.logger, err)
		return
	}
	c.JSON(http.StatusOK, views)
}

func (cc *ComplaintController) GetComplaint(c *gin.Context) {
	sess, ok := session(c, cc.logger)
	if !ok {
		return
	}
	id, ok := objectIDParam(c, cc.logger, "id", "complaint")
	if !ok {
		return
	}

	view, err := cc.complaints.GetComplaint(c.Request.Context(), sess, id)
	if err != nil {
		respondError(c, cc.logger, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (cc *ComplaintController) DeleteComplaint(c *gin.Context) {
	sess, ok := session(c, cc.logger)
	if !ok {
		return
	}
	id, ok := objectIDParam(c, cc.logger, "id", "complaint")
	if !ok {
		return
	}

	if err := cc.complaints.DeleteComplaint(c.Request.Context(), sess, id); err != nil {
		respondError(c, cc.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Complaint deleted successfully"})
}

func (cc *ComplaintController) UpdateStatus(c *gin.Context) {
	sess, ok := session(c, cc.logger)
	if !ok {
		return
	}
	id, ok := objectIDParam(c, cc.logger, "id", "complaint")
	if !ok {
		return
	}

	var input struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		bindError(c, err)
		return
	}

	complaint, err := cc.complaints.SetStatus(c.Request.Context(), sess, id, input.Status)
	if err != nil {
		respondError(c, cc.logger, err)
		return
	}
	c.JSON(http.StatusOK, complaint)
}

func (cc *ComplaintController) Upvote(c *gin.Context) {
	sess, ok := session(c, cc.logger)
	if !ok {
		return
	}
	id, ok := objectIDParam(c, cc.logger, "id", "complaint")
	if !ok {
		return
	}

	res, err := cc.complaints.Upvote(c.Request.Context(), sess, id)
	if err != nil {
		respondError(c, cc.logger, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (cc *ComplaintController) RemoveUpvote(c *gin.Context) {
	sess, ok := session(c, cc.logger)
	if !ok {
		return
	}
	id, ok := objectIDParam(c, cc.logger, "id", "complaint")
	if !ok {
		return
	}

	res, err := cc.complaints.RemoveUpvote(c.Request.Context(), sess, id)
	if err != nil {
		respondError(c, cc.logger, err)
		return
	}
	c.JSON(http.StatusOK, res)
}
