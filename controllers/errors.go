package controllers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"wardsync/apperrors"
	"wardsync/middlewares"
	"wardsync/models"
)

// respondError writes err as {"error": message}. Internal errors are logged
// and answered with a generic message.
func respondError(c *gin.Context, logger *zap.Logger, err error) {
	status := apperrors.HTTPStatus(err)
	if apperrors.KindOf(err) == apperrors.KindInternal {
		logger.Error("request failed",
			zap.String("request_id", middlewares.GetRequestID(c)),
			zap.String("path", c.FullPath()),
			zap.Error(err),
		)
	}
	c.JSON(status, gin.H{"error": apperrors.Message(err)})
}

func init() {
	// Report validation failures by JSON field name.
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
			if name == "-" {
				return ""
			}
			return name
		})
	}
}

func bindError(c *gin.Context, err error) {
	c.JSON(apperrors.HTTPStatus(apperrors.ErrValidation), gin.H{"error": bindMessage(err)})
}

// bindMessage turns a binding failure into a short client-facing message.
func bindMessage(err error) string {
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		switch fe.Tag() {
		case "required":
			return fmt.Sprintf("%s is required", fe.Field())
		case "email":
			return fmt.Sprintf("%s must be a valid email address", fe.Field())
		case "min":
			return fmt.Sprintf("%s must be at least %s characters", fe.Field(), fe.Param())
		case "max":
			return fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param())
		case "oneof":
			return fmt.Sprintf("%s must be one of %s", fe.Field(), strings.ReplaceAll(fe.Param(), " ", ", "))
		default:
			return fmt.Sprintf("%s is invalid", fe.Field())
		}
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		return fmt.Sprintf("%s has the wrong type", typeErr.Field)
	}
	if errors.Is(err, io.EOF) {
		return "Request body is required"
	}
	return "Invalid request body"
}

func session(c *gin.Context, logger *zap.Logger) (models.Session, bool) {
	sess, ok := middlewares.CurrentSession(c)
	if !ok {
		respondError(c, logger, apperrors.Unauthorized("User not authenticated"))
	}
	return sess, ok
}

func objectIDParam(c *gin.Context, logger *zap.Logger, name, resource string) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(c.Param(name))
	if err != nil {
		respondError(c, logger, apperrors.Validation("Invalid %s ID", resource))
		return primitive.NilObjectID, false
	}
	return id, true
}
