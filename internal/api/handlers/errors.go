package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/princeprakhar/yamdb-backend/internal/authz"
	"github.com/princeprakhar/yamdb-backend/internal/services"
	"github.com/princeprakhar/yamdb-backend/internal/utils"
	"github.com/princeprakhar/yamdb-backend/pkg/logger"
	"github.com/sirupsen/logrus"
)

// respondError maps the service error taxonomy onto status codes.
// Unexpected errors are logged and never echoed to the client.
func respondError(c *gin.Context, message string, err error) {
	var validationErr *services.ValidationError
	switch {
	case errors.As(err, &validationErr):
		utils.SendFieldErrors(c, message, validationErr.Fields)
	case errors.Is(err, authz.ErrUnauthenticated):
		utils.SendUnauthorized(c, "Authentication credentials were not provided")
	case errors.Is(err, authz.ErrForbidden):
		utils.SendForbidden(c, "You do not have permission to perform this action")
	case errors.Is(err, services.ErrNotFound):
		utils.SendError(c, http.StatusNotFound, message, err)
	case errors.Is(err, services.ErrDelivery):
		utils.SendInternalError(c, message, services.ErrDelivery)
	default:
		requestLog(c).WithError(err).Error(message)
		utils.SendInternalError(c, message, nil)
	}
}

func requestLog(c *gin.Context) *logrus.Entry {
	return logger.WithFields(logrus.Fields{
		"request_id": c.GetString("request_id"),
		"route":      c.FullPath(),
	})
}

// bindJSON decodes the body into req. An empty body leaves req at its zero
// value so the service still authorizes before it validates.
// Type mismatches are reported against the offending field.
func bindJSON(c *gin.Context, req interface{}) bool {
	err := c.ShouldBindJSON(req)
	if err == nil || errors.Is(err, io.EOF) {
		return true
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		utils.SendFieldErrors(c, "Invalid request data", map[string]string{
			typeErr.Field: "Expected a value of type " + typeErr.Type.String() + ".",
		})
		return false
	}
	utils.SendFieldErrors(c, "Invalid request data", map[string]string{
		services.NonFieldErrors: "Malformed JSON body.",
	})
	return false
}

// pathID reads a numeric path parameter. Anything that is not a positive
// integer cannot name an existing row, so it answers 404 directly.
func pathID(c *gin.Context, name, resource string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		utils.SendNotFound(c, resource+" not found")
		return 0, false
	}
	return uint(id), true
}
