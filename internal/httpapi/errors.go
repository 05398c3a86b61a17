package httpapi

import (
	"github.com/gin-gonic/gin"

	"transom/internal/apierr"
)

// errorBody is the {status:"error", error:{code, message, details?}} shape.
type errorBody struct {
	Status string        `json:"status"`
	Error  apierr.Detail `json:"error"`
}

func writeError(c *gin.Context, err error) {
	detail := apierr.DetailFor(err)
	c.AbortWithStatusJSON(apierr.HTTPStatus(detail.Code), errorBody{Status: "error", Error: detail})
}
