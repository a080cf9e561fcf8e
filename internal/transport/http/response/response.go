package response

import "github.com/gin-gonic/gin"

const (
	CodeBadRequest      = 40000
	CodePayloadTooLarge = 41300
	CodeInternalServer  = 50000
	CodeUpstream        = 50200
)

// APIResponse is the error envelope. Successful calls return their result
// object directly.
type APIResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func JSON(c *gin.Context, httpStatus int, data any) {
	c.JSON(httpStatus, data)
}

func Error(c *gin.Context, httpStatus, code int, message string) {
	c.AbortWithStatusJSON(httpStatus, APIResponse{
		Code:    code,
		Message: message,
	})
}
