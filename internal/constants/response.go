package constants

import "github.com/gin-gonic/gin"

// Standard Response Field Keys
const (
	ResponseFieldSuccess    = "success"
	ResponseFieldCount      = "count"
	ResponseFieldPagination = "pagination"
	ResponseFieldData       = "data"
	ResponseFieldError      = "error"
	ResponseFieldMessage    = "msg"
	ResponseFieldToken      = "token"
)

// BuildDataResponse wraps a single document: {success, data}.
func BuildDataResponse(data any) gin.H {
	return gin.H{
		ResponseFieldSuccess: true,
		ResponseFieldData:    data,
	}
}

// BuildListResponse wraps an unpaged list: {success, count, data}.
func BuildListResponse(count int, data any) gin.H {
	return gin.H{
		ResponseFieldSuccess: true,
		ResponseFieldCount:   count,
		ResponseFieldData:    data,
	}
}

func BuildErrorResponse(message string) gin.H {
	return gin.H{
		ResponseFieldSuccess: false,
		ResponseFieldError:   message,
	}
}

func BuildDeletedResponse() gin.H {
	return gin.H{
		ResponseFieldSuccess: true,
		ResponseFieldData:    gin.H{},
		ResponseFieldMessage: "deleted successfully",
	}
}
