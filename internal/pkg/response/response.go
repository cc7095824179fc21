package response

import "github.com/gin-gonic/gin"

func Success(c *gin.Context, statusCode int, data interface{}) {
	c.JSON(statusCode, gin.H{
		"success": true,
		"data":    data,
	})
}

// Message responds with success and a human-readable message instead of data.
func Message(c *gin.Context, statusCode int, message string) {
	c.JSON(statusCode, gin.H{
		"success": true,
		"message": message,
	})
}

func Error(c *gin.Context, statusCode int, code string, message string) {
	c.AbortWithStatusJSON(statusCode, gin.H{
		"success": false,
		"error":   message,
		"code":    code,
	})
}

// ErrorWithDetails adds extra top-level fields clients branch on,
// e.g. requiresVerification or approvalStatus.
func ErrorWithDetails(c *gin.Context, statusCode int, code string, message string, details gin.H) {
	body := gin.H{
		"success": false,
		"error":   message,
		"code":    code,
	}
	for k, v := range details {
		if _, reserved := body[k]; !reserved {
			body[k] = v
		}
	}
	c.AbortWithStatusJSON(statusCode, body)
}

// ValidationError reports field-level failures as a 400.
func ValidationError(c *gin.Context, fields map[string]string) {
	ErrorWithDetails(c, 400, "VALIDATION_ERROR", "Invalid request data", gin.H{"fields": fields})
}

// Internal logs nothing itself; the error is attached to the context for the request logger.
func Internal(c *gin.Context, err error) {
	if err != nil {
		_ = c.Error(err)
	}
	Error(c, 500, "INTERNAL_ERROR", "Internal server error")
}
