// Package response writes the JSON envelope shared by every API endpoint:
// {"success": true, "message": ..., "data": ...} or
// {"success": false, "message": ..., "error": ...}.
package response

import (
	"sync/atomic"

	"github.com/gin-gonic/gin"
)

var hideDetails atomic.Bool

// SetProduction hides error details from clients when enabled.
func SetProduction(on bool) { hideDetails.Store(on) }

type Envelope struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
	Error   interface{} `json:"error,omitempty"`
}

func Success(c *gin.Context, status int, message string, data interface{}) {
	c.JSON(status, Envelope{Success: true, Message: message, Data: data})
}

// Error writes a failure envelope. detail may be an error, a string or any
// JSON value; it is dropped in production.
func Error(c *gin.Context, status int, message string, detail interface{}) {
	c.JSON(status, failure(message, detail))
}

// Abort is Error for middleware that must stop the chain.
func Abort(c *gin.Context, status int, message string, detail interface{}) {
	c.AbortWithStatusJSON(status, failure(message, detail))
}

func failure(message string, detail interface{}) Envelope {
	env := Envelope{Success: false, Message: message}
	if detail != nil && !hideDetails.Load() {
		if err, ok := detail.(error); ok {
			detail = err.Error()
		}
		env.Error = detail
	}
	return env
}
