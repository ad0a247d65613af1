package middleware

import (
	"github.com/flathunt/platform/shared/result"
	"github.com/gin-gonic/gin"
)

// Respond renders r as the service envelope with its payload under key.
// The HTTP status mirrors the envelope's statusCode. A failed result
// carries a null payload.
func Respond[T any](c *gin.Context, r result.Result[T], okStatus int, okMessage, key string) {
	env := r.Envelope(okStatus, okMessage)
	body := EnvelopeBody(env)
	if key != "" {
		if r.IsOk() {
			body[key] = r.Value()
		} else {
			body[key] = nil
		}
	}
	c.JSON(env.Status(), body)
}

// EnvelopeBody returns the envelope fields as a map so that handlers with
// more than one payload field can add them alongside.
func EnvelopeBody(env result.Envelope) gin.H {
	return gin.H{
		"success":      env.Success,
		"statusCode":   env.StatusCode,
		"message":      env.Message,
		"errorMessage": env.ErrorMessage,
	}
}
