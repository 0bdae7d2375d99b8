package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

// RespondError writes the error envelope. Server-side failures collapse to
// a generic message so repo and driver errors never reach learners; the
// code field stays machine-readable either way.
func RespondError(c *gin.Context, status int, code string, err error) {
	msg := "unknown error"
	switch {
	case status >= http.StatusInternalServerError:
		msg = "internal error"
	case err != nil:
		msg = err.Error()
	}
	c.JSON(status, ErrorEnvelope{
		Error: APIError{
			Message: msg,
			Code:    code,
		},
	})
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}
