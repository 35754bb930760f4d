// Package response maps domain failures onto HTTP responses.
package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	tberrors "github.com/tgienger/teamboard/internal/errors"
)

// Error is the JSON body of every failed request.
type Error struct {
	Status    int     `json:"-"`
	Kind      string  `json:"kind"`
	Message   string  `json:"error"`
	Field     string  `json:"field,omitempty"`
	BlockedBy []int64 `json:"blocked_by,omitempty"`
	RequestID string  `json:"request_id,omitempty"`
}

// StatusFor returns the HTTP status for an error kind.
func StatusFor(k tberrors.Kind) int {
	switch k {
	case tberrors.KindNotFound:
		return http.StatusNotFound
	case tberrors.KindValidation, tberrors.KindInvalidOperation:
		return http.StatusBadRequest
	case tberrors.KindConflict, tberrors.KindBlocked:
		return http.StatusConflict
	case tberrors.KindUnauthorized:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// ResolveError converts err into a response body. Internal errors are not
// echoed to the client.
func ResolveError(err error) Error {
	kind := tberrors.KindOf(err)
	resp := Error{Status: StatusFor(kind), Kind: kind.String(), Message: err.Error()}

	var validation tberrors.ValidationError
	if errors.As(err, &validation) {
		resp.Field = validation.Field
	}
	var blocked tberrors.BlockedError
	if errors.As(err, &blocked) {
		resp.BlockedBy = blocked.BlockedBy
	}
	if kind == tberrors.KindInternal {
		resp.Message = "internal error"
	}
	return resp
}

// HandleError writes err as the response and aborts the chain.
func HandleError(err error, c *gin.Context) {
	resp := ResolveError(err)
	resp.RequestID = c.GetString(RequestIDKey)
	_ = c.Error(err)
	c.AbortWithStatusJSON(resp.Status, resp)
}

// Context keys set by the server middleware.
const (
	RequestIDKey = "request_id"
	UserIDKey    = "user_id"
)

// UserID returns the caller identity set by the auth middleware.
func UserID(c *gin.Context) string {
	return c.GetString(UserIDKey)
}
