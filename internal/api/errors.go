package api

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-sql-driver/mysql"

	"equipment-ledger-backend/internal/store"
)

// Error kinds reported in the "error" field of failed responses.
const (
	KindBadRequest  = "BadRequest"
	KindNotFound    = "NotFound"
	KindUnavailable = "Unavailable"
	KindInternal    = "Internal"
)

// badRequestError marks client input that cannot be processed.
type badRequestError struct {
	msg string
}

func (e *badRequestError) Error() string { return e.msg }

func badRequest(format string, args ...interface{}) error {
	return &badRequestError{msg: fmt.Sprintf(format, args...)}
}

// isUnavailable reports transient datastore failures that a retry may fix.
func isUnavailable(err error) bool {
	if errors.Is(err, driver.ErrBadConn) ||
		errors.Is(err, sql.ErrConnDone) ||
		errors.Is(err, mysql.ErrInvalidConn) ||
		errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, context.Canceled) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}

// respondError maps err onto the error taxonomy and writes the response.
// Internal details are logged, never returned to the client.
func respondError(c *gin.Context, err error) {
	var br *badRequestError
	switch {
	case errors.As(err, &br):
		c.JSON(http.StatusBadRequest, gin.H{"error": KindBadRequest, "message": br.msg})
	case errors.Is(err, store.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": KindNotFound, "message": "device not found"})
	case isUnavailable(err):
		_ = c.Error(err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": KindUnavailable, "message": "datastore unavailable, retry later"})
	default:
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": KindInternal, "message": "internal server error"})
	}
}
