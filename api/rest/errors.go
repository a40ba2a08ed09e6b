package rest

import (
	"errors"
	"net/http"

	"github.com/banditrecycle/server/audit"
	mw "github.com/banditrecycle/server/middleware"
	"github.com/banditrecycle/server/store"
	"github.com/banditrecycle/server/tracker/batch"
	"github.com/banditrecycle/server/tracker/setup"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// SetupRedirect is the client route a 428 response points at.
const SetupRedirect = "/setup"

// statusFor maps domain errors to HTTP status codes. Anything unrecognised
// is an internal error.
func statusFor(err error) int {
	var missing *setup.MissingRulesError
	switch {
	case errors.Is(err, store.ErrAuthRequired):
		return http.StatusUnauthorized
	case errors.Is(err, store.ErrNotFound), errors.Is(err, store.ErrUnknownItemType):
		return http.StatusNotFound
	case errors.Is(err, store.ErrSelfReference),
		errors.Is(err, store.ErrInvalidInput),
		errors.Is(err, setup.ErrLocationRequired),
		errors.Is(err, setup.ErrStreamModeRequired),
		errors.Is(err, setup.ErrInvalidRule),
		errors.Is(err, setup.ErrCannotGoBack),
		errors.Is(err, batch.ErrEmptyBatch),
		errors.As(err, &missing):
		return http.StatusBadRequest
	case errors.Is(err, store.ErrAlreadyRelated),
		errors.Is(err, setup.ErrFinished),
		errors.Is(err, batch.ErrConfirmationRequired):
		return http.StatusConflict
	case errors.Is(err, batch.ErrSetupRequired):
		return http.StatusPreconditionRequired
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes err as a JSON error body. Internal failures are
// logged with their cause and reported as "internal error".
func respondError(c *gin.Context, logger *zap.Logger, err error) {
	respondErrorWith(c, logger, err, nil)
}

// respondErrorWith is respondError with extra fields merged into
// non-internal error bodies.
func respondErrorWith(c *gin.Context, logger *zap.Logger, err error, extra gin.H) {
	_ = c.Error(err)
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		logger.Error("request failed",
			zap.String("path", c.FullPath()),
			zap.String("trace_id", mw.GetTraceID(c)),
			zap.Stringer("caller", mw.GetIdentity(c)),
			zap.Error(err))
		c.JSON(status, gin.H{"error": "internal error"})
		return
	}

	body := gin.H{"error": err.Error()}
	for k, v := range extra {
		body[k] = v
	}
	var missing *setup.MissingRulesError
	switch {
	case errors.As(err, &missing):
		body["missing"] = missing.Items
	case errors.Is(err, batch.ErrSetupRequired):
		body["redirect"] = SetupRedirect
	case errors.Is(err, batch.ErrConfirmationRequired):
		body["confirmation_required"] = true
	}
	c.JSON(status, body)
}

// bindJSON decodes the request body and reports binding errors as 400.
// The decoded value is attached for auditing.
func bindJSON(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return false
	}
	c.Set(audit.RequestKey, dst)
	return true
}
