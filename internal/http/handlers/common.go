package handlers

import (
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"github.com/backoffice-kit/backoffice/internal/apperrors"
	"github.com/backoffice-kit/backoffice/internal/models"
)

// currentAdminKey is the context key the auth middleware stores the resolved
// account under.
const currentAdminKey = "current_admin"

// SetCurrentAdmin records the authenticated account on the request context.
func SetCurrentAdmin(c *gin.Context, admin *models.Admin) {
	c.Set(currentAdminKey, admin)
}

// RespondError renders a failure as JSON. Known error kinds map to their
// status and code; anything else is logged with full detail and rendered as a
// generic unknown_error so internals never leak to the caller.
func RespondError(c *gin.Context, err error) {
	if appErr := apperrors.AsError(err); appErr != nil {
		c.AbortWithStatusJSON(appErr.Status, appErr)
		return
	}
	log.WithError(err).WithField("path", c.FullPath()).Error("unhandled error")
	unknown := apperrors.UnknownError()
	c.AbortWithStatusJSON(unknown.Status, unknown)
}
