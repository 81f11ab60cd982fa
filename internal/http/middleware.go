package http

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/backoffice-kit/backoffice/internal/apperrors"
	"github.com/backoffice-kit/backoffice/internal/auth"
	"github.com/backoffice-kit/backoffice/internal/http/handlers"
	"github.com/backoffice-kit/backoffice/internal/models"
	"github.com/backoffice-kit/backoffice/internal/persistence"
)

// SessionAuthMiddleware verifies the bearer session token and loads the
// matching admin account into the request context.
func SessionAuthMiddleware(service *auth.Service, store *persistence.Facade) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerCredentials(c.GetHeader("Authorization"))
		if token == "" {
			handlers.RespondError(c, apperrors.Unauthorized())
			return
		}

		claims, errVerify := service.VerifySessionToken(token)
		if errVerify != nil {
			handlers.RespondError(c, errVerify)
			return
		}

		record, errGet := store.Get(c.Request.Context(), "admin", claims.ID)
		if errGet != nil {
			if apperrors.AsError(errGet) != nil {
				handlers.RespondError(c, apperrors.Unauthorized())
				return
			}
			handlers.RespondError(c, errGet)
			return
		}
		admin, ok := record.(*models.Admin)
		if !ok {
			handlers.RespondError(c, apperrors.Unauthorized())
			return
		}

		handlers.SetCurrentAdmin(c, admin)
		c.Next()
	}
}

// bearerCredentials extracts the token from an Authorization header.
func bearerCredentials(header string) string {
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
