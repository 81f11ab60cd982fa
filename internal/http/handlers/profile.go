package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/backoffice-kit/backoffice/internal/apperrors"
	"github.com/backoffice-kit/backoffice/internal/models"
	"github.com/backoffice-kit/backoffice/internal/persistence"
	"github.com/backoffice-kit/backoffice/internal/upload"
	"github.com/backoffice-kit/backoffice/internal/validation"
)

// ProfileHandler exposes the authenticated admin's own record.
type ProfileHandler struct {
	store   *persistence.Facade
	uploads upload.Store
}

// NewProfileHandler constructs a ProfileHandler.
func NewProfileHandler(store *persistence.Facade, uploads upload.Store) *ProfileHandler {
	return &ProfileHandler{store: store, uploads: uploads}
}

// CurrentAdmin returns the account the auth middleware resolved.
func CurrentAdmin(c *gin.Context) (*models.Admin, bool) {
	value, exists := c.Get(currentAdminKey)
	if !exists {
		return nil, false
	}
	admin, ok := value.(*models.Admin)
	return admin, ok
}

// Get returns the caller's profile.
func (h *ProfileHandler) Get(c *gin.Context) {
	admin, ok := CurrentAdmin(c)
	if !ok {
		RespondError(c, apperrors.Unauthorized())
		return
	}
	record, err := h.store.Get(c.Request.Context(), "admin", admin.ID)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, record)
}

// Update applies a partial update to the caller's profile.
func (h *ProfileHandler) Update(c *gin.Context) {
	admin, ok := CurrentAdmin(c)
	if !ok {
		RespondError(c, apperrors.Unauthorized())
		return
	}
	var body map[string]any
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	delete(body, "mode")

	record, err := h.store.Update(c.Request.Context(), "admin", persistence.UpdateInput{
		ID:     admin.ID,
		Mode:   validation.ModeUpdate,
		Fields: body,
	})
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, record)
}

// updateProfilePasswordRequest defines the request body for password changes.
type updateProfilePasswordRequest struct {
	Password string `json:"password"`
}

// UpdatePassword sets a new password for the caller.
func (h *ProfileHandler) UpdatePassword(c *gin.Context) {
	admin, ok := CurrentAdmin(c)
	if !ok {
		RespondError(c, apperrors.Unauthorized())
		return
	}
	var body updateProfilePasswordRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if _, err := h.store.Update(c.Request.Context(), "admin", persistence.UpdateInput{
		ID:     admin.ID,
		Mode:   validation.ModeUpdatePassword,
		Fields: map[string]any{"password": body.Password},
	}); err != nil {
		RespondError(c, err)
		return
	}
	c.Status(http.StatusOK)
}

// UpdateAvatar stores an uploaded image and points the caller's avatar at its
// URL. The multipart file field is named "file".
func (h *ProfileHandler) UpdateAvatar(c *gin.Context) {
	admin, ok := CurrentAdmin(c)
	if !ok {
		RespondError(c, apperrors.Unauthorized())
		return
	}
	fileHeader, errFile := c.FormFile("file")
	if errFile != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing file"})
		return
	}
	file, errOpen := fileHeader.Open()
	if errOpen != nil {
		RespondError(c, apperrors.UnableToUploadImage())
		return
	}
	defer func() { _ = file.Close() }()

	url, err := h.uploads.Save(c.Request.Context(), fileHeader.Filename, file)
	if err != nil {
		RespondError(c, err)
		return
	}

	record, err := h.store.Update(c.Request.Context(), "admin", persistence.UpdateInput{
		ID:     admin.ID,
		Mode:   validation.ModeUpdateAvatar,
		Fields: map[string]any{"avatar": url},
	})
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, record)
}
