package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/backoffice-kit/backoffice/internal/persistence"
	"github.com/backoffice-kit/backoffice/internal/validation"
)

// ModelHandler exposes the generic CRUD and listing surface, parameterized by
// the model_name path segment.
type ModelHandler struct {
	store *persistence.Facade
}

// NewModelHandler constructs a ModelHandler.
func NewModelHandler(store *persistence.Facade) *ModelHandler {
	return &ModelHandler{store: store}
}

// Create inserts a new record of the named entity.
func (h *ModelHandler) Create(c *gin.Context) {
	var body map[string]any
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	record, err := h.store.Create(c.Request.Context(), c.Param("model_name"), body)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, record)
}

// Get fetches one record by id.
func (h *ModelHandler) Get(c *gin.Context) {
	record, err := h.store.Get(c.Request.Context(), c.Param("model_name"), c.Param("id"))
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, record)
}

// Update applies a partial update. The body's optional "mode" field selects
// the schema (update, update_password or update_avatar).
func (h *ModelHandler) Update(c *gin.Context) {
	var body map[string]any
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	modeRaw, _ := body["mode"].(string)
	delete(body, "mode")
	mode, ok := validation.ParseMode(modeRaw)
	if !ok || mode == validation.ModeCreate || mode == validation.ModeListing {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid mode"})
		return
	}

	record, err := h.store.Update(c.Request.Context(), c.Param("model_name"), persistence.UpdateInput{
		ID:     c.Param("id"),
		Mode:   mode,
		Fields: body,
	})
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, record)
}

// Delete removes a record and returns its last-known state stamped with the
// removal time.
func (h *ModelHandler) Delete(c *gin.Context) {
	record, err := h.store.Delete(c.Request.Context(), c.Param("model_name"), c.Param("id"))
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"record":     record,
		"deleted_at": time.Now().UTC(),
	})
}

// List runs a filtered, paginated search. Query parameters: search,
// page_number, page_size, and filters[field]=value pairs.
func (h *ModelHandler) List(c *gin.Context) {
	query := persistence.ListQuery{
		Search:  strings.TrimSpace(c.Query("search")),
		Filters: c.QueryMap("filters"),
	}
	// Non-numeric paging input falls back to the defaults.
	if n, err := strconv.Atoi(c.Query("page_number")); err == nil {
		query.PageNumber = n
	}
	if n, err := strconv.Atoi(c.Query("page_size")); err == nil {
		query.PageSize = n
	}

	result, err := h.store.List(c.Request.Context(), c.Param("model_name"), query)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
