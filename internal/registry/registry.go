// Package registry maps entity names to their storage handles. The mapping is
// built once at startup and never mutated, so lookups are safe from any number
// of concurrent callers.
package registry

import (
	"strings"

	"gorm.io/gorm"

	"github.com/backoffice-kit/backoffice/internal/apperrors"
	"github.com/backoffice-kit/backoffice/internal/models"
)

// Handle describes one registered entity: how to allocate its record values
// and which fields free-text search runs against.
type Handle struct {
	// Name is the registered entity name.
	Name string
	// SearchableAttributes lists searchable column names, in match order.
	SearchableAttributes []string
	// NewRecord allocates a pointer to a zero record of the entity's type.
	NewRecord func() any
	// NewSlice allocates a pointer to an empty slice of records.
	NewSlice func() any
	// DerivedUpdates returns extra column updates implied by the validated
	// fields of an update, such as re-deriving a slug when the source field
	// changes. May be nil.
	DerivedUpdates func(fields map[string]any) map[string]any
}

// Registry resolves entity names to handles.
type Registry struct {
	handles map[string]Handle
}

// New builds a registry from the given handles.
func New(handles ...Handle) *Registry {
	byName := make(map[string]Handle, len(handles))
	for _, h := range handles {
		byName[strings.ToLower(strings.TrimSpace(h.Name))] = h
	}
	return &Registry{handles: byName}
}

// Default returns the registry for the current deployment: the admin entity.
func Default() *Registry {
	return New(Handle{
		Name:                 "admin",
		SearchableAttributes: models.AdminSearchableAttributes,
		NewRecord:            func() any { return &models.Admin{} },
		NewSlice:             func() any { return &[]models.Admin{} },
		DerivedUpdates: func(fields map[string]any) map[string]any {
			username, ok := fields["username"].(string)
			if !ok || username == "" {
				return nil
			}
			return map[string]any{"slug": models.DeriveSlug(username)}
		},
	})
}

// Resolve returns the handle for name, or invalid_model carrying the
// offending name when it is unregistered.
func (r *Registry) Resolve(name string) (Handle, error) {
	h, ok := r.handles[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return Handle{}, apperrors.InvalidModel(name)
	}
	return h, nil
}

// SearchableAttributes returns the ordered searchable field names for name.
func (r *Registry) SearchableAttributes(name string) ([]string, error) {
	h, err := r.Resolve(name)
	if err != nil {
		return nil, err
	}
	return h.SearchableAttributes, nil
}

// Names returns every registered entity name.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.handles))
	for name := range r.handles {
		names = append(names, name)
	}
	return names
}

// Scoped returns a query scoped to the entity's model type.
func (h Handle) Scoped(conn *gorm.DB) *gorm.DB {
	return conn.Model(h.NewRecord())
}
