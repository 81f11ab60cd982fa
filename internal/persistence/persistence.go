// Package persistence implements the generic create/read/update/delete/list
// surface parameterized by entity name. Entity names resolve through the
// registry; payloads validate against the mode-specific schemas before any
// storage call runs. Uniqueness violations map to duplicate_key; every other
// storage failure propagates unchanged.
package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/backoffice-kit/backoffice/internal/apperrors"
	"github.com/backoffice-kit/backoffice/internal/db"
	"github.com/backoffice-kit/backoffice/internal/registry"
	"github.com/backoffice-kit/backoffice/internal/security"
	"github.com/backoffice-kit/backoffice/internal/settings"
	"github.com/backoffice-kit/backoffice/internal/validation"
)

// Record identifies a persistable record.
type Record interface {
	GetID() string
	SetID(id string)
}

// CredentialHolder is implemented by records carrying a password hash. The
// façade owns hashing on the write path and scrubbing on the read path.
type CredentialHolder interface {
	CredentialHash() string
	SetCredentialHash(hash string)
}

// SlugDeriver is implemented by records with a derived slug field.
type SlugDeriver interface {
	RefreshSlug()
}

// Defaulter is implemented by records with creation-time defaults.
type Defaulter interface {
	ApplyDefaults()
}

// Facade executes generic persistence operations against the registered
// entities. It holds no per-call state and is safe for concurrent use.
type Facade struct {
	conn            *gorm.DB
	registry        *registry.Registry
	defaultPageSize int
}

// New constructs a Facade.
func New(conn *gorm.DB, reg *registry.Registry, defaultPageSize int) *Facade {
	if defaultPageSize <= 0 {
		defaultPageSize = 10
	}
	return &Facade{conn: conn, registry: reg, defaultPageSize: defaultPageSize}
}

// newUUID generates record ids; a variable so tests can pin it.
var newUUID = uuid.NewString

// Create validates data under the create schema and inserts a new record.
// The returned record carries the server-generated id and has its credential
// scrubbed.
func (f *Facade) Create(ctx context.Context, entity string, data map[string]any) (any, error) {
	handle, err := f.registry.Resolve(entity)
	if err != nil {
		return nil, err
	}
	if errValidate := validation.Validate(entity, validation.ModeCreate, data); errValidate != nil {
		return nil, errValidate
	}

	record := handle.NewRecord()
	if errDecode := decodeInto(data, record); errDecode != nil {
		return nil, errDecode
	}
	rec, ok := record.(Record)
	if !ok {
		return nil, fmt.Errorf("persistence: entity %q record does not implement Record", entity)
	}
	if rec.GetID() == "" {
		rec.SetID(newUUID())
	}
	if holder, ok := record.(CredentialHolder); ok {
		if password, ok := data["password"].(string); ok && password != "" {
			hash, errHash := security.HashPassword(password)
			if errHash != nil {
				return nil, errHash
			}
			holder.SetCredentialHash(hash)
		}
	}
	if slugger, ok := record.(SlugDeriver); ok {
		slugger.RefreshSlug()
	}
	if defaulter, ok := record.(Defaulter); ok {
		defaulter.ApplyDefaults()
	}

	log.WithFields(log.Fields{"entity": handle.Name, "id": rec.GetID()}).Info("persistence: create")

	if errCreate := f.conn.WithContext(ctx).Create(record).Error; errCreate != nil {
		if db.IsDuplicateKeyError(errCreate) {
			return nil, apperrors.DuplicateKey()
		}
		return nil, errCreate
	}
	scrubRecord(record)
	return record, nil
}

// GetOption adjusts a Get call.
type GetOption func(*getOptions)

type getOptions struct {
	withCredential bool
}

// WithCredential keeps the credential hash on the returned record. Only the
// login path requests it.
func WithCredential() GetOption {
	return func(o *getOptions) { o.withCredential = true }
}

// Get fetches a record by id, failing not_found when absent. The credential
// field is scrubbed unless explicitly projected.
func (f *Facade) Get(ctx context.Context, entity, id string, opts ...GetOption) (any, error) {
	handle, err := f.registry.Resolve(entity)
	if err != nil {
		return nil, err
	}
	var options getOptions
	for _, opt := range opts {
		opt(&options)
	}

	record := handle.NewRecord()
	if errFind := f.conn.WithContext(ctx).First(record, "id = ?", id).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound()
		}
		return nil, errFind
	}
	if !options.withCredential {
		scrubRecord(record)
	}
	return record, nil
}

// UpdateInput names the record and mode for an update. Fields holds only the
// attributes to change; absent fields are left untouched.
type UpdateInput struct {
	ID     string
	Mode   validation.Mode
	Fields map[string]any
}

// Update validates Fields under the input mode and applies them by id. Mode
// update_password re-hashes the new password before persistence; changing the
// slug source re-derives the slug. Returns the post-update record, credential
// scrubbed.
func (f *Facade) Update(ctx context.Context, entity string, input UpdateInput) (any, error) {
	handle, err := f.registry.Resolve(entity)
	if err != nil {
		return nil, err
	}
	switch input.Mode {
	case validation.ModeUpdate, validation.ModeUpdatePassword, validation.ModeUpdateAvatar:
	case "":
		input.Mode = validation.ModeUpdate
	default:
		return nil, fmt.Errorf("persistence: mode %q is not an update mode", input.Mode)
	}
	if errValidate := validation.Validate(entity, input.Mode, input.Fields); errValidate != nil {
		return nil, errValidate
	}

	updates := make(map[string]any, len(input.Fields)+1)
	for field, value := range input.Fields {
		updates[field] = value
	}
	updates["updated_at"] = time.Now().UTC()
	if input.Mode == validation.ModeUpdatePassword {
		password, _ := updates["password"].(string)
		hash, errHash := security.HashPassword(password)
		if errHash != nil {
			return nil, errHash
		}
		updates["password"] = hash
	}
	if handle.DerivedUpdates != nil {
		for column, value := range handle.DerivedUpdates(input.Fields) {
			updates[column] = value
		}
	}

	log.WithFields(log.Fields{"entity": handle.Name, "id": input.ID, "mode": input.Mode}).Info("persistence: update")

	res := handle.Scoped(f.conn.WithContext(ctx)).Where("id = ?", input.ID).Updates(updates)
	if res.Error != nil {
		if db.IsDuplicateKeyError(res.Error) {
			return nil, apperrors.DuplicateKey()
		}
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, apperrors.NotFound()
	}
	return f.Get(ctx, entity, input.ID)
}

// Delete removes a record by id and returns its state immediately before
// removal.
func (f *Facade) Delete(ctx context.Context, entity, id string) (any, error) {
	handle, err := f.registry.Resolve(entity)
	if err != nil {
		return nil, err
	}
	record, err := f.Get(ctx, entity, id)
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{"entity": handle.Name, "id": id}).Info("persistence: delete")

	res := f.conn.WithContext(ctx).Where("id = ?", id).Delete(handle.NewRecord())
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, apperrors.NotFound()
	}
	return record, nil
}

// ListQuery carries the search, filter and paging parameters of a listing.
type ListQuery struct {
	Search     string
	Filters    map[string]string
	PageNumber int
	PageSize   int
}

// Pagination describes the result window of a listing.
type Pagination struct {
	Count      int64 `json:"count"`
	PageNumber int   `json:"page_number"`
	PageSize   int   `json:"page_size"`
}

// ListResult pairs one page of records with its pagination envelope.
type ListResult struct {
	Pagination Pagination `json:"pagination"`
	Results    any        `json:"results"`
}

// List runs a filtered, paginated search. The WHERE clause is the AND of an
// OR across the entity's searchable attributes (case-insensitive substring
// match on Search, omitted entirely when Search is empty) and the exact-match
// Filters. Count and page run concurrently; Count ignores paging.
func (f *Facade) List(ctx context.Context, entity string, query ListQuery) (ListResult, error) {
	handle, err := f.registry.Resolve(entity)
	if err != nil {
		return ListResult{}, err
	}
	if errValidate := validation.Validate(entity, validation.ModeListing, listingPayload(query)); errValidate != nil {
		return ListResult{}, errValidate
	}

	pageNumber := query.PageNumber
	if pageNumber <= 0 {
		pageNumber = 1
	}
	pageSize := query.PageSize
	if pageSize <= 0 {
		pageSize = settings.DefaultPageSize(f.defaultPageSize)
	}

	build := func() *gorm.DB {
		q := handle.Scoped(f.conn.WithContext(ctx))
		if query.Search != "" {
			pattern := db.NormalizeLikePattern(f.conn, "%"+db.EscapeLikePattern(query.Search)+"%")
			var clause *gorm.DB
			for _, attr := range handle.SearchableAttributes {
				expr := db.CaseInsensitiveLikeExpr(f.conn, attr)
				if clause == nil {
					clause = f.conn.Where(expr, pattern)
				} else {
					clause = clause.Or(expr, pattern)
				}
			}
			if clause != nil {
				q = q.Where(clause)
			}
		}
		for field, value := range query.Filters {
			q = q.Where(fmt.Sprintf("%s = ?", field), value)
		}
		return q
	}

	log.WithFields(log.Fields{"entity": handle.Name, "search": query.Search}).Info("persistence: listing")

	var count int64
	results := handle.NewSlice()
	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		return build().WithContext(groupCtx).Count(&count).Error
	})
	group.Go(func() error {
		return build().WithContext(groupCtx).
			Offset((pageNumber - 1) * pageSize).
			Limit(pageSize).
			Order("created_at DESC").
			Find(results).Error
	})
	if errWait := group.Wait(); errWait != nil {
		return ListResult{}, errWait
	}

	scrubSlice(results)
	return ListResult{
		Pagination: Pagination{Count: count, PageNumber: pageNumber, PageSize: pageSize},
		Results:    reflect.ValueOf(results).Elem().Interface(),
	}, nil
}

// Truncate removes every record of an entity. Test and tooling helper.
func (f *Facade) Truncate(ctx context.Context, entity string) error {
	handle, err := f.registry.Resolve(entity)
	if err != nil {
		return err
	}
	return f.conn.WithContext(ctx).
		Session(&gorm.Session{AllowGlobalUpdate: true}).
		Delete(handle.NewRecord()).Error
}

// TruncateAll removes every record of every registered entity.
func (f *Facade) TruncateAll(ctx context.Context) error {
	for _, name := range f.registry.Names() {
		if errTruncate := f.Truncate(ctx, name); errTruncate != nil {
			return errTruncate
		}
	}
	return nil
}

// listingPayload converts a ListQuery into the map shape the listing schema
// validates.
func listingPayload(query ListQuery) map[string]any {
	payload := map[string]any{}
	if query.Search != "" {
		payload["search"] = query.Search
	}
	if len(query.Filters) > 0 {
		payload["filters"] = query.Filters
	}
	if query.PageNumber > 0 {
		payload["page_number"] = query.PageNumber
	}
	if query.PageSize > 0 {
		payload["page_size"] = query.PageSize
	}
	return payload
}

// decodeInto copies a payload map into a typed record through JSON. Fields
// tagged json:"-" (the credential) never pass through this path.
func decodeInto(data map[string]any, record any) error {
	raw, errMarshal := json.Marshal(data)
	if errMarshal != nil {
		return apperrors.ValidationError(nil)
	}
	if errUnmarshal := json.Unmarshal(raw, record); errUnmarshal != nil {
		return apperrors.ValidationError(nil)
	}
	return nil
}

// scrubRecord clears the credential hash from a record before it leaves the
// façade.
func scrubRecord(record any) {
	if holder, ok := record.(CredentialHolder); ok {
		holder.SetCredentialHash("")
	}
}

// scrubSlice clears the credential hash from every element of a record slice.
func scrubSlice(slice any) {
	v := reflect.ValueOf(slice)
	if v.Kind() != reflect.Pointer {
		return
	}
	v = v.Elem()
	if v.Kind() != reflect.Slice {
		return
	}
	for i := 0; i < v.Len(); i++ {
		element := v.Index(i)
		if !element.CanAddr() {
			continue
		}
		if holder, ok := element.Addr().Interface().(CredentialHolder); ok {
			holder.SetCredentialHash("")
		}
	}
}
