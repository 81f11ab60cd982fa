package persistence

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"github.com/backoffice-kit/backoffice/internal/apperrors"
	dbutil "github.com/backoffice-kit/backoffice/internal/db"
	"github.com/backoffice-kit/backoffice/internal/models"
	"github.com/backoffice-kit/backoffice/internal/registry"
	"github.com/backoffice-kit/backoffice/internal/security"
	"github.com/backoffice-kit/backoffice/internal/validation"
)

func setupFacade(t *testing.T) *Facade {
	t.Helper()
	dsn := fmt.Sprintf("file:persistence_%d?mode=memory&cache=shared", time.Now().UnixNano())
	conn, errOpen := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if errOpen != nil {
		t.Fatalf("open db: %v", errOpen)
	}
	if errMigrate := dbutil.Migrate(conn); errMigrate != nil {
		t.Fatalf("migrate db: %v", errMigrate)
	}
	return New(conn, registry.Default(), 10)
}

func adminPayload(overrides map[string]any) map[string]any {
	payload := map[string]any{
		"first_name": "Margaret",
		"last_name":  "Hamilton",
		"email":      "margaret@example.com",
		"username":   "mhamilton",
		"password":   "apollo11",
	}
	for k, v := range overrides {
		payload[k] = v
	}
	return payload
}

func createAdmin(t *testing.T, f *Facade, overrides map[string]any) *models.Admin {
	t.Helper()
	record, err := f.Create(context.Background(), "admin", adminPayload(overrides))
	if err != nil {
		t.Fatalf("create admin: %v", err)
	}
	admin, ok := record.(*models.Admin)
	if !ok {
		t.Fatalf("expected *models.Admin, got %T", record)
	}
	return admin
}

func TestCreateThenGetRoundTrips(t *testing.T) {
	f := setupFacade(t)
	admin := createAdmin(t, f, nil)

	if admin.ID == "" {
		t.Fatal("expected server-generated id")
	}
	if admin.Password != "" {
		t.Fatal("created record must not expose the credential")
	}
	if admin.Slug != "mhamilton" {
		t.Fatalf("expected derived slug, got %q", admin.Slug)
	}
	if admin.Status != models.StatusActive {
		t.Fatalf("expected default status active, got %q", admin.Status)
	}

	got, err := f.Get(context.Background(), "admin", admin.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	fetched := got.(*models.Admin)
	if fetched.Email != "margaret@example.com" || fetched.Username != "mhamilton" ||
		fetched.FirstName != "Margaret" || fetched.LastName != "Hamilton" {
		t.Fatalf("fetched record does not match input: %+v", fetched)
	}
	if fetched.Password != "" {
		t.Fatal("fetched record must not expose the credential")
	}
}

func TestCreateStoresHashedCredential(t *testing.T) {
	f := setupFacade(t)
	admin := createAdmin(t, f, nil)

	got, err := f.Get(context.Background(), "admin", admin.ID, WithCredential())
	if err != nil {
		t.Fatalf("get with credential: %v", err)
	}
	stored := got.(*models.Admin)
	if stored.Password == "" || stored.Password == "apollo11" {
		t.Fatalf("expected hashed credential, got %q", stored.Password)
	}
	if !security.CheckPassword(stored.Password, "apollo11") {
		t.Fatal("stored hash must verify the original password")
	}
}

func TestCreateUnknownEntity(t *testing.T) {
	f := setupFacade(t)
	_, err := f.Create(context.Background(), "vehicle", adminPayload(nil))
	if !errors.Is(err, apperrors.InvalidModel("vehicle")) {
		t.Fatalf("expected invalid_model, got %v", err)
	}
}

func TestCreateInvalidPayload(t *testing.T) {
	f := setupFacade(t)
	_, err := f.Create(context.Background(), "admin", map[string]any{"first_name": "x"})
	if !errors.Is(err, apperrors.ValidationError(nil)) {
		t.Fatalf("expected validation_error, got %v", err)
	}
}

func TestCreateDuplicateEmailAndUsername(t *testing.T) {
	f := setupFacade(t)
	createAdmin(t, f, nil)

	_, err := f.Create(context.Background(), "admin", adminPayload(map[string]any{"username": "other"}))
	if !errors.Is(err, apperrors.DuplicateKey()) {
		t.Fatalf("duplicate email: expected duplicate_key, got %v", err)
	}
	_, err = f.Create(context.Background(), "admin", adminPayload(map[string]any{"email": "other@example.com"}))
	if !errors.Is(err, apperrors.DuplicateKey()) {
		t.Fatalf("duplicate username: expected duplicate_key, got %v", err)
	}
}

func TestGetMissingRecord(t *testing.T) {
	f := setupFacade(t)
	_, err := f.Get(context.Background(), "admin", "no-such-id")
	if !errors.Is(err, apperrors.NotFound()) {
		t.Fatalf("expected not_found, got %v", err)
	}
}

func TestUpdateGeneralFields(t *testing.T) {
	f := setupFacade(t)
	admin := createAdmin(t, f, nil)

	updated, err := f.Update(context.Background(), "admin", UpdateInput{
		ID:     admin.ID,
		Mode:   validation.ModeUpdate,
		Fields: map[string]any{"first_name": "Peggy", "status": "inactive"},
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	after := updated.(*models.Admin)
	if after.FirstName != "Peggy" {
		t.Fatalf("expected updated first name, got %q", after.FirstName)
	}
	if after.Status != models.StatusInactive {
		t.Fatalf("expected status inactive, got %q", after.Status)
	}
	if after.LastName != "Hamilton" {
		t.Fatalf("absent fields must stay untouched, got %q", after.LastName)
	}
	if after.Password != "" {
		t.Fatal("updated record must not expose the credential")
	}
}

func TestUpdateUsernameRederivesSlug(t *testing.T) {
	f := setupFacade(t)
	admin := createAdmin(t, f, nil)

	updated, err := f.Update(context.Background(), "admin", UpdateInput{
		ID:     admin.ID,
		Fields: map[string]any{"username": "NewHandle9"},
	})
	if err != nil {
		t.Fatalf("update username: %v", err)
	}
	after := updated.(*models.Admin)
	if after.Slug != "newhandle9" {
		t.Fatalf("expected re-derived slug, got %q", after.Slug)
	}
}

func TestUpdateMissingRecord(t *testing.T) {
	f := setupFacade(t)
	_, err := f.Update(context.Background(), "admin", UpdateInput{
		ID:     "no-such-id",
		Fields: map[string]any{"first_name": "Valid"},
	})
	if !errors.Is(err, apperrors.NotFound()) {
		t.Fatalf("expected not_found, got %v", err)
	}
}

func TestUpdateDuplicateKey(t *testing.T) {
	f := setupFacade(t)
	createAdmin(t, f, nil)
	other := createAdmin(t, f, map[string]any{"email": "other@example.com", "username": "other"})

	_, err := f.Update(context.Background(), "admin", UpdateInput{
		ID:     other.ID,
		Fields: map[string]any{"email": "margaret@example.com"},
	})
	if !errors.Is(err, apperrors.DuplicateKey()) {
		t.Fatalf("expected duplicate_key, got %v", err)
	}
}

func TestUpdatePasswordRehashes(t *testing.T) {
	f := setupFacade(t)
	admin := createAdmin(t, f, nil)

	if _, err := f.Update(context.Background(), "admin", UpdateInput{
		ID:     admin.ID,
		Mode:   validation.ModeUpdatePassword,
		Fields: map[string]any{"password": "newsecret"},
	}); err != nil {
		t.Fatalf("update password: %v", err)
	}

	got, err := f.Get(context.Background(), "admin", admin.ID, WithCredential())
	if err != nil {
		t.Fatalf("get with credential: %v", err)
	}
	stored := got.(*models.Admin)
	if stored.Password == "newsecret" {
		t.Fatal("password must be hashed, not stored as plaintext")
	}
	if !security.CheckPassword(stored.Password, "newsecret") {
		t.Fatal("new password must verify")
	}
	if security.CheckPassword(stored.Password, "apollo11") {
		t.Fatal("old password must no longer verify")
	}
}

func TestUpdateRejectsNonUpdateMode(t *testing.T) {
	f := setupFacade(t)
	admin := createAdmin(t, f, nil)

	_, err := f.Update(context.Background(), "admin", UpdateInput{
		ID:     admin.ID,
		Mode:   validation.ModeCreate,
		Fields: map[string]any{},
	})
	if err == nil {
		t.Fatal("expected error for non-update mode")
	}
	if apperrors.AsError(err) != nil {
		t.Fatalf("mode misuse must not be user-facing, got %v", err)
	}
}

func TestDeleteReturnsFinalState(t *testing.T) {
	f := setupFacade(t)
	admin := createAdmin(t, f, nil)

	deleted, err := f.Delete(context.Background(), "admin", admin.ID)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	final := deleted.(*models.Admin)
	if final.ID != admin.ID || final.Email != "margaret@example.com" {
		t.Fatalf("delete must return the pre-removal state, got %+v", final)
	}

	if _, err := f.Get(context.Background(), "admin", admin.ID); !errors.Is(err, apperrors.NotFound()) {
		t.Fatalf("expected not_found after delete, got %v", err)
	}
	if _, err := f.Delete(context.Background(), "admin", admin.ID); !errors.Is(err, apperrors.NotFound()) {
		t.Fatalf("expected not_found for second delete, got %v", err)
	}
}

func seedAdmins(t *testing.T, f *Facade, n int) []*models.Admin {
	t.Helper()
	admins := make([]*models.Admin, 0, n)
	for i := 0; i < n; i++ {
		admins = append(admins, createAdmin(t, f, map[string]any{
			"email":    fmt.Sprintf("admin%d@example.com", i),
			"username": fmt.Sprintf("admin%d", i),
		}))
	}
	return admins
}

func TestListFiltersExactMatch(t *testing.T) {
	f := setupFacade(t)
	seedAdmins(t, f, 3)

	result, err := f.List(context.Background(), "admin", ListQuery{
		Filters: map[string]string{"email": "admin1@example.com"},
	})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if result.Pagination.Count != 1 {
		t.Fatalf("expected count 1, got %d", result.Pagination.Count)
	}
	rows := result.Results.([]models.Admin)
	if len(rows) != 1 || rows[0].Email != "admin1@example.com" {
		t.Fatalf("expected the single matching record, got %+v", rows)
	}
	if rows[0].Password != "" {
		t.Fatal("listed records must not expose the credential")
	}
}

func TestListSearchMatchesUsername(t *testing.T) {
	f := setupFacade(t)
	seedAdmins(t, f, 3)

	result, err := f.List(context.Background(), "admin", ListQuery{Search: "ADMIN2"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	rows := result.Results.([]models.Admin)
	found := false
	for _, row := range rows {
		if row.Username == "admin2" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected admin2 among results, got %+v", rows)
	}
}

func TestListEmptySearchMatchesAll(t *testing.T) {
	f := setupFacade(t)
	seedAdmins(t, f, 3)

	result, err := f.List(context.Background(), "admin", ListQuery{Search: ""})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if result.Pagination.Count != 3 {
		t.Fatalf("empty search must not filter; expected count 3, got %d", result.Pagination.Count)
	}
}

func TestListCountIgnoresPaging(t *testing.T) {
	f := setupFacade(t)
	seedAdmins(t, f, 5)

	result, err := f.List(context.Background(), "admin", ListQuery{PageNumber: 2, PageSize: 2})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if result.Pagination.Count != 5 {
		t.Fatalf("count must ignore paging; expected 5, got %d", result.Pagination.Count)
	}
	rows := result.Results.([]models.Admin)
	if len(rows) != 2 {
		t.Fatalf("expected page of 2, got %d", len(rows))
	}
	if result.Pagination.PageNumber != 2 || result.Pagination.PageSize != 2 {
		t.Fatalf("pagination echo mismatch: %+v", result.Pagination)
	}
}

func TestListDefaultsPageParameters(t *testing.T) {
	f := setupFacade(t)
	seedAdmins(t, f, 2)

	result, err := f.List(context.Background(), "admin", ListQuery{PageNumber: -3, PageSize: 0})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if result.Pagination.PageNumber != 1 {
		t.Fatalf("expected page number coerced to 1, got %d", result.Pagination.PageNumber)
	}
	if result.Pagination.PageSize != 10 {
		t.Fatalf("expected configured default page size 10, got %d", result.Pagination.PageSize)
	}
}

func TestListSearchCombinesWithFilters(t *testing.T) {
	f := setupFacade(t)
	seedAdmins(t, f, 3)
	if _, err := f.Update(context.Background(), "admin", UpdateInput{
		ID:     mustFindByUsername(t, f, "admin0").ID,
		Fields: map[string]any{"status": "inactive"},
	}); err != nil {
		t.Fatalf("deactivate admin0: %v", err)
	}

	result, err := f.List(context.Background(), "admin", ListQuery{
		Search:  "admin",
		Filters: map[string]string{"status": "active"},
	})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if result.Pagination.Count != 2 {
		t.Fatalf("expected AND of search and filters (2 active), got %d", result.Pagination.Count)
	}
}

func TestListRejectsUnknownFilterField(t *testing.T) {
	f := setupFacade(t)
	_, err := f.List(context.Background(), "admin", ListQuery{
		Filters: map[string]string{"password": "x"},
	})
	if !errors.Is(err, apperrors.ValidationError(nil)) {
		t.Fatalf("expected validation_error for unlisted filter, got %v", err)
	}
}

func TestTruncate(t *testing.T) {
	f := setupFacade(t)
	seedAdmins(t, f, 2)
	if err := f.TruncateAll(context.Background()); err != nil {
		t.Fatalf("truncate all: %v", err)
	}
	result, err := f.List(context.Background(), "admin", ListQuery{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if result.Pagination.Count != 0 {
		t.Fatalf("expected empty table, got %d", result.Pagination.Count)
	}
}

func mustFindByUsername(t *testing.T, f *Facade, username string) *models.Admin {
	t.Helper()
	result, err := f.List(context.Background(), "admin", ListQuery{
		Filters: map[string]string{"username": username},
	})
	if err != nil {
		t.Fatalf("find by username: %v", err)
	}
	rows := result.Results.([]models.Admin)
	if len(rows) != 1 {
		t.Fatalf("expected one %s, got %d", username, len(rows))
	}
	return &rows[0]
}
