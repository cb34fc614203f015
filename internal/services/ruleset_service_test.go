package services

import (
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/aegisrules/aegis/internal/models"
	"github.com/aegisrules/aegis/internal/paging"
)

const validDocstoreSource = "rules_version = '2';\n" +
	"service aegis.docstore {\n" +
	"  match /databases/{db}/documents {\n" +
	"    allow read: if true;\n" +
	"  }\n" +
	"}\n"

func setupRulesetTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	require.NoError(t, err)

	err = db.AutoMigrate(&models.Ruleset{}, &models.RulesetFile{}, &models.Release{}, &models.Notification{})
	require.NoError(t, err)

	return db
}

func newTestRulesetService(db *gorm.DB) *RulesetService {
	return NewRulesetService(db, paging.NewCodec("test-secret"), 0, 0)
}

func mustCreateRuleset(t *testing.T, svc *RulesetService, project string) *models.Ruleset {
	t.Helper()
	ruleset, err := svc.Create(project, []models.RulesetFile{
		{Name: "docstore.rules", Content: validDocstoreSource},
	})
	require.NoError(t, err)
	return ruleset
}

func TestRulesetService_Create(t *testing.T) {
	db := setupRulesetTestDB(t)
	svc := newTestRulesetService(db)

	ruleset, err := svc.Create("demo", []models.RulesetFile{
		{Name: "one.rules", Content: validDocstoreSource},
		{Name: "two.rules", Content: "service aegis.blobstore {\n  allow read;\n}\n"},
	})
	require.NoError(t, err)

	assert.Regexp(t, regexp.MustCompile(`^[0-9a-zA-Z-]+$`), ruleset.Name)
	assert.False(t, ruleset.CreatedAt.IsZero())

	// Files come back in submission order
	got, err := svc.Get("demo", ruleset.Name)
	require.NoError(t, err)
	require.Len(t, got.Files, 2)
	assert.Equal(t, "one.rules", got.Files[0].Name)
	assert.Equal(t, "two.rules", got.Files[1].Name)
	assert.Equal(t, validDocstoreSource, got.Files[0].Content)
}

func TestRulesetService_Create_Validation(t *testing.T) {
	db := setupRulesetTestDB(t)
	svc := newTestRulesetService(db)

	// No files
	_, err := svc.Create("demo", nil)
	assert.ErrorIs(t, err, ErrInvalidRuleset)

	// Empty file name
	_, err = svc.Create("demo", []models.RulesetFile{{Name: " ", Content: validDocstoreSource}})
	assert.ErrorIs(t, err, ErrInvalidRuleset)

	// Duplicate file names
	_, err = svc.Create("demo", []models.RulesetFile{
		{Name: "a.rules", Content: validDocstoreSource},
		{Name: "a.rules", Content: validDocstoreSource},
	})
	assert.ErrorIs(t, err, ErrInvalidRuleset)

	// Structurally broken source
	_, err = svc.Create("demo", []models.RulesetFile{{Name: "bad.rules", Content: "allow read"}})
	assert.ErrorIs(t, err, ErrInvalidRuleset)
	assert.Contains(t, err.Error(), "missing service declaration")

	// Empty content
	_, err = svc.Create("demo", []models.RulesetFile{{Name: "empty.rules", Content: ""}})
	assert.ErrorIs(t, err, ErrInvalidRuleset)

	// Nothing was stored
	var count int64
	db.Model(&models.Ruleset{}).Count(&count)
	assert.Equal(t, int64(0), count)
}

func TestRulesetService_Create_SizeLimit(t *testing.T) {
	db := setupRulesetTestDB(t)
	svc := NewRulesetService(db, paging.NewCodec("test-secret"), 0, 64)

	big := "service aegis.docstore {\n  // " + strings.Repeat("x", 100) + "\n}\n"
	_, err := svc.Create("demo", []models.RulesetFile{{Name: "big.rules", Content: big}})
	assert.ErrorIs(t, err, ErrInvalidRuleset)
	assert.Contains(t, err.Error(), "exceeds")
}

func TestRulesetService_Create_Quota(t *testing.T) {
	db := setupRulesetTestDB(t)
	svc := NewRulesetService(db, paging.NewCodec("test-secret"), 2, 0)

	mustCreateRuleset(t, svc, "demo")
	mustCreateRuleset(t, svc, "demo")

	_, err := svc.Create("demo", []models.RulesetFile{{Name: "f.rules", Content: validDocstoreSource}})
	assert.ErrorIs(t, err, ErrQuotaExceeded)

	// Other projects are unaffected
	mustCreateRuleset(t, svc, "other")
}

func TestRulesetService_Get_NotFound(t *testing.T) {
	db := setupRulesetTestDB(t)
	svc := newTestRulesetService(db)

	_, err := svc.Get("demo", "no-such-ruleset")
	assert.ErrorIs(t, err, ErrRulesetNotFound)

	// Same name in another project is invisible
	ruleset := mustCreateRuleset(t, svc, "demo")
	_, err = svc.Get("other", ruleset.Name)
	assert.ErrorIs(t, err, ErrRulesetNotFound)
}

func TestRulesetService_Delete(t *testing.T) {
	db := setupRulesetTestDB(t)
	svc := newTestRulesetService(db)

	ruleset := mustCreateRuleset(t, svc, "demo")

	err := svc.Delete("demo", ruleset.Name)
	require.NoError(t, err)

	_, err = svc.Get("demo", ruleset.Name)
	assert.ErrorIs(t, err, ErrRulesetNotFound)

	// Files are gone too
	var files int64
	db.Model(&models.RulesetFile{}).Count(&files)
	assert.Equal(t, int64(0), files)

	// Second delete reports not found
	err = svc.Delete("demo", ruleset.Name)
	assert.ErrorIs(t, err, ErrRulesetNotFound)
}

func TestRulesetService_Delete_InUse(t *testing.T) {
	db := setupRulesetTestDB(t)
	svc := newTestRulesetService(db)
	releases := NewReleaseService(db, nil)

	ruleset := mustCreateRuleset(t, svc, "demo")
	_, err := releases.Upsert("demo", models.ReleaseDocstore, ruleset.Name)
	require.NoError(t, err)

	err = svc.Delete("demo", ruleset.Name)
	assert.ErrorIs(t, err, ErrRulesetInUse)

	// Still present
	_, err = svc.Get("demo", ruleset.Name)
	assert.NoError(t, err)
}

func TestRulesetService_List_Pagination(t *testing.T) {
	db := setupRulesetTestDB(t)
	svc := newTestRulesetService(db)

	created := make(map[string]bool)
	for i := 0; i < 5; i++ {
		created[mustCreateRuleset(t, svc, "demo").Name] = true
	}
	mustCreateRuleset(t, svc, "other")

	walked := make(map[string]bool)
	var prev string
	token := ""
	pages := 0
	for {
		page, next, err := svc.List("demo", 2, token)
		require.NoError(t, err)
		pages++
		for _, r := range page {
			assert.Greater(t, r.Name, prev, "names must be ascending")
			prev = r.Name
			assert.False(t, walked[r.Name], "ruleset %s listed twice", r.Name)
			walked[r.Name] = true
		}
		if next == "" {
			break
		}
		token = next
	}

	assert.Equal(t, 3, pages)
	assert.Equal(t, created, walked)
}

func TestRulesetService_List_SnapshotHidesNewRulesets(t *testing.T) {
	db := setupRulesetTestDB(t)
	svc := newTestRulesetService(db)

	initial := make(map[string]bool)
	for i := 0; i < 4; i++ {
		initial[mustCreateRuleset(t, svc, "demo").Name] = true
	}

	page, token, err := svc.List("demo", 2, "")
	require.NoError(t, err)
	require.Len(t, page, 2)
	require.NotEmpty(t, token)

	// A ruleset created mid-walk must not leak into later pages.
	mustCreateRuleset(t, svc, "demo")

	walked := make(map[string]bool)
	for _, r := range page {
		walked[r.Name] = true
	}
	for token != "" {
		var next []models.Ruleset
		next, token, err = svc.List("demo", 2, token)
		require.NoError(t, err)
		for _, r := range next {
			walked[r.Name] = true
		}
	}

	assert.Equal(t, initial, walked)
}

func TestRulesetService_List_InvalidToken(t *testing.T) {
	db := setupRulesetTestDB(t)
	svc := newTestRulesetService(db)

	_, _, err := svc.List("demo", 10, "garbage")
	assert.ErrorIs(t, err, paging.ErrInvalidToken)

	// Tokens are project bound
	mustCreateRuleset(t, svc, "demo")
	for i := 0; i < 3; i++ {
		mustCreateRuleset(t, svc, "demo")
	}
	_, token, err := svc.List("demo", 2, "")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	_, _, err = svc.List("other", 2, token)
	assert.ErrorIs(t, err, paging.ErrInvalidToken)
}
