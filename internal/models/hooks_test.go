package models

import (
	"regexp"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open in-memory db: %v", err)
	}
	if err := db.AutoMigrate(&Ruleset{}, &RulesetFile{}, &Release{}, &Notification{}); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	return db
}

func TestRuleset_BeforeCreate(t *testing.T) {
	db := setupTestDB(t)
	rs := &Ruleset{
		ProjectID: "demo",
		Files:     []RulesetFile{{Name: "docstore.rules", Content: "service aegis.docstore {}"}},
	}
	if err := db.Create(rs).Error; err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if rs.Name == "" {
		t.Fatalf("expected Name to be populated by BeforeCreate")
	}
	if !regexp.MustCompile(`^[0-9a-zA-Z-]+$`).MatchString(rs.Name) {
		t.Fatalf("generated name %q contains invalid characters", rs.Name)
	}
	if rs.CreatedAt.IsZero() {
		t.Fatalf("expected CreatedAt to be populated on create")
	}
}

func TestRuleset_KeepsExplicitName(t *testing.T) {
	db := setupTestDB(t)
	rs := &Ruleset{
		ProjectID: "demo",
		Name:      "pinned-name",
	}
	if err := db.Create(rs).Error; err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if rs.Name != "pinned-name" {
		t.Fatalf("expected explicit name to survive, got %q", rs.Name)
	}
}

func TestNotification_BeforeCreate(t *testing.T) {
	db := setupTestDB(t)
	n := &Notification{
		Type:      NotificationTypeInfo,
		ProjectID: "demo",
		Title:     "release updated",
	}
	if err := db.Create(n).Error; err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if n.ID == "" {
		t.Fatalf("expected ID to be populated by BeforeCreate")
	}
}
