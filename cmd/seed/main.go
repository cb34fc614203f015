package main

import (
	"fmt"
	"log"
	"os"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/aegisrules/aegis/internal/models"
)

const seedDocstoreSource = `rules_version = '2';
service aegis.docstore {
  match /databases/{database}/documents {
    match /{document=**} {
      allow read, write: if false;
    }
  }
}
`

const seedBlobstoreSource = `rules_version = '2';
service aegis.blobstore {
  match /b/{bucket}/o {
    match /{allPaths=**} {
      allow read, write: if false;
    }
  }
}
`

func main() {
	dbPath := os.Getenv("AEGIS_DB_PATH")
	if dbPath == "" {
		dbPath = "./data/aegis.db"
	}
	project := os.Getenv("AEGIS_SEED_PROJECT")
	if project == "" {
		project = "demo"
	}

	// Connect to database
	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	// Auto migrate
	if err := db.AutoMigrate(
		&models.Ruleset{},
		&models.RulesetFile{},
		&models.Release{},
		&models.Notification{},
	); err != nil {
		log.Fatal("Failed to migrate database:", err)
	}

	fmt.Println("✓ Database migrated successfully")

	// Seed one locked-down ruleset per engine
	rulesets := []models.Ruleset{
		{
			ProjectID: project,
			Name:      "seed-docstore-default",
			Files: []models.RulesetFile{
				{Name: "docstore.rules", Content: seedDocstoreSource, Ordinal: 0},
			},
		},
		{
			ProjectID: project,
			Name:      "seed-blobstore-default",
			Files: []models.RulesetFile{
				{Name: "blobstore.rules", Content: seedBlobstoreSource, Ordinal: 0},
			},
		},
	}

	for _, ruleset := range rulesets {
		var existing models.Ruleset
		if err := db.Where("project_id = ? AND name = ?", ruleset.ProjectID, ruleset.Name).
			First(&existing).Error; err == nil {
			fmt.Printf("  Ruleset already exists: %s\n", ruleset.Name)
			continue
		}
		if err := db.Create(&ruleset).Error; err != nil {
			log.Printf("Failed to seed ruleset %s: %v", ruleset.Name, err)
			continue
		}
		fmt.Printf("✓ Created ruleset: %s (%d file)\n", ruleset.Name, len(ruleset.Files))
	}

	// Seed the engine release slots pointing at the defaults
	releases := []models.Release{
		{ProjectID: project, Name: models.ReleaseDocstore, RulesetName: "seed-docstore-default"},
		{ProjectID: project, Name: models.ReleaseBlobstore, RulesetName: "seed-blobstore-default"},
	}

	for _, release := range releases {
		result := db.Where("project_id = ? AND name = ?", release.ProjectID, release.Name).FirstOrCreate(&release)
		if result.Error != nil {
			log.Printf("Failed to seed release %s: %v", release.Name, result.Error)
		} else if result.RowsAffected > 0 {
			fmt.Printf("✓ Created release: %s -> %s\n", release.Name, release.RulesetName)
		} else {
			fmt.Printf("  Release already exists: %s\n", release.Name)
		}
	}

	fmt.Println("\n✓ Database seeding completed successfully!")
	fmt.Printf("  Project %q now serves locked-down defaults for both engines.\n", project)
}
