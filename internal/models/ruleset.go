package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Ruleset is an immutable, named bundle of rules source files owned by a
// project. Once created its files never change; callers publish changes by
// creating a new ruleset and pointing a release at it.
type Ruleset struct {
	ID        uint          `json:"-" gorm:"primaryKey"`
	ProjectID string        `json:"project_id" gorm:"uniqueIndex:idx_rulesets_project_name;index"`
	Name      string        `json:"name" gorm:"uniqueIndex:idx_rulesets_project_name"`
	CreatedAt time.Time     `json:"created_at" gorm:"index"`
	Files     []RulesetFile `json:"files" gorm:"foreignKey:RulesetID;constraint:OnDelete:CASCADE"`
}

// RulesetFile is one named source file inside a ruleset. Ordinal preserves
// the order files were submitted in.
type RulesetFile struct {
	ID        uint   `json:"-" gorm:"primaryKey"`
	RulesetID uint   `json:"-" gorm:"index"`
	Ordinal   int    `json:"-"`
	Name      string `json:"name"`
	Content   string `json:"content" gorm:"type:text"`
}

func (r *Ruleset) BeforeCreate(tx *gorm.DB) (err error) {
	if r.Name == "" {
		r.Name = uuid.New().String()
	}
	return
}
