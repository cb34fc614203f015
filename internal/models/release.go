package models

import (
	"time"
)

// Well-known release slots. Each backing service reads its active ruleset
// from a fixed release name, so pushing a new ruleset live is a release
// update rather than a ruleset mutation.
const (
	ReleaseDocstore  = "aegis.docstore"
	ReleaseBlobstore = "aegis.blobstore"
)

// Release binds a named deployment slot to the ruleset currently enforced
// for it. A project has at most one release per name.
type Release struct {
	ID          uint      `json:"-" gorm:"primaryKey"`
	ProjectID   string    `json:"project_id" gorm:"uniqueIndex:idx_releases_project_name"`
	Name        string    `json:"name" gorm:"uniqueIndex:idx_releases_project_name"`
	RulesetName string    `json:"ruleset_name" gorm:"index"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
