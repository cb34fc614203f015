package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/aegisrules/aegis/internal/metrics"
	"github.com/aegisrules/aegis/internal/models"
	"github.com/aegisrules/aegis/internal/paging"
	"github.com/aegisrules/aegis/internal/rules"
)

var (
	ErrRulesetNotFound = errors.New("ruleset not found")
	ErrRulesetInUse    = errors.New("ruleset is referenced by a release")
	ErrQuotaExceeded   = errors.New("ruleset quota exceeded")
	ErrInvalidRuleset  = errors.New("invalid ruleset")
)

// Listing page sizes. Callers asking for more than MaxPageSize get clamped.
const (
	DefaultPageSize = 100
	MaxPageSize     = 500
)

type RulesetService struct {
	db             *gorm.DB
	codec          *paging.Codec
	quota          int
	maxSourceBytes int
}

// NewRulesetService returns a RulesetService using the provided DB. A quota
// or size limit of zero disables that check.
func NewRulesetService(db *gorm.DB, codec *paging.Codec, quota, maxSourceBytes int) *RulesetService {
	return &RulesetService{db: db, codec: codec, quota: quota, maxSourceBytes: maxSourceBytes}
}

// Create validates the submitted files and stores them as a new immutable
// ruleset. The server picks the name; callers learn it from the result.
func (s *RulesetService) Create(projectID string, files []models.RulesetFile) (*models.Ruleset, error) {
	if err := s.validateFiles(files); err != nil {
		metrics.IncLintRejection()
		return nil, err
	}

	for i := range files {
		files[i].Ordinal = i
	}

	ruleset := &models.Ruleset{ProjectID: projectID, Files: files}
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if s.quota > 0 {
			var count int64
			if err := tx.Model(&models.Ruleset{}).Where("project_id = ?", projectID).Count(&count).Error; err != nil {
				return err
			}
			if count >= int64(s.quota) {
				return ErrQuotaExceeded
			}
		}
		return tx.Create(ruleset).Error
	})
	if err != nil {
		return nil, err
	}

	metrics.IncRulesetCreated()
	return ruleset, nil
}

// Get returns one ruleset with its files in submission order.
func (s *RulesetService) Get(projectID, name string) (*models.Ruleset, error) {
	var ruleset models.Ruleset
	err := s.db.Preload("Files", func(db *gorm.DB) *gorm.DB {
		return db.Order("ordinal ASC")
	}).Where("project_id = ? AND name = ?", projectID, name).First(&ruleset).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRulesetNotFound
		}
		return nil, err
	}
	return &ruleset, nil
}

// Delete removes a ruleset and its files. Rulesets still referenced by a
// release cannot be deleted.
func (s *RulesetService) Delete(projectID, name string) error {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var ruleset models.Ruleset
		if err := tx.Where("project_id = ? AND name = ?", projectID, name).First(&ruleset).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrRulesetNotFound
			}
			return err
		}

		var refs int64
		if err := tx.Model(&models.Release{}).
			Where("project_id = ? AND ruleset_name = ?", projectID, name).
			Count(&refs).Error; err != nil {
			return err
		}
		if refs > 0 {
			return ErrRulesetInUse
		}

		if err := tx.Where("ruleset_id = ?", ruleset.ID).Delete(&models.RulesetFile{}).Error; err != nil {
			return err
		}
		return tx.Delete(&ruleset).Error
	})
	if err != nil {
		return err
	}

	metrics.IncRulesetDeleted()
	return nil
}

// List returns one page of ruleset metadata ordered by name, plus the token
// for the next page when more remain. The first call pins a snapshot time so
// rulesets created while paging never appear mid-walk; every ruleset that
// existed at the snapshot shows up exactly once.
func (s *RulesetService) List(projectID string, pageSize int, pageToken string) ([]models.Ruleset, string, error) {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}

	cursor := paging.Cursor{Project: projectID, Snapshot: time.Now().UTC()}
	if pageToken != "" {
		var err error
		cursor, err = s.codec.Decode(pageToken, projectID)
		if err != nil {
			return nil, "", err
		}
	}

	q := s.db.Where("project_id = ? AND created_at <= ?", projectID, cursor.Snapshot).
		Order("name ASC").
		Limit(pageSize + 1)
	if cursor.After != "" {
		q = q.Where("name > ?", cursor.After)
	}

	var page []models.Ruleset
	if err := q.Find(&page).Error; err != nil {
		return nil, "", err
	}

	next := ""
	if len(page) > pageSize {
		page = page[:pageSize]
		token, err := s.codec.Encode(paging.Cursor{
			Project:  projectID,
			After:    page[len(page)-1].Name,
			Snapshot: cursor.Snapshot,
		})
		if err != nil {
			return nil, "", err
		}
		next = token
	}

	return page, next, nil
}

func (s *RulesetService) validateFiles(files []models.RulesetFile) error {
	if len(files) == 0 {
		return fmt.Errorf("%w: at least one source file is required", ErrInvalidRuleset)
	}

	seen := make(map[string]bool, len(files))
	for _, f := range files {
		if strings.TrimSpace(f.Name) == "" {
			return fmt.Errorf("%w: file name must not be empty", ErrInvalidRuleset)
		}
		if seen[f.Name] {
			return fmt.Errorf("%w: duplicate file name %q", ErrInvalidRuleset, f.Name)
		}
		seen[f.Name] = true

		if s.maxSourceBytes > 0 && len(f.Content) > s.maxSourceBytes {
			return fmt.Errorf("%w: file %q exceeds %d bytes", ErrInvalidRuleset, f.Name, s.maxSourceBytes)
		}
		if issues := rules.Validate(f.Content); len(issues) > 0 {
			msgs := make([]string, len(issues))
			for i, issue := range issues {
				msgs[i] = issue.Error()
			}
			return fmt.Errorf("%w: file %q: %s", ErrInvalidRuleset, f.Name, strings.Join(msgs, "; "))
		}
	}

	return nil
}
