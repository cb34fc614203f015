package services

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/aegisrules/aegis/internal/metrics"
	"github.com/aegisrules/aegis/internal/models"
	"github.com/aegisrules/aegis/internal/util"
)

var (
	ErrReleaseNotFound = errors.New("release not found")
	ErrUnknownRuleset  = errors.New("release references unknown ruleset")
	ErrInvalidRelease  = errors.New("invalid release")
)

type ReleaseService struct {
	db       *gorm.DB
	notifier *NotificationService
}

// NewReleaseService returns a ReleaseService using the provided DB. The
// notifier may be nil to disable release-change notifications.
func NewReleaseService(db *gorm.DB, notifier *NotificationService) *ReleaseService {
	return &ReleaseService{db: db, notifier: notifier}
}

// Get returns the release currently bound for the given name.
func (s *ReleaseService) Get(projectID, name string) (*models.Release, error) {
	var release models.Release
	err := s.db.Where("project_id = ? AND name = ?", projectID, name).First(&release).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrReleaseNotFound
		}
		return nil, err
	}
	return &release, nil
}

// Upsert points a release at a ruleset, creating the release on first use.
// The ruleset must already exist in the project; releases never dangle.
func (s *ReleaseService) Upsert(projectID, name, rulesetName string) (*models.Release, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("%w: release name must not be empty", ErrInvalidRelease)
	}
	if strings.TrimSpace(rulesetName) == "" {
		return nil, fmt.Errorf("%w: ruleset name must not be empty", ErrInvalidRelease)
	}

	var release models.Release
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Ruleset{}).
			Where("project_id = ? AND name = ?", projectID, rulesetName).
			Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return ErrUnknownRuleset
		}

		if err := tx.Where("project_id = ? AND name = ?", projectID, name).First(&release).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				release = models.Release{ProjectID: projectID, Name: name, RulesetName: rulesetName}
				return tx.Create(&release).Error
			}
			return err
		}

		release.RulesetName = rulesetName
		return tx.Save(&release).Error
	})
	if err != nil {
		return nil, err
	}

	metrics.IncReleaseUpdate()
	s.notifyChange(&release)
	return &release, nil
}

func (s *ReleaseService) notifyChange(release *models.Release) {
	if s.notifier == nil {
		return
	}
	title := fmt.Sprintf("Release %s updated", util.SanitizeForLog(release.Name))
	message := fmt.Sprintf("Release %s in project %s now serves ruleset %s",
		util.SanitizeForLog(release.Name), util.SanitizeForLog(release.ProjectID), util.SanitizeForLog(release.RulesetName))
	s.notifier.Notify(models.NotificationTypeInfo, release.ProjectID, title, message)
}
