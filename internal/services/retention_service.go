package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/aegisrules/aegis/internal/logger"
	"github.com/aegisrules/aegis/internal/metrics"
	"github.com/aegisrules/aegis/internal/models"
)

// RetentionService periodically removes rulesets that were never released
// and have aged past the retention window. Released rulesets are never
// touched, no matter how old.
type RetentionService struct {
	Cron     *cron.Cron
	db       *gorm.DB
	rulesets *RulesetService
	notifier *NotificationService
	days     int
}

// NewRetentionService schedules the sweep with the given cron expression.
// Zero or negative days disables sweeping entirely.
func NewRetentionService(db *gorm.DB, rulesets *RulesetService, notifier *NotificationService, schedule string, days int) (*RetentionService, error) {
	s := &RetentionService{
		Cron:     cron.New(),
		db:       db,
		rulesets: rulesets,
		notifier: notifier,
		days:     days,
	}

	if days > 0 {
		if _, err := s.Cron.AddFunc(schedule, s.sweep); err != nil {
			return nil, fmt.Errorf("schedule retention sweep: %w", err)
		}
	}

	return s, nil
}

// Start begins running scheduled sweeps.
func (s *RetentionService) Start() { s.Cron.Start() }

// Stop halts the schedule. An in-flight sweep finishes on its own.
func (s *RetentionService) Stop() { s.Cron.Stop() }

// PruneOnce deletes stale unreleased rulesets and returns how many were
// removed. Rulesets bound to a release are skipped.
func (s *RetentionService) PruneOnce() (int, error) {
	if s.days <= 0 {
		return 0, nil
	}
	cutoff := time.Now().UTC().AddDate(0, 0, -s.days)

	var stale []models.Ruleset
	if err := s.db.Where("created_at < ?", cutoff).Order("name ASC").Find(&stale).Error; err != nil {
		return 0, fmt.Errorf("list stale rulesets: %w", err)
	}

	pruned := 0
	byProject := make(map[string]int)
	for _, ruleset := range stale {
		err := s.rulesets.Delete(ruleset.ProjectID, ruleset.Name)
		switch {
		case err == nil:
			pruned++
			byProject[ruleset.ProjectID]++
		case errors.Is(err, ErrRulesetInUse), errors.Is(err, ErrRulesetNotFound):
			continue
		default:
			logger.WithFields(logrus.Fields{
				"project": ruleset.ProjectID,
				"ruleset": ruleset.Name,
			}).WithError(err).Warn("prune ruleset")
		}
	}

	if pruned > 0 {
		metrics.AddRulesetsPruned(pruned)
		if s.notifier != nil {
			for project, n := range byProject {
				s.notifier.Notify(models.NotificationTypeInfo, project,
					"Retention sweep",
					fmt.Sprintf("Removed %d unreleased ruleset(s) older than %d days", n, s.days))
			}
		}
	}

	return pruned, nil
}

func (s *RetentionService) sweep() {
	n, err := s.PruneOnce()
	if err != nil {
		logger.Log().WithError(err).Error("retention sweep")
		return
	}
	if n > 0 {
		logger.WithFields(logrus.Fields{"pruned": n}).Info("retention sweep complete")
	}
}
