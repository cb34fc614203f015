package services

import (
	"fmt"
	"strings"

	"github.com/containrrr/shoutrrr"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/aegisrules/aegis/internal/logger"
	"github.com/aegisrules/aegis/internal/models"
)

// NotificationService records events in the in-app feed and pushes them to
// the shoutrrr URLs configured at startup.
type NotificationService struct {
	DB   *gorm.DB
	urls []string
}

func NewNotificationService(db *gorm.DB, urls []string) *NotificationService {
	return &NotificationService{DB: db, urls: urls}
}

// Create stores an in-app notification.
func (s *NotificationService) Create(nType models.NotificationType, projectID, title, message string) (*models.Notification, error) {
	notification := &models.Notification{
		Type:      nType,
		ProjectID: projectID,
		Title:     title,
		Message:   message,
		Read:      false,
	}
	result := s.DB.Create(notification)
	return notification, result.Error
}

func (s *NotificationService) List(unreadOnly bool) ([]models.Notification, error) {
	var notifications []models.Notification
	query := s.DB.Order("created_at desc")
	if unreadOnly {
		query = query.Where("read = ?", false)
	}
	result := query.Find(&notifications)
	return notifications, result.Error
}

func (s *NotificationService) MarkAsRead(id string) error {
	return s.DB.Model(&models.Notification{}).Where("id = ?", id).Update("read", true).Error
}

func (s *NotificationService) MarkAllAsRead() error {
	return s.DB.Model(&models.Notification{}).Where("read = ?", false).Update("read", true).Error
}

// Notify records the event in the feed and fans it out externally. Failures
// on either path are logged, never returned; notifications must not block
// or fail the operation that triggered them.
func (s *NotificationService) Notify(nType models.NotificationType, projectID, title, message string) {
	if _, err := s.Create(nType, projectID, title, message); err != nil {
		logger.Log().WithError(err).Warn("store notification")
	}
	s.SendExternal(title, message)
}

// SendExternal pushes a message to every configured shoutrrr URL. Sends run
// in the background; delivery failures are logged per destination.
func (s *NotificationService) SendExternal(title, message string) {
	for _, url := range s.urls {
		go func(u string) {
			msg := fmt.Sprintf("%s\n\n%s", title, message)
			if err := shoutrrr.Send(u, msg); err != nil {
				logger.WithFields(logrus.Fields{
					"service": serviceScheme(u),
				}).WithError(err).Warn("send external notification")
			}
		}(url)
	}
}

// serviceScheme reports only the scheme of a shoutrrr URL; the rest may
// embed credentials and stays out of logs.
func serviceScheme(url string) string {
	if i := strings.Index(url, "://"); i > 0 {
		return url[:i]
	}
	return "unknown"
}
