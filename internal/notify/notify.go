// Package notify creates in-app notifications for engagement events. It is
// fire-and-forget: a failed or slow notification never blocks or rolls back
// the counter update that triggered it.
package notify

import (
	"log"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/karolisbudreckas92-sys/frikt-backend/internal/models"
)

type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// RelateCreated tells the problem's author someone related, unless they
// related to their own problem. Runs in the background.
func (s *Service) RelateCreated(problem *models.Problem, actorID, actorName string) {
	if problem.UserID == actorID {
		return
	}
	go s.create(models.Notification{
		UserID:    problem.UserID,
		Type:      models.NotifyNewRelate,
		ProblemID: problem.ID,
		Message:   actorName + " relates to your problem",
	})
}

// CommentCreated tells the author and every follower of the problem about a
// new comment, skipping the commenter themselves. Runs in the background.
func (s *Service) CommentCreated(problem *models.Problem, actorID, actorName string) {
	problemID := problem.ID
	authorID := problem.UserID
	go func() {
		if authorID != actorID {
			s.create(models.Notification{
				UserID:    authorID,
				Type:      models.NotifyNewComment,
				ProblemID: problemID,
				Message:   actorName + " commented on your problem",
			})
		}

		// followed_problems is a JSON array column; matching the quoted id
		// as a substring finds followers without a join table.
		var followers []models.User
		if err := s.db.Where("followed_problems LIKE ?", `%"`+problemID+`"%`).
			Find(&followers).Error; err != nil {
			log.Printf("notify: follower lookup for %s: %v", problemID, err)
			return
		}
		for _, f := range followers {
			if f.ID == actorID || f.ID == authorID {
				continue
			}
			s.create(models.Notification{
				UserID:    f.ID,
				Type:      models.NotifyNewComment,
				ProblemID: problemID,
				Message:   "New comment on a problem you follow",
			})
		}
	}()
}

func (s *Service) create(n models.Notification) {
	n.ID = uuid.NewString()
	if err := s.db.Create(&n).Error; err != nil {
		log.Printf("notify: create for %s: %v", n.UserID, err)
	}
}

// List returns a user's newest notifications and their unread count.
func (s *Service) List(userID string, limit int) ([]models.Notification, int64, error) {
	if limit <= 0 {
		limit = 50
	}
	var notifications []models.Notification
	if err := s.db.Where("user_id = ?", userID).
		Order("created_at desc").Limit(limit).
		Find(&notifications).Error; err != nil {
		return nil, 0, err
	}
	var unread int64
	if err := s.db.Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Count(&unread).Error; err != nil {
		return nil, 0, err
	}
	return notifications, unread, nil
}

// MarkAllRead flags every unread notification for the user as read.
func (s *Service) MarkAllRead(userID string) error {
	return s.db.Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		UpdateColumn("is_read", true).Error
}

// MarkRead flags one notification as read; ownership is part of the match.
func (s *Service) MarkRead(userID, notificationID string) error {
	return s.db.Model(&models.Notification{}).
		Where("id = ? AND user_id = ?", notificationID, userID).
		UpdateColumn("is_read", true).Error
}
