// Package engage applies engagement mutations (relates, comments, helpful
// marks, reports, merges) to problems and keeps the cached signal score in
// step with the raw counters.
//
// Counters are mutated with atomic column expressions at the database, never
// read-modify-written in application memory, so concurrent events on the
// same problem cannot lose updates. The signal score is a best-effort
// follow-up: each recomputation reads the latest persisted counters, so
// racing recomputations converge on the same value.
package engage

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/karolisbudreckas92-sys/frikt-backend/internal/models"
	"github.com/karolisbudreckas92-sys/frikt-backend/internal/signal"
)

var (
	// ErrNotFound: the target problem, comment, or edge does not exist.
	ErrNotFound = errors.New("engage: not found")
	// ErrConflict: the (user, target) edge already exists.
	ErrConflict = errors.New("engage: already exists")
	// ErrInvalidInput: the mutation is malformed (e.g. merging a problem
	// into itself).
	ErrInvalidInput = errors.New("engage: invalid input")
)

// ReportThreshold is the distinct-reporter count at which a problem is
// hidden automatically.
const ReportThreshold = 3

// Service owns all counter mutations on problems and comments.
type Service struct {
	db  *gorm.DB
	now func() time.Time
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db, now: time.Now}
}

// Relate records a (user, problem) edge and bumps relates_count.
// Returns ErrConflict if the user already relates, ErrNotFound if the
// problem is gone; neither leaves any partial state.
func (s *Service) Relate(problemID, userID string) (*models.Problem, error) {
	if err := s.problemExists(problemID); err != nil {
		return nil, err
	}

	// Pre-check is an optimization; the unique index is the guarantee.
	var n int64
	if err := s.db.Model(&models.Relate{}).
		Where("problem_id = ? AND user_id = ?", problemID, userID).
		Count(&n).Error; err != nil {
		return nil, err
	}
	if n > 0 {
		return nil, ErrConflict
	}

	edge := models.Relate{ID: uuid.NewString(), ProblemID: problemID, UserID: userID}
	if err := s.db.Create(&edge).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrConflict
		}
		return nil, err
	}

	if err := s.bump(problemID, "relates_count", +1); err != nil {
		return nil, err
	}
	return s.recompute(problemID)
}

// Unrelate removes the edge and decrements relates_count, clamping at 0.
// An unrelate without a matching edge is ErrNotFound and touches nothing.
func (s *Service) Unrelate(problemID, userID string) (*models.Problem, error) {
	res := s.db.Where("problem_id = ? AND user_id = ?", problemID, userID).
		Delete(&models.Relate{})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrNotFound
	}

	if err := s.bump(problemID, "relates_count", -1); err != nil {
		return nil, err
	}
	return s.recompute(problemID)
}

// AddComment inserts the comment, bumps comments_count unconditionally, and
// bumps unique_commenters only when this is the user's first comment on the
// problem (counted against existing comments, excluding the new row).
func (s *Service) AddComment(problemID, userID, userName, content string) (*models.Comment, error) {
	if err := s.problemExists(problemID); err != nil {
		return nil, err
	}

	comment := models.Comment{
		ID:        uuid.NewString(),
		ProblemID: problemID,
		UserID:    userID,
		UserName:  userName,
		Content:   content,
	}
	if err := s.db.Create(&comment).Error; err != nil {
		return nil, err
	}

	if err := s.bump(problemID, "comments_count", +1); err != nil {
		return nil, err
	}

	var prior int64
	if err := s.db.Model(&models.Comment{}).
		Where("problem_id = ? AND user_id = ? AND id <> ?", problemID, userID, comment.ID).
		Count(&prior).Error; err != nil {
		return nil, err
	}
	if prior == 0 {
		if err := s.bump(problemID, "unique_commenters", +1); err != nil {
			return nil, err
		}
	}

	if _, err := s.recompute(problemID); err != nil {
		return nil, err
	}
	return &comment, nil
}

// MarkHelpful records a (user, comment) edge and bumps helpful_count.
func (s *Service) MarkHelpful(commentID, userID string) (int, error) {
	var comment models.Comment
	if err := s.db.First(&comment, "id = ?", commentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, ErrNotFound
		}
		return 0, err
	}

	var n int64
	if err := s.db.Model(&models.Helpful{}).
		Where("comment_id = ? AND user_id = ?", commentID, userID).
		Count(&n).Error; err != nil {
		return 0, err
	}
	if n > 0 {
		return 0, ErrConflict
	}

	edge := models.Helpful{ID: uuid.NewString(), CommentID: commentID, UserID: userID}
	if err := s.db.Create(&edge).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return 0, ErrConflict
		}
		return 0, err
	}

	if err := s.db.Model(&models.Comment{}).Where("id = ?", commentID).
		UpdateColumn("helpful_count", gorm.Expr("helpful_count + 1")).Error; err != nil {
		return 0, err
	}
	return s.helpfulCount(commentID)
}

// UnmarkHelpful removes the edge and decrements helpful_count, clamped at 0.
func (s *Service) UnmarkHelpful(commentID, userID string) (int, error) {
	res := s.db.Where("comment_id = ? AND user_id = ?", commentID, userID).
		Delete(&models.Helpful{})
	if res.Error != nil {
		return 0, res.Error
	}
	if res.RowsAffected == 0 {
		return 0, ErrNotFound
	}

	if err := s.db.Model(&models.Comment{}).Where("id = ?", commentID).
		UpdateColumn("helpful_count",
			gorm.Expr("CASE WHEN helpful_count > 0 THEN helpful_count - 1 ELSE 0 END")).Error; err != nil {
		return 0, err
	}
	return s.helpfulCount(commentID)
}

// problemExists fails fast with ErrNotFound before any mutation.
func (s *Service) problemExists(problemID string) error {
	var n int64
	if err := s.db.Model(&models.Problem{}).Where("id = ?", problemID).Count(&n).Error; err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// bump applies an atomic delta to a problem counter column. Decrements
// clamp at zero inside the expression so out-of-order undo sequences can
// never drive a counter negative.
func (s *Service) bump(problemID, column string, delta int) error {
	var expr any
	if delta >= 0 {
		expr = gorm.Expr(column+" + ?", delta)
	} else {
		expr = gorm.Expr(
			"CASE WHEN "+column+" >= ? THEN "+column+" - ? ELSE 0 END", -delta, -delta)
	}
	return s.db.Model(&models.Problem{}).Where("id = ?", problemID).
		UpdateColumn(column, expr).Error
}

// recompute reads the latest persisted counters and writes the derived
// score. It never uses a snapshot captured before the counter mutation, so
// concurrent recomputes converge.
func (s *Service) recompute(problemID string) (*models.Problem, error) {
	var p models.Problem
	if err := s.db.First(&p, "id = ?", problemID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	score := signal.Score(signal.Counters{
		Relates:          p.RelatesCount,
		Comments:         p.CommentsCount,
		UniqueCommenters: p.UniqueCommenters,
	}, p.PainLevel, p.Frequency, p.CreatedAt, s.now())

	if err := s.db.Model(&models.Problem{}).Where("id = ?", problemID).
		UpdateColumn("signal_score", score).Error; err != nil {
		return nil, err
	}
	p.SignalScore = score
	return &p, nil
}

// RecomputeScore refreshes the persisted score from the latest counters.
// Safe to call at any time; used by the periodic decay refresh.
func (s *Service) RecomputeScore(problemID string) (float64, error) {
	p, err := s.recompute(problemID)
	if err != nil {
		return 0, err
	}
	return p.SignalScore, nil
}

func (s *Service) helpfulCount(commentID string) (int, error) {
	var comment models.Comment
	if err := s.db.First(&comment, "id = ?", commentID).Error; err != nil {
		return 0, err
	}
	return comment.HelpfulCount, nil
}
