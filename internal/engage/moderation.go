package engage

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/karolisbudreckas92-sys/frikt-backend/internal/models"
)

// ReportResult is the (reports_count, status) pair the audit layer logs
// against.
type ReportResult struct {
	ReportsCount int    `json:"reportsCount"`
	Status       string `json:"status"`
	Hidden       bool   `json:"hidden"`
}

// Report records one report per distinct reporter and hides the problem
// once the threshold is crossed. The hide is one-way: nothing here ever
// un-hides, and a removed problem stays removed.
func (s *Service) Report(problemID, reporterID string) (*ReportResult, error) {
	if err := s.problemExists(problemID); err != nil {
		return nil, err
	}

	var n int64
	if err := s.db.Model(&models.Report{}).
		Where("problem_id = ? AND user_id = ?", problemID, reporterID).
		Count(&n).Error; err != nil {
		return nil, err
	}
	if n > 0 {
		return nil, ErrConflict
	}

	edge := models.Report{ID: uuid.NewString(), ProblemID: problemID, UserID: reporterID}
	if err := s.db.Create(&edge).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrConflict
		}
		return nil, err
	}

	if err := s.bump(problemID, "reports_count", +1); err != nil {
		return nil, err
	}

	var p models.Problem
	if err := s.db.First(&p, "id = ?", problemID).Error; err != nil {
		return nil, err
	}

	if p.ReportsCount >= ReportThreshold && p.Status == models.StatusActive {
		if err := s.db.Model(&models.Problem{}).
			Where("id = ? AND status = ?", problemID, models.StatusActive).
			UpdateColumn("status", models.StatusHidden).Error; err != nil {
			return nil, err
		}
		p.Status = models.StatusHidden
	}

	return &ReportResult{
		ReportsCount: p.ReportsCount,
		Status:       p.Status,
		Hidden:       p.Status != models.StatusActive,
	}, nil
}

// Merge folds duplicate problem dupID into canonicalID: the duplicate's
// relates transfer into the canonical's counter, the duplicate goes hidden
// with merged_into set, and the canonical's score is recomputed from its
// new counters. Scores are never copied between problems.
func (s *Service) Merge(dupID, canonicalID, actor string) (*models.Problem, error) {
	if dupID == canonicalID {
		return nil, ErrInvalidInput
	}

	var dup models.Problem
	if err := s.db.First(&dup, "id = ?", dupID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if err := s.problemExists(canonicalID); err != nil {
		return nil, err
	}

	if dup.RelatesCount > 0 {
		if err := s.bump(canonicalID, "relates_count", dup.RelatesCount); err != nil {
			return nil, err
		}
	}

	if err := s.db.Model(&models.Problem{}).Where("id = ?", dupID).
		Updates(map[string]any{
			"status":      models.StatusHidden,
			"merged_into": canonicalID,
		}).Error; err != nil {
		return nil, err
	}

	s.audit(actor, "merge", dupID, "into "+canonicalID)
	return s.recompute(canonicalID)
}

// SetStatus is the administrative visibility override (hide, unhide,
// remove). It is the only path that moves a problem back to active.
func (s *Service) SetStatus(problemID, status, actor string) error {
	switch status {
	case models.StatusActive, models.StatusHidden, models.StatusRemoved:
	default:
		return ErrInvalidInput
	}
	if err := s.problemExists(problemID); err != nil {
		return err
	}
	if err := s.db.Model(&models.Problem{}).Where("id = ?", problemID).
		UpdateColumn("status", status).Error; err != nil {
		return err
	}
	s.audit(actor, "set_status", problemID, status)
	return nil
}

// SetPinned toggles the presentation pin flag. Pinning is not a ranking
// input; feeds sort pinned problems like any other.
func (s *Service) SetPinned(problemID string, pinned bool, actor string) error {
	if err := s.problemExists(problemID); err != nil {
		return err
	}
	if err := s.db.Model(&models.Problem{}).Where("id = ?", problemID).
		UpdateColumn("is_pinned", pinned).Error; err != nil {
		return err
	}
	if pinned {
		s.audit(actor, "pin", problemID, "")
	} else {
		s.audit(actor, "unpin", problemID, "")
	}
	return nil
}

// SetNeedsContext flags a problem as needing more detail from its author.
func (s *Service) SetNeedsContext(problemID string, needs bool, actor string) error {
	if err := s.problemExists(problemID); err != nil {
		return err
	}
	if err := s.db.Model(&models.Problem{}).Where("id = ?", problemID).
		UpdateColumn("needs_context", needs).Error; err != nil {
		return err
	}
	s.audit(actor, "needs_context", problemID, "")
	return nil
}

// HardDelete permanently removes a problem and everything referencing it:
// relate edges, comments and their helpful marks, reports.
func (s *Service) HardDelete(problemID, actor string) error {
	if err := s.problemExists(problemID); err != nil {
		return err
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		var commentIDs []string
		if err := tx.Model(&models.Comment{}).Where("problem_id = ?", problemID).
			Pluck("id", &commentIDs).Error; err != nil {
			return err
		}
		if len(commentIDs) > 0 {
			if err := tx.Where("comment_id IN ?", commentIDs).Delete(&models.Helpful{}).Error; err != nil {
				return err
			}
		}
		if err := tx.Where("problem_id = ?", problemID).Delete(&models.Comment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("problem_id = ?", problemID).Delete(&models.Relate{}).Error; err != nil {
			return err
		}
		if err := tx.Where("problem_id = ?", problemID).Delete(&models.Report{}).Error; err != nil {
			return err
		}
		if err := tx.Where("id = ?", problemID).Delete(&models.Problem{}).Error; err != nil {
			return err
		}
		return tx.Create(&models.AuditEntry{
			Actor:     actor,
			Action:    "hard_delete",
			ProblemID: problemID,
		}).Error
	})
}

// audit is best-effort: a failed audit write never fails the action it
// describes.
func (s *Service) audit(actor, action, problemID, detail string) {
	_ = s.db.Create(&models.AuditEntry{
		Actor:     actor,
		Action:    action,
		ProblemID: problemID,
		Detail:    detail,
	}).Error
}
