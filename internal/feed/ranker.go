// Package feed reads ranked views over the problem collection. Everything
// here is read-only: counters and scores are owned by the engage package,
// feeds just filter and sort on what is already persisted.
package feed

import (
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/karolisbudreckas92-sys/frikt-backend/internal/models"
)

// ErrNotFound: the anchor problem for a related-problems lookup is gone.
var ErrNotFound = errors.New("feed: not found")

// Feed modes.
const (
	ModeNew      = "new"
	ModeTrending = "trending"
	ModeForYou   = "foryou"
)

const defaultLimit = 50

// Viewer carries the identity facts a personalized feed needs. A nil viewer
// is an anonymous request.
type Viewer struct {
	ID                 string
	FollowedCategories []string
	FollowedProblems   []string
	BlockedUsers       []string
}

// Query selects and pages a feed.
type Query struct {
	Mode       string
	CategoryID string
	Search     string
	Limit      int
	Skip       int
}

// Problems returns one page of the requested feed.
//
// All modes see only active problems and exclude authors the viewer has
// blocked. "trending" sorts by the persisted signal score, so it is a pure
// indexed sort with no recomputation at read time. "foryou" restricts to
// the viewer's followed categories or followed problems; a viewer following
// nothing gets the plain "new" feed rather than an empty page.
//
// Pagination is offset/limit with no snapshot isolation: concurrent inserts
// may shift page boundaries between fetches.
func Problems(db *gorm.DB, q Query, viewer *Viewer) ([]models.Problem, error) {
	limit := q.Limit
	if limit <= 0 || limit > 200 {
		limit = defaultLimit
	}

	tx := db.Model(&models.Problem{}).Where("status = ?", models.StatusActive)

	if q.CategoryID != "" {
		tx = tx.Where("category_id = ?", q.CategoryID)
	}
	if q.Search != "" {
		pat := "%" + strings.ToLower(q.Search) + "%"
		tx = tx.Where(
			"LOWER(title) LIKE ? OR LOWER(when_happens) LIKE ? OR LOWER(who_affected) LIKE ?",
			pat, pat, pat)
	}
	if viewer != nil && len(viewer.BlockedUsers) > 0 {
		tx = tx.Where("user_id NOT IN ?", viewer.BlockedUsers)
	}

	if q.Mode == ModeForYou && viewer != nil {
		cats, probs := viewer.FollowedCategories, viewer.FollowedProblems
		switch {
		case len(cats) > 0 && len(probs) > 0:
			tx = tx.Where("category_id IN ? OR id IN ?", cats, probs)
		case len(cats) > 0:
			tx = tx.Where("category_id IN ?", cats)
		case len(probs) > 0:
			tx = tx.Where("id IN ?", probs)
			// Following nothing: fall through to the plain new feed.
		}
	}

	if q.Mode == ModeTrending {
		tx = tx.Order("signal_score desc, created_at desc")
	} else {
		tx = tx.Order("created_at desc")
	}

	var problems []models.Problem
	if err := tx.Offset(q.Skip).Limit(limit).Find(&problems).Error; err != nil {
		return nil, err
	}
	return problems, nil
}

// Related returns active problems in the same category as problemID,
// excluding it, ordered by signal score. Category equality substituted for
// keyword matching; otherwise the same primitive as Similar.
func Related(db *gorm.DB, problemID string, limit int) ([]models.Problem, error) {
	var anchor models.Problem
	if err := db.First(&anchor, "id = ?", problemID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if limit <= 0 {
		limit = 5
	}
	var problems []models.Problem
	err := db.Where("category_id = ? AND id <> ? AND status = ?",
		anchor.CategoryID, problemID, models.StatusActive).
		Order("signal_score desc").
		Limit(limit).
		Find(&problems).Error
	if err != nil {
		return nil, err
	}
	return problems, nil
}
