package feed

import (
	"strings"

	"gorm.io/gorm"

	"github.com/karolisbudreckas92-sys/frikt-backend/internal/models"
)

// Similarity search bounds: titles shorter than minTitleLen carry too
// little signal, tokens of minTokenLen or fewer characters are stopword
// noise, and at most maxKeywords keywords go into the query.
const (
	minTitleLen = 5
	minTokenLen = 3
	maxKeywords = 3
)

// Keywords extracts the search keywords from a candidate title: lowercase
// whitespace tokens longer than three characters, capped at three.
func Keywords(title string) []string {
	if len(title) < minTitleLen {
		return nil
	}
	var kws []string
	for _, tok := range strings.Fields(strings.ToLower(title)) {
		if len(tok) > minTokenLen {
			kws = append(kws, tok)
			if len(kws) == maxKeywords {
				break
			}
		}
	}
	return kws
}

// Similar finds likely duplicates of a title before posting: any active
// problem whose title contains any keyword as a case-insensitive substring,
// best signal score first. A cheap OR-substring heuristic with no stemming
// or fuzzy matching. False positives are fine since a human reviews the
// candidates; differently-worded duplicates slipping through is the
// accepted cost.
func Similar(db *gorm.DB, title string, limit int) ([]models.Problem, error) {
	kws := Keywords(title)
	if len(kws) == 0 {
		return nil, nil
	}
	if limit <= 0 {
		limit = 3
	}

	tx := db.Where("status = ?", models.StatusActive)
	clause := make([]string, len(kws))
	args := make([]any, len(kws))
	for i, kw := range kws {
		clause[i] = "LOWER(title) LIKE ?"
		args[i] = "%" + kw + "%"
	}
	tx = tx.Where(strings.Join(clause, " OR "), args...)

	var problems []models.Problem
	err := tx.Order("signal_score desc").Limit(limit).Find(&problems).Error
	if err != nil {
		return nil, err
	}
	return problems, nil
}
