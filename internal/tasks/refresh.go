// Package tasks runs the periodic background jobs.
package tasks

import (
	"log"
	"time"

	"github.com/robfig/cron/v3"
	"gorm.io/gorm"

	"github.com/karolisbudreckas92-sys/frikt-backend/internal/engage"
	"github.com/karolisbudreckas92-sys/frikt-backend/internal/models"
)

// Problems older than this sit on the decay floor; their score no longer
// moves with age, so refreshing them is wasted work.
const refreshWindow = 14 * 24 * time.Hour

// Start schedules the background jobs and returns the running scheduler.
func Start(db *gorm.DB, svc *engage.Service) *cron.Cron {
	c := cron.New()
	if _, err := c.AddFunc("@hourly", func() { RefreshScores(db, svc) }); err != nil {
		log.Fatalf("Failed to schedule score refresh: %v", err)
	}
	c.Start()
	return c
}

// RefreshScores re-applies time decay to active problems still inside the
// decay window. The trending feed sorts on the persisted score, so without
// this sweep a problem's rank would only move when someone engaged with it.
func RefreshScores(db *gorm.DB, svc *engage.Service) {
	cutoff := time.Now().Add(-refreshWindow)

	var ids []string
	if err := db.Model(&models.Problem{}).
		Where("status = ? AND created_at > ?", models.StatusActive, cutoff).
		Pluck("id", &ids).Error; err != nil {
		log.Printf("Score refresh: listing problems: %v", err)
		return
	}

	refreshed := 0
	for _, id := range ids {
		if _, err := svc.RecomputeScore(id); err != nil {
			log.Printf("Score refresh: problem %s: %v", id, err)
			continue
		}
		refreshed++
	}
	if refreshed > 0 {
		log.Printf("Score refresh: updated %d problems", refreshed)
	}
}
