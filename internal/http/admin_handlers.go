package http

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/karolisbudreckas92-sys/frikt-backend/internal/models"
)

// Admin handlers sit behind AdminAuthMiddleware; every mutation lands in
// the audit log with the actor from X-Admin-Actor.

type SetStatusInput struct {
	Status string `json:"status" binding:"required,oneof=active hidden removed"`
}

func (e *Env) AdminSetStatus(c *gin.Context) {
	var input SetStatusInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
		return
	}

	problemID := c.Param("id")
	if err := e.Engage.SetStatus(problemID, input.Status, adminActor(c)); err != nil {
		engageError(c, err, "Problem not found", "")
		return
	}

	if input.Status != models.StatusActive {
		e.broadcastMessage(WsMessage{Type: "hidden", Data: gin.H{"id": problemID}})
	}
	c.JSON(http.StatusOK, gin.H{"id": problemID, "status": input.Status})
}

type PinInput struct {
	Pinned *bool `json:"pinned" binding:"required"`
}

func (e *Env) AdminSetPinned(c *gin.Context) {
	var input PinInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
		return
	}
	if err := e.Engage.SetPinned(c.Param("id"), *input.Pinned, adminActor(c)); err != nil {
		engageError(c, err, "Problem not found", "")
		return
	}
	c.JSON(http.StatusOK, gin.H{"pinned": *input.Pinned})
}

type NeedsContextInput struct {
	NeedsContext *bool `json:"needsContext" binding:"required"`
}

func (e *Env) AdminSetNeedsContext(c *gin.Context) {
	var input NeedsContextInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
		return
	}
	if err := e.Engage.SetNeedsContext(c.Param("id"), *input.NeedsContext, adminActor(c)); err != nil {
		engageError(c, err, "Problem not found", "")
		return
	}
	c.JSON(http.StatusOK, gin.H{"needsContext": *input.NeedsContext})
}

type MergeInput struct {
	Into string `json:"into" binding:"required"`
}

func (e *Env) AdminMergeProblem(c *gin.Context) {
	var input MergeInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
		return
	}

	dupID := c.Param("id")
	canonical, err := e.Engage.Merge(dupID, input.Into, adminActor(c))
	if err != nil {
		engageError(c, err, "Problem not found", "")
		return
	}

	e.broadcastMessage(WsMessage{Type: "merged", Data: gin.H{
		"id":   dupID,
		"into": canonical.ID,
	}})
	c.JSON(http.StatusOK, gin.H{
		"merged":       true,
		"into":         canonical.ID,
		"relatesCount": canonical.RelatesCount,
		"signalScore":  canonical.SignalScore,
	})
}

func (e *Env) AdminDeleteProblem(c *gin.Context) {
	problemID := c.Param("id")
	if err := e.Engage.HardDelete(problemID, adminActor(c)); err != nil {
		engageError(c, err, "Problem not found", "")
		return
	}
	e.broadcastMessage(WsMessage{Type: "hidden", Data: gin.H{"id": problemID}})
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

func (e *Env) AdminListAudit(c *gin.Context) {
	tx := e.DB.Model(&models.AuditEntry{}).Order("created_at desc").Limit(intQuery(c, "limit", 100))
	if problemID := c.Query("problem_id"); problemID != "" {
		tx = tx.Where("problem_id = ?", problemID)
	}

	var entries []models.AuditEntry
	if err := tx.Find(&entries).Error; err != nil {
		log.Printf("Error fetching audit log: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch audit log"})
		return
	}
	c.JSON(http.StatusOK, entries)
}
