package http

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/karolisbudreckas92-sys/frikt-backend/internal/engage"
	"github.com/karolisbudreckas92-sys/frikt-backend/internal/models"
)

// engageError maps the engagement error taxonomy onto HTTP statuses.
// NotFound and Conflict must stay distinguishable: the client's own
// already-done UI depends on telling them apart.
func engageError(c *gin.Context, err error, notFoundMsg, conflictMsg string) {
	switch {
	case errors.Is(err, engage.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": notFoundMsg})
	case errors.Is(err, engage.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": conflictMsg})
	case errors.Is(err, engage.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
	default:
		log.Printf("Engagement error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Something went wrong"})
	}
}

func (e *Env) RelateToProblem(c *gin.Context) {
	user := currentUser(c)
	problemID := c.Param("id")

	problem, err := e.Engage.Relate(problemID, user.ID)
	if err != nil {
		engageError(c, err, "Problem not found", "Already related to this problem")
		return
	}

	e.Notify.RelateCreated(problem, user.ID, user.Name)
	e.broadcastMessage(WsMessage{Type: "score", Data: gin.H{
		"id":           problem.ID,
		"relatesCount": problem.RelatesCount,
		"signalScore":  problem.SignalScore,
	}})

	c.JSON(http.StatusOK, gin.H{
		"relatesCount": problem.RelatesCount,
		"signalScore":  problem.SignalScore,
	})
}

func (e *Env) UnrelateFromProblem(c *gin.Context) {
	user := currentUser(c)

	problem, err := e.Engage.Unrelate(c.Param("id"), user.ID)
	if err != nil {
		engageError(c, err, "Not related to this problem", "")
		return
	}

	e.broadcastMessage(WsMessage{Type: "score", Data: gin.H{
		"id":           problem.ID,
		"relatesCount": problem.RelatesCount,
		"signalScore":  problem.SignalScore,
	}})

	c.JSON(http.StatusOK, gin.H{
		"relatesCount": problem.RelatesCount,
		"signalScore":  problem.SignalScore,
	})
}

type CreateCommentInput struct {
	ProblemID string `json:"problemId" binding:"required"`
	Content   string `json:"content" binding:"required,min=10"`
}

func (e *Env) CreateComment(c *gin.Context) {
	user := currentUser(c)

	var input CreateCommentInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
		return
	}

	comment, err := e.Engage.AddComment(input.ProblemID, user.ID, user.Name, input.Content)
	if err != nil {
		engageError(c, err, "Problem not found", "")
		return
	}

	var problem models.Problem
	if err := e.DB.First(&problem, "id = ?", input.ProblemID).Error; err == nil {
		e.Notify.CommentCreated(&problem, user.ID, user.Name)
		e.broadcastMessage(WsMessage{Type: "score", Data: gin.H{
			"id":            problem.ID,
			"commentsCount": problem.CommentsCount,
			"signalScore":   problem.SignalScore,
		}})
	}

	c.JSON(http.StatusCreated, comment)
}

func (e *Env) GetComments(c *gin.Context) {
	user := optionalUser(c)
	problemID := c.Param("id")

	var comments []models.Comment
	if err := e.DB.Where("problem_id = ?", problemID).
		Order("helpful_count desc, created_at asc").
		Limit(100).
		Find(&comments).Error; err != nil {
		log.Printf("Error fetching comments: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch comments"})
		return
	}

	marked := map[string]bool{}
	if user != nil && len(comments) > 0 {
		ids := make([]string, len(comments))
		for i, cm := range comments {
			ids[i] = cm.ID
		}
		var edges []models.Helpful
		if err := e.DB.Where("user_id = ? AND comment_id IN ?", user.ID, ids).
			Find(&edges).Error; err != nil {
			log.Printf("Error fetching helpful marks: %v", err)
		}
		for _, edge := range edges {
			marked[edge.CommentID] = true
		}
	}

	type commentResponse struct {
		models.Comment
		UserMarkedHelpful bool `json:"userMarkedHelpful"`
	}
	out := make([]commentResponse, len(comments))
	for i, cm := range comments {
		out[i] = commentResponse{Comment: cm, UserMarkedHelpful: marked[cm.ID]}
	}
	c.JSON(http.StatusOK, out)
}

func (e *Env) MarkCommentHelpful(c *gin.Context) {
	user := currentUser(c)

	count, err := e.Engage.MarkHelpful(c.Param("id"), user.ID)
	if err != nil {
		engageError(c, err, "Comment not found", "Already marked as helpful")
		return
	}
	c.JSON(http.StatusOK, gin.H{"helpfulCount": count})
}

func (e *Env) UnmarkCommentHelpful(c *gin.Context) {
	user := currentUser(c)

	count, err := e.Engage.UnmarkHelpful(c.Param("id"), user.ID)
	if err != nil {
		engageError(c, err, "Not marked as helpful", "")
		return
	}
	c.JSON(http.StatusOK, gin.H{"helpfulCount": count})
}

func (e *Env) ReportProblem(c *gin.Context) {
	user := currentUser(c)
	problemID := c.Param("id")

	result, err := e.Engage.Report(problemID, user.ID)
	if err != nil {
		engageError(c, err, "Problem not found", "Already reported this problem")
		return
	}

	if result.Hidden {
		e.broadcastMessage(WsMessage{Type: "hidden", Data: gin.H{"id": problemID}})
	}
	c.JSON(http.StatusOK, gin.H{"reported": true, "isHidden": result.Hidden})
}

// --- save / follow bookkeeping on the user record ---

func (e *Env) saveUserList(c *gin.Context, column string, list models.StringList, payload gin.H) {
	user := currentUser(c)
	if err := e.DB.Model(&models.User{}).Where("id = ?", user.ID).
		Update(column, list).Error; err != nil {
		log.Printf("Error updating %s for %s: %v", column, user.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update"})
		return
	}
	c.JSON(http.StatusOK, payload)
}

func (e *Env) SaveProblem(c *gin.Context) {
	user := currentUser(c)
	e.saveUserList(c, "saved_problems", user.SavedProblems.Add(c.Param("id")), gin.H{"saved": true})
}

func (e *Env) UnsaveProblem(c *gin.Context) {
	user := currentUser(c)
	e.saveUserList(c, "saved_problems", user.SavedProblems.Remove(c.Param("id")), gin.H{"saved": false})
}

func (e *Env) FollowProblem(c *gin.Context) {
	user := currentUser(c)
	e.saveUserList(c, "followed_problems", user.FollowedProblems.Add(c.Param("id")), gin.H{"following": true})
}

func (e *Env) UnfollowProblem(c *gin.Context) {
	user := currentUser(c)
	e.saveUserList(c, "followed_problems", user.FollowedProblems.Remove(c.Param("id")), gin.H{"following": false})
}

func (e *Env) FollowCategory(c *gin.Context) {
	user := currentUser(c)
	e.saveUserList(c, "followed_categories", user.FollowedCategories.Add(c.Param("id")), gin.H{"following": true})
}

func (e *Env) UnfollowCategory(c *gin.Context) {
	user := currentUser(c)
	e.saveUserList(c, "followed_categories", user.FollowedCategories.Remove(c.Param("id")), gin.H{"following": false})
}

func (e *Env) BlockUser(c *gin.Context) {
	user := currentUser(c)
	e.saveUserList(c, "blocked_users", user.BlockedUsers.Add(c.Param("id")), gin.H{"blocked": true})
}

func (e *Env) UnblockUser(c *gin.Context) {
	user := currentUser(c)
	e.saveUserList(c, "blocked_users", user.BlockedUsers.Remove(c.Param("id")), gin.H{"blocked": false})
}

// --- notifications ---

func (e *Env) GetNotifications(c *gin.Context) {
	user := currentUser(c)
	notifications, unread, err := e.Notify.List(user.ID, intQuery(c, "limit", 50))
	if err != nil {
		log.Printf("Error fetching notifications: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch notifications"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"notifications": notifications, "unreadCount": unread})
}

func (e *Env) MarkNotificationsRead(c *gin.Context) {
	user := currentUser(c)
	if err := e.Notify.MarkAllRead(user.ID); err != nil {
		log.Printf("Error marking notifications read: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update notifications"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (e *Env) MarkNotificationRead(c *gin.Context) {
	user := currentUser(c)
	if err := e.Notify.MarkRead(user.ID, c.Param("id")); err != nil {
		log.Printf("Error marking notification read: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update notification"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// --- user surfaces ---

func (e *Env) GetUserStats(c *gin.Context) {
	userID := c.Param("id")

	var user models.User
	if err := e.DB.First(&user, "id = ?", userID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	var posts, comments, relates int64
	e.DB.Model(&models.Problem{}).Where("user_id = ?", userID).Count(&posts)
	e.DB.Model(&models.Comment{}).Where("user_id = ?", userID).Count(&comments)
	e.DB.Model(&models.Relate{}).Where("user_id = ?", userID).Count(&relates)

	c.JSON(http.StatusOK, gin.H{
		"postsCount":    posts,
		"commentsCount": comments,
		"relatesCount":  relates,
		"streakDays":    user.StreakDays,
	})
}

func (e *Env) GetSavedProblems(c *gin.Context) {
	user := currentUser(c)
	if len(user.SavedProblems) == 0 {
		c.JSON(http.StatusOK, []ProblemResponse{})
		return
	}

	var problems []models.Problem
	if err := e.DB.Where("id IN ?", []string(user.SavedProblems)).
		Find(&problems).Error; err != nil {
		log.Printf("Error fetching saved problems: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch saved problems"})
		return
	}
	c.JSON(http.StatusOK, e.decorateProblems(problems, user))
}

func (e *Env) GetMyPosts(c *gin.Context) {
	user := currentUser(c)

	var problems []models.Problem
	if err := e.DB.Where("user_id = ?", user.ID).
		Order("created_at desc").
		Find(&problems).Error; err != nil {
		log.Printf("Error fetching own posts: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch posts"})
		return
	}
	c.JSON(http.StatusOK, e.decorateProblems(problems, user))
}
