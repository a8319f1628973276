package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/karolisbudreckas92-sys/frikt-backend/internal/engage"
	"github.com/karolisbudreckas92-sys/frikt-backend/internal/feed"
	"github.com/karolisbudreckas92-sys/frikt-backend/internal/models"
	"github.com/karolisbudreckas92-sys/frikt-backend/internal/notify"
	"github.com/karolisbudreckas92-sys/frikt-backend/internal/signal"
	"github.com/karolisbudreckas92-sys/frikt-backend/internal/ws"
)

const maxPostsPerDay = 3

// Env holds the dependencies every handler needs.
type Env struct {
	DB        *gorm.DB
	Hub       *ws.Hub
	Engage    *engage.Service
	Notify    *notify.Service
	JWTSecret []byte
}

// WsMessage is the JSON envelope pushed to feed subscribers.
type WsMessage struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

type CreateProblemInput struct {
	Title        string `json:"title" binding:"required,min=10"`
	CategoryID   string `json:"categoryId" binding:"required"`
	Frequency    string `json:"frequency" binding:"required,oneof=daily weekly monthly rare"`
	PainLevel    int    `json:"painLevel" binding:"required,gte=1,lte=5"`
	WillingToPay string `json:"willingToPay"`
	WhenHappens  string `json:"whenHappens" binding:"required,min=40"`
	WhoAffected  string `json:"whoAffected" binding:"required,min=40"`
	WhatTried    string `json:"whatTried" binding:"required,min=40"`
}

// ProblemResponse decorates a problem with catalog and viewer facts.
type ProblemResponse struct {
	models.Problem
	CategoryName    string `json:"categoryName"`
	CategoryColor   string `json:"categoryColor"`
	UserHasRelated  bool   `json:"userHasRelated"`
	UserHasSaved    bool   `json:"userHasSaved"`
	UserIsFollowing bool   `json:"userIsFollowing"`
}

func (e *Env) CreateProblem(c *gin.Context) {
	user := currentUser(c)

	var input CreateProblemInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
		return
	}

	category, ok := models.CategoryByID(input.CategoryID)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid category"})
		return
	}

	today := time.Now().UTC().Format("2006-01-02")
	if user.LastPostDate == today && user.PostsToday >= maxPostsPerDay {
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "Maximum 3 posts per day allowed"})
		return
	}

	if input.WillingToPay == "" {
		input.WillingToPay = "$0"
	}

	now := time.Now()
	problem := models.Problem{
		ID:           uuid.NewString(),
		UserID:       user.ID,
		UserName:     user.Name,
		Title:        input.Title,
		CategoryID:   input.CategoryID,
		Frequency:    input.Frequency,
		PainLevel:    input.PainLevel,
		WillingToPay: input.WillingToPay,
		WhenHappens:  input.WhenHappens,
		WhoAffected:  input.WhoAffected,
		WhatTried:    input.WhatTried,
		Status:       models.StatusActive,
		CreatedAt:    now,
		// All counters start at zero; the initial score is just pain x
		// frequency with no decay yet.
		SignalScore: signal.Score(signal.Counters{}, input.PainLevel, input.Frequency, now, now),
	}

	if err := e.DB.Create(&problem).Error; err != nil {
		log.Printf("Error creating problem: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create problem"})
		return
	}

	quota := map[string]any{"posts_today": 1, "last_post_date": today}
	switch user.LastPostDate {
	case today:
		quota["posts_today"] = gorm.Expr("posts_today + 1")
	case time.Now().UTC().AddDate(0, 0, -1).Format("2006-01-02"):
		// Posted yesterday too: the streak continues.
		quota["streak_days"] = gorm.Expr("streak_days + 1")
	default:
		quota["streak_days"] = 1
	}
	if err := e.DB.Model(&models.User{}).Where("id = ?", user.ID).Updates(quota).Error; err != nil {
		log.Printf("Error updating post quota for %s: %v", user.ID, err)
	}

	e.broadcastMessage(WsMessage{Type: "new_problem", Data: problem})

	c.JSON(http.StatusCreated, ProblemResponse{
		Problem:       problem,
		CategoryName:  category.Name,
		CategoryColor: category.Color,
	})
}

func (e *Env) GetProblems(c *gin.Context) {
	user := optionalUser(c)

	q := feed.Query{
		Mode:       c.DefaultQuery("feed", feed.ModeNew),
		CategoryID: c.Query("category_id"),
		Search:     c.Query("search"),
		Limit:      intQuery(c, "limit", 50),
		Skip:       intQuery(c, "skip", 0),
	}

	var viewer *feed.Viewer
	if user != nil {
		viewer = &feed.Viewer{
			ID:                 user.ID,
			FollowedCategories: user.FollowedCategories,
			FollowedProblems:   user.FollowedProblems,
			BlockedUsers:       user.BlockedUsers,
		}
	}

	problems, err := feed.Problems(e.DB, q, viewer)
	if err != nil {
		log.Printf("Error fetching %s feed: %v", q.Mode, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch problems"})
		return
	}

	c.JSON(http.StatusOK, e.decorateProblems(problems, user))
}

func (e *Env) GetProblem(c *gin.Context) {
	user := optionalUser(c)

	var problem models.Problem
	if err := e.DB.First(&problem, "id = ?", c.Param("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Problem not found"})
			return
		}
		log.Printf("Error fetching problem: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch problem"})
		return
	}

	c.JSON(http.StatusOK, e.decorateProblems([]models.Problem{problem}, user)[0])
}

func (e *Env) GetSimilarProblems(c *gin.Context) {
	problems, err := feed.Similar(e.DB, c.Query("title"), intQuery(c, "limit", 3))
	if err != nil {
		log.Printf("Error searching similar problems: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to search problems"})
		return
	}

	results := make([]gin.H, 0, len(problems))
	for _, p := range problems {
		category, _ := models.CategoryByID(p.CategoryID)
		results = append(results, gin.H{
			"id":            p.ID,
			"title":         p.Title,
			"relatesCount":  p.RelatesCount,
			"commentsCount": p.CommentsCount,
			"categoryName":  category.Name,
			"categoryColor": category.Color,
		})
	}
	c.JSON(http.StatusOK, results)
}

func (e *Env) GetRelatedProblems(c *gin.Context) {
	problems, err := feed.Related(e.DB, c.Param("id"), intQuery(c, "limit", 5))
	if err != nil {
		if errors.Is(err, feed.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Problem not found"})
			return
		}
		log.Printf("Error fetching related problems: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch related problems"})
		return
	}

	results := make([]gin.H, 0, len(problems))
	for _, p := range problems {
		category, _ := models.CategoryByID(p.CategoryID)
		results = append(results, gin.H{
			"id":            p.ID,
			"title":         p.Title,
			"relatesCount":  p.RelatesCount,
			"categoryColor": category.Color,
		})
	}
	c.JSON(http.StatusOK, results)
}

func (e *Env) GetCategories(c *gin.Context) {
	c.JSON(http.StatusOK, models.Categories)
}

func (e *Env) GetMission(c *gin.Context) {
	day := int(time.Now().UTC().Weekday()) % len(models.Missions)
	c.JSON(http.StatusOK, models.Missions[day])
}

// decorateProblems attaches category data and, for a signed-in viewer,
// their relate/save/follow facts for each problem.
func (e *Env) decorateProblems(problems []models.Problem, user *models.User) []ProblemResponse {
	related := map[string]bool{}
	if user != nil && len(problems) > 0 {
		ids := make([]string, len(problems))
		for i, p := range problems {
			ids[i] = p.ID
		}
		var edges []models.Relate
		if err := e.DB.Where("user_id = ? AND problem_id IN ?", user.ID, ids).
			Find(&edges).Error; err != nil {
			log.Printf("Error fetching viewer relates: %v", err)
		}
		for _, edge := range edges {
			related[edge.ProblemID] = true
		}
	}

	out := make([]ProblemResponse, len(problems))
	for i, p := range problems {
		category, _ := models.CategoryByID(p.CategoryID)
		resp := ProblemResponse{
			Problem:       p,
			CategoryName:  category.Name,
			CategoryColor: category.Color,
		}
		if resp.CategoryColor == "" {
			resp.CategoryColor = "#666"
		}
		if user != nil {
			resp.UserHasRelated = related[p.ID]
			resp.UserHasSaved = user.SavedProblems.Contains(p.ID)
			resp.UserIsFollowing = user.FollowedProblems.Contains(p.ID)
		}
		out[i] = resp
	}
	return out
}

func (e *Env) broadcastMessage(msg WsMessage) {
	jsonMsg, err := json.Marshal(msg)
	if err != nil {
		log.Printf("Error marshalling WS message: %v", err)
		return
	}
	e.Hub.Broadcast <- jsonMsg
}

func intQuery(c *gin.Context, name string, fallback int) int {
	v, err := strconv.Atoi(c.Query(name))
	if err != nil {
		return fallback
	}
	return v
}
