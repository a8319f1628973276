package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/karolisbudreckas92-sys/frikt-backend/internal/auth"
	"github.com/karolisbudreckas92-sys/frikt-backend/internal/engage"
	"github.com/karolisbudreckas92-sys/frikt-backend/internal/models"
	"github.com/karolisbudreckas92-sys/frikt-backend/internal/notify"
	"github.com/karolisbudreckas92-sys/frikt-backend/internal/ws"
)

const testSecret = "test-signing-secret"

func setupServer(t *testing.T) (*gin.Engine, *Env) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	t.Setenv("X_ADMIN_TOKEN", "admin-token")

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("db handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	if err := db.AutoMigrate(models.All()...); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	hub := ws.NewHub()
	go hub.Run()

	env := &Env{
		DB:        db,
		Hub:       hub,
		Engage:    engage.NewService(db),
		Notify:    notify.NewService(db),
		JWTSecret: []byte(testSecret),
	}
	router := gin.New()
	SetupRoutes(router, env)
	return router, env
}

func seedUser(t *testing.T, env *Env, email string) (*models.User, string) {
	t.Helper()
	hash, err := auth.HashPassword("password123")
	if err != nil {
		t.Fatal(err)
	}
	user := &models.User{
		ID:           uuid.NewString(),
		Email:        email,
		Name:         strings.Split(email, "@")[0],
		PasswordHash: hash,
	}
	if err := env.DB.Create(user).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}
	token, err := auth.GenerateToken(user.ID, env.JWTSecret)
	if err != nil {
		t.Fatal(err)
	}
	return user, token
}

func seedProblem(t *testing.T, env *Env, author *models.User, title string) *models.Problem {
	t.Helper()
	p := &models.Problem{
		ID:         uuid.NewString(),
		UserID:     author.ID,
		UserName:   author.Name,
		Title:      title,
		CategoryID: "tech",
		Frequency:  "daily",
		PainLevel:  4,
		Status:     models.StatusActive,
		CreatedAt:  time.Now(),
	}
	if err := env.DB.Create(p).Error; err != nil {
		t.Fatalf("seed problem: %v", err)
	}
	return p
}

func doJSON(router *gin.Engine, method, path, token string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestRegisterAndLogin(t *testing.T) {
	router, _ := setupServer(t)

	w := doJSON(router, "POST", "/api/auth/register", "", gin.H{
		"email":    "ada@example.com",
		"name":     "Ada",
		"password": "password123",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("register status = %d, body %s", w.Code, w.Body.String())
	}

	// Duplicate email is rejected.
	w = doJSON(router, "POST", "/api/auth/register", "", gin.H{
		"email":    "ada@example.com",
		"name":     "Ada Again",
		"password": "password123",
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("duplicate register status = %d", w.Code)
	}

	w = doJSON(router, "POST", "/api/auth/login", "", gin.H{
		"email":    "ada@example.com",
		"password": "password123",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("login status = %d, body %s", w.Code, w.Body.String())
	}
	var resp TokenResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.AccessToken == "" {
		t.Fatal("login returned no token")
	}

	w = doJSON(router, "GET", "/api/auth/me", resp.AccessToken, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("me status = %d", w.Code)
	}

	w = doJSON(router, "POST", "/api/auth/login", "", gin.H{
		"email":    "ada@example.com",
		"password": "wrong-password",
	})
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("bad login status = %d", w.Code)
	}
}

func TestRelateRequiresAuth(t *testing.T) {
	router, env := setupServer(t)
	author, _ := seedUser(t, env, "author@example.com")
	p := seedProblem(t, env, author, "The printer jams on every second page")

	w := doJSON(router, "POST", "/api/problems/"+p.ID+"/relate", "", nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}
}

func TestRelateConflictAndNotFoundDistinct(t *testing.T) {
	router, env := setupServer(t)
	author, _ := seedUser(t, env, "author@example.com")
	_, token := seedUser(t, env, "fan@example.com")
	p := seedProblem(t, env, author, "The printer jams on every second page")

	if w := doJSON(router, "POST", "/api/problems/"+p.ID+"/relate", token, nil); w.Code != http.StatusOK {
		t.Fatalf("relate status = %d, body %s", w.Code, w.Body.String())
	}
	if w := doJSON(router, "POST", "/api/problems/"+p.ID+"/relate", token, nil); w.Code != http.StatusConflict {
		t.Fatalf("duplicate relate status = %d, want 409", w.Code)
	}
	if w := doJSON(router, "POST", "/api/problems/missing/relate", token, nil); w.Code != http.StatusNotFound {
		t.Fatalf("missing target status = %d, want 404", w.Code)
	}
}

func TestTrendingFeedEndpoint(t *testing.T) {
	router, env := setupServer(t)
	author, _ := seedUser(t, env, "author@example.com")

	low := seedProblem(t, env, author, "Minor annoyance with cables")
	high := seedProblem(t, env, author, "Laptop dies in meetings constantly")
	env.DB.Model(low).UpdateColumn("signal_score", 3.0)
	env.DB.Model(high).UpdateColumn("signal_score", 42.0)

	w := doJSON(router, "GET", "/api/problems?feed=trending", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var got []ProblemResponse
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0].ID != high.ID {
		t.Fatalf("trending order wrong: %+v", got)
	}
}

func TestSimilarEndpointShortTitle(t *testing.T) {
	router, env := setupServer(t)
	author, _ := seedUser(t, env, "author@example.com")
	seedProblem(t, env, author, "hi there everyone")

	w := doJSON(router, "GET", "/api/problems/similar?title=hi", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var got []gin.H
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	if len(got) != 0 {
		t.Fatalf("short title returned %d results, want 0", len(got))
	}
}

func TestReportEndpointHidesAtThreshold(t *testing.T) {
	router, env := setupServer(t)
	author, _ := seedUser(t, env, "author@example.com")
	p := seedProblem(t, env, author, "Spam disguised as a problem post")

	for i, email := range []string{"r1@example.com", "r2@example.com", "r3@example.com"} {
		_, token := seedUser(t, env, email)
		w := doJSON(router, "POST", "/api/problems/"+p.ID+"/report", token, nil)
		if w.Code != http.StatusOK {
			t.Fatalf("report %d status = %d, body %s", i+1, w.Code, w.Body.String())
		}
	}

	var got models.Problem
	if err := env.DB.First(&got, "id = ?", p.ID).Error; err != nil {
		t.Fatal(err)
	}
	if got.Status != models.StatusHidden {
		t.Fatalf("status after 3 reports = %q, want hidden", got.Status)
	}

	// A hidden problem disappears from the feed.
	w := doJSON(router, "GET", "/api/problems", "", nil)
	var feedItems []ProblemResponse
	if err := json.Unmarshal(w.Body.Bytes(), &feedItems); err != nil {
		t.Fatal(err)
	}
	if len(feedItems) != 0 {
		t.Fatalf("hidden problem still in feed: %+v", feedItems)
	}
}

func TestAdminAuth(t *testing.T) {
	router, env := setupServer(t)
	author, _ := seedUser(t, env, "author@example.com")
	p := seedProblem(t, env, author, "Needs an admin decision eventually")

	req := httptest.NewRequest("POST", "/api/admin/problems/"+p.ID+"/status", strings.NewReader(`{"status":"hidden"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("no token status = %d, want 401", w.Code)
	}

	req = httptest.NewRequest("POST", "/api/admin/problems/"+p.ID+"/status", strings.NewReader(`{"status":"hidden"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Admin-Token", "wrong")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusForbidden {
		t.Fatalf("wrong token status = %d, want 403", w.Code)
	}

	req = httptest.NewRequest("POST", "/api/admin/problems/"+p.ID+"/status", strings.NewReader(`{"status":"hidden"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Admin-Token", "admin-token")
	req.Header.Set("X-Admin-Actor", "karolis")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("valid token status = %d, body %s", w.Code, w.Body.String())
	}

	var entry models.AuditEntry
	if err := env.DB.First(&entry, "problem_id = ?", p.ID).Error; err != nil {
		t.Fatalf("audit entry missing: %v", err)
	}
	if entry.Actor != "karolis" || entry.Action != "set_status" {
		t.Errorf("audit entry = %+v", entry)
	}
}

func TestAdminMergeEndpoint(t *testing.T) {
	router, env := setupServer(t)
	author, _ := seedUser(t, env, "author@example.com")
	canonical := seedProblem(t, env, author, "Wifi drops every time the microwave runs")
	dup := seedProblem(t, env, author, "Microwave kills the wifi connection")
	env.DB.Model(canonical).UpdateColumn("relates_count", 10)
	env.DB.Model(dup).UpdateColumn("relates_count", 5)

	req := httptest.NewRequest("POST", "/api/admin/problems/"+dup.ID+"/merge",
		strings.NewReader(`{"into":"`+canonical.ID+`"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Admin-Token", "admin-token")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("merge status = %d, body %s", w.Code, w.Body.String())
	}

	var got models.Problem
	if err := env.DB.First(&got, "id = ?", canonical.ID).Error; err != nil {
		t.Fatal(err)
	}
	if got.RelatesCount != 15 {
		t.Errorf("canonical relates_count = %d, want 15", got.RelatesCount)
	}
}
