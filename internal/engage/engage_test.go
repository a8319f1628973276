package engage

import (
	"errors"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/karolisbudreckas92-sys/frikt-backend/internal/models"
)

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	// One connection: every pooled connection to :memory: would otherwise
	// get its own database.
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("db handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	if err := db.AutoMigrate(models.All()...); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func seedProblem(t *testing.T, db *gorm.DB) *models.Problem {
	t.Helper()
	p := &models.Problem{
		ID:         uuid.NewString(),
		UserID:     "author-1",
		UserName:   "Author",
		Title:      "Grocery receipts are impossible to track",
		CategoryID: "money",
		Frequency:  "weekly",
		PainLevel:  3,
		Status:     models.StatusActive,
		CreatedAt:  time.Now(),
	}
	if err := db.Create(p).Error; err != nil {
		t.Fatalf("seed problem: %v", err)
	}
	return p
}

func reload(t *testing.T, db *gorm.DB, id string) *models.Problem {
	t.Helper()
	var p models.Problem
	if err := db.First(&p, "id = ?", id).Error; err != nil {
		t.Fatalf("reload problem: %v", err)
	}
	return &p
}

func TestRelateBumpsCounterAndScore(t *testing.T) {
	db := testDB(t)
	svc := NewService(db)
	p := seedProblem(t, db)

	got, err := svc.Relate(p.ID, "user-1")
	if err != nil {
		t.Fatalf("Relate: %v", err)
	}
	if got.RelatesCount != 1 {
		t.Errorf("relates_count = %d, want 1", got.RelatesCount)
	}
	// base = 1*2 + pain 3 * weekly 3 = 11, fresh so decay ~1.
	if got.SignalScore < 10.9 || got.SignalScore > 11.0 {
		t.Errorf("signal_score = %v, want ~11", got.SignalScore)
	}
}

func TestRelateDuplicateConflicts(t *testing.T) {
	db := testDB(t)
	svc := NewService(db)
	p := seedProblem(t, db)

	if _, err := svc.Relate(p.ID, "user-1"); err != nil {
		t.Fatalf("first relate: %v", err)
	}
	if _, err := svc.Relate(p.ID, "user-1"); !errors.Is(err, ErrConflict) {
		t.Fatalf("duplicate relate err = %v, want ErrConflict", err)
	}
	if got := reload(t, db, p.ID); got.RelatesCount != 1 {
		t.Errorf("relates_count after duplicate = %d, want 1", got.RelatesCount)
	}
}

func TestRelateMissingProblem(t *testing.T) {
	db := testDB(t)
	svc := NewService(db)

	if _, err := svc.Relate("nope", "user-1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
	var edges int64
	db.Model(&models.Relate{}).Count(&edges)
	if edges != 0 {
		t.Errorf("orphan edges created: %d", edges)
	}
}

func TestUnrelateNeverGoesNegative(t *testing.T) {
	db := testDB(t)
	svc := NewService(db)
	p := seedProblem(t, db)

	if _, err := svc.Relate(p.ID, "user-1"); err != nil {
		t.Fatalf("relate: %v", err)
	}
	if _, err := svc.Unrelate(p.ID, "user-1"); err != nil {
		t.Fatalf("unrelate: %v", err)
	}
	// Excess unrelates fail on the missing edge, not on the counter.
	for i := 0; i < 3; i++ {
		if _, err := svc.Unrelate(p.ID, "user-1"); !errors.Is(err, ErrNotFound) {
			t.Fatalf("excess unrelate err = %v, want ErrNotFound", err)
		}
	}
	if got := reload(t, db, p.ID); got.RelatesCount != 0 {
		t.Errorf("relates_count = %d, want 0", got.RelatesCount)
	}
}

func TestCounterClampAtZero(t *testing.T) {
	db := testDB(t)
	svc := NewService(db)
	p := seedProblem(t, db)

	// Drive the raw decrement directly; even against a zero counter it must
	// clamp rather than underflow.
	if err := svc.bump(p.ID, "relates_count", -1); err != nil {
		t.Fatalf("bump: %v", err)
	}
	if got := reload(t, db, p.ID); got.RelatesCount != 0 {
		t.Errorf("relates_count = %d, want 0", got.RelatesCount)
	}
}

func TestUniqueCommenterCountedOnce(t *testing.T) {
	db := testDB(t)
	svc := NewService(db)
	p := seedProblem(t, db)

	if _, err := svc.AddComment(p.ID, "user-1", "U1", "happens to me every single week"); err != nil {
		t.Fatalf("first comment: %v", err)
	}
	if _, err := svc.AddComment(p.ID, "user-1", "U1", "and twice during the holidays"); err != nil {
		t.Fatalf("second comment: %v", err)
	}

	got := reload(t, db, p.ID)
	if got.CommentsCount != 2 {
		t.Errorf("comments_count = %d, want 2", got.CommentsCount)
	}
	if got.UniqueCommenters != 1 {
		t.Errorf("unique_commenters = %d, want 1", got.UniqueCommenters)
	}

	if _, err := svc.AddComment(p.ID, "user-2", "U2", "same here, drives me up the wall"); err != nil {
		t.Fatalf("third comment: %v", err)
	}
	got = reload(t, db, p.ID)
	if got.CommentsCount != 3 || got.UniqueCommenters != 2 {
		t.Errorf("counts = (%d, %d), want (3, 2)", got.CommentsCount, got.UniqueCommenters)
	}
}

func TestHelpfulMarkUnique(t *testing.T) {
	db := testDB(t)
	svc := NewService(db)
	p := seedProblem(t, db)

	c, err := svc.AddComment(p.ID, "user-1", "U1", "try exporting the statement weekly")
	if err != nil {
		t.Fatalf("comment: %v", err)
	}

	n, err := svc.MarkHelpful(c.ID, "user-2")
	if err != nil || n != 1 {
		t.Fatalf("MarkHelpful = (%d, %v), want (1, nil)", n, err)
	}
	if _, err := svc.MarkHelpful(c.ID, "user-2"); !errors.Is(err, ErrConflict) {
		t.Fatalf("duplicate helpful err = %v, want ErrConflict", err)
	}
	n, err = svc.UnmarkHelpful(c.ID, "user-2")
	if err != nil || n != 0 {
		t.Fatalf("UnmarkHelpful = (%d, %v), want (0, nil)", n, err)
	}
	if _, err := svc.UnmarkHelpful(c.ID, "user-2"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("excess unmark err = %v, want ErrNotFound", err)
	}
}

func TestReportThresholdHides(t *testing.T) {
	db := testDB(t)
	svc := NewService(db)
	p := seedProblem(t, db)

	for i, reporter := range []string{"r1", "r2"} {
		res, err := svc.Report(p.ID, reporter)
		if err != nil {
			t.Fatalf("report %d: %v", i+1, err)
		}
		if res.Hidden {
			t.Fatalf("hidden after %d reports", i+1)
		}
	}
	if got := reload(t, db, p.ID); got.Status != models.StatusActive {
		t.Fatalf("status after 2 reports = %q, want active", got.Status)
	}

	res, err := svc.Report(p.ID, "r3")
	if err != nil {
		t.Fatalf("third report: %v", err)
	}
	if !res.Hidden || res.ReportsCount != 3 {
		t.Errorf("result = %+v, want hidden with 3 reports", res)
	}
	if got := reload(t, db, p.ID); got.Status != models.StatusHidden {
		t.Errorf("status = %q, want hidden", got.Status)
	}
}

func TestReportSameReporterConflicts(t *testing.T) {
	db := testDB(t)
	svc := NewService(db)
	p := seedProblem(t, db)

	if _, err := svc.Report(p.ID, "r1"); err != nil {
		t.Fatalf("report: %v", err)
	}
	if _, err := svc.Report(p.ID, "r1"); !errors.Is(err, ErrConflict) {
		t.Fatalf("duplicate report err = %v, want ErrConflict", err)
	}
	if got := reload(t, db, p.ID); got.ReportsCount != 1 {
		t.Errorf("reports_count = %d, want 1", got.ReportsCount)
	}
}

func TestMergeTransfersCountersNotScore(t *testing.T) {
	db := testDB(t)
	svc := NewService(db)
	canonical := seedProblem(t, db)
	dup := seedProblem(t, db)

	if err := db.Model(canonical).UpdateColumn("relates_count", 10).Error; err != nil {
		t.Fatal(err)
	}
	if err := db.Model(dup).Updates(map[string]any{
		"relates_count": 5,
		"signal_score":  999.0,
	}).Error; err != nil {
		t.Fatal(err)
	}

	got, err := svc.Merge(dup.ID, canonical.ID, "mod-1")
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}
	if got.RelatesCount != 15 {
		t.Errorf("canonical relates_count = %d, want 15", got.RelatesCount)
	}
	// Recomputed from counters (15*2 + pain 3 * weekly 3 = 39), never the
	// duplicate's stale score.
	if got.SignalScore < 38.9 || got.SignalScore > 39.0 {
		t.Errorf("canonical signal_score = %v, want ~39", got.SignalScore)
	}

	d := reload(t, db, dup.ID)
	if d.Status != models.StatusHidden {
		t.Errorf("duplicate status = %q, want hidden", d.Status)
	}
	if d.MergedInto == nil || *d.MergedInto != canonical.ID {
		t.Errorf("duplicate merged_into = %v, want %q", d.MergedInto, canonical.ID)
	}

	var audits int64
	db.Model(&models.AuditEntry{}).Where("action = ?", "merge").Count(&audits)
	if audits != 1 {
		t.Errorf("merge audit entries = %d, want 1", audits)
	}
}

func TestMergeIntoSelfInvalid(t *testing.T) {
	db := testDB(t)
	svc := NewService(db)
	p := seedProblem(t, db)

	if _, err := svc.Merge(p.ID, p.ID, "mod-1"); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("err = %v, want ErrInvalidInput", err)
	}
}

func TestRecomputeIsIdempotent(t *testing.T) {
	db := testDB(t)
	svc := NewService(db)
	fixed := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return fixed }

	p := seedProblem(t, db)
	if err := db.Model(p).UpdateColumn("relates_count", 4).Error; err != nil {
		t.Fatal(err)
	}

	a, err := svc.RecomputeScore(p.ID)
	if err != nil {
		t.Fatalf("recompute: %v", err)
	}
	b, err := svc.RecomputeScore(p.ID)
	if err != nil {
		t.Fatalf("recompute: %v", err)
	}
	if a != b {
		t.Errorf("recompute not idempotent: %v then %v", a, b)
	}
}

func TestHardDeleteCascades(t *testing.T) {
	db := testDB(t)
	svc := NewService(db)
	p := seedProblem(t, db)

	if _, err := svc.Relate(p.ID, "user-1"); err != nil {
		t.Fatal(err)
	}
	c, err := svc.AddComment(p.ID, "user-2", "U2", "this one bites me too, weekly")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := svc.MarkHelpful(c.ID, "user-1"); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Report(p.ID, "user-3"); err != nil {
		t.Fatal(err)
	}

	if err := svc.HardDelete(p.ID, "admin"); err != nil {
		t.Fatalf("HardDelete: %v", err)
	}

	for _, probe := range []struct {
		name  string
		model any
	}{
		{"problems", &models.Problem{}},
		{"relates", &models.Relate{}},
		{"comments", &models.Comment{}},
		{"helpfuls", &models.Helpful{}},
		{"reports", &models.Report{}},
	} {
		var n int64
		db.Model(probe.model).Count(&n)
		if n != 0 {
			t.Errorf("%s left behind: %d rows", probe.name, n)
		}
	}
}
