package models

import (
	"time"
)

// Problem lifecycle states. Hidden and removed problems are excluded from
// every feed and similarity query; only an admin moves a problem out of
// hidden.
const (
	StatusActive  = "active"
	StatusHidden  = "hidden"
	StatusRemoved = "removed"
)

// Frequency classes accepted on problem submission.
var FrequencyOptions = []string{"daily", "weekly", "monthly", "rare"}

// Problem is a user-submitted pain point, the unit that gets ranked.
//
// The engagement counters (relates_count, comments_count, unique_commenters,
// reports_count) are only ever mutated through atomic column updates in the
// engage package; signal_score is a cached value recomputed from the latest
// persisted counters after every mutation.
type Problem struct {
	ID           string `gorm:"primarykey;size:36" json:"id"`
	UserID       string `gorm:"size:36;not null;index" json:"userId"`
	UserName     string `gorm:"not null" json:"userName"`
	Title        string `gorm:"not null" json:"title"`
	CategoryID   string `gorm:"not null;index" json:"categoryId"`
	Frequency    string `gorm:"not null" json:"frequency"`
	PainLevel    int    `gorm:"not null" json:"painLevel"`
	WillingToPay string `gorm:"default:'$0'" json:"willingToPay"`
	WhenHappens  string `json:"whenHappens"`
	WhoAffected  string `json:"whoAffected"`
	WhatTried    string `json:"whatTried"`

	RelatesCount     int     `gorm:"not null;default:0" json:"relatesCount"`
	CommentsCount    int     `gorm:"not null;default:0" json:"commentsCount"`
	UniqueCommenters int     `gorm:"not null;default:0" json:"uniqueCommenters"`
	ReportsCount     int     `gorm:"not null;default:0" json:"reportsCount"`
	SignalScore      float64 `gorm:"not null;default:0;index" json:"signalScore"`

	Status       string  `gorm:"not null;default:'active';index" json:"status"`
	IsPinned     bool    `gorm:"not null;default:false" json:"isPinned"`
	NeedsContext bool    `gorm:"not null;default:false" json:"needsContext"`
	MergedInto   *string `gorm:"size:36" json:"mergedInto,omitempty"`

	CreatedAt time.Time `gorm:"index" json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Relate is a (user, problem) engagement edge: "this problem is mine too".
// At most one edge per pair, enforced by the unique index.
type Relate struct {
	ID        string    `gorm:"primarykey;size:36" json:"id"`
	ProblemID string    `gorm:"size:36;not null;uniqueIndex:idx_relate_user_problem" json:"problemId"`
	UserID    string    `gorm:"size:36;not null;uniqueIndex:idx_relate_user_problem" json:"userId"`
	CreatedAt time.Time `json:"createdAt"`
}

// Comment on a problem. HelpfulCount mirrors the Helpful edges the same way
// the problem counters mirror Relate edges.
type Comment struct {
	ID           string    `gorm:"primarykey;size:36" json:"id"`
	ProblemID    string    `gorm:"size:36;not null;index" json:"problemId"`
	UserID       string    `gorm:"size:36;not null;index" json:"userId"`
	UserName     string    `gorm:"not null" json:"userName"`
	Content      string    `gorm:"not null" json:"content"`
	HelpfulCount int       `gorm:"not null;default:0" json:"helpfulCount"`
	IsPinned     bool      `gorm:"not null;default:false" json:"isPinned"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Helpful is a (user, comment) edge, unique per pair.
type Helpful struct {
	ID        string    `gorm:"primarykey;size:36" json:"id"`
	CommentID string    `gorm:"size:36;not null;uniqueIndex:idx_helpful_user_comment" json:"commentId"`
	UserID    string    `gorm:"size:36;not null;uniqueIndex:idx_helpful_user_comment" json:"userId"`
	CreatedAt time.Time `json:"createdAt"`
}

// Report is a (reporter, problem) edge. One report per reporter per problem;
// the third distinct reporter trips the auto-hide threshold.
type Report struct {
	ID        string    `gorm:"primarykey;size:36" json:"id"`
	ProblemID string    `gorm:"size:36;not null;uniqueIndex:idx_report_user_problem" json:"problemId"`
	UserID    string    `gorm:"size:36;not null;uniqueIndex:idx_report_user_problem" json:"userId"`
	CreatedAt time.Time `json:"createdAt"`
}

// Notification types.
const (
	NotifyNewComment = "new_comment"
	NotifyNewRelate  = "new_relate"
)

// Notification is an in-app message for a user about activity on a problem.
type Notification struct {
	ID        string    `gorm:"primarykey;size:36" json:"id"`
	UserID    string    `gorm:"size:36;not null;index" json:"userId"`
	Type      string    `gorm:"not null" json:"type"`
	ProblemID string    `gorm:"size:36;not null" json:"problemId"`
	Message   string    `gorm:"not null" json:"message"`
	IsRead    bool      `gorm:"not null;default:false" json:"isRead"`
	CreatedAt time.Time `json:"createdAt"`
}

// AuditEntry records who performed an administrative override and on what.
// The automatic report-threshold transition is not audited here; only human
// actions are.
type AuditEntry struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	Actor     string    `gorm:"not null" json:"actor"`
	Action    string    `gorm:"not null" json:"action"`
	ProblemID string    `gorm:"size:36;not null;index" json:"problemId"`
	Detail    string    `json:"detail"`
	CreatedAt time.Time `json:"createdAt"`
}

// All returns every model registered for migration.
func All() []any {
	return []any{
		&User{},
		&Problem{},
		&Relate{},
		&Comment{},
		&Helpful{},
		&Report{},
		&Notification{},
		&AuditEntry{},
	}
}
