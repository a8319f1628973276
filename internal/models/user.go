package models

import (
	"time"
)

// StringList is stored as a JSON column. The per-user lists (followed
// categories, saved problems, and so on) are small and always read with
// the user row, so a join table per list would buy nothing.
type StringList []string

// User account. PasswordHash is a bcrypt hash and never serialized.
type User struct {
	ID           string `gorm:"primarykey;size:36" json:"id"`
	Email        string `gorm:"not null;uniqueIndex" json:"email"`
	Name         string `gorm:"not null" json:"name"`
	PasswordHash string `gorm:"not null" json:"-"`

	// Daily posting quota bookkeeping.
	PostsToday   int    `gorm:"not null;default:0" json:"-"`
	LastPostDate string `gorm:"size:10" json:"-"`
	StreakDays   int    `gorm:"not null;default:0" json:"streakDays"`

	FollowedCategories StringList `gorm:"serializer:json" json:"followedCategories"`
	FollowedProblems   StringList `gorm:"serializer:json" json:"followedProblems"`
	SavedProblems      StringList `gorm:"serializer:json" json:"savedProblems"`
	BlockedUsers       StringList `gorm:"serializer:json" json:"-"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Contains reports whether v is in the list.
func (l StringList) Contains(v string) bool {
	for _, s := range l {
		if s == v {
			return true
		}
	}
	return false
}

// Add returns the list with v appended if not already present.
func (l StringList) Add(v string) StringList {
	if l.Contains(v) {
		return l
	}
	return append(l, v)
}

// Remove returns the list without v.
func (l StringList) Remove(v string) StringList {
	out := l[:0]
	for _, s := range l {
		if s != v {
			out = append(out, s)
		}
	}
	return out
}
