package models

import (
	"strings"
	"time"
)

// User is the account record. The remote backend assigns it an opaque id and
// keeps the displayable identity in a separate Profile row keyed by that id.
type User struct {
	ID        string    `json:"id" gorm:"primaryKey;size:191"`
	Email     string    `json:"email" gorm:"uniqueIndex;not null;size:255"`
	Password  string    `json:"-" gorm:"not null;size:255"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Profile Profile `json:"profile" gorm:"foreignKey:UserID"`
	Posts   []Post  `json:"posts" gorm:"foreignKey:UserID"`
}

// Profile carries the public identity. Handle uniqueness is enforced by the
// storage layer, not checked client-side.
type Profile struct {
	UserID    string    `json:"user_id" gorm:"primaryKey;size:191"`
	Handle    string    `json:"handle" gorm:"uniqueIndex;not null;size:50"`
	Bio       string    `json:"bio" gorm:"size:500"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NormalizeHandle lowercases a handle and strips characters that would break
// @-mentions.
func NormalizeHandle(handle string) string {
	handle = strings.ToLower(strings.TrimSpace(handle))
	handle = strings.ReplaceAll(handle, " ", "_")
	handle = strings.ReplaceAll(handle, ".", "")
	handle = strings.ReplaceAll(handle, "-", "_")
	return handle
}
