package models

import (
	"time"
)

type Post struct {
	ID        string     `json:"id" gorm:"primaryKey;size:191"`
	UserID    string     `json:"user_id" gorm:"not null;index;size:191"`
	Caption   string     `json:"caption" gorm:"type:text"`
	Media     MediaSlice `json:"media" gorm:"type:json"`
	Edited    bool       `json:"edited" gorm:"default:false"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`

	User      User           `json:"user" gorm:"foreignKey:UserID"`
	Comments  []Comment      `json:"comments" gorm:"foreignKey:PostID"`
	Reactions []PostReaction `json:"reactions" gorm:"foreignKey:PostID"`
}

// PostReaction is one user's vote on a post. A (post_id, user_id) unique
// constraint keeps a user out of both sets at once: flipping direction
// rewrites the row instead of adding a second one.
type PostReaction struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	PostID    string    `json:"post_id" gorm:"not null;index;size:191"`
	UserID    string    `json:"user_id" gorm:"not null;size:191"`
	Up        bool      `json:"up"`
	CreatedAt time.Time `json:"created_at"`
}
