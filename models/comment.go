package models

import (
	"time"
)

// Comment rows are stored flat per post. A reply is a comment whose ParentID
// points at another comment of the same post; older data instead carried a
// reply marker prefix inside the content string, which the feed package still
// decodes.
type Comment struct {
	ID        string    `json:"id" gorm:"primaryKey;size:191"`
	PostID    string    `json:"post_id" gorm:"not null;index;size:191"`
	UserID    string    `json:"user_id" gorm:"not null;index;size:191"`
	ParentID  *string   `json:"parent_id" gorm:"index;size:191"`
	Content   string    `json:"content" gorm:"type:text;not null"`
	Edited    bool      `json:"edited" gorm:"default:false"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type CommentReaction struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CommentID string    `json:"comment_id" gorm:"not null;index;size:191"`
	UserID    string    `json:"user_id" gorm:"not null;size:191"`
	Up        bool      `json:"up"`
	CreatedAt time.Time `json:"created_at"`
}
