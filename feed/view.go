// Package feed maps raw backend rows into the nested post/comment/reply shape
// the UI renders. All functions are pure; the active data layer calls them
// after its own queries.
package feed

import (
	"time"

	"instafacts-api/models"
)

// Post is the fully assembled view of one post: media in publish order,
// comments as a one-level tree, and both reaction sets as user-id lists.
type Post struct {
	ID        string         `json:"id"`
	UserID    string         `json:"user_id"`
	Handle    string         `json:"handle"`
	Caption   string         `json:"caption"`
	Media     []models.Media `json:"media"`
	Edited    bool           `json:"edited"`
	CreatedAt time.Time      `json:"created_at"`
	LikesUp   []string       `json:"likes_up"`
	LikesDown []string       `json:"likes_down"`
	Comments  []*Comment     `json:"comments"`
}

// Comment is a top-level comment or a reply. Replies never nest further.
type Comment struct {
	ID        string     `json:"id"`
	PostID    string     `json:"post_id"`
	UserID    string     `json:"user_id"`
	Content   string     `json:"content"`
	Edited    bool       `json:"edited"`
	CreatedAt time.Time  `json:"created_at"`
	LikesUp   []string   `json:"likes_up"`
	LikesDown []string   `json:"likes_down"`
	Replies   []*Comment `json:"replies"`
}

// Row is the common intermediate shape both storage encodings decode into
// before tree assembly.
type Row struct {
	ID        string
	PostID    string
	UserID    string
	ParentID  string // empty for top-level comments
	Content   string
	Edited    bool
	CreatedAt time.Time
	LikesUp   []string
	LikesDown []string
}
