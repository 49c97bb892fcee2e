// Package store defines the data-layer contract and its two implementations:
// an in-process snapshot-backed store requiring no external services, and a
// hosted store over a relational database and an object-storage bucket. One
// of the two is selected at startup and held for the session lifetime.
package store

import (
	"context"
	"io"
	"time"

	"instafacts-api/feed"
)

// Reaction directions accepted by the toggle operations.
const (
	ReactUp   = "up"
	ReactDown = "down"
)

// Session is the authenticated user as the active store sees it.
type Session struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Handle string `json:"handle"`
}

// Profile is the public view of a user resolved by id.
type Profile struct {
	UserID    string    `json:"user_id"`
	Handle    string    `json:"handle"`
	Bio       string    `json:"bio"`
	CreatedAt time.Time `json:"created_at"`
}

// Upload is one media file handed to CreatePost. Files are uploaded
// sequentially in slice order; the declared content type decides the
// image/video tag.
type Upload struct {
	Name        string
	ContentType string
	Size        int64
	Data        io.Reader
}

// Event describes one mutation for Subscribe callbacks.
type Event struct {
	Table  string `json:"table"`  // "posts", "comments", "reactions"
	Action string `json:"action"` // "insert", "update", "delete"
	PostID string `json:"post_id,omitempty"`
}

// Store is the uniform asynchronous data-layer contract. Both
// implementations keep the canonical copy of all entities; callers hold only
// refreshable snapshots obtained from ListPosts.
type Store interface {
	// CurrentUser returns the active session, or nil when signed out.
	CurrentUser() *Session

	// IsAdmin reports whether the active session matches the configured
	// administrator handle.
	IsAdmin() bool

	// SignIn accepts an email or a handle as identifier. A handle is
	// resolved to the account's email through a profile lookup before
	// authenticating.
	SignIn(ctx context.Context, identifier, password string) (*Session, error)

	// SignUp creates an account and its profile record. Handle collisions
	// fail with ErrDuplicateIdentity and leave no partial state behind.
	SignUp(ctx context.Context, email, password, handle, bio string) (*Session, error)

	// SignOut clears the session state.
	SignOut(ctx context.Context) error

	// ListPosts returns the newest page of posts with their comment trees
	// and reaction sets fully assembled.
	ListPosts(ctx context.Context) ([]*feed.Post, error)

	// GetProfile resolves a user id. Implementations cache by id within
	// the session and invalidate on profile writes.
	GetProfile(ctx context.Context, userID string) (*Profile, error)

	// UpdateProfile upserts the caller's own profile.
	UpdateProfile(ctx context.Context, handle, bio string) error

	// CreatePost uploads the files in order, then inserts one post
	// referencing the resulting URLs. Caption and files may each be empty
	// but not both.
	CreatePost(ctx context.Context, uploads []Upload, caption string) (*feed.Post, error)

	AddComment(ctx context.Context, postID, content string) (*feed.Comment, error)
	AddReply(ctx context.Context, postID, commentID, content string) (*feed.Comment, error)

	// UpdatePost rewrites the caption and sets the edited flag. Owner
	// scoped: the row-level check rejects everyone else.
	UpdatePost(ctx context.Context, postID, caption string) error
	DeletePost(ctx context.Context, postID string) error

	// UpdateComment and DeleteComment are author scoped the same way.
	UpdateComment(ctx context.Context, postID, commentID, content string) error
	DeleteComment(ctx context.Context, postID, commentID string) error

	// ToggleReactPost flips the caller's vote. Voting one way clears any
	// existing vote the other way; repeating a vote removes it. The
	// toggle is read-modify-write, not atomic: concurrent toggles by
	// different users can lose one vote (last writer wins).
	ToggleReactPost(ctx context.Context, postID, direction string) error
	ToggleReactComment(ctx context.Context, postID, commentID, direction string) error

	// DeleteAllPostsByUser is the administrative bulk delete, gated by
	// IsAdmin.
	DeleteAllPostsByUser(ctx context.Context, userID string) error

	// Subscribe registers a change callback for post/comment/reaction
	// mutations and returns an unsubscribe function that fully detaches
	// it. The local implementation has no push mechanism and returns a
	// no-op unsubscribe without ever firing.
	Subscribe(fn func(Event)) (unsubscribe func())
}
