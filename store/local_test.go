package store

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"instafacts-api/config"
)

func newTestLocal(t *testing.T) *Local {
	t.Helper()
	cfg := &config.Config{
		DataDir:     t.TempDir(),
		AdminHandle: "admin",
	}
	s, err := NewLocal(cfg, zap.NewNop())
	require.NoError(t, err)
	return s
}

func signUp(t *testing.T, s *Local, email, handle string) *Session {
	t.Helper()
	sess, err := s.SignUp(context.Background(), email, "Secret1!", handle, "")
	require.NoError(t, err)
	return sess
}

func TestSignUpAndSignInByEmailAndHandle(t *testing.T) {
	s := newTestLocal(t)
	ctx := context.Background()

	sess := signUp(t, s, "alice@example.com", "alice")
	assert.Equal(t, "alice", sess.UserID) // local mode keys identity by handle
	assert.Equal(t, "alice", sess.Handle)

	require.NoError(t, s.SignOut(ctx))
	assert.Nil(t, s.CurrentUser())

	byEmail, err := s.SignIn(ctx, "alice@example.com", "Secret1!")
	require.NoError(t, err)
	assert.Equal(t, "alice", byEmail.Handle)

	require.NoError(t, s.SignOut(ctx))

	byHandle, err := s.SignIn(ctx, "alice", "Secret1!")
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", byHandle.Email)
}

func TestSignInFailures(t *testing.T) {
	s := newTestLocal(t)
	ctx := context.Background()
	signUp(t, s, "alice@example.com", "alice")

	_, err := s.SignIn(ctx, "alice", "wrong-password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = s.SignIn(ctx, "nobody@example.com", "Secret1!")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = s.SignIn(ctx, "nobody", "Secret1!")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestSignUpDuplicateHandleLeavesNoPartialState(t *testing.T) {
	s := newTestLocal(t)
	ctx := context.Background()
	signUp(t, s, "alice@example.com", "alice")

	_, err := s.SignUp(ctx, "other@example.com", "Secret1!", "alice", "")
	assert.ErrorIs(t, err, ErrDuplicateIdentity)

	// No orphaned account: the second email must not resolve at all.
	_, err = s.SignIn(ctx, "other@example.com", "Secret1!")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestCreatePostRejectsEmptyPost(t *testing.T) {
	s := newTestLocal(t)
	ctx := context.Background()
	signUp(t, s, "alice@example.com", "alice")

	_, err := s.CreatePost(ctx, nil, "   ")
	assert.ErrorIs(t, err, ErrEmptyPost)
}

func TestCreatePostRequiresLogin(t *testing.T) {
	s := newTestLocal(t)

	_, err := s.CreatePost(context.Background(), nil, "hello")
	assert.ErrorIs(t, err, ErrLoginRequired)
}

func TestCreatePostWithMediaFile(t *testing.T) {
	s := newTestLocal(t)
	ctx := context.Background()
	signUp(t, s, "alice@example.com", "alice")

	post, err := s.CreatePost(ctx, []Upload{{
		Name:        "sunset.jpg",
		ContentType: "image/jpeg",
		Data:        strings.NewReader("fake-jpeg-bytes"),
	}}, "golden hour")
	require.NoError(t, err)
	require.Len(t, post.Media, 1)
	assert.Equal(t, "image", post.Media[0].Kind)
	assert.True(t, strings.HasPrefix(post.Media[0].URL, "/media/"))

	// The bytes actually landed in the media directory.
	data, err := os.ReadFile(filepath.Join(s.MediaDir(), strings.TrimPrefix(post.Media[0].URL, "/media/")))
	require.NoError(t, err)
	assert.Equal(t, "fake-jpeg-bytes", string(data))
}

func TestToggleReactPostIdempotentPairAndExclusion(t *testing.T) {
	s := newTestLocal(t)
	ctx := context.Background()
	signUp(t, s, "alice@example.com", "alice")
	post, err := s.CreatePost(ctx, nil, "react to me")
	require.NoError(t, err)

	require.NoError(t, s.SignOut(ctx))
	bob := signUp(t, s, "bob@example.com", "bob")

	// Up then down: the up vote is cleared, never both sets at once.
	require.NoError(t, s.ToggleReactPost(ctx, post.ID, ReactUp))
	require.NoError(t, s.ToggleReactPost(ctx, post.ID, ReactDown))
	posts, err := s.ListPosts(ctx)
	require.NoError(t, err)
	assert.NotContains(t, posts[0].LikesUp, bob.UserID)
	assert.Contains(t, posts[0].LikesDown, bob.UserID)

	// Toggling the same direction twice returns to the prior state.
	require.NoError(t, s.ToggleReactPost(ctx, post.ID, ReactDown))
	posts, err = s.ListPosts(ctx)
	require.NoError(t, err)
	assert.Empty(t, posts[0].LikesUp)
	assert.Empty(t, posts[0].LikesDown)

	// Note: the toggle is read-modify-write, not atomic. Concurrent
	// toggles by different users on the same post can lose one vote
	// (last writer wins); this is an accepted limitation of the
	// contract, not something these tests paper over.
}

func TestToggleReactCommentMutualExclusion(t *testing.T) {
	s := newTestLocal(t)
	ctx := context.Background()
	alice := signUp(t, s, "alice@example.com", "alice")
	post, err := s.CreatePost(ctx, nil, "post")
	require.NoError(t, err)
	comment, err := s.AddComment(ctx, post.ID, "first!")
	require.NoError(t, err)

	require.NoError(t, s.ToggleReactComment(ctx, post.ID, comment.ID, ReactUp))
	require.NoError(t, s.ToggleReactComment(ctx, post.ID, comment.ID, ReactUp))

	posts, err := s.ListPosts(ctx)
	require.NoError(t, err)
	require.Len(t, posts[0].Comments, 1)
	assert.NotContains(t, posts[0].Comments[0].LikesUp, alice.UserID)
	assert.NotContains(t, posts[0].Comments[0].LikesDown, alice.UserID)
}

func TestRepliesNestAndFlatten(t *testing.T) {
	s := newTestLocal(t)
	ctx := context.Background()
	signUp(t, s, "alice@example.com", "alice")
	post, err := s.CreatePost(ctx, nil, "thread")
	require.NoError(t, err)

	top, err := s.AddComment(ctx, post.ID, "top level")
	require.NoError(t, err)
	reply, err := s.AddReply(ctx, post.ID, top.ID, "a reply")
	require.NoError(t, err)
	// Replying to a reply still lands under the original comment.
	_, err = s.AddReply(ctx, post.ID, reply.ID, "reply to reply")
	require.NoError(t, err)

	posts, err := s.ListPosts(ctx)
	require.NoError(t, err)
	require.Len(t, posts[0].Comments, 1)
	require.Len(t, posts[0].Comments[0].Replies, 2)
	assert.Empty(t, posts[0].Comments[0].Replies[0].Replies)
}

func TestUpdateAndDeletePostOwnership(t *testing.T) {
	s := newTestLocal(t)
	ctx := context.Background()
	signUp(t, s, "alice@example.com", "alice")
	post, err := s.CreatePost(ctx, nil, "mine")
	require.NoError(t, err)

	require.NoError(t, s.SignOut(ctx))
	signUp(t, s, "bob@example.com", "bob")

	assert.ErrorIs(t, s.UpdatePost(ctx, post.ID, "hijacked"), ErrOwnershipViolation)
	assert.ErrorIs(t, s.DeletePost(ctx, post.ID), ErrOwnershipViolation)

	require.NoError(t, s.SignOut(ctx))
	_, err = s.SignIn(ctx, "alice", "Secret1!")
	require.NoError(t, err)

	require.NoError(t, s.UpdatePost(ctx, post.ID, "still mine"))
	posts, err := s.ListPosts(ctx)
	require.NoError(t, err)
	assert.Equal(t, "still mine", posts[0].Caption)
	assert.True(t, posts[0].Edited)

	require.NoError(t, s.DeletePost(ctx, post.ID))
	posts, err = s.ListPosts(ctx)
	require.NoError(t, err)
	assert.Empty(t, posts)
}

func TestDeletePostCascadesComments(t *testing.T) {
	s := newTestLocal(t)
	ctx := context.Background()
	signUp(t, s, "alice@example.com", "alice")
	post, err := s.CreatePost(ctx, nil, "doomed")
	require.NoError(t, err)
	_, err = s.AddComment(ctx, post.ID, "soon gone")
	require.NoError(t, err)

	require.NoError(t, s.DeletePost(ctx, post.ID))

	posts, err := s.ListPosts(ctx)
	require.NoError(t, err)
	assert.Empty(t, posts)
}

func TestCommentAuthorScopedMutation(t *testing.T) {
	s := newTestLocal(t)
	ctx := context.Background()
	signUp(t, s, "alice@example.com", "alice")
	post, err := s.CreatePost(ctx, nil, "post")
	require.NoError(t, err)
	comment, err := s.AddComment(ctx, post.ID, "original")
	require.NoError(t, err)

	require.NoError(t, s.SignOut(ctx))
	signUp(t, s, "bob@example.com", "bob")

	assert.ErrorIs(t, s.UpdateComment(ctx, post.ID, comment.ID, "defaced"), ErrOwnershipViolation)
	assert.ErrorIs(t, s.DeleteComment(ctx, post.ID, comment.ID), ErrOwnershipViolation)

	require.NoError(t, s.SignOut(ctx))
	_, err = s.SignIn(ctx, "alice", "Secret1!")
	require.NoError(t, err)
	require.NoError(t, s.UpdateComment(ctx, post.ID, comment.ID, "edited"))

	posts, err := s.ListPosts(ctx)
	require.NoError(t, err)
	assert.Equal(t, "edited", posts[0].Comments[0].Content)
	assert.True(t, posts[0].Comments[0].Edited)
}

func TestCommentEditedToSelfReplyMarkerStillListed(t *testing.T) {
	// Editing a top-level comment's content to carry a reply marker
	// pointing at itself must not make it vanish from the feed.
	s := newTestLocal(t)
	ctx := context.Background()
	signUp(t, s, "alice@example.com", "alice")
	post, err := s.CreatePost(ctx, nil, "post")
	require.NoError(t, err)
	comment, err := s.AddComment(ctx, post.ID, "original")
	require.NoError(t, err)

	require.NoError(t, s.UpdateComment(ctx, post.ID, comment.ID, "@re:"+comment.ID+" whoops"))

	posts, err := s.ListPosts(ctx)
	require.NoError(t, err)
	require.Len(t, posts[0].Comments, 1)
	assert.Equal(t, comment.ID, posts[0].Comments[0].ID)
}

func TestDeleteCommentCascadesNestedReplies(t *testing.T) {
	// A reply to a reply stores its immediate parent, so the cascade must
	// follow the chain; otherwise the grandchild resurfaces as an orphan.
	s := newTestLocal(t)
	ctx := context.Background()
	signUp(t, s, "alice@example.com", "alice")
	post, err := s.CreatePost(ctx, nil, "post")
	require.NoError(t, err)
	top, err := s.AddComment(ctx, post.ID, "top")
	require.NoError(t, err)
	reply, err := s.AddReply(ctx, post.ID, top.ID, "reply")
	require.NoError(t, err)
	_, err = s.AddReply(ctx, post.ID, reply.ID, "reply to reply")
	require.NoError(t, err)

	require.NoError(t, s.DeleteComment(ctx, post.ID, top.ID))

	posts, err := s.ListPosts(ctx)
	require.NoError(t, err)
	assert.Empty(t, posts[0].Comments)
}

func TestUpdateProfileRequiresLoginAndUniqueHandle(t *testing.T) {
	s := newTestLocal(t)
	ctx := context.Background()

	assert.ErrorIs(t, s.UpdateProfile(ctx, "ghost", ""), ErrLoginRequired)

	signUp(t, s, "alice@example.com", "alice")
	require.NoError(t, s.SignOut(ctx))
	bob := signUp(t, s, "bob@example.com", "bob")

	assert.ErrorIs(t, s.UpdateProfile(ctx, "alice", ""), ErrDuplicateIdentity)

	require.NoError(t, s.UpdateProfile(ctx, "bobby", "new bio"))
	profile, err := s.GetProfile(ctx, bob.UserID)
	require.NoError(t, err)
	assert.Equal(t, "bobby", profile.Handle)
	assert.Equal(t, "new bio", profile.Bio)
}

func TestAdminBulkDelete(t *testing.T) {
	s := newTestLocal(t)
	ctx := context.Background()

	alice := signUp(t, s, "alice@example.com", "alice")
	_, err := s.CreatePost(ctx, nil, "one")
	require.NoError(t, err)
	_, err = s.CreatePost(ctx, nil, "two")
	require.NoError(t, err)

	// Not an admin.
	assert.ErrorIs(t, s.DeleteAllPostsByUser(ctx, alice.UserID), ErrOwnershipViolation)

	require.NoError(t, s.SignOut(ctx))
	assert.ErrorIs(t, s.DeleteAllPostsByUser(ctx, alice.UserID), ErrLoginRequired)

	signUp(t, s, "admin@example.com", "admin")
	require.NoError(t, s.DeleteAllPostsByUser(ctx, alice.UserID))

	posts, err := s.ListPosts(ctx)
	require.NoError(t, err)
	assert.Empty(t, posts)
}

func TestSnapshotPersistenceAcrossRestart(t *testing.T) {
	cfg := &config.Config{DataDir: t.TempDir()}
	ctx := context.Background()

	s1, err := NewLocal(cfg, zap.NewNop())
	require.NoError(t, err)
	_, err = s1.SignUp(ctx, "alice@example.com", "Secret1!", "alice", "hi")
	require.NoError(t, err)
	_, err = s1.CreatePost(ctx, nil, "persisted")
	require.NoError(t, err)

	// A second store over the same directory sees everything, including
	// the saved session.
	s2, err := NewLocal(cfg, zap.NewNop())
	require.NoError(t, err)
	require.NotNil(t, s2.CurrentUser())
	assert.Equal(t, "alice", s2.CurrentUser().Handle)

	posts, err := s2.ListPosts(ctx)
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, "persisted", posts[0].Caption)
}

func TestCorruptSnapshotFallsBackToEmpty(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, usersSnapshot), []byte("{not json"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, postsSnapshot), []byte("[[["), 0o644))

	s, err := NewLocal(&config.Config{DataDir: dir}, zap.NewNop())
	require.NoError(t, err)

	assert.Nil(t, s.CurrentUser())
	posts, err := s.ListPosts(context.Background())
	require.NoError(t, err)
	assert.Empty(t, posts)
}

func TestLocalSubscribeIsNoOp(t *testing.T) {
	s := newTestLocal(t)
	ctx := context.Background()
	signUp(t, s, "alice@example.com", "alice")

	fired := false
	unsubscribe := s.Subscribe(func(Event) { fired = true })
	_, err := s.CreatePost(ctx, nil, "silent")
	require.NoError(t, err)
	unsubscribe()

	assert.False(t, fired, "local store has no push mechanism; callers re-fetch")
}

// End-to-end: alice publishes, bob comments and votes, alice edits.
func TestFeedScenario(t *testing.T) {
	s := newTestLocal(t)
	ctx := context.Background()

	alice := signUp(t, s, "alice@example.com", "alice")
	_, err := s.CreatePost(ctx, []Upload{{
		Name:        "hello.png",
		ContentType: "image/png",
		Data:        strings.NewReader("png"),
	}}, "Hello World")
	require.NoError(t, err)

	posts, err := s.ListPosts(ctx)
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, "Hello World", posts[0].Caption)
	assert.Equal(t, []string{}, posts[0].LikesUp)
	assert.Equal(t, []string{}, posts[0].LikesDown)
	assert.False(t, posts[0].Edited)

	require.NoError(t, s.SignOut(ctx))
	bob := signUp(t, s, "bob@example.com", "bob")
	_, err = s.AddComment(ctx, posts[0].ID, "Nice!")
	require.NoError(t, err)

	posts, err = s.ListPosts(ctx)
	require.NoError(t, err)
	require.Len(t, posts[0].Comments, 1)
	assert.Equal(t, bob.UserID, posts[0].Comments[0].UserID)
	assert.Equal(t, "Nice!", posts[0].Comments[0].Content)

	require.NoError(t, s.ToggleReactPost(ctx, posts[0].ID, ReactUp))
	posts, err = s.ListPosts(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{bob.UserID}, posts[0].LikesUp)
	assert.Empty(t, posts[0].LikesDown)

	require.NoError(t, s.SignOut(ctx))
	_, err = s.SignIn(ctx, "alice", "Secret1!")
	require.NoError(t, err)
	require.NoError(t, s.UpdatePost(ctx, posts[0].ID, "Hello World!"))

	posts, err = s.ListPosts(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Hello World!", posts[0].Caption)
	assert.True(t, posts[0].Edited)
	assert.Equal(t, alice.UserID, posts[0].UserID)
}
