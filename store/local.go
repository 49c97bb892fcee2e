package store

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"instafacts-api/config"
	"instafacts-api/feed"
	"instafacts-api/models"
	"instafacts-api/utils"
)

// Snapshot file names, the local analog of the three well-known browser
// storage keys. Persistence is best-effort: corrupt or missing files fall
// back silently to empty collections.
const (
	usersSnapshot   = "users.json"
	postsSnapshot   = "posts.json"
	sessionSnapshot = "session.json"
)

const feedPageSize = 50

type localUser struct {
	ID        string    `json:"id"` // the handle itself is the identity key
	Email     string    `json:"email"`
	Password  string    `json:"password"`
	Handle    string    `json:"handle"`
	Bio       string    `json:"bio"`
	CreatedAt time.Time `json:"created_at"`
}

type localComment struct {
	ID        string    `json:"id"`
	PostID    string    `json:"post_id"`
	UserID    string    `json:"user_id"`
	ParentID  string    `json:"parent_id,omitempty"`
	Content   string    `json:"content"`
	Edited    bool      `json:"edited"`
	CreatedAt time.Time `json:"created_at"`
	LikesUp   []string  `json:"likes_up"`
	LikesDown []string  `json:"likes_down"`
}

type localPost struct {
	ID        string         `json:"id"`
	UserID    string         `json:"user_id"`
	Caption   string         `json:"caption"`
	Media     []models.Media `json:"media"`
	Edited    bool           `json:"edited"`
	CreatedAt time.Time      `json:"created_at"`
	LikesUp   []string       `json:"likes_up"`
	LikesDown []string       `json:"likes_down"`
	Comments  []localComment `json:"comments"`
}

// Local is the in-process data layer: everything lives in memory, snapshots
// land in a data directory, media files are written next to them and served
// statically. Single process, no network, no realtime push.
type Local struct {
	mu      sync.RWMutex
	cfg     *config.Config
	log     *zap.Logger
	dir     string
	users   map[string]*localUser
	posts   []*localPost // insertion order, oldest first
	session string       // user id, empty when signed out
}

// NewLocal loads whatever snapshot state exists under cfg.DataDir and starts
// from empty collections otherwise.
func NewLocal(cfg *config.Config, log *zap.Logger) (*Local, error) {
	if err := os.MkdirAll(filepath.Join(cfg.DataDir, "media"), 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	s := &Local{
		cfg:   cfg,
		log:   log,
		dir:   cfg.DataDir,
		users: make(map[string]*localUser),
	}
	s.loadSnapshots()
	return s, nil
}

// MediaDir is the directory the HTTP layer serves under /media in local mode.
func (s *Local) MediaDir() string {
	return filepath.Join(s.dir, "media")
}

func (s *Local) CurrentUser() *Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sessionLocked()
}

func (s *Local) sessionLocked() *Session {
	if s.session == "" {
		return nil
	}
	u, ok := s.users[s.session]
	if !ok {
		return nil
	}
	return &Session{UserID: u.ID, Email: u.Email, Handle: u.Handle}
}

func (s *Local) IsAdmin() bool {
	sess := s.CurrentUser()
	return sess != nil && s.cfg.AdminHandle != "" && sess.Handle == s.cfg.AdminHandle
}

func (s *Local) SignIn(ctx context.Context, identifier, password string) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var user *localUser
	if utils.IsValidEmail(identifier) {
		for _, u := range s.users {
			if u.Email == identifier {
				user = u
				break
			}
		}
	} else {
		// Not email-shaped: resolve the handle to its account first.
		handle := models.NormalizeHandle(identifier)
		for _, u := range s.users {
			if u.Handle == handle {
				user = u
				break
			}
		}
	}
	if user == nil {
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	s.session = user.ID
	s.saveSnapshots()
	return &Session{UserID: user.ID, Email: user.Email, Handle: user.Handle}, nil
}

func (s *Local) SignUp(ctx context.Context, email, password, handle, bio string) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if handle == "" {
		handle = s.uniqueHandleLocked(strings.SplitN(email, "@", 2)[0])
	}
	handle = models.NormalizeHandle(handle)

	for _, u := range s.users {
		if u.Handle == handle || u.Email == email {
			return nil, ErrDuplicateIdentity
		}
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &localUser{
		ID:        handle, // local mode keys identity by the handle
		Email:     email,
		Password:  string(hashed),
		Handle:    handle,
		Bio:       bio,
		CreatedAt: time.Now(),
	}
	s.users[user.ID] = user
	s.session = user.ID
	s.saveSnapshots()

	return &Session{UserID: user.ID, Email: user.Email, Handle: user.Handle}, nil
}

func (s *Local) SignOut(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.session = ""
	s.saveSnapshots()
	return nil
}

func (s *Local) ListPosts(ctx context.Context) ([]*feed.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*feed.Post, 0, len(s.posts))
	// Newest first, bounded page.
	for i := len(s.posts) - 1; i >= 0 && len(out) < feedPageSize; i-- {
		out = append(out, s.assemblePostLocked(s.posts[i]))
	}
	return out, nil
}

func (s *Local) assemblePostLocked(p *localPost) *feed.Post {
	rows := make([]feed.Row, 0, len(p.Comments))
	for _, c := range p.Comments {
		rows = append(rows, feed.DecodeRow(models.Comment{
			ID:        c.ID,
			PostID:    c.PostID,
			UserID:    c.UserID,
			ParentID:  optional(c.ParentID),
			Content:   c.Content,
			Edited:    c.Edited,
			CreatedAt: c.CreatedAt,
		}, cloneStrings(c.LikesUp), cloneStrings(c.LikesDown)))
	}

	handle := p.UserID
	if u, ok := s.users[p.UserID]; ok {
		handle = u.Handle
	}

	return &feed.Post{
		ID:        p.ID,
		UserID:    p.UserID,
		Handle:    handle,
		Caption:   p.Caption,
		Media:     append([]models.Media(nil), p.Media...),
		Edited:    p.Edited,
		CreatedAt: p.CreatedAt,
		LikesUp:   cloneStrings(p.LikesUp),
		LikesDown: cloneStrings(p.LikesDown),
		Comments:  feed.BuildTree(rows),
	}
}

func (s *Local) GetProfile(ctx context.Context, userID string) (*Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[userID]
	if !ok {
		return nil, ErrOwnershipViolation
	}
	return &Profile{UserID: u.ID, Handle: u.Handle, Bio: u.Bio, CreatedAt: u.CreatedAt}, nil
}

func (s *Local) UpdateProfile(ctx context.Context, handle, bio string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.session == "" {
		return ErrLoginRequired
	}
	user := s.users[s.session]

	handle = models.NormalizeHandle(handle)
	for _, u := range s.users {
		if u.ID != user.ID && u.Handle == handle {
			return ErrDuplicateIdentity
		}
	}

	// The identity key stays what it was at sign-up; only the displayed
	// handle changes.
	user.Handle = handle
	user.Bio = bio
	s.saveSnapshots()
	return nil
}

func (s *Local) CreatePost(ctx context.Context, uploads []Upload, caption string) (*feed.Post, error) {
	if len(uploads) == 0 && strings.TrimSpace(caption) == "" {
		return nil, ErrEmptyPost
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.session == "" {
		return nil, ErrLoginRequired
	}

	// Files are written one at a time in order. A failure partway leaves
	// the earlier files on disk; there is no compensating cleanup.
	media := make([]models.Media, 0, len(uploads))
	for _, up := range uploads {
		m, err := s.saveMedia(up)
		if err != nil {
			return nil, fmt.Errorf("save media %q: %w", up.Name, err)
		}
		media = append(media, m)
	}

	post := &localPost{
		ID:        uuid.New().String(),
		UserID:    s.session,
		Caption:   caption,
		Media:     media,
		CreatedAt: time.Now(),
	}
	s.posts = append(s.posts, post)
	s.saveSnapshots()
	return s.assemblePostLocked(post), nil
}

func (s *Local) saveMedia(up Upload) (models.Media, error) {
	name := uuid.New().String() + filepath.Ext(up.Name)
	path := filepath.Join(s.dir, "media", name)

	f, err := os.Create(path)
	if err != nil {
		return models.Media{}, err
	}
	defer f.Close()

	if _, err := io.Copy(f, up.Data); err != nil {
		return models.Media{}, err
	}

	return models.Media{
		Kind: models.MediaKindFromContentType(up.ContentType),
		URL:  "/media/" + name,
	}, nil
}

func (s *Local) AddComment(ctx context.Context, postID, content string) (*feed.Comment, error) {
	return s.addComment(postID, "", content)
}

func (s *Local) AddReply(ctx context.Context, postID, commentID, content string) (*feed.Comment, error) {
	return s.addComment(postID, commentID, content)
}

func (s *Local) addComment(postID, parentID, content string) (*feed.Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.session == "" {
		return nil, ErrLoginRequired
	}
	post := s.findPostLocked(postID)
	if post == nil {
		return nil, ErrOwnershipViolation
	}
	if parentID != "" && s.findCommentLocked(post, parentID) == nil {
		return nil, ErrOwnershipViolation
	}

	c := localComment{
		ID:        uuid.New().String(),
		PostID:    postID,
		UserID:    s.session,
		ParentID:  parentID,
		Content:   content,
		CreatedAt: time.Now(),
	}
	post.Comments = append(post.Comments, c)
	s.saveSnapshots()

	return &feed.Comment{
		ID:        c.ID,
		PostID:    c.PostID,
		UserID:    c.UserID,
		Content:   c.Content,
		CreatedAt: c.CreatedAt,
	}, nil
}

func (s *Local) UpdatePost(ctx context.Context, postID, caption string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.session == "" {
		return ErrLoginRequired
	}
	post := s.findPostLocked(postID)
	if post == nil || post.UserID != s.session {
		return ErrOwnershipViolation
	}

	post.Caption = caption
	post.Edited = true
	s.saveSnapshots()
	return nil
}

func (s *Local) DeletePost(ctx context.Context, postID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.session == "" {
		return ErrLoginRequired
	}
	for i, p := range s.posts {
		if p.ID == postID {
			if p.UserID != s.session {
				return ErrOwnershipViolation
			}
			// Comments live inside the post, so the cascade is free.
			s.posts = append(s.posts[:i], s.posts[i+1:]...)
			s.saveSnapshots()
			return nil
		}
	}
	return ErrOwnershipViolation
}

func (s *Local) UpdateComment(ctx context.Context, postID, commentID, content string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.session == "" {
		return ErrLoginRequired
	}
	post := s.findPostLocked(postID)
	if post == nil {
		return ErrOwnershipViolation
	}
	c := s.findCommentLocked(post, commentID)
	if c == nil || c.UserID != s.session {
		return ErrOwnershipViolation
	}

	c.Content = content
	c.Edited = true
	s.saveSnapshots()
	return nil
}

func (s *Local) DeleteComment(ctx context.Context, postID, commentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.session == "" {
		return ErrLoginRequired
	}
	post := s.findPostLocked(postID)
	if post == nil {
		return ErrOwnershipViolation
	}
	c := s.findCommentLocked(post, commentID)
	if c == nil || c.UserID != s.session {
		return ErrOwnershipViolation
	}

	// The whole reply subtree goes with the comment: replies store their
	// immediate parent, so the descendant set is collected transitively.
	doomed := map[string]bool{commentID: true}
	for grew := true; grew; {
		grew = false
		for _, cc := range post.Comments {
			if !doomed[cc.ID] && cc.ParentID != "" && doomed[cc.ParentID] {
				doomed[cc.ID] = true
				grew = true
			}
		}
	}
	kept := post.Comments[:0]
	for _, cc := range post.Comments {
		if !doomed[cc.ID] {
			kept = append(kept, cc)
		}
	}
	post.Comments = kept
	s.saveSnapshots()
	return nil
}

func (s *Local) ToggleReactPost(ctx context.Context, postID, direction string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.session == "" {
		return ErrLoginRequired
	}
	post := s.findPostLocked(postID)
	if post == nil {
		return ErrOwnershipViolation
	}

	toggleReaction(&post.LikesUp, &post.LikesDown, s.session, direction)
	s.saveSnapshots()
	return nil
}

func (s *Local) ToggleReactComment(ctx context.Context, postID, commentID, direction string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.session == "" {
		return ErrLoginRequired
	}
	post := s.findPostLocked(postID)
	if post == nil {
		return ErrOwnershipViolation
	}
	c := s.findCommentLocked(post, commentID)
	if c == nil {
		return ErrOwnershipViolation
	}

	toggleReaction(&c.LikesUp, &c.LikesDown, s.session, direction)
	s.saveSnapshots()
	return nil
}

func (s *Local) DeleteAllPostsByUser(ctx context.Context, userID string) error {
	if !s.IsAdmin() {
		if s.CurrentUser() == nil {
			return ErrLoginRequired
		}
		return ErrOwnershipViolation
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.posts[:0]
	for _, p := range s.posts {
		if p.UserID != userID {
			kept = append(kept, p)
		}
	}
	s.posts = kept
	s.saveSnapshots()
	return nil
}

// Subscribe is a no-op for the local store: there is no push mechanism, so
// callers re-fetch instead.
func (s *Local) Subscribe(fn func(Event)) func() {
	return func() {}
}

func (s *Local) findPostLocked(postID string) *localPost {
	for _, p := range s.posts {
		if p.ID == postID {
			return p
		}
	}
	return nil
}

func (s *Local) findCommentLocked(post *localPost, commentID string) *localComment {
	for i := range post.Comments {
		if post.Comments[i].ID == commentID {
			return &post.Comments[i]
		}
	}
	return nil
}

func (s *Local) uniqueHandleLocked(base string) string {
	base = models.NormalizeHandle(base)
	handle := base
	counter := 1
	for {
		taken := false
		for _, u := range s.users {
			if u.Handle == handle {
				taken = true
				break
			}
		}
		if !taken {
			return handle
		}
		handle = fmt.Sprintf("%s_%d", base, counter)
		counter++
	}
}

// toggleReaction applies the mutual-exclusion invariant: a user id lives in
// at most one of the two sets, repeating a vote removes it, flipping a vote
// moves it.
func toggleReaction(up, down *[]string, userID, direction string) {
	target, other := up, down
	if direction == ReactDown {
		target, other = down, up
	}

	*other = removeString(*other, userID)
	if containsString(*target, userID) {
		*target = removeString(*target, userID)
	} else {
		*target = append(*target, userID)
	}
}

func containsString(set []string, v string) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}

func removeString(set []string, v string) []string {
	out := set[:0]
	for _, s := range set {
		if s != v {
			out = append(out, s)
		}
	}
	return out
}

func cloneStrings(set []string) []string {
	if len(set) == 0 {
		return []string{}
	}
	return append([]string(nil), set...)
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// loadSnapshots restores persisted state. Any unreadable or corrupt file is
// ignored and its collection starts empty.
func (s *Local) loadSnapshots() {
	if data, err := os.ReadFile(filepath.Join(s.dir, usersSnapshot)); err == nil {
		var users map[string]*localUser
		if err := json.Unmarshal(data, &users); err == nil {
			s.users = users
		} else {
			s.log.Warn("users snapshot corrupt, starting empty", zap.Error(err))
		}
	}
	if data, err := os.ReadFile(filepath.Join(s.dir, postsSnapshot)); err == nil {
		var posts []*localPost
		if err := json.Unmarshal(data, &posts); err == nil {
			s.posts = posts
		} else {
			s.log.Warn("posts snapshot corrupt, starting empty", zap.Error(err))
		}
	}
	if data, err := os.ReadFile(filepath.Join(s.dir, sessionSnapshot)); err == nil {
		var session string
		if err := json.Unmarshal(data, &session); err == nil {
			if _, ok := s.users[session]; ok {
				s.session = session
			}
		}
	}
}

// saveSnapshots writes the three snapshot files. Best-effort: failures are
// logged and the in-memory state stays authoritative.
func (s *Local) saveSnapshots() {
	write := func(name string, v interface{}) {
		data, err := json.Marshal(v)
		if err == nil {
			err = os.WriteFile(filepath.Join(s.dir, name), data, 0o644)
		}
		if err != nil {
			s.log.Warn("snapshot write failed", zap.String("file", name), zap.Error(err))
		}
	}
	write(usersSnapshot, s.users)
	write(postsSnapshot, s.posts)
	write(sessionSnapshot, s.session)
}
