package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"instafacts-api/config"
	"instafacts-api/feed"
	"instafacts-api/models"
	"instafacts-api/storage"
	"instafacts-api/utils"
)

// Remote is the hosted data layer: account, profile, post, comment and
// reaction rows in the relational database, media objects in the storage
// bucket. The backend returns flat rows only, so the nested comment trees
// are joined together client-side here.
type Remote struct {
	db       *gorm.DB
	media    *storage.MediaStore
	cfg      *config.Config
	log      *zap.Logger
	notifier *notifier

	mu       sync.RWMutex
	session  *Session
	profiles map[string]*Profile // session-scoped cache, invalidated on writes
}

func NewRemote(db *gorm.DB, media *storage.MediaStore, cfg *config.Config, log *zap.Logger) *Remote {
	return &Remote{
		db:       db,
		media:    media,
		cfg:      cfg,
		log:      log,
		notifier: newNotifier(),
		profiles: make(map[string]*Profile),
	}
}

func backendErr(err error) error {
	return fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
}

func (s *Remote) CurrentUser() *Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.session == nil {
		return nil
	}
	sess := *s.session
	return &sess
}

func (s *Remote) IsAdmin() bool {
	sess := s.CurrentUser()
	return sess != nil && s.cfg.AdminHandle != "" && sess.Handle == s.cfg.AdminHandle
}

func (s *Remote) requireSession() (*Session, error) {
	sess := s.CurrentUser()
	if sess == nil {
		return nil, ErrLoginRequired
	}
	return sess, nil
}

func (s *Remote) SignIn(ctx context.Context, identifier, password string) (*Session, error) {
	email := identifier
	if !utils.IsValidEmail(identifier) {
		// Not email-shaped: resolve the handle to the account's email
		// before authenticating.
		var profile models.Profile
		err := s.db.WithContext(ctx).Where("handle = ?", models.NormalizeHandle(identifier)).First(&profile).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		if err != nil {
			return nil, backendErr(err)
		}
		var account models.User
		if err := s.db.WithContext(ctx).First(&account, "id = ?", profile.UserID).Error; err != nil {
			return nil, backendErr(err)
		}
		email = account.Email
	}

	var user models.User
	err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, backendErr(err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	profile, err := s.GetProfile(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	sess := &Session{UserID: user.ID, Email: user.Email, Handle: profile.Handle}
	s.mu.Lock()
	s.session = sess
	s.mu.Unlock()
	return sess, nil
}

func (s *Remote) SignUp(ctx context.Context, email, password, handle, bio string) (*Session, error) {
	if handle == "" {
		handle = s.uniqueHandle(ctx, strings.SplitN(email, "@", 2)[0])
	}
	handle = models.NormalizeHandle(handle)

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := models.User{
		ID:       uuid.New().String(),
		Email:    email,
		Password: string(hashed),
	}
	profile := models.Profile{
		UserID: user.ID,
		Handle: handle,
		Bio:    bio,
	}

	// Account and profile in one transaction so a handle collision never
	// leaves an account without a profile behind. Uniqueness is the
	// storage layer's unique indexes, not a client-side pre-check.
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&user).Error; err != nil {
			return err
		}
		return tx.Create(&profile).Error
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return nil, ErrDuplicateIdentity
	}
	if err != nil {
		return nil, backendErr(err)
	}

	sess := &Session{UserID: user.ID, Email: user.Email, Handle: handle}
	s.mu.Lock()
	s.session = sess
	s.mu.Unlock()
	return sess, nil
}

func (s *Remote) SignOut(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	// Drop the cache with the session so nothing stale survives into the
	// next sign-in.
	s.session = nil
	s.profiles = make(map[string]*Profile)
	return nil
}

func (s *Remote) ListPosts(ctx context.Context) ([]*feed.Post, error) {
	var posts []models.Post
	if err := s.db.WithContext(ctx).Order("created_at DESC").Limit(feedPageSize).Find(&posts).Error; err != nil {
		return nil, backendErr(err)
	}
	if len(posts) == 0 {
		return []*feed.Post{}, nil
	}

	postIDs := make([]string, 0, len(posts))
	for _, p := range posts {
		postIDs = append(postIDs, p.ID)
	}

	// The backend hands back flat rows only; the joins happen here.
	var comments []models.Comment
	if err := s.db.WithContext(ctx).Where("post_id IN ?", postIDs).Order("created_at ASC").Find(&comments).Error; err != nil {
		return nil, backendErr(err)
	}

	var postReactions []models.PostReaction
	if err := s.db.WithContext(ctx).Where("post_id IN ?", postIDs).Find(&postReactions).Error; err != nil {
		return nil, backendErr(err)
	}

	commentIDs := make([]string, 0, len(comments))
	for _, c := range comments {
		commentIDs = append(commentIDs, c.ID)
	}
	var commentReactions []models.CommentReaction
	if len(commentIDs) > 0 {
		if err := s.db.WithContext(ctx).Where("comment_id IN ?", commentIDs).Find(&commentReactions).Error; err != nil {
			return nil, backendErr(err)
		}
	}

	postUp, postDown := groupPostReactions(postReactions)
	commentUp, commentDown := groupCommentReactions(commentReactions)

	commentsByPost := make(map[string][]models.Comment, len(posts))
	for _, c := range comments {
		commentsByPost[c.PostID] = append(commentsByPost[c.PostID], c)
	}

	out := make([]*feed.Post, 0, len(posts))
	for _, p := range posts {
		rows := make([]feed.Row, 0, len(commentsByPost[p.ID]))
		for _, c := range commentsByPost[p.ID] {
			rows = append(rows, feed.DecodeRow(c, commentUp[c.ID], commentDown[c.ID]))
		}

		handle := p.UserID
		if profile, err := s.GetProfile(ctx, p.UserID); err == nil {
			handle = profile.Handle
		}

		out = append(out, &feed.Post{
			ID:        p.ID,
			UserID:    p.UserID,
			Handle:    handle,
			Caption:   p.Caption,
			Media:     append([]models.Media(nil), p.Media...),
			Edited:    p.Edited,
			CreatedAt: p.CreatedAt,
			LikesUp:   orEmpty(postUp[p.ID]),
			LikesDown: orEmpty(postDown[p.ID]),
			Comments:  feed.BuildTree(rows),
		})
	}
	return out, nil
}

func groupPostReactions(rows []models.PostReaction) (up, down map[string][]string) {
	up = make(map[string][]string)
	down = make(map[string][]string)
	for _, r := range rows {
		if r.Up {
			up[r.PostID] = append(up[r.PostID], r.UserID)
		} else {
			down[r.PostID] = append(down[r.PostID], r.UserID)
		}
	}
	return up, down
}

func groupCommentReactions(rows []models.CommentReaction) (up, down map[string][]string) {
	up = make(map[string][]string)
	down = make(map[string][]string)
	for _, r := range rows {
		if r.Up {
			up[r.CommentID] = append(up[r.CommentID], r.UserID)
		} else {
			down[r.CommentID] = append(down[r.CommentID], r.UserID)
		}
	}
	return up, down
}

func orEmpty(set []string) []string {
	if set == nil {
		return []string{}
	}
	return set
}

func (s *Remote) GetProfile(ctx context.Context, userID string) (*Profile, error) {
	s.mu.RLock()
	cached, ok := s.profiles[userID]
	s.mu.RUnlock()
	if ok {
		p := *cached
		return &p, nil
	}

	var row models.Profile
	err := s.db.WithContext(ctx).First(&row, "user_id = ?", userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrOwnershipViolation
	}
	if err != nil {
		return nil, backendErr(err)
	}

	profile := &Profile{
		UserID:    row.UserID,
		Handle:    row.Handle,
		Bio:       row.Bio,
		CreatedAt: row.CreatedAt,
	}
	s.mu.Lock()
	s.profiles[userID] = profile
	s.mu.Unlock()

	p := *profile
	return &p, nil
}

func (s *Remote) UpdateProfile(ctx context.Context, handle, bio string) error {
	sess, err := s.requireSession()
	if err != nil {
		return err
	}
	handle = models.NormalizeHandle(handle)

	err = s.db.WithContext(ctx).Model(&models.Profile{}).
		Where("user_id = ?", sess.UserID).
		Updates(map[string]interface{}{"handle": handle, "bio": bio}).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicateIdentity
	}
	if err != nil {
		return backendErr(err)
	}

	s.mu.Lock()
	delete(s.profiles, sess.UserID)
	if s.session != nil && s.session.UserID == sess.UserID {
		s.session.Handle = handle
	}
	s.mu.Unlock()
	return nil
}

func (s *Remote) CreatePost(ctx context.Context, uploads []Upload, caption string) (*feed.Post, error) {
	if len(uploads) == 0 && strings.TrimSpace(caption) == "" {
		return nil, ErrEmptyPost
	}
	sess, err := s.requireSession()
	if err != nil {
		return nil, err
	}

	// Files go up one at a time, in order. A failure partway leaves the
	// earlier objects in the bucket with no compensating cleanup; the
	// post row is only inserted after the last upload succeeds.
	media := make([]models.Media, 0, len(uploads))
	for _, up := range uploads {
		m, err := s.media.Upload(ctx, up.Name, up.ContentType, up.Size, up.Data)
		if err != nil {
			return nil, backendErr(err)
		}
		media = append(media, m)
	}

	post := models.Post{
		ID:      uuid.New().String(),
		UserID:  sess.UserID,
		Caption: caption,
		Media:   media,
	}
	if err := s.db.WithContext(ctx).Create(&post).Error; err != nil {
		return nil, backendErr(err)
	}

	s.notifier.publish(Event{Table: "posts", Action: "insert", PostID: post.ID})

	return &feed.Post{
		ID:        post.ID,
		UserID:    post.UserID,
		Handle:    sess.Handle,
		Caption:   post.Caption,
		Media:     media,
		CreatedAt: post.CreatedAt,
		LikesUp:   []string{},
		LikesDown: []string{},
		Comments:  []*feed.Comment{},
	}, nil
}

func (s *Remote) AddComment(ctx context.Context, postID, content string) (*feed.Comment, error) {
	return s.addComment(ctx, postID, "", content)
}

func (s *Remote) AddReply(ctx context.Context, postID, commentID, content string) (*feed.Comment, error) {
	return s.addComment(ctx, postID, commentID, content)
}

func (s *Remote) addComment(ctx context.Context, postID, parentID, content string) (*feed.Comment, error) {
	sess, err := s.requireSession()
	if err != nil {
		return nil, err
	}

	var post models.Post
	if err := s.db.WithContext(ctx).First(&post, "id = ?", postID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOwnershipViolation
		}
		return nil, backendErr(err)
	}

	comment := models.Comment{
		ID:      uuid.New().String(),
		PostID:  postID,
		UserID:  sess.UserID,
		Content: content,
	}
	if parentID != "" {
		// The parent must belong to the same post; the stored parent
		// reference is what later lets ListPosts rebuild the nesting.
		var parent models.Comment
		err := s.db.WithContext(ctx).First(&parent, "id = ? AND post_id = ?", parentID, postID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOwnershipViolation
		}
		if err != nil {
			return nil, backendErr(err)
		}
		comment.ParentID = &parentID
	}

	if err := s.db.WithContext(ctx).Create(&comment).Error; err != nil {
		return nil, backendErr(err)
	}

	s.notifier.publish(Event{Table: "comments", Action: "insert", PostID: postID})

	return &feed.Comment{
		ID:        comment.ID,
		PostID:    comment.PostID,
		UserID:    comment.UserID,
		Content:   comment.Content,
		CreatedAt: comment.CreatedAt,
		LikesUp:   []string{},
		LikesDown: []string{},
	}, nil
}

func (s *Remote) UpdatePost(ctx context.Context, postID, caption string) error {
	sess, err := s.requireSession()
	if err != nil {
		return err
	}

	// Owner scoping lives in the WHERE clause; zero rows means either
	// missing or someone else's, indistinguishably.
	res := s.db.WithContext(ctx).Model(&models.Post{}).
		Where("id = ? AND user_id = ?", postID, sess.UserID).
		Updates(map[string]interface{}{"caption": caption, "edited": true})
	if res.Error != nil {
		return backendErr(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrOwnershipViolation
	}

	s.notifier.publish(Event{Table: "posts", Action: "update", PostID: postID})
	return nil
}

func (s *Remote) DeletePost(ctx context.Context, postID string) error {
	sess, err := s.requireSession()
	if err != nil {
		return err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("id = ? AND user_id = ?", postID, sess.UserID).Delete(&models.Post{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrOwnershipViolation
		}
		return s.cascadePostDelete(tx, postID)
	})
	if err != nil {
		if errors.Is(err, ErrOwnershipViolation) {
			return ErrOwnershipViolation
		}
		return backendErr(err)
	}

	s.notifier.publish(Event{Table: "posts", Action: "delete", PostID: postID})
	return nil
}

// cascadePostDelete removes the comments, replies and reaction rows hanging
// off a post.
func (s *Remote) cascadePostDelete(tx *gorm.DB, postID string) error {
	var commentIDs []string
	if err := tx.Model(&models.Comment{}).Where("post_id = ?", postID).Pluck("id", &commentIDs).Error; err != nil {
		return err
	}
	if len(commentIDs) > 0 {
		if err := tx.Where("comment_id IN ?", commentIDs).Delete(&models.CommentReaction{}).Error; err != nil {
			return err
		}
	}
	if err := tx.Where("post_id = ?", postID).Delete(&models.Comment{}).Error; err != nil {
		return err
	}
	return tx.Where("post_id = ?", postID).Delete(&models.PostReaction{}).Error
}

func (s *Remote) UpdateComment(ctx context.Context, postID, commentID, content string) error {
	sess, err := s.requireSession()
	if err != nil {
		return err
	}

	res := s.db.WithContext(ctx).Model(&models.Comment{}).
		Where("id = ? AND post_id = ? AND user_id = ?", commentID, postID, sess.UserID).
		Updates(map[string]interface{}{"content": content, "edited": true})
	if res.Error != nil {
		return backendErr(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrOwnershipViolation
	}

	s.notifier.publish(Event{Table: "comments", Action: "update", PostID: postID})
	return nil
}

func (s *Remote) DeleteComment(ctx context.Context, postID, commentID string) error {
	sess, err := s.requireSession()
	if err != nil {
		return err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("id = ? AND post_id = ? AND user_id = ?", commentID, postID, sess.UserID).Delete(&models.Comment{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrOwnershipViolation
		}
		// The whole reply subtree and its reactions go with the comment.
		// Replies store their immediate parent, so the descendant set is
		// collected level by level.
		ids := []string{commentID}
		seen := map[string]bool{commentID: true}
		frontier := []string{commentID}
		for len(frontier) > 0 {
			var found []string
			if err := tx.Model(&models.Comment{}).Where("parent_id IN ?", frontier).Pluck("id", &found).Error; err != nil {
				return err
			}
			var next []string
			for _, id := range found {
				if !seen[id] {
					seen[id] = true
					ids = append(ids, id)
					next = append(next, id)
				}
			}
			frontier = next
		}
		if err := tx.Where("comment_id IN ?", ids).Delete(&models.CommentReaction{}).Error; err != nil {
			return err
		}
		return tx.Where("id IN ?", ids).Delete(&models.Comment{}).Error
	})
	if err != nil {
		if errors.Is(err, ErrOwnershipViolation) {
			return ErrOwnershipViolation
		}
		return backendErr(err)
	}

	s.notifier.publish(Event{Table: "comments", Action: "delete", PostID: postID})
	return nil
}

func (s *Remote) ToggleReactPost(ctx context.Context, postID, direction string) error {
	sess, err := s.requireSession()
	if err != nil {
		return err
	}

	// Read-modify-write, not atomic: two users toggling the same post at
	// once can lose one vote. Last writer wins; accepted limitation.
	var existing models.PostReaction
	err = s.db.WithContext(ctx).Where("post_id = ? AND user_id = ?", postID, sess.UserID).First(&existing).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		reaction := models.PostReaction{
			PostID: postID,
			UserID: sess.UserID,
			Up:     direction == ReactUp,
		}
		if err := s.db.WithContext(ctx).Create(&reaction).Error; err != nil {
			return backendErr(err)
		}
	case err != nil:
		return backendErr(err)
	case existing.Up == (direction == ReactUp):
		// Same direction again: withdraw the vote.
		if err := s.db.WithContext(ctx).Delete(&existing).Error; err != nil {
			return backendErr(err)
		}
	default:
		// Opposite direction: the single row flips, which also clears
		// the old vote.
		if err := s.db.WithContext(ctx).Model(&existing).Update("up", direction == ReactUp).Error; err != nil {
			return backendErr(err)
		}
	}

	s.notifier.publish(Event{Table: "reactions", Action: "update", PostID: postID})
	return nil
}

func (s *Remote) ToggleReactComment(ctx context.Context, postID, commentID, direction string) error {
	sess, err := s.requireSession()
	if err != nil {
		return err
	}

	var comment models.Comment
	err = s.db.WithContext(ctx).First(&comment, "id = ? AND post_id = ?", commentID, postID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrOwnershipViolation
	}
	if err != nil {
		return backendErr(err)
	}

	var existing models.CommentReaction
	err = s.db.WithContext(ctx).Where("comment_id = ? AND user_id = ?", commentID, sess.UserID).First(&existing).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		reaction := models.CommentReaction{
			CommentID: commentID,
			UserID:    sess.UserID,
			Up:        direction == ReactUp,
		}
		if err := s.db.WithContext(ctx).Create(&reaction).Error; err != nil {
			return backendErr(err)
		}
	case err != nil:
		return backendErr(err)
	case existing.Up == (direction == ReactUp):
		if err := s.db.WithContext(ctx).Delete(&existing).Error; err != nil {
			return backendErr(err)
		}
	default:
		if err := s.db.WithContext(ctx).Model(&existing).Update("up", direction == ReactUp).Error; err != nil {
			return backendErr(err)
		}
	}

	s.notifier.publish(Event{Table: "reactions", Action: "update", PostID: postID})
	return nil
}

func (s *Remote) DeleteAllPostsByUser(ctx context.Context, userID string) error {
	if !s.IsAdmin() {
		if s.CurrentUser() == nil {
			return ErrLoginRequired
		}
		return ErrOwnershipViolation
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var postIDs []string
		if err := tx.Model(&models.Post{}).Where("user_id = ?", userID).Pluck("id", &postIDs).Error; err != nil {
			return err
		}
		for _, id := range postIDs {
			if err := s.cascadePostDelete(tx, id); err != nil {
				return err
			}
		}
		return tx.Where("user_id = ?", userID).Delete(&models.Post{}).Error
	})
	if err != nil {
		return backendErr(err)
	}

	s.notifier.publish(Event{Table: "posts", Action: "delete"})
	return nil
}

func (s *Remote) Subscribe(fn func(Event)) func() {
	return s.notifier.subscribe(fn)
}

func (s *Remote) uniqueHandle(ctx context.Context, base string) string {
	base = models.NormalizeHandle(base)
	handle := base
	counter := 1
	for {
		var existing models.Profile
		if err := s.db.WithContext(ctx).Where("handle = ?", handle).First(&existing).Error; err != nil {
			return handle
		}
		handle = fmt.Sprintf("%s_%d", base, counter)
		counter++
	}
}
