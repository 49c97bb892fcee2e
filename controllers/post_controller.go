package controllers

import (
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"instafacts-api/feed"
	"instafacts-api/store"
	"instafacts-api/utils"
)

type PostController struct {
	store store.Store
}

func NewPostController(st store.Store) *PostController {
	return &PostController{store: st}
}

// FeedResponse represents the feed response with pagination metadata. The
// totals describe the newest window the data layer returns, not the whole
// table: older posts fall out of the window rather than onto later pages.
type FeedResponse struct {
	Posts      []*feed.Post `json:"posts"`
	Page       int          `json:"page"`
	Limit      int          `json:"limit"`
	Total      int64        `json:"total"`
	HasMore    bool         `json:"has_more"`
	TotalPages int          `json:"total_pages"`
}

func (pc *PostController) GetPosts(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 50 {
		limit = 10
	}

	posts, err := pc.store.ListPosts(c.Request.Context())
	if err != nil {
		respondStoreError(c, err)
		return
	}

	total := int64(len(posts))
	totalPages := int((total + int64(limit) - 1) / int64(limit))
	start := (page - 1) * limit
	if start > len(posts) {
		start = len(posts)
	}
	end := start + limit
	if end > len(posts) {
		end = len(posts)
	}

	c.JSON(http.StatusOK, FeedResponse{
		Posts:      posts[start:end],
		Page:       page,
		Limit:      limit,
		Total:      total,
		HasMore:    page < totalPages,
		TotalPages: totalPages,
	})
}

// CreatePost accepts a multipart form: a "caption" field plus any number of
// "files" parts. Caption and files may each be empty but not both; that check
// happens before any upload starts.
func (pc *PostController) CreatePost(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid multipart form"})
		return
	}

	caption := ""
	if vals := form.Value["caption"]; len(vals) > 0 {
		caption = vals[0]
	}

	files := form.File["files"]
	uploads := make([]store.Upload, 0, len(files))
	opened := make([]multipart.File, 0, len(files))
	defer func() {
		for _, f := range opened {
			f.Close()
		}
	}()

	for _, fh := range files {
		f, err := fh.Open()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read uploaded file"})
			return
		}
		opened = append(opened, f)
		uploads = append(uploads, store.Upload{
			Name:        fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Size:        fh.Size,
			Data:        f,
		})
	}

	post, err := pc.store.CreatePost(c.Request.Context(), uploads, caption)
	if err != nil {
		respondStoreError(c, err)
		return
	}

	c.JSON(http.StatusCreated, post)
}

type UpdatePostRequest struct {
	Caption string `json:"caption" binding:"required"`
}

func (pc *PostController) UpdatePost(c *gin.Context) {
	postID := c.Param("id")

	var req UpdatePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := pc.store.UpdatePost(c.Request.Context(), postID, req.Caption); err != nil {
		respondStoreError(c, err)
		return
	}

	utils.SendSuccess(c, "Post updated successfully", nil)
}

func (pc *PostController) DeletePost(c *gin.Context) {
	postID := c.Param("id")

	if err := pc.store.DeletePost(c.Request.Context(), postID); err != nil {
		respondStoreError(c, err)
		return
	}

	utils.SendSuccess(c, "Post deleted successfully", nil)
}

type ReactRequest struct {
	Direction string `json:"direction" binding:"required,oneof=up down"`
}

func (pc *PostController) ReactPost(c *gin.Context) {
	postID := c.Param("id")

	var req ReactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := pc.store.ToggleReactPost(c.Request.Context(), postID, req.Direction); err != nil {
		respondStoreError(c, err)
		return
	}

	utils.SendSuccess(c, "Reaction toggled", nil)
}
