package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"instafacts-api/store"
	"instafacts-api/utils"
)

type CommentController struct {
	store store.Store
}

func NewCommentController(st store.Store) *CommentController {
	return &CommentController{store: st}
}

type CreateCommentRequest struct {
	Content string `json:"content" binding:"required"`
}

func (cc *CommentController) CreateComment(c *gin.Context) {
	postID := c.Param("id")

	var req CreateCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	comment, err := cc.store.AddComment(c.Request.Context(), postID, req.Content)
	if err != nil {
		respondStoreError(c, err)
		return
	}

	c.JSON(http.StatusCreated, comment)
}

func (cc *CommentController) CreateReply(c *gin.Context) {
	postID := c.Param("id")
	commentID := c.Param("cid")

	var req CreateCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	reply, err := cc.store.AddReply(c.Request.Context(), postID, commentID, req.Content)
	if err != nil {
		respondStoreError(c, err)
		return
	}

	c.JSON(http.StatusCreated, reply)
}

func (cc *CommentController) UpdateComment(c *gin.Context) {
	postID := c.Param("id")
	commentID := c.Param("cid")

	var req CreateCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := cc.store.UpdateComment(c.Request.Context(), postID, commentID, req.Content); err != nil {
		respondStoreError(c, err)
		return
	}

	utils.SendSuccess(c, "Comment updated successfully", nil)
}

func (cc *CommentController) DeleteComment(c *gin.Context) {
	postID := c.Param("id")
	commentID := c.Param("cid")

	if err := cc.store.DeleteComment(c.Request.Context(), postID, commentID); err != nil {
		respondStoreError(c, err)
		return
	}

	utils.SendSuccess(c, "Comment deleted successfully", nil)
}

func (cc *CommentController) ReactComment(c *gin.Context) {
	postID := c.Param("id")
	commentID := c.Param("cid")

	var req ReactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := cc.store.ToggleReactComment(c.Request.Context(), postID, commentID, req.Direction); err != nil {
		respondStoreError(c, err)
		return
	}

	utils.SendSuccess(c, "Reaction toggled", nil)
}
