package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"instafacts-api/models"
	"instafacts-api/store"
	"instafacts-api/utils"
)

type UserController struct {
	store store.Store
}

func NewUserController(st store.Store) *UserController {
	return &UserController{store: st}
}

func (uc *UserController) GetProfile(c *gin.Context) {
	sess := uc.store.CurrentUser()
	if sess == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Login required"})
		return
	}

	profile, err := uc.store.GetProfile(c.Request.Context(), sess.UserID)
	if err != nil {
		respondStoreError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"profile":  profile,
		"email":    sess.Email,
		"is_admin": uc.store.IsAdmin(),
	})
}

type UpdateProfileRequest struct {
	Handle string `json:"handle" binding:"required"`
	Bio    string `json:"bio"`
}

func (uc *UserController) UpdateProfile(c *gin.Context) {
	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if !utils.IsValidHandle(models.NormalizeHandle(req.Handle)) {
		utils.SendValidationError(c, "handle must be 2-50 characters of a-z, 0-9 and _")
		return
	}

	if err := uc.store.UpdateProfile(c.Request.Context(), req.Handle, req.Bio); err != nil {
		respondStoreError(c, err)
		return
	}

	utils.SendSuccess(c, "Profile updated successfully", nil)
}

// GetUser is the public per-user profile page lookup.
func (uc *UserController) GetUser(c *gin.Context) {
	profile, err := uc.store.GetProfile(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondStoreError(c, err)
		return
	}

	c.JSON(http.StatusOK, profile)
}
