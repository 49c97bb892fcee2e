package controllers

import (
	"github.com/gin-gonic/gin"

	"instafacts-api/store"
	"instafacts-api/utils"
)

type AdminController struct {
	store store.Store
}

func NewAdminController(st store.Store) *AdminController {
	return &AdminController{store: st}
}

// DeleteUserPosts is the administrative bulk delete. The store gates it on
// the configured admin identity; there is no confirmation step here.
func (ac *AdminController) DeleteUserPosts(c *gin.Context) {
	userID := c.Param("id")

	if err := ac.store.DeleteAllPostsByUser(c.Request.Context(), userID); err != nil {
		respondStoreError(c, err)
		return
	}

	utils.SendSuccess(c, "All posts by user deleted", nil)
}
