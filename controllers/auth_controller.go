package controllers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"instafacts-api/services"
	"instafacts-api/store"
	"instafacts-api/utils"
)

type AuthController struct {
	store        store.Store
	jwtSecret    string
	emailService *services.EmailService
}

func NewAuthController(st store.Store, jwtSecret string, emailService *services.EmailService) *AuthController {
	return &AuthController{
		store:        st,
		jwtSecret:    jwtSecret,
		emailService: emailService,
	}
}

type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
	Handle   string `json:"handle"` // Optional - will be generated if not provided
	Bio      string `json:"bio"`
}

type LoginRequest struct {
	// Identifier may be an email or a handle.
	Identifier string `json:"identifier" binding:"required"`
	Password   string `json:"password" binding:"required"`
}

type AuthResponse struct {
	Token string         `json:"token"`
	User  *store.Session `json:"user"`
}

func (ac *AuthController) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if !utils.IsValidPassword(req.Password) {
		utils.SendValidationError(c, "password must be at least 6 characters and mix at least 3 of: uppercase, lowercase, numbers, symbols")
		return
	}

	sess, err := ac.store.SignUp(c.Request.Context(), req.Email, req.Password, req.Handle, req.Bio)
	if err != nil {
		respondStoreError(c, err)
		return
	}

	// Welcome mail is best-effort and never blocks registration.
	go func() {
		if err := ac.emailService.SendWelcomeEmail(sess.Email, sess.Handle); err != nil {
			fmt.Printf("Failed to send welcome email: %v\n", err)
		}
	}()

	token, err := ac.generateJWT(sess.UserID, sess.Email)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}

	c.JSON(http.StatusCreated, AuthResponse{Token: token, User: sess})
}

func (ac *AuthController) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sess, err := ac.store.SignIn(c.Request.Context(), req.Identifier, req.Password)
	if err != nil {
		respondStoreError(c, err)
		return
	}

	token, err := ac.generateJWT(sess.UserID, sess.Email)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}

	c.JSON(http.StatusOK, AuthResponse{Token: token, User: sess})
}

func (ac *AuthController) Logout(c *gin.Context) {
	if err := ac.store.SignOut(c.Request.Context()); err != nil {
		respondStoreError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Successfully logged out"})
}

// Helper functions
func (ac *AuthController) generateJWT(userID, email string) (string, error) {
	claims := jwt.MapClaims{
		"user_id": userID,
		"email":   email,
		"exp":     time.Now().Add(time.Hour * 24 * 7).Unix(), // 7 days
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(ac.jwtSecret))
}
