package database

import (
	"fmt"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"instafacts-api/models"
)

func Initialize(databaseURL string) (*gorm.DB, error) {
	db, err := gorm.Open(mysql.Open(databaseURL), &gorm.Config{
		Logger:                                   logger.Default.LogMode(logger.Warn),
		TranslateError:                           true,
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return db, nil
}

func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.User{},
		&models.Profile{},
		&models.Post{},
		&models.PostReaction{},
		&models.Comment{},
		&models.CommentReaction{},
	)
	if err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	if err := addDatabaseConstraints(db); err != nil {
		return fmt.Errorf("failed to add database constraints: %w", err)
	}

	return nil
}

func addDatabaseConstraints(db *gorm.DB) error {
	// One reaction row per user per entity. Direction flips rewrite the
	// row, so a user can never sit in both sets.
	if err := db.Exec("ALTER TABLE post_reactions ADD CONSTRAINT uk_post_reactions_post_user UNIQUE (post_id, user_id)").Error; err != nil {
		// Ignore error if constraint already exists
		fmt.Printf("Warning: Could not add unique constraint for post_reactions: %v\n", err)
	}

	if err := db.Exec("ALTER TABLE comment_reactions ADD CONSTRAINT uk_comment_reactions_comment_user UNIQUE (comment_id, user_id)").Error; err != nil {
		fmt.Printf("Warning: Could not add unique constraint for comment_reactions: %v\n", err)
	}

	return nil
}

// SeedData can be used to populate the database with initial data for development/testing
func SeedData(db *gorm.DB) error {
	var userCount int64
	db.Model(&models.User{}).Count(&userCount)

	if userCount > 0 {
		fmt.Println("Database already has data, skipping seed")
		return nil
	}

	testUsers := []models.User{
		{
			ID:       "user-1",
			Email:    "john@example.com",
			Password: "$2a$10$dummy", // This should be properly hashed in real scenarios
		},
		{
			ID:       "user-2",
			Email:    "jane@example.com",
			Password: "$2a$10$dummy",
		},
	}
	testProfiles := []models.Profile{
		{UserID: "user-1", Handle: "john_doe", Bio: "Sunsets and street food"},
		{UserID: "user-2", Handle: "jane_smith", Bio: "Coffee and cameras"},
	}

	for _, user := range testUsers {
		if err := db.Create(&user).Error; err != nil {
			fmt.Printf("Warning: Could not create test user %s: %v\n", user.Email, err)
		}
	}
	for _, profile := range testProfiles {
		if err := db.Create(&profile).Error; err != nil {
			fmt.Printf("Warning: Could not create test profile %s: %v\n", profile.Handle, err)
		}
	}

	testPosts := []models.Post{
		{
			ID:      "post-1",
			UserID:  "user-1",
			Caption: "First light over the pass",
			Media: models.MediaSlice{
				{Kind: models.MediaImage, URL: "https://picsum.photos/600/400?random=1"},
			},
		},
	}
	for _, post := range testPosts {
		if err := db.Create(&post).Error; err != nil {
			fmt.Printf("Warning: Could not create test post %s: %v\n", post.ID, err)
		}
	}

	fmt.Println("Database seeded with test data")
	return nil
}
