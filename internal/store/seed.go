package store

import (
	"time"

	"github.com/moddi-tech/community/internal/domain"
)

// SeedUser pairs a user record with its plaintext password. The password
// is hashed at seed time and never persisted as given.
type SeedUser struct {
	User     domain.User
	Password string
}

// DefaultUsers returns the accounts installed on first run, when the
// backing store holds no roster yet.
func DefaultUsers() []SeedUser {
	return []SeedUser{
		{
			User: domain.User{
				ID:        1,
				Email:     "modditechdesigns@gmail.com",
				FirstName: "Moddi",
				LastName:  "Admin",
				Role:      domain.RoleAdmin,
				Avatar:    domain.AvatarForRole(domain.RoleAdmin),
				JoinDate:  "2024-01-01",
				Bio:       "Founder of ModdiTech Designs",
				Verified:  true,
			},
			Password: "moddi2024",
		},
		{
			User: domain.User{
				ID:        2,
				Email:     "designer@modditech.com",
				FirstName: "Alex",
				LastName:  "Designer",
				Role:      domain.RoleDesigner,
				Avatar:    domain.AvatarForRole(domain.RoleDesigner),
				JoinDate:  "2024-02-15",
				Bio:       "Senior UI/UX Designer",
				Verified:  true,
			},
			Password: "design123",
		},
		{
			User: domain.User{
				ID:        3,
				Email:     "client@example.com",
				FirstName: "Sarah",
				LastName:  "Client",
				Role:      domain.RoleClient,
				Avatar:    domain.AvatarForRole(domain.RoleClient),
				JoinDate:  "2024-03-10",
				Bio:       "Happy customer",
				Verified:  true,
			},
			Password: "client123",
		},
	}
}

// DefaultPosts returns the initial feed content for a category. Only the
// news feed ships with seed posts; other categories start empty.
func DefaultPosts(category domain.Category) []*domain.Post {
	if category != domain.CategoryNews {
		return nil
	}
	return []*domain.Post{
		{
			ID:        1001,
			AuthorID:  1,
			Content:   "Welcome to the new ModdiTech community platform! Share your thoughts and connect with other members.",
			Timestamp: time.Date(2024, time.June, 1, 10, 0, 0, 0, time.UTC),
			Likes:     2,
			LikedBy:   []int64{2, 3},
		},
		{
			ID:        1002,
			AuthorID:  2,
			Content:   "Just finished a fresh redesign of our portfolio section. Feedback welcome!",
			Timestamp: time.Date(2024, time.June, 3, 14, 30, 0, 0, time.UTC),
			Likes:     1,
			LikedBy:   []int64{1},
		},
	}
}
