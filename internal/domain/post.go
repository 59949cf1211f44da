package domain

import (
	"strings"
	"time"
)

// Category identifies a post feed. Each category persists under its own
// storage key and carries its own validation rules.
type Category string

const (
	CategoryNews    Category = "news"
	CategoryReviews Category = "reviews"
	CategoryComment Category = "comments"
)

// Categories lists every known feed.
var Categories = []Category{CategoryNews, CategoryReviews, CategoryComment}

// Valid reports whether the category is one of the known feeds.
func (c Category) Valid() bool {
	switch c {
	case CategoryNews, CategoryReviews, CategoryComment:
		return true
	}
	return false
}

// RequiresRating is true for feeds where every post carries a 1-5 rating.
func (c Category) RequiresRating() bool {
	return c == CategoryReviews
}

// Rating bounds for review posts.
const (
	MinRating = 1
	MaxRating = 5
)

// MinContentLength is the minimum trimmed post content length.
const MinContentLength = 5

// Post is a single feed entry: a news item, review, or comment. The three
// kinds are structurally identical except that reviews carry a rating.
//
// JSON field names are the stored-blob contract; "userId" is kept for
// compatibility with blobs written by earlier deployments even though the
// field is the author id, not a display name.
type Post struct {
	// ID is the unique identifier, derived from creation time. Immutable.
	ID int64 `json:"id"`

	// AuthorID references User.ID. Author identity is always id-based;
	// display names are presentation only.
	AuthorID int64 `json:"userId"`

	// Content is the trimmed body text.
	Content string `json:"content"`

	// Timestamp is set at creation and never changes.
	Timestamp time.Time `json:"timestamp"`

	// Likes always equals len(LikedBy).
	Likes int `json:"likes"`

	// LikedBy holds the ids of users currently liking the post, each at
	// most once.
	LikedBy []int64 `json:"likedBy"`

	// Rating is present on review posts only (1-5).
	Rating *int `json:"rating,omitempty"`
}

// NewPost creates a Post with a trimmed body and an empty like set. The
// caller assigns the ID.
func NewPost(authorID int64, content string, rating *int, now time.Time) *Post {
	return &Post{
		AuthorID:  authorID,
		Content:   strings.TrimSpace(content),
		Timestamp: now,
		Likes:     0,
		LikedBy:   []int64{},
		Rating:    rating,
	}
}

// IsLikedBy reports whether the user currently likes the post.
func (p *Post) IsLikedBy(userID int64) bool {
	for _, id := range p.LikedBy {
		if id == userID {
			return true
		}
	}
	return false
}

// ToggleLike flips the user's membership in the like set and returns the
// resulting liked state. Likes is kept equal to len(LikedBy).
func (p *Post) ToggleLike(userID int64) bool {
	for i, id := range p.LikedBy {
		if id == userID {
			p.LikedBy = append(p.LikedBy[:i], p.LikedBy[i+1:]...)
			p.Likes = len(p.LikedBy)
			return false
		}
	}
	p.LikedBy = append(p.LikedBy, userID)
	p.Likes = len(p.LikedBy)
	return true
}

// CanBeDeletedBy reports whether the acting user may delete the post:
// the author always can, admins can delete anything.
func (p *Post) CanBeDeletedBy(userID int64, role Role) bool {
	return p.AuthorID == userID || role.IsAdmin()
}
