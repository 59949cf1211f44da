package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/moddi-tech/community/internal/domain"
	"github.com/moddi-tech/community/internal/kvstore"
	"github.com/moddi-tech/community/internal/kvstore/memory"
)

// directory is a fixed user lookup for feed tests.
type directory map[int64]*domain.User

func (d directory) FindByID(ctx context.Context, id int64) (*domain.User, error) {
	if u, ok := d[id]; ok {
		return u, nil
	}
	return nil, domain.ErrUserNotFound
}

func testDirectory() directory {
	return directory{
		1: {ID: 1, Email: "admin@example.test", FirstName: "Admin", Role: domain.RoleAdmin},
		2: {ID: 2, Email: "ada@b.com", FirstName: "Ada", Role: domain.RoleDesigner},
		3: {ID: 3, Email: "carl@b.com", FirstName: "Carl", Role: domain.RoleClient},
	}
}

func newTestFeed(t *testing.T, kv kvstore.Store, category domain.Category, opts ...FeedOption) *FeedStore {
	t.Helper()
	opts = append([]FeedOption{WithoutSeedPosts()}, opts...)
	feed, err := NewFeedStore(context.Background(), kv, category, testDirectory(), zerolog.Nop(), opts...)
	if err != nil {
		t.Fatalf("NewFeedStore: %v", err)
	}
	return feed
}

func TestNewFeedStoreRejectsUnknownCategory(t *testing.T) {
	_, err := NewFeedStore(context.Background(), memory.New(), domain.Category("likes"), testDirectory(), zerolog.Nop())
	if err == nil {
		t.Fatal("expected error for unknown category")
	}
}

func TestFeedStoreCreatePostValidation(t *testing.T) {
	rating := 3
	badRating := 6

	tests := []struct {
		name     string
		category domain.Category
		input    CreatePostInput
		wantErr  error
	}{
		{
			name:     "missing author",
			category: domain.CategoryNews,
			input:    CreatePostInput{Content: "hello world"},
			wantErr:  domain.ErrAuthorRequired,
		},
		{
			name:     "blank content",
			category: domain.CategoryNews,
			input:    CreatePostInput{AuthorID: 2, Content: "   "},
			wantErr:  domain.ErrContentRequired,
		},
		{
			name:     "short content",
			category: domain.CategoryNews,
			input:    CreatePostInput{AuthorID: 2, Content: "hey"},
			wantErr:  domain.ErrContentTooShort,
		},
		{
			name:     "short multibyte content",
			category: domain.CategoryNews,
			input:    CreatePostInput{AuthorID: 2, Content: "ñéíø"},
			wantErr:  domain.ErrContentTooShort,
		},
		{
			name:     "review without rating",
			category: domain.CategoryReviews,
			input:    CreatePostInput{AuthorID: 2, Content: "great service"},
			wantErr:  domain.ErrRatingRequired,
		},
		{
			name:     "review with out-of-range rating",
			category: domain.CategoryReviews,
			input:    CreatePostInput{AuthorID: 2, Content: "great service", Rating: &badRating},
			wantErr:  domain.ErrInvalidRating,
		},
		{
			name:     "rating on a news post",
			category: domain.CategoryNews,
			input:    CreatePostInput{AuthorID: 2, Content: "hello world", Rating: &rating},
			wantErr:  domain.ErrInvalidRating,
		},
		{
			name:     "unknown author",
			category: domain.CategoryNews,
			input:    CreatePostInput{AuthorID: 99, Content: "hello world"},
			wantErr:  domain.ErrUserNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			feed := newTestFeed(t, memory.New(), tt.category)

			_, err := feed.CreatePost(context.Background(), tt.input)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
			if feed.Count() != 0 {
				t.Error("failed create must leave the feed unchanged")
			}
		})
	}
}

func TestFeedStoreCreatePostPrepends(t *testing.T) {
	base := time.Date(2024, time.July, 15, 9, 0, 0, 0, time.UTC)
	tick := 0
	clock := func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Minute)
	}
	feed := newTestFeed(t, memory.New(), domain.CategoryNews, WithFeedClock(clock))
	ctx := context.Background()

	for _, content := range []string{"first post", "second post", "third post"} {
		if _, err := feed.CreatePost(ctx, CreatePostInput{AuthorID: 2, Content: content}); err != nil {
			t.Fatalf("create %q: %v", content, err)
		}
	}

	posts := feed.ListFeed()
	if len(posts) != 3 {
		t.Fatalf("expected 3 posts, got %d", len(posts))
	}
	want := []string{"third post", "second post", "first post"}
	for i, w := range want {
		if posts[i].Content != w {
			t.Errorf("posts[%d] = %q, want %q", i, posts[i].Content, w)
		}
	}
	for i := 1; i < len(posts); i++ {
		if posts[i].Timestamp.After(posts[i-1].Timestamp) {
			t.Error("feed must be ordered newest first")
		}
	}
}

func TestFeedStoreOrderSurvivesClockStepBack(t *testing.T) {
	base := time.Date(2024, time.July, 15, 9, 0, 0, 0, time.UTC)
	current := base
	feed := newTestFeed(t, memory.New(), domain.CategoryNews, WithFeedClock(func() time.Time { return current }))
	ctx := context.Background()

	// The second post carries an earlier timestamp than the first.
	steps := []struct {
		at      time.Duration
		content string
	}{
		{10 * time.Minute, "posted at ten past"},
		{5 * time.Minute, "posted at five past"},
		{20 * time.Minute, "posted at twenty past"},
	}
	for _, step := range steps {
		current = base.Add(step.at)
		if _, err := feed.CreatePost(ctx, CreatePostInput{AuthorID: 2, Content: step.content}); err != nil {
			t.Fatalf("create %q: %v", step.content, err)
		}
	}

	posts := feed.ListFeed()
	if len(posts) != 3 {
		t.Fatalf("expected 3 posts, got %d", len(posts))
	}
	want := []string{"posted at twenty past", "posted at ten past", "posted at five past"}
	for i, w := range want {
		if posts[i].Content != w {
			t.Errorf("posts[%d] = %q, want %q", i, posts[i].Content, w)
		}
	}
}

func TestFeedStoreReviewRatings(t *testing.T) {
	feed := newTestFeed(t, memory.New(), domain.CategoryReviews)
	ctx := context.Background()

	for rating := domain.MinRating; rating <= domain.MaxRating; rating++ {
		r := rating
		post, err := feed.CreatePost(ctx, CreatePostInput{AuthorID: 3, Content: "solid work here", Rating: &r})
		if err != nil {
			t.Fatalf("rating %d rejected: %v", rating, err)
		}
		if post.Rating == nil || *post.Rating != rating {
			t.Errorf("expected rating %d on post", rating)
		}
	}
}

func TestFeedStoreLikeToggle(t *testing.T) {
	feed := newTestFeed(t, memory.New(), domain.CategoryNews)
	ctx := context.Background()

	post, err := feed.CreatePost(ctx, CreatePostInput{AuthorID: 2, Content: "hello world"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	likes, liked, err := feed.LikePost(ctx, post.ID, 3)
	if err != nil || !liked || likes != 1 {
		t.Fatalf("first like: likes=%d liked=%v err=%v", likes, liked, err)
	}

	likes, liked, err = feed.LikePost(ctx, post.ID, 3)
	if err != nil || liked || likes != 0 {
		t.Fatalf("second like must undo the first: likes=%d liked=%v err=%v", likes, liked, err)
	}

	if _, _, err := feed.LikePost(ctx, 999, 3); !errors.Is(err, domain.ErrPostNotFound) {
		t.Errorf("expected ErrPostNotFound, got %v", err)
	}
}

func TestFeedStoreDeletePost(t *testing.T) {
	ctx := context.Background()

	newFeedWithPost := func(t *testing.T) (*FeedStore, int64) {
		feed := newTestFeed(t, memory.New(), domain.CategoryNews)
		post, err := feed.CreatePost(ctx, CreatePostInput{AuthorID: 2, Content: "hello world"})
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		return feed, post.ID
	}

	t.Run("author may delete", func(t *testing.T) {
		feed, id := newFeedWithPost(t)
		if err := feed.DeletePost(ctx, id, 2); err != nil {
			t.Fatalf("author delete: %v", err)
		}
		if feed.Count() != 0 {
			t.Error("post must be gone")
		}
	})

	t.Run("admin may delete", func(t *testing.T) {
		feed, id := newFeedWithPost(t)
		if err := feed.DeletePost(ctx, id, 1); err != nil {
			t.Fatalf("admin delete: %v", err)
		}
		if feed.Count() != 0 {
			t.Error("post must be gone")
		}
	})

	t.Run("other member may not delete", func(t *testing.T) {
		feed, id := newFeedWithPost(t)
		if err := feed.DeletePost(ctx, id, 3); !errors.Is(err, domain.ErrNotAuthorized) {
			t.Fatalf("expected ErrNotAuthorized, got %v", err)
		}
		if feed.Count() != 1 {
			t.Error("failed delete must leave the feed unchanged")
		}
	})

	t.Run("unknown post", func(t *testing.T) {
		feed, _ := newFeedWithPost(t)
		if err := feed.DeletePost(ctx, 999, 1); !errors.Is(err, domain.ErrPostNotFound) {
			t.Fatalf("expected ErrPostNotFound, got %v", err)
		}
	})
}

func TestFeedStoreByAuthor(t *testing.T) {
	base := time.Date(2024, time.July, 15, 9, 0, 0, 0, time.UTC)
	tick := 0
	clock := func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Minute)
	}
	feed := newTestFeed(t, memory.New(), domain.CategoryNews, WithFeedClock(clock))
	ctx := context.Background()

	for i, authorID := range []int64{2, 3, 2, 2} {
		if _, err := feed.CreatePost(ctx, CreatePostInput{AuthorID: authorID, Content: "post number " + string(rune('0'+i))}); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	if got := feed.CountByAuthor(2); got != 3 {
		t.Errorf("CountByAuthor(2) = %d, want 3", got)
	}
	if got := feed.CountByAuthor(3); got != 1 {
		t.Errorf("CountByAuthor(3) = %d, want 1", got)
	}
	if got := feed.CountByAuthor(99); got != 0 {
		t.Errorf("CountByAuthor(99) = %d, want 0", got)
	}

	posts := feed.ListByAuthor(2)
	if len(posts) != 3 {
		t.Fatalf("ListByAuthor(2) returned %d posts", len(posts))
	}
	for i := 1; i < len(posts); i++ {
		if posts[i].Timestamp.After(posts[i-1].Timestamp) {
			t.Error("author listing must be newest first")
		}
	}
}

func TestFeedStorePersistenceRoundTrip(t *testing.T) {
	kv := memory.New()
	ctx := context.Background()

	first := newTestFeed(t, kv, domain.CategoryNews)
	created, err := first.CreatePost(ctx, CreatePostInput{AuthorID: 2, Content: "hello world"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, _, err := first.LikePost(ctx, created.ID, 3); err != nil {
		t.Fatalf("like: %v", err)
	}

	second := newTestFeed(t, kv, domain.CategoryNews)
	posts := second.ListFeed()
	if len(posts) != 1 {
		t.Fatalf("expected 1 post after reload, got %d", len(posts))
	}
	got := posts[0]
	if got.ID != created.ID || got.Content != created.Content || got.AuthorID != created.AuthorID {
		t.Errorf("reloaded post differs: %+v", got)
	}
	if got.Likes != 1 || !got.IsLikedBy(3) {
		t.Error("likes must survive reload")
	}
	if !got.Timestamp.Equal(created.Timestamp) {
		t.Errorf("timestamp mismatch: %v vs %v", got.Timestamp, created.Timestamp)
	}
}

func TestFeedStoreCategoriesAreIsolated(t *testing.T) {
	kv := memory.New()
	ctx := context.Background()

	news := newTestFeed(t, kv, domain.CategoryNews)
	comments := newTestFeed(t, kv, domain.CategoryComment)

	if _, err := news.CreatePost(ctx, CreatePostInput{AuthorID: 2, Content: "hello world"}); err != nil {
		t.Fatalf("create: %v", err)
	}

	if comments.Count() != 0 {
		t.Error("posts must not leak across categories")
	}
	if reloaded := newTestFeed(t, kv, domain.CategoryComment); reloaded.Count() != 0 {
		t.Error("comment blob must stay empty")
	}
}

func TestFeedStoreCorruptBlobReseeds(t *testing.T) {
	kv := memory.New()
	ctx := context.Background()

	if err := kv.Set(ctx, kvstore.KeyNews, []byte("[broken")); err != nil {
		t.Fatalf("set: %v", err)
	}

	feed, err := NewFeedStore(ctx, kv, domain.CategoryNews, testDirectory(), zerolog.Nop())
	if err != nil {
		t.Fatalf("NewFeedStore: %v", err)
	}

	// The default news seed replaces the corrupt blob, with like counts
	// derived from the like sets.
	if feed.Count() == 0 {
		t.Fatal("corrupt blob must degrade to seed")
	}
	for _, p := range feed.ListFeed() {
		if p.Likes != len(p.LikedBy) {
			t.Errorf("post %d: likes=%d likedBy=%d", p.ID, p.Likes, len(p.LikedBy))
		}
	}
}
