package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"github.com/moddi-tech/community/internal/domain"
	"github.com/moddi-tech/community/internal/kvstore"
	"github.com/moddi-tech/community/internal/metrics"
)

// UserDirectory is the slice of the account store a feed needs: resolving
// an acting user for authorship checks and deletion rights.
type UserDirectory interface {
	FindByID(ctx context.Context, id int64) (*domain.User, error)
}

// FeedStore manages the posts of one category. Posts are held newest
// first in memory and written through as one JSON blob per category.
type FeedStore struct {
	mu       sync.RWMutex
	kv       kvstore.Store
	category domain.Category
	users    UserDirectory
	logger   zerolog.Logger
	metrics  *metrics.Metrics
	now      func() time.Time

	seed  []*domain.Post
	posts []*domain.Post
}

// FeedOption configures a FeedStore.
type FeedOption func(*FeedStore)

// WithSeedPosts replaces the default first-run posts.
func WithSeedPosts(posts []*domain.Post) FeedOption {
	return func(s *FeedStore) { s.seed = posts }
}

// WithoutSeedPosts disables first-run seeding; the feed starts empty.
func WithoutSeedPosts() FeedOption {
	return func(s *FeedStore) { s.seed = nil }
}

// WithFeedMetrics enables operation metrics.
func WithFeedMetrics(m *metrics.Metrics) FeedOption {
	return func(s *FeedStore) { s.metrics = m }
}

// WithFeedClock overrides the time source. Used in tests.
func WithFeedClock(now func() time.Time) FeedOption {
	return func(s *FeedStore) { s.now = now }
}

// NewFeedStore loads the category's posts from the key-value store. A
// missing or unreadable blob degrades to the seed posts; construction
// only fails for an invalid category.
func NewFeedStore(ctx context.Context, kv kvstore.Store, category domain.Category, users UserDirectory, logger zerolog.Logger, opts ...FeedOption) (*FeedStore, error) {
	if !category.Valid() {
		return nil, fmt.Errorf("unknown feed category %q", category)
	}
	s := &FeedStore{
		kv:       kv,
		category: category,
		users:    users,
		logger:   logger.With().Str("store", "feed").Str("category", string(category)).Logger(),
		now:      time.Now,
		seed:     DefaultPosts(category),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.load(ctx)
	return s, nil
}

// Category returns the feed's category.
func (s *FeedStore) Category() domain.Category { return s.category }

func (s *FeedStore) load(ctx context.Context) {
	data, err := s.kv.Get(ctx, feedKey(s.category))
	switch {
	case err == nil:
		var posts []*domain.Post
		if jsonErr := json.Unmarshal(data, &posts); jsonErr != nil {
			s.logger.Warn().Err(jsonErr).Msg("feed blob is corrupt, reseeding")
			s.installSeed(ctx)
		} else {
			s.posts = posts
			s.sortNewestFirst()
		}
	case errors.Is(err, kvstore.ErrKeyNotFound):
		s.installSeed(ctx)
	default:
		s.logger.Warn().Err(err).Msg("failed to read feed, starting from seed")
		s.installSeed(ctx)
	}
}

func (s *FeedStore) installSeed(ctx context.Context) {
	s.posts = make([]*domain.Post, 0, len(s.seed))
	for _, p := range s.seed {
		clone := copyPost(p)
		clone.Likes = len(clone.LikedBy)
		s.posts = append(s.posts, clone)
	}
	s.sortNewestFirst()
	if len(s.posts) == 0 {
		return
	}
	if err := s.persist(ctx); err != nil {
		s.logger.Warn().Err(err).Msg("failed to persist seed posts")
	}
	s.logger.Info().Int("posts", len(s.posts)).Msg("seeded feed")
}

// feedKey maps a category to its blob key.
func feedKey(c domain.Category) string {
	switch c {
	case domain.CategoryNews:
		return kvstore.KeyNews
	case domain.CategoryReviews:
		return kvstore.KeyReviews
	default:
		return kvstore.KeyComments
	}
}

func (s *FeedStore) persist(ctx context.Context) error {
	data, err := json.Marshal(s.posts)
	if err != nil {
		return domain.NewDomainError(domain.ErrStorage, err.Error(), feedKey(s.category))
	}
	if err := s.kv.Set(ctx, feedKey(s.category), data); err != nil {
		return domain.NewDomainError(domain.ErrStorage, err.Error(), feedKey(s.category))
	}
	return nil
}

func (s *FeedStore) sortNewestFirst() {
	sort.SliceStable(s.posts, func(i, j int) bool {
		return s.posts[i].Timestamp.After(s.posts[j].Timestamp)
	})
}

func (s *FeedStore) observe(op string, start time.Time, err error) {
	if s.metrics != nil {
		s.metrics.ObserveOp("feed_"+string(s.category), op, err, time.Since(start))
	}
}

// CreatePostInput carries the fields of a post submission. Rating is
// only meaningful for the reviews category.
type CreatePostInput struct {
	AuthorID int64
	Content  string
	Rating   *int
}

// CreatePost validates the input, prepends the post to the feed, and
// persists the category blob.
func (s *FeedStore) CreatePost(ctx context.Context, input CreatePostInput) (post *domain.Post, err error) {
	start := s.now()
	defer func() { s.observe("create_post", start, err) }()

	if input.AuthorID == 0 {
		return nil, domain.ErrAuthorRequired
	}
	content := strings.TrimSpace(input.Content)
	if content == "" {
		return nil, domain.ErrContentRequired
	}
	if utf8.RuneCountInString(content) < domain.MinContentLength {
		return nil, domain.ErrContentTooShort
	}
	if s.category.RequiresRating() {
		if input.Rating == nil {
			return nil, domain.ErrRatingRequired
		}
		if *input.Rating < domain.MinRating || *input.Rating > domain.MaxRating {
			return nil, domain.ErrInvalidRating
		}
	} else if input.Rating != nil {
		return nil, domain.ErrInvalidRating
	}

	if _, lookupErr := s.users.FindByID(ctx, input.AuthorID); lookupErr != nil {
		return nil, domain.ErrUserNotFound
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	created := domain.NewPost(input.AuthorID, content, input.Rating, now)
	created.ID = s.nextID(now)
	s.posts = append([]*domain.Post{created}, s.posts...)
	s.sortNewestFirst()

	s.logger.Info().Int64("post_id", created.ID).Int64("author_id", created.AuthorID).Msg("post created")

	if persistErr := s.persist(ctx); persistErr != nil {
		return copyPost(created), persistErr
	}
	return copyPost(created), nil
}

func (s *FeedStore) nextID(now time.Time) int64 {
	id := now.UnixMilli()
	for s.lookup(id) != nil {
		id++
	}
	return id
}

// DeletePost removes a post. Only the author or an admin may delete.
func (s *FeedStore) DeletePost(ctx context.Context, postID, actingUserID int64) (err error) {
	start := s.now()
	defer func() { s.observe("delete_post", start, err) }()

	s.mu.Lock()
	defer s.mu.Unlock()

	idx := -1
	for i, p := range s.posts {
		if p.ID == postID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return domain.ErrPostNotFound
	}

	post := s.posts[idx]
	if post.AuthorID != actingUserID {
		actor, lookupErr := s.users.FindByID(ctx, actingUserID)
		if lookupErr != nil || !actor.Role.IsAdmin() {
			return domain.ErrNotAuthorized
		}
	}

	s.posts = append(s.posts[:idx], s.posts[idx+1:]...)
	s.logger.Info().Int64("post_id", postID).Int64("acting_user_id", actingUserID).Msg("post deleted")

	return s.persist(ctx)
}

// LikePost toggles the acting user's like on a post. It returns the new
// like count and whether the user now likes the post.
func (s *FeedStore) LikePost(ctx context.Context, postID, actingUserID int64) (likes int, liked bool, err error) {
	start := s.now()
	defer func() { s.observe("like_post", start, err) }()

	s.mu.Lock()
	defer s.mu.Unlock()

	post := s.lookup(postID)
	if post == nil {
		return 0, false, domain.ErrPostNotFound
	}

	liked = post.ToggleLike(actingUserID)

	if persistErr := s.persist(ctx); persistErr != nil {
		return post.Likes, liked, persistErr
	}
	return post.Likes, liked, nil
}

// ListFeed returns all posts, newest first.
func (s *FeedStore) ListFeed() []*domain.Post {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*domain.Post, 0, len(s.posts))
	for _, p := range s.posts {
		out = append(out, copyPost(p))
	}
	return out
}

// FindPost returns the post with the given id.
func (s *FeedStore) FindPost(postID int64) (*domain.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	post := s.lookup(postID)
	if post == nil {
		return nil, domain.ErrPostNotFound
	}
	return copyPost(post), nil
}

// CountByAuthor returns how many posts the author has in this feed.
func (s *FeedStore) CountByAuthor(authorID int64) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, p := range s.posts {
		if p.AuthorID == authorID {
			n++
		}
	}
	return n
}

// ListByAuthor returns the author's posts, newest first.
func (s *FeedStore) ListByAuthor(authorID int64) []*domain.Post {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*domain.Post, 0)
	for _, p := range s.posts {
		if p.AuthorID == authorID {
			out = append(out, copyPost(p))
		}
	}
	return out
}

// Count returns the feed size.
func (s *FeedStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.posts)
}

func (s *FeedStore) lookup(id int64) *domain.Post {
	for _, p := range s.posts {
		if p.ID == id {
			return p
		}
	}
	return nil
}

func copyPost(p *domain.Post) *domain.Post {
	if p == nil {
		return nil
	}
	clone := *p
	clone.LikedBy = append([]int64(nil), p.LikedBy...)
	if p.Rating != nil {
		r := *p.Rating
		clone.Rating = &r
	}
	return &clone
}
