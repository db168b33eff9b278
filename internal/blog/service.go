package blog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/fornolabs/gliderblog/internal/apperror"
)

// feedCacheKey is the Redis key holding the JSON-encoded feed.
const feedCacheKey = "feed:v1"

// feedCacheTTL bounds staleness between a write on one instance and reads
// elsewhere. Writes through this service invalidate the key immediately.
const feedCacheTTL = 30 * time.Second

// BlogService defines the business logic contract for the feed.
type BlogService interface {
	Feed(ctx context.Context) ([]Post, error)
	AddPost(ctx context.Context, username, title, body string) error
	DeletePost(ctx context.Context, username string, postID int64) error
}

// blogService implements BlogService with a Redis read-through cache in
// front of the repository. Cache failures degrade to the database and are
// logged, never surfaced.
type blogService struct {
	repo  BlogRepository
	redis *redis.Client
}

// NewBlogService creates a new blog service with the given dependencies.
func NewBlogService(repo BlogRepository, rdb *redis.Client) BlogService {
	return &blogService{
		repo:  repo,
		redis: rdb,
	}
}

// Feed returns the public feed, served from cache when possible.
func (s *blogService) Feed(ctx context.Context) ([]Post, error) {
	if cached, ok := s.cachedFeed(ctx); ok {
		return cached, nil
	}

	posts, err := s.repo.ListPosts(ctx)
	if err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("loading feed: %w", err))
	}

	s.storeFeed(ctx, posts)
	return posts, nil
}

// AddPost creates a post and invalidates the cached feed.
func (s *blogService) AddPost(ctx context.Context, username, title, body string) error {
	if err := s.repo.CreatePost(ctx, username, title, body); err != nil {
		var appErr *apperror.AppError
		if errors.As(err, &appErr) {
			return appErr
		}
		return apperror.NewInternal(fmt.Errorf("creating post: %w", err))
	}

	s.invalidateFeed(ctx)

	slog.Info("post created", slog.String("author", username))
	return nil
}

// DeletePost removes one of the caller's own posts and invalidates the
// cached feed.
func (s *blogService) DeletePost(ctx context.Context, username string, postID int64) error {
	if err := s.repo.DeletePost(ctx, username, postID); err != nil {
		var appErr *apperror.AppError
		if errors.As(err, &appErr) {
			return appErr
		}
		return apperror.NewInternal(fmt.Errorf("deleting post: %w", err))
	}

	s.invalidateFeed(ctx)

	slog.Info("post deleted",
		slog.String("author", username),
		slog.Int64("post_id", postID),
	)
	return nil
}

// --- Feed cache ---

// cachedFeed loads the feed from Redis. Any failure -- connection, missing
// key, stale encoding -- reports a miss.
func (s *blogService) cachedFeed(ctx context.Context) ([]Post, bool) {
	data, err := s.redis.Get(ctx, feedCacheKey).Bytes()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		slog.Warn("feed cache read failed", slog.Any("error", err))
		return nil, false
	}

	var posts []Post
	if err := json.Unmarshal(data, &posts); err != nil {
		slog.Warn("feed cache decode failed", slog.Any("error", err))
		return nil, false
	}

	return posts, true
}

// storeFeed writes the feed to Redis with the cache TTL.
func (s *blogService) storeFeed(ctx context.Context, posts []Post) {
	data, err := json.Marshal(posts)
	if err != nil {
		slog.Warn("feed cache encode failed", slog.Any("error", err))
		return
	}

	if err := s.redis.Set(ctx, feedCacheKey, data, feedCacheTTL).Err(); err != nil {
		slog.Warn("feed cache write failed", slog.Any("error", err))
	}
}

// invalidateFeed drops the cached feed after a write.
func (s *blogService) invalidateFeed(ctx context.Context) {
	if err := s.redis.Del(ctx, feedCacheKey).Err(); err != nil {
		slog.Warn("feed cache invalidation failed", slog.Any("error", err))
	}
}
