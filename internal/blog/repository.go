package blog

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/fornolabs/gliderblog/internal/apperror"
)

// BlogRepository defines the data access contract for posts.
type BlogRepository interface {
	// ListPosts returns every post newest-first, joined with the author's
	// username.
	ListPosts(ctx context.Context) ([]Post, error)

	// CreatePost inserts a post authored by the user with this username.
	CreatePost(ctx context.Context, username, title, body string) error

	// DeletePost removes a post only if it belongs to the given username.
	// Returns Forbidden when the post doesn't exist or isn't theirs --
	// the caller learns nothing about which.
	DeletePost(ctx context.Context, username string, postID int64) error
}

// blogRepository implements BlogRepository with hand-written MariaDB queries.
type blogRepository struct {
	db *sql.DB
}

// NewBlogRepository creates a new blog repository backed by the given DB pool.
func NewBlogRepository(db *sql.DB) BlogRepository {
	return &blogRepository{db: db}
}

// ListPosts returns the full feed, newest first.
func (r *blogRepository) ListPosts(ctx context.Context) ([]Post, error) {
	query := `SELECT p.id, p.title, p.body, p.created_at, u.username
	          FROM posts p JOIN users u ON p.user_id = u.id
	          ORDER BY p.created_at DESC, p.id DESC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying feed: %w", err)
	}
	defer rows.Close()

	var posts []Post
	for rows.Next() {
		var p Post
		if err := rows.Scan(&p.ID, &p.Title, &p.Body, &p.CreatedAt, &p.Author); err != nil {
			return nil, fmt.Errorf("scanning post row: %w", err)
		}
		posts = append(posts, p)
	}

	return posts, rows.Err()
}

// CreatePost resolves the author id and inserts in one statement.
func (r *blogRepository) CreatePost(ctx context.Context, username, title, body string) error {
	query := `INSERT INTO posts (user_id, title, body)
	          SELECT id, ?, ? FROM users WHERE username = ?`

	result, err := r.db.ExecContext(ctx, query, title, body, username)
	if err != nil {
		return fmt.Errorf("inserting post: %w", err)
	}

	n, _ := result.RowsAffected()
	if n == 0 {
		return apperror.NewNotFound("user not found")
	}
	return nil
}

// DeletePost removes a post, scoped to its owner in the WHERE clause so a
// non-owner's attempt affects zero rows instead of needing a prior read.
func (r *blogRepository) DeletePost(ctx context.Context, username string, postID int64) error {
	query := `DELETE p FROM posts p JOIN users u ON p.user_id = u.id
	          WHERE p.id = ? AND u.username = ?`

	result, err := r.db.ExecContext(ctx, query, postID, username)
	if err != nil {
		return fmt.Errorf("deleting post: %w", err)
	}

	n, _ := result.RowsAffected()
	if n == 0 {
		return apperror.NewForbidden("you can only delete your own posts")
	}
	return nil
}
