// Package blog provides the public feed and post management. No
// security-relevant logic lives here beyond "you delete only your own
// posts" -- authentication is the auth package's session middleware.
package blog

import (
	"time"
)

// Post is one feed entry, already joined with its author's username.
type Post struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	Author    string    `json:"author"`
	CreatedAt time.Time `json:"created_at"`
}

// AddPostRequest holds the data submitted by the new-post form.
type AddPostRequest struct {
	Title string `json:"title" form:"title"`
	Body  string `json:"body" form:"body"`
}
