package model

import "time"

// Post statuses recorded in the post log.
const (
	PostStatusPosted = "posted"
	PostStatusFailed = "failed"
)

// PostRecord is an append-only log row for one publish attempt.
// Rows are write-once; nothing in the system mutates them afterwards.
type PostRecord struct {
	ID        int64     `json:"id"`
	UserID    string    `json:"user_id"`
	Filename  string    `json:"filename"`
	Platform  string    `json:"platform"`
	Status    string    `json:"status"`
	Response  string    `json:"response,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// PublishResult is the terminal outcome of one publish client run.
type PublishResult struct {
	PublishID string `json:"publish_id"`
	Status    string `json:"status"`
}
