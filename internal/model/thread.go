package model

import (
	"bytes"
	"encoding/json"
	"errors"
	"time"
)

var ErrEmptyPosts = errors.New("posts array is empty")

// Post is one entry of a thread. The first post of a thread is its head.
type Post struct {
	Text string `json:"text"`
}

type PublishStatus string

const (
	StatusDraft  PublishStatus = "draft"
	StatusDryRun PublishStatus = "dry-run"
)

// DryRunID identifies the synthetic result of a dry run.
const DryRunID = "dry_run"

type PublishRequest struct {
	Posts       []Post
	SocialSetID string
	PublishAt   *time.Time
	DryRun      bool
}

type PublishResult struct {
	ID         ID            `json:"id"`
	Status     PublishStatus `json:"status"`
	PostsCount int           `json:"posts_count"`
	PublishAt  *time.Time    `json:"publish_at,omitempty"`
	ShareURL   string        `json:"share_url,omitempty"`
}

// ID is an opaque remote identifier that may arrive as a JSON string or number.
type ID string

func (id *ID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if string(b) == "null" {
		*id = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*id = ID(n.String())
	return nil
}

func (id ID) String() string {
	return string(id)
}

// SocialSet is a named group of connected accounts on the scheduling API.
type SocialSet struct {
	ID       ID     `json:"id"`
	Username string `json:"username"`
	Name     string `json:"name"`
}

type SocialSetsResponse struct {
	Results []SocialSet `json:"results"`
}

type HealthStatus struct {
	Nansen    bool      `json:"nansen"`
	Typefully bool      `json:"typefully"`
	Timestamp time.Time `json:"timestamp"`
}

// OK is true when the ranking API answers and the scheduling API answers or was not probed.
func (h HealthStatus) OK(typefullyProbed bool) bool {
	return h.Nansen && (h.Typefully || !typefullyProbed)
}
