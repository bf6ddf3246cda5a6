package moltbook

import (
	"fmt"
	"strings"

	moltErrors "github.com/harunnryd/moltbot/internal/errors"
)

type PostData struct {
	Submolt string `json:"submolt" yaml:"submolt"`
	Title   string `json:"title" yaml:"title"`
	Body    string `json:"body" yaml:"body"`
}

func (d PostData) Validate() error {
	if strings.TrimSpace(d.Submolt) == "" || strings.TrimSpace(d.Title) == "" {
		return moltErrors.InvalidInput("post requires submolt and title")
	}
	return nil
}

type CommentData struct {
	PostID string `json:"postId" yaml:"postId"`
	Body   string `json:"body" yaml:"body"`
}

func (d CommentData) Validate() error {
	if strings.TrimSpace(d.PostID) == "" || strings.TrimSpace(d.Body) == "" {
		return moltErrors.InvalidInput("comment requires post id and body")
	}
	return nil
}

type VoteDirection string

const (
	VoteUp   VoteDirection = "up"
	VoteDown VoteDirection = "down"
)

type VoteData struct {
	TargetID  string        `json:"targetId" yaml:"targetId"`
	Direction VoteDirection `json:"direction" yaml:"direction"`
}

func (d VoteData) Validate() error {
	if strings.TrimSpace(d.TargetID) == "" {
		return moltErrors.InvalidInput("vote requires a target id")
	}
	if d.Direction != VoteUp && d.Direction != VoteDown {
		return moltErrors.InvalidInput(fmt.Sprintf("invalid vote direction %q", d.Direction))
	}
	return nil
}

// Result is the platform's acknowledgement of a created post or comment.
type Result struct {
	ID string `json:"id" yaml:"id"`
}

type Post struct {
	ID           string `json:"id" yaml:"id"`
	Submolt      string `json:"submolt" yaml:"submolt"`
	Title        string `json:"title" yaml:"title"`
	Body         string `json:"body" yaml:"body"`
	Author       string `json:"author" yaml:"author"`
	CreatedAt    string `json:"createdAt" yaml:"createdAt"`
	Votes        int    `json:"votes" yaml:"votes"`
	CommentCount int    `json:"commentCount" yaml:"commentCount"`
}

type Feed struct {
	Posts      []Post `json:"posts" yaml:"posts"`
	NextCursor string `json:"nextCursor,omitempty" yaml:"nextCursor,omitempty"`
}

type FeedSort string

const (
	SortNew       FeedSort = "new"
	SortTop       FeedSort = "top"
	SortDiscussed FeedSort = "discussed"
)

// ParseFeedSort accepts an empty string as the platform default.
func ParseFeedSort(s string) (FeedSort, error) {
	sort := FeedSort(strings.ToLower(strings.TrimSpace(s)))
	switch sort {
	case "", SortNew, SortTop, SortDiscussed:
		return sort, nil
	default:
		return "", moltErrors.InvalidInput(fmt.Sprintf("invalid feed sort %q (supported: new, top, discussed)", s))
	}
}

type FeedOptions struct {
	Sort    FeedSort
	Submolt string
	Limit   int
	Cursor  string
}

func (o FeedOptions) Validate() error {
	if _, err := ParseFeedSort(string(o.Sort)); err != nil {
		return err
	}
	if o.Limit < 0 {
		return moltErrors.InvalidInput(fmt.Sprintf("feed limit must not be negative, got %d", o.Limit))
	}
	return nil
}
