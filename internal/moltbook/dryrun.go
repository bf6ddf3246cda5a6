package moltbook

import (
	"context"
	"log/slog"

	"github.com/oklog/ulid/v2"
)

// DryRunClient logs actions instead of performing them. It is the default
// while safety.dry_run is on. Feed reads return an empty page.
type DryRunClient struct{}

func NewDryRunClient() *DryRunClient {
	return &DryRunClient{}
}

func (DryRunClient) GetFeed(ctx context.Context, opts FeedOptions) (*Feed, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	slog.Info("Dry run: feed not fetched", "sort", string(opts.Sort), "submolt", opts.Submolt, "limit", opts.Limit)
	return &Feed{Posts: []Post{}}, nil
}

func (DryRunClient) CreatePost(ctx context.Context, data PostData) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	if err := data.Validate(); err != nil {
		return Result{}, err
	}
	id := "dry-" + ulid.Make().String()
	slog.Info("Dry run: post not sent", "id", id, "submolt", data.Submolt, "title", data.Title)
	return Result{ID: id}, nil
}

func (DryRunClient) CreateComment(ctx context.Context, data CommentData) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	if err := data.Validate(); err != nil {
		return Result{}, err
	}
	id := "dry-" + ulid.Make().String()
	slog.Info("Dry run: comment not sent", "id", id, "post_id", data.PostID)
	return Result{ID: id}, nil
}

func (DryRunClient) Vote(ctx context.Context, data VoteData) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := data.Validate(); err != nil {
		return err
	}
	slog.Info("Dry run: vote not sent", "target_id", data.TargetID, "direction", string(data.Direction))
	return nil
}
