package main

import (
	"fmt"
	"strings"

	"github.com/harunnryd/moltbot/cmd/moltbot/runtime"

	moltErrors "github.com/harunnryd/moltbot/internal/errors"
	"github.com/harunnryd/moltbot/internal/formatter"
	"github.com/harunnryd/moltbot/internal/moltbook"
	"github.com/harunnryd/moltbot/internal/policy"

	"github.com/spf13/cobra"
)

var feedCmd = &cobra.Command{
	Use:   "feed",
	Short: "Fetch the moltbook feed",
	Long:  `Fetch one page of the feed. With --save the page is also written, as JSON, to a workspace path the policy allows.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		opts, err := feedOptionsFromFlags(cmd)
		if err != nil {
			return err
		}
		f, err := resolveFormatter(cmd)
		if err != nil {
			return err
		}
		save, _ := cmd.Flags().GetString("save")

		return executeWithRuntime(cmd, func(rc *runtime.RuntimeComponents) error {
			client, err := rc.ActionClient()
			if err != nil {
				return err
			}

			feed, err := client.GetFeed(rc.Ctx, opts)
			if err != nil {
				return fmt.Errorf("failed to fetch feed: %w", err)
			}

			if save != "" {
				if err := saveFeed(rc.Guard, save, feed); err != nil {
					return err
				}
			}

			out, err := f.FormatFeed(feed)
			if err != nil {
				return err
			}
			fmt.Println(out)
			return nil
		})
	},
}

var postCmd = &cobra.Command{
	Use:   "post",
	Short: "Publish a post now",
	RunE: func(cmd *cobra.Command, args []string) error {
		submolt, _ := cmd.Flags().GetString("submolt")
		title, _ := cmd.Flags().GetString("title")

		return publish(cmd, func(rc *runtime.RuntimeComponents, client moltbook.Platform, body string) (moltbook.Result, error) {
			return client.CreatePost(rc.Ctx, moltbook.PostData{Submolt: submolt, Title: title, Body: body})
		})
	},
}

var commentCmd = &cobra.Command{
	Use:   "comment",
	Short: "Publish a comment now",
	RunE: func(cmd *cobra.Command, args []string) error {
		postID, _ := cmd.Flags().GetString("post-id")

		return publish(cmd, func(rc *runtime.RuntimeComponents, client moltbook.Platform, body string) (moltbook.Result, error) {
			return client.CreateComment(rc.Ctx, moltbook.CommentData{PostID: postID, Body: body})
		})
	},
}

var voteCmd = &cobra.Command{
	Use:   "vote <target-id> <up|down>",
	Short: "Vote on a post or comment",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		data := moltbook.VoteData{
			TargetID:  args[0],
			Direction: moltbook.VoteDirection(strings.ToLower(args[1])),
		}
		if err := data.Validate(); err != nil {
			return err
		}

		return executeWithRuntime(cmd, func(rc *runtime.RuntimeComponents) error {
			client, err := rc.ActionClient()
			if err != nil {
				return err
			}
			if err := client.Vote(rc.Ctx, data); err != nil {
				return fmt.Errorf("failed to vote: %w", err)
			}
			fmt.Printf("Voted %s on %s\n", data.Direction, data.TargetID)
			return nil
		})
	},
}

type publishFunc func(rc *runtime.RuntimeComponents, client moltbook.Platform, body string) (moltbook.Result, error)

// publish resolves the body, performs one action and prints its result.
func publish(cmd *cobra.Command, action publishFunc) error {
	format, err := outputFormat(cmd)
	if err != nil {
		return err
	}
	body, _ := cmd.Flags().GetString("body")
	bodyFile, _ := cmd.Flags().GetString("body-file")

	return executeWithRuntime(cmd, func(rc *runtime.RuntimeComponents) error {
		text, err := resolveBody(rc.Guard, body, bodyFile)
		if err != nil {
			return err
		}

		client, err := rc.ActionClient()
		if err != nil {
			return err
		}

		result, err := action(rc, client, text)
		if err != nil {
			return fmt.Errorf("failed to %s: %w", cmd.Name(), err)
		}

		if format == formatter.OutputFormatTable {
			fmt.Printf("Published %s %s\n", cmd.Name(), result.ID)
			return nil
		}
		out, err := formatter.Encode(format, result)
		if err != nil {
			return err
		}
		fmt.Println(out)
		return nil
	})
}

// resolveBody reads a draft through the guard when bodyFile is set, so the
// read is judged like any other agent file access.
func resolveBody(g *policy.Guard, body, bodyFile string) (string, error) {
	if bodyFile == "" {
		return body, nil
	}
	if body != "" {
		return "", moltErrors.InvalidInput("--body and --body-file are mutually exclusive")
	}

	data, err := g.ReadFile(bodyFile)
	if err != nil {
		return "", err
	}
	return strings.TrimRight(string(data), "\r\n"), nil
}

func saveFeed(g *policy.Guard, path string, feed *moltbook.Feed) error {
	out, err := formatter.NewJSONFormatter().FormatFeed(feed)
	if err != nil {
		return err
	}
	return g.WriteFile(path, []byte(out+"\n"))
}

func feedOptionsFromFlags(cmd *cobra.Command) (moltbook.FeedOptions, error) {
	rawSort, _ := cmd.Flags().GetString("sort")
	submolt, _ := cmd.Flags().GetString("submolt")
	limit, _ := cmd.Flags().GetInt("limit")
	cursor, _ := cmd.Flags().GetString("cursor")

	sort, err := moltbook.ParseFeedSort(rawSort)
	if err != nil {
		return moltbook.FeedOptions{}, err
	}

	opts := moltbook.FeedOptions{Sort: sort, Submolt: submolt, Limit: limit, Cursor: cursor}
	if err := opts.Validate(); err != nil {
		return moltbook.FeedOptions{}, err
	}
	return opts, nil
}

func init() {
	feedCmd.Flags().String("sort", string(moltbook.SortNew), "feed order (new, top, discussed)")
	feedCmd.Flags().String("submolt", "", "only posts from this submolt")
	feedCmd.Flags().Int("limit", 25, "maximum posts to fetch")
	feedCmd.Flags().String("cursor", "", "continue from a previous page")
	feedCmd.Flags().String("save", "", "also write the page as JSON to this workspace path")

	for _, c := range []*cobra.Command{postCmd, commentCmd} {
		c.Flags().String("body", "", "body text")
		c.Flags().String("body-file", "", "read the body from a workspace file")
	}
	for _, c := range []*cobra.Command{feedCmd, postCmd, commentCmd} {
		c.Flags().StringP("output", "o", "table", "output format (table, json, yaml)")
	}

	postCmd.Flags().String("submolt", "", "target submolt")
	postCmd.Flags().String("title", "", "post title")
	commentCmd.Flags().String("post-id", "", "post to comment on")

	rootCmd.AddCommand(feedCmd)
	rootCmd.AddCommand(postCmd)
	rootCmd.AddCommand(commentCmd)
	rootCmd.AddCommand(voteCmd)
}
