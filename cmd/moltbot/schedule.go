package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/harunnryd/moltbot/cmd/moltbot/runtime"

	moltErrors "github.com/harunnryd/moltbot/internal/errors"
	"github.com/harunnryd/moltbot/internal/moltbook"
	"github.com/harunnryd/moltbot/internal/scheduler"
	"github.com/harunnryd/moltbot/internal/store"

	"github.com/spf13/cobra"
)

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Schedule posts and comments",
	Long:  `Schedule one-shot platform actions and wait in the foreground until they have run.`,
}

var schedulePostCmd = &cobra.Command{
	Use:   "post",
	Short: "Schedule a post",
	RunE: func(cmd *cobra.Command, args []string) error {
		submolt, _ := cmd.Flags().GetString("submolt")
		title, _ := cmd.Flags().GetString("title")
		body, _ := cmd.Flags().GetString("body")

		data := moltbook.PostData{Submolt: submolt, Title: title, Body: body}
		if err := data.Validate(); err != nil {
			return err
		}

		return runScheduled(cmd, func(s *scheduler.Scheduler, at time.Time) string {
			return s.SchedulePost(data, at)
		})
	},
}

var scheduleCommentCmd = &cobra.Command{
	Use:   "comment",
	Short: "Schedule a comment",
	RunE: func(cmd *cobra.Command, args []string) error {
		postID, _ := cmd.Flags().GetString("post-id")
		body, _ := cmd.Flags().GetString("body")

		data := moltbook.CommentData{PostID: postID, Body: body}
		if err := data.Validate(); err != nil {
			return err
		}

		return runScheduled(cmd, func(s *scheduler.Scheduler, at time.Time) string {
			return s.ScheduleComment(data, at)
		})
	},
}

var scheduleLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List tasks from the last scheduling session",
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := resolveFormatter(cmd)
		if err != nil {
			return err
		}

		return executeWithRuntime(cmd, func(rc *runtime.RuntimeComponents) error {
			report, err := scheduler.ReadReport(rc.Layout.ReportPath())
			if err != nil {
				if moltErrors.IsCategory(err, moltErrors.ErrNotFound) {
					fmt.Println("No tasks found (no scheduling session has run yet).")
					return nil
				}
				return err
			}

			out, err := f.FormatTasks(report.Tasks)
			if err != nil {
				return err
			}
			fmt.Println(out)
			fmt.Printf("\nTotal: %d task(s), report generated %s\n", len(report.Tasks), report.GeneratedAt.Local().Format(time.DateTime))
			return nil
		})
	},
}

type scheduleFunc func(s *scheduler.Scheduler, at time.Time) string

// runScheduled holds the workspace lock for the whole session: schedule,
// wait for the task to settle or a signal, then persist the report.
func runScheduled(cmd *cobra.Command, schedule scheduleFunc) error {
	when, err := whenFromFlags(cmd)
	if err != nil {
		return err
	}
	f, err := resolveFormatter(cmd)
	if err != nil {
		return err
	}
	forceClean, _ := cmd.Flags().GetBool("force-clean-lock")

	return executeWithRuntime(cmd, func(rc *runtime.RuntimeComponents) error {
		timings, err := rc.Config.Scheduler.Timings()
		if err != nil {
			return err
		}

		lockPath := rc.Layout.LockPath()
		if err := store.CleanupStaleLock(lockPath, timings.StaleLockTTL, forceClean || rc.Config.Scheduler.ForceCleanupLock); err != nil {
			return fmt.Errorf("failed to clean stale lock: %w", err)
		}

		lock, err := store.AcquireWorkspaceLock(rc.Ctx, lockPath, store.LockConfig{
			Timeout: timings.LockTimeout,
			Retry:   timings.LockRetry,
		})
		if err != nil {
			return err
		}
		defer lock.Unlock()

		scheduledFor, err := when.Resolve(time.Now())
		if err != nil {
			return err
		}

		s, err := rc.NewScheduler(nil)
		if err != nil {
			return err
		}

		signals := NewSignalHandler(rc.Ctx)
		signals.Start()
		defer signals.Stop()

		id := schedule(s, scheduledFor)
		fmt.Printf("Scheduled %s for %s\n", id, scheduledFor.Local().Format(time.DateTime))

		interrupted := waitForTasks(signals.Context(), s, timings.PollInterval)
		if interrupted {
			for _, task := range s.GetPendingTasks() {
				s.CancelTask(task.ID)
			}
		}
		s.Cleanup()

		tasks := s.GetAllTasks()
		if err := scheduler.WriteReport(rc.Layout.ReportPath(), time.Now(), tasks); err != nil {
			slog.Error("Failed to write task report", "path", rc.Layout.ReportPath(), "error", err)
		}

		out, err := f.FormatTasks(tasks)
		if err != nil {
			return err
		}
		fmt.Println(out)

		return settledError(tasks)
	})
}

// waitForTasks polls until no task is pending. It reports true when ctx
// ended first.
func waitForTasks(ctx context.Context, s *scheduler.Scheduler, interval time.Duration) bool {
	if len(s.GetPendingTasks()) == 0 {
		return false
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return true
		case <-ticker.C:
			if len(s.GetPendingTasks()) == 0 {
				return false
			}
		}
	}
}

func settledError(tasks []scheduler.Task) error {
	failed := 0
	for _, task := range tasks {
		if task.Status == scheduler.StatusFailed {
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d task(s) failed", failed, len(tasks))
	}
	return nil
}

func whenFromFlags(cmd *cobra.Command) (scheduler.When, error) {
	at, _ := cmd.Flags().GetString("at")
	in, _ := cmd.Flags().GetString("in")
	cronSpec, _ := cmd.Flags().GetString("cron")

	when := scheduler.When{At: at, In: in, Cron: cronSpec}
	if _, err := when.Resolve(time.Now()); err != nil {
		return scheduler.When{}, err
	}
	return when, nil
}

func init() {
	for _, c := range []*cobra.Command{schedulePostCmd, scheduleCommentCmd} {
		c.Flags().String("at", "", "run at an RFC3339 time")
		c.Flags().String("in", "", "run after a duration, e.g. 90s or 2h")
		c.Flags().String("cron", "", "run at the next activation of a cron spec")
		c.Flags().String("body", "", "body text")
		c.Flags().Bool("force-clean-lock", false, "remove a stale workspace lock before starting")
		c.Flags().StringP("output", "o", "table", "output format (table, json, yaml)")
	}

	schedulePostCmd.Flags().String("submolt", "", "target submolt")
	schedulePostCmd.Flags().String("title", "", "post title")
	scheduleCommentCmd.Flags().String("post-id", "", "post to comment on")
	scheduleLsCmd.Flags().StringP("output", "o", "table", "output format (table, json, yaml)")

	scheduleCmd.AddCommand(schedulePostCmd)
	scheduleCmd.AddCommand(scheduleCommentCmd)
	scheduleCmd.AddCommand(scheduleLsCmd)
	rootCmd.AddCommand(scheduleCmd)
}
