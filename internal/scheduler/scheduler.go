package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/harunnryd/moltbot/internal/clock"
	"github.com/harunnryd/moltbot/internal/moltbook"

	"github.com/oklog/ulid/v2"
)

// ActionClient performs the platform actions a task stands for.
type ActionClient interface {
	CreatePost(ctx context.Context, data moltbook.PostData) (moltbook.Result, error)
	CreateComment(ctx context.Context, data moltbook.CommentData) (moltbook.Result, error)
}

// Scheduler owns a set of one-shot tasks, each armed with its own timer.
// A task is dispatched at most once; cancellation only wins if it happens
// before dispatch starts.
type Scheduler struct {
	ctx    context.Context
	client ActionClient
	clock  clock.Clock

	mu          sync.Mutex
	tasks       map[string]*Task
	order       []string
	timers      map[string]*clock.Timer
	dispatching map[string]struct{}
}

// NewScheduler binds ctx to every client call made by dispatched tasks.
func NewScheduler(ctx context.Context, client ActionClient, clk clock.Clock) *Scheduler {
	if clk == nil {
		clk = clock.Real()
	}
	return &Scheduler{
		ctx:         ctx,
		client:      client,
		clock:       clk,
		tasks:       make(map[string]*Task),
		timers:      make(map[string]*clock.Timer),
		dispatching: make(map[string]struct{}),
	}
}

func (s *Scheduler) SchedulePost(data moltbook.PostData, scheduledFor time.Time) string {
	task := &Task{Kind: KindPost, Post: &data}
	id := s.schedule(task, scheduledFor)
	slog.Info("Post scheduled", "id", id, "scheduled_for", scheduledFor)
	return id
}

func (s *Scheduler) ScheduleComment(data moltbook.CommentData, scheduledFor time.Time) string {
	task := &Task{Kind: KindComment, Comment: &data}
	id := s.schedule(task, scheduledFor)
	slog.Info("Comment scheduled", "id", id, "scheduled_for", scheduledFor)
	return id
}

// schedule inserts the task and either arms its timer or, when already due,
// dispatches it before returning.
func (s *Scheduler) schedule(task *Task, scheduledFor time.Time) string {
	now := s.clock.Now()
	task.ID = s.newID(task.Kind, now)
	task.ScheduledFor = scheduledFor
	task.Status = StatusPending
	task.CreatedAt = now

	delay := scheduledFor.Sub(now)

	s.mu.Lock()
	s.tasks[task.ID] = task
	s.order = append(s.order, task.ID)
	if delay > 0 {
		id := task.ID
		s.timers[id] = s.clock.AfterFunc(delay, func() {
			s.executeTask(id)
		})
	}
	s.mu.Unlock()

	if delay <= 0 {
		s.executeTask(task.ID)
	}
	return task.ID
}

func (s *Scheduler) newID(kind Kind, now time.Time) string {
	return fmt.Sprintf("%s_%s", kind, ulid.MustNew(ulid.Timestamp(now), ulid.DefaultEntropy()).String())
}

// executeTask runs one dispatch. Failures are recorded on the task and
// never returned.
func (s *Scheduler) executeTask(id string) {
	s.mu.Lock()
	task, ok := s.tasks[id]
	if !ok || task.Status != StatusPending {
		s.mu.Unlock()
		return
	}
	if _, busy := s.dispatching[id]; busy {
		s.mu.Unlock()
		return
	}
	s.dispatching[id] = struct{}{}
	delete(s.timers, id)
	snapshot := task.clone()
	s.mu.Unlock()

	slog.Info("Executing scheduled task", "task", id, "kind", string(snapshot.Kind))
	result, err := s.dispatch(snapshot)
	executedAt := s.clock.Now()

	s.mu.Lock()
	delete(s.dispatching, id)
	task.ExecutedAt = &executedAt
	if err != nil {
		task.Status = StatusFailed
		task.Error = err.Error()
	} else {
		task.Status = StatusCompleted
		task.ResultID = result.ID
	}
	s.mu.Unlock()

	if err != nil {
		slog.Warn("Task execution failed", "task", id, "error", err)
		return
	}
	slog.Info("Task completed successfully", "task", id, "result", result.ID)
}

func (s *Scheduler) dispatch(task Task) (result moltbook.Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("action client panicked: %v", r)
		}
	}()

	switch task.Kind {
	case KindPost:
		return s.client.CreatePost(s.ctx, *task.Post)
	case KindComment:
		return s.client.CreateComment(s.ctx, *task.Comment)
	default:
		return moltbook.Result{}, fmt.Errorf("unknown task kind %q", task.Kind)
	}
}

// CancelTask returns true only for a task that is still pending and whose
// dispatch has not started. Any other call has no side effects.
func (s *Scheduler) CancelTask(id string) bool {
	s.mu.Lock()
	task, ok := s.tasks[id]
	if !ok || task.Status != StatusPending {
		s.mu.Unlock()
		return false
	}
	if _, busy := s.dispatching[id]; busy {
		s.mu.Unlock()
		return false
	}
	if timer, ok := s.timers[id]; ok {
		timer.Stop()
		delete(s.timers, id)
	}
	task.Status = StatusCancelled
	s.mu.Unlock()

	slog.Info("Task cancelled", "task", id)
	return true
}

func (s *Scheduler) GetTask(id string) (Task, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	task, ok := s.tasks[id]
	if !ok {
		return Task{}, false
	}
	return task.clone(), true
}

// GetAllTasks returns copies in scheduling order.
func (s *Scheduler) GetAllTasks() []Task {
	return s.collect(func(*Task) bool { return true })
}

func (s *Scheduler) GetPendingTasks() []Task {
	return s.collect(func(t *Task) bool { return t.Status == StatusPending })
}

func (s *Scheduler) collect(keep func(*Task) bool) []Task {
	s.mu.Lock()
	defer s.mu.Unlock()

	tasks := make([]Task, 0, len(s.order))
	for _, id := range s.order {
		task := s.tasks[id]
		if keep(task) {
			tasks = append(tasks, task.clone())
		}
	}
	return tasks
}

// Cleanup disarms every outstanding timer. Task statuses are left as they are.
func (s *Scheduler) Cleanup() {
	s.mu.Lock()
	stopped := 0
	for id, timer := range s.timers {
		if timer.Stop() {
			stopped++
		}
		delete(s.timers, id)
	}
	s.mu.Unlock()

	slog.Info("Scheduler cleanup completed", "timers_stopped", stopped)
}

// ArmedTimers reports how many tasks still wait on a timer.
func (s *Scheduler) ArmedTimers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.timers)
}
