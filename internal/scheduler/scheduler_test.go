package scheduler

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/harunnryd/moltbot/internal/clock"
	"github.com/harunnryd/moltbot/internal/moltbook"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testStart = time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)

type mockActionClient struct {
	mu       sync.Mutex
	posts    []moltbook.PostData
	comments []moltbook.CommentData
	err      error
	panicMsg string

	started chan struct{}
	release chan struct{}
}

func (m *mockActionClient) CreatePost(ctx context.Context, data moltbook.PostData) (moltbook.Result, error) {
	m.wait()
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.panicMsg != "" {
		panic(m.panicMsg)
	}
	m.posts = append(m.posts, data)
	if m.err != nil {
		return moltbook.Result{}, m.err
	}
	return moltbook.Result{ID: "remote-post"}, nil
}

func (m *mockActionClient) CreateComment(ctx context.Context, data moltbook.CommentData) (moltbook.Result, error) {
	m.wait()
	m.mu.Lock()
	defer m.mu.Unlock()
	m.comments = append(m.comments, data)
	if m.err != nil {
		return moltbook.Result{}, m.err
	}
	return moltbook.Result{ID: "remote-comment"}, nil
}

func (m *mockActionClient) wait() {
	if m.started != nil {
		close(m.started)
		<-m.release
	}
}

func (m *mockActionClient) calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.posts) + len(m.comments)
}

func newTestScheduler(client ActionClient) (*Scheduler, *clock.FakeClock) {
	fake := clock.Fake(testStart)
	return NewScheduler(context.Background(), client, fake), fake
}

func TestScheduler_CancelBeforeFirePreventsDispatch(t *testing.T) {
	client := &mockActionClient{}
	s, fake := newTestScheduler(client)

	id := s.ScheduleComment(moltbook.CommentData{PostID: "p1", Body: "hi"}, testStart.Add(5*time.Second))
	require.True(t, s.CancelTask(id))

	task, ok := s.GetTask(id)
	require.True(t, ok)
	assert.Equal(t, StatusCancelled, task.Status)

	fake.Advance(5 * time.Second)
	assert.Zero(t, client.calls())
	assert.Zero(t, fake.Pending())
}

func TestScheduler_CancelSucceedsExactlyOnce(t *testing.T) {
	s, _ := newTestScheduler(&mockActionClient{})

	id := s.SchedulePost(moltbook.PostData{Submolt: "art", Title: "t"}, testStart.Add(time.Hour))
	assert.True(t, s.CancelTask(id))
	assert.False(t, s.CancelTask(id))
	assert.False(t, s.CancelTask("missing"))
}

func TestScheduler_CancelTerminalTaskLeavesRecordUnchanged(t *testing.T) {
	s, fake := newTestScheduler(&mockActionClient{})

	id := s.SchedulePost(moltbook.PostData{Submolt: "art", Title: "t"}, testStart.Add(time.Minute))
	fake.Advance(time.Minute)

	before, _ := s.GetTask(id)
	beforeJSON, err := json.Marshal(before)
	require.NoError(t, err)

	assert.False(t, s.CancelTask(id))

	after, _ := s.GetTask(id)
	afterJSON, err := json.Marshal(after)
	require.NoError(t, err)
	assert.Equal(t, string(beforeJSON), string(afterJSON))
	assert.Equal(t, StatusCompleted, after.Status)
}

func TestScheduler_PastDueDispatchesSynchronously(t *testing.T) {
	client := &mockActionClient{}
	s, fake := newTestScheduler(client)

	id := s.SchedulePost(moltbook.PostData{Submolt: "art", Title: "late"}, testStart.Add(-time.Minute))

	task, ok := s.GetTask(id)
	require.True(t, ok)
	assert.Equal(t, StatusCompleted, task.Status)
	assert.Equal(t, "remote-post", task.ResultID)
	assert.Equal(t, 1, client.calls())
	assert.Empty(t, s.GetPendingTasks())
	assert.Zero(t, s.ArmedTimers())
	assert.Zero(t, fake.Pending())
}

func TestScheduler_TimerDispatchesAtScheduledTime(t *testing.T) {
	client := &mockActionClient{}
	s, fake := newTestScheduler(client)

	id := s.SchedulePost(moltbook.PostData{Submolt: "art", Title: "t"}, testStart.Add(time.Hour))
	assert.Equal(t, 1, s.ArmedTimers())

	fake.Advance(59 * time.Minute)
	task, _ := s.GetTask(id)
	assert.Equal(t, StatusPending, task.Status)
	assert.Nil(t, task.ExecutedAt)
	assert.Len(t, s.GetPendingTasks(), 1)

	fake.Advance(time.Minute)
	task, _ = s.GetTask(id)
	assert.Equal(t, StatusCompleted, task.Status)
	require.NotNil(t, task.ExecutedAt)
	assert.Equal(t, testStart.Add(time.Hour), *task.ExecutedAt)
	assert.Equal(t, testStart, task.CreatedAt)
	assert.Zero(t, s.ArmedTimers())
	assert.Equal(t, 1, client.calls())
}

func TestScheduler_FailureIsRecordedNotRetried(t *testing.T) {
	client := &mockActionClient{err: errors.New("rate limited (HTTP 429)")}
	s, fake := newTestScheduler(client)

	id := s.ScheduleComment(moltbook.CommentData{PostID: "p1", Body: "b"}, testStart.Add(time.Second))
	fake.Advance(time.Hour)

	task, _ := s.GetTask(id)
	assert.Equal(t, StatusFailed, task.Status)
	assert.Equal(t, "rate limited (HTTP 429)", task.Error)
	require.NotNil(t, task.ExecutedAt)
	assert.Equal(t, 1, client.calls())
}

func TestScheduler_PanicBecomesFailure(t *testing.T) {
	s, _ := newTestScheduler(&mockActionClient{panicMsg: "boom"})

	id := s.SchedulePost(moltbook.PostData{Submolt: "art", Title: "t"}, testStart)

	task, _ := s.GetTask(id)
	assert.Equal(t, StatusFailed, task.Status)
	assert.Contains(t, task.Error, "boom")
}

func TestScheduler_CancelLosesOnceDispatchStarted(t *testing.T) {
	client := &mockActionClient{
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
	s, fake := newTestScheduler(client)

	id := s.ScheduleComment(moltbook.CommentData{PostID: "p1", Body: "b"}, testStart.Add(time.Second))

	fired := make(chan struct{})
	go func() {
		fake.Advance(time.Second)
		close(fired)
	}()

	<-client.started
	assert.False(t, s.CancelTask(id))
	task, _ := s.GetTask(id)
	assert.Equal(t, StatusPending, task.Status)

	close(client.release)
	<-fired

	task, _ = s.GetTask(id)
	assert.Equal(t, StatusCompleted, task.Status)
}

func TestScheduler_CleanupDisarmsTimersWithoutChangingStatus(t *testing.T) {
	client := &mockActionClient{}
	s, fake := newTestScheduler(client)

	s.SchedulePost(moltbook.PostData{Submolt: "art", Title: "a"}, testStart.Add(time.Minute))
	s.ScheduleComment(moltbook.CommentData{PostID: "p", Body: "b"}, testStart.Add(2*time.Minute))

	s.Cleanup()
	assert.Zero(t, s.ArmedTimers())

	fake.Advance(time.Hour)
	assert.Zero(t, client.calls())
	for _, task := range s.GetAllTasks() {
		assert.Equal(t, StatusPending, task.Status)
	}
}

func TestScheduler_QueriesReturnCopiesInOrder(t *testing.T) {
	s, _ := newTestScheduler(&mockActionClient{})

	first := s.SchedulePost(moltbook.PostData{Submolt: "art", Title: "one"}, testStart.Add(time.Hour))
	second := s.ScheduleComment(moltbook.CommentData{PostID: "p", Body: "two"}, testStart)
	third := s.SchedulePost(moltbook.PostData{Submolt: "art", Title: "three"}, testStart.Add(time.Minute))

	assert.True(t, strings.HasPrefix(first, "post_"))
	assert.True(t, strings.HasPrefix(second, "comment_"))

	all := s.GetAllTasks()
	require.Len(t, all, 3)
	assert.Equal(t, []string{first, second, third}, []string{all[0].ID, all[1].ID, all[2].ID})

	pending := s.GetPendingTasks()
	require.Len(t, pending, 2)
	assert.Equal(t, first, pending[0].ID)
	assert.Equal(t, third, pending[1].ID)

	all[0].Status = StatusCancelled
	all[0].Post.Title = "mutated"
	task, _ := s.GetTask(first)
	assert.Equal(t, StatusPending, task.Status)
	assert.Equal(t, "one", task.Post.Title)

	_, ok := s.GetTask("missing")
	assert.False(t, ok)
}

func TestScheduler_ConcurrentScheduling(t *testing.T) {
	client := &mockActionClient{}
	s, _ := newTestScheduler(client)

	var wg sync.WaitGroup
	ids := make(chan string, 40)
	for i := range 40 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if i%2 == 0 {
				ids <- s.SchedulePost(moltbook.PostData{Submolt: "art", Title: "t"}, testStart)
				return
			}
			ids <- s.ScheduleComment(moltbook.CommentData{PostID: "p", Body: "b"}, testStart.Add(time.Hour))
		}()
	}
	wg.Wait()
	close(ids)

	seen := make(map[string]bool)
	for id := range ids {
		assert.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}
	assert.Len(t, s.GetAllTasks(), 40)
	assert.Len(t, s.GetPendingTasks(), 20)
	assert.Equal(t, 20, client.calls())
}
