package scheduler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	moltErrors "github.com/harunnryd/moltbot/internal/errors"

	"github.com/natefinch/atomic"
)

// Report is a snapshot of the task map written after a scheduling session.
// It is never loaded back into a Scheduler.
type Report struct {
	GeneratedAt time.Time `json:"generated_at" yaml:"generated_at"`
	Tasks       []Task    `json:"tasks" yaml:"tasks"`
}

func WriteReport(path string, generatedAt time.Time, tasks []Task) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create report dir: %w", err)
	}

	b, err := json.MarshalIndent(Report{GeneratedAt: generatedAt, Tasks: tasks}, "", "  ")
	if err != nil {
		return err
	}
	return atomic.WriteFile(path, bytes.NewReader(b))
}

func ReadReport(path string) (*Report, error) {
	content, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, moltErrors.NotFound(fmt.Sprintf("no task report at %s", path))
	}
	if err != nil {
		return nil, err
	}

	var report Report
	if err := json.Unmarshal(content, &report); err != nil {
		return nil, moltErrors.InvalidInput(fmt.Sprintf("parse task report %s: %v", path, err))
	}
	return &report, nil
}
