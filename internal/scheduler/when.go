package scheduler

import (
	"fmt"
	"strings"
	"time"

	moltErrors "github.com/harunnryd/moltbot/internal/errors"

	"github.com/robfig/cron/v3"
)

// NextFromCron returns the first activation of a standard five-field cron
// spec (or descriptor such as "@hourly") strictly after now.
func NextFromCron(spec string, now time.Time) (time.Time, error) {
	schedule, err := cron.ParseStandard(strings.TrimSpace(spec))
	if err != nil {
		return time.Time{}, moltErrors.InvalidInput(fmt.Sprintf("invalid cron schedule %q: %v", spec, err))
	}
	return schedule.Next(now), nil
}

// When is the user-facing description of a scheduled time. Exactly one
// field may be set; none means "now".
type When struct {
	At   string
	In   string
	Cron string
}

func (w When) Resolve(now time.Time) (time.Time, error) {
	set := 0
	for _, v := range []string{w.At, w.In, w.Cron} {
		if strings.TrimSpace(v) != "" {
			set++
		}
	}
	if set > 1 {
		return time.Time{}, moltErrors.InvalidInput("only one of --at, --in or --cron may be given")
	}

	switch {
	case strings.TrimSpace(w.At) != "":
		at, err := time.Parse(time.RFC3339, strings.TrimSpace(w.At))
		if err != nil {
			return time.Time{}, moltErrors.InvalidInput(fmt.Sprintf("invalid --at time %q: expected RFC3339", w.At))
		}
		return at, nil
	case strings.TrimSpace(w.In) != "":
		d, err := time.ParseDuration(strings.TrimSpace(w.In))
		if err != nil || d < 0 {
			return time.Time{}, moltErrors.InvalidInput(fmt.Sprintf("invalid --in duration %q", w.In))
		}
		return now.Add(d), nil
	case strings.TrimSpace(w.Cron) != "":
		return NextFromCron(w.Cron, now)
	default:
		return now, nil
	}
}
