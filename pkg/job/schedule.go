package job

import (
	"fmt"

	"github.com/riverqueue/river"
	"github.com/robfig/cron/v3"
)

var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// cronSchedule adapts a cron schedule to river.PeriodicSchedule.
type cronSchedule struct {
	cron.Schedule
}

// parseSchedule accepts five-field cron expressions and descriptors such as
// "@hourly" or "@every 10m".
func parseSchedule(expr string) (river.PeriodicSchedule, error) {
	s, err := cronParser.Parse(expr)
	if err != nil {
		return nil, fmt.Errorf("%w %q: %v", ErrInvalidSchedule, expr, err)
	}
	return cronSchedule{Schedule: s}, nil
}
