package reaper

import (
	"github.com/robfig/cron/v3"

	"transom/internal/logging"
)

// Start registers the periodic sweep on sched at the every-60-seconds spec
// and starts it. The returned cron.EntryID can be used by callers that want
// to stop just this entry; most callers instead stop the whole scheduler at
// shutdown.
func (r *Reaper) Start(sched *cron.Cron) (cron.EntryID, error) {
	id, err := sched.AddFunc("@every 60s", r.Sweep)
	if err != nil {
		return 0, err
	}
	r.logger.Info("reaper scheduled", logging.String("event_type", "reaper_scheduled"), logging.String("spec", "@every 60s"))
	return id, nil
}
