// internal/app/system/tasks/jobs.go
package tasks

import (
	"context"
	"time"

	"github.com/dalemusser/crewhub/internal/app/realtime"
	"go.uber.org/zap"
)

// StaleConnectionReaperJob retires registry entries whose transport has
// already been torn down. The read loop retires on transport close in
// the normal path; this sweep catches entries orphaned by crashes in
// between.
func StaleConnectionReaperJob(reg *realtime.Registry, interval time.Duration, logger *zap.Logger) Job {
	if interval <= 0 {
		interval = time.Minute
	}
	return Job{
		Name:     "stale-connection-reaper",
		Interval: interval,
		Run: func(ctx context.Context) error {
			stale := reg.Stale(func(c realtime.Conn) bool {
				s, ok := c.(*realtime.Socket)
				return ok && s.Closed()
			})
			for _, c := range stale {
				reg.Retire(c)
			}
			if len(stale) > 0 {
				logger.Info("retired stale connections", zap.Int("count", len(stale)))
			}
			return nil
		},
	}
}
