package stub

import (
	"fmt"

	"github.com/priyanshu2307/Newschat/internal/logging"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// cronParser uses standard 5-field cron expressions (minute, hour, dom, month, dow).
var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// scheduleReload re-reads the corpus on a cron schedule. An empty schedule
// disables reloading. The returned func stops the scheduler.
func scheduleReload(corpus *Corpus, schedule string, logger *zap.Logger) (func(), error) {
	if schedule == "" {
		return func() {}, nil
	}
	logger = logging.OrNop(logger)
	c := cron.New(cron.WithParser(cronParser))
	_, err := c.AddFunc(schedule, func() {
		n, err := corpus.Reload()
		if err != nil {
			logger.Warn("corpus reload failed", zap.Error(err))
			return
		}
		logger.Debug("corpus reloaded", zap.Int("articles", n))
	})
	if err != nil {
		return nil, fmt.Errorf("stub: reload schedule %q: %w", schedule, err)
	}
	c.Start()
	return func() { <-c.Stop().Done() }, nil
}
