package bot

import (
	"fmt"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

func newCron(logger *zap.Logger) *cron.Cron {
	cronLogger := cron.PrintfLogger(zap.NewStdLog(logger.Named("cron")))
	return cron.New(
		cron.WithLogger(cronLogger),
		cron.WithChain(cron.Recover(cronLogger), cron.SkipIfStillRunning(cronLogger)),
	)
}

// Schedule adds a recurring job. spec uses the standard five-field cron syntax
// or a descriptor such as "@hourly". An overlapping run is skipped.
func (b *Bot) Schedule(name, spec string, job func()) error {
	id, err := b.cron.AddFunc(spec, job)
	if err != nil {
		return fmt.Errorf("could not set up cron job %s: %w", name, err)
	}
	b.Logger.Info("cron job scheduled", zap.String("job", name), zap.String("spec", spec), zap.Int("entry", int(id)))
	return nil
}
