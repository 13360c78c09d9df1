package scheduler

import (
	"fmt"

	"github.com/robfig/cron/v3"

	"github.com/BartekS5/opinions-etl/pkg/logger"
)

type Pruner interface {
	Prune(retentionDays int) (int, error)
}

// NewRetentionCron schedules staging pruning on a standard five-field cron
// spec. The caller starts and stops the returned cron.
func NewRetentionCron(spec string, pruner Pruner, retentionDays int) (*cron.Cron, error) {
	c := cron.New()
	_, err := c.AddFunc(spec, func() {
		removed, err := pruner.Prune(retentionDays)
		if err != nil {
			logger.Error("Staging prune finished with errors: %v", err)
		}
		logger.Info("Staging prune removed %d batches older than %d days", removed, retentionDays)
	})
	if err != nil {
		return nil, fmt.Errorf("invalid prune schedule %q: %w", spec, err)
	}
	return c, nil
}
