package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/BartekS5/opinions-etl/internal/api"
	"github.com/BartekS5/opinions-etl/internal/scheduler"
	"github.com/BartekS5/opinions-etl/pkg/logger"
)

const shutdownTimeout = 30 * time.Second

func newRunCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the ETL on a schedule with the admin API and staging retention",
		RunE: func(c *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(c.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := setup(ctx, root.ConfigFile, wiring{extractors: true, loader: true})
			if err != nil {
				return err
			}
			defer a.close()
			return a.serve(ctx)
		},
	}
}

// serve blocks until ctx is cancelled or the admin API fails.
func (a *app) serve(ctx context.Context) error {
	sched := scheduler.New(a.orchestrator, a.loader, scheduler.Options{
		Interval:         a.cfg.ETLInterval,
		InitialDelay:     a.cfg.InitialDelay,
		LoadAfterExtract: a.cfg.LoadAfterExtract,
	})

	retention, err := scheduler.NewRetentionCron(a.cfg.PruneSchedule, a.store, a.cfg.RetentionDays)
	if err != nil {
		return err
	}
	retention.Start()
	defer func() { <-retention.Stop().Done() }()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		sched.Start(ctx)
	}()

	var serveErr error
	if a.cfg.AdminAddr != "" {
		server := api.NewServer(a.cfg.AdminAddr, &api.Handler{
			Staging: a.store,
			Trigger: sched,
			Probe:   a.loader.ValidateConnection,
		})
		errCh := make(chan error, 1)
		go func() { errCh <- server.Start() }()

		select {
		case serveErr = <-errCh:
			if serveErr != nil {
				serveErr = fmt.Errorf("admin API: %w", serveErr)
			}
		case <-ctx.Done():
			logger.Info("Shutdown signal received")
		}

		shutdownCtx, done := context.WithTimeout(context.Background(), shutdownTimeout)
		defer done()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("Admin API shutdown: %v", err)
		}
	} else {
		<-ctx.Done()
		logger.Info("Shutdown signal received")
	}

	cancel()
	wg.Wait()
	logger.Info("Scheduler stopped, exiting")
	return serveErr
}
