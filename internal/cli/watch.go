package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/calvinalkan/shelf/internal/metrics"
	"github.com/calvinalkan/shelf/internal/shelf"

	flag "github.com/spf13/pflag"
)

const (
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 5 * time.Second
)

// WatchCmd returns the watch command.
func WatchCmd(a *app) *Command {
	fs := flag.NewFlagSet("watch", flag.ContinueOnError)
	fs.String("metrics-addr", "", "Serve Prometheus metrics on this address (e.g. :9090)")

	return &Command{
		Flags: fs,
		Usage: "watch [flags]",
		Short: "Run the overdue sweep on a schedule",
		Long: `Run the overdue sweep now and then on sweep_schedule (default every minute)
until interrupted, printing reminders whenever loans become overdue.`,
		Exec: func(ctx context.Context, io *IO, _ []string) error {
			return execWatch(ctx, io, a, fs)
		},
	}
}

func execWatch(ctx context.Context, io *IO, a *app, fs *flag.FlagSet) error {
	schedule, err := cron.ParseStandard(a.cfg.SweepSchedule)
	if err != nil {
		return fmt.Errorf("%w: %w", shelf.ErrInvalidSchedule, err)
	}

	unsubscribe := a.shelf.Subscribe(metrics.Observe)
	defer unsubscribe()

	metrics.SetItems(len(a.shelf.All()))

	var mu sync.Mutex

	first := true
	sweep := func() {
		changed, err := a.shelf.CheckOverdues()
		if err != nil {
			a.log.WithError(err).Error("overdue sweep failed")

			return
		}

		metrics.RecordSweep(changed)

		mu.Lock()
		defer mu.Unlock()

		if changed || first {
			printReminders(io, a.shelf.All(), a.shelf.Now())
		}

		first = false
	}

	addr, _ := fs.GetString("metrics-addr")
	if addr != "" {
		srv := startMetricsServer(a, addr)

		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()

			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	io.Println("Watching " + a.cfg.DataDirAbs + " (" + a.cfg.SweepSchedule + ")")
	sweep()

	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.PrintfLogger(a.log))))
	c.Schedule(schedule, cron.FuncJob(sweep))
	c.Start()

	<-ctx.Done()

	<-c.Stop().Done()

	mu.Lock()
	defer mu.Unlock()

	io.Println("Stopped watching.")

	return nil
}

func startMetricsServer(a *app, addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	go func() {
		a.log.WithField("addr", addr).Info("serving metrics")

		err := srv.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.log.WithError(err).Error("metrics server failed")
		}
	}()

	return srv
}
