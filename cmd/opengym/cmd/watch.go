package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/theakshaypant/opengym/internal/countdown"
	"github.com/theakshaypant/opengym/internal/crowd"
	"github.com/theakshaypant/opengym/internal/refresh"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Keep the schedule fresh and print countdown changes",
	Long: `Run without a UI: refresh the schedule every 10 minutes, re-evaluate the
countdown every second and sample the crowd level every minute. A line is
printed whenever the countdown or crowd level changes. Stop with Ctrl+C.`,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	refresher.Seed()
	capacity := viper.GetInt("crowd_capacity")
	w := newWatcher(ctx, cmd.OutOrStdout(), refresher, crowd.RandomEstimator{Capacity: capacity}, capacity)
	w.refresh()

	c := cron.New(
		cron.WithLogger(cronLogger{logger.Sugar().Named("cron")}),
		cron.WithChain(cron.SkipIfStillRunning(cronLogger{logger.Sugar().Named("cron")})),
	)
	jobs := []struct {
		every time.Duration
		run   func()
	}{
		{refresh.Interval, w.refresh},
		{countdown.Interval, w.tick},
		{crowd.Interval, w.sample},
	}
	for _, j := range jobs {
		if _, err := c.AddFunc(fmt.Sprintf("@every %s", j.every), j.run); err != nil {
			return fmt.Errorf("schedule job: %w", err)
		}
	}

	c.Start()
	logger.Info("watching schedule", zap.String("provider", adapter.ID()))

	<-ctx.Done()
	<-c.Stop().Done()
	w.wait()
	return nil
}

// watcher is the headless counterpart of the TUI model: it owns the
// countdown tracker and the last crowd reading. Refreshes run under ctx,
// the command's signal context.
type watcher struct {
	ctx       context.Context
	out       io.Writer
	refresher *refresh.Refresher
	estimator crowd.Estimator
	capacity  int

	wg      sync.WaitGroup
	mu      sync.Mutex
	tracker countdown.Tracker
	level   crowd.Level
	sampled bool
}

func newWatcher(ctx context.Context, out io.Writer, r *refresh.Refresher, est crowd.Estimator, capacity int) *watcher {
	return &watcher{ctx: ctx, out: out, refresher: r, estimator: est, capacity: capacity}
}

func (w *watcher) refresh() {
	if w.ctx.Err() != nil {
		return
	}
	if _, err := w.refresher.Refresh(w.ctx); err != nil {
		// Already logged by the refresher; the last snapshot stays in use.
		return
	}
	w.mu.Lock()
	w.tracker.Reset()
	w.mu.Unlock()
	w.tick()
}

func (w *watcher) tick() {
	now := w.refresher.Now()
	next := w.refresher.Current().NextEvent

	w.mu.Lock()
	d, changed := w.tracker.Tick(now, next)
	w.mu.Unlock()

	if d.ClearCache {
		w.refresher.ClearNext()
		w.wg.Add(1)
		go func() {
			defer w.wg.Done()
			w.refresh()
		}()
		return
	}
	if changed {
		fmt.Fprintf(w.out, "%s  %s\n", now.Format("15:04:05"), d.Text)
	}
}

// wait blocks until refreshes started by tick have returned.
func (w *watcher) wait() {
	w.wg.Wait()
}

func (w *watcher) sample() {
	r := crowd.Sample(w.estimator, w.capacity, w.refresher.Now())

	w.mu.Lock()
	changed := !w.sampled || r.Level != w.level
	w.level = r.Level
	w.sampled = true
	w.mu.Unlock()

	if changed {
		fmt.Fprintf(w.out, "%s  crowd %s (%d of %d)\n", r.At.Format("15:04:05"), r.Level, r.Count, r.Capacity)
	}
}

// cronLogger routes cron's logging through zap.
type cronLogger struct {
	s *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.s.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.s.Errorw(msg, append(keysAndValues, "error", err)...)
}
