package worker

import (
	"context"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/amityadav/refiner/internal/core"
	"github.com/robfig/cron/v3"
)

// RunTimeout bounds a single enrichment run.
const RunTimeout = 2 * time.Hour

// Runner executes one enrichment run.
type Runner interface {
	Run(ctx context.Context) (*core.Report, error)
}

// Worker runs enrichment on a cron schedule and on demand. At most one run is
// active at any time.
type Worker struct {
	runner   Runner
	schedule string
	cron     *cron.Cron
	running  atomic.Bool
	wg       sync.WaitGroup
	ctx      context.Context
	cancel   context.CancelFunc
}

// NewWorker creates a new enrichment worker. An empty schedule disables the
// cron trigger; TryRun still works.
func NewWorker(runner Runner, schedule string) *Worker {
	ctx, cancel := context.WithCancel(context.Background())
	return &Worker{
		runner:   runner,
		schedule: schedule,
		cron:     cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger))),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Start registers the schedule and starts the cron loop
func (w *Worker) Start() error {
	if w.schedule == "" {
		log.Println("[Worker] ENRICH_SCHEDULE not set, scheduled enrichment disabled")
		return nil
	}

	if _, err := w.cron.AddFunc(w.schedule, w.runScheduled); err != nil {
		return err
	}
	w.cron.Start()
	log.Printf("[Worker] Scheduled enrichment with %q", w.schedule)
	return nil
}

// Stop stops the scheduler, cancels an active run and waits for it to return
func (w *Worker) Stop() {
	<-w.cron.Stop().Done()
	w.cancel()
	w.wg.Wait()
	log.Println("[Worker] Stopped")
}

// TryRun starts a run in the background. It returns false without starting
// anything when a run is already active.
func (w *Worker) TryRun() bool {
	if !w.running.CompareAndSwap(false, true) {
		return false
	}
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		defer w.running.Store(false)
		w.execute("manual")
	}()
	return true
}

// Running reports whether a run is in progress.
func (w *Worker) Running() bool {
	return w.running.Load()
}

func (w *Worker) runScheduled() {
	if !w.running.CompareAndSwap(false, true) {
		log.Println("[Worker] Previous run still active, skipping scheduled run")
		return
	}
	w.wg.Add(1)
	defer w.wg.Done()
	defer w.running.Store(false)
	w.execute("scheduled")
}

func (w *Worker) execute(trigger string) {
	ctx, cancel := context.WithTimeout(w.ctx, RunTimeout)
	defer cancel()

	log.Printf("[Worker] Starting %s enrichment run...", trigger)
	report, err := w.runner.Run(ctx)
	if report != nil {
		log.Printf("[Worker] %s", report)
	}
	if err != nil {
		log.Printf("[Worker] Enrichment run failed: %v", err)
		return
	}
	log.Printf("[Worker] %s enrichment run completed", trigger)
}
