package worker

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"newsrag/internal/app"
)

const DefaultReconcileInterval = 10 * time.Minute

type Sweeper interface {
	Sweep(ctx context.Context) (*app.SweepReport, error)
}

// ReconcileWorker runs a sweep on every tick.
type ReconcileWorker struct {
	sweeper  Sweeper
	interval time.Duration

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewReconcileWorker(sweeper Sweeper, interval time.Duration) *ReconcileWorker {
	if interval <= 0 {
		interval = DefaultReconcileInterval
	}
	return &ReconcileWorker{sweeper: sweeper, interval: interval}
}

func (w *ReconcileWorker) Start(ctx context.Context) {
	if w.cancel != nil {
		return
	}
	workerCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		ticker := time.NewTicker(w.interval)
		defer ticker.Stop()
		for {
			select {
			case <-workerCtx.Done():
				return
			case <-ticker.C:
				report, err := w.sweeper.Sweep(workerCtx)
				if err != nil {
					logrus.WithError(err).Warn("reconcile sweep failed")
					continue
				}
				if report.Candidates > 0 {
					logrus.WithFields(logrus.Fields{
						"candidates": report.Candidates,
						"reindexed":  report.Reindexed,
						"failed":     report.Failed,
					}).Info("reconcile sweep finished")
				}
			}
		}
	}()
}

func (w *ReconcileWorker) Close() {
	if w.cancel != nil {
		w.cancel()
	}
	w.wg.Wait()
}
