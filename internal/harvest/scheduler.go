// Package harvest periodically pulls configured RSS/Atom feeds and hands new
// entries to the ingestion pipeline.
package harvest

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"newsrag/internal/app"
)

const (
	DefaultInterval        = 60 * time.Minute
	DefaultInitialDelay    = 20 * time.Second
	DefaultRunTimeout      = 30 * time.Minute
	DefaultFeedTimeout     = 5 * time.Minute
	DefaultPolitenessDelay = 300 * time.Millisecond
	// DefaultLockTTL outlives a run bounded by DefaultRunTimeout.
	DefaultLockTTL = DefaultRunTimeout + time.Minute
)

type Config struct {
	Feeds           []string
	Interval        time.Duration
	InitialDelay    time.Duration
	RunTimeout      time.Duration
	FeedTimeout     time.Duration
	PolitenessDelay time.Duration
	LockTTL         time.Duration
}

type Feed struct {
	Title   string
	Entries []Entry
}

type Entry struct {
	Title string
	Link  string
}

type FeedParser interface {
	Parse(ctx context.Context, feedURL string) (*Feed, error)
}

// PageFetcher returns the visible text of a page.
type PageFetcher interface {
	FetchText(ctx context.Context, pageURL string) (string, error)
}

type DocumentChecker interface {
	ExistsDocumentByURL(ctx context.Context, url string) (bool, error)
}

type Ingester interface {
	Ingest(ctx context.Context, input app.IngestInput) (*app.IngestResult, error)
}

// RunLocker guards a run across processes. Acquire reports false when another
// holder owns the lock.
type RunLocker interface {
	Acquire(ctx context.Context, ttl time.Duration) (release func(context.Context), acquired bool, err error)
}

// ErrStopped is returned by RunOnce after Stop.
var ErrStopped = errors.New("harvest scheduler stopped")

type RunReport struct {
	Feeds       int `json:"feeds"`
	FailedFeeds int `json:"failed_feeds"`
	Ingested    int `json:"ingested"`
	Skipped     int `json:"skipped"`
}

type Scheduler struct {
	cfg      Config
	parser   FeedParser
	fetcher  PageFetcher
	checker  DocumentChecker
	ingester Ingester
	locker   RunLocker

	running sync.Mutex

	mu        sync.Mutex
	stopped   bool
	cancel    context.CancelFunc
	cancelRun context.CancelFunc
	wg        sync.WaitGroup
}

func NewScheduler(cfg Config, parser FeedParser, fetcher PageFetcher, checker DocumentChecker, ingester Ingester, locker RunLocker) *Scheduler {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.InitialDelay < 0 {
		cfg.InitialDelay = 0
	}
	if cfg.RunTimeout <= 0 {
		cfg.RunTimeout = DefaultRunTimeout
	}
	if cfg.FeedTimeout <= 0 {
		cfg.FeedTimeout = DefaultFeedTimeout
	}
	if cfg.PolitenessDelay < 0 {
		cfg.PolitenessDelay = 0
	}
	if cfg.LockTTL <= 0 {
		cfg.LockTTL = cfg.RunTimeout + time.Minute
	}
	return &Scheduler{
		cfg:      cfg,
		parser:   parser,
		fetcher:  fetcher,
		checker:  checker,
		ingester: ingester,
		locker:   locker,
	}
}

// Start launches the fixed-delay loop: the first run after InitialDelay, each
// following run Interval after the previous one finished.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return
	}
	loopCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		timer := time.NewTimer(s.cfg.InitialDelay)
		defer timer.Stop()
		for {
			select {
			case <-loopCtx.Done():
				return
			case <-timer.C:
			}
			report, err := s.RunOnce(loopCtx)
			switch {
			case errors.Is(err, ErrStopped):
				return
			case errors.Is(err, app.ErrHarvestInProgress):
				logrus.Info("harvest run skipped, another run is active")
			case err != nil:
				logrus.WithError(err).Error("harvest run failed")
			default:
				logrus.WithFields(logrus.Fields{
					"feeds":        report.Feeds,
					"failed_feeds": report.FailedFeeds,
					"ingested":     report.Ingested,
					"skipped":      report.Skipped,
				}).Info("harvest run finished")
			}
			timer.Reset(s.cfg.Interval)
		}
	}()
}

// Stop cancels the loop and any in-flight run, manual runs included, and
// waits for them to return. Later RunOnce calls fail with ErrStopped.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	s.stopped = true
	cancel, cancelRun := s.cancel, s.cancelRun
	s.cancel = nil
	s.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	if cancelRun != nil {
		cancelRun()
	}
	s.wg.Wait()
	s.running.Lock()
	s.running.Unlock()
}

// RunOnce harvests every configured feed in order. Overlapping runs are
// rejected with app.ErrHarvestInProgress rather than queued.
func (s *Scheduler) RunOnce(ctx context.Context) (*RunReport, error) {
	if !s.running.TryLock() {
		return nil, app.ErrHarvestInProgress
	}
	defer s.running.Unlock()

	runCtx, cancel := context.WithTimeout(ctx, s.cfg.RunTimeout)
	defer cancel()
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return nil, ErrStopped
	}
	s.cancelRun = cancel
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.cancelRun = nil
		s.mu.Unlock()
	}()

	if s.locker != nil {
		release, acquired, err := s.locker.Acquire(runCtx, s.cfg.LockTTL)
		switch {
		case err != nil:
			// the in-process guard still holds
			logrus.WithError(err).Warn("acquire distributed harvest lock failed")
		case !acquired:
			return nil, app.ErrHarvestInProgress
		default:
			defer release(context.WithoutCancel(ctx))
		}
	}

	report := &RunReport{}
	for _, feedURL := range s.cfg.Feeds {
		if runCtx.Err() != nil {
			logrus.WithError(runCtx.Err()).Warn("harvest run stopped before all feeds were processed")
			break
		}
		report.Feeds++
		if err := s.harvestFeed(runCtx, feedURL, report); err != nil {
			report.FailedFeeds++
			logrus.WithField("feed", feedURL).WithError(err).Warn("harvest feed failed")
		}
	}
	return report, nil
}

func (s *Scheduler) harvestFeed(ctx context.Context, feedURL string, report *RunReport) error {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.FeedTimeout)
	defer cancel()

	feed, err := s.parser.Parse(ctx, feedURL)
	if err != nil {
		return err
	}
	sourceName := strings.TrimSpace(feed.Title)
	if sourceName == "" {
		sourceName = feedURL
	}

	for _, entry := range feed.Entries {
		link := strings.TrimSpace(entry.Link)
		if link == "" {
			report.Skipped++
			continue
		}
		exists, err := s.checker.ExistsDocumentByURL(ctx, link)
		if err != nil {
			return fmt.Errorf("check existing document %s failed: %w", link, err)
		}
		if exists {
			report.Skipped++
			continue
		}

		if err := sleepCtx(ctx, s.cfg.PolitenessDelay); err != nil {
			return err
		}

		content, err := s.fetcher.FetchText(ctx, link)
		if err != nil {
			logrus.WithField("url", link).WithError(err).Debug("fetch page text failed, ingesting without content")
			content = ""
		}

		if _, err := s.ingester.Ingest(ctx, app.IngestInput{
			SourceName: sourceName,
			SourceURL:  feedURL,
			Title:      entry.Title,
			URL:        link,
			Content:    content,
			Origin:     app.OriginFeed,
		}); err != nil {
			return fmt.Errorf("ingest %s failed: %w", link, err)
		}
		report.Ingested++
	}
	return nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
