package app

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/sirupsen/logrus"

	"newsrag/internal/model"
	"newsrag/internal/vectorstore"
)

const (
	DefaultReconcileGrace     = 2 * time.Minute
	DefaultReconcileBatchSize = 100
	DefaultReconcilePoolSize  = 4
)

type ReconcileStore interface {
	GetDocument(ctx context.Context, id uint) (*model.Document, error)
	GetSource(ctx context.Context, id uint) (*model.Source, error)
	ListChunksByDocumentID(ctx context.Context, documentID uint) ([]model.Chunk, error)
	ListUnindexedDocuments(ctx context.Context, createdBefore time.Time, limit int) ([]model.Document, error)
	MarkDocumentIndexed(ctx context.Context, documentID uint) error
}

type ReconcileConfig struct {
	Grace     time.Duration
	BatchSize int
	PoolSize  int
}

type SweepReport struct {
	Candidates int `json:"candidates"`
	Reindexed  int `json:"reindexed"`
	Failed     int `json:"failed"`
}

// ReconcileService pushes documents that were persisted but never reached
// the vector index. It reuses the vector ids stored on the chunks so a
// retried upsert overwrites rather than duplicates.
type ReconcileService struct {
	store   ReconcileStore
	vectors vectorstore.Client
	pool    *ants.Pool
	cfg     ReconcileConfig
	now     func() time.Time
}

func NewReconcileService(store ReconcileStore, vectors vectorstore.Client, cfg ReconcileConfig) (*ReconcileService, error) {
	if cfg.Grace <= 0 {
		cfg.Grace = DefaultReconcileGrace
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultReconcileBatchSize
	}
	if cfg.PoolSize <= 0 {
		cfg.PoolSize = DefaultReconcilePoolSize
	}
	pool, err := ants.NewPool(cfg.PoolSize)
	if err != nil {
		return nil, fmt.Errorf("create reconcile pool failed: %w", err)
	}
	return &ReconcileService{
		store:   store,
		vectors: vectors,
		pool:    pool,
		cfg:     cfg,
		now:     time.Now,
	}, nil
}

// ReindexDocument re-upserts one document's chunks and marks it indexed.
// Documents already indexed are left alone.
func (s *ReconcileService) ReindexDocument(ctx context.Context, documentID uint) error {
	doc, err := s.store.GetDocument(ctx, documentID)
	if err != nil {
		return err
	}
	if doc == nil {
		return ErrDocumentNotFound
	}
	if doc.Indexed() {
		return nil
	}

	sourceName := ""
	source, err := s.store.GetSource(ctx, doc.SourceID)
	if err != nil {
		return err
	}
	if source != nil {
		sourceName = source.Name
	}

	chunks, err := s.store.ListChunksByDocumentID(ctx, doc.ID)
	if err != nil {
		return err
	}
	if len(chunks) > 0 {
		inserted, err := s.vectors.Upsert(ctx, buildItems(doc, sourceName, chunks))
		if err != nil {
			return fmt.Errorf("reindex document %d failed: %w", doc.ID, err)
		}
		if inserted < len(chunks) {
			logrus.WithField("document_id", doc.ID).
				Warnf("vector store accepted %d of %d chunks on reindex", inserted, len(chunks))
		}
	}
	return s.store.MarkDocumentIndexed(ctx, doc.ID)
}

// Sweep reindexes a batch of stale persisted documents on the worker pool.
// Failures are logged and picked up again by the next sweep.
func (s *ReconcileService) Sweep(ctx context.Context) (*SweepReport, error) {
	docs, err := s.store.ListUnindexedDocuments(ctx, s.now().Add(-s.cfg.Grace), s.cfg.BatchSize)
	if err != nil {
		return nil, err
	}
	report := &SweepReport{Candidates: len(docs)}

	var (
		wg     sync.WaitGroup
		ok     atomic.Int64
		failed atomic.Int64
	)
	for _, doc := range docs {
		id := doc.ID
		wg.Add(1)
		submitErr := s.pool.Submit(func() {
			defer wg.Done()
			if err := s.ReindexDocument(ctx, id); err != nil {
				logrus.WithField("document_id", id).WithError(err).Warn("sweep reindex failed")
				failed.Add(1)
				return
			}
			ok.Add(1)
		})
		if submitErr != nil {
			wg.Done()
			failed.Add(1)
			logrus.WithField("document_id", id).WithError(submitErr).Warn("submit reindex task failed")
		}
	}
	wg.Wait()

	report.Reindexed = int(ok.Load())
	report.Failed = int(failed.Load())
	return report, nil
}

func (s *ReconcileService) Close() {
	s.pool.Release()
}
