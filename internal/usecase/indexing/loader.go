package indexing

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/gamedex/internal/domain"
	"github.com/kailas-cloud/gamedex/internal/metrics"
)

// Loader resolves the registry's current generation into a live snapshot.
type Loader struct {
	registry  Registry
	artifacts ArtifactStore
	handle    *Handle
	version   string
	nprobe    int
	logger    *zap.Logger

	failed string // last generation that failed to load; Watch goroutine only
}

// NewLoader creates a loader that accepts only artifacts built against
// version. nprobe > 0 overrides the probe count stored in the artifact.
func NewLoader(
	registry Registry, artifacts ArtifactStore, handle *Handle,
	version string, nprobe int, logger *zap.Logger,
) *Loader {
	return &Loader{
		registry:  registry,
		artifacts: artifacts,
		handle:    handle,
		version:   version,
		nprobe:    nprobe,
		logger:    logger,
	}
}

// Load publishes the current generation to the handle. Every failure is a
// configuration error except transport failures talking to the registry.
func (l *Loader) Load(ctx context.Context) (*Snapshot, error) {
	snap, err := l.load(ctx)
	if err != nil {
		metrics.IndexSwapsTotal.WithLabelValues("load", "error").Inc()
		return nil, err
	}
	metrics.IndexSwapsTotal.WithLabelValues("load", "ok").Inc()
	return snap, nil
}

func (l *Loader) load(ctx context.Context) (*Snapshot, error) {
	rec, err := l.registry.Current(ctx)
	if err != nil {
		return nil, fmt.Errorf("resolve current generation: %w", err)
	}
	if rec.Version != l.version {
		return nil, fmt.Errorf("generation %s: %w", rec.Generation, domain.NewVocabularyMismatch(l.version, rec.Version))
	}

	idx, err := l.artifacts.Open(rec.Artifact)
	if err != nil {
		return nil, fmt.Errorf("open generation %s: %w", rec.Generation, err)
	}
	if idx.Version() != l.version {
		return nil, fmt.Errorf("artifact %s: %w", rec.Artifact, domain.NewVocabularyMismatch(l.version, idx.Version()))
	}
	if l.nprobe > 0 {
		idx.SetNProbe(l.nprobe)
	}

	ordinals, err := l.registry.Ordinals(ctx, rec.Generation, idx.Len())
	if err != nil {
		return nil, fmt.Errorf("load ordinals: %w", err)
	}
	snap, err := NewSnapshot(rec, idx, ordinals)
	if err != nil {
		return nil, err
	}

	prev := l.handle.Publish(snap)
	fields := []zap.Field{
		zap.String("generation", snap.Generation),
		zap.Int("vectors", snap.Len()),
		zap.Int("nprobe", idx.NProbe()),
	}
	if prev != nil {
		fields = append(fields, zap.String("previous", prev.Generation))
	}
	l.logger.Info("Index snapshot swapped", fields...)
	return snap, nil
}

// Watch polls the registry every interval and loads new generations until ctx
// is done. A failed load is logged and the previous snapshot stays live.
func (l *Loader) Watch(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.poll(ctx)
		}
	}
}

func (l *Loader) poll(ctx context.Context) {
	rec, err := l.registry.Current(ctx)
	if err != nil {
		l.logger.Warn("Registry poll failed", zap.Error(err))
		return
	}
	if cur := l.handle.Current(); cur != nil && cur.Generation == rec.Generation {
		return
	}
	if rec.Generation == l.failed {
		return
	}
	if _, err := l.Load(ctx); err != nil {
		l.failed = rec.Generation
		l.logger.Error("Index reload failed, keeping previous snapshot",
			zap.String("generation", rec.Generation),
			zap.Error(err),
		)
		return
	}
	l.failed = ""
}
