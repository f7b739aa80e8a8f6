package health

import (
	"context"

	"github.com/kailas-cloud/gamedex/internal/usecase/indexing"
)

// Pinger checks a backing store's availability.
type Pinger interface {
	Ping(ctx context.Context) error
}

// SnapshotSource exposes the live index snapshot.
type SnapshotSource interface {
	Current() *indexing.Snapshot
}
