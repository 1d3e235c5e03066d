package storage

import (
	"context"

	"poolCore/internal/model"
)

// SnapshotSink defines a sink for observed pool states.
type SnapshotSink interface {
	PutSnapshots(ctx context.Context, snapshots []model.SnapshotRecord) error
}

// MultiSink fans each batch out to every underlying sink in order.
type MultiSink []SnapshotSink

func (m MultiSink) PutSnapshots(ctx context.Context, snapshots []model.SnapshotRecord) error {
	for _, sink := range m {
		if err := sink.PutSnapshots(ctx, snapshots); err != nil {
			return err
		}
	}
	return nil
}
