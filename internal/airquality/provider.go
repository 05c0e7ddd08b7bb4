package airquality

import "context"

// Fetcher retrieves the current-day raw records for one region.
type Fetcher interface {
	Name() string
	Fetch(ctx context.Context, region string) ([]RawMeasurement, error)
}

// SnapshotWriter persists a full snapshot set, replacing whatever was there before.
type SnapshotWriter interface {
	WriteSnapshots(ctx context.Context, snapshots []RegionSnapshot) error
}

// SnapshotWriterFunc adapts a function to SnapshotWriter.
type SnapshotWriterFunc func(ctx context.Context, snapshots []RegionSnapshot) error

func (f SnapshotWriterFunc) WriteSnapshots(ctx context.Context, snapshots []RegionSnapshot) error {
	return f(ctx, snapshots)
}
