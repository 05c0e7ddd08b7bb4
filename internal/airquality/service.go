package airquality

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/i474232898/air-quality-collector/internal/observability"
)

// Service runs collection cycles: fetch every region, aggregate, write the snapshot set.
type Service struct {
	fetcher Fetcher
	regions []string
	primary SnapshotWriter
	sinks   []SnapshotWriter
	logger  *zap.Logger
	now     func() time.Time
}

// NewService creates a new Service. The primary writer must succeed for a cycle
// to count; sinks are written afterwards on a best-effort basis.
func NewService(fetcher Fetcher, regions []string, primary SnapshotWriter, logger *zap.Logger, sinks ...SnapshotWriter) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	rs := make([]string, len(regions))
	copy(rs, regions)
	return &Service{
		fetcher: fetcher,
		regions: rs,
		primary: primary,
		sinks:   sinks,
		logger:  logger,
		now:     time.Now,
	}
}

// Collect runs one cycle. Regions that fail to fetch are left out; the cycle
// only fails when nothing could be aggregated or the primary write fails, and
// in both cases no writer is touched.
func (s *Service) Collect(ctx context.Context) (CycleReport, error) {
	report := CycleReport{
		ID:      uuid.NewString(),
		Started: s.now(),
	}
	logger := s.logger.With(zap.String("cycle_id", report.ID))
	logger.Info("collection cycle started", zap.Int("regions", len(s.regions)))

	var raw []RawMeasurement
	for _, region := range s.regions {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		records, err := s.fetcher.Fetch(ctx, region)
		if err != nil {
			report.Failed = append(report.Failed, region)
			logger.Warn("region skipped",
				zap.String("region", region),
				zap.String("provider", s.fetcher.Name()),
				zap.Error(err))
			continue
		}

		report.Fetched = append(report.Fetched, region)
		raw = append(raw, records...)
		logger.Debug("region fetched", zap.String("region", region), zap.Int("records", len(records)))
	}
	report.Records = len(raw)

	res, err := Aggregate(raw)
	s.logDropped(logger, res.Dropped)
	if err != nil {
		s.finish(&report, "empty")
		logger.Error("collection cycle failed; previous snapshot kept",
			zap.Strings("failed_regions", report.Failed),
			zap.Error(err))
		return report, err
	}

	if err := s.primary.WriteSnapshots(ctx, res.Snapshots); err != nil {
		s.finish(&report, "write_error")
		logger.Error("snapshot write failed", zap.Error(err))
		return report, fmt.Errorf("write snapshots: %w", err)
	}
	report.Snapshots = res.Snapshots

	for _, sink := range s.sinks {
		if err := sink.WriteSnapshots(ctx, res.Snapshots); err != nil {
			logger.Warn("secondary sink write failed", zap.Error(err))
		}
	}

	for _, snap := range res.Snapshots {
		observability.RecordSnapshot(snap.Region, snap.Score, snap.PM10, snap.PM25)
	}
	observability.LastSuccessfulCycle.Set(float64(report.Started.Unix()))
	s.finish(&report, "success")

	logger.Info("collection cycle completed",
		zap.Int("records", report.Records),
		zap.Int("snapshots", len(res.Snapshots)),
		zap.Strings("failed_regions", report.Failed),
		zap.Duration("duration", report.Duration))
	return report, nil
}

func (s *Service) finish(report *CycleReport, outcome string) {
	report.Duration = s.now().Sub(report.Started)
	observability.CyclesTotal.WithLabelValues(outcome).Inc()
	observability.CycleDuration.Observe(report.Duration.Seconds())
}

func (s *Service) logDropped(logger *zap.Logger, dropped []AggregatedMeasurement) {
	for _, row := range dropped {
		observability.DroppedGroupsTotal.Inc()
		var missing []string
		for _, p := range Pollutants {
			if row.Get(p) == nil {
				missing = append(missing, string(p))
			}
		}
		logger.Warn("group dropped: pollutant without valid readings",
			zap.String("region", row.Region),
			zap.String("data_time", row.DataTime),
			zap.Strings("missing", missing))
	}
}

