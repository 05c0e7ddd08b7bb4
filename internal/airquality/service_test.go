package airquality_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/i474232898/air-quality-collector/internal/airquality"
)

type fakeFetcher struct {
	records map[string][]airquality.RawMeasurement
	errs    map[string]error
	calls   []string
}

func (f *fakeFetcher) Name() string { return "fake" }

func (f *fakeFetcher) Fetch(ctx context.Context, region string) ([]airquality.RawMeasurement, error) {
	f.calls = append(f.calls, region)
	if err := f.errs[region]; err != nil {
		return nil, err
	}
	return f.records[region], nil
}

type recordingWriter struct {
	writes [][]airquality.RegionSnapshot
	err    error
}

func (w *recordingWriter) WriteSnapshots(ctx context.Context, snaps []airquality.RegionSnapshot) error {
	if w.err != nil {
		return w.err
	}
	w.writes = append(w.writes, snaps)
	return nil
}

func TestService_Collect_SkipsFailedRegion(t *testing.T) {
	fetcher := &fakeFetcher{
		records: map[string][]airquality.RawMeasurement{
			"서울": {raw("서울", "강남구", "2024-11-20 14:00", "20", "10")},
			"부산": {raw("부산", "중구", "2024-11-20 14:00", "60", "20")},
		},
		errs: map[string]error{
			"인천": &airquality.FetchError{Region: "인천", Err: fmt.Errorf("%w: connection refused", airquality.ErrTransport)},
		},
	}
	primary := &recordingWriter{}
	sink := &recordingWriter{}

	svc := airquality.NewService(fetcher, []string{"서울", "인천", "부산"}, primary, nil, sink)
	report, err := svc.Collect(context.Background())
	if err != nil {
		t.Fatalf("Collect() error = %v", err)
	}

	if len(fetcher.calls) != 3 {
		t.Errorf("fetch calls = %v, want every region once", fetcher.calls)
	}
	if len(report.Failed) != 1 || report.Failed[0] != "인천" {
		t.Errorf("Failed = %v, want [인천]", report.Failed)
	}
	if len(primary.writes) != 1 {
		t.Fatalf("primary writes = %d, want 1", len(primary.writes))
	}
	if len(sink.writes) != 1 {
		t.Errorf("sink writes = %d, want 1", len(sink.writes))
	}

	got := primary.writes[0]
	if len(got) != 2 {
		t.Fatalf("snapshots = %+v, want 2", got)
	}
	for _, snap := range got {
		if snap.Region == "인천" {
			t.Errorf("failed region present in output: %+v", snap)
		}
	}
	if report.ID == "" {
		t.Error("report ID is empty")
	}
}

func TestService_Collect_AllRegionsFail(t *testing.T) {
	fetcher := &fakeFetcher{
		errs: map[string]error{
			"서울": airquality.ErrTransport,
			"부산": airquality.ErrEnvelopeMissing,
		},
	}
	primary := &recordingWriter{}
	sink := &recordingWriter{}

	svc := airquality.NewService(fetcher, []string{"서울", "부산"}, primary, nil, sink)
	_, err := svc.Collect(context.Background())

	if !errors.Is(err, airquality.ErrEmptyDataset) {
		t.Fatalf("Collect() error = %v, want ErrEmptyDataset", err)
	}
	if len(primary.writes) != 0 || len(sink.writes) != 0 {
		t.Errorf("writers touched on failed cycle: primary=%d sink=%d", len(primary.writes), len(sink.writes))
	}
}

func TestService_Collect_PrimaryWriteFails(t *testing.T) {
	fetcher := &fakeFetcher{
		records: map[string][]airquality.RawMeasurement{
			"대전": {raw("대전", "서구", "2024-11-20 14:00", "20", "10")},
		},
	}
	writeErr := errors.New("disk full")
	primary := &recordingWriter{err: writeErr}
	sink := &recordingWriter{}

	svc := airquality.NewService(fetcher, []string{"대전"}, primary, nil, sink)
	_, err := svc.Collect(context.Background())

	if !errors.Is(err, writeErr) {
		t.Fatalf("Collect() error = %v, want %v", err, writeErr)
	}
	if len(sink.writes) != 0 {
		t.Errorf("sink written after primary failure")
	}
}

func TestService_Collect_SinkFailureIsNotFatal(t *testing.T) {
	fetcher := &fakeFetcher{
		records: map[string][]airquality.RawMeasurement{
			"광주": {raw("광주", "동구", "2024-11-20 14:00", "20", "10")},
		},
	}
	primary := &recordingWriter{}
	broken := airquality.SnapshotWriterFunc(func(context.Context, []airquality.RegionSnapshot) error {
		return errors.New("broker down")
	})

	svc := airquality.NewService(fetcher, []string{"광주"}, primary, nil, broken)
	report, err := svc.Collect(context.Background())
	if err != nil {
		t.Fatalf("Collect() error = %v", err)
	}
	if len(report.Snapshots) != 1 {
		t.Errorf("Snapshots = %+v, want 1", report.Snapshots)
	}
}

func TestService_Collect_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	fetcher := &fakeFetcher{}
	primary := &recordingWriter{}
	svc := airquality.NewService(fetcher, []string{"서울"}, primary, nil)

	if _, err := svc.Collect(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("Collect() error = %v, want context.Canceled", err)
	}
	if len(fetcher.calls) != 0 {
		t.Errorf("fetcher called after cancel: %v", fetcher.calls)
	}
}
