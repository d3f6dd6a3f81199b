package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"wedding-appgen/internal/generator"
	"wedding-appgen/internal/models"
	"wedding-appgen/templates"
)

func newTestStorage(t *testing.T) *Storage {
	t.Helper()
	s, err := NewStorage(filepath.Join(t.TempDir(), "nested", "jobs.db"))
	if err != nil {
		t.Fatalf("NewStorage error: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStorageLifecycle(t *testing.T) {
	ctx := context.Background()
	s := newTestStorage(t)

	created := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	job := models.Job{ID: "req-1", Status: models.StatusCreated, CoupleName: "Amy & Sam", CreatedAt: created, UpdatedAt: created}
	if err := s.Transition(ctx, job); err != nil {
		t.Fatalf("Transition error: %v", err)
	}

	job.Status = models.StatusDelivering
	job.ArchivePath = "/tmp/req-1.zip"
	job.CreatedAt = created.Add(time.Hour)
	job.UpdatedAt = created.Add(time.Minute)
	if err := s.Transition(ctx, job); err != nil {
		t.Fatalf("Transition error: %v", err)
	}

	got, err := s.GetJob(ctx, "req-1")
	if err != nil {
		t.Fatalf("GetJob error: %v", err)
	}
	if got.Status != models.StatusDelivering || got.ArchivePath != "/tmp/req-1.zip" || got.CoupleName != "Amy & Sam" {
		t.Errorf("GetJob = %+v", got)
	}
	if !got.CreatedAt.Equal(created) {
		t.Errorf("CreatedAt = %v, want the original %v", got.CreatedAt, created)
	}
	if !got.UpdatedAt.Equal(created.Add(time.Minute)) {
		t.Errorf("UpdatedAt = %v", got.UpdatedAt)
	}
}

func TestStorageGetJobNotFound(t *testing.T) {
	s := newTestStorage(t)
	if _, err := s.GetJob(context.Background(), "missing"); !errors.Is(err, ErrJobNotFound) {
		t.Errorf("GetJob error = %v, want ErrJobNotFound", err)
	}
	if err := s.UpdateStatus(context.Background(), "missing", models.StatusFailed, "x"); !errors.Is(err, ErrJobNotFound) {
		t.Errorf("UpdateStatus error = %v, want ErrJobNotFound", err)
	}
}

func TestStorageUpdateStatus(t *testing.T) {
	ctx := context.Background()
	s := newTestStorage(t)
	if err := s.AddJob(ctx, models.Job{ID: "req-1"}); err != nil {
		t.Fatalf("AddJob error: %v", err)
	}

	if err := s.UpdateStatus(ctx, "req-1", models.StatusFailed, "disk full"); err != nil {
		t.Fatalf("UpdateStatus error: %v", err)
	}
	if err := s.UpdateStatus(ctx, "req-1", models.StatusFailed, ""); err != nil {
		t.Fatalf("UpdateStatus error: %v", err)
	}
	got, err := s.GetJob(ctx, "req-1")
	if err != nil {
		t.Fatalf("GetJob error: %v", err)
	}
	if got.Status != models.StatusFailed || got.Error != "disk full" {
		t.Errorf("GetJob = %+v", got)
	}
}

func TestStorageListing(t *testing.T) {
	ctx := context.Background()
	s := newTestStorage(t)
	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	jobs := []models.Job{
		{ID: "c", Status: models.StatusCleaned, CreatedAt: base.Add(2 * time.Second)},
		{ID: "a", Status: models.StatusCleaned, CreatedAt: base},
		{ID: "b", Status: models.StatusFailed, CreatedAt: base.Add(time.Second)},
	}
	for _, j := range jobs {
		if err := s.AddJob(ctx, j); err != nil {
			t.Fatalf("AddJob error: %v", err)
		}
	}

	all, err := s.GetAllJobs(ctx)
	if err != nil {
		t.Fatalf("GetAllJobs error: %v", err)
	}
	if len(all) != 3 || all[0].ID != "a" || all[1].ID != "b" || all[2].ID != "c" {
		t.Errorf("GetAllJobs order = %v", ids(all))
	}

	cleaned, err := s.GetJobsByStatus(ctx, models.StatusCleaned)
	if err != nil {
		t.Fatalf("GetJobsByStatus error: %v", err)
	}
	if len(cleaned) != 2 || cleaned[0].ID != "a" || cleaned[1].ID != "c" {
		t.Errorf("GetJobsByStatus = %v", ids(cleaned))
	}

	none, err := s.GetJobsByStatus(ctx, models.StatusCopying)
	if err != nil {
		t.Fatalf("GetJobsByStatus error: %v", err)
	}
	if none == nil || len(none) != 0 {
		t.Errorf("GetJobsByStatus = %v, want empty non-nil slice", none)
	}
}

func TestStorageReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "jobs.db")
	s, err := NewStorage(path)
	if err != nil {
		t.Fatalf("NewStorage error: %v", err)
	}
	if err := s.AddJob(context.Background(), models.Job{ID: "req-1", Status: models.StatusCleaned}); err != nil {
		t.Fatalf("AddJob error: %v", err)
	}
	s.Close()

	s, err = NewStorage(path)
	if err != nil {
		t.Fatalf("NewStorage reopen error: %v", err)
	}
	defer s.Close()
	if _, err := s.GetJob(context.Background(), "req-1"); err != nil {
		t.Errorf("job lost after reopen: %v", err)
	}
}

func ids(jobs []models.Job) []string {
	out := make([]string, len(jobs))
	for i, j := range jobs {
		out[i] = j.ID
	}
	return out
}

// cancelingLedger cancels the generation once status has been stored.
type cancelingLedger struct {
	*Storage
	status models.Status
	cancel context.CancelFunc
}

func (l *cancelingLedger) Transition(ctx context.Context, job models.Job) error {
	err := l.Storage.Transition(ctx, job)
	if job.Status == l.status {
		l.cancel()
	}
	return err
}

func TestStorageRecordsCanceledGeneration(t *testing.T) {
	s := newTestStorage(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	g, err := generator.New(generator.Config{
		Template:  templates.Flutter(),
		OutputDir: t.TempDir(),
	}, generator.WithRecorder(&cancelingLedger{Storage: s, status: models.StatusCopying, cancel: cancel}))
	if err != nil {
		t.Fatal(err)
	}

	req := &models.GenerationRequest{BrideName: "Amy", GroomName: "Sam", WeddingDate: "2025-06-01"}
	if _, err := g.Generate(ctx, req); !errors.Is(err, context.Canceled) {
		t.Fatalf("Generate error = %v, want context.Canceled", err)
	}

	jobs, err := s.GetAllJobs(context.Background())
	if err != nil {
		t.Fatalf("GetAllJobs error: %v", err)
	}
	if len(jobs) != 1 {
		t.Fatalf("got %d jobs, want 1", len(jobs))
	}
	if jobs[0].Status != models.StatusFailed || !jobs[0].Status.Terminal() {
		t.Errorf("status = %s, want failed", jobs[0].Status)
	}
	if jobs[0].Error == "" {
		t.Error("canceled job has no error text")
	}
}
