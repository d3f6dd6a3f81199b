package generator

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"wedding-appgen/internal/models"
)

// DefaultExclude keeps test-only files out of generated projects.
var DefaultExclude = []string{"widget_test.dart"}

const defaultWorkers = 4

// Config is everything a Generator needs. It is fixed at construction.
type Config struct {
	// Template is the read-only template project.
	Template fs.FS
	// OutputDir holds working copies and finished archives.
	OutputDir string
	// Exclude lists base-name globs that are not copied. Nil means
	// DefaultExclude.
	Exclude []string
	// Workers bounds concurrent file rewrites. Zero means 4.
	Workers int
	// Plan lists the files to rewrite. Nil means DefaultPlan.
	Plan []FilePlan
}

// Recorder is told about every lifecycle transition of a generation.
type Recorder interface {
	Transition(ctx context.Context, job models.Job) error
}

// Result is a finished generation.
type Result struct {
	RequestID   string
	ArchivePath string
}

// Generator materializes, archives and cleans up one working copy per
// request. It holds no per-request state and is safe for concurrent use.
type Generator struct {
	cfg      Config
	log      zerolog.Logger
	recorder Recorder
	newID    func() string
}

// Option configures a Generator.
type Option func(*Generator)

// WithLogger sets the logger. The default discards output.
func WithLogger(log zerolog.Logger) Option {
	return func(g *Generator) {
		g.log = log
	}
}

// WithRecorder reports lifecycle transitions to rec.
func WithRecorder(rec Recorder) Option {
	return func(g *Generator) {
		g.recorder = rec
	}
}

// New creates a Generator from cfg.
func New(cfg Config, opts ...Option) (*Generator, error) {
	if cfg.Template == nil {
		return nil, fmt.Errorf("generator: template filesystem is required")
	}
	if cfg.OutputDir == "" {
		return nil, fmt.Errorf("generator: output directory is required")
	}
	if cfg.Workers < 0 {
		return nil, fmt.Errorf("generator: workers must not be negative, got %d", cfg.Workers)
	}
	if cfg.Workers == 0 {
		cfg.Workers = defaultWorkers
	}
	if cfg.Exclude == nil {
		cfg.Exclude = DefaultExclude
	}
	if cfg.Plan == nil {
		cfg.Plan = DefaultPlan
	}

	g := &Generator{
		cfg:   cfg,
		log:   zerolog.Nop(),
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

// Generate validates r, builds the customized project and returns the path
// of its zip archive. The working copy is removed on every exit path. On
// error no archive is left behind; on success the caller owns the archive.
func (g *Generator) Generate(ctx context.Context, r *models.GenerationRequest) (res *Result, err error) {
	if err := Validate(r); err != nil {
		return nil, err
	}

	id := g.newID()
	job := models.Job{ID: id, CoupleName: r.CoupleName(), AppName: r.AppName, CreatedAt: time.Now()}
	log := g.log.With().Str("request_id", id).Logger()
	g.transition(ctx, log, &job, models.StatusCreated)

	workDir := filepath.Join(g.cfg.OutputDir, id)
	archivePath := filepath.Join(g.cfg.OutputDir, id+".zip")
	created := false

	defer func() {
		// The caller's ctx may already be canceled; the final state must
		// still reach the recorder.
		ctx := context.WithoutCancel(ctx)
		if created {
			if rmErr := os.RemoveAll(workDir); rmErr != nil {
				log.Error().Err(rmErr).Str("path", workDir).Msg("Failed to remove working copy")
				if err == nil {
					_ = os.Remove(archivePath)
					res, err = nil, ioError("remove working copy", workDir, rmErr)
				}
			}
		}
		if err != nil {
			job.Error = err.Error()
			job.ArchivePath = ""
			g.transition(ctx, log, &job, models.StatusFailed)
			log.Error().Err(err).Msg("Generation failed")
			return
		}
		g.transition(ctx, log, &job, models.StatusCleaned)
	}()

	g.transition(ctx, log, &job, models.StatusCopying)
	if err := os.MkdirAll(g.cfg.OutputDir, 0o755); err != nil {
		return nil, ioError("mkdir", g.cfg.OutputDir, err)
	}
	if err := os.Mkdir(workDir, 0o755); err != nil {
		return nil, ioError("create working copy", workDir, err)
	}
	created = true
	if err := copyTree(ctx, g.cfg.Template, workDir, g.cfg.Exclude); err != nil {
		return nil, err
	}

	g.transition(ctx, log, &job, models.StatusRewriting)
	if err := g.rewrite(ctx, log, workDir, r); err != nil {
		return nil, err
	}

	g.transition(ctx, log, &job, models.StatusArchiving)
	if err := ZipDirectory(workDir, archivePath); err != nil {
		return nil, err
	}

	job.ArchivePath = archivePath
	g.transition(ctx, log, &job, models.StatusDelivering)
	log.Info().Str("archive", archivePath).Str("couple", job.CoupleName).Msg("App generated")
	return &Result{RequestID: id, ArchivePath: archivePath}, nil
}

// rewrite runs every file plan on a bounded pool. Each task owns the whole
// read-modify-write cycle of its file.
func (g *Generator) rewrite(ctx context.Context, log zerolog.Logger, workDir string, r *models.GenerationRequest) error {
	values := TokenValues(r)

	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(g.cfg.Workers)
	for _, plan := range g.cfg.Plan {
		eg.Go(func() error {
			return rewriteFile(ctx, log, workDir, plan, r, values)
		})
	}
	return eg.Wait()
}

func rewriteFile(ctx context.Context, log zerolog.Logger, workDir string, plan FilePlan, r *models.GenerationRequest, values map[string]string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	path := filepath.Join(workDir, filepath.FromSlash(plan.Path))

	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return &IntegrityError{File: plan.Path, Message: "file listed in the rewrite plan is missing from the template"}
	}
	if err != nil {
		return ioError("stat", path, err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return ioError("read", path, err)
	}

	out, err := RewriteFile(string(data), plan, r, values)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, []byte(out), info.Mode().Perm()); err != nil {
		return ioError("write", path, err)
	}
	log.Debug().Str("file", plan.Path).Int("bytes", len(out)).Msg("Rewrote template file")
	return nil
}

// transition moves job to status and reports it. A job that reached a
// terminal status never moves again.
func (g *Generator) transition(ctx context.Context, log zerolog.Logger, job *models.Job, status models.Status) {
	if job.Status.Terminal() {
		log.Warn().Str("status", string(job.Status)).Str("next", string(status)).Msg("Ignoring transition out of a terminal state")
		return
	}
	job.Status = status
	job.UpdatedAt = time.Now()
	log.Debug().Str("status", string(status)).Msg("Generation state changed")
	if g.recorder == nil {
		return
	}
	if err := g.recorder.Transition(ctx, *job); err != nil {
		log.Warn().Err(err).Str("status", string(status)).Msg("Failed to record generation state")
	}
}
