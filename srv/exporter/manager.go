package exporter

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"

	"github.com/opd-ai/repairdoc/report"
	"github.com/opd-ai/repairdoc/reportcompiler"
)

// ManagerConfig controls job execution and retention.
type ManagerConfig struct {
	OutputRoot   string
	Options      reportcompiler.Options
	JobTimeout   time.Duration
	DisposeDelay time.Duration
	JobTTL       time.Duration
}

// Manager runs export jobs and keeps finished ones around for
// status polling and download until their TTL expires.
type Manager struct {
	mu           sync.RWMutex
	active       map[string]*Job
	finished     *cache.Cache
	opts         reportcompiler.Options
	outRoot      string
	jobTimeout   time.Duration
	disposeDelay time.Duration
	logger       *zap.Logger
}

func NewManager(cfg ManagerConfig, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.JobTimeout <= 0 {
		cfg.JobTimeout = 5 * time.Minute
	}
	if cfg.JobTTL <= 0 {
		cfg.JobTTL = 24 * time.Hour
	}

	m := &Manager{
		active:       make(map[string]*Job),
		finished:     cache.New(cfg.JobTTL, 1*time.Hour),
		opts:         cfg.Options,
		outRoot:      cfg.OutputRoot,
		jobTimeout:   cfg.JobTimeout,
		disposeDelay: cfg.DisposeDelay,
		logger:       logger,
	}
	// Expired jobs take their output directory with them.
	m.finished.OnEvicted(func(id string, _ interface{}) {
		if err := os.RemoveAll(filepath.Join(m.outRoot, id)); err != nil {
			m.logger.Warn("failed to remove expired job outputs",
				zap.String("job", id), zap.Error(err))
		}
	})
	return m
}

// Start launches an export job for the given project snapshot and
// returns immediately. The caller must pass a snapshot it owns; the
// job reads it concurrently with any further edits to the original.
func (m *Manager) Start(projectID string, snap *report.Project, format string) (*Job, error) {
	switch format {
	case FormatExcel, FormatPDF, FormatAll:
	default:
		return nil, fmt.Errorf("unsupported export format %q", format)
	}

	job := &Job{
		ID:        uuid.New().String(),
		ProjectID: projectID,
		Format:    format,
		state:     StatePending,
		startTime: time.Now(),
	}

	m.mu.Lock()
	m.active[job.ID] = job
	m.mu.Unlock()

	go m.run(job, snap)
	return job, nil
}

// Get returns a job by ID, looking through running jobs first and
// then through recently finished ones.
func (m *Manager) Get(jobID string) (*Job, bool) {
	m.mu.RLock()
	job, ok := m.active[jobID]
	m.mu.RUnlock()
	if ok {
		return job, true
	}
	if v, found := m.finished.Get(jobID); found {
		return v.(*Job), true
	}
	return nil, false
}

// OutputPath resolves a download name inside a job's output
// directory. The name is reduced to its base to keep lookups inside
// the job directory.
func (m *Manager) OutputPath(jobID, name string) string {
	return filepath.Join(m.outRoot, jobID, filepath.Base(name))
}

func (m *Manager) run(job *Job, snap *report.Project) {
	ctx, cancel := context.WithTimeout(context.Background(), m.jobTimeout)
	defer cancel()

	job.setState(StateRendering)

	now := time.Now()
	if m.opts.Now != nil {
		now = m.opts.Now()
	}
	outDir := filepath.Join(m.outRoot, job.ID)
	base := "维修报告_" + now.Format("20060102_150405")

	var trackers []*reportcompiler.Tracker
	defer func() {
		for _, tr := range trackers {
			tr.DisposeAfter(m.disposeDelay)
		}
	}()

	comp := reportcompiler.New(m.opts, m.logger)

	steps := []struct {
		name string
		fn   func() error
	}{
		{
			name: "preparing output directory",
			fn: func() error {
				return os.MkdirAll(outDir, 0o755)
			},
		},
	}
	if job.Format == FormatExcel || job.Format == FormatAll {
		steps = append(steps, struct {
			name string
			fn   func() error
		}{
			name: "rendering spreadsheet",
			fn: func() error {
				outPath := filepath.Join(outDir, base+".xlsx")
				tracker, err := comp.ExportExcel(snap, outPath)
				if tracker != nil {
					trackers = append(trackers, tracker)
				}
				if err != nil {
					return err
				}
				job.addFile(outPath)
				return nil
			},
		})
	}
	if job.Format == FormatPDF || job.Format == FormatAll {
		steps = append(steps, struct {
			name string
			fn   func() error
		}{
			name: "rendering pdf",
			fn: func() error {
				outPath := filepath.Join(outDir, base+".pdf")
				tracker, err := comp.ExportPDF(snap, outPath)
				if tracker != nil {
					trackers = append(trackers, tracker)
				}
				if err != nil {
					return err
				}
				job.addFile(outPath)
				return nil
			},
		})
	}
	if job.Format == FormatAll {
		steps = append(steps, struct {
			name string
			fn   func() error
		}{
			name: "bundling archive",
			fn: func() error {
				zipPath := filepath.Join(outDir, base+".zip")
				if err := bundle(zipPath, job.outputs()); err != nil {
					return err
				}
				job.addFile(zipPath)
				return nil
			},
		})
	}

	for _, step := range steps {
		select {
		case <-ctx.Done():
			job.fail(fmt.Errorf("export timed out during %s", step.name))
			m.finish(job)
			return
		default:
			if err := step.fn(); err != nil {
				m.logger.Error("export step failed",
					zap.String("job", job.ID),
					zap.String("step", step.name),
					zap.Error(err))
				job.fail(fmt.Errorf("failed during %s: %w", step.name, err))
				m.finish(job)
				return
			}
		}
	}

	job.complete()
	m.finish(job)
	m.logger.Info("export job completed",
		zap.String("job", job.ID),
		zap.String("project", job.ProjectID),
		zap.String("format", job.Format),
		zap.Int("files", len(job.outputs())))
}

func (m *Manager) finish(job *Job) {
	m.mu.Lock()
	delete(m.active, job.ID)
	m.mu.Unlock()
	m.finished.Set(job.ID, job, cache.DefaultExpiration)
}
