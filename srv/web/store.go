package web

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/opd-ai/repairdoc/report"
)

var errProjectNotFound = errors.New("project not found")

// ProjectStore keeps projects in memory and mirrors every mutation
// to one JSON file per project in the data directory.
type ProjectStore struct {
	mu       sync.RWMutex
	projects map[string]*report.Project
	dataDir  string
	logger   *zap.Logger
}

// NewProjectStore loads any existing project files from dataDir.
func NewProjectStore(dataDir string, logger *zap.Logger) (*ProjectStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	s := &ProjectStore{
		projects: make(map[string]*report.Project),
		dataDir:  dataDir,
		logger:   logger,
	}

	entries, err := os.ReadDir(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read data directory: %w", err)
	}
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}
		id := strings.TrimSuffix(name, ".json")
		p, err := report.Load(filepath.Join(dataDir, name))
		if err != nil {
			s.logger.Warn("skipping unreadable project file",
				zap.String("file", name), zap.Error(err))
			continue
		}
		s.projects[id] = p
	}
	s.logger.Info("project store ready",
		zap.String("dir", dataDir), zap.Int("projects", len(s.projects)))
	return s, nil
}

// Summary is the list representation of a project.
type Summary struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Items       int       `json:"items"`
	Images      int       `json:"images"`
	CreatedTime time.Time `json:"created_time"`
}

// Create registers a new project and persists it.
func (s *ProjectStore) Create(title string) (string, *report.Project, error) {
	id := uuid.New().String()
	p := report.New(title)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := p.Save(s.path(id)); err != nil {
		return "", nil, err
	}
	s.projects[id] = p
	return id, p.Snapshot(), nil
}

// Snapshot returns a deep copy of a project.
func (s *ProjectStore) Snapshot(id string) (*report.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.projects[id]
	if !ok {
		return nil, errProjectNotFound
	}
	return p.Snapshot(), nil
}

// List returns summaries ordered by creation time.
func (s *ProjectStore) List() []Summary {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Summary, 0, len(s.projects))
	for id, p := range s.projects {
		stats := p.Stats()
		out = append(out, Summary{
			ID:          id,
			Title:       p.Title,
			Items:       stats.Items,
			Images:      stats.Images,
			CreatedTime: p.CreatedTime,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedTime.Equal(out[j].CreatedTime) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedTime.Before(out[j].CreatedTime)
	})
	return out
}

// Update applies fn to a project under the store lock and persists
// the result. When fn returns an error the project is not saved.
func (s *ProjectStore) Update(id string, fn func(p *report.Project) error) (*report.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.projects[id]
	if !ok {
		return nil, errProjectNotFound
	}
	if err := fn(p); err != nil {
		return nil, err
	}
	if err := p.Save(s.path(id)); err != nil {
		return nil, err
	}
	return p.Snapshot(), nil
}

// Delete removes a project and its file.
func (s *ProjectStore) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.projects[id]; !ok {
		return errProjectNotFound
	}
	delete(s.projects, id)
	if err := os.Remove(s.path(id)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove project file: %w", err)
	}
	return nil
}

func (s *ProjectStore) path(id string) string {
	return filepath.Join(s.dataDir, id+".json")
}
