package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Save writes the project to path as indented JSON. The file is written to
// a temporary sibling first and renamed into place so a failed write never
// leaves a truncated project behind.
func (p *Project) Save(path string) error {
	p.Version = Version
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode project: %w", err)
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create project directory: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write project file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to replace project file: %w", err)
	}
	return nil
}

// Load reads a project file written by Save (or by an older tool version)
// and normalizes it: missing collections become empty, the image-row
// invariant is recomputed, and id assignment resumes past the largest id
// seen.
func Load(path string) (*Project, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read project file: %w", err)
	}
	var p Project
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to parse project file: %w", err)
	}
	p.normalize()
	return &p, nil
}

func (p *Project) normalize() {
	if p.Items == nil {
		p.Items = []*Item{}
	}
	for _, it := range p.Items {
		if it.Images == nil {
			it.Images = []string{}
		}
		if it.ID > p.lastID {
			p.lastID = it.ID
		}
	}
	if p.CreatedTime.IsZero() {
		p.CreatedTime = time.Now()
	}
	if p.Version == "" {
		p.Version = Version
	}
	p.recompute()
}
