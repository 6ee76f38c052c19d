package exporter

import (
	"path/filepath"
	"sync"
	"time"
)

type JobState string

const (
	StatePending   JobState = "pending"
	StateRendering JobState = "rendering"
	StateCompleted JobState = "completed"
	StateError     JobState = "error"
)

// Output formats accepted by Start.
const (
	FormatExcel = "excel"
	FormatPDF   = "pdf"
	FormatAll   = "all"
)

// Job tracks one asynchronous export through its lifecycle.
type Job struct {
	mu        sync.RWMutex
	ID        string
	ProjectID string
	Format    string
	state     JobState
	files     []string
	errMsg    string
	startTime time.Time
	endTime   time.Time
}

// JobStatus is the wire representation of a job.
type JobStatus struct {
	ID         string     `json:"id"`
	ProjectID  string     `json:"project_id"`
	Format     string     `json:"format"`
	State      JobState   `json:"state"`
	Files      []string   `json:"files,omitempty"`
	Error      string     `json:"error,omitempty"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}

func (j *Job) setState(state JobState) {
	j.mu.Lock()
	j.state = state
	j.mu.Unlock()
}

func (j *Job) addFile(path string) {
	j.mu.Lock()
	j.files = append(j.files, path)
	j.mu.Unlock()
}

func (j *Job) fail(err error) {
	j.mu.Lock()
	j.state = StateError
	j.errMsg = err.Error()
	j.endTime = time.Now()
	j.mu.Unlock()
}

func (j *Job) complete() {
	j.mu.Lock()
	j.state = StateCompleted
	j.endTime = time.Now()
	j.mu.Unlock()
}

// State returns the current lifecycle state.
func (j *Job) State() JobState {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.state
}

// Done reports whether the job has reached a terminal state.
func (j *Job) Done() bool {
	state := j.State()
	return state == StateCompleted || state == StateError
}

func (j *Job) outputs() []string {
	j.mu.RLock()
	defer j.mu.RUnlock()
	out := make([]string, len(j.files))
	copy(out, j.files)
	return out
}

// Snapshot returns a copy of the job safe for serialization. File
// paths are reduced to base names for use in download URLs.
func (j *Job) Snapshot() JobStatus {
	j.mu.RLock()
	defer j.mu.RUnlock()

	status := JobStatus{
		ID:        j.ID,
		ProjectID: j.ProjectID,
		Format:    j.Format,
		State:     j.state,
		Error:     j.errMsg,
		StartedAt: j.startTime,
	}
	for _, f := range j.files {
		status.Files = append(status.Files, filepath.Base(f))
	}
	if !j.endTime.IsZero() {
		end := j.endTime
		status.FinishedAt = &end
	}
	return status
}
