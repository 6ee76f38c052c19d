package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/russross/blackfriday/v2"
	"go.uber.org/zap"

	"github.com/opd-ai/repairdoc/report"
	"github.com/opd-ai/repairdoc/reportcompiler"
	"github.com/opd-ai/repairdoc/srv/exporter"
)

var errItemNotFound = errors.New("item not found")

type titleRequest struct {
	Title string `json:"title"`
}

type descriptionRequest struct {
	Description string `json:"description"`
}

type moveRequest struct {
	Direction string `json:"direction"`
}

type assignRequest struct {
	Files    []string       `json:"files"`
	Strategy string         `json:"strategy"`
	Target   int            `json:"target"`
	Mapping  map[string]int `json:"mapping"`
}

type exportRequest struct {
	Format string `json:"format"`
}

type uploadFailure struct {
	Name  string `json:"name"`
	Error string `json:"error"`
}

type uploadResult struct {
	Stored []string        `json:"stored"`
	Failed []uploadFailure `json:"failed,omitempty"`
}

type projectResponse struct {
	ID string `json:"id"`
	*report.Project
}

func respondJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		json.NewEncoder(w).Encode(v)
	}
}

func respondError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, map[string]string{"error": msg})
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": report.Version,
	})
}

func (s *Server) handleCreateProject(w http.ResponseWriter, r *http.Request) {
	var req titleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	title := strings.TrimSpace(req.Title)
	if title == "" {
		title = report.DefaultTitle
	}

	id, p, err := s.store.Create(title)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to create project")
		return
	}
	s.logger.Info("project created", zap.String("project", id), zap.String("title", title))
	respondJSON(w, http.StatusCreated, projectResponse{ID: id, Project: p})
}

func (s *Server) handleListProjects(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, s.store.List())
}

func (s *Server) handleGetProject(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "projectID")
	p, err := s.store.Snapshot(id)
	if err != nil {
		respondError(w, http.StatusNotFound, "project not found")
		return
	}
	respondJSON(w, http.StatusOK, projectResponse{ID: id, Project: p})
}

func (s *Server) handleDeleteProject(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "projectID")
	if err := s.store.Delete(id); err != nil {
		if errors.Is(err, errProjectNotFound) {
			respondError(w, http.StatusNotFound, "project not found")
			return
		}
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSetTitle(w http.ResponseWriter, r *http.Request) {
	var req titleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	title := strings.TrimSpace(req.Title)
	if title == "" {
		respondError(w, http.StatusBadRequest, "title is required")
		return
	}

	id := chi.URLParam(r, "projectID")
	p, err := s.store.Update(id, func(p *report.Project) error {
		p.Title = title
		return nil
	})
	if err != nil {
		respondError(w, http.StatusNotFound, "project not found")
		return
	}
	respondJSON(w, http.StatusOK, projectResponse{ID: id, Project: p})
}

func (s *Server) handleAddItem(w http.ResponseWriter, r *http.Request) {
	var req descriptionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	id := chi.URLParam(r, "projectID")
	var created *report.Item
	_, err := s.store.Update(id, func(p *report.Project) error {
		created = p.AddItem(req.Description).Clone()
		return nil
	})
	if err != nil {
		respondError(w, http.StatusNotFound, "project not found")
		return
	}
	respondJSON(w, http.StatusCreated, created)
}

func itemParam(r *http.Request) (int, error) {
	return strconv.Atoi(chi.URLParam(r, "itemID"))
}

func (s *Server) handleRemoveItem(w http.ResponseWriter, r *http.Request) {
	itemID, err := itemParam(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	id := chi.URLParam(r, "projectID")
	_, err = s.store.Update(id, func(p *report.Project) error {
		if !p.RemoveItemByID(itemID) {
			return errItemNotFound
		}
		return nil
	})
	switch {
	case errors.Is(err, errProjectNotFound):
		respondError(w, http.StatusNotFound, "project not found")
	case errors.Is(err, errItemNotFound):
		respondError(w, http.StatusNotFound, "item not found")
	case err != nil:
		respondError(w, http.StatusInternalServerError, err.Error())
	default:
		w.WriteHeader(http.StatusNoContent)
	}
}

func (s *Server) handleSetDescription(w http.ResponseWriter, r *http.Request) {
	itemID, err := itemParam(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid item id")
		return
	}
	var req descriptionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	id := chi.URLParam(r, "projectID")
	p, err := s.store.Update(id, func(p *report.Project) error {
		idx := p.IndexByID(itemID)
		if idx < 0 {
			return errItemNotFound
		}
		return p.SetDescription(idx, req.Description)
	})
	switch {
	case errors.Is(err, errProjectNotFound):
		respondError(w, http.StatusNotFound, "project not found")
	case errors.Is(err, errItemNotFound):
		respondError(w, http.StatusNotFound, "item not found")
	case err != nil:
		respondError(w, http.StatusInternalServerError, err.Error())
	default:
		respondJSON(w, http.StatusOK, projectResponse{ID: id, Project: p})
	}
}

func (s *Server) handleMoveItem(w http.ResponseWriter, r *http.Request) {
	itemID, err := itemParam(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid item id")
		return
	}
	var req moveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	var offset int
	switch req.Direction {
	case "up":
		offset = -1
	case "down":
		offset = 1
	default:
		respondError(w, http.StatusBadRequest, "direction must be up or down")
		return
	}

	id := chi.URLParam(r, "projectID")
	p, err := s.store.Update(id, func(p *report.Project) error {
		idx := p.IndexByID(itemID)
		if idx < 0 {
			return errItemNotFound
		}
		return p.Move(idx, offset)
	})
	switch {
	case errors.Is(err, errProjectNotFound):
		respondError(w, http.StatusNotFound, "project not found")
	case errors.Is(err, errItemNotFound):
		respondError(w, http.StatusNotFound, "item not found")
	case err != nil:
		respondError(w, http.StatusConflict, err.Error())
	default:
		respondJSON(w, http.StatusOK, projectResponse{ID: id, Project: p})
	}
}

func (s *Server) handleUploadImages(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "projectID")
	if _, err := s.store.Snapshot(id); err != nil {
		respondError(w, http.StatusNotFound, "project not found")
		return
	}

	if err := r.ParseMultipartForm(64 << 20); err != nil {
		respondError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	files := r.MultipartForm.File["images"]
	if len(files) == 0 {
		respondError(w, http.StatusBadRequest, `no files in form field "images"`)
		return
	}

	result := uploadResult{Stored: []string{}}
	for _, fh := range files {
		path, err := s.saveUpload(fh)
		if err != nil {
			result.Failed = append(result.Failed, uploadFailure{Name: fh.Filename, Error: err.Error()})
			continue
		}
		result.Stored = append(result.Stored, path)
	}
	s.logger.Info("images uploaded",
		zap.String("project", id),
		zap.Int("stored", len(result.Stored)),
		zap.Int("failed", len(result.Failed)))
	respondJSON(w, http.StatusOK, result)
}

func (s *Server) saveUpload(fh *multipart.FileHeader) (string, error) {
	src, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open upload: %w", err)
	}
	defer src.Close()

	name := fmt.Sprintf("%s_%s",
		strings.ReplaceAll(uuid.New().String(), "-", ""),
		filepath.Base(fh.Filename))
	dst := filepath.Join(s.uploadsDir, name)

	out, err := os.Create(dst)
	if err != nil {
		return "", fmt.Errorf("failed to store upload: %w", err)
	}
	if _, err := io.Copy(out, src); err != nil {
		out.Close()
		os.Remove(dst)
		return "", fmt.Errorf("failed to store upload: %w", err)
	}
	if err := out.Close(); err != nil {
		os.Remove(dst)
		return "", fmt.Errorf("failed to store upload: %w", err)
	}

	if err := reportcompiler.ValidateImageFile(dst); err != nil {
		os.Remove(dst)
		return "", err
	}
	return dst, nil
}

func (s *Server) handleAssignImages(w http.ResponseWriter, r *http.Request) {
	var req assignRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.Files) == 0 {
		respondError(w, http.StatusBadRequest, "files is required")
		return
	}
	for _, f := range req.Files {
		if !s.insideUploads(f) {
			respondError(w, http.StatusBadRequest, fmt.Sprintf("%s is not an uploaded image", filepath.Base(f)))
			return
		}
	}

	id := chi.URLParam(r, "projectID")

	var assign report.Assignment
	if len(req.Mapping) > 0 {
		assign = report.Assignment(req.Mapping)
	} else {
		snap, err := s.store.Snapshot(id)
		if err != nil {
			respondError(w, http.StatusNotFound, "project not found")
			return
		}
		assign, err = report.BuildAssignment(req.Files, report.Strategy(req.Strategy), len(snap.Items), req.Target)
		if err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	var result *report.BatchResult
	_, err := s.store.Update(id, func(p *report.Project) error {
		result = p.ApplyAssignment(req.Files, assign)
		return nil
	})
	if err != nil {
		respondError(w, http.StatusNotFound, "project not found")
		return
	}
	s.logger.Info("images assigned",
		zap.String("project", id),
		zap.Int("added", result.Added),
		zap.Int("skipped", result.Skipped),
		zap.Int("failed", result.Failed))
	respondJSON(w, http.StatusOK, result)
}

func (s *Server) insideUploads(path string) bool {
	dir, err := filepath.Abs(s.uploadsDir)
	if err != nil {
		return false
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	return filepath.Dir(abs) == dir
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	var req exportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	id := chi.URLParam(r, "projectID")
	snap, err := s.store.Snapshot(id)
	if err != nil {
		respondError(w, http.StatusNotFound, "project not found")
		return
	}

	job, err := s.jobs.Start(id, snap, req.Format)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.logger.Info("export job started",
		zap.String("job", job.ID),
		zap.String("project", id),
		zap.String("format", req.Format))
	respondJSON(w, http.StatusAccepted, job.Snapshot())
}

func (s *Server) handleGetJob(w http.ResponseWriter, r *http.Request) {
	job, ok := s.jobs.Get(chi.URLParam(r, "jobID"))
	if !ok {
		respondError(w, http.StatusNotFound, "job not found")
		return
	}
	respondJSON(w, http.StatusOK, job.Snapshot())
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	job, ok := s.jobs.Get(jobID)
	if !ok {
		respondError(w, http.StatusNotFound, "job not found")
		return
	}

	status := job.Snapshot()
	if status.State != exporter.StateCompleted {
		respondError(w, http.StatusConflict, fmt.Sprintf("job is %s", status.State))
		return
	}
	if len(status.Files) == 0 {
		respondError(w, http.StatusNotFound, "job produced no files")
		return
	}

	// The bundle, when present, is always the last output.
	name := status.Files[len(status.Files)-1]
	path := s.jobs.OutputPath(jobID, name)
	if _, err := os.Stat(path); err != nil {
		respondError(w, http.StatusNotFound, "file not found")
		return
	}

	ext := filepath.Ext(name)
	w.Header().Set("Content-Type", contentType(ext))
	w.Header().Set("Content-Disposition",
		fmt.Sprintf(`attachment; filename=report%s; filename*=UTF-8''%s`, ext, url.PathEscape(name)))
	http.ServeFile(w, r, path)
	s.logger.Info("file downloaded", zap.String("job", jobID), zap.String("file", name))
}

func contentType(ext string) string {
	switch strings.ToLower(ext) {
	case ".xlsx":
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case ".pdf":
		return "application/pdf"
	case ".zip":
		return "application/zip"
	default:
		return "application/octet-stream"
	}
}

const previewPage = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>%s</title>
<style>
body { font-family: "Microsoft YaHei", "PingFang SC", sans-serif; max-width: 48em; margin: 2em auto; padding: 0 1em; }
h1 { text-align: center; }
h2 { border-bottom: 1px solid #ddd; padding-bottom: 0.3em; }
</style>
</head>
<body>
%s
</body>
</html>
`

func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "projectID")
	snap, err := s.store.Snapshot(id)
	if err != nil {
		respondError(w, http.StatusNotFound, "project not found")
		return
	}

	body := blackfriday.Run(reportcompiler.Markdown(snap, time.Now()))
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, previewPage, html.EscapeString(snap.ExportTitle()), body)
}
