package web

import (
	"bytes"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"

	"github.com/opd-ai/repairdoc/report"
	"github.com/opd-ai/repairdoc/srv/config"
	"github.com/opd-ai/repairdoc/srv/exporter"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	root := t.TempDir()
	return &config.Config{
		Dirs: config.DirsConfig{
			Data:    filepath.Join(root, "projects"),
			Uploads: filepath.Join(root, "uploads"),
			Outputs: filepath.Join(root, "outputs"),
			Temp:    filepath.Join(root, "temp"),
		},
		Export: config.ExportConfig{
			JobTimeout:   time.Minute,
			DisposeDelay: 10 * time.Millisecond,
			JobTTL:       time.Hour,
		},
	}
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	s, err := NewServer(testConfig(t), nil)
	require.NoError(t, err)
	return s
}

func doJSON(t *testing.T, s *Server, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.NewDecoder(rec.Body).Decode(v))
}

func createProject(t *testing.T, s *Server, title string) string {
	t.Helper()
	rec := doJSON(t, s, http.MethodPost, "/api/projects", map[string]string{"title": title})
	require.Equal(t, http.StatusCreated, rec.Code)
	var resp struct {
		ID string `json:"id"`
	}
	decodeBody(t, rec, &resp)
	require.NotEmpty(t, resp.ID)
	return resp.ID
}

func addItem(t *testing.T, s *Server, projectID, desc string) int {
	t.Helper()
	rec := doJSON(t, s, http.MethodPost, "/api/projects/"+projectID+"/items",
		map[string]string{"description": desc})
	require.Equal(t, http.StatusCreated, rec.Code)
	var item report.Item
	decodeBody(t, rec, &item)
	return item.ID
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.NRGBA{R: uint8(x % 256), G: uint8(y % 256), B: 120, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func uploadFiles(t *testing.T, s *Server, projectID string, files map[string][]byte) uploadResult {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for name, data := range files {
		fw, err := mw.CreateFormFile("images", name)
		require.NoError(t, err)
		_, err = fw.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/projects/"+projectID+"/images", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var result uploadResult
	decodeBody(t, rec, &result)
	return result
}

func getJob(t *testing.T, s *Server, jobID string) exporter.JobStatus {
	t.Helper()
	rec := doJSON(t, s, http.MethodGet, "/api/jobs/"+jobID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var status exporter.JobStatus
	decodeBody(t, rec, &status)
	return status
}

func TestHealthz(t *testing.T) {
	s := newTestServer(t)

	rec := doJSON(t, s, http.MethodGet, "/healthz", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	decodeBody(t, rec, &body)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, report.Version, body["version"])
}

func TestProjectLifecycle(t *testing.T) {
	s := newTestServer(t)

	// Empty title falls back to the default.
	id := createProject(t, s, "")
	rec := doJSON(t, s, http.MethodGet, "/api/projects/"+id, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var got struct {
		ID    string `json:"id"`
		Title string `json:"title"`
	}
	decodeBody(t, rec, &got)
	assert.Equal(t, id, got.ID)
	assert.Equal(t, report.DefaultTitle, got.Title)

	rec = doJSON(t, s, http.MethodGet, "/api/projects", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var list []Summary
	decodeBody(t, rec, &list)
	require.Len(t, list, 1)
	assert.Equal(t, id, list[0].ID)

	rec = doJSON(t, s, http.MethodPut, "/api/projects/"+id+"/title", map[string]string{"title": "三月份水泵检修"})
	require.Equal(t, http.StatusOK, rec.Code)
	decodeBody(t, rec, &got)
	assert.Equal(t, "三月份水泵检修", got.Title)

	rec = doJSON(t, s, http.MethodPut, "/api/projects/"+id+"/title", map[string]string{"title": "   "})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, s, http.MethodDelete, "/api/projects/"+id, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = doJSON(t, s, http.MethodGet, "/api/projects/"+id, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(t, s, http.MethodDelete, "/api/projects/"+id, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestItemEndpoints(t *testing.T) {
	s := newTestServer(t)
	id := createProject(t, s, "传送带检查")

	first := addItem(t, s, id, "清理滚筒积料")
	second := addItem(t, s, id, "更换托辊")
	assert.Equal(t, 1, first)
	assert.Equal(t, 2, second)

	rec := doJSON(t, s, http.MethodPut,
		"/api/projects/"+id+"/items/1/description",
		map[string]string{"description": "清理滚筒积料并检查胶面"})
	require.Equal(t, http.StatusOK, rec.Code)

	var proj struct {
		Items []report.Item `json:"items"`
	}
	decodeBody(t, rec, &proj)
	require.Len(t, proj.Items, 2)
	assert.Equal(t, "清理滚筒积料并检查胶面", proj.Items[0].Description)

	// Swap the two items, then hit the lower boundary.
	rec = doJSON(t, s, http.MethodPost, "/api/projects/"+id+"/items/1/move",
		map[string]string{"direction": "down"})
	require.Equal(t, http.StatusOK, rec.Code)
	decodeBody(t, rec, &proj)
	assert.Equal(t, 2, proj.Items[0].ID)
	assert.Equal(t, 1, proj.Items[1].ID)

	rec = doJSON(t, s, http.MethodPost, "/api/projects/"+id+"/items/1/move",
		map[string]string{"direction": "down"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = doJSON(t, s, http.MethodPost, "/api/projects/"+id+"/items/1/move",
		map[string]string{"direction": "sideways"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, s, http.MethodDelete, "/api/projects/"+id+"/items/2", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = doJSON(t, s, http.MethodDelete, "/api/projects/"+id+"/items/99", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(t, s, http.MethodPut, "/api/projects/"+id+"/items/99/description",
		map[string]string{"description": "x"})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// Malformed JSON body.
	req := httptest.NewRequest(http.MethodPost, "/api/projects/"+id+"/items", strings.NewReader("{"))
	raw := httptest.NewRecorder()
	s.ServeHTTP(raw, req)
	assert.Equal(t, http.StatusBadRequest, raw.Code)
}

func TestUploadAndAssign(t *testing.T) {
	s := newTestServer(t)
	id := createProject(t, s, "空压机保养")
	addItem(t, s, id, "更换空滤")
	addItem(t, s, id, "检查油位")

	result := uploadFiles(t, s, id, map[string][]byte{
		"filter.png": pngBytes(t, 200, 150),
		"gauge.png":  pngBytes(t, 320, 240),
		"notes.txt":  []byte("not an image"),
	})
	require.Len(t, result.Stored, 2)
	require.Len(t, result.Failed, 1)
	assert.Equal(t, "notes.txt", result.Failed[0].Name)

	for _, path := range result.Stored {
		_, err := os.Stat(path)
		require.NoError(t, err)
		// Stored under a unique prefix, original name preserved.
		assert.Contains(t, filepath.Base(path), "_")
	}

	rec := doJSON(t, s, http.MethodPost, "/api/projects/"+id+"/assign", assignRequest{
		Files:    result.Stored,
		Strategy: "round-robin",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	var batch report.BatchResult
	decodeBody(t, rec, &batch)
	assert.Equal(t, 2, batch.Added)
	assert.Equal(t, 0, batch.Skipped)
	assert.Equal(t, 0, batch.Failed)

	var proj struct {
		Items []report.Item `json:"items"`
	}
	rec = doJSON(t, s, http.MethodGet, "/api/projects/"+id, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decodeBody(t, rec, &proj)
	assert.Len(t, proj.Items[0].Images, 1)
	assert.Len(t, proj.Items[1].Images, 1)

	// Re-assigning the same files only produces skips.
	rec = doJSON(t, s, http.MethodPost, "/api/projects/"+id+"/assign", assignRequest{
		Files:    result.Stored,
		Strategy: "round-robin",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	decodeBody(t, rec, &batch)
	assert.Equal(t, 0, batch.Added)
	assert.Equal(t, 2, batch.Skipped)

	// Explicit mapping routes a new file to a chosen item.
	more := uploadFiles(t, s, id, map[string][]byte{"extra.png": pngBytes(t, 100, 100)})
	require.Len(t, more.Stored, 1)
	rec = doJSON(t, s, http.MethodPost, "/api/projects/"+id+"/assign", assignRequest{
		Files:   more.Stored,
		Mapping: map[string]int{more.Stored[0]: 1},
	})
	require.Equal(t, http.StatusOK, rec.Code)
	decodeBody(t, rec, &batch)
	assert.Equal(t, 1, batch.Added)
	assert.Equal(t, map[int]int{1: 1}, batch.PerItem)

	// Guardrails.
	rec = doJSON(t, s, http.MethodPost, "/api/projects/"+id+"/assign", assignRequest{
		Files:    []string{"/etc/passwd"},
		Strategy: "first",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, s, http.MethodPost, "/api/projects/"+id+"/assign", assignRequest{
		Files:    result.Stored,
		Strategy: "scatter",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, s, http.MethodPost, "/api/projects/"+id+"/assign", assignRequest{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUploadToUnknownProject(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest(http.MethodPost, "/api/projects/nope/images", nil)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestExportAndDownload(t *testing.T) {
	s := newTestServer(t)
	id := createProject(t, s, "电机检修")
	addItem(t, s, id, "更换碳刷")

	stored := uploadFiles(t, s, id, map[string][]byte{"brush.png": pngBytes(t, 400, 300)})
	require.Len(t, stored.Stored, 1)
	rec := doJSON(t, s, http.MethodPost, "/api/projects/"+id+"/assign", assignRequest{
		Files:    stored.Stored,
		Strategy: "first",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, s, http.MethodPost, "/api/projects/"+id+"/export",
		map[string]string{"format": "all"})
	require.Equal(t, http.StatusAccepted, rec.Code)
	var started exporter.JobStatus
	decodeBody(t, rec, &started)
	require.NotEmpty(t, started.ID)
	assert.Equal(t, id, started.ProjectID)

	var final exporter.JobStatus
	require.Eventually(t, func() bool {
		final = getJob(t, s, started.ID)
		return final.State == exporter.StateCompleted || final.State == exporter.StateError
	}, 30*time.Second, 50*time.Millisecond)
	require.Equal(t, exporter.StateCompleted, final.State, "error: %s", final.Error)
	require.Len(t, final.Files, 3)

	rec = doJSON(t, s, http.MethodGet, "/api/jobs/"+started.ID+"/download", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/zip", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "attachment; filename=report.zip")
	body := rec.Body.Bytes()
	require.True(t, len(body) > 4)
	assert.Equal(t, "PK", string(body[:2]))

	rec = doJSON(t, s, http.MethodGet, "/api/jobs/no-such-job/download", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(t, s, http.MethodPost, "/api/projects/"+id+"/export",
		map[string]string{"format": "docx"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, s, http.MethodPost, "/api/projects/missing/export",
		map[string]string{"format": "pdf"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func collectText(n *html.Node, sb *strings.Builder) {
	if n.Type == html.TextNode {
		sb.WriteString(n.Data)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectText(c, sb)
	}
}

func headings(n *html.Node, out map[string][]string) {
	if n.Type == html.ElementNode && (n.Data == "h1" || n.Data == "h2") {
		var sb strings.Builder
		collectText(n, &sb)
		out[n.Data] = append(out[n.Data], sb.String())
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		headings(c, out)
	}
}

func TestPreviewHTML(t *testing.T) {
	s := newTestServer(t)
	id := createProject(t, s, "季度安全检查")
	addItem(t, s, id, "更换泄压阀")

	rec := doJSON(t, s, http.MethodGet, "/api/projects/"+id+"/preview", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")

	doc, err := html.Parse(rec.Body)
	require.NoError(t, err)

	found := make(map[string][]string)
	headings(doc, found)
	require.NotEmpty(t, found["h1"])
	assert.Contains(t, found["h1"][len(found["h1"])-1], "季度安全检查")
	require.Len(t, found["h2"], 1)
	assert.Contains(t, found["h2"][0], "更换泄压阀")
}

func TestRateLimit(t *testing.T) {
	cfg := testConfig(t)
	cfg.Rate = config.RateConfig{Requests: 2, Window: time.Minute}
	s, err := NewServer(cfg, nil)
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		rec := doJSON(t, s, http.MethodGet, "/healthz", nil)
		require.Equal(t, http.StatusOK, rec.Code)
	}
	rec := doJSON(t, s, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestProjectsSurviveRestart(t *testing.T) {
	cfg := testConfig(t)
	s1, err := NewServer(cfg, nil)
	require.NoError(t, err)

	id := createProject(t, s1, "年度大修")
	addItem(t, s1, id, "检查锅炉水位计")

	s2, err := NewServer(cfg, nil)
	require.NoError(t, err)

	rec := doJSON(t, s2, http.MethodGet, "/api/projects/"+id, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var proj struct {
		Title string        `json:"title"`
		Items []report.Item `json:"items"`
	}
	decodeBody(t, rec, &proj)
	assert.Equal(t, "年度大修", proj.Title)
	require.Len(t, proj.Items, 1)
}
