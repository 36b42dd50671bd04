package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tanjoen/forenaide/constants"
	"github.com/tanjoen/forenaide/internal/common"
	"github.com/tanjoen/forenaide/internal/entity"
	"github.com/tanjoen/forenaide/internal/schema"
	"github.com/tanjoen/forenaide/internal/storage"
)

// ---- in-memory doubles

type memRunRepo struct {
	mu   sync.Mutex
	runs map[uuid.UUID]*entity.Run
}

func newMemRunRepo() *memRunRepo { return &memRunRepo{runs: map[uuid.UUID]*entity.Run{}} }

func (m *memRunRepo) Create(_ context.Context, run *entity.Run) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs[run.ID] = run
	return nil
}

func (m *memRunRepo) Get(_ context.Context, id uuid.UUID) (*entity.Run, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	run, ok := m.runs[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	return run, nil
}

func (m *memRunRepo) List(context.Context) ([]*entity.Run, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*entity.Run, 0, len(m.runs))
	for _, run := range m.runs {
		out = append(out, run)
	}
	return out, nil
}

func (m *memRunRepo) MarkProcessing(context.Context, uuid.UUID) error { return nil }

func (m *memRunRepo) MarkTerminal(context.Context, uuid.UUID, constants.RunStatus, string) error {
	return nil
}

type memTemplateRepo struct {
	mu        sync.Mutex
	templates map[uuid.UUID]*entity.Template
}

func newMemTemplateRepo() *memTemplateRepo {
	return &memTemplateRepo{templates: map[uuid.UUID]*entity.Template{}}
}

func (m *memTemplateRepo) Create(_ context.Context, t *entity.Template) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.templates[t.ID] = t
	return nil
}

func (m *memTemplateRepo) Get(_ context.Context, id uuid.UUID) (*entity.Template, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.templates[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	return t, nil
}

func (m *memTemplateRepo) List(context.Context) ([]*entity.Template, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*entity.Template, 0, len(m.templates))
	for _, t := range m.templates {
		out = append(out, t)
	}
	return out, nil
}

func (m *memTemplateRepo) Delete(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.templates[id]; !ok {
		return common.ErrNotFound
	}
	delete(m.templates, id)
	return nil
}

type memOutputRepo struct{}

func (memOutputRepo) Append(context.Context, *entity.OutputRecord) error { return nil }
func (memOutputRepo) ListByRun(context.Context, uuid.UUID) ([]*entity.OutputRecord, error) {
	return nil, nil
}

type captureQueue struct {
	mu       sync.Mutex
	enqueued []entity.RunDescriptor
}

func (q *captureQueue) Enqueue(_ context.Context, desc entity.RunDescriptor) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.enqueued = append(q.enqueued, desc)
	return nil
}

func (q *captureQueue) Shutdown(context.Context) {}

type serverFixture struct {
	handler http.Handler
	runs    *memRunRepo
	queue   *captureQueue
	store   *storage.MemoryStore
}

func newServerFixture() *serverFixture {
	runs := newMemRunRepo()
	queue := &captureQueue{}
	store := storage.NewMemoryStore()
	srv := New(Config{Addr: ":0", SourcesBucket: "sources", OutputsBucket: "outputs"},
		runs, newMemTemplateRepo(), memOutputRepo{}, store, queue, slog.Default())
	return &serverFixture{handler: srv.httpServer.Handler, runs: runs, queue: queue, store: store}
}

func (f *serverFixture) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func lineItemSchema() map[string]any {
	return map[string]any{
		"name": "items",
		"fields": []map[string]any{
			{"name": "label", "description": "Item label", "type": map[string]any{"primitive": "string"}},
		},
	}
}

// ---- strategies

func TestListStrategies(t *testing.T) {
	f := newServerFixture()
	rec := f.do(t, http.MethodGet, "/api/strategies", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp []struct {
		ID          string `json:"id"`
		Description string `json:"description"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp, 3)
	assert.Equal(t, "file_image_openai", resp[0].ID)
	assert.NotEmpty(t, resp[0].Description)
}

// ---- templates

func TestTemplateLifecycle(t *testing.T) {
	f := newServerFixture()

	rec := f.do(t, http.MethodPost, "/api/templates", map[string]any{
		"name":              "invoices",
		"description":       "Invoice line items",
		"extraction_schema": lineItemSchema(),
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var created struct {
		ID uuid.UUID `json:"ID"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	require.NotEqual(t, uuid.Nil, created.ID)

	rec = f.do(t, http.MethodGet, "/api/templates/"+created.ID.String(), nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(t, http.MethodGet, "/api/templates", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(t, http.MethodDelete, "/api/templates/"+created.ID.String(), nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(t, http.MethodGet, "/api/templates/"+created.ID.String(), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateTemplateRejectsInvalidSchema(t *testing.T) {
	f := newServerFixture()
	rec := f.do(t, http.MethodPost, "/api/templates", map[string]any{
		"name":              "broken",
		"extraction_schema": map[string]any{"name": "empty"},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// ---- pipeline runs

func TestCreateRunPersistsAndEnqueues(t *testing.T) {
	f := newServerFixture()

	rec := f.do(t, http.MethodPost, "/api/pipelines", map[string]any{
		"name":              "august invoices",
		"strategy":          "file_image_openai",
		"extraction_schema": lineItemSchema(),
		"files": []map[string]any{
			{"filename": "a.pdf", "mimetype": "application/pdf", "storage_path": "a.pdf_123"},
		},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var run entity.Run
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &run))
	assert.Equal(t, constants.RunStatusNotStarted, run.Status)
	assert.Equal(t, "august invoices", run.Name)

	require.Len(t, f.queue.enqueued, 1)
	assert.Equal(t, run.ID, f.queue.enqueued[0].RunID)
	assert.Equal(t, constants.StrategyFileImageOpenAI, f.queue.enqueued[0].Strategy)

	rec = f.do(t, http.MethodGet, "/api/pipelines/"+run.ID.String(), nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCreateRunRejectsEmptyFileList(t *testing.T) {
	f := newServerFixture()
	rec := f.do(t, http.MethodPost, "/api/pipelines", map[string]any{
		"strategy":          "file_image_openai",
		"extraction_schema": lineItemSchema(),
		"files":             []map[string]any{},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, f.queue.enqueued)
}

func TestGetRunNotFound(t *testing.T) {
	f := newServerFixture()
	rec := f.do(t, http.MethodGet, "/api/pipelines/"+uuid.New().String(), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

// ---- sources

func multipartUpload(t *testing.T, filename, mimetype string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	hdr := make(textproto.MIMEHeader)
	hdr.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, filename))
	hdr.Set("Content-Type", mimetype)
	part, err := mw.CreatePart(hdr)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestUploadSourceStoresObject(t *testing.T) {
	f := newServerFixture()
	body, contentType := multipartUpload(t, "scan.pdf", "application/pdf", []byte("%PDF-1.7"))

	req := httptest.NewRequest(http.MethodPost, "/api/sources/upload", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "scan.pdf", resp["filename"])
	assert.NotEmpty(t, resp["storage_path"])

	stored, err := f.store.Download(context.Background(), "sources", resp["storage_path"])
	require.NoError(t, err)
	assert.Equal(t, []byte("%PDF-1.7"), stored)
}

func TestUploadSourceRejectsUnsupportedMimetype(t *testing.T) {
	f := newServerFixture()
	body, contentType := multipartUpload(t, "archive.zip", "application/zip", []byte("PK"))

	req := httptest.NewRequest(http.MethodPost, "/api/sources/upload", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
	assert.Equal(t, 0, f.store.Len())
}

func TestDeleteSourceRemovesObject(t *testing.T) {
	f := newServerFixture()
	_, err := f.store.Upload(context.Background(), "sources", "scan.pdf_123", []byte("%PDF-1.7"), "application/pdf")
	require.NoError(t, err)

	rec := f.do(t, http.MethodDelete, "/api/sources/scan.pdf_123", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 0, f.store.Len())
}

// ---- outputs

func TestDownloadArtifacts(t *testing.T) {
	f := newServerFixture()
	runID := uuid.New()

	jsonDoc := `{"instances":[{"label":"Widget"}]}`
	_, err := f.store.Upload(context.Background(), "outputs", runID.String()+"/output.json",
		[]byte(jsonDoc), "application/json")
	require.NoError(t, err)
	_, err = f.store.Upload(context.Background(), "outputs", runID.String()+"/output.csv",
		[]byte("label\nWidget\n"), "text/csv")
	require.NoError(t, err)

	require.NoError(t, f.runs.Create(context.Background(), &entity.Run{
		ID: runID,
		Schema: schema.Config{
			Fields: []schema.Field{{Name: "label", Type: schema.Scalar(schema.String)}},
		},
		Status: constants.RunStatusCompleted,
	}))

	rec := f.do(t, http.MethodGet, "/api/outputs/"+runID.String()+".json", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, jsonDoc, rec.Body.String())
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "attachment")

	rec = f.do(t, http.MethodGet, "/api/outputs/"+runID.String()+".csv", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "label\nWidget\n", rec.Body.String())

	rec = f.do(t, http.MethodGet, "/api/outputs/"+runID.String()+".xlsx", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []byte{'P', 'K'}, rec.Body.Bytes()[:2])
}

func TestDownloadArtifactMissingRun(t *testing.T) {
	f := newServerFixture()
	rec := f.do(t, http.MethodGet, "/api/outputs/"+uuid.New().String()+".json", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
