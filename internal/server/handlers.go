package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/tanjoen/forenaide/constants"
	"github.com/tanjoen/forenaide/internal/broker"
	"github.com/tanjoen/forenaide/internal/common"
	"github.com/tanjoen/forenaide/internal/entity"
	"github.com/tanjoen/forenaide/internal/outputs"
	"github.com/tanjoen/forenaide/internal/repository"
	"github.com/tanjoen/forenaide/internal/schema"
	"github.com/tanjoen/forenaide/internal/storage"
)

const maxUploadBytes = 64 << 20 // 64 MB

type handlers struct {
	cfg       Config
	runs      repository.RunRepository
	templates repository.TemplateRepository
	outputs   repository.OutputRepository
	store     storage.ObjectStore
	queue     broker.Queue
	logger    *slog.Logger
}

// ---- strategies

func (h *handlers) listStrategies(w http.ResponseWriter, r *http.Request) {
	type strategyResponse struct {
		ID          constants.StrategyID `json:"id"`
		Description string               `json:"description"`
	}
	resp := make([]strategyResponse, 0, len(constants.Strategies))
	for _, s := range constants.Strategies {
		resp = append(resp, strategyResponse{ID: s.ID, Description: s.Description})
	}
	writeJSON(w, http.StatusOK, resp)
}

// ---- templates

type templateRequest struct {
	Name        string        `json:"name"`
	Description string        `json:"description"`
	Schema      schema.Config `json:"extraction_schema"`
}

func (h *handlers) createTemplate(w http.ResponseWriter, r *http.Request) {
	var req templateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	if err := req.Schema.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	t := &entity.Template{
		ID:          uuid.New(),
		Name:        req.Name,
		Description: req.Description,
		Schema:      req.Schema,
		CreatedAt:   time.Now().UTC(),
	}
	if err := h.templates.Create(r.Context(), t); err != nil {
		h.logger.Error("server.templates.create_failed", "error", err)
		writeError(w, http.StatusInternalServerError, "could not create template")
		return
	}
	writeJSON(w, http.StatusCreated, t)
}

func (h *handlers) listTemplates(w http.ResponseWriter, r *http.Request) {
	ts, err := h.templates.List(r.Context())
	if err != nil {
		h.logger.Error("server.templates.list_failed", "error", err)
		writeError(w, http.StatusInternalServerError, "could not list templates")
		return
	}
	if ts == nil {
		ts = []*entity.Template{}
	}
	writeJSON(w, http.StatusOK, ts)
}

func (h *handlers) getTemplate(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "templateID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid template id")
		return
	}
	t, err := h.templates.Get(r.Context(), id)
	if errors.Is(err, common.ErrNotFound) {
		writeError(w, http.StatusNotFound, "template not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "could not fetch template")
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (h *handlers) deleteTemplate(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "templateID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid template id")
		return
	}
	if err := h.templates.Delete(r.Context(), id); err != nil {
		if errors.Is(err, common.ErrNotFound) {
			writeError(w, http.StatusNotFound, "template not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "could not delete template")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "template deleted"})
}

// ---- pipeline runs

type createRunRequest struct {
	Name        string               `json:"name"`
	Description string               `json:"description"`
	Strategy    constants.StrategyID `json:"strategy"`
	Schema      schema.Config        `json:"extraction_schema"`
	Files       []entity.FileRef     `json:"files"`
}

func (h *handlers) createRun(w http.ResponseWriter, r *http.Request) {
	var req createRunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}

	desc := entity.RunDescriptor{
		RunID:    uuid.New(),
		Strategy: req.Strategy,
		Schema:   req.Schema,
		Files:    req.Files,
	}
	if err := desc.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	run := &entity.Run{
		ID:          desc.RunID,
		Name:        req.Name,
		Description: req.Description,
		Strategy:    req.Strategy,
		Schema:      req.Schema,
		Files:       req.Files,
		Status:      constants.RunStatusNotStarted,
		CreatedAt:   time.Now().UTC(),
	}
	if err := h.runs.Create(r.Context(), run); err != nil {
		h.logger.Error("server.runs.create_failed", "error", err)
		writeError(w, http.StatusInternalServerError, "could not create pipeline run")
		return
	}

	if err := h.queue.Enqueue(r.Context(), desc); err != nil {
		h.logger.Error("server.runs.enqueue_failed", "run_id", desc.RunID, "error", err)
		writeError(w, http.StatusInternalServerError, "could not enqueue pipeline run")
		return
	}

	writeJSON(w, http.StatusCreated, run)
}

func (h *handlers) listRuns(w http.ResponseWriter, r *http.Request) {
	runs, err := h.runs.List(r.Context())
	if err != nil {
		h.logger.Error("server.runs.list_failed", "error", err)
		writeError(w, http.StatusInternalServerError, "could not list pipeline runs")
		return
	}
	if runs == nil {
		runs = []*entity.Run{}
	}
	writeJSON(w, http.StatusOK, runs)
}

func (h *handlers) getRun(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "runID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid run id")
		return
	}
	run, err := h.runs.Get(r.Context(), id)
	if errors.Is(err, common.ErrNotFound) {
		writeError(w, http.StatusNotFound, "pipeline run not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "could not fetch pipeline run")
		return
	}
	writeJSON(w, http.StatusOK, run)
}

// ---- sources

func (h *handlers) uploadSource(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "file field is required")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxUploadBytes))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "could not read upload")
		return
	}

	mimetype := header.Header.Get("Content-Type")
	if constants.ClassifyMimetype(mimetype) == constants.MediaClassUnsupported {
		writeError(w, http.StatusUnsupportedMediaType, fmt.Sprintf("mimetype %q is not supported", mimetype))
		return
	}

	key := fmt.Sprintf("%s_%d", header.Filename, time.Now().Unix())
	path, err := h.store.Upload(r.Context(), h.cfg.SourcesBucket, key, data, mimetype)
	if err != nil {
		h.logger.Error("server.sources.upload_failed", "filename", header.Filename, "error", err)
		writeError(w, http.StatusInternalServerError, "could not store file")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{
		"message":      "file uploaded successfully",
		"filename":     header.Filename,
		"mimetype":     mimetype,
		"storage_path": path,
	})
}

func (h *handlers) deleteSource(w http.ResponseWriter, r *http.Request) {
	path := chi.URLParam(r, "storagePath")
	if path == "" {
		writeError(w, http.StatusBadRequest, "storage path is required")
		return
	}
	if err := h.store.Delete(r.Context(), h.cfg.SourcesBucket, path); err != nil {
		h.logger.Error("server.sources.delete_failed", "storage_path", path, "error", err)
		writeError(w, http.StatusInternalServerError, "could not delete file")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "file deleted"})
}

// ---- outputs

func (h *handlers) downloadJSON(w http.ResponseWriter, r *http.Request) {
	h.serveArtifact(w, r, "output.json", "application/json")
}

func (h *handlers) downloadCSV(w http.ResponseWriter, r *http.Request) {
	h.serveArtifact(w, r, "output.csv", "text/csv")
}

func (h *handlers) serveArtifact(w http.ResponseWriter, r *http.Request, name, contentType string) {
	id, err := uuid.Parse(chi.URLParam(r, "runID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid run id")
		return
	}
	data, err := h.store.Download(r.Context(), h.cfg.OutputsBucket, id.String()+"/"+name)
	if err != nil {
		writeError(w, http.StatusNotFound, "artifact not found")
		return
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", id.String()+"_"+name))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// downloadXLSX renders a workbook on the fly from the stored JSON artifact.
func (h *handlers) downloadXLSX(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "runID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid run id")
		return
	}
	run, err := h.runs.Get(r.Context(), id)
	if errors.Is(err, common.ErrNotFound) {
		writeError(w, http.StatusNotFound, "pipeline run not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "could not fetch pipeline run")
		return
	}

	data, err := h.store.Download(r.Context(), h.cfg.OutputsBucket, id.String()+"/output.json")
	if err != nil {
		writeError(w, http.StatusNotFound, "artifact not found")
		return
	}
	var doc struct {
		Instances []schema.RowInstance `json:"instances"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		writeError(w, http.StatusInternalServerError, "stored artifact is corrupt")
		return
	}

	xlsx, err := outputs.EncodeXLSX(&run.Schema, doc.Instances)
	if err != nil {
		h.logger.Error("server.outputs.xlsx_failed", "run_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "could not render workbook")
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", id.String()+".xlsx"))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(xlsx)
}

// ---- helpers

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
