package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/iago/briefcase/internal/repository"
	"github.com/iago/briefcase/internal/service"
)

type createDossierRequest struct {
	URL string `json:"url"`
}

type createDossierResponse struct {
	JobID string `json:"job_id"`
}

type exportResponse struct {
	NotionURL string `json:"notion_url"`
}

func (api *API) CreateDossier(w http.ResponseWriter, r *http.Request) {
	var request createDossierRequest
	if err := decodeJSON(r, &request); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid JSON body")
		return
	}

	job, err := api.jobsService.CreateDossierJob(r.Context(), request.URL)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrMissingURL), errors.Is(err, service.ErrInvalidURL):
			writeError(w, r, http.StatusBadRequest, err.Error())
		case errors.Is(err, service.ErrEnqueue):
			api.logf("enqueue dossier job failed err=%v", err)
			writeError(w, r, http.StatusServiceUnavailable, service.ErrEnqueue.Error())
		default:
			api.logf("create dossier job failed err=%v", err)
			writeError(w, r, http.StatusInternalServerError, "failed to create job")
		}
		return
	}

	api.logf("dossier job created job_id=%s url=%s", job.ID, job.URL)
	writeJSON(w, http.StatusCreated, createDossierResponse{JobID: job.ID})
}

func (api *API) GetDossier(w http.ResponseWriter, r *http.Request) {
	jobID, ok := pathJobID(w, r)
	if !ok {
		return
	}

	snapshot, err := api.jobsService.Snapshot(r.Context(), jobID)
	if err != nil {
		api.writeJobError(w, r, jobID, err)
		return
	}
	writeJSON(w, http.StatusOK, snapshot)
}

func (api *API) ExportDossier(w http.ResponseWriter, r *http.Request) {
	jobID, ok := pathJobID(w, r)
	if !ok {
		return
	}

	notionURL, err := api.jobsService.ExportDossier(r.Context(), jobID)
	if err != nil {
		if errors.Is(err, service.ErrNotComplete) {
			writeError(w, r, http.StatusConflict, err.Error())
			return
		}
		api.writeJobError(w, r, jobID, err)
		return
	}
	api.logf("dossier exported job_id=%s url=%s", jobID, notionURL)
	writeJSON(w, http.StatusOK, exportResponse{NotionURL: notionURL})
}

func pathJobID(w http.ResponseWriter, r *http.Request) (string, bool) {
	jobID := strings.TrimSpace(r.PathValue("job_id"))
	if jobID == "" {
		writeError(w, r, http.StatusBadRequest, "job_id is required")
		return "", false
	}
	return jobID, true
}

func (api *API) writeJobError(w http.ResponseWriter, r *http.Request, jobID string, err error) {
	if errors.Is(err, repository.ErrNotFound) {
		writeError(w, r, http.StatusNotFound, "Job not found")
		return
	}
	api.logf("load dossier job failed job_id=%s err=%v", jobID, err)
	writeError(w, r, http.StatusInternalServerError, "failed to load job")
}

