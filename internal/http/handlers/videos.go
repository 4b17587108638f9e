package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"clipcast/internal/domain"
)

type generateRequest struct {
	Prompt          string `json:"prompt"`
	AspectRatio     string `json:"aspect_ratio"`
	DurationSeconds int    `json:"duration_seconds"`
}

type generateResponse struct {
	JobID        string `json:"job_id"`
	OperationRef string `json:"operation_ref"`
}

type checkRequest struct {
	JobID string `json:"job_id"`
	// Clients echo the operation ref they got from generate; the stored ref
	// is authoritative, so it is accepted and ignored.
	OperationRef string `json:"operation_ref"`
}

type checkResponse struct {
	Done    bool   `json:"done"`
	Success *bool  `json:"success,omitempty"`
	URL     string `json:"url,omitempty"`
}

// Generate charges one credit and opens a render job.
func (a *App) Generate(w http.ResponseWriter, r *http.Request) {
	subjectID := a.currentSubject(r)
	if subjectID == "" {
		a.error(w, http.StatusUnauthorized, "auth_invalid", "missing subject context")
		return
	}
	var req generateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "invalid_request", "invalid payload")
		return
	}
	result, err := a.Renderer.Submit(r.Context(), subjectID, req.Prompt, domain.RenderParams{
		AspectRatio:     req.AspectRatio,
		DurationSeconds: req.DurationSeconds,
	})
	if err != nil {
		a.domainError(w, err)
		return
	}
	a.json(w, http.StatusOK, generateResponse{JobID: result.JobID, OperationRef: result.OperationRef})
}

// Check reports one poll observation for a job.
func (a *App) Check(w http.ResponseWriter, r *http.Request) {
	subjectID := a.currentSubject(r)
	if subjectID == "" {
		a.error(w, http.StatusUnauthorized, "auth_invalid", "missing subject context")
		return
	}
	var req checkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.JobID == "" {
		a.error(w, http.StatusBadRequest, "invalid_request", "job_id required")
		return
	}
	result, err := a.Renderer.Poll(r.Context(), subjectID, req.JobID)
	if err != nil {
		a.domainError(w, err)
		return
	}
	resp := checkResponse{Done: result.Done}
	if result.Done {
		success := result.Success
		resp.Success = &success
		resp.URL = result.ArtifactRef
	}
	a.json(w, http.StatusOK, resp)
}

// List returns the caller's most recent jobs.
func (a *App) List(w http.ResponseWriter, r *http.Request) {
	subjectID := a.currentSubject(r)
	if subjectID == "" {
		a.error(w, http.StatusUnauthorized, "auth_invalid", "missing subject context")
		return
	}
	jobs, err := a.Renderer.List(r.Context(), subjectID)
	if err != nil {
		a.domainError(w, err)
		return
	}
	items := make([]map[string]any, 0, len(jobs))
	for _, job := range jobs {
		items = append(items, jobItem(job))
	}
	a.json(w, http.StatusOK, map[string]any{"items": items})
}

func jobItem(job domain.Job) map[string]any {
	item := map[string]any{
		"id":           job.ID,
		"prompt":       job.Prompt,
		"status":       string(job.Status),
		"aspect_ratio": job.Params.AspectRatio,
		"duration":     job.Params.DurationSeconds,
		"created_at":   job.CreatedAt.Format(time.RFC3339),
	}
	if job.ArtifactRef != "" {
		item["url"] = job.ArtifactRef
	}
	if job.FailureDetail != "" {
		item["failure_detail"] = job.FailureDetail
	}
	if job.CompletedAt != nil {
		item["completed_at"] = job.CompletedAt.Format(time.RFC3339)
	}
	return item
}
