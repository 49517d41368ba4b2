package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"normal_oj/internal/api/middleware"
	"normal_oj/internal/app/service"
	"normal_oj/internal/common"
	"normal_oj/internal/domain/model"
)

type SubmissionHandler struct {
	submissionService *service.SubmissionService
}

func NewSubmissionHandler(submissionService *service.SubmissionService) *SubmissionHandler {
	return &SubmissionHandler{submissionService: submissionService}
}

func (h *SubmissionHandler) RegisterRoutes(r chi.Router) {
	r.Post("/", h.create)
	r.Get("/", h.list)
	r.Get("/{id}", h.get)
	r.Put("/{id}/code", h.updateCode)
}

// RegisterResultRoutes mounts the grader-facing result report separately so
// the router can gate it harder than the user surface.
func (h *SubmissionHandler) RegisterResultRoutes(r chi.Router) {
	r.Put("/{id}", h.recordResult)
}

func (h *SubmissionHandler) create(w http.ResponseWriter, r *http.Request) {
	submitter, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "authentication required")
		return
	}
	var req service.CreateSubmissionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "invalid request payload")
		return
	}
	sub, err := h.submissionService.Create(r.Context(), submitter, req)
	if err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusCreated, sub)
}

func (h *SubmissionHandler) list(w http.ResponseWriter, r *http.Request) {
	req := service.ListSubmissionsRequest{
		Offset: intQuery(r, "offset", 0),
		Count:  intQuery(r, "count", -1),
	}
	q := r.URL.Query()
	if raw := q.Get("problem_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			common.RespondWithError(w, http.StatusBadRequest, "invalid problem_id")
			return
		}
		req.ProblemID = &id
	}
	if raw := q.Get("user_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			common.RespondWithError(w, http.StatusBadRequest, "invalid user_id")
			return
		}
		req.UserID = &id
	}
	if raw := q.Get("status"); raw != "" {
		code, err := strconv.Atoi(raw)
		if err != nil {
			common.RespondWithError(w, http.StatusBadRequest, "invalid status")
			return
		}
		status, err := model.SubmissionStatusFromInt(code)
		if err != nil {
			common.RespondWithError(w, http.StatusBadRequest, "invalid status")
			return
		}
		req.Status = &status
	}
	if raw := q.Get("language_type"); raw != "" {
		code, err := strconv.Atoi(raw)
		if err != nil {
			common.RespondWithError(w, http.StatusBadRequest, "invalid language_type")
			return
		}
		lang, err := model.LanguageFromInt(code)
		if err != nil {
			common.RespondWithError(w, http.StatusBadRequest, "invalid language_type")
			return
		}
		req.Language = &lang
	}

	subs, err := h.submissionService.List(r.Context(), req)
	if err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, subs)
}

func (h *SubmissionHandler) get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "invalid submission id")
		return
	}
	sub, err := h.submissionService.Get(r.Context(), id)
	if err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, sub)
}

func (h *SubmissionHandler) updateCode(w http.ResponseWriter, r *http.Request) {
	submitter, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "authentication required")
		return
	}
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "invalid submission id")
		return
	}
	existing, err := h.submissionService.Get(r.Context(), id)
	if err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	if existing.UserID != submitter.ID && submitter.Role != model.RoleAdmin {
		common.RespondWithError(w, http.StatusForbidden, "not your submission")
		return
	}
	var req struct {
		Code string `json:"code"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "invalid request payload")
		return
	}
	sub, err := h.submissionService.UpdateCode(r.Context(), id, req.Code)
	if err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, sub)
}

func (h *SubmissionHandler) recordResult(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "invalid submission id")
		return
	}
	var req service.RecordResultRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "invalid request payload")
		return
	}
	sub, err := h.submissionService.RecordResult(r.Context(), id, req)
	if err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, sub)
}
