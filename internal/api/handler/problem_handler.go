package handler

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"normal_oj/internal/api/middleware"
	"normal_oj/internal/app/service"
	"normal_oj/internal/common"
)

// maxTestCaseArchiveBytes caps a test-case upload.
const maxTestCaseArchiveBytes = 64 << 20

type ProblemHandler struct {
	problemService *service.ProblemService
}

func NewProblemHandler(problemService *service.ProblemService) *ProblemHandler {
	return &ProblemHandler{problemService: problemService}
}

// RegisterPublicRoutes mounts the read side; anonymous viewers only see
// problems whose visibility allows it.
func (h *ProblemHandler) RegisterPublicRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Get("/{id}", h.get)
}

func (h *ProblemHandler) RegisterProtectedRoutes(r chi.Router) {
	r.Post("/", h.create)
	r.Put("/{id}/test-case", h.uploadTestCase)
}

// intQuery reads an integer query parameter, falling back when absent or
// malformed.
func intQuery(r *http.Request, key string, fallback int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return n
}

func (h *ProblemHandler) create(w http.ResponseWriter, r *http.Request) {
	owner, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "authentication required")
		return
	}
	var req service.CreateProblemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "invalid request payload")
		return
	}
	problem, err := h.problemService.Create(r.Context(), owner, req)
	if err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusCreated, problem)
}

func (h *ProblemHandler) list(w http.ResponseWriter, r *http.Request) {
	viewer, _ := middleware.GetUserFromContext(r.Context())
	req := service.ListProblemsRequest{
		Offset: intQuery(r, "offset", 0),
		Count:  intQuery(r, "count", 10),
	}
	if name := r.URL.Query().Get("name"); name != "" {
		req.Name = &name
	}
	problems, err := h.problemService.List(r.Context(), viewer, req)
	if err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, problems)
}

func (h *ProblemHandler) get(w http.ResponseWriter, r *http.Request) {
	viewer, _ := middleware.GetUserFromContext(r.Context())
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "invalid problem id")
		return
	}
	problem, err := h.problemService.Get(r.Context(), viewer, id)
	if err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, problem)
}

func (h *ProblemHandler) uploadTestCase(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "authentication required")
		return
	}
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "invalid problem id")
		return
	}
	archive, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxTestCaseArchiveBytes))
	if err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "failed to read archive body")
		return
	}
	problem, err := h.problemService.UploadTestCase(r.Context(), actor, id, archive)
	if err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, problem)
}
