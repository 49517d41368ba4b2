package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"normal_oj/internal/app/service"
	"normal_oj/internal/common"
)

type CourseHandler struct {
	courseService *service.CourseService
}

func NewCourseHandler(courseService *service.CourseService) *CourseHandler {
	return &CourseHandler{courseService: courseService}
}

func (h *CourseHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Get("/{name}", h.get)
}

func (h *CourseHandler) list(w http.ResponseWriter, r *http.Request) {
	courses, err := h.courseService.List(r.Context())
	if err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, courses)
}

func (h *CourseHandler) get(w http.ResponseWriter, r *http.Request) {
	course, err := h.courseService.FindByName(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, course)
}
