package httpserver

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httplog/v2"

	"github.com/flameborn/validator/internal/catalog"
	"github.com/flameborn/validator/internal/models"
)

func (s *Server) handleListCourses(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	courses, err := s.catalog.GetCourses(r.Context(), q.Get("language"), models.Difficulty(q.Get("difficulty")))
	if err != nil {
		respondServiceError(httplog.LogEntry(r.Context()), w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"courses": courses})
}

func (s *Server) handleGetCourse(w http.ResponseWriter, r *http.Request) {
	course, err := s.catalog.GetCourse(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondServiceError(httplog.LogEntry(r.Context()), w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"course": course})
}

func (s *Server) handleCreateCourse(w http.ResponseWriter, r *http.Request) {
	logger := httplog.LogEntry(r.Context())
	var req catalog.CourseRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid request body")
		return
	}
	course, err := s.catalog.CreateCourse(r.Context(), req)
	if err != nil {
		respondServiceError(logger, w, err)
		return
	}
	respondJSON(w, http.StatusCreated, map[string]interface{}{"success": true, "course": course})
}
