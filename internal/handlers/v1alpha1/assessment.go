package v1alpha1

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/google/uuid"
	"go.uber.org/zap"

	api "github.com/sitegrader/sitegrader/api/v1alpha1"
	"github.com/sitegrader/sitegrader/internal/service"
	"github.com/sitegrader/sitegrader/internal/service/mappers"
)

// (POST /api/v1alpha1/assessments)
func (h *ServiceHandler) CreateAssessment(w http.ResponseWriter, r *http.Request) {
	logger := zap.S().Named("assessment_handler")

	form := &api.AssessmentForm{}
	if err := render.DecodeJSON(r.Body, form); err != nil {
		renderError(w, r, http.StatusBadRequest, fmt.Sprintf("failed to decode request body: %v", err))
		return
	}

	if err := h.validator.Struct(form); err != nil {
		logger.Warnw("assessment form rejected", "url", form.URL, "error", err)
		renderError(w, r, http.StatusBadRequest, fmt.Sprintf("invalid assessment form: %v", err))
		return
	}

	sub := mappers.SubmissionFromApi(form)

	if form.Async {
		id := h.assessmentSrv.StartAssessment(r.Context(), sub)
		render.Status(r, http.StatusAccepted)
		render.JSON(w, r, map[string]string{"id": id.String()})
		return
	}

	assessment, err := h.assessmentSrv.RunAssessment(r.Context(), sub)
	if err != nil {
		logger.Errorw("failed to run assessment", "url", form.URL, "error", err)
		renderError(w, r, http.StatusInternalServerError, fmt.Sprintf("failed to run assessment: %v", err))
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, mappers.AssessmentToApi(assessment))
}

// (GET /api/v1alpha1/assessments)
func (h *ServiceHandler) ListAssessments(w http.ResponseWriter, r *http.Request) {
	filter := &service.AssessmentFilter{
		Status:  r.URL.Query().Get("status"),
		URLLike: r.URL.Query().Get("url"),
	}
	if limit, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil {
		filter.Limit = limit
	}
	if offset, err := strconv.Atoi(r.URL.Query().Get("offset")); err == nil {
		filter.Offset = offset
	}

	assessments, err := h.assessmentSrv.ListAssessments(r.Context(), filter)
	if err != nil {
		renderError(w, r, http.StatusInternalServerError, fmt.Sprintf("failed to list assessments: %v", err))
		return
	}

	render.JSON(w, r, mappers.AssessmentListToApi(assessments))
}

// (GET /api/v1alpha1/assessments/{id})
func (h *ServiceHandler) GetAssessment(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	assessment, err := h.assessmentSrv.GetAssessment(r.Context(), id)
	if err != nil {
		var notFound *service.ErrResourceNotFound
		if errors.As(err, &notFound) {
			renderError(w, r, http.StatusNotFound, err.Error())
			return
		}
		renderError(w, r, http.StatusInternalServerError, fmt.Sprintf("failed to get assessment: %v", err))
		return
	}

	render.JSON(w, r, mappers.AssessmentToApi(assessment))
}

// (DELETE /api/v1alpha1/assessments/{id})
func (h *ServiceHandler) DeleteAssessment(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	if err := h.assessmentSrv.DeleteAssessment(r.Context(), id); err != nil {
		var notFound *service.ErrResourceNotFound
		if errors.As(err, &notFound) {
			renderError(w, r, http.StatusNotFound, err.Error())
			return
		}
		renderError(w, r, http.StatusInternalServerError, fmt.Sprintf("failed to delete assessment: %v", err))
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// (GET /api/v1alpha1/assessments/{id}/progress)
func (h *ServiceHandler) GetAssessmentProgress(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	progress, err := h.assessmentSrv.Progress(r.Context(), id)
	if err != nil {
		var notFound *service.ErrRunNotFound
		if errors.As(err, &notFound) {
			renderError(w, r, http.StatusNotFound, err.Error())
			return
		}
		renderError(w, r, http.StatusInternalServerError, fmt.Sprintf("failed to get progress: %v", err))
		return
	}

	render.JSON(w, r, mappers.ProgressToApi(progress))
}

// (GET /api/v1alpha1/assessments/{id}/metrics)
func (h *ServiceHandler) GetAssessmentMetrics(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	values, err := h.assessmentSrv.GetMetrics(r.Context(), id)
	if err != nil {
		var notFound *service.ErrResourceNotFound
		var noMetrics *service.ErrMetricsNotFound
		if errors.As(err, &notFound) || errors.As(err, &noMetrics) {
			renderError(w, r, http.StatusNotFound, err.Error())
			return
		}
		renderError(w, r, http.StatusInternalServerError, fmt.Sprintf("failed to get metrics: %v", err))
		return
	}

	render.JSON(w, r, mappers.MetricsToApi(id, values))
}

// (GET /api/v1alpha1/assessments/{id}/report)
func (h *ServiceHandler) GetAssessmentReport(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	format := service.ReportFormat(r.URL.Query().Get("format"))
	if format == "" {
		format = service.ReportFormatCSV
	}

	assessment, err := h.assessmentSrv.GetAssessment(r.Context(), id)
	if err != nil {
		var notFound *service.ErrResourceNotFound
		if errors.As(err, &notFound) {
			renderError(w, r, http.StatusNotFound, err.Error())
			return
		}
		renderError(w, r, http.StatusInternalServerError, fmt.Sprintf("failed to get assessment: %v", err))
		return
	}

	document, contentType, err := h.reportSrv.GenerateReport(assessment, service.ReportOptions{
		Format:              format,
		IncludeStageDetails: true,
	})
	if err != nil {
		renderError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=assessment-%s.%s", id, format))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(document)
}

func parseID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		renderError(w, r, http.StatusBadRequest, fmt.Sprintf("invalid assessment id: %v", err))
		return uuid.UUID{}, false
	}
	return id, true
}
