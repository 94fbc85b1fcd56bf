package v1alpha1

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	api "github.com/sitegrader/sitegrader/api/v1alpha1"
	"github.com/sitegrader/sitegrader/internal/handlers/validator"
	"github.com/sitegrader/sitegrader/internal/service"
)

// ServiceHandler exposes the assessment service over HTTP.
type ServiceHandler struct {
	assessmentSrv *service.AssessmentService
	reportSrv     *service.ReportService
	validator     *validator.Validator
}

func NewServiceHandler(assessmentSrv *service.AssessmentService, reportSrv *service.ReportService) *ServiceHandler {
	v := validator.NewValidator()
	v.Register(validator.NewAssessmentValidationRules()...)

	return &ServiceHandler{
		assessmentSrv: assessmentSrv,
		reportSrv:     reportSrv,
		validator:     v,
	}
}

// Routes mounts every v1alpha1 endpoint on the given router.
func (h *ServiceHandler) Routes(r chi.Router) {
	r.Get("/health", h.Health)

	r.Route("/assessments", func(r chi.Router) {
		r.Post("/", h.CreateAssessment)
		r.Get("/", h.ListAssessments)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.GetAssessment)
			r.Delete("/", h.DeleteAssessment)
			r.Get("/progress", h.GetAssessmentProgress)
			r.Get("/metrics", h.GetAssessmentMetrics)
			r.Get("/report", h.GetAssessmentReport)
		})
	})
}

func (h *ServiceHandler) Health(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func renderError(w http.ResponseWriter, r *http.Request, status int, message string) {
	render.Status(r, status)
	render.JSON(w, r, api.Error{Message: message})
}
