package mappers

import (
	api "github.com/sitegrader/sitegrader/api/v1alpha1"
	"github.com/sitegrader/sitegrader/internal/pipeline"
)

// SubmissionFromApi builds the pipeline input snapshot from a validated
// assessment form.
func SubmissionFromApi(form *api.AssessmentForm) pipeline.Submission {
	return pipeline.Submission{
		URL:          form.URL,
		BusinessName: form.BusinessName,
		Address:      form.Address,
		City:         form.City,
		State:        form.State,
	}
}
