package validator

import "github.com/go-playground/validator/v10"

func registerFn(tag string, fn func(fl validator.FieldLevel) bool) func(v *validator.Validate) {
	return func(v *validator.Validate) {
		_ = v.RegisterValidation(tag, fn)
	}
}

func NewAssessmentValidationRules() []ValidationRule {
	return []ValidationRule{
		{
			Rule: registerFn("website_url", websiteURLValidator),
		},
		{
			Rule: registerFn("us_state", stateValidator),
		},
		{
			Rule: registerFn("business_name", businessNameValidator),
		},
	}
}
