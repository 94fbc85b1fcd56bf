package validator

import (
	"net/url"
	"regexp"

	"github.com/go-playground/validator/v10"
)

var (
	stateRegex        = regexp.MustCompile(`^[A-Za-z]{2}$`)
	businessNameRegex = regexp.MustCompile(`^[^<>]{1,255}$`)
)

// websiteURLValidator accepts absolute http(s) URLs with a host. Anything
// else, scheme-relative or javascript: included, is rejected.
func websiteURLValidator(fl validator.FieldLevel) bool {
	val, ok := fl.Field().Interface().(string)
	if !ok {
		return false
	}

	parsed, err := url.Parse(val)
	if err != nil {
		return false
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return false
	}
	return parsed.Host != ""
}

func stateValidator(fl validator.FieldLevel) bool {
	val, ok := fl.Field().Interface().(string)
	if !ok {
		return false
	}
	if val == "" {
		return true
	}
	return stateRegex.MatchString(val)
}

func businessNameValidator(fl validator.FieldLevel) bool {
	val, ok := fl.Field().Interface().(string)
	if !ok {
		return false
	}
	if val == "" {
		return true
	}
	return businessNameRegex.MatchString(val)
}
