package meta

import (
	"errors"
	"net/http"
	"sort"
	"strings"
)

// loginRequiredError asks the caller to sign in first.
type loginRequiredError struct{ url string }

func (e loginRequiredError) Error() string { return LoginToFeedback }

// RedirectURL is where the user should sign in.
func (e loginRequiredError) RedirectURL() string { return e.url }

// IsLoginRequired reports whether err asks for a sign in and returns the
// sign in URL.
func IsLoginRequired(err error) (string, bool) {
	var e loginRequiredError
	if errors.As(err, &e) {
		return e.url, true
	}
	return "", false
}

// validationError lists invalid form fields.
type validationError struct{ fields map[string]string }

func (e validationError) Error() string {
	keys := make([]string, 0, len(e.fields))
	for k := range e.fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.fields[k])
	}
	return "invalid form: " + strings.Join(parts, "; ")
}

func (e validationError) StatusCode() int { return http.StatusBadRequest }

// Fields returns the invalid fields of a validation error.
func Fields(err error) (map[string]string, bool) {
	var e validationError
	if errors.As(err, &e) {
		return e.fields, true
	}
	return nil, false
}

// pageHiddenError hides a page disabled by the site settings.
type pageHiddenError struct{ page string }

func (e pageHiddenError) Error() string   { return e.page + " page is not available" }
func (e pageHiddenError) StatusCode() int { return http.StatusNotFound }

func IsPageHidden(err error) bool {
	var e pageHiddenError
	return errors.As(err, &e)
}
