package binder

import "net/http"

// Query returns a binder filling `query` tagged fields from the URL query.
// Absent parameters leave fields untouched, so callers can preset defaults.
func Query() func(r *http.Request, v any) error {
	return func(r *http.Request, v any) error {
		return bindValues(v, "query", r.URL.Query(), ErrFailedToParseQuery)
	}
}
