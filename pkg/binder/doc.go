// Package binder decodes parts of an HTTP request into typed structs.
//
// Binders share one signature, func(*http.Request, any) error, and each
// handles a single source: JSON bodies, query strings or router path
// parameters. Query and path binders read `query:"name"` and `path:"name"`
// struct tags; a tag of "-" skips the field and untagged fields bind by
// their lowercase name.
//
//	type listRequest struct {
//		Page      int    `query:"page"`
//		Limit     int    `query:"limit"`
//		SessionID string `query:"session_id"`
//	}
package binder
