// Package handler adapts typed request handlers to net/http.
//
// A HandlerFunc receives a Context and a request value populated by the
// configured binders, and returns a Response:
//
//	list := handler.HandlerFunc[listRequest](func(ctx handler.Context, req listRequest) handler.Response {
//		records, total, err := svc.List(ctx, req.SessionID, req.Page, req.Limit)
//		if err != nil {
//			return handler.Error(err)
//		}
//		return handler.JSON(records, handler.WithPagination(handler.NewPagination(req.Page, req.Limit, total)))
//	})
//
//	r.Get("/behavior-data", handler.Wrap(list,
//		handler.WithBinders[listRequest](binder.Query()),
//		handler.WithErrorHandler[listRequest](errorHandler),
//	))
//
// Every JSON body shares one envelope:
//
//	{"success": true, "message": "...", "data": ..., "pagination": {...}, "error": "..."}
//
// Errors returned from binders, or wrapped with Error, are passed to the
// ErrorHandler. NewErrorHandler classifies them into HTTP statuses and hides
// internal detail when the request runs in production.
package handler
