package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/dmitrymomot/behaviortrace/pkg/binder"
	"github.com/dmitrymomot/behaviortrace/pkg/environment"
	"github.com/dmitrymomot/behaviortrace/pkg/logger"
	"github.com/dmitrymomot/behaviortrace/pkg/requestid"
	"github.com/dmitrymomot/behaviortrace/pkg/validator"
)

const genericServerMessage = "Internal server error"

// ErrorInfo is the classified form of an error.
type ErrorInfo struct {
	StatusCode int
	Message    string
	LogLevel   slog.Level
}

func isClientError(statusCode int) bool {
	return statusCode >= http.StatusBadRequest && statusCode < http.StatusInternalServerError
}

func determineLogLevel(statusCode int) slog.Level {
	if isClientError(statusCode) {
		return slog.LevelWarn
	}
	return slog.LevelError
}

func formatValidationErrors(errs validator.ValidationErrors) string {
	parts := make([]string, 0, len(errs))
	for _, e := range errs {
		msg := strings.TrimPrefix(e.Message, "field ")
		parts = append(parts, e.Field+" "+msg)
	}
	if len(parts) == 0 {
		return "Validation failed"
	}
	return strings.Join(parts, "; ")
}

// binderHTTPError maps request binding failures onto HTTP errors.
func binderHTTPError(err error) (HTTPError, bool) {
	switch {
	case errors.Is(err, binder.ErrRequestTooLarge):
		return ErrRequestEntityTooLarge.WithMessage("Request body too large"), true
	case errors.Is(err, binder.ErrUnsupportedMediaType), errors.Is(err, binder.ErrMissingContentType):
		return ErrUnsupportedMediaType.WithMessage("Content-Type must be application/json"), true
	case errors.Is(err, binder.ErrFailedToParseJSON),
		errors.Is(err, binder.ErrFailedToParseQuery),
		errors.Is(err, binder.ErrFailedToParsePath):
		return ErrBadRequest.WithMessage("Malformed request"), true
	}
	return HTTPError{}, false
}

func classifyError(err error) ErrorInfo {
	info := ErrorInfo{
		StatusCode: http.StatusInternalServerError,
		Message:    genericServerMessage,
	}

	httpErr, isHTTP := binderHTTPError(err)
	if !isHTTP {
		isHTTP = errors.As(err, &httpErr)
	}

	switch {
	case validator.IsValidationError(err):
		info.StatusCode = http.StatusBadRequest
		info.Message = formatValidationErrors(validator.ExtractValidationErrors(err))
	case isHTTP:
		info.StatusCode = httpErr.Code
		info.Message = httpErr.Message
		if info.Message == "" {
			info.Message = http.StatusText(httpErr.Code)
		}
	}

	info.LogLevel = determineLogLevel(info.StatusCode)
	return info
}

// NewErrorHandler returns an ErrorHandler that logs err at a level matching
// its status and renders the JSON envelope. The raw error text is included
// in the error field unless the request context is in production.
func NewErrorHandler(log *slog.Logger) ErrorHandler {
	log = logger.OrNoop(log)

	return func(ctx Context, err error) {
		r := ctx.Request()
		info := classifyError(err)

		log.LogAttrs(r.Context(), info.LogLevel, "request error",
			logger.RequestID(requestid.FromContext(r.Context())),
			logger.Error(err),
			slog.Int("status_code", info.StatusCode),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			logger.Component("error_handler"),
		)

		opts := []JSONOption{WithStatus(info.StatusCode), WithMessage(info.Message)}
		if !environment.IsProduction(r.Context()) {
			opts = append(opts, WithErrorDetail(err.Error()))
		}
		if renderErr := JSON(nil, opts...).Render(ctx.ResponseWriter(), r); renderErr != nil {
			log.Error("failed to render error response",
				logger.Error(renderErr),
				logger.Component("error_handler"),
			)
		}
	}
}
