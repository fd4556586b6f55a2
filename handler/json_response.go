package handler

import (
	"encoding/json"
	"net/http"
)

// Envelope is the body shape of every JSON response.
type Envelope struct {
	Success    bool        `json:"success"`
	Message    string      `json:"message,omitempty"`
	Data       any         `json:"data,omitempty"`
	Pagination *Pagination `json:"pagination,omitempty"`
	Error      string      `json:"error,omitempty"`
}

// Pagination describes an offset page. Total is the number of pages and
// Count the number of items across all pages.
type Pagination struct {
	Current int   `json:"current"`
	Total   int   `json:"total"`
	Count   int64 `json:"count"`
	HasNext bool  `json:"hasNext"`
	HasPrev bool  `json:"hasPrev"`
}

// NewPagination computes page metadata for count items split into pages of
// limit items.
func NewPagination(page, limit int, count int64) *Pagination {
	if limit < 1 {
		limit = 1
	}
	if page < 1 {
		page = 1
	}
	total := int((count + int64(limit) - 1) / int64(limit))
	return &Pagination{
		Current: page,
		Total:   total,
		Count:   count,
		HasNext: page < total,
		HasPrev: page > 1,
	}
}

type jsonResponse struct {
	status int
	body   Envelope
}

func (j jsonResponse) Render(w http.ResponseWriter, _ *http.Request) error {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(j.status)
	return json.NewEncoder(w).Encode(j.body)
}

// JSONOption configures a JSON response.
type JSONOption func(*jsonResponse)

// WithStatus sets the HTTP status. Statuses of 400 and above mark the
// envelope unsuccessful.
func WithStatus(status int) JSONOption {
	return func(r *jsonResponse) { r.status = status }
}

func WithMessage(msg string) JSONOption {
	return func(r *jsonResponse) { r.body.Message = msg }
}

func WithPagination(p *Pagination) JSONOption {
	return func(r *jsonResponse) { r.body.Pagination = p }
}

// WithErrorDetail sets the envelope error field.
func WithErrorDetail(detail string) JSONOption {
	return func(r *jsonResponse) { r.body.Error = detail }
}

// JSON renders data inside a successful envelope unless an option sets an
// error status.
func JSON(data any, opts ...JSONOption) Response {
	r := &jsonResponse{status: http.StatusOK, body: Envelope{Data: data}}
	for _, opt := range opts {
		opt(r)
	}
	r.body.Success = r.status < http.StatusBadRequest
	return r
}

type errorResponse struct {
	err error
}

func (e errorResponse) Render(w http.ResponseWriter, r *http.Request) error {
	defaultErrorHandler(NewContext(w, r), e.err)
	return nil
}

// Error returns a Response that routes err to the configured ErrorHandler.
func Error(err error) Response {
	if err == nil {
		err = ErrInternalServerError
	}
	return errorResponse{err: err}
}
