package behavior

import (
	"errors"
	"net/http"

	"github.com/dmitrymomot/behaviortrace/handler"
	"github.com/dmitrymomot/behaviortrace/pkg/clientip"
	"github.com/dmitrymomot/behaviortrace/pkg/fingerprint"
	"github.com/dmitrymomot/behaviortrace/pkg/telemetry"
)

type pageRequest struct {
	Page  int `query:"page"`
	Limit int `query:"limit"`
}

type listRequest struct {
	Page      int    `query:"page"`
	Limit     int    `query:"limit"`
	SessionID string `query:"session_id"`
}

type getRequest struct {
	ID string `path:"id"`
}

type collectResponse struct {
	SessionID string `json:"session_id"`
	RecordID  string `json:"record_id"`
}

// Handlers exposes Service over HTTP.
type Handlers struct {
	svc *Service
}

func NewHandlers(svc *Service) *Handlers {
	return &Handlers{svc: svc}
}

// requestMeta prefers values set by the clientip and fingerprint middleware.
func requestMeta(r *http.Request) RequestMeta {
	ip := clientip.FromContext(r.Context())
	if ip == "" {
		ip = clientip.GetIP(r)
	}
	fp := fingerprint.FromContext(r.Context())
	if fp == "" {
		fp = fingerprint.Generate(r)
	}
	return RequestMeta{IPAddress: ip, UserAgent: r.UserAgent(), Fingerprint: fp}
}

func (h *Handlers) Collect(ctx handler.Context, batch telemetry.Batch) handler.Response {
	rec, err := h.svc.Collect(ctx, batch, requestMeta(ctx.Request()))
	if err != nil {
		return handler.Error(err)
	}
	return handler.JSON(
		collectResponse{SessionID: rec.SessionID, RecordID: rec.ID},
		handler.WithMessage("Behavior data collected successfully"),
	)
}

func (h *Handlers) List(ctx handler.Context, req listRequest) handler.Response {
	page, limit := NormalizePage(req.Page, req.Limit)
	records, total, err := h.svc.List(ctx, req.SessionID, page, limit)
	if err != nil {
		return handler.Error(err)
	}
	return handler.JSON(records, handler.WithPagination(handler.NewPagination(page, limit, total)))
}

func (h *Handlers) Get(ctx handler.Context, req getRequest) handler.Response {
	rec, err := h.svc.Get(ctx, req.ID)
	if errors.Is(err, ErrRecordNotFound) {
		return handler.Error(handler.ErrNotFound.WithMessage("Record not found"))
	}
	if err != nil {
		return handler.Error(err)
	}
	return handler.JSON(rec)
}

func (h *Handlers) Sessions(ctx handler.Context, req pageRequest) handler.Response {
	page, limit := NormalizePage(req.Page, req.Limit)
	sessions, total, err := h.svc.Sessions(ctx, page, limit)
	if err != nil {
		return handler.Error(err)
	}
	return handler.JSON(sessions, handler.WithPagination(handler.NewPagination(page, limit, total)))
}

func (h *Handlers) Stats(ctx handler.Context, _ struct{}) handler.Response {
	stats, err := h.svc.Stats(ctx)
	if err != nil {
		return handler.Error(err)
	}
	return handler.JSON(stats)
}
