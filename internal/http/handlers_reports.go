package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"spendlens/internal/amqp"
	"spendlens/internal/log"
	"spendlens/internal/records"
	"spendlens/internal/report"
	"spendlens/internal/services"
)

func (s *Server) handleDownloadReport(w http.ResponseWriter, r *http.Request) {
	owner, _ := OwnerFromContext(r.Context())
	format, err := report.ParseFormat(mux.Vars(r)["format"])
	if err != nil {
		NotFoundError(err.Error()).Write(w)
		return
	}
	opts, err := parseAnalysisOptions(r.URL.Query())
	if err != nil {
		UnprocessableEntityError(err.Error()).Write(w)
		return
	}

	rendered, err := s.deps.Reports.Render(r.Context(), owner, format, opts)
	if err != nil {
		s.writeAnalysisError(w, r, err)
		return
	}
	NewResponse().Attachment(rendered.Filename, rendered.ContentType, rendered.Data).Write(w)
}

func (s *Server) handleQueueReport(w http.ResponseWriter, r *http.Request) {
	owner, _ := OwnerFromContext(r.Context())
	format, err := report.ParseFormat(mux.Vars(r)["format"])
	if err != nil {
		NotFoundError(err.Error()).Write(w)
		return
	}
	opts, err := parseAnalysisOptions(r.URL.Query())
	if err != nil {
		UnprocessableEntityError(err.Error()).Write(w)
		return
	}

	err = s.deps.Reports.Queue(r.Context(), owner, format, opts)
	var optsErr *services.OptionsError
	switch {
	case err == nil:
		NewResponse().Status(http.StatusAccepted).
			JSON(map[string]string{"status": "queued", "format": string(format)}).Write(w)
	case errors.As(err, &optsErr):
		UnprocessableEntityError(optsErr.Error()).Write(w)
	case errors.Is(err, services.ErrQueueUnavailable), errors.Is(err, amqp.ErrCircuitOpen):
		ErrorResponse(http.StatusServiceUnavailable, "report queue unavailable").
			Header("Retry-After", "30").Write(w)
	default:
		s.internalError(w, r, "queue report failed", err, log.OpPublish)
	}
}

func (s *Server) handleListReports(w http.ResponseWriter, r *http.Request) {
	owner, _ := OwnerFromContext(r.Context())
	reps, err := s.deps.Reports.List(r.Context(), owner)
	if err != nil {
		s.internalError(w, r, "list reports failed", err, log.OpList)
		return
	}
	NewResponse().JSON(map[string]any{"reports": nonNil(reps)}).Write(w)
}

func (s *Server) handleDownloadStoredReport(w http.ResponseWriter, r *http.Request) {
	owner, _ := OwnerFromContext(r.Context())
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		BadRequestError("invalid report id").Write(w)
		return
	}

	rendered, err := s.deps.Reports.Download(r.Context(), owner, id)
	if err != nil {
		if errors.Is(err, records.ErrNotFound) {
			NotFoundError("report not found").Write(w)
			return
		}
		s.internalError(w, r, "download report failed", err, log.OpRead)
		return
	}
	NewResponse().Attachment(rendered.Filename, rendered.ContentType, rendered.Data).Write(w)
}
