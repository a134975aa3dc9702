package http

import (
	"errors"
	"net/http"

	"spendlens/internal/analytics"
	"spendlens/internal/log"
	"spendlens/internal/services"
)

func (s *Server) handleAnalysis(w http.ResponseWriter, r *http.Request) {
	res, ok := s.analyze(w, r)
	if !ok {
		return
	}
	NewResponse().JSON(presentAnalysis(res)).Write(w)
}

func (s *Server) handleInsights(w http.ResponseWriter, r *http.Request) {
	res, ok := s.analyze(w, r)
	if !ok {
		return
	}
	NewResponse().JSON(presentInsights(res)).Write(w)
}

// analyze runs the owner's analysis and writes the error response on failure.
func (s *Server) analyze(w http.ResponseWriter, r *http.Request) (*analytics.Result, bool) {
	owner, _ := OwnerFromContext(r.Context())
	opts, err := parseAnalysisOptions(r.URL.Query())
	if err != nil {
		UnprocessableEntityError(err.Error()).Write(w)
		return nil, false
	}

	res, err := s.deps.Analysis.Analyze(r.Context(), owner, opts)
	if err != nil {
		s.writeAnalysisError(w, r, err)
		return nil, false
	}
	s.appMetrics.analysisServed(res.Status())
	return res, true
}

func (s *Server) writeAnalysisError(w http.ResponseWriter, r *http.Request, err error) {
	var optsErr *services.OptionsError
	var schemaErr *analytics.SchemaError
	switch {
	case errors.As(err, &optsErr):
		UnprocessableEntityError(optsErr.Error()).Write(w)
	case errors.As(err, &schemaErr):
		UnprocessableEntityError(schemaErr.Error()).Write(w)
	default:
		s.internalError(w, r, "analysis failed", err, log.OpAnalyze)
	}
}
