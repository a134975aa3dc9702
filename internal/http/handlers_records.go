package http

import (
	"errors"
	"net/http"

	"spendlens/internal/analytics"
	"spendlens/internal/core"
	"spendlens/internal/ingest"
	"spendlens/internal/log"
	"spendlens/internal/services"
)

type recordInput struct {
	Date        string `json:"date"`
	Category    string `json:"category"`
	Amount      string `json:"amount"`
	Description string `json:"description"`
}

func (s *Server) handleListRecords(w http.ResponseWriter, r *http.Request) {
	owner, _ := OwnerFromContext(r.Context())
	rs, err := s.deps.Records.List(r.Context(), owner)
	if err != nil {
		s.internalError(w, r, "list records failed", err, log.OpList)
		return
	}
	NewResponse().JSON(map[string]any{"records": nonNil(rs)}).Write(w)
}

func (s *Server) handleCreateRecord(w http.ResponseWriter, r *http.Request) {
	owner, _ := OwnerFromContext(r.Context())

	var in recordInput
	if err := decodeJSON(w, r, &in); err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}

	rec, err := s.deps.Records.Add(r.Context(), owner, core.Record{
		Date:        sanitizeInput(in.Date),
		Category:    sanitizeInput(in.Category),
		Amount:      sanitizeInput(in.Amount),
		Description: sanitizeInput(in.Description),
	})
	if err != nil {
		var verr *services.ValidationError
		if errors.As(err, &verr) {
			UnprocessableEntityError(verr.Error()).Write(w)
			return
		}
		s.internalError(w, r, "create record failed", err, log.OpCreate)
		return
	}
	NewResponse().Status(http.StatusCreated).JSON(rec).Write(w)
}

func (s *Server) handleClearRecords(w http.ResponseWriter, r *http.Request) {
	owner, _ := OwnerFromContext(r.Context())
	n, err := s.deps.Records.Clear(r.Context(), owner)
	if err != nil {
		s.internalError(w, r, "clear records failed", err, log.OpDelete)
		return
	}
	NewResponse().JSON(map[string]int64{"deleted": n}).Write(w)
}

func (s *Server) handleUploadRecords(w http.ResponseWriter, r *http.Request) {
	owner, _ := OwnerFromContext(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, ingest.MaxUploadBytes)
	file, _, err := r.FormFile("file")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			ErrorResponse(http.StatusRequestEntityTooLarge, "upload too large").Write(w)
			return
		}
		BadRequestError("multipart field \"file\" is required").Write(w)
		return
	}
	defer file.Close()

	n, err := s.deps.Records.ImportCSV(r.Context(), owner, file)
	if err != nil {
		var schemaErr *analytics.SchemaError
		if errors.As(err, &schemaErr) {
			UnprocessableEntityError(schemaErr.Error()).Write(w)
			return
		}
		UnprocessableEntityError("could not read CSV", err.Error()).Write(w)
		return
	}
	NewResponse().Status(http.StatusCreated).JSON(map[string]int{"imported": n}).Write(w)
}
