package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"spendlens/internal/analytics"
	"spendlens/internal/services"
)

// maxJSONBody caps JSON request bodies.
const maxJSONBody = 64 << 10

// decodeJSON strictly decodes a single JSON object from the request body.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxErr):
			return fmt.Errorf("request body exceeds %d bytes", maxErr.Limit)
		case errors.Is(err, io.EOF):
			return errors.New("request body is empty")
		default:
			return fmt.Errorf("invalid JSON body: %w", err)
		}
	}
	if dec.More() {
		return errors.New("request body must contain a single JSON object")
	}
	return nil
}

// parseAnalysisOptions reads clusters, seed and indexing from the query.
// Range checks are left to the analysis service.
func parseAnalysisOptions(q url.Values) (services.AnalysisOptions, error) {
	var opts services.AnalysisOptions

	if v := strings.TrimSpace(q.Get("clusters")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return opts, &services.OptionsError{Field: "clusters", Reason: "must be an integer"}
		}
		if n == 0 {
			return opts, &services.OptionsError{Field: "clusters", Reason: "must not be zero"}
		}
		opts.Clusters = n
	}
	if v := strings.TrimSpace(q.Get("seed")); v != "" {
		seed, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return opts, &services.OptionsError{Field: "seed", Reason: "must be an integer"}
		}
		opts.Seed = &seed
	}
	if v := strings.TrimSpace(q.Get("indexing")); v != "" {
		opts.Indexing = analytics.Indexing(strings.ToLower(v))
	}
	return opts, nil
}

// sanitizeInput trims whitespace and strips control characters.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != '\t' {
			return -1
		}
		if r == 127 {
			return -1
		}
		return r
	}, s)
}

// bearerToken extracts the token of an "Authorization: Bearer" header.
func bearerToken(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	scheme, token, ok := strings.Cut(h, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
