package http

import (
	"context"
	"errors"
	"net/http"

	"spendlens/internal/auth"
	"spendlens/internal/log"
)

type ownerKey struct{}

// OwnerFromContext returns the authenticated username.
func OwnerFromContext(ctx context.Context) (string, bool) {
	owner, ok := ctx.Value(ownerKey{}).(string)
	return owner, ok && owner != ""
}

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// requireAuth rejects requests without a valid bearer token and stores the
// token subject as the request owner.
func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r)
		if !ok {
			UnauthorizedError("missing bearer token").Write(w)
			return
		}
		owner, err := s.deps.Auth.Parse(token)
		if err != nil {
			log.FromContext(r.Context()).WithComponent(log.ComponentAuth).
				DebugContext(r.Context(), "Rejected token", log.FieldError, err)
			UnauthorizedError("invalid or expired token").Write(w)
			return
		}

		ctx := context.WithValue(r.Context(), ownerKey{}, owner)
		logger := log.FromContext(ctx).With(log.FieldOwner, owner)
		ctx = log.NewContext(ctx, logger)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	var in credentials
	if err := decodeJSON(w, r, &in); err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}

	user, err := s.deps.Auth.Signup(r.Context(), sanitizeInput(in.Username), in.Password)
	if err != nil {
		var verr *auth.ValidationError
		switch {
		case errors.As(err, &verr):
			BadRequestError(verr.Error()).Write(w)
		case errors.Is(err, auth.ErrUserExists):
			ErrorResponse(http.StatusConflict, "username already taken").Write(w)
		default:
			s.internalError(w, r, "signup failed", err, log.OpSignup)
		}
		return
	}

	NewResponse().Status(http.StatusCreated).JSON(map[string]string{"username": user.Username}).Write(w)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var in credentials
	if err := decodeJSON(w, r, &in); err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}

	token, err := s.deps.Auth.Login(r.Context(), sanitizeInput(in.Username), in.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			UnauthorizedError("invalid username or password").Write(w)
			return
		}
		s.internalError(w, r, "login failed", err, log.OpLogin)
		return
	}

	NewResponse().JSON(map[string]string{"token": token}).Write(w)
}

// internalError logs err with the request logger and answers 500 without details.
func (s *Server) internalError(w http.ResponseWriter, r *http.Request, msg string, err error, op string) {
	log.NewStructuredLogger(log.FromContext(r.Context())).
		LogError(r.Context(), msg, err, log.ComponentHTTP, op, nil)
	InternalServerError("internal server error").Write(w)
}
