package httpapi

import (
	"context"
	"net/http"
	"strings"

	"github.com/oapi-codegen/nullable"
	openapi_types "github.com/oapi-codegen/runtime/types"
	"go.uber.org/zap"

	"github.com/tourvisto/travel-planner-api/internal/app/dashboard"
	"github.com/tourvisto/travel-planner-api/internal/app/reviews"
	"github.com/tourvisto/travel-planner-api/internal/app/saved"
	"github.com/tourvisto/travel-planner-api/internal/app/savedsync"
	"github.com/tourvisto/travel-planner-api/internal/app/trips"
	"github.com/tourvisto/travel-planner-api/internal/app/users"
	"github.com/tourvisto/travel-planner-api/internal/domain"
	"github.com/tourvisto/travel-planner-api/internal/platform/logging"
	clockport "github.com/tourvisto/travel-planner-api/internal/ports/out/clock"
	"github.com/tourvisto/travel-planner-api/internal/ports/out/identity"
	"github.com/tourvisto/travel-planner-api/internal/ports/out/idempotency"
)

// Services are the application services the HTTP adapter delegates to.
// Reviews, Dashboard, Idem and Views may be nil; their routes then answer 503.
type Services struct {
	Users     *users.Service
	Trips     *trips.Service
	Saved     *saved.Service
	Reviews   *reviews.Service
	Dashboard *dashboard.Service
	Views     *savedsync.Registry
	Idem      idempotency.Store
}

type Server struct {
	Services

	clk clockport.Clock
	log *zap.SugaredLogger
}

func NewServer(svcs Services, clk clockport.Clock, log *zap.SugaredLogger) *Server {
	return &Server{Services: svcs, clk: clk, log: logging.OrNop(log)}
}

// NewIdentityResolver resolves the provisioned user for the subject the auth
// middleware put in the request context.
func NewIdentityResolver(u *users.Service) identity.Resolver {
	return identity.ResolverFunc(func(ctx context.Context) (domain.User, error) {
		sub, ok := SubjectFromContext(ctx)
		if !ok {
			return domain.User{}, identity.ErrUnauthenticated
		}
		return u.ResolveSubject(ctx, sub)
	})
}

// currentUser returns the caller's provisioned user, writing the error
// response itself when there is none.
func (s *Server) currentUser(w http.ResponseWriter, r *http.Request) (domain.User, bool) {
	sub, ok := SubjectFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "missing subject", nil)
		return domain.User{}, false
	}
	u, err := s.Users.ResolveSubject(r.Context(), sub)
	if err != nil {
		writeServiceError(w, r, s.log, err)
		return domain.User{}, false
	}
	return u, true
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

type ProvisionMeRequest struct {
	Name      *string              `json:"name,omitempty"`
	Email     *openapi_types.Email `json:"email,omitempty"`
	AvatarURL *string              `json:"avatarUrl,omitempty"`
}

type UpdateMeRequest struct {
	Name      nullable.Nullable[string]              `json:"name,omitempty"`
	Email     nullable.Nullable[openapi_types.Email] `json:"email,omitempty"`
	AvatarURL nullable.Nullable[string]              `json:"avatarUrl,omitempty"`
}

type UserResponse struct {
	User UserDTO `json:"user"`
}

// provisionMe creates the caller's profile. Omitted fields fall back to the
// token's profile claims.
func (s *Server) provisionMe(w http.ResponseWriter, r *http.Request) {
	p, _ := PrincipalFromContext(r.Context())
	var body ProvisionMeRequest
	if r.ContentLength != 0 {
		if err := decodeJSON(r, &body); err != nil {
			writeError(w, r, http.StatusUnprocessableEntity, "VALIDATION_ERROR", err.Error(), nil)
			return
		}
	}
	in := users.ProvisionMeInput{Name: p.Name, Email: p.Email}
	if body.Name != nil {
		in.Name = *body.Name
	}
	if body.Email != nil {
		in.Email = string(*body.Email)
	}
	switch {
	case body.AvatarURL != nil:
		in.AvatarURL = body.AvatarURL
	case p.Picture != "":
		pic := p.Picture
		in.AvatarURL = &pic
	}

	u, err := s.Users.ProvisionMe(r.Context(), p.Subject, in)
	if err != nil {
		writeServiceError(w, r, s.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, UserResponse{User: userFromDomain(u)})
}

func (s *Server) getMe(w http.ResponseWriter, r *http.Request) {
	sub, _ := SubjectFromContext(r.Context())
	u, err := s.Users.GetMe(r.Context(), sub)
	if err != nil {
		writeServiceError(w, r, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, UserResponse{User: userFromDomain(u)})
}

func (s *Server) updateMe(w http.ResponseWriter, r *http.Request) {
	sub, _ := SubjectFromContext(r.Context())
	var body UpdateMeRequest
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, r, http.StatusUnprocessableEntity, "VALIDATION_ERROR", err.Error(), nil)
		return
	}
	in := users.UpdateMeInput{
		Name:      optionalString(body.Name),
		Email:     optionalString(emailsToStrings(body.Email)),
		AvatarURL: optionalString(body.AvatarURL),
	}
	u, err := s.Users.UpdateMe(r.Context(), sub, in)
	if err != nil {
		writeServiceError(w, r, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, UserResponse{User: userFromDomain(u)})
}

func optionalString(n nullable.Nullable[string]) users.Optional[string] {
	if !n.IsSpecified() {
		return users.Unspecified[string]()
	}
	if n.IsNull() {
		return users.Null[string]()
	}
	v, err := n.Get()
	if err != nil {
		return users.Unspecified[string]()
	}
	return users.Some(v)
}

func emailsToStrings(n nullable.Nullable[openapi_types.Email]) nullable.Nullable[string] {
	if !n.IsSpecified() {
		return nullable.Nullable[string]{}
	}
	if n.IsNull() {
		return nullable.NewNullNullable[string]()
	}
	v, err := n.Get()
	if err != nil {
		return nullable.Nullable[string]{}
	}
	return nullable.NewNullableWithValue(strings.TrimSpace(string(v)))
}

// requireAdmin rejects callers whose provisioned user is not an admin.
func (s *Server) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, ok := s.currentUser(w, r)
		if !ok {
			return
		}
		if !u.IsAdmin() {
			writeError(w, r, http.StatusForbidden, "FORBIDDEN", "admin role required", nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) unavailable(w http.ResponseWriter, r *http.Request, what string) {
	writeError(w, r, http.StatusServiceUnavailable, "UNAVAILABLE", what+" is not configured", nil)
}

func (s *Server) badParam(w http.ResponseWriter, r *http.Request, name string, err error) {
	writeError(w, r, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "invalid parameter "+name, map[string]any{name: err.Error()})
}
