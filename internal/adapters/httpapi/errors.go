package httpapi

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/oapi-codegen/nullable"
	"go.uber.org/zap"

	"github.com/tourvisto/travel-planner-api/internal/app/reviews"
	"github.com/tourvisto/travel-planner-api/internal/app/saved"
	"github.com/tourvisto/travel-planner-api/internal/app/savedsync"
	"github.com/tourvisto/travel-planner-api/internal/app/trips"
	"github.com/tourvisto/travel-planner-api/internal/app/users"
	"github.com/tourvisto/travel-planner-api/internal/ports/out/identity"
	"github.com/tourvisto/travel-planner-api/internal/ports/out/reviewrepo"
	"github.com/tourvisto/travel-planner-api/internal/ports/out/savedrepo"
	"github.com/tourvisto/travel-planner-api/internal/ports/out/triprepo"
)

// ErrorBody is the payload of every error response.
type ErrorBody struct {
	Code      string                            `json:"code"`
	Message   string                            `json:"message"`
	Details   nullable.Nullable[map[string]any] `json:"details,omitempty"`
	RequestID nullable.Nullable[string]         `json:"requestId,omitempty"`
}

type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

func writeError(w http.ResponseWriter, r *http.Request, status int, code string, message string, details map[string]any) {
	var er ErrorResponse
	er.Error.Code = code
	er.Error.Message = message
	if details != nil {
		er.Error.Details = nullable.NewNullableWithValue(details)
	}
	if rid := middleware.GetReqID(r.Context()); rid != "" {
		er.Error.RequestID = nullable.NewNullableWithValue(rid)
	}
	writeJSON(w, status, er)
}

// writeServiceError maps application and store errors to HTTP responses.
// Unrecognized errors are logged and reported as 500.
func writeServiceError(w http.ResponseWriter, r *http.Request, log *zap.SugaredLogger, err error) {
	var (
		ue *users.Error
		te *trips.Error
		re *reviews.Error
		n  *savedsync.Notice
	)
	switch {
	case errors.As(err, &ue):
		writeError(w, r, ue.Status, ue.Code, ue.Message, ue.Details)
	case errors.As(err, &te):
		writeError(w, r, te.Status, te.Code, te.Message, te.Details)
	case errors.As(err, &re):
		writeError(w, r, re.Status, re.Code, re.Message, re.Details)
	case errors.As(err, &n):
		writeError(w, r, http.StatusBadGateway, "SAVE_TOGGLE_FAILED", n.Message, nil)
	case errors.Is(err, savedsync.ErrLoginRequired):
		writeError(w, r, http.StatusUnauthorized, "LOGIN_REQUIRED", savedsync.LoginRequiredMessage, nil)
	case errors.Is(err, identity.ErrUnauthenticated):
		writeError(w, r, http.StatusUnauthorized, "USER_NOT_PROVISIONED", "No user profile exists for the authenticated subject.", nil)
	case errors.Is(err, saved.ErrCollectionNotConfigured):
		writeError(w, r, http.StatusServiceUnavailable, "SAVED_TRIPS_NOT_CONFIGURED", "Saved trips are not available.", nil)
	case errors.Is(err, saved.ErrPermissionDenied):
		writeError(w, r, http.StatusForbidden, "FORBIDDEN", "You cannot modify this saved trip.", nil)
	case errors.Is(err, savedrepo.ErrNotFound), errors.Is(err, triprepo.ErrNotFound), errors.Is(err, reviewrepo.ErrNotFound):
		writeError(w, r, http.StatusNotFound, "NOT_FOUND", "resource not found", nil)
	default:
		log.Errorw("unhandled error", "method", r.Method, "path", r.URL.Path, "error", err)
		writeError(w, r, http.StatusInternalServerError, "INTERNAL", "internal error", nil)
	}
}
