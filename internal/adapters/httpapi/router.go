package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/tourvisto/travel-planner-api/internal/platform/logging"
)

type RouterOptions struct {
	Auth Authenticator
	Log  *zap.SugaredLogger
}

// NewRouter constructs the API HTTP router.
func NewRouter(s *Server, opts RouterOptions) http.Handler {
	log := logging.OrNop(opts.Log)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger(log))
	r.Use(Recoverer(log))

	// Out of the public API; used for infra checks.
	r.Get("/healthz", s.healthz)

	r.Group(func(r chi.Router) {
		r.Use(OptionalAuth(opts.Auth))
		r.Get("/trips", s.listTrips)
		r.Get("/trips/{tripId}", s.getTrip)
		r.Get("/trips/{tripId}/reviews", s.listReviews)
	})

	r.Group(func(r chi.Router) {
		r.Use(RequireAuth(opts.Auth))

		r.Post("/users/me", s.provisionMe)
		r.Get("/users/me", s.getMe)
		r.Patch("/users/me", s.updateMe)

		r.Post("/trips", s.createTrip)
		r.Post("/trips/{tripId}/reviews", s.addReview)
		r.Delete("/trips/{tripId}/reviews/{reviewId}", s.deleteReview)

		r.Route("/me", func(r chi.Router) {
			r.Get("/saved-trips", s.getSavedView)
			r.Delete("/saved-trips", s.unmountSavedView)
			r.Post("/saved-trips/carousel", s.updateCarousel)
			r.Post("/saved-trips/{tripId}/toggle", s.toggleSaved)

			r.Get("/saved-links", s.listSavedLinks)
			r.Get("/saved-links/{tripId}", s.getSavedLink)
			r.Delete("/saved-links/{savedId}", s.deleteSavedLink)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(s.requireAdmin)
			r.Get("/trips", s.listTrips)
			r.Delete("/trips/{tripId}", s.deleteTrip)
			r.Get("/users", s.listUsers)
			r.Get("/dashboard", s.getDashboard)
		})
	})
	return r
}
