package httpapi

import (
	"net/http"

	"github.com/oapi-codegen/nullable"

	"github.com/tourvisto/travel-planner-api/internal/app/reviews"
	"github.com/tourvisto/travel-planner-api/internal/domain"
)

type ReviewsResponse struct {
	Reviews []ReviewDTO `json:"reviews"`
}

type ReviewResponse struct {
	Review ReviewDTO `json:"review"`
}

type AddReviewRequest struct {
	Text   string                 `json:"text"`
	Rating nullable.Nullable[int] `json:"rating,omitempty"`
}

func (s *Server) listReviews(w http.ResponseWriter, r *http.Request) {
	if s.Reviews == nil {
		s.unavailable(w, r, "reviews")
		return
	}
	tripID, err := pathParam(r, "tripId")
	if err != nil {
		s.badParam(w, r, "tripId", err)
		return
	}
	rs, err := s.Reviews.ListByTrip(r.Context(), domain.TripID(tripID))
	if err != nil {
		writeServiceError(w, r, s.log, err)
		return
	}
	out := make([]ReviewDTO, 0, len(rs))
	for _, rv := range rs {
		out = append(out, reviewFromDomain(rv))
	}
	writeJSON(w, http.StatusOK, ReviewsResponse{Reviews: out})
}

func (s *Server) addReview(w http.ResponseWriter, r *http.Request) {
	if s.Reviews == nil {
		s.unavailable(w, r, "reviews")
		return
	}
	tripID, err := pathParam(r, "tripId")
	if err != nil {
		s.badParam(w, r, "tripId", err)
		return
	}
	me, ok := s.currentUser(w, r)
	if !ok {
		return
	}
	var body AddReviewRequest
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, r, http.StatusUnprocessableEntity, "VALIDATION_ERROR", err.Error(), nil)
		return
	}
	in := reviews.AddReviewInput{Text: body.Text}
	if body.Rating.IsSpecified() && !body.Rating.IsNull() {
		v := body.Rating.MustGet()
		in.Rating = &v
	}
	rv, err := s.Reviews.AddReview(r.Context(), &me, domain.TripID(tripID), in)
	if err != nil {
		writeServiceError(w, r, s.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, ReviewResponse{Review: reviewFromDomain(rv)})
}

func (s *Server) deleteReview(w http.ResponseWriter, r *http.Request) {
	if s.Reviews == nil {
		s.unavailable(w, r, "reviews")
		return
	}
	tripID, err := pathParam(r, "tripId")
	if err != nil {
		s.badParam(w, r, "tripId", err)
		return
	}
	reviewID, err := pathParam(r, "reviewId")
	if err != nil {
		s.badParam(w, r, "reviewId", err)
		return
	}
	me, ok := s.currentUser(w, r)
	if !ok {
		return
	}
	if err := s.Reviews.DeleteReview(r.Context(), &me, domain.TripID(tripID), domain.ReviewID(reviewID)); err != nil {
		writeServiceError(w, r, s.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
