package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/tourvisto/travel-planner-api/internal/app/trips"
	"github.com/tourvisto/travel-planner-api/internal/domain"
	"github.com/tourvisto/travel-planner-api/internal/ports/out/idempotency"
	"github.com/tourvisto/travel-planner-api/internal/ports/out/triprepo"
)

const (
	// TripsPageSize is the number of trips per listing page.
	TripsPageSize = 8
	maxPageSize   = 50
)

// listTrips serves one page, newest first. q filters the current page only;
// Total always counts every stored trip.
func (s *Server) listTrips(w http.ResponseWriter, r *http.Request) {
	page, err := queryInt(r, "page", 1)
	if err != nil || page < 1 {
		s.badParam(w, r, "page", errOr(err, "must be >= 1"))
		return
	}
	limit, err := queryInt(r, "limit", TripsPageSize)
	if err != nil || limit < 1 || limit > maxPageSize {
		s.badParam(w, r, "limit", errOr(err, "must be between 1 and 50"))
		return
	}
	q, err := queryString(r, "q")
	if err != nil {
		s.badParam(w, r, "q", err)
		return
	}

	res, err := s.Trips.ListTrips(r.Context(), limit, (page-1)*limit)
	if err != nil {
		writeServiceError(w, r, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, TripListResponse{
		Trips: tripsFromDomain(domain.FilterTrips(res.Trips, q)),
		Total: res.Total,
		Page:  page,
		Limit: limit,
	})
}

type TripResponse struct {
	Trip TripDTO `json:"trip"`
}

func (s *Server) getTrip(w http.ResponseWriter, r *http.Request) {
	id, err := pathParam(r, "tripId")
	if err != nil {
		s.badParam(w, r, "tripId", err)
		return
	}
	t, err := s.Trips.GetTrip(r.Context(), domain.TripID(id))
	if err != nil {
		writeServiceError(w, r, s.log, err)
		return
	}
	if t == nil {
		writeError(w, r, http.StatusNotFound, "TRIP_NOT_FOUND", "trip not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, TripResponse{Trip: tripFromDomain(*t)})
}

func (s *Server) deleteTrip(w http.ResponseWriter, r *http.Request) {
	id, err := pathParam(r, "tripId")
	if err != nil {
		s.badParam(w, r, "tripId", err)
		return
	}
	if err := s.Trips.DeleteTrip(r.Context(), domain.TripID(id)); err != nil {
		if errors.Is(err, triprepo.ErrNotFound) {
			writeError(w, r, http.StatusNotFound, "TRIP_NOT_FOUND", "trip not found", nil)
			return
		}
		writeServiceError(w, r, s.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type CreateTripRequest struct {
	Country      string `json:"country"`
	NumberOfDays int    `json:"numberOfDays"`
	TravelStyle  string `json:"travelStyle"`
	Interests    string `json:"interests"`
	Budget       string `json:"budget"`
	GroupType    string `json:"groupType"`
}

type CreateTripResponse struct {
	ID string `json:"id"`
}

// createTrip generates an itinerary for the caller. With an Idempotency-Key,
// a retry with the same body replays the first 201 and a different body under
// the same key is rejected with 409.
func (s *Server) createTrip(w http.ResponseWriter, r *http.Request) {
	me, ok := s.currentUser(w, r)
	if !ok {
		return
	}
	var body CreateTripRequest
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, r, http.StatusUnprocessableEntity, "VALIDATION_ERROR", err.Error(), nil)
		return
	}

	key := idempotency.Key(strings.TrimSpace(r.Header.Get("Idempotency-Key")))
	var respFP idempotency.Fingerprint
	useIdem := s.Idem != nil && key != ""
	if useIdem {
		bodyHash, err := hashJSON(canonicalCreateTrip(body))
		if err != nil {
			writeServiceError(w, r, s.log, err)
			return
		}
		metaFP := idempotency.Fingerprint{Key: key, Subject: me.Subject, Method: http.MethodPost, Route: "/trips"}
		if meta, ok, err := s.Idem.Get(r.Context(), metaFP); err != nil {
			writeServiceError(w, r, s.log, err)
			return
		} else if ok {
			if string(meta.Body) != bodyHash {
				writeError(w, r, http.StatusConflict, "IDEMPOTENCY_KEY_REUSE", "idempotency key reuse with different payload", nil)
				return
			}
		} else if err := s.Idem.Put(r.Context(), metaFP, idempotency.Record{ContentType: "text/plain", Body: []byte(bodyHash), CreatedAt: s.clk.Now()}); err != nil {
			s.log.Warnw("idempotency meta write failed", "error", err)
		}

		respFP = metaFP
		respFP.BodyHash = bodyHash
		if rec, ok, err := s.Idem.Get(r.Context(), respFP); err != nil {
			writeServiceError(w, r, s.log, err)
			return
		} else if ok && rec.StatusCode == http.StatusCreated && strings.HasPrefix(rec.ContentType, "application/json") {
			var payload CreateTripResponse
			if err := json.Unmarshal(rec.Body, &payload); err == nil {
				s.log.Debugw("replaying create trip", "trip_id", payload.ID)
				writeJSON(w, http.StatusCreated, payload)
				return
			}
		}
	}

	created, err := s.Trips.CreateTrip(r.Context(), me.ID, trips.GenerateTripInput{
		Country:      body.Country,
		NumberOfDays: body.NumberOfDays,
		TravelStyle:  body.TravelStyle,
		Interests:    body.Interests,
		Budget:       body.Budget,
		GroupType:    body.GroupType,
	})
	if err != nil {
		writeServiceError(w, r, s.log, err)
		return
	}
	resp := CreateTripResponse{ID: string(created.ID)}

	if useIdem {
		if b, err := json.Marshal(resp); err == nil {
			if err := s.Idem.Put(r.Context(), respFP, idempotency.Record{
				StatusCode:  http.StatusCreated,
				ContentType: "application/json",
				Body:        b,
				CreatedAt:   s.clk.Now(),
			}); err != nil {
				s.log.Warnw("idempotency record write failed", "trip_id", created.ID, "error", err)
			}
		}
	}
	writeJSON(w, http.StatusCreated, resp)
}

func canonicalCreateTrip(b CreateTripRequest) CreateTripRequest {
	b.Country = strings.TrimSpace(b.Country)
	b.TravelStyle = strings.TrimSpace(b.TravelStyle)
	b.Interests = strings.TrimSpace(b.Interests)
	b.Budget = strings.TrimSpace(b.Budget)
	b.GroupType = strings.TrimSpace(b.GroupType)
	return b
}

func errOr(err error, msg string) error {
	if err != nil {
		return err
	}
	return errors.New(msg)
}
