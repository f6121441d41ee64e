package httpapi

import (
	"context"
	"errors"
	"net/http"

	"github.com/tourvisto/travel-planner-api/internal/app/savedsync"
	"github.com/tourvisto/travel-planner-api/internal/domain"
)

// mountedView returns the caller's loaded view, mounting it on first use.
// A view loaded for a different user (or before the caller provisioned a
// profile) is replaced.
func (s *Server) mountedView(w http.ResponseWriter, r *http.Request) (*savedsync.Controller, bool) {
	if s.Views == nil {
		s.unavailable(w, r, "saved trips")
		return nil, false
	}
	me, ok := s.currentUser(w, r)
	if !ok {
		return nil, false
	}
	// The view outlives the request; a client disconnect must not leave it
	// half loaded.
	ctx := context.WithoutCancel(r.Context())
	c := s.Views.Mount(me.Subject)
	c.Load(ctx)
	if c.Snapshot().UserID != me.ID {
		s.Views.Unmount(me.Subject)
		c = s.Views.Mount(me.Subject)
		c.Load(ctx)
	}
	return c, true
}

func (s *Server) getSavedView(w http.ResponseWriter, r *http.Request) {
	c, ok := s.mountedView(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, savedViewFromSnapshot(c.Snapshot()))
}

func (s *Server) unmountSavedView(w http.ResponseWriter, r *http.Request) {
	if s.Views != nil {
		sub, _ := SubjectFromContext(r.Context())
		s.Views.Unmount(sub)
	}
	w.WriteHeader(http.StatusNoContent)
}

type ToggleResponse struct {
	Saved   bool         `json:"saved"`
	SavedID string       `json:"savedId,omitempty"`
	View    SavedViewDTO `json:"view"`
}

func (s *Server) toggleSaved(w http.ResponseWriter, r *http.Request) {
	tripID, err := pathParam(r, "tripId")
	if err != nil {
		s.badParam(w, r, "tripId", err)
		return
	}
	c, ok := s.mountedView(w, r)
	if !ok {
		return
	}
	res, err := c.Toggle(r.Context(), domain.TripID(tripID))
	if err != nil {
		writeServiceError(w, r, s.log, err)
		return
	}
	if res.InFlight {
		writeError(w, r, http.StatusConflict, "TOGGLE_IN_FLIGHT", "a save or unsave for this trip is already in progress", map[string]any{"tripId": tripID})
		return
	}
	writeJSON(w, http.StatusOK, ToggleResponse{
		Saved:   res.Saved,
		SavedID: string(res.SavedID),
		View:    savedViewFromSnapshot(c.Snapshot()),
	})
}

// CarouselRequest reports measured geometry, requests one arrow step, or both.
// Geometry is applied first.
type CarouselRequest struct {
	Geometry *savedsync.Geometry `json:"geometry,omitempty"`
	// Scroll is "next" or "prev".
	Scroll string `json:"scroll,omitempty"`
}

func (s *Server) updateCarousel(w http.ResponseWriter, r *http.Request) {
	var body CarouselRequest
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, r, http.StatusUnprocessableEntity, "VALIDATION_ERROR", err.Error(), nil)
		return
	}
	dir := 0
	switch body.Scroll {
	case "":
	case "next":
		dir = 1
	case "prev":
		dir = -1
	default:
		s.badParam(w, r, "scroll", errors.New(`must be "next" or "prev"`))
		return
	}
	if g := body.Geometry; g != nil && (g.ScrollWidth < 0 || g.ClientWidth < 0 || g.ScrollLeft < 0) {
		s.badParam(w, r, "geometry", errors.New("values must be non-negative"))
		return
	}

	c, ok := s.mountedView(w, r)
	if !ok {
		return
	}
	if body.Geometry != nil {
		c.ReportGeometry(*body.Geometry)
	}
	if dir != 0 {
		c.Scroll(dir)
	}
	snap := c.Snapshot()
	writeJSON(w, http.StatusOK, CarouselDTO{Geometry: snap.Geometry, LeftArrow: snap.LeftArrow, RightArrow: snap.RightArrow})
}

type SavedLinksResponse struct {
	Links []SavedLinkDTO `json:"links"`
	Total int            `json:"total"`
}

func (s *Server) listSavedLinks(w http.ResponseWriter, r *http.Request) {
	me, ok := s.currentUser(w, r)
	if !ok {
		return
	}
	limit, err := queryInt(r, "limit", 0)
	if err != nil || limit < 0 {
		s.badParam(w, r, "limit", errOr(err, "must be >= 0"))
		return
	}
	offset, err := queryInt(r, "offset", 0)
	if err != nil || offset < 0 {
		s.badParam(w, r, "offset", errOr(err, "must be >= 0"))
		return
	}

	page, err := s.Saved.GetSavedTripsByUser(r.Context(), me.ID, limit, offset)
	if err != nil {
		writeServiceError(w, r, s.log, err)
		return
	}
	out := make([]SavedLinkDTO, 0, len(page.Links))
	for _, l := range page.Links {
		out = append(out, savedLinkFromDomain(l))
	}
	writeJSON(w, http.StatusOK, SavedLinksResponse{Links: out, Total: page.Total})
}

type SavedLinkResponse struct {
	Link SavedLinkDTO `json:"link"`
}

func (s *Server) getSavedLink(w http.ResponseWriter, r *http.Request) {
	tripID, err := pathParam(r, "tripId")
	if err != nil {
		s.badParam(w, r, "tripId", err)
		return
	}
	me, ok := s.currentUser(w, r)
	if !ok {
		return
	}
	l, err := s.Saved.GetSavedByUserAndTrip(r.Context(), me.ID, domain.TripID(tripID))
	if err != nil {
		writeServiceError(w, r, s.log, err)
		return
	}
	if l == nil {
		writeError(w, r, http.StatusNotFound, "SAVED_LINK_NOT_FOUND", "trip is not saved", nil)
		return
	}
	writeJSON(w, http.StatusOK, SavedLinkResponse{Link: savedLinkFromDomain(*l)})
}

// deleteSavedLink removes a link by id. Only the owner holds the delete grant.
// The caller's mounted view is dropped so the next request reloads it.
func (s *Server) deleteSavedLink(w http.ResponseWriter, r *http.Request) {
	id, err := pathParam(r, "savedId")
	if err != nil {
		s.badParam(w, r, "savedId", err)
		return
	}
	me, ok := s.currentUser(w, r)
	if !ok {
		return
	}
	if err := s.Saved.UnsaveByID(r.Context(), me.ID, domain.SavedLinkID(id)); err != nil {
		writeServiceError(w, r, s.log, err)
		return
	}
	if s.Views != nil {
		s.Views.Unmount(me.Subject)
	}
	w.WriteHeader(http.StatusNoContent)
}
