package httpapi

import (
	"net/http"

	"github.com/tourvisto/travel-planner-api/internal/app/dashboard"
)

const UsersPageSize = 10

type UserListResponse struct {
	Users []UserDTO `json:"users"`
	Total int       `json:"total"`
	Page  int       `json:"page"`
	Limit int       `json:"limit"`
}

func (s *Server) listUsers(w http.ResponseWriter, r *http.Request) {
	page, err := queryInt(r, "page", 1)
	if err != nil || page < 1 {
		s.badParam(w, r, "page", errOr(err, "must be >= 1"))
		return
	}
	limit, err := queryInt(r, "limit", UsersPageSize)
	if err != nil || limit < 1 || limit > maxPageSize {
		s.badParam(w, r, "limit", errOr(err, "must be between 1 and 50"))
		return
	}
	res, err := s.Users.ListUsers(r.Context(), limit, (page-1)*limit)
	if err != nil {
		writeServiceError(w, r, s.log, err)
		return
	}
	out := make([]UserDTO, 0, len(res.Users))
	for _, u := range res.Users {
		dto := userFromDomain(u.User)
		n := u.ItineraryCount
		dto.ItineraryCount = &n
		out = append(out, dto)
	}
	writeJSON(w, http.StatusOK, UserListResponse{Users: out, Total: res.Total, Page: page, Limit: limit})
}

type DashboardResponse struct {
	dashboard.Overview
}

func (s *Server) getDashboard(w http.ResponseWriter, r *http.Request) {
	if s.Dashboard == nil {
		s.unavailable(w, r, "dashboard")
		return
	}
	ov, err := s.Dashboard.Overview(r.Context())
	if err != nil {
		writeServiceError(w, r, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, DashboardResponse{Overview: ov})
}
