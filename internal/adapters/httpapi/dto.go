package httpapi

import (
	"sort"
	"time"

	"github.com/oapi-codegen/nullable"

	"github.com/tourvisto/travel-planner-api/internal/app/savedsync"
	"github.com/tourvisto/travel-planner-api/internal/domain"
)

type TripDTO struct {
	ID string `json:"id"`
	domain.TripDetail

	ImageURLs   []string                  `json:"imageUrls"`
	PaymentLink nullable.Nullable[string] `json:"paymentLink"`
	CreatedAt   time.Time                 `json:"createdAt"`
}

type TripListResponse struct {
	Trips []TripDTO `json:"trips"`
	Total int       `json:"total"`
	Page  int       `json:"page"`
	Limit int       `json:"limit"`
}

type UserDTO struct {
	ID        string                    `json:"id"`
	Name      string                    `json:"name"`
	Email     string                    `json:"email"`
	AvatarURL nullable.Nullable[string] `json:"avatarUrl"`
	Role      string                    `json:"role"`
	CreatedAt time.Time                 `json:"createdAt"`

	ItineraryCount *int `json:"itineraryCount,omitempty"`
}

type ReviewDTO struct {
	ID         string                    `json:"id"`
	TripID     string                    `json:"tripId"`
	UserID     string                    `json:"userId"`
	UserName   string                    `json:"userName"`
	UserAvatar nullable.Nullable[string] `json:"userAvatar"`
	Text       string                    `json:"text"`
	Rating     nullable.Nullable[int]    `json:"rating"`
	CreatedAt  time.Time                 `json:"createdAt"`
}

type SavedLinkDTO struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	TripID    string    `json:"tripId"`
	CreatedAt time.Time `json:"createdAt"`
}

type CarouselDTO struct {
	Geometry   savedsync.Geometry `json:"geometry"`
	LeftArrow  bool               `json:"leftArrow"`
	RightArrow bool               `json:"rightArrow"`
}

// SavedViewDTO is the state of a mounted saved-trips view.
type SavedViewDTO struct {
	UserID     string            `json:"userId"`
	SavedMap   map[string]string `json:"savedMap"`
	SavedTrips []TripDTO         `json:"savedTrips"`
	Saving     []string          `json:"saving"`
	Carousel   CarouselDTO       `json:"carousel"`
}

func nullableString(p *string) nullable.Nullable[string] {
	if p == nil {
		return nullable.NewNullNullable[string]()
	}
	return nullable.NewNullableWithValue(*p)
}

func nullableInt(p *int) nullable.Nullable[int] {
	if p == nil {
		return nullable.NewNullNullable[int]()
	}
	return nullable.NewNullableWithValue(*p)
}

func tripFromDomain(t domain.Trip) TripDTO {
	images := t.ImageURLs
	if images == nil {
		images = []string{}
	}
	return TripDTO{
		ID:          string(t.ID),
		TripDetail:  t.TripDetail,
		ImageURLs:   images,
		PaymentLink: nullableString(t.PaymentLink),
		CreatedAt:   t.CreatedAt,
	}
}

func tripsFromDomain(ts []domain.Trip) []TripDTO {
	out := make([]TripDTO, 0, len(ts))
	for _, t := range ts {
		out = append(out, tripFromDomain(t))
	}
	return out
}

func userFromDomain(u domain.User) UserDTO {
	return UserDTO{
		ID:        string(u.ID),
		Name:      u.Name,
		Email:     u.Email,
		AvatarURL: nullableString(u.AvatarURL),
		Role:      string(u.Role),
		CreatedAt: u.CreatedAt,
	}
}

func reviewFromDomain(r domain.Review) ReviewDTO {
	return ReviewDTO{
		ID:         string(r.ID),
		TripID:     string(r.TripID),
		UserID:     string(r.UserID),
		UserName:   r.UserName,
		UserAvatar: nullableString(r.UserAvatar),
		Text:       r.Text,
		Rating:     nullableInt(r.Rating),
		CreatedAt:  r.CreatedAt,
	}
}

func savedLinkFromDomain(l domain.SavedLink) SavedLinkDTO {
	return SavedLinkDTO{ID: string(l.ID), UserID: string(l.UserID), TripID: string(l.TripID), CreatedAt: l.CreatedAt}
}

func savedViewFromSnapshot(s savedsync.Snapshot) SavedViewDTO {
	out := SavedViewDTO{
		UserID:     string(s.UserID),
		SavedMap:   make(map[string]string, len(s.SavedMap)),
		SavedTrips: tripsFromDomain(s.SavedTrips),
		Saving:     make([]string, 0, len(s.Saving)),
		Carousel:   CarouselDTO{Geometry: s.Geometry, LeftArrow: s.LeftArrow, RightArrow: s.RightArrow},
	}
	for k, v := range s.SavedMap {
		out.SavedMap[string(k)] = string(v)
	}
	for k, v := range s.Saving {
		if v {
			out.Saving = append(out.Saving, string(k))
		}
	}
	sort.Strings(out.Saving)
	return out
}
