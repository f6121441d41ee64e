package domain

import "time"

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// User is the domain representation of an application user.
type User struct {
	ID      UserID
	Subject SubjectID

	Name      string
	Email     string
	AvatarURL *string
	Role      Role

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (u User) IsAdmin() bool { return u.Role == RoleAdmin }

// UserSummary is the admin listing read model.
type UserSummary struct {
	User
	ItineraryCount int
}
