package domain

import "time"

type Review struct {
	ID     ReviewID
	TripID TripID
	UserID UserID

	UserName   string
	UserAvatar *string
	Text       string
	// Rating is 1..5; nil means the author did not rate.
	Rating *int

	Permissions []Grant
	CreatedAt   time.Time
}

// PublicReadOwnerWriteGrants is the permission set attached to reviews.
func PublicReadOwnerWriteGrants(owner UserID) []Grant {
	role := UserRole(owner)
	return []Grant{
		{Action: ActionRead, Role: RoleAny},
		{Action: ActionWrite, Role: role},
		{Action: ActionUpdate, Role: role},
		{Action: ActionDelete, Role: role},
	}
}
