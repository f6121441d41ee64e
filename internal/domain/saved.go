package domain

import (
	"fmt"
	"time"
)

type Action string

const (
	ActionRead   Action = "read"
	ActionWrite  Action = "write"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// RoleAny grants an action to every caller, authenticated or not.
const RoleAny = "any"

// Grant is a per-document permission: Action is allowed for Role.
// Role is either RoleAny or "user:<id>".
type Grant struct {
	Action Action `json:"action"`
	Role   string `json:"role"`
}

func UserRole(id UserID) string { return fmt.Sprintf("user:%s", id) }

// OwnerOnlyGrants returns read/write/delete grants restricted to the given user.
func OwnerOnlyGrants(id UserID) []Grant {
	role := UserRole(id)
	return []Grant{
		{Action: ActionRead, Role: role},
		{Action: ActionWrite, Role: role},
		{Action: ActionDelete, Role: role},
	}
}

// Allows reports whether caller may perform action under grants.
func Allows(grants []Grant, action Action, caller UserID) bool {
	for _, g := range grants {
		if g.Action != action {
			continue
		}
		if g.Role == RoleAny || (caller != "" && g.Role == UserRole(caller)) {
			return true
		}
	}
	return false
}

// SavedLink records that a user saved a trip.
type SavedLink struct {
	ID     SavedLinkID
	UserID UserID
	TripID TripID

	Permissions []Grant
	CreatedAt   time.Time
}

// SavedPage is one page of saved links. Total is the size of the full matching set.
type SavedPage struct {
	Links []SavedLink
	Total int
}
