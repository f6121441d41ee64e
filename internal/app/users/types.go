package users

import "github.com/tourvisto/travel-planner-api/internal/domain"

// Optional is a tri-state field used to distinguish:
// - unspecified (omitted)
// - specified as null
// - specified with a value
type Optional[T any] struct {
	specified bool
	isNull    bool
	value     T
}

func Unspecified[T any]() Optional[T] { return Optional[T]{} }
func Null[T any]() Optional[T]        { return Optional[T]{specified: true, isNull: true} }
func Some[T any](v T) Optional[T]     { return Optional[T]{specified: true, value: v} }

func (o Optional[T]) IsSpecified() bool { return o.specified }
func (o Optional[T]) IsNull() bool      { return o.specified && o.isNull }
func (o Optional[T]) Value() T          { return o.value }

type ProvisionMeInput struct {
	Name      string
	Email     string
	AvatarURL *string
}

type UpdateMeInput struct {
	Name      Optional[string] // cannot be null
	Email     Optional[string] // cannot be null
	AvatarURL Optional[string] // null clears the avatar
}

// UserPage is one page of the admin user listing.
type UserPage struct {
	Users []domain.UserSummary
	Total int
}
