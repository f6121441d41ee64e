package domain

// SubjectID is the authenticated subject extracted from JWT claims (typically "sub").
// We model it as an opaque identifier: its format is controlled by the IdP.
type SubjectID string

// UserID is an internal identifier for a user record.
type UserID string

// TripID is an internal identifier for a trip record.
type TripID string

// SavedLinkID identifies a saved-trip link document.
type SavedLinkID string

// ReviewID identifies a review document.
type ReviewID string
