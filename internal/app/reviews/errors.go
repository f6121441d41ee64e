package reviews

// Error is an application-layer error that can be mapped to an HTTP response.
type Error struct {
	Status  int
	Code    string
	Message string
	Details map[string]any
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Message != "" {
		return e.Message
	}
	return e.Code
}

func unauthenticated() *Error {
	return &Error{Status: 401, Code: "UNAUTHENTICATED", Message: "Log in to review trips."}
}

func notConfigured() *Error {
	return &Error{Status: 503, Code: "REVIEWS_NOT_CONFIGURED", Message: "Reviews are not available."}
}

func validation(field, msg string) *Error {
	return &Error{
		Status:  422,
		Code:    "VALIDATION_ERROR",
		Message: msg,
		Details: map[string]any{"field": field},
	}
}

func notFound() *Error {
	return &Error{Status: 404, Code: "REVIEW_NOT_FOUND", Message: "Review not found."}
}

func forbidden() *Error {
	return &Error{Status: 403, Code: "FORBIDDEN", Message: "Only the author can delete this review."}
}
