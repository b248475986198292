package apperr

import (
	"encoding/json"
	"errors"
	"net/http"
)

// Body is the JSON shape of every error response.
type Body struct {
	Error   string       `json:"error"`
	Message string       `json:"message"`
	Fields  []FieldError `json:"fields,omitempty"`
}

// Describe maps err to an HTTP status and a user-facing title and message.
// Unclassified errors surface their own text with status 500.
func Describe(err error) (int, Body) {
	var ve *ValidationError
	switch {
	case errors.As(err, &ve):
		msg := "Please check the highlighted fields."
		if len(ve.Fields) == 1 {
			msg = ve.Fields[0].Message
		}
		return http.StatusBadRequest, Body{Error: "Missing information", Message: msg, Fields: ve.Fields}
	case errors.Is(err, ErrUnauthenticated):
		return http.StatusUnauthorized, Body{Error: "Authentication required", Message: "Please sign in to continue."}
	case errors.Is(err, ErrInvalidCredentials):
		return http.StatusUnauthorized, Body{Error: "Invalid credentials", Message: "Email or password is incorrect."}
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden, Body{Error: "Forbidden", Message: "You can only modify your own profile."}
	case errors.Is(err, ErrDuplicateDriver):
		return http.StatusConflict, Body{Error: "Driver already exists", Message: "This vehicle number already exists for the selected platform."}
	case errors.Is(err, ErrDuplicateReview):
		return http.StatusConflict, Body{Error: "Review already exists", Message: "You have already reviewed this driver."}
	case errors.Is(err, ErrEmailTaken):
		return http.StatusConflict, Body{Error: "Email already registered", Message: "An account with this email already exists."}
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound, Body{Error: "Not found", Message: err.Error()}
	}
	return http.StatusInternalServerError, Body{Error: "Something went wrong", Message: err.Error()}
}

// Write renders err as a JSON error response.
func Write(w http.ResponseWriter, err error) {
	status, body := Describe(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
