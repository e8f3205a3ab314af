package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/efreitasn/toymarket/internal/domain"
)

// validate checks request bodies against their `validate` struct tags.
var validate = newValidator()

// newValidator reports fields by their JSON names.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// WriteJSON writes a JSON response with the given status code and data.
// Sets Content-Type to application/json before writing the status code.
func WriteJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data) // Write error intentionally ignored in response helper
}

// errorResponse is the standard error response format.
type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// WriteError writes a standard error response with the given status code,
// error code, and human-readable message.
func WriteError(w http.ResponseWriter, status int, errorCode, message string) {
	WriteJSON(w, status, errorResponse{
		Error:   errorCode,
		Message: message,
	})
}

// ParseJSON decodes the request body as JSON into v and validates it.
// Unknown fields, malformed JSON and failed `validate` tags are errors.
func ParseJSON(r *http.Request, v any) error {
	ct := r.Header.Get("Content-Type")
	if ct == "" || !strings.HasPrefix(ct, "application/json") {
		return &domain.ValidationError{Message: "Request body must be valid JSON with Content-Type: application/json"}
	}

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return &domain.ValidationError{Message: "Request body must be valid JSON with Content-Type: application/json"}
	}

	if err := validate.Struct(v); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return &domain.ValidationError{Message: describeFieldError(verrs[0])}
		}
		return &domain.ValidationError{Message: err.Error()}
	}
	return nil
}

// describeFieldError renders one validator failure using the JSON field
// name.
func describeFieldError(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, fe.Param())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}

// pathInt64 parses a numeric URL parameter.
func pathInt64(r *http.Request, name string) (int64, error) {
	raw := chi.URLParam(r, name)
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, &domain.ValidationError{Message: fmt.Sprintf("%s must be an integer", name)}
	}
	return v, nil
}

// errorMapping pairs a domain error with its HTTP status and message.
type errorMapping struct {
	target  error
	status  int
	message string
}

// Checked in order; the first match wins.
var errorMappings = []errorMapping{
	{domain.ErrCompanyNotFound, http.StatusNotFound, "Company not found"},
	{domain.ErrAccountNotFound, http.StatusNotFound, "Account not found"},
	{domain.ErrDuplicateName, http.StatusConflict, "A company with this name already exists"},
	{domain.ErrSchedulerRunning, http.StatusConflict, "Scheduler is already running"},
	{domain.ErrInvalidQuantity, http.StatusUnprocessableEntity, "Quantity must be positive"},
	{domain.ErrAccountFrozen, http.StatusUnprocessableEntity, "Account is frozen"},
	{domain.ErrInsufficientFunds, http.StatusUnprocessableEntity, "Insufficient funds"},
	{domain.ErrInsufficientInventory, http.StatusUnprocessableEntity, "Not enough stocks available"},
	{domain.ErrInsufficientPosition, http.StatusUnprocessableEntity, "Not enough stocks held"},
	{domain.ErrPersistenceUnavailable, http.StatusServiceUnavailable, "Storage is temporarily unavailable"},
	{domain.ErrCorruptState, http.StatusInternalServerError, "Stored market state is inconsistent"},
}

// writeServiceError maps an error returned by the service layer to an
// HTTP response.
func writeServiceError(w http.ResponseWriter, err error) {
	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		WriteError(w, http.StatusBadRequest, "validation_error", ve.Message)
		return
	}
	for _, m := range errorMappings {
		if errors.Is(err, m.target) {
			WriteError(w, m.status, m.target.Error(), m.message)
			return
		}
	}
	WriteError(w, http.StatusInternalServerError, "internal_error", "An unexpected error occurred")
}
