package dto

import (
	"cmp"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"slices"

	"github.com/orgplan/orgplan/internal/domain"
)

// ErrorResponse is an RFC 9457 problem document. Rule names the broken
// business rule, when there is one, so clients can branch on it without
// parsing Detail.
type ErrorResponse struct {
	Type     string        `json:"type"`
	Title    string        `json:"title"`
	Status   int           `json:"status"`
	Detail   string        `json:"detail,omitempty"`
	Instance string        `json:"instance,omitempty"`
	Rule     string        `json:"rule,omitempty"`
	Errors   []ErrorDetail `json:"errors,omitempty"`
}

// ErrorDetail is one invalid input field.
type ErrorDetail struct {
	Location string `json:"location"`
	Message  string `json:"message"`
}

// kindStatus is checked in order; the first kind err matches wins.
var kindStatus = []struct {
	kind   error
	status int
}{
	{domain.ErrValidation, http.StatusBadRequest},
	{domain.ErrNotFound, http.StatusNotFound},
	{domain.ErrInvariant, http.StatusUnprocessableEntity},
	{domain.ErrNoChanges, http.StatusConflict},
	{domain.ErrConflict, http.StatusConflict},
	{domain.ErrUnavailable, http.StatusServiceUnavailable},
}

// StatusFor maps an error to its HTTP status by kind. Errors of no known
// kind are 500.
func StatusFor(err error) int {
	for _, ks := range kindStatus {
		if errors.Is(err, ks.kind) {
			return ks.status
		}
	}
	return http.StatusInternalServerError
}

// NewErrorResponse builds the problem document for err.
func NewErrorResponse(r *http.Request, err error) ErrorResponse {
	status := StatusFor(err)
	resp := ErrorResponse{
		Type:     "about:blank",
		Title:    http.StatusText(status),
		Status:   status,
		Detail:   err.Error(),
		Instance: r.RequestURI,
		Rule:     domain.RuleName(err),
	}

	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		resp.Errors = fieldDetails(verr.Fields)
	}
	return resp
}

// WriteErrorResponse writes the problem document for err as
// application/problem+json.
func WriteErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	resp := NewErrorResponse(r, err)

	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(resp.Status)

	if encErr := json.NewEncoder(w).Encode(resp); encErr != nil {
		slog.ErrorContext(r.Context(), "failed to encode error response",
			slog.Any("error", encErr),
		)
	}
}

func fieldDetails(fields map[string]string) []ErrorDetail {
	details := make([]ErrorDetail, 0, len(fields))
	for field, msg := range fields {
		details = append(details, ErrorDetail{Location: field, Message: msg})
	}
	slices.SortFunc(details, func(a, b ErrorDetail) int { return cmp.Compare(a.Location, b.Location) })
	return details
}
