package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/rinniizz/crudapi/internal/models"
)

// Envelope is the JSON body shape shared by every API response
type Envelope struct {
	Success    bool            `json:"success"`
	Message    string          `json:"message"`
	Data       any             `json:"data,omitempty"`
	Error      string          `json:"error,omitempty"` // Optional detail, never a raw storage error
	Pagination *PaginationMeta `json:"pagination,omitempty"`
	Timestamp  string          `json:"timestamp"`
}

// PaginationMeta describes one page of a list response
type PaginationMeta struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

var now = time.Now

func writeJSON(w http.ResponseWriter, statusCode int, body Envelope) {
	body.Timestamp = now().UTC().Format(time.RFC3339Nano)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	// Encoding errors are not surfaced: headers are already sent
	_ = json.NewEncoder(w).Encode(body)
}

// WriteSuccess writes a 200 envelope carrying data
func WriteSuccess(w http.ResponseWriter, message string, data any) {
	writeJSON(w, http.StatusOK, Envelope{Success: true, Message: message, Data: data})
}

// WriteCreated writes a 201 envelope carrying data
func WriteCreated(w http.ResponseWriter, message string, data any) {
	writeJSON(w, http.StatusCreated, Envelope{Success: true, Message: message, Data: data})
}

// WritePaginated writes a 200 envelope with a list and its page metadata.
// A nil slice is not special-cased; callers pass an empty slice for no rows.
func WritePaginated(w http.ResponseWriter, message string, data any, p models.Pagination, total int) {
	writeJSON(w, http.StatusOK, Envelope{
		Success: true,
		Message: message,
		Data:    data,
		Pagination: &PaginationMeta{
			Page:       p.Page,
			Limit:      p.Limit,
			Total:      total,
			TotalPages: p.TotalPages(total),
		},
	})
}

// WriteError writes a failure envelope with the given status code
func WriteError(w http.ResponseWriter, statusCode int, message string) {
	WriteErrorWithDetails(w, statusCode, message, "")
}

// WriteErrorWithDetails writes a failure envelope with an extra detail string
func WriteErrorWithDetails(w http.ResponseWriter, statusCode int, message, details string) {
	writeJSON(w, statusCode, Envelope{Success: false, Message: message, Error: details})
}

// WriteAppError maps err onto its status code and message. Anything that is
// not a *models.AppError becomes a generic 500.
func WriteAppError(w http.ResponseWriter, err error) {
	var appErr *models.AppError
	if !errors.As(err, &appErr) {
		WriteInternalError(w)
		return
	}

	switch appErr.Kind {
	case models.KindValidation, models.KindConflict:
		WriteBadRequest(w, appErr.Message)
	case models.KindUnauthorized:
		WriteUnauthorized(w, appErr.Message)
	case models.KindForbidden:
		WriteForbidden(w, appErr.Message)
	case models.KindNotFound:
		WriteNotFound(w, appErr.Message)
	case models.KindInternal:
		WriteInternalError(w)
	default:
		WriteInternalError(w)
	}
}

func WriteBadRequest(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusBadRequest, message)
}

func WriteUnauthorized(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusUnauthorized, message)
}

func WriteForbidden(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusForbidden, message)
}

func WriteNotFound(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusNotFound, message)
}

func WriteMethodNotAllowed(w http.ResponseWriter) {
	WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
}

func WriteTooManyRequests(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusTooManyRequests, message)
}

// WriteInternalError never includes the underlying cause
func WriteInternalError(w http.ResponseWriter) {
	WriteError(w, http.StatusInternalServerError, models.ErrInternal.Message)
}
