package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/avelts/filecrate"
)

// ErrorResponse represents a JSON error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// WriteError writes a JSON error response
func WriteError(w http.ResponseWriter, code int, errCode, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(ErrorResponse{
		Error:   errCode,
		Message: message,
	}); err != nil {
		slog.Error("failed to encode error response", "error", err)
	}
}

// HandleError writes the error response for a coordinator error. Each error
// kind keeps its own code so clients can tell failure modes apart.
func HandleError(w http.ResponseWriter, err error) {
	slog.Error("request error", "error", err)

	switch {
	case errors.Is(err, filecrate.ErrUnauthenticated):
		WriteError(w, http.StatusUnauthorized, "unauthenticated", "Authentication required")
	case errors.Is(err, filecrate.ErrForbidden):
		WriteError(w, http.StatusForbidden, "forbidden", "Invalid or expired token")
	case errors.Is(err, filecrate.ErrUnknownSession):
		WriteError(w, http.StatusNotFound, "unknown_session", "No such upload session")
	case errors.Is(err, filecrate.ErrNotFound):
		WriteError(w, http.StatusNotFound, "not_found", "Not found")
	case errors.Is(err, filecrate.ErrInvalidPartNumber):
		WriteError(w, http.StatusBadRequest, "invalid_part_number", "Part number out of range")
	case errors.Is(err, filecrate.ErrDuplicatePart):
		WriteError(w, http.StatusConflict, "duplicate_part", "Part already registered with a different etag")
	case errors.Is(err, filecrate.ErrIncompletePartsSet):
		WriteError(w, http.StatusConflict, "incomplete_parts", "Not every part has been registered")
	case errors.Is(err, filecrate.ErrInvalidInput):
		WriteError(w, http.StatusBadRequest, "invalid_input", "Invalid input")
	case errors.Is(err, filecrate.ErrInitiationFailed):
		WriteError(w, http.StatusBadGateway, "initiation_failed", "Could not open upload with the object store")
	case errors.Is(err, filecrate.ErrPartUploadFailed):
		WriteError(w, http.StatusBadGateway, "part_upload_failed", "Part upload to the object store failed")
	case errors.Is(err, filecrate.ErrFinalizationFailed):
		WriteError(w, http.StatusBadGateway, "finalization_failed", "Upload finalization failed; the upload was aborted")
	case errors.Is(err, filecrate.ErrAbortFailed):
		WriteError(w, http.StatusBadGateway, "abort_failed", "Upload abort failed")
	case errors.Is(err, filecrate.ErrSigningFailed):
		WriteError(w, http.StatusInternalServerError, "signing_failed", "Could not sign URL")
	case errors.Is(err, filecrate.ErrMetadataPersistFailed):
		WriteError(w, http.StatusInternalServerError, "metadata_persist_failed", "Object stored but its record could not be saved")
	default:
		WriteError(w, http.StatusInternalServerError, "internal_error", "Internal server error")
	}
}

// WriteJSON writes a JSON response
func WriteJSON(w http.ResponseWriter, code int, data any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	return json.NewEncoder(w).Encode(data)
}
