package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"todolis-backend/pkg/services"
	"todolis-backend/pkg/utils"
)

// writeServiceError maps domain errors onto the JSON error envelope.
func writeServiceError(w http.ResponseWriter, err error) {
	var (
		validation *services.ValidationError
		storage    *services.StorageError
	)
	switch {
	case errors.As(err, &validation):
		utils.WriteValidationErrorResponse(w, err.Error(), validation.Field)
	case errors.Is(err, services.ErrUnauthorized):
		utils.WriteUnauthorizedResponse(w, err.Error())
	case errors.Is(err, services.ErrNotFound):
		utils.WriteNotFoundResponse(w, err.Error())
	case errors.Is(err, services.ErrConflict):
		utils.WriteConflictResponse(w, err.Error())
	case errors.As(err, &storage):
		fmt.Printf("❌ Storage error: %v\n", err)
		utils.WriteInternalServerErrorResponse(w, "An error occurred: "+err.Error())
	default:
		fmt.Printf("❌ Unexpected error: %v\n", err)
		utils.WriteInternalServerErrorResponse(w, "An error occurred: "+err.Error())
	}
}

// decodeBody parses a JSON body, answering 400 itself on failure.
func decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := utils.ParseJSONBody(r, v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			utils.WriteErrorResponseWithCode(w, http.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE", "Request body too large", "")
			return false
		}
		utils.WriteBadRequestResponse(w, "Invalid JSON: "+err.Error())
		return false
	}
	return true
}
