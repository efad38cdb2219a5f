package utils

import (
	"encoding/json"
	"net/http"

	"checkout-form-api/models"
)

func SendErrorResponse(w http.ResponseWriter, status int, message string) {
	SendResponse(w, status, models.APIResponse{
		Status:  "error",
		Message: message,
	})
}

// SendErrorResponseWithData is SendErrorResponse with a payload, used when
// the client needs the form state to redraw after a rejected action.
func SendErrorResponseWithData(w http.ResponseWriter, status int, message string, data interface{}) {
	SendResponse(w, status, models.APIResponse{
		Status:  "error",
		Message: message,
		Data:    data,
	})
}

func SendSuccessResponse(w http.ResponseWriter, response models.APIResponse) {
	SendResponse(w, http.StatusOK, response)
}

func SendResponse(w http.ResponseWriter, status int, response models.APIResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(response)
}
