package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
)

// Register mounts the form API on an /api subrouter.
func Register(router *mux.Router, paymentForm *PaymentFormHandler, signupForm *SignupHandler, health *HealthHandler) {
	api := router.PathPrefix("/api").Subrouter()

	api.HandleFunc("/payment-form", paymentForm.GetForm).Methods(http.MethodGet, http.MethodOptions)
	api.HandleFunc("/payment-form/events", paymentForm.HandleEvent).Methods(http.MethodPost, http.MethodOptions)
	api.HandleFunc("/payment-form/submit", paymentForm.Submit).Methods(http.MethodPost, http.MethodOptions)
	api.HandleFunc("/payment-form/reset", paymentForm.Reset).Methods(http.MethodPost, http.MethodOptions)
	api.HandleFunc("/payment-form/submissions/{id}", paymentForm.SubmissionStatus).Methods(http.MethodGet, http.MethodOptions)

	api.HandleFunc("/signup/terms/toggle", signupForm.ToggleTerms).Methods(http.MethodPost, http.MethodOptions)
	api.HandleFunc("/signup", signupForm.Submit).Methods(http.MethodPost, http.MethodOptions)

	api.HandleFunc("/health", health.Health).Methods(http.MethodGet)
}
