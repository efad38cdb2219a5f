package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gorilla/sessions"
	"go.uber.org/zap"

	"checkout-form-api/models"
	"checkout-form-api/services/signup"
	"checkout-form-api/utils"
)

type SignupHandler struct {
	store   sessions.Store
	service *signup.Service
	logger  *zap.Logger
}

func NewSignupHandler(store sessions.Store, service *signup.Service, logger *zap.Logger) *SignupHandler {
	return &SignupHandler{store: store, service: service, logger: logger.Named("signup")}
}

func (h *SignupHandler) session(r *http.Request) *sessions.Session {
	session, err := h.store.Get(r, signupSessionName)
	if err != nil {
		h.logger.Warn("discarding undecodable signup session", zap.Error(err))
	}
	return session
}

// ToggleTerms flips the custom terms checkbox.
func (h *SignupHandler) ToggleTerms(w http.ResponseWriter, r *http.Request) {
	session := h.session(r)
	accepted, _ := session.Values[sessionTermsKey].(bool)
	accepted = h.service.ToggleTerms(accepted)
	session.Values[sessionTermsKey] = accepted

	if err := session.Save(r, w); err != nil {
		h.logger.Error("failed to save signup session", zap.Error(err))
		utils.SendErrorResponse(w, http.StatusInternalServerError, "Failed to save session")
		return
	}

	utils.SendSuccessResponse(w, models.APIResponse{
		Status:  "success",
		Message: "Terms updated",
		Data:    map[string]bool{"terms_accepted": accepted},
	})
}

// Submit validates the signup form and answers with the single message the
// page shows as an alert.
func (h *SignupHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var form models.SignupForm
	if err := json.NewDecoder(r.Body).Decode(&form); err != nil {
		utils.SendErrorResponse(w, http.StatusBadRequest, fmt.Sprintf("Invalid request body: %v", err))
		return
	}

	accepted, _ := h.session(r).Values[sessionTermsKey].(bool)
	if ruleErr := h.service.Validate(form, accepted); ruleErr != nil {
		utils.SendErrorResponseWithData(w, http.StatusBadRequest, ruleErr.Message, map[string]string{"rule": ruleErr.Rule})
		return
	}

	utils.SendSuccessResponse(w, models.APIResponse{
		Status:  "success",
		Message: signup.SuccessMessage,
	})
}
