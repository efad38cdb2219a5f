package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"github.com/gorilla/sessions"
	"go.uber.org/zap"

	"checkout-form-api/middleware"
	"checkout-form-api/models"
	"checkout-form-api/services/payment"
	"checkout-form-api/storage"
	"checkout-form-api/utils"
)

type PaymentFormHandler struct {
	store          sessions.Store
	paymentService *payment.Service
	validate       *validator.Validate
	logger         *zap.Logger
}

func NewPaymentFormHandler(store sessions.Store, ps *payment.Service, logger *zap.Logger) (*PaymentFormHandler, error) {
	if store == nil {
		return nil, fmt.Errorf("session store is required")
	}
	if ps == nil {
		return nil, fmt.Errorf("payment service is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	return &PaymentFormHandler{
		store:          store,
		paymentService: ps,
		validate:       validator.New(validator.WithRequiredStructEnabled()),
		logger:         logger.Named("payment_form"),
	}, nil
}

func (h *PaymentFormHandler) log(r *http.Request) *zap.Logger {
	return h.logger.With(zap.String("request_id", middleware.RequestIDFromContext(r.Context())))
}

// session decodes the form session. A cookie that no longer decodes yields a
// fresh session rather than an error.
func (h *PaymentFormHandler) session(r *http.Request) *formSession {
	session, err := h.store.Get(r, paymentSessionName)
	if err != nil {
		h.log(r).Warn("discarding undecodable form session", zap.Error(err))
	}
	return loadFormSession(session)
}

func (h *PaymentFormHandler) saveOrFail(w http.ResponseWriter, r *http.Request, fs *formSession) bool {
	if err := fs.save(w, r); err != nil {
		h.log(r).Error("failed to save form session", zap.Error(err))
		utils.SendErrorResponse(w, http.StatusInternalServerError, "Failed to save form session")
		return false
	}
	return true
}

// evaluate re-runs the form gate and keeps the submit control disabled
// while a submission for this form is in flight.
func (h *PaymentFormHandler) evaluate(ctx context.Context, fs *formSession) models.FormValidation {
	validation := h.paymentService.ValidateForm(fs.State)
	if fs.Pending == "" {
		return validation
	}

	processing, err := h.paymentService.IsProcessing(ctx, fs.FormID)
	if err != nil {
		h.logger.Warn("failed to check processing state", zap.String("form_id", fs.FormID), zap.Error(err))
		return validation
	}
	if processing {
		validation.SubmitEnabled = false
		validation.SubmitLabel = payment.ProcessingLabel
	}
	return validation
}

func (h *PaymentFormHandler) formResponse(ctx context.Context, fs *formSession) models.FormResponse {
	return models.FormResponse{
		State:        fs.State,
		Validation:   h.evaluate(ctx, fs),
		SubmissionID: fs.Pending,
	}
}

// settle applies a finished submission to its form: success clears the form,
// failure only drops the pending marker so the user can try again.
func (h *PaymentFormHandler) settle(fs *formSession, sub *models.Submission) {
	if sub.Status == models.PaymentStatusSuccess {
		fs.reset()
		return
	}
	fs.Pending = ""
}

// settlePending settles the session's pending submission if it has finished
// or is gone.
func (h *PaymentFormHandler) settlePending(ctx context.Context, fs *formSession) {
	if fs.Pending == "" {
		return
	}

	sub, err := h.paymentService.GetSubmission(ctx, fs.Pending)
	switch {
	case errors.Is(err, storage.ErrSubmissionNotFound):
		fs.Pending = ""
	case err != nil:
		h.logger.Warn("failed to load pending submission", zap.String("submission_id", fs.Pending), zap.Error(err))
	case sub.Status.IsFinal():
		h.settle(fs, sub)
	}
}

// GetForm returns the current form state and submit gate.
func (h *PaymentFormHandler) GetForm(w http.ResponseWriter, r *http.Request) {
	fs := h.session(r)
	h.settlePending(r.Context(), fs)
	if !h.saveOrFail(w, r, fs) {
		return
	}

	utils.SendSuccessResponse(w, models.APIResponse{
		Status:  "success",
		Message: "Payment form loaded",
		Data:    h.formResponse(r.Context(), fs),
	})
}

// HandleEvent applies one UI event to the form and returns the re-evaluated form.
func (h *PaymentFormHandler) HandleEvent(w http.ResponseWriter, r *http.Request) {
	var event models.FormEvent
	if err := json.NewDecoder(r.Body).Decode(&event); err != nil {
		utils.SendErrorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := h.validate.Struct(event); err != nil {
		utils.SendErrorResponse(w, http.StatusBadRequest, fmt.Sprintf("Invalid event: %v", err))
		return
	}

	fs := h.session(r)

	switch event.Type {
	case models.EventInput:
		if !models.IsTextField(event.Field) {
			utils.SendErrorResponse(w, http.StatusBadRequest, "Input events require a text field")
			return
		}
		fs.State = h.paymentService.ApplyInput(fs.State, event.Field, event.Value)

	case models.EventChange:
		if event.Field != models.FieldTerms {
			utils.SendErrorResponse(w, http.StatusBadRequest, "Change events are only supported for terms")
			return
		}
		accepted, err := strconv.ParseBool(event.Value)
		if err != nil {
			utils.SendErrorResponse(w, http.StatusBadRequest, "Terms value must be true or false")
			return
		}
		fs.State.TermsAccepted = accepted

	case models.EventBlur, models.EventFocus:
		if !models.IsTextField(event.Field) {
			utils.SendErrorResponse(w, http.StatusBadRequest, "Focus and blur events require a text field")
			return
		}
		var feedback models.FieldFeedback
		if event.Type == models.EventBlur {
			feedback = h.paymentService.FieldFeedback(event.Field, fieldValue(fs.State, event.Field))
		} else {
			feedback = h.paymentService.FocusFeedback(event.Field)
		}
		resp := h.formResponse(r.Context(), fs)
		resp.Feedback = &feedback
		utils.SendSuccessResponse(w, models.APIResponse{Status: "success", Message: "Feedback computed", Data: resp})
		return

	case models.EventKeydown:
		h.handleKey(w, r, fs, event)
		return
	}

	if !h.saveOrFail(w, r, fs) {
		return
	}
	utils.SendSuccessResponse(w, models.APIResponse{
		Status:  "success",
		Message: "Form updated",
		Data:    h.formResponse(r.Context(), fs),
	})
}

func (h *PaymentFormHandler) handleKey(w http.ResponseWriter, r *http.Request, fs *formSession, event models.FormEvent) {
	switch {
	case event.Key == "Escape":
		// The page asks for confirmation before sending Escape.
		h.reset(w, r, fs)
	case event.Key == "Enter" && event.Ctrl:
		if !h.paymentService.ValidateForm(fs.State).Valid {
			utils.SendSuccessResponse(w, models.APIResponse{
				Status:  "success",
				Message: "Form is not valid",
				Data:    h.formResponse(r.Context(), fs),
			})
			return
		}
		h.submit(w, r, fs)
	case event.Key == "Enter":
		resp := h.formResponse(r.Context(), fs)
		resp.Prevented = true
		utils.SendSuccessResponse(w, models.APIResponse{Status: "success", Message: "Enter ignored", Data: resp})
	default:
		utils.SendSuccessResponse(w, models.APIResponse{
			Status:  "success",
			Message: "Key ignored",
			Data:    h.formResponse(r.Context(), fs),
		})
	}
}

// Submit schedules the simulated payment for a valid form.
func (h *PaymentFormHandler) Submit(w http.ResponseWriter, r *http.Request) {
	h.submit(w, r, h.session(r))
}

func (h *PaymentFormHandler) submit(w http.ResponseWriter, r *http.Request, fs *formSession) {
	sub, validation, err := h.paymentService.Submit(r.Context(), fs.FormID, fs.State)
	resp := models.FormResponse{State: fs.State, Validation: validation, SubmissionID: fs.Pending}

	switch {
	case errors.Is(err, payment.ErrFormInvalid):
		utils.SendErrorResponseWithData(w, http.StatusUnprocessableEntity, "Payment form is not valid", resp)
		return
	case errors.Is(err, payment.ErrFormLocked):
		utils.SendErrorResponseWithData(w, http.StatusConflict, "Payment is already being processed", resp)
		return
	case err != nil:
		h.log(r).Error("failed to submit payment form", zap.String("form_id", fs.FormID), zap.Error(err))
		utils.SendErrorResponse(w, http.StatusInternalServerError, "Failed to schedule payment processing")
		return
	}

	fs.Pending = sub.ID
	if !h.saveOrFail(w, r, fs) {
		return
	}

	resp.SubmissionID = sub.ID
	h.log(r).Info("payment form submitted", zap.String("submission_id", sub.ID), zap.String("form_id", fs.FormID))
	utils.SendResponse(w, http.StatusAccepted, models.APIResponse{
		Status:  "success",
		Message: payment.ProcessingLabel,
		Data: map[string]interface{}{
			"form": resp,
			"submission": models.SubmissionResponse{
				SubmissionID: sub.ID,
				Status:       sub.Status.String(),
				StatusURL:    fmt.Sprintf("/api/payment-form/submissions/%s", sub.ID),
			},
		},
	})
}

// Reset clears the form. Confirmation happens on the page.
func (h *PaymentFormHandler) Reset(w http.ResponseWriter, r *http.Request) {
	h.reset(w, r, h.session(r))
}

func (h *PaymentFormHandler) reset(w http.ResponseWriter, r *http.Request, fs *formSession) {
	fs.reset()
	if !h.saveOrFail(w, r, fs) {
		return
	}
	utils.SendSuccessResponse(w, models.APIResponse{
		Status:  "success",
		Message: "Form reset",
		Data:    h.formResponse(r.Context(), fs),
	})
}

// SubmissionStatus reports a submission of this session's form. The first
// time the pending submission is seen finished it is settled into the form.
func (h *PaymentFormHandler) SubmissionStatus(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if id == "" {
		utils.SendErrorResponse(w, http.StatusBadRequest, "Submission ID is required")
		return
	}

	fs := h.session(r)
	sub, err := h.paymentService.GetSubmission(r.Context(), id)
	if errors.Is(err, storage.ErrSubmissionNotFound) || (err == nil && sub.FormID != fs.FormID && fs.Pending != id) {
		utils.SendErrorResponse(w, http.StatusNotFound, "Submission not found")
		return
	}
	if err != nil {
		h.log(r).Error("failed to load submission", zap.String("submission_id", id), zap.Error(err))
		utils.SendErrorResponse(w, http.StatusInternalServerError, "Failed to load submission")
		return
	}

	message := sub.Message
	if !sub.Status.IsFinal() {
		message = payment.ProcessingLabel
	} else if fs.Pending == id {
		h.settle(fs, sub)
		if !h.saveOrFail(w, r, fs) {
			return
		}
	}

	utils.SendSuccessResponse(w, models.APIResponse{
		Status:  "success",
		Message: message,
		Data: map[string]interface{}{
			"form": h.formResponse(r.Context(), fs),
			"submission": models.SubmissionResponse{
				SubmissionID: sub.ID,
				Status:       sub.Status.String(),
				Message:      sub.Message,
				StatusURL:    fmt.Sprintf("/api/payment-form/submissions/%s", sub.ID),
			},
		},
	})
}

func fieldValue(state models.PaymentFormState, field models.FormField) string {
	switch field {
	case models.FieldCardNumber:
		return state.CardNumber
	case models.FieldCardName:
		return state.CardName
	case models.FieldSecurityCode:
		return state.SecurityCode
	case models.FieldExpiry:
		return state.Expiry
	default:
		return ""
	}
}
