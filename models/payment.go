package models

// PaymentFormState is the payment form as the browser currently shows it.
// It lives in the form session and is replaced on every input event.
type PaymentFormState struct {
	CardNumber    string `json:"card_number"`
	CardName      string `json:"card_name"`
	SecurityCode  string `json:"security_code"`
	Expiry        string `json:"expiry"`
	TermsAccepted bool   `json:"terms_accepted"`
}

type FormField string

const (
	FieldCardNumber   FormField = "card_number"
	FieldCardName     FormField = "card_name"
	FieldSecurityCode FormField = "security_code"
	FieldExpiry       FormField = "expiry"
	FieldTerms        FormField = "terms"
)

// TextFields are the inputs that get blur/focus feedback, in form order.
var TextFields = []FormField{FieldCardNumber, FieldCardName, FieldSecurityCode, FieldExpiry}

// AllFields adds the terms checkbox to TextFields.
var AllFields = []FormField{FieldCardNumber, FieldCardName, FieldSecurityCode, FieldExpiry, FieldTerms}

// IsTextField reports whether field is one of TextFields.
func IsTextField(field FormField) bool {
	for _, f := range TextFields {
		if f == field {
			return true
		}
	}
	return false
}

// FormValidation is the outcome of re-evaluating the whole form.
type FormValidation struct {
	Valid         bool               `json:"valid"`
	SubmitEnabled bool               `json:"submit_enabled"`
	SubmitLabel   string             `json:"submit_label"`
	Fields        map[FormField]bool `json:"fields"`
}

type FeedbackState string

const (
	FeedbackNeutral FeedbackState = "neutral"
	FeedbackValid   FeedbackState = "valid"
	FeedbackInvalid FeedbackState = "invalid"
	FeedbackFocused FeedbackState = "focused"
)

// FieldFeedback drives the border/background styling of a single input.
type FieldFeedback struct {
	Field FormField     `json:"field"`
	State FeedbackState `json:"state"`
}
